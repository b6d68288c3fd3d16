package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"poolScope/internal/config"
	"poolScope/internal/refresh"
	"poolScope/internal/snapshot"
	"poolScope/internal/storage"
	"poolScope/internal/storage/postgres"
)

const snapshotStateName = "pool_snapshots"

func newSnapshotCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Record periodic pool snapshots (SIGHUP takes one immediately)",
		RunE:  runSnapshot,
	}
	addCommonFlags(cmd.Flags())
	cmd.Flags().Uint64("chain-id", 0, "chain id filter, 0 snapshots every chain")
	cmd.Flags().Int("limit", config.DefaultLimit, "maximum number of pools per snapshot")
	cmd.Flags().Duration("interval", snapshot.DefaultInterval, "time between snapshots")
	cmd.Flags().Bool("once", false, "take one snapshot and exit")
	cmd.Flags().String("out", "./data/snapshots.jsonl", "output JSONL path, ignored with --pg-dsn")
	cmd.Flags().String("pg-dsn", "", "Postgres DSN")
	cmd.Flags().String("checkpoint", "./data/snapshot_checkpoint.json", "checkpoint file path, ignored with --pg-dsn")
	cmd.Flags().Bool("checkpoint-enabled", true, "enable checkpointing")
	cmd.Flags().Int("max-retries", 5, "maximum retry attempts")
	cmd.Flags().Duration("retry-backoff", 500*time.Millisecond, "initial retry backoff")
	return cmd
}

func runSnapshot(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadSnapshot(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.Interval <= 0 {
		return fmt.Errorf("interval must be greater than zero")
	}

	c, err := newClients(cfg.Common, logger)
	if err != nil {
		return err
	}

	ctx, stop := commandContext()
	defer stop()

	var sink storage.Storage
	var checkpoint snapshot.Checkpointer
	if cfg.PGDSN != "" {
		store, err := postgres.NewStore(ctx, cfg.PGDSN)
		if err != nil {
			return err
		}
		defer store.Close()
		if err := store.EnsureSchema(ctx); err != nil {
			return err
		}
		sink = store
		if cfg.CheckpointEnabled {
			checkpoint = store.Checkpoint(snapshotStateName)
		}
	} else {
		sink = storage.NewJsonlStorage(cfg.Out)
		checkpoint = snapshot.NewFileCheckpoint(cfg.Checkpoint, cfg.CheckpointEnabled)
	}

	sig := refresh.NewSignal()
	runner := snapshot.NewRunner(snapshot.RunConfig{
		ChainID:      cfg.ChainID,
		Limit:        cfg.Limit,
		Interval:     cfg.Interval,
		Once:         cfg.Once,
		MaxRetries:   cfg.MaxRetries,
		RetryBackoff: cfg.RetryBackoff,
	}, c.service, sink, checkpoint, sig, logger)

	logger.Info("snapshot start",
		zap.Uint64("chain_id", cfg.ChainID),
		zap.Int("limit", cfg.Limit),
		zap.Duration("interval", cfg.Interval),
		zap.Bool("once", cfg.Once),
		zap.Bool("postgres", cfg.PGDSN != ""),
	)

	g, gctx := errgroup.WithContext(ctx)
	runCtx, cancel := context.WithCancel(gctx)
	defer cancel()
	g.Go(func() error {
		forwardHangups(runCtx, sig, logger)
		return nil
	})
	g.Go(func() error {
		defer cancel()
		return runner.Run(runCtx)
	})
	return g.Wait()
}
