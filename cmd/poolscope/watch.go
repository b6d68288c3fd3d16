package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"poolScope/internal/config"
	"poolScope/internal/market"
	"poolScope/internal/model"
	"poolScope/internal/pools"
	"poolScope/internal/refresh"
	"poolScope/internal/view"
)

func newWatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Stream pool, position and quote updates (SIGHUP forces a refresh)",
		RunE:  runWatch,
	}
	addCommonFlags(cmd.Flags())
	cmd.Flags().Uint64("chain-id", 0, "chain id filter, 0 lists every chain")
	cmd.Flags().Int("limit", config.DefaultLimit, "maximum number of pools")
	cmd.Flags().String("symbol", "", "symbol to poll, empty disables quote polling")
	cmd.Flags().String("pool", "", "pool address for position updates")
	cmd.Flags().String("account", "", "account address for position updates")
	cmd.Flags().Duration("poll-interval", config.DefaultPollInterval, "quote poll interval")
	return cmd
}

type watchEvent struct {
	Kind    string      `json:"kind"`
	At      time.Time   `json:"at"`
	Version uint64      `json:"version"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

func runWatch(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadWatch(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.Limit <= 0 {
		return fmt.Errorf("limit must be greater than zero")
	}
	if (cfg.Pool == "") != (cfg.Account == "") {
		return fmt.Errorf("pool and account must be set together")
	}

	c, err := newClients(cfg.Common, logger)
	if err != nil {
		return err
	}

	ctx, stop := commandContext()
	defer stop()

	out := newJSONWriter(os.Stdout, false)
	emit := func(kind string, version uint64, data interface{}, loadErr error) {
		event := watchEvent{Kind: kind, At: time.Now().UTC(), Version: version, Data: data}
		if loadErr != nil {
			event.Error = loadErr.Error()
			event.Data = nil
		}
		if err := out.Write(event); err != nil {
			logger.Error("emit event failed", zap.String("kind", kind), zap.Error(err))
		}
	}

	sig := refresh.NewSignal()
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		forwardHangups(gctx, sig, logger)
		return nil
	})

	if cfg.Symbol != "" {
		poller := market.NewPoller(c.market, market.PollerConfig{
			Interval: cfg.PollInterval,
			Logger:   logger,
			OnUpdate: func(s market.PollState) {
				emit("market", sig.Version(), view.Market(s.MarketData), nil)
			},
		})
		poller.SetSymbol(cfg.Symbol)
		g.Go(func() error {
			<-gctx.Done()
			poller.Close()
			return nil
		})
	}

	poolsLoader := c.service.PoolsLoader(sig, func(r refresh.Result[pools.PoolsKey, []model.Pool]) {
		emit("pools", r.Version, view.Pools(r.Value, time.Now()), r.Err)
	})
	g.Go(func() error {
		poolsLoader.Run(gctx, pools.PoolsKey{ChainID: cfg.ChainID, Limit: cfg.Limit})
		return nil
	})

	if cfg.Pool != "" {
		key := pools.AccountKey{Pool: cfg.Pool, Account: cfg.Account}
		lpLoader := c.service.LPDataLoader(sig, func(r refresh.Result[pools.AccountKey, pools.LPData]) {
			emitCard(gctx, c.service, emit, "lp", r.Version, r.Key.Pool, r.Err, func(p model.Pool) interface{} {
				return view.LP(p, r.Value)
			})
		})
		userLoader := c.service.UserDataLoader(sig, func(r refresh.Result[pools.AccountKey, pools.UserData]) {
			emitCard(gctx, c.service, emit, "user", r.Version, r.Key.Pool, r.Err, func(p model.Pool) interface{} {
				return view.User(p, r.Value)
			})
		})
		g.Go(func() error {
			lpLoader.Run(gctx, key)
			return nil
		})
		g.Go(func() error {
			userLoader.Run(gctx, key)
			return nil
		})
	}

	logger.Info("watch start",
		zap.Uint64("chain_id", cfg.ChainID),
		zap.Int("limit", cfg.Limit),
		zap.String("symbol", cfg.Symbol),
		zap.String("pool", cfg.Pool),
		zap.Duration("poll_interval", cfg.PollInterval),
	)

	err = g.Wait()
	logger.Info("watch stopped")
	return err
}

// emitCard pairs a position result with a fresh read of its pool.
func emitCard(ctx context.Context, svc *pools.Service, emit func(string, uint64, interface{}, error), kind string, version uint64, address string, loadErr error, render func(model.Pool) interface{}) {
	if loadErr != nil {
		emit(kind, version, nil, loadErr)
		return
	}
	pool, err := svc.Pool(ctx, address)
	if err != nil {
		emit(kind, version, nil, err)
		return
	}
	emit(kind, version, render(pool), nil)
}

// forwardHangups bumps sig on every SIGHUP until ctx is done.
func forwardHangups(ctx context.Context, sig *refresh.Signal, logger *zap.Logger) {
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)

	for {
		select {
		case <-ctx.Done():
			return
		case <-hup:
			version := sig.Bump()
			logger.Info("refresh requested", zap.Uint64("version", version))
		}
	}
}
