package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"poolScope/internal/chain"
	"poolScope/internal/config"
	"poolScope/internal/pools"
	"poolScope/internal/refresh"
	"poolScope/internal/subgraph"
	"poolScope/internal/view"
)

func newWaitSyncCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "wait-sync",
		Short: "Wait for the subgraph to index a transaction, then print the refreshed position",
		RunE:  runWaitSync,
	}
	addCommonFlags(cmd.Flags())
	cmd.Flags().String("pool", "", "pool address")
	cmd.Flags().String("account", "", "account address")
	cmd.Flags().String("role", "lp", "position to refresh (lp, user)")
	cmd.Flags().String("tx", "", "transaction hash to wait for")
	cmd.Flags().Uint64("block", 0, "block number to wait for, used when --tx is empty")
	cmd.Flags().String("rpc", "", "RPC URL, required with --tx")
	cmd.Flags().Duration("max-wait", config.DefaultSyncMaxWait, "maximum time to wait for the subgraph")
	cmd.Flags().Duration("sync-poll", config.DefaultSyncPollInterval, "subgraph sync poll interval")
	cmd.Flags().Duration("receipt-poll", config.DefaultReceiptPoll, "receipt poll interval")
	return cmd
}

type waitSyncOutput struct {
	Block  uint64         `json:"block"`
	Synced bool           `json:"synced"`
	Pool   view.PoolRow   `json:"pool"`
	LP     *view.LPCard   `json:"lp,omitempty"`
	User   *view.UserCard `json:"user,omitempty"`
	Index  *indexView     `json:"index,omitempty"`
}

// indexView reports how far the subgraph trails the RPC head.
type indexView struct {
	IndexedBlock uint64 `json:"indexedBlock"`
	HeadBlock    uint64 `json:"headBlock"`
	Lag          uint64 `json:"lag"`
}

func runWaitSync(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadWaitSync(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.Role != "lp" && cfg.Role != "user" {
		return fmt.Errorf("role must be lp or user, got %q", cfg.Role)
	}
	if _, err := validateAccount(config.AccountConfig{Pool: cfg.Pool, Account: cfg.Account}); err != nil {
		return err
	}
	if cfg.TxHash == "" && cfg.Block == 0 {
		return fmt.Errorf("tx or block is required")
	}

	c, err := newClients(cfg.Common, logger)
	if err != nil {
		return err
	}

	ctx, stop := commandContext()
	defer stop()

	var client *chain.Client
	if cfg.RPCURL != "" {
		client, err = chain.NewClient(ctx, cfg.RPCURL)
		if err != nil {
			return err
		}
		defer client.Close()
	}

	block, err := targetBlock(ctx, cfg, client, logger)
	if err != nil {
		return err
	}

	sig := refresh.NewSignal()
	key := pools.AccountKey{Pool: cfg.Pool, Account: cfg.Account}
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	refreshed := make(chan error, 1)
	var lpData pools.LPData
	var userData pools.UserData
	// Only results loaded after the bump reflect the indexed block.
	accept := func(version uint64, loadErr error, set func()) {
		if version == 0 {
			return
		}
		if loadErr == nil {
			set()
		}
		select {
		case refreshed <- loadErr:
		default:
		}
	}

	if cfg.Role == "lp" {
		loader := c.service.LPDataLoader(sig, func(r refresh.Result[pools.AccountKey, pools.LPData]) {
			accept(r.Version, r.Err, func() { lpData = r.Value })
		})
		go loader.Run(runCtx, key)
	} else {
		loader := c.service.UserDataLoader(sig, func(r refresh.Result[pools.AccountKey, pools.UserData]) {
			accept(r.Version, r.Err, func() { userData = r.Value })
		})
		go loader.Run(runCtx, key)
	}

	out := waitSyncOutput{Block: block}
	logger.Info("wait-sync start", zap.Uint64("block", block), zap.String("role", cfg.Role), zap.Duration("max_wait", cfg.MaxWait))
	out.Synced = c.subgraph.WaitForSync(ctx, block, cfg.MaxWait, cfg.PollInterval)
	if !out.Synced {
		logger.Warn("subgraph did not reach block in time, refreshing anyway", zap.Uint64("block", block))
	}
	version := sig.Bump()
	logger.Debug("refresh signal bumped", zap.Uint64("version", version))

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-refreshed:
		if err != nil {
			return err
		}
	}
	cancel()

	pool, err := c.service.Pool(ctx, cfg.Pool)
	if err != nil {
		return err
	}
	out.Pool = view.Pool(pool, time.Now())
	if client != nil {
		out.Index = indexStatus(ctx, c.subgraph, client, logger)
	}
	if cfg.Role == "lp" {
		card := view.LP(pool, lpData)
		out.LP = &card
	} else {
		card := view.User(pool, userData)
		out.User = &card
	}
	return printJSON(out)
}

func targetBlock(ctx context.Context, cfg config.WaitSyncConfig, client *chain.Client, logger *zap.Logger) (uint64, error) {
	if cfg.TxHash == "" {
		return cfg.Block, nil
	}
	if client == nil {
		return 0, fmt.Errorf("rpc url is required with tx")
	}
	hash, err := chain.ParseTxHash(cfg.TxHash)
	if err != nil {
		return 0, err
	}

	waitCtx, cancel := context.WithTimeout(ctx, cfg.MaxWait)
	defer cancel()
	block, err := chain.WaitReceiptBlock(waitCtx, client, hash, cfg.ReceiptPoll)
	if err != nil {
		return 0, err
	}
	logger.Info("transaction confirmed", zap.String("tx", hash.Hex()), zap.Uint64("block", block))
	return block, nil
}

// indexStatus is best effort; a failed read leaves the lag out of the output.
func indexStatus(ctx context.Context, sg *subgraph.Client, reader chain.ChainReader, logger *zap.Logger) *indexView {
	indexed, err := sg.SyncedBlock(ctx)
	if err != nil {
		logger.Warn("read indexed block failed", zap.Error(err))
		return nil
	}
	head, lag, err := chain.IndexLag(ctx, reader, indexed)
	if err != nil {
		logger.Warn("read head block failed", zap.Error(err))
		return nil
	}
	return &indexView{IndexedBlock: indexed, HeadBlock: head, Lag: lag}
}
