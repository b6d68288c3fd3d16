package main

import (
	"context"
	"fmt"
	"math/big"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"poolScope/internal/chain"
	"poolScope/internal/config"
	"poolScope/internal/format"
	"poolScope/internal/model"
	"poolScope/internal/view"
)

func newPoolsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pools",
		Short: "List pools with market data",
		RunE:  runPools,
	}
	addCommonFlags(cmd.Flags())
	cmd.Flags().Uint64("chain-id", 0, "chain id filter, 0 lists every chain")
	cmd.Flags().Int("limit", config.DefaultLimit, "maximum number of pools")
	return cmd
}

func newPoolCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pool",
		Short: "Show one pool",
		RunE:  runPool,
	}
	addAccountFlags(cmd)
	return cmd
}

func newLPCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lp",
		Short: "Show a liquidity provider's position in a pool",
		RunE:  runLP,
	}
	addAccountFlags(cmd)
	addAmountFlag(cmd)
	return cmd
}

func newUserCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Show a depositor's position in a pool",
		RunE:  runUser,
	}
	addAccountFlags(cmd)
	addAmountFlag(cmd)
	return cmd
}

func newQuoteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "quote",
		Short: "Fetch market quotes",
		RunE:  runQuote,
	}
	addCommonFlags(cmd.Flags())
	cmd.Flags().StringSlice("symbols", nil, "symbols to quote (comma-separated)")
	cmd.Flags().Bool("batch", false, "use the batch endpoint even for one symbol")
	return cmd
}

func addAccountFlags(cmd *cobra.Command) {
	addCommonFlags(cmd.Flags())
	cmd.Flags().String("pool", "", "pool address")
	cmd.Flags().String("account", "", "account address")
	cmd.Flags().String("rpc", "", "optional RPC URL for on-chain reads")
}

func addAmountFlag(cmd *cobra.Command) {
	cmd.Flags().String("amount", "", "preview a request of this many reserve tokens (e.g. 1.5)")
}

func commandContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func runPools(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadPools(cfgFile, cmd.Flags())
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

	c, err := newClients(cfg.Common, logger)
	if err != nil {
		return err
	}

	ctx, stop := commandContext()
	defer stop()

	list, err := c.service.Pools(ctx, cfg.ChainID, cfg.Limit)
	if err != nil {
		return err
	}
	logger.Debug("pools loaded", zap.Int("count", len(list)), zap.Uint64("chain_id", cfg.ChainID))
	return printJSON(view.Pools(list, time.Now()))
}

type onchainView struct {
	HeadBlock    uint64      `json:"headBlock"`
	OraclePrice  string      `json:"oraclePrice"`
	AssetToken   model.Token `json:"assetToken"`
	ReserveToken model.Token `json:"reserveToken"`
}

type poolOutput struct {
	Pool    view.PoolRow `json:"pool"`
	Onchain *onchainView `json:"onchain,omitempty"`
}

func runPool(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadAccount(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if _, err := chain.ParseAddress(cfg.Pool); err != nil {
		return fmt.Errorf("pool: %w", err)
	}

	c, err := newClients(cfg.Common, logger)
	if err != nil {
		return err
	}

	ctx, stop := commandContext()
	defer stop()

	pool, err := c.service.Pool(ctx, cfg.Pool)
	if err != nil {
		return err
	}

	out := poolOutput{Pool: view.Pool(pool, time.Now())}
	if cfg.RPCURL != "" {
		onchain, err := readOnchain(ctx, cfg.RPCURL, pool, logger)
		if err != nil {
			return err
		}
		out.Onchain = onchain
	}
	return printJSON(out)
}

func readOnchain(ctx context.Context, rpcURL string, pool model.Pool, logger *zap.Logger) (*onchainView, error) {
	client, err := chain.NewClient(ctx, rpcURL)
	if err != nil {
		return nil, err
	}
	defer client.Close()

	if err := chain.CheckChainID(ctx, client, pool.ChainID); err != nil {
		return nil, err
	}
	head, err := client.LatestBlockNumber(ctx)
	if err != nil {
		return nil, fmt.Errorf("read head block: %w", err)
	}

	oracle, err := chain.ParseAddress(pool.Oracle)
	if err != nil {
		return nil, fmt.Errorf("oracle: %w", err)
	}
	price, err := chain.OraclePrice(ctx, client, oracle)
	if err != nil {
		return nil, err
	}

	cache := chain.NewTokenMetaCache(client, logger)
	asset, err := tokenMeta(ctx, cache, pool.AssetToken.Address)
	if err != nil {
		return nil, err
	}
	reserve, err := tokenMeta(ctx, cache, pool.ReserveToken.Address)
	if err != nil {
		return nil, err
	}

	if pool.OraclePrice != nil && price.Cmp(pool.OraclePrice) != 0 {
		logger.Warn("oracle price differs from indexed price",
			zap.String("pool", pool.Address),
			zap.String("onchain", price.String()),
			zap.String("indexed", pool.OraclePrice.String()),
		)
	}

	return &onchainView{
		HeadBlock:    head,
		OraclePrice:  format.FormatUSD(format.ToFloat(price, model.PriceDecimals)),
		AssetToken:   asset,
		ReserveToken: reserve,
	}, nil
}

func tokenMeta(ctx context.Context, cache *chain.TokenMetaCache, address string) (model.Token, error) {
	addr, err := chain.ParseAddress(address)
	if err != nil {
		return model.Token{}, fmt.Errorf("token: %w", err)
	}
	return cache.Get(ctx, addr)
}

type lpOutput struct {
	Pool          view.PoolRow         `json:"pool"`
	LP            view.LPCard          `json:"lp"`
	WalletBalance string               `json:"walletBalance,omitempty"`
	Preview       *view.RequestPreview `json:"preview,omitempty"`
}

func runLP(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadAccount(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	account, err := validateAccount(cfg)
	if err != nil {
		return err
	}

	c, err := newClients(cfg.Common, logger)
	if err != nil {
		return err
	}

	ctx, stop := commandContext()
	defer stop()

	pool, data, err := c.service.PoolWithLP(ctx, cfg.Pool, cfg.Account)
	if err != nil {
		return err
	}

	out := lpOutput{Pool: view.Pool(pool, time.Now()), LP: view.LP(pool, data)}
	var balance *big.Int
	if cfg.RPCURL != "" {
		balance, err = walletBalance(ctx, cfg.RPCURL, pool.ReserveToken, account)
		if err != nil {
			return err
		}
		out.WalletBalance = formatBalance(balance, pool.ReserveToken)
	}
	if cfg.Amount != "" {
		preview, err := view.PreviewLPRequest(pool, data, cfg.Amount, balance)
		if err != nil {
			return err
		}
		out.Preview = &preview
	}
	return printJSON(out)
}

type userOutput struct {
	Pool          view.PoolRow         `json:"pool"`
	User          view.UserCard        `json:"user"`
	WalletBalance string               `json:"walletBalance,omitempty"`
	Preview       *view.RequestPreview `json:"preview,omitempty"`
}

func runUser(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadAccount(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	account, err := validateAccount(cfg)
	if err != nil {
		return err
	}

	c, err := newClients(cfg.Common, logger)
	if err != nil {
		return err
	}

	ctx, stop := commandContext()
	defer stop()

	pool, data, err := c.service.PoolWithUser(ctx, cfg.Pool, cfg.Account)
	if err != nil {
		return err
	}

	out := userOutput{Pool: view.Pool(pool, time.Now()), User: view.User(pool, data)}
	var balance *big.Int
	if cfg.RPCURL != "" {
		balance, err = walletBalance(ctx, cfg.RPCURL, pool.ReserveToken, account)
		if err != nil {
			return err
		}
		out.WalletBalance = formatBalance(balance, pool.ReserveToken)
	}
	if cfg.Amount != "" {
		preview, err := view.PreviewUserRequest(pool, data, cfg.Amount, balance)
		if err != nil {
			return err
		}
		out.Preview = &preview
	}
	return printJSON(out)
}

func validateAccount(cfg config.AccountConfig) (common.Address, error) {
	if _, err := chain.ParseAddress(cfg.Pool); err != nil {
		return common.Address{}, fmt.Errorf("pool: %w", err)
	}
	account, err := chain.ParseAddress(cfg.Account)
	if err != nil {
		return common.Address{}, fmt.Errorf("account: %w", err)
	}
	return account, nil
}

func walletBalance(ctx context.Context, rpcURL string, token model.Token, owner common.Address) (*big.Int, error) {
	client, err := chain.NewClient(ctx, rpcURL)
	if err != nil {
		return nil, err
	}
	defer client.Close()

	addr, err := chain.ParseAddress(token.Address)
	if err != nil {
		return nil, fmt.Errorf("token: %w", err)
	}
	return chain.BalanceOf(ctx, client, addr, owner, nil)
}

func formatBalance(balance *big.Int, token model.Token) string {
	return format.FormatTokenAmount(balance, int(token.Decimals)) + " " + token.Symbol
}

func runQuote(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadQuote(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if len(cfg.Symbols) == 0 {
		return fmt.Errorf("at least one symbol is required")
	}

	fetcher := newFetcher(cfg.Common, logger)

	ctx, stop := commandContext()
	defer stop()

	if len(cfg.Symbols) == 1 && !cfg.Batch {
		return printJSON(view.Market(fetcher.FetchMarketData(ctx, cfg.Symbols[0])))
	}

	quotes, err := fetcher.FetchBatchMarketData(ctx, cfg.Symbols)
	if err != nil {
		return err
	}
	out := make(map[string]view.MarketView, len(quotes))
	for symbol, md := range quotes {
		out[symbol] = view.Market(md)
	}
	return printJSON(out)
}
