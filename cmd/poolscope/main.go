package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"poolScope/internal/config"
	"poolScope/internal/market"
	"poolScope/internal/pools"
	"poolScope/internal/subgraph"
)

func main() {
	root := &cobra.Command{
		Use:          "poolscope",
		Short:        "Pool, position and market data explorer",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")

	root.AddCommand(
		newPoolsCmd(),
		newPoolCmd(),
		newLPCmd(),
		newUserCmd(),
		newQuoteCmd(),
		newWatchCmd(),
		newWaitSyncCmd(),
		newSnapshotCmd(),
		newServeCmd(),
	)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func addCommonFlags(flags *pflag.FlagSet) {
	flags.String("quote-url", config.DefaultQuoteURL, "base URL of the quote API")
	flags.String("subgraph-url", "", "subgraph GraphQL endpoint")
	flags.String("subgraph-meta-url", "", "subgraph endpoint for _meta queries (defaults to subgraph-url)")
	flags.Duration("timeout", config.DefaultTimeout, "HTTP request timeout")
	flags.String("log-level", "info", "log level (debug, info, warn, error)")
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	return cfg.Build()
}

type clients struct {
	subgraph *subgraph.Client
	market   *market.Fetcher
	service  *pools.Service
}

func newClients(common config.Common, logger *zap.Logger) (clients, error) {
	if common.SubgraphURL == "" {
		return clients{}, fmt.Errorf("subgraph url is required")
	}
	sg := subgraph.NewClient(subgraph.Opts{
		Endpoint:     common.SubgraphURL,
		MetaEndpoint: common.SubgraphMetaURL,
		Timeout:      common.Timeout,
		Logger:       logger,
	})
	fetcher := newFetcher(common, logger)
	return clients{
		subgraph: sg,
		market:   fetcher,
		service:  pools.NewService(sg, fetcher, logger),
	}, nil
}

func newFetcher(common config.Common, logger *zap.Logger) *market.Fetcher {
	return market.NewFetcher(market.Opts{
		BaseURL: common.QuoteURL,
		Timeout: common.Timeout,
		Logger:  logger,
	})
}

// jsonWriter serializes concurrent JSON line output.
type jsonWriter struct {
	mu  sync.Mutex
	enc *json.Encoder
}

func newJSONWriter(w io.Writer, indent bool) *jsonWriter {
	enc := json.NewEncoder(w)
	if indent {
		enc.SetIndent("", "  ")
	}
	return &jsonWriter{enc: enc}
}

func (w *jsonWriter) Write(v interface{}) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.enc.Encode(v); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}

func printJSON(v interface{}) error {
	return newJSONWriter(os.Stdout, true).Write(v)
}
