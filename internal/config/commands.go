package config

import (
	"time"

	"github.com/spf13/pflag"
)

// Defaults of the polling and sync commands.
const (
	DefaultPollInterval     = 15 * time.Second
	DefaultSyncMaxWait      = 60 * time.Second
	DefaultSyncPollInterval = 2 * time.Second
	DefaultReceiptPoll      = time.Second
)

// PoolsConfig configures the pools listing.
type PoolsConfig struct {
	Common
	ChainID uint64
	Limit   int
}

func LoadPools(cfgFile string, flags *pflag.FlagSet) (PoolsConfig, error) {
	v, err := newViper(cfgFile, flags, map[string]interface{}{
		"limit": DefaultLimit,
	})
	if err != nil {
		return PoolsConfig{}, err
	}
	return PoolsConfig{
		Common:  loadCommon(v),
		ChainID: v.GetUint64("chain-id"),
		Limit:   v.GetInt("limit"),
	}, nil
}

// AccountConfig configures the single pool, lp and user commands.
type AccountConfig struct {
	Common
	Pool    string
	Account string
	RPCURL  string
	Amount  string
}

func LoadAccount(cfgFile string, flags *pflag.FlagSet) (AccountConfig, error) {
	v, err := newViper(cfgFile, flags, nil)
	if err != nil {
		return AccountConfig{}, err
	}
	return AccountConfig{
		Common:  loadCommon(v),
		Pool:    v.GetString("pool"),
		Account: v.GetString("account"),
		RPCURL:  v.GetString("rpc"),
		Amount:  v.GetString("amount"),
	}, nil
}

// QuoteConfig configures the quote command.
type QuoteConfig struct {
	Common
	Symbols []string
	Batch   bool
}

func LoadQuote(cfgFile string, flags *pflag.FlagSet) (QuoteConfig, error) {
	v, err := newViper(cfgFile, flags, nil)
	if err != nil {
		return QuoteConfig{}, err
	}
	return QuoteConfig{
		Common:  loadCommon(v),
		Symbols: getStringSlice(v, "symbols"),
		Batch:   v.GetBool("batch"),
	}, nil
}

// WatchConfig configures the watch command.
type WatchConfig struct {
	Common
	ChainID      uint64
	Limit        int
	Symbol       string
	Pool         string
	Account      string
	PollInterval time.Duration
}

func LoadWatch(cfgFile string, flags *pflag.FlagSet) (WatchConfig, error) {
	v, err := newViper(cfgFile, flags, map[string]interface{}{
		"limit":         DefaultLimit,
		"poll-interval": DefaultPollInterval,
	})
	if err != nil {
		return WatchConfig{}, err
	}
	return WatchConfig{
		Common:       loadCommon(v),
		ChainID:      v.GetUint64("chain-id"),
		Limit:        v.GetInt("limit"),
		Symbol:       v.GetString("symbol"),
		Pool:         v.GetString("pool"),
		Account:      v.GetString("account"),
		PollInterval: v.GetDuration("poll-interval"),
	}, nil
}

// WaitSyncConfig configures the wait-sync command.
type WaitSyncConfig struct {
	Common
	Pool         string
	Account      string
	Role         string
	TxHash       string
	Block        uint64
	RPCURL       string
	MaxWait      time.Duration
	PollInterval time.Duration
	ReceiptPoll  time.Duration
}

func LoadWaitSync(cfgFile string, flags *pflag.FlagSet) (WaitSyncConfig, error) {
	v, err := newViper(cfgFile, flags, map[string]interface{}{
		"role":         "lp",
		"max-wait":     DefaultSyncMaxWait,
		"sync-poll":    DefaultSyncPollInterval,
		"receipt-poll": DefaultReceiptPoll,
	})
	if err != nil {
		return WaitSyncConfig{}, err
	}
	return WaitSyncConfig{
		Common:       loadCommon(v),
		Pool:         v.GetString("pool"),
		Account:      v.GetString("account"),
		Role:         v.GetString("role"),
		TxHash:       v.GetString("tx"),
		Block:        v.GetUint64("block"),
		RPCURL:       v.GetString("rpc"),
		MaxWait:      v.GetDuration("max-wait"),
		PollInterval: v.GetDuration("sync-poll"),
		ReceiptPoll:  v.GetDuration("receipt-poll"),
	}, nil
}

// SnapshotConfig configures the snapshot runner.
type SnapshotConfig struct {
	Common
	ChainID           uint64
	Limit             int
	Interval          time.Duration
	Once              bool
	Out               string
	PGDSN             string
	Checkpoint        string
	CheckpointEnabled bool
	MaxRetries        int
	RetryBackoff      time.Duration
}

func LoadSnapshot(cfgFile string, flags *pflag.FlagSet) (SnapshotConfig, error) {
	v, err := newViper(cfgFile, flags, map[string]interface{}{
		"limit":              DefaultLimit,
		"interval":           5 * time.Minute,
		"out":                "./data/snapshots.jsonl",
		"checkpoint":         "./data/snapshot_checkpoint.json",
		"checkpoint-enabled": true,
		"max-retries":        5,
		"retry-backoff":      500 * time.Millisecond,
	})
	if err != nil {
		return SnapshotConfig{}, err
	}
	return SnapshotConfig{
		Common:            loadCommon(v),
		ChainID:           v.GetUint64("chain-id"),
		Limit:             v.GetInt("limit"),
		Interval:          v.GetDuration("interval"),
		Once:              v.GetBool("once"),
		Out:               v.GetString("out"),
		PGDSN:             v.GetString("pg-dsn"),
		Checkpoint:        v.GetString("checkpoint"),
		CheckpointEnabled: v.GetBool("checkpoint-enabled"),
		MaxRetries:        v.GetInt("max-retries"),
		RetryBackoff:      v.GetDuration("retry-backoff"),
	}, nil
}

// ServeConfig configures the quote API server.
type ServeConfig struct {
	Listen      string
	UpstreamURL string
	Timeout     time.Duration
	LogLevel    string
}

func LoadServe(cfgFile string, flags *pflag.FlagSet) (ServeConfig, error) {
	v, err := newViper(cfgFile, flags, map[string]interface{}{
		"listen":       ":3000",
		"upstream-url": "https://query1.finance.yahoo.com/v8/finance/chart",
	})
	if err != nil {
		return ServeConfig{}, err
	}
	return ServeConfig{
		Listen:      v.GetString("listen"),
		UpstreamURL: v.GetString("upstream-url"),
		Timeout:     v.GetDuration("timeout"),
		LogLevel:    v.GetString("log-level"),
	}, nil
}
