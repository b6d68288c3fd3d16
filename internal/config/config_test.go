package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
)

// chdirTemp keeps a stray ./config.* out of the defaults under test.
func chdirTemp(t *testing.T) {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(t.TempDir()); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })
}

func TestLoadSnapshotDefaults(t *testing.T) {
	chdirTemp(t)

	cfg, err := LoadSnapshot("", nil)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.QuoteURL != DefaultQuoteURL || cfg.Timeout != DefaultTimeout || cfg.LogLevel != "info" {
		t.Fatalf("common defaults mismatch: %+v", cfg.Common)
	}
	if cfg.Interval != 5*time.Minute || !cfg.CheckpointEnabled || cfg.MaxRetries != 5 {
		t.Fatalf("snapshot defaults mismatch: %+v", cfg)
	}
	if cfg.Limit != DefaultLimit {
		t.Fatalf("limit = %d, want %d", cfg.Limit, DefaultLimit)
	}
}

func TestLoadEnvAndFlagPrecedence(t *testing.T) {
	chdirTemp(t)
	t.Setenv("POOLSCOPE_SUBGRAPH_URL", "http://env/graphql")
	t.Setenv("POOLSCOPE_POLL_INTERVAL", "30s")
	t.Setenv("POOLSCOPE_SYMBOL", "TSLA")

	flags := pflag.NewFlagSet("watch", pflag.ContinueOnError)
	flags.String("symbol", "", "")
	flags.Duration("poll-interval", DefaultPollInterval, "")
	if err := flags.Parse([]string{"--symbol", "AAPL"}); err != nil {
		t.Fatalf("parse flags: %v", err)
	}

	cfg, err := LoadWatch("", flags)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.SubgraphURL != "http://env/graphql" {
		t.Fatalf("subgraph url from env = %q", cfg.SubgraphURL)
	}
	if cfg.Symbol != "AAPL" {
		t.Fatalf("flag should win over env, got %q", cfg.Symbol)
	}
	if cfg.PollInterval != 30*time.Second {
		t.Fatalf("env should win over flag default, got %s", cfg.PollInterval)
	}
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "poolscope.yaml")
	body := "subgraph-url: http://file/graphql\nsymbols: xTSLA, xAAPL ,\nlog-level: debug\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadQuote(path, nil)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.SubgraphURL != "http://file/graphql" || cfg.LogLevel != "debug" {
		t.Fatalf("file values mismatch: %+v", cfg.Common)
	}
	if len(cfg.Symbols) != 2 || cfg.Symbols[0] != "xTSLA" || cfg.Symbols[1] != "xAAPL" {
		t.Fatalf("symbols mismatch: %v", cfg.Symbols)
	}
}

func TestLoadMissingConfigFileFails(t *testing.T) {
	if _, err := LoadPools(filepath.Join(t.TempDir(), "missing.yaml"), nil); err == nil {
		t.Fatalf("expected explicit missing config file to fail")
	}
}

func TestCleanStrings(t *testing.T) {
	got := splitAndClean(" a, ,b,[]")
	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Fatalf("splitAndClean = %v", got)
	}
}
