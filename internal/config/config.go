package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const envPrefix = "POOLSCOPE"

// Defaults shared by every command.
const (
	DefaultQuoteURL = "http://localhost:3000"
	DefaultTimeout  = 15 * time.Second
	DefaultLimit    = 20
)

// Common holds the endpoints and logging settings every command reads.
type Common struct {
	QuoteURL        string
	SubgraphURL     string
	SubgraphMetaURL string
	Timeout         time.Duration
	LogLevel        string
}

// newViper merges config file, environment variables, and flags. Flags win
// over env, env over the config file, and the file over defaults.
func newViper(cfgFile string, flags *pflag.FlagSet, defaults map[string]interface{}) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("quote-url", DefaultQuoteURL)
	v.SetDefault("timeout", DefaultTimeout)
	v.SetDefault("log-level", "info")
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return nil, fmt.Errorf("bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	return v, nil
}

func loadCommon(v *viper.Viper) Common {
	return Common{
		QuoteURL:        v.GetString("quote-url"),
		SubgraphURL:     v.GetString("subgraph-url"),
		SubgraphMetaURL: v.GetString("subgraph-meta-url"),
		Timeout:         v.GetDuration("timeout"),
		LogLevel:        v.GetString("log-level"),
	}
}

func getStringSlice(v *viper.Viper, key string) []string {
	if !v.IsSet(key) {
		return nil
	}

	val := v.Get(key)
	switch typed := val.(type) {
	case []string:
		return cleanStrings(typed)
	case string:
		return splitAndClean(typed)
	case []interface{}:
		items := make([]string, 0, len(typed))
		for _, item := range typed {
			items = append(items, fmt.Sprintf("%v", item))
		}
		return cleanStrings(items)
	default:
		return nil
	}
}

func splitAndClean(input string) []string {
	if input == "" {
		return nil
	}
	parts := strings.Split(input, ",")
	return cleanStrings(parts)
}

func cleanStrings(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		// pflag StringSlice renders an empty default as "[]"
		if item == "" || item == "[]" {
			continue
		}
		out = append(out, item)
	}
	return out
}
