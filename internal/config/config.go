package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix is the environment variable prefix, e.g. BUNQUERY_LOG_LEVEL.
const EnvPrefix = "BUNQUERY_"

// Config is the CLI configuration.
type Config struct {
	Log struct {
		Level  string
		Format string
	}
	Query struct {
		CaseSensitive bool
	}
	Watch struct {
		Delay time.Duration
	}
	Workers int
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "INFO")
	v.SetDefault("log.format", "text")
	v.SetDefault("query.casesensitive", true)
	v.SetDefault("watch.delay", 300*time.Millisecond)
	v.SetDefault("workers", 4)
}

// Load loads configuration from an optional config file and environment
// variables. path may be empty; a missing file is not an error.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	// 1. Load from config file (if given)
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("failed to read config %s: %w", path, err)
			}
		}
	}

	// 2. Load from environment variables
	// BUNQUERY_WATCH_DELAY -> watch.delay
	for _, envStr := range os.Environ() {
		key, value, ok := strings.Cut(envStr, "=")
		if !ok || !strings.HasPrefix(key, EnvPrefix) {
			continue
		}
		propKey := strings.TrimPrefix(key, EnvPrefix)
		propKey = strings.ToLower(strings.ReplaceAll(propKey, "_", "."))
		propKey = strings.TrimPrefix(propKey, ".")
		v.Set(propKey, value)
	}

	// 3. Unmarshal into struct
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	return &cfg, nil
}
