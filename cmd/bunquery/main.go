package main

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/kartikbazzad/bunbase/bunquery/internal/config"
	"github.com/kartikbazzad/bunbase/bunquery/internal/logger"
)

var (
	cfgFile   string
	logLevel  string
	logFormat string

	// cfg is populated before any subcommand runs.
	cfg = defaultConfig()
)

func defaultConfig() *config.Config {
	c, err := config.Load("")
	if err != nil {
		return &config.Config{Workers: 1}
	}
	return c
}

// --- Cobra root and top-level commands ---

var rootCmd = &cobra.Command{
	Use:          "bunquery",
	Short:        "Filter JSON records with MongoDB-style query documents",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load(cfgFile)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("log-level") {
			c.Log.Level = logLevel
		}
		if cmd.Flags().Changed("log-format") {
			c.Log.Format = logFormat
		}
		logger.Init(logger.Config{Level: c.Log.Level, Format: c.Log.Format})
		cfg = c
		cmd.SetContext(withRunID(cmd.Context()))
		return nil
	},
}

// withRunID tags ctx with a fresh trace id so every log line of one
// invocation can be correlated.
func withRunID(ctx context.Context) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return logger.ContextWithTraceID(ctx, uuid.New().String())
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Config file (yaml, json or toml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "INFO", "DEBUG, INFO, WARN or ERROR")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "text or json")

	rootCmd.AddCommand(newFilterCmd(), newValidateCmd(), newWatchCmd(), newShellCmd())
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
