package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/ML-Enthusiast12/Bot-And-Database-API/internal/config"
	"github.com/ML-Enthusiast12/Bot-And-Database-API/internal/logging"
)

var (
	cfgFile  string
	logLevel string
	version  = "dev"
	commit   = "none"
	date     = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "botdb",
	Short: "botdb serves a bot catalog and database schema API",
	Long: `botdb serves a catalog of chat bots and introspects PostgreSQL, MySQL
and MongoDB databases, caching each schema in an in-memory session.

Run "botdb serve" to start the HTTP API.`,
	SilenceUsage: true,
}

func Execute() {
	rootCmd.Version = fmt.Sprintf("%s (commit %s, built %s)", version, commit, date)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ~/.botdb/botdb.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error); overrides the config file")
}

// loadConfig reads --config and applies --log-level.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

func newLogger(cfg *config.Config) (*slog.Logger, error) {
	logger, err := logging.Setup(cfg.Logging.Level, cfg.Logging.Directory, cfg.Logging.Format)
	if err != nil {
		return nil, fmt.Errorf("setting up logging: %w", err)
	}
	return logger, nil
}
