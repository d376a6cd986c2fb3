package cli

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/xigt/sleipnir/config"
	"github.com/xigt/sleipnir/internal/adapter/store"
	"github.com/xigt/sleipnir/internal/port"
)

var (
	cfgFile string
	dbPath  string
	cfg     *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "sleipnir",
	Short: "Sleipnir - a corpus database server for interlinear glossed text",
	Long: `Sleipnir stores corpora of interlinear glossed text (IGT) records and
serves them over a REST API.

Example usage:
  sleipnir init odin/*.xml      # Load corpus files into the database
  sleipnir list                 # Show stored corpora
  sleipnir serve                # Start the HTTP server`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error

		if cfgFile != "" {
			cfg, err = config.Load(cfgFile)
		} else {
			wd, werr := os.Getwd()
			if werr != nil {
				return fmt.Errorf("failed to get working directory: %w", werr)
			}
			cfg, err = config.LoadFromDir(wd)
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		if dbPath != "" {
			cfg.Database.Path = dbPath
		}
		return nil
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./sleipnir.yaml)")
	rootCmd.PersistentFlags().StringVarP(&dbPath, "db", "d", "", "database path (overrides config)")
}

func newLogger() *slog.Logger {
	level := slog.LevelInfo
	switch strings.ToLower(cfg.Logging.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func openDatabase(logger *slog.Logger) (port.Database, error) {
	db, err := store.Open(cfg.Database.Backend, cfg.Database.Path, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, nil
}
