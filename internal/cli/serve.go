package cli

import (
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/xigt/sleipnir/internal/server"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long: `Start the REST API server backed by the configured database.

Examples:
  sleipnir serve                # Serve on the configured address
  sleipnir serve --addr :8080   # Override the listen address`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides config)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	logger := newLogger()
	db, err := openDatabase(logger)
	if err != nil {
		return err
	}
	defer db.Close()

	addr := cfg.Server.Addr
	if serveAddr != "" {
		addr = serveAddr
	}

	svc := server.New(db, logger, cfg.Server.CORSOrigin)
	logger.Info("serving", "addr", addr, "backend", cfg.Database.Backend, "path", cfg.Database.Path)
	if err := http.ListenAndServe(addr, svc.Handler()); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}
