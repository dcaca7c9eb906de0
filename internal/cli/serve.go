package cli

import (
	"context"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vietddude/schedrecovery/internal/control"
	"github.com/vietddude/schedrecovery/internal/core/config"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve health and metrics endpoints and prune expired entries",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := openApp(ctx, cmd)
	if err != nil {
		return err
	}
	defer func() {
		if err := app.Close(); err != nil {
			slog.Error("Error during shutdown", "error", err)
		}
	}()

	slog.Info("Serving", "config", cfgPath, "backend", app.Backend())
	if err := app.Run(ctx); err != nil {
		slog.Error("Service stopped with error", "error", err)
		return err
	}
	slog.Info("Shut down cleanly")
	return nil
}

// openApp loads config, sets up logging and builds the application.
func openApp(ctx context.Context, cmd *cobra.Command) (*control.App, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	logger := setupLogging(cfg)

	if cfg.Storage.Backend == config.BackendMemory && cmd != serveCmd {
		logger.Warn("Memory storage does not outlive this command")
	}

	app, err := control.NewApp(ctx, cfg, control.Options{Logger: logger})
	if err != nil {
		slog.Error("Failed to initialize", "error", err)
		return nil, err
	}
	return app, nil
}
