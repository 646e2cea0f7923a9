package cmd

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"fuel-dashboard/internal/app"
	"fuel-dashboard/internal/platform/config"
	"fuel-dashboard/internal/platform/logging"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		cfg, err := config.Load(cfgFile)
		if err != nil {
			return err
		}
		logger, err := logging.NewLogger(cfg.LogLevel)
		if err != nil {
			return err
		}
		defer func() { _ = logger.Sync() }()

		application, err := app.New(ctx, cfg, logger)
		if err != nil {
			logger.Error("failed to initialize application", zap.Error(err))
			return err
		}
		defer application.Close()

		if err := application.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("application stopped with error", zap.Error(err))
			return err
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
