package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"poolScope/internal/config"
	"poolScope/internal/quoteapi"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the quote API",
		RunE:  runServe,
	}
	cmd.Flags().String("listen", ":3000", "listen address")
	cmd.Flags().String("upstream-url", quoteapi.DefaultUpstreamURL, "chart API base URL")
	cmd.Flags().Duration("timeout", config.DefaultTimeout, "upstream request timeout")
	cmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")
	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadServe(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.Listen == "" {
		return fmt.Errorf("listen address is required")
	}

	upstream := quoteapi.NewUpstream(quoteapi.UpstreamOpts{
		BaseURL: cfg.UpstreamURL,
		Timeout: cfg.Timeout,
		Logger:  logger,
	})
	server := quoteapi.NewServer(upstream, cfg.Listen, logger)

	ctx, stop := commandContext()
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	logger.Info("quote api start", zap.String("listen", cfg.Listen), zap.String("upstream", cfg.UpstreamURL))

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Stop(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	logger.Info("quote api stopped")
	return nil
}
