package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/d60-Lab/break-social/internal/app"
	"github.com/d60-Lab/break-social/internal/telemetry"
	"github.com/d60-Lab/break-social/pkg/logger"
)

func newServeCommand(root *rootOptions) *cobra.Command {
	var (
		migrate bool
		workers int
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx, root, migrate, workers)
		},
	}
	cmd.Flags().BoolVar(&migrate, "migrate", false, "run migrations before serving")
	cmd.Flags().IntVar(&workers, "announce-workers", 2, "listing announcer workers")
	return cmd
}

func serve(ctx context.Context, root *rootOptions, migrate bool, workers int) error {
	cfg := root.cfg
	gin.SetMode(cfg.Server.Mode)

	flushSentry, err := telemetry.InitSentry(cfg.Sentry)
	if err != nil {
		return err
	}
	shutdownTracing, err := telemetry.InitTracing(ctx, cfg.Tracing)
	if err != nil {
		return err
	}

	a, err := app.New(ctx, cfg)
	if err != nil {
		return err
	}
	if migrate {
		if err := a.Migrate(); err != nil {
			_ = a.Close(context.Background())
			return err
		}
	}
	a.StartWorkers(workers)

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           a.Router(telemetry.Enabled()),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", zap.String("addr", cfg.Server.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	var serveErr error
	select {
	case <-ctx.Done():
	case serveErr = <-errCh:
		if serveErr != nil {
			logger.Error("http server failed", zap.Error(serveErr))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	logger.Info("shutting down")
	return errors.Join(
		serveErr,
		srv.Shutdown(shutdownCtx),
		a.Close(shutdownCtx),
		shutdownTracing(shutdownCtx),
		flushSentry(shutdownCtx),
	)
}
