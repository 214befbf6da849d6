package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"wren/internal/api"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the interview engine over HTTP",
	Long: `Exposes the session API:

  POST /api/sessions                  start or resume a session
  POST /api/sessions/{id}/messages    submit a respondent message
  GET  /api/sessions/{id}/profile     fetch the taste profile
  GET  /api/sessions/{id}/transcript  fetch the readable transcript
  GET  /api/sessions                  list active sessions
  GET  /health                        liveness check`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

func runServe(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	eng, err := newEngine(ctx)
	if err != nil {
		return err
	}
	defer eng.Close()

	handler := api.NewHandler(eng.ctrl, logger)
	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           handler.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", zap.String("addr", cfg.Server.Addr))
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
