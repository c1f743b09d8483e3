// Command civic-mock serves an in-memory civic issues backend for local
// development and client testing. All data is lost on exit.
//
// Exit codes: 0 = success, 1 = error.
package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/heartmarshall/civic-client/internal/app"
	"github.com/heartmarshall/civic-client/internal/auth"
	"github.com/heartmarshall/civic-client/internal/config"
	"github.com/heartmarshall/civic-client/internal/mockserver"
	"github.com/heartmarshall/civic-client/internal/transport/rest"
)

const (
	tokenIssuer     = "civic-mock"
	shutdownTimeout = 10 * time.Second
)

func main() {
	if err := config.LoadDotEnv(); err != nil {
		log.Fatalf("load .env: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if err := cfg.Mock.Validate(); err != nil {
		log.Fatalf("mock config: %v", err)
	}

	logger := app.NewLogger(cfg.Log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := serve(ctx, newServer(cfg.Mock, logger), logger); err != nil {
		logger.Error("server stopped", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func newServer(cfg config.MockConfig, logger *slog.Logger) *http.Server {
	tokens := auth.NewJWTManager(cfg.JWTSecret, tokenIssuer, cfg.TokenTTL)

	rc := rest.RouterConfig{
		AuthPrefix:  cfg.AuthPrefix,
		CORSOrigins: cfg.CORSOrigins,
		Version:     app.BuildVersion(),
	}
	if cfg.Metrics {
		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		rc.Registry = reg
	}

	return &http.Server{
		Addr:              cfg.Addr,
		Handler:           rest.NewRouter(rc, mockserver.NewStore(), tokens, logger),
		ReadHeaderTimeout: 10 * time.Second,
		ErrorLog:          slog.NewLogLogger(logger.Handler(), slog.LevelWarn),
	}
}

// serve runs srv until ctx is cancelled, then drains in-flight requests.
func serve(ctx context.Context, srv *http.Server, logger *slog.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Info("civic-mock listening",
			slog.String("addr", srv.Addr),
			slog.String("version", app.BuildVersion()),
		)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
