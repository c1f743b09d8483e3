package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/heartmarshall/civic-client/internal/adapter/civicapi"
	"github.com/heartmarshall/civic-client/internal/adapter/device"
	"github.com/heartmarshall/civic-client/internal/adapter/postgres"
	"github.com/heartmarshall/civic-client/internal/adapter/postgres/credential"
	"github.com/heartmarshall/civic-client/internal/adapter/tokenstore/file"
	"github.com/heartmarshall/civic-client/internal/adapter/tokenstore/memory"
	"github.com/heartmarshall/civic-client/internal/config"
	"github.com/heartmarshall/civic-client/internal/gateway"
	"github.com/heartmarshall/civic-client/internal/metrics"
	"github.com/heartmarshall/civic-client/internal/service/auth"
	"github.com/heartmarshall/civic-client/internal/service/report"
)

// App holds the wired client. Close must be called when done.
type App struct {
	Config  *config.Config
	Logger  *slog.Logger
	Store   gateway.TokenStore
	Gateway *gateway.Gateway
	API     *civicapi.Client
	Auth    *auth.Service
	// Metrics is nil when metrics are disabled.
	Metrics *metrics.Collector

	closers []func() error
}

// Devices selects the capabilities offered when composing reports.
type Devices struct {
	// Location is a fixed "lat,lon" position. Empty means location access is unavailable.
	Location string
	// ImagePath is the file attached as the report photo. Empty means no photo.
	ImagePath string
}

// New builds the client from cfg. The token store backend is chosen by
// cfg.Session.Store; the postgres backend connects and migrates here.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	a := &App{Config: cfg, Logger: logger}

	store, closeStore, err := NewTokenStore(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	a.Store = store
	if closeStore != nil {
		a.closers = append(a.closers, closeStore)
	}

	opts := []gateway.Option{
		gateway.WithTimeout(cfg.API.Timeout),
		gateway.WithUserAgent(UserAgent()),
	}
	if cfg.Metrics.Enabled {
		a.Metrics = metrics.New(false)
		opts = append(opts, gateway.WithObserver(a.Metrics))
		if path := cfg.Metrics.TextfilePath; path != "" {
			a.closers = append(a.closers, func() error { return a.Metrics.WriteTextfile(path) })
		}
	}

	a.Gateway = gateway.New(cfg.API.BaseURL, store, logger, opts...)
	a.API = civicapi.New(a.Gateway, cfg.API, logger)
	a.Auth = auth.NewService(logger, a.API, store)

	logger.Debug("client initialized",
		slog.String("version", Version),
		slog.String("base_url", cfg.API.BaseURL),
		slog.String("session_store", cfg.Session.Store),
		slog.Bool("metrics", cfg.Metrics.Enabled),
	)
	return a, nil
}

// Reports builds a report service using the given device capabilities.
func (a *App) Reports(dev Devices) (*report.Service, error) {
	loc, err := device.NewStaticLocation(dev.Location)
	if err != nil {
		return nil, fmt.Errorf("app.Reports: %w", err)
	}
	images := device.NewFileImage(dev.ImagePath)

	return report.NewService(a.Logger, report.NewComposer(a.Config.API.ImageField), loc, images, a.API), nil
}

// Close releases resources in reverse order of acquisition.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

// NewTokenStore opens the configured credential store. The returned close
// function is nil when there is nothing to release.
func NewTokenStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (gateway.TokenStore, func() error, error) {
	switch cfg.Session.Store {
	case config.StoreMemory:
		return memory.New(), nil, nil

	case config.StoreFile:
		return file.New(cfg.Session.FilePath, cfg.Session.Key, cfg.Session.Passphrase, logger), nil, nil

	case config.StorePostgres:
		pool, err := postgres.NewPool(ctx, cfg.Database)
		if err != nil {
			return nil, nil, fmt.Errorf("app.NewTokenStore: %w", err)
		}
		if cfg.Database.Migrate {
			if err := postgres.Migrate(ctx, pool, logger); err != nil {
				pool.Close()
				return nil, nil, fmt.Errorf("app.NewTokenStore: %w", err)
			}
		}
		return credential.New(pool, cfg.Session.Key), func() error { pool.Close(); return nil }, nil
	}
	return nil, nil, fmt.Errorf("app.NewTokenStore: unknown store %q", cfg.Session.Store)
}
