package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/goodtune/sessiontimer/internal/config"
	"github.com/goodtune/sessiontimer/internal/storage"
	"github.com/goodtune/sessiontimer/internal/storage/bolt"
	"github.com/goodtune/sessiontimer/internal/storage/redis"
	"github.com/goodtune/sessiontimer/internal/storage/sqlite"
	"github.com/goodtune/sessiontimer/internal/tracker"
	"github.com/rs/zerolog"
)

// app bundles what every command needs.
type app struct {
	cfg      *config.Config
	store    storage.Store
	tracker  *tracker.Tracker
	location *time.Location
	logger   zerolog.Logger
}

// openApp loads configuration and builds the tracker. When strict is false
// an unreachable store is logged and the tracker runs over empty defaults.
func openApp(strict bool, logOut io.Writer) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger := setupLogger(cfg.Logging, logOut)

	loc, err := cfg.Display.Location()
	if err != nil {
		return nil, err
	}

	store, err := openStorage(cfg.Storage)
	if err != nil {
		if strict {
			return nil, fmt.Errorf("failed to initialize storage: %w", err)
		}
		logger.Warn().Err(err).Str("type", cfg.Storage.Type).Msg("Storage unavailable, continuing with empty data")
		store = nil
	} else {
		logger.Debug().
			Str("type", cfg.Storage.Type).
			Str("path", cfg.Storage.Path).
			Msg("Storage initialized")
	}

	records := tracker.NewRecords(store, tracker.DefaultKeys(cfg.Storage.KeyPrefix), logger)

	return &app{
		cfg:      cfg,
		store:    store,
		tracker:  tracker.New(records, tracker.Config{Location: loc}, logger),
		location: loc,
		logger:   logger,
	}, nil
}

func (a *app) Close() {
	if a.store == nil {
		return
	}
	if err := a.store.Close(); err != nil {
		a.logger.Error().Err(err).Msg("Failed to close storage")
	}
}

func openStorage(cfg config.StorageConfig) (storage.Store, error) {
	switch cfg.Type {
	case "", "bolt":
		return bolt.Open(cfg.Path)
	case "sqlite":
		return sqlite.Open(cfg.Path)
	case "redis":
		return redis.Open(cfg.Redis)
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", cfg.Type)
	}
}

// setupLogger configures the logger based on configuration
func setupLogger(cfg config.LoggingConfig, out io.Writer) zerolog.Logger {
	if out == nil {
		out = os.Stderr
	}

	level := zerolog.WarnLevel
	switch cfg.Level {
	case "debug":
		level = zerolog.DebugLevel
	case "info":
		level = zerolog.InfoLevel
	case "warn":
		level = zerolog.WarnLevel
	case "error":
		level = zerolog.ErrorLevel
	}

	zerolog.SetGlobalLevel(level)

	if cfg.Format == "json" {
		return zerolog.New(out).With().Timestamp().Logger()
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: out}).With().Timestamp().Logger()
}
