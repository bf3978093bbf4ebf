package cli

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"github.com/JonMunkholm/auction/internal/config"
	"github.com/JonMunkholm/auction/internal/core"
	"github.com/JonMunkholm/auction/internal/ingest"
	"github.com/JonMunkholm/auction/internal/logging"
	"github.com/JonMunkholm/auction/internal/metrics"
	"github.com/JonMunkholm/auction/internal/storage"
)

// loadConfig reads the .env file (overwriting existing env vars), layers
// the flag overrides and validates the result. Logs go to logOut.
func loadConfig(g *globalFlags, logOut io.Writer) (*config.Config, error) {
	if err := godotenv.Overload(g.envFile); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	overrides := map[string]string{
		"STORAGE_DRIVER": g.storageDriver,
		"STORAGE_PATH":   g.storagePath,
		"LOG_LEVEL":      g.logLevel,
	}
	cfg, err := config.LoadFrom(func(key string) string {
		if v := overrides[key]; v != "" {
			return v
		}
		return os.Getenv(key)
	})
	if err != nil {
		return nil, err
	}

	logging.Setup(cfg.Logging.Level, cfg.Logging.Format, logOut)
	return cfg, nil
}

// openService opens the configured store and loads the auction from it.
func openService(ctx context.Context, cfg *config.Config, rec *metrics.Recorder) (*core.Service, error) {
	kv, err := storage.Open(ctx, storage.Options{
		Driver:          cfg.Storage.Driver,
		Path:            cfg.Storage.Path,
		DatabaseURL:     cfg.Storage.DatabaseURL,
		MaxConns:        cfg.Storage.MaxConns,
		MinConns:        cfg.Storage.MinConns,
		MaxConnLifetime: cfg.Storage.MaxConnLifetime,
		MaxConnIdleTime: cfg.Storage.MaxConnIdleTime,
		BusyTimeout:     cfg.Storage.BusyTimeout,
	})
	if err != nil {
		return nil, err
	}

	policy, err := ingest.ParseYearPolicy(cfg.Import.YearPolicy)
	if err != nil {
		kv.Close()
		return nil, err
	}
	core.ImportTimeout = cfg.Import.Timeout

	svc, err := core.NewService(ctx, kv, core.Options{
		Metrics:       rec,
		Logger:        slog.Default(),
		ActivityLimit: cfg.Auction.ActivityLimit,
		YearPolicy:    policy,

		MaxConcurrentImports: cfg.Import.MaxConcurrent,
	})
	if err != nil {
		kv.Close()
		return nil, err
	}

	slog.Info("auction loaded",
		"storage", cfg.Storage.Driver,
		"players", len(svc.Snapshot().Players),
		"teams", len(svc.Teams()),
	)
	return svc, nil
}
