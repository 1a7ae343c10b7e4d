// Package bootstrap wires configuration, storage and the state store together.
package bootstrap

import (
	"context"
	"fmt"
	"os"

	"postfarm/internal/config"
	"postfarm/internal/database"
	"postfarm/internal/featureflags"
	"postfarm/internal/kv"
	"postfarm/internal/repository"
	"postfarm/internal/seed"
	"postfarm/internal/service"
)

// Options control runtime initialization behavior.
type Options struct {
	// Seed overrides the factory-default state. Defaults to seed.Generate.
	Seed service.SeedFunc
	// StoreOptions are passed through to service.NewStore.
	StoreOptions []service.Option
}

// Runtime is everything a command needs to read and change the state.
type Runtime struct {
	Store       *service.Store
	Repository  *repository.AppStateRepository
	Preferences *repository.PreferenceRepository
	Flags       *featureflags.Manager
	// LoadOutcome records how the startup state was obtained.
	LoadOutcome string

	storage kv.Store
}

// Close releases the storage backend.
func (r *Runtime) Close() error {
	if r == nil || r.storage == nil {
		return nil
	}
	return r.storage.Close()
}

// OpenStorage connects the configured storage driver.
func OpenStorage(ctx context.Context, cfg *config.Config) (kv.Store, error) {
	switch cfg.StorageDriver {
	case config.DriverMemory:
		return kv.NewMemory(), nil
	case config.DriverFile:
		return kv.NewFile(cfg.StoragePath)
	case config.DriverRedis:
		return kv.NewRedis(ctx, cfg.RedisURL, cfg.RedisPrefix)
	case config.DriverSQLite, config.DriverPostgres:
		if cfg.StorageDriver == config.DriverSQLite && cfg.DatabaseDSN == "" {
			if err := os.MkdirAll(cfg.StoragePath, 0o755); err != nil {
				return nil, fmt.Errorf("create storage dir: %w", err)
			}
		}
		db, err := database.Connect(cfg)
		if err != nil {
			return nil, fmt.Errorf("database connection failed: %w", err)
		}
		return database.NewSlotStore(db), nil
	default:
		return nil, fmt.Errorf("unsupported storage driver %q", cfg.StorageDriver)
	}
}

// InitRuntime opens storage, loads (and reconciles) the persisted state and
// returns a ready store.
func InitRuntime(ctx context.Context, cfg *config.Config, opts Options) (*Runtime, error) {
	storage, err := OpenStorage(ctx, cfg)
	if err != nil {
		return nil, err
	}

	seedFn := opts.Seed
	if seedFn == nil {
		seedFn = seed.Generate
	}

	flags := featureflags.NewManager(cfg.FeatureFlags)
	repo := repository.NewAppStateRepository(storage, cfg.StorageKey)
	store, outcome := service.OpenStore(ctx, repo, seedFn, flags, opts.StoreOptions...)

	return &Runtime{
		Store:       store,
		Repository:  repo,
		Preferences: repository.NewPreferenceRepository(storage, cfg.LanguageKey),
		Flags:       flags,
		LoadOutcome: outcome,
		storage:     storage,
	}, nil
}
