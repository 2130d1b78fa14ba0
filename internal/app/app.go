// Package app wires the database, stores, catalog, run lock and seeder into
// the operations exposed by the CLI and the admin HTTP API.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog"

	"github.com/johnwards/treeseed/internal/catalog"
	"github.com/johnwards/treeseed/internal/config"
	"github.com/johnwards/treeseed/internal/database"
	"github.com/johnwards/treeseed/internal/runlock"
	"github.com/johnwards/treeseed/internal/seed"
	"github.com/johnwards/treeseed/internal/store"
)

// App is an opened, migrated database with its stores.
type App struct {
	cfg   config.Config
	log   zerolog.Logger
	db    *sql.DB
	store *store.Store
	clock func() time.Time

	lockOnce sync.Once
	lock     seed.Locker
	redis    *redis.Client
}

// Open opens and migrates the configured database.
func Open(ctx context.Context, cfg config.Config, log zerolog.Logger) (*App, error) {
	db, err := database.Open(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := database.Migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	log.Debug().Str("db", cfg.DBPath).Msg("database ready")
	return &App{cfg: cfg, log: log, db: db, store: store.New(db), clock: time.Now}, nil
}

// Close releases the database and the Redis client.
func (a *App) Close() error {
	if a.redis != nil {
		_ = a.redis.Close()
	}
	return a.db.Close()
}

// Store returns the underlying stores.
func (a *App) Store() *store.Store {
	return a.store
}

// RegisterCatalog registers the configured catalog file, or the built-in
// catalog when none is configured.
func (a *App) RegisterCatalog(ctx context.Context) (*catalog.Catalog, error) {
	var (
		cat *catalog.Catalog
		err error
	)
	if path := a.cfg.Catalog; path != "" {
		cat, err = catalog.Load(path)
	} else {
		cat, err = catalog.Default()
	}
	if err != nil {
		return nil, err
	}
	if err := a.ImportCatalog(ctx, cat); err != nil {
		return nil, err
	}
	return cat, nil
}

// ImportCatalog registers every class of cat.
func (a *App) ImportCatalog(ctx context.Context, cat *catalog.Catalog) error {
	if err := cat.Register(ctx, a.store.Classes); err != nil {
		return err
	}
	a.log.Debug().Strs("classes", cat.Names()).Msg("catalog registered")
	return nil
}

// Locker returns the run lock: Redis backed when an address is configured.
func (a *App) Locker() seed.Locker {
	a.lockOnce.Do(func() {
		if a.cfg.RedisAddr == "" {
			a.lock = runlock.Noop{}
			return
		}
		a.redis = redis.NewClient(&redis.Options{Addr: a.cfg.RedisAddr})
		a.lock = runlock.NewRedisLock(a.redis, runlock.WithTTL(a.cfg.LockTTL))
	})
	return a.lock
}

// SeedRequest parameterises a seeding run. Zero values fall back to the
// configuration and the current day.
type SeedRequest struct {
	Instances int
	Epoch     time.Time
}

// Seed registers the catalog and runs the seeder.
func (a *App) Seed(ctx context.Context, req SeedRequest) (*seed.Report, error) {
	if _, err := a.RegisterCatalog(ctx); err != nil {
		return nil, err
	}
	instances := req.Instances
	if instances <= 0 {
		instances = a.cfg.Instances
	}
	s := seed.New(a.store.Classes, a.store.Objects, seed.Options{
		Instances: instances,
		Epoch:     req.Epoch,
		Locker:    a.Locker(),
		Logger:    a.log,
		Clock:     a.clock,
	})
	return s.Run(ctx)
}

// Reset wipes object data under the run lock and, when reseed is set, seeds
// again afterwards.
func (a *App) Reset(ctx context.Context, reseed bool, req SeedRequest) (*ResetResult, error) {
	release, err := a.Locker().Acquire(ctx, seed.LockName)
	if err != nil {
		return nil, err
	}
	summary, err := seed.Reset(ctx, a.store.Schema, a.clock(), a.log)
	if rerr := release(context.WithoutCancel(ctx)); rerr != nil {
		a.log.Warn().Err(rerr).Msg("release run lock")
	}
	if err != nil {
		return nil, err
	}

	res := &ResetResult{Reset: summary}
	if reseed {
		if res.Report, err = a.Seed(ctx, req); err != nil {
			return res, err
		}
	}
	return res, nil
}
