// Package app wires the stores, orchestrators and transports of one
// storefront process and owns their shutdown.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ariefcatur/go-storefront/internal/accounts"
	"github.com/ariefcatur/go-storefront/internal/cart"
	"github.com/ariefcatur/go-storefront/internal/catalog"
	"github.com/ariefcatur/go-storefront/internal/checkout"
	"github.com/ariefcatur/go-storefront/internal/config"
	kafkax "github.com/ariefcatur/go-storefront/internal/kafka"
	"github.com/ariefcatur/go-storefront/internal/kv"
	"github.com/ariefcatur/go-storefront/internal/policy"
	"github.com/ariefcatur/go-storefront/internal/postgres"
	"github.com/ariefcatur/go-storefront/internal/redisx"
	"github.com/ariefcatur/go-storefront/internal/security"
	"github.com/ariefcatur/go-storefront/internal/session"
)

type App struct {
	Config config.Config
	Logger *slog.Logger

	KV       kv.Store
	Sessions *session.Manager
	Catalog  *catalog.Store
	Cart     *cart.Store
	Accounts *accounts.Store
	Checkout *checkout.Service
	Guard    *policy.Guard

	closers []func(context.Context) error
}

// New opens the configured backend, loads every store and, when
// cfg.SeedCatalog is set, seeds the catalog on first run. On error
// everything opened so far is closed.
func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	a := &App{Config: cfg, Logger: logger}
	ready := false
	defer func() {
		if !ready {
			_ = a.Close(context.Background())
		}
	}()

	var err error
	if a.KV, err = a.openStore(ctx); err != nil {
		return nil, err
	}
	hasher, err := security.NewHasher(cfg.PasswordHasher)
	if err != nil {
		return nil, err
	}

	a.Sessions = session.NewManager(kv.NewMemory(), cfg.SessionTTL)
	a.closers = append(a.closers, a.Sessions.Clear)

	a.Catalog = catalog.NewStore(a.KV, logger.With("store", "catalog"))
	if err = a.Catalog.Load(ctx); err != nil {
		return nil, err
	}
	if cfg.SeedCatalog {
		if seeded, err := a.Catalog.Seed(ctx); err != nil {
			return nil, err
		} else if seeded {
			logger.Info("catalog seeded", "pieces", len(a.Catalog.GetAll()))
		}
	}

	a.Cart = cart.NewStore(a.KV, a.Catalog, logger.With("store", "cart"))
	if err = a.Cart.Load(ctx); err != nil {
		return nil, err
	}

	a.Accounts = accounts.NewStore(a.KV, a.Sessions, accounts.Options{
		Hasher:         hasher,
		Logger:         logger.With("store", "accounts"),
		ImportPassword: cfg.ImportDefaultPassword,
	})
	if err = a.Accounts.Load(ctx); err != nil {
		return nil, err
	}
	if cfg.AdminEmail != "" && cfg.AdminPassword != "" {
		if _, err = a.Accounts.EnsureAdmin(ctx, cfg.AdminEmail, cfg.AdminPassword, cfg.AdminName); err != nil {
			return nil, fmt.Errorf("bootstrap admin: %w", err)
		}
	}

	a.Checkout = &checkout.Service{
		Cart:     a.Cart,
		Catalog:  a.Catalog,
		Accounts: a.Accounts,
		Producer: cfg.ServiceName,
		Logger:   logger.With("component", "checkout"),
	}
	if len(cfg.KafkaBrokers) > 0 {
		prod := kafkax.NewProducer(cfg.KafkaBrokers, 1024, logger.With("component", "kafka"))
		prod.Start()
		a.closers = append(a.closers, prod.Close)
		a.Checkout.Publisher = kafkax.EventPublisher{P: prod}
	}
	a.Guard = policy.New(a.Accounts, a.Checkout)
	ready = true
	return a, nil
}

func (a *App) openStore(ctx context.Context) (kv.Store, error) {
	cfg := a.Config
	switch cfg.StoreBackend {
	case config.BackendMemory:
		return kv.NewMemory(), nil
	case config.BackendBadger:
		db, err := kv.OpenBadger(kv.BadgerConfig{Path: cfg.BadgerPath, SyncWrites: true, Logger: a.Logger.With("component", "badger")})
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, func(context.Context) error { return db.Close() })
		return kv.NewBadger(db, cfg.KVNamespace), nil
	case config.BackendRedis:
		rdb := redisx.New(cfg.RedisAddr)
		a.closers = append(a.closers, func(context.Context) error { return rdb.Close() })
		if err := redisx.Ping(ctx, rdb); err != nil {
			return nil, err
		}
		return kv.NewRedis(rdb, cfg.KVNamespace), nil
	case config.BackendPostgres:
		pool, err := postgres.Connect(ctx, cfg.PostgresDSN, 0)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, func(context.Context) error { pool.Close(); return nil })
		return kv.NewPostgres(ctx, pool, cfg.KVNamespace)
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
}

// Close ends the session, flushes pending events and releases the backend,
// in reverse order of acquisition.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
