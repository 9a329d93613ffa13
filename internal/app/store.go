package app

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/kitchen-backoffice/internal/docstore"
	"github.com/xenking/kitchen-backoffice/internal/docstore/memstore"
	"github.com/xenking/kitchen-backoffice/internal/docstore/mongostore"
	"github.com/xenking/kitchen-backoffice/internal/docstore/pgstore"
	"github.com/xenking/kitchen-backoffice/pkg/health"
)

// Backend is an opened document store.
type Backend struct {
	docstore.Store
	// Pinger probes connectivity. It is nil for the in-memory store.
	Pinger health.Pinger
	close  func()
}

// Close releases the store's connections.
func (b *Backend) Close() {
	if b.close != nil {
		b.close()
	}
}

// OpenStore opens the configured document store. PostgreSQL stores are
// migrated before use.
func OpenStore(ctx context.Context, cfg StoreConfig) (*Backend, error) {
	lg := zctx.From(ctx).With(zap.String("driver", cfg.Driver))

	switch cfg.Driver {
	case DriverPostgres:
		pool, err := pgstore.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, errors.Wrap(err, "create db pool")
		}
		if err := pgstore.Migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, errors.Wrap(err, "run migrations")
		}
		store := pgstore.New(pool)
		lg.Info("Document store ready")
		return &Backend{Store: store, Pinger: store, close: pool.Close}, nil

	case DriverMongo:
		store, err := mongostore.Connect(ctx, cfg.MongoURL, cfg.MongoDatabase)
		if err != nil {
			return nil, err
		}
		lg.Info("Document store ready", zap.String("database", cfg.MongoDatabase))
		return &Backend{Store: store, Pinger: store, close: func() {
			closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := store.Close(closeCtx); err != nil {
				lg.Warn("Close document store", zap.Error(err))
			}
		}}, nil

	case DriverMemory:
		lg.Warn("Using in-memory document store, data is not persisted")
		return &Backend{Store: memstore.New()}, nil

	default:
		return nil, errors.Errorf("unknown store driver %q", cfg.Driver)
	}
}
