package storage

import (
	"context"
	"fmt"

	"sealedger/internal/core/store"
	"sealedger/internal/infrastructure/storage/memory"
	"sealedger/internal/infrastructure/storage/mongo"
	"sealedger/internal/infrastructure/storage/postgres"
	"sealedger/internal/infrastructure/storage/sqlite"
	"sealedger/pkg/logger"
)

// Supported drivers.
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMongo    = "mongo"
)

// Config selects and configures a store backend.
type Config struct {
	Driver string
	// DSN is the postgres connection string or the mongo URI.
	DSN string
	// Path is the sqlite database file.
	Path string
	// Database is the mongo database name.
	Database string
	// Table is the postgres table name.
	Table string
	// CompressThreshold is the sqlite zstd threshold in bytes (0 keeps the default).
	CompressThreshold int
}

// Open connects the configured backend. Stores holding connections also
// implement store.Closer.
func Open(ctx context.Context, cfg Config) (store.Store, error) {
	log := logger.FromContext(ctx).WithComponent("storage")

	switch cfg.Driver {
	case DriverMemory, "":
		log.Warnw("using in-memory store, data is lost on exit")
		return memory.NewStore(), nil

	case DriverSQLite:
		var opts []sqlite.Option
		if cfg.CompressThreshold != 0 {
			opts = append(opts, sqlite.WithCompressThreshold(cfg.CompressThreshold))
		}
		s, err := sqlite.Open(cfg.Path, opts...)
		if err != nil {
			return nil, err
		}
		log.Infow("sqlite store opened", "path", s.Path())
		return s, nil

	case DriverPostgres:
		pool, err := postgres.NewPool(ctx, postgres.DefaultPoolConfig(cfg.DSN))
		if err != nil {
			return nil, err
		}
		s := postgres.NewStore(pool, cfg.Table, postgres.DefaultTxOptions())
		if err := s.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, err
		}
		pool.LogStats(ctx)
		return s, nil

	case DriverMongo:
		s, err := mongo.Connect(ctx, cfg.DSN, cfg.Database)
		if err != nil {
			return nil, err
		}
		log.Infow("mongo store connected", "database", cfg.Database)
		return s, nil

	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}

// Close releases the store's connections, if it holds any.
func Close(ctx context.Context, s store.Store) error {
	if c, ok := s.(store.Closer); ok {
		return c.Close(ctx)
	}
	return nil
}
