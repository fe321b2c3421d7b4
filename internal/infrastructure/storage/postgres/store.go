package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"

	"sealedger/internal/core/store"
)

// DefaultTable is the table holding ledger collections.
const DefaultTable = "ledger_collections"

// Compile-time check that Store implements store.BatchStore.
var _ store.BatchStore = (*Store)(nil)

// Store implements store.BatchStore on PostgreSQL.
// A batch is written in one database transaction.
type Store struct {
	pool  *Pool
	table string
	opts  TxOptions
	psql  sq.StatementBuilderType
}

// NewStore creates a store over pool. An empty table name selects DefaultTable.
func NewStore(pool *Pool, table string, opts TxOptions) *Store {
	if table == "" {
		table = DefaultTable
	}
	return &Store{
		pool:  pool,
		table: pgx.Identifier{table}.Sanitize(),
		opts:  opts,
		psql:  sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// EnsureSchema creates the collections table if it does not exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	ddl := `CREATE TABLE IF NOT EXISTS ` + s.table + ` (
		name       TEXT PRIMARY KEY,
		payload    JSONB NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`
	if _, err := s.pool.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("create %s: %w", s.table, err)
	}
	return nil
}

type collectionRow struct {
	Name      string    `db:"name"`
	Payload   []byte    `db:"payload"`
	UpdatedAt time.Time `db:"updated_at"`
}

// Load implements store.Store.
func (s *Store) Load(ctx context.Context, collection string) ([]json.RawMessage, error) {
	query, args, err := s.psql.
		Select("name", "payload", "updated_at").
		From(s.table).
		Where(sq.Eq{"name": collection}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	var row collectionRow
	if err := pgxscan.Get(ctx, s.pool, &row, query, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("load %s: %w", collection, err)
	}

	records, err := store.DecodePayload(row.Payload)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", collection, err)
	}
	return records, nil
}

// Collections lists stored collection names.
func (s *Store) Collections(ctx context.Context) ([]string, error) {
	query, args, err := s.psql.Select("name").From(s.table).OrderBy("name").ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}
	var names []string
	if err := pgxscan.Select(ctx, s.pool, &names, query, args...); err != nil {
		return nil, fmt.Errorf("list collections: %w", err)
	}
	return names, nil
}

// Save implements store.Store.
func (s *Store) Save(ctx context.Context, collection string, records []json.RawMessage) error {
	return s.SaveBatch(ctx, map[string][]json.RawMessage{collection: records})
}

// SaveBatch implements store.BatchStore. Rows are upserted in name order
// so concurrent writers lock them in the same sequence.
func (s *Store) SaveBatch(ctx context.Context, collections map[string][]json.RawMessage) error {
	if len(collections) == 0 {
		return nil
	}
	names := make([]string, 0, len(collections))
	for name := range collections {
		names = append(names, name)
	}
	sort.Strings(names)

	now := time.Now().UTC()
	return s.pool.inTx(ctx, s.opts, func(ctx context.Context, tx pgx.Tx) error {
		for _, name := range names {
			payload, err := store.EncodePayload(collections[name])
			if err != nil {
				return fmt.Errorf("encode %s: %w", name, err)
			}
			query, args, err := s.psql.
				Insert(s.table).
				Columns("name", "payload", "updated_at").
				Values(name, payload, now).
				Suffix("ON CONFLICT (name) DO UPDATE SET payload = EXCLUDED.payload, updated_at = EXCLUDED.updated_at").
				ToSql()
			if err != nil {
				return fmt.Errorf("build upsert: %w", err)
			}
			if _, err := tx.Exec(ctx, query, args...); err != nil {
				return fmt.Errorf("upsert %s: %w", name, err)
			}
		}
		return nil
	})
}

// Ping checks the database connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close implements store.Closer.
func (s *Store) Close(_ context.Context) error {
	s.pool.Close()
	return nil
}
