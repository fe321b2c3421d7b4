// Package sqlite keeps ledger collections in a single SQLite table.
// Large payloads are compressed with zstd.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/klauspost/compress/zstd"
	_ "modernc.org/sqlite" // pure go sqlite driver

	"sealedger/internal/core/store"
)

// Codec names stored next to each payload.
const (
	CodecNone = "none"
	CodecZstd = "zstd"
)

// DefaultCompressThreshold is the payload size from which zstd is used.
const DefaultCompressThreshold = 8 << 10

// Compile-time check that Store implements store.BatchStore.
var _ store.BatchStore = (*Store)(nil)

// Store implements store.BatchStore on SQLite.
type Store struct {
	db        *sql.DB
	path      string
	threshold int

	mu      sync.Mutex // guards the shared encoder
	encoder *zstd.Encoder
	decoder *zstd.Decoder
}

// Option configures a Store.
type Option func(*Store)

// WithCompressThreshold sets the payload size from which zstd is used.
// Zero compresses everything; a negative value disables compression.
func WithCompressThreshold(n int) Option {
	return func(s *Store) { s.threshold = n }
}

// Open opens (creating if needed) the database at path.
func Open(path string, opts ...Option) (*Store, error) {
	if path == "" {
		path = "sealedger.db"
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil && !errors.Is(err, os.ErrExist) {
		return nil, fmt.Errorf("create dirs: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// SQLite allows one writer; a single connection avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS collections (
		name       TEXT PRIMARY KEY,
		codec      TEXT NOT NULL,
		payload    BLOB NOT NULL,
		updated_at TEXT NOT NULL
	)`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create collections table: %w", err)
	}

	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create zstd encoder: %w", err)
	}
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}

	s := &Store{
		db:        db,
		path:      path,
		threshold: DefaultCompressThreshold,
		encoder:   encoder,
		decoder:   decoder,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Load implements store.Store.
func (s *Store) Load(ctx context.Context, collection string) ([]json.RawMessage, error) {
	var codec string
	var payload []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT codec, payload FROM collections WHERE name = ?`, collection,
	).Scan(&codec, &payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", collection, err)
	}

	data, err := s.decompress(codec, payload)
	if err != nil {
		return nil, fmt.Errorf("decompress %s: %w", collection, err)
	}
	records, err := store.DecodePayload(data)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", collection, err)
	}
	return records, nil
}

// Save implements store.Store.
func (s *Store) Save(ctx context.Context, collection string, records []json.RawMessage) error {
	return s.SaveBatch(ctx, map[string][]json.RawMessage{collection: records})
}

// SaveBatch implements store.BatchStore in one SQLite transaction.
func (s *Store) SaveBatch(ctx context.Context, collections map[string][]json.RawMessage) (retErr error) {
	if len(collections) == 0 {
		return nil
	}
	names := make([]string, 0, len(collections))
	for name := range collections {
		names = append(names, name)
	}
	sort.Strings(names)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if retErr != nil {
			_ = tx.Rollback()
		}
	}()

	now := time.Now().UTC().Format(time.RFC3339Nano)
	for _, name := range names {
		data, err := store.EncodePayload(collections[name])
		if err != nil {
			return fmt.Errorf("encode %s: %w", name, err)
		}
		codec, payload := s.compress(data)
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO collections(name, codec, payload, updated_at) VALUES(?,?,?,?)
			 ON CONFLICT(name) DO UPDATE SET codec=excluded.codec, payload=excluded.payload, updated_at=excluded.updated_at`,
			name, codec, payload, now,
		); err != nil {
			return fmt.Errorf("upsert %s: %w", name, err)
		}
	}
	return tx.Commit()
}

// Codec reports how a collection is stored, mainly for diagnostics.
func (s *Store) Codec(ctx context.Context, collection string) (string, error) {
	var codec string
	err := s.db.QueryRowContext(ctx, `SELECT codec FROM collections WHERE name = ?`, collection).Scan(&codec)
	if err != nil {
		return "", err
	}
	return codec, nil
}

// Ping checks the database handle.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Path returns the database file path.
func (s *Store) Path() string { return s.path }

// Close implements store.Closer.
func (s *Store) Close(_ context.Context) error {
	s.decoder.Close()
	if err := s.encoder.Close(); err != nil {
		return err
	}
	return s.db.Close()
}

func (s *Store) compress(data []byte) (string, []byte) {
	if s.threshold < 0 || len(data) < s.threshold {
		return CodecNone, data
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return CodecZstd, s.encoder.EncodeAll(data, make([]byte, 0, len(data)/4))
}

func (s *Store) decompress(codec string, payload []byte) ([]byte, error) {
	switch codec {
	case CodecNone, "":
		return payload, nil
	case CodecZstd:
		return s.decoder.DecodeAll(payload, nil)
	default:
		return nil, fmt.Errorf("unknown codec %q", codec)
	}
}
