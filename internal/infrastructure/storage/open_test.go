package storage

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sealedger/internal/core/store"
	"sealedger/internal/core/tx"
	"sealedger/internal/infrastructure/storage/memory"
	"sealedger/internal/infrastructure/storage/sqlite"
)

func TestOpenSelectsDriver(t *testing.T) {
	ctx := context.Background()

	s, err := Open(ctx, Config{Driver: DriverMemory})
	require.NoError(t, err)
	assert.IsType(t, &memory.Store{}, s)
	assert.NoError(t, Close(ctx, s))

	s, err = Open(ctx, Config{Driver: DriverSQLite, Path: filepath.Join(t.TempDir(), "ledger.db")})
	require.NoError(t, err)
	assert.IsType(t, &sqlite.Store{}, s)
	_, ok := s.(store.Closer)
	assert.True(t, ok)
	assert.NoError(t, Close(ctx, s))

	_, err = Open(ctx, Config{Driver: "redis"})
	assert.ErrorContains(t, err, "unknown storage driver")
}

func TestTransactionsPersistThroughSQLite(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "ledger.db")

	s, err := Open(ctx, Config{Driver: DriverSQLite, Path: path})
	require.NoError(t, err)
	m := NewTxManager(s)
	require.NoError(t, m.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := addNote(ctx, "notes", &note{ID: "1", Text: "first"}); err != nil {
			return err
		}
		return addNote(ctx, "other", &note{ID: "2"})
	}))
	require.NoError(t, Close(ctx, s))

	s, err = Open(ctx, Config{Driver: DriverSQLite, Path: path})
	require.NoError(t, err)
	defer func() { _ = Close(ctx, s) }()

	raw, err := s.Load(ctx, "notes")
	require.NoError(t, err)
	require.Len(t, raw, 1)
	var n note
	require.NoError(t, json.Unmarshal(raw[0], &n))
	assert.Equal(t, "first", n.Text)

	m = NewTxManager(s)
	require.NoError(t, m.ReadOnly(ctx, func(ctx context.Context) error {
		rows, err := tx.Table[*note](ctx, "other")
		if err != nil {
			return err
		}
		assert.Equal(t, 1, rows.Len())
		return nil
	}))
}
