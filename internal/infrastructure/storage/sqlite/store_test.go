package sqlite_test

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sealedger/internal/infrastructure/storage/sqlite"
)

func openStore(t *testing.T, path string, opts ...sqlite.Option) *sqlite.Store {
	t.Helper()
	s, err := sqlite.Open(path, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close(context.Background()) })
	return s
}

func TestUnknownCollectionLoadsEmpty(t *testing.T) {
	s := openStore(t, filepath.Join(t.TempDir(), "ledger.db"))

	records, err := s.Load(context.Background(), "sites")
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestBatchSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "ledger.db")
	ctx := context.Background()

	s, err := sqlite.Open(path)
	require.NoError(t, err)
	require.NoError(t, s.SaveBatch(ctx, map[string][]json.RawMessage{
		"sites":   {json.RawMessage(`{"id":"s1"}`)},
		"modules": {json.RawMessage(`{"id":"m1"}`), json.RawMessage(`{"id":"m2"}`)},
	}))
	require.NoError(t, s.Close(ctx))

	s = openStore(t, path)
	modules, err := s.Load(ctx, "modules")
	require.NoError(t, err)
	require.Len(t, modules, 2)
	assert.JSONEq(t, `{"id":"m2"}`, string(modules[1]))

	require.NoError(t, s.Save(ctx, "modules", nil))
	modules, err = s.Load(ctx, "modules")
	require.NoError(t, err)
	assert.Empty(t, modules)
}

func TestLargePayloadsAreCompressed(t *testing.T) {
	s := openStore(t, filepath.Join(t.TempDir(), "ledger.db"), sqlite.WithCompressThreshold(256))
	ctx := context.Background()

	var big []json.RawMessage
	for i := range 200 {
		big = append(big, json.RawMessage(fmt.Sprintf(`{"id":"c%d","status":"GROWING"}`, i)))
	}
	require.NoError(t, s.SaveBatch(ctx, map[string][]json.RawMessage{
		"cycles": big,
		"sites":  {json.RawMessage(`{"id":"s1"}`)},
	}))

	codec, err := s.Codec(ctx, "cycles")
	require.NoError(t, err)
	assert.Equal(t, sqlite.CodecZstd, codec)

	codec, err = s.Codec(ctx, "sites")
	require.NoError(t, err)
	assert.Equal(t, sqlite.CodecNone, codec)

	got, err := s.Load(ctx, "cycles")
	require.NoError(t, err)
	require.Len(t, got, 200)
	assert.JSONEq(t, `{"id":"c199","status":"GROWING"}`, string(got[199]))
}
