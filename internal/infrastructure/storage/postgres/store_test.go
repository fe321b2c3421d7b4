package postgres_test

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sealedger/internal/infrastructure/storage/postgres"
)

// openStore connects to SEALEDGER_TEST_POSTGRES_DSN and uses a throwaway table.
func openStore(t *testing.T) *postgres.Store {
	t.Helper()
	dsn := os.Getenv("SEALEDGER_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("SEALEDGER_TEST_POSTGRES_DSN not set")
	}
	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, postgres.DefaultPoolConfig(dsn))
	require.NoError(t, err)

	table := fmt.Sprintf("ledger_test_%d", time.Now().UnixNano())
	s := postgres.NewStore(pool, table, postgres.DefaultTxOptions())
	require.NoError(t, s.EnsureSchema(ctx))
	t.Cleanup(func() {
		_, _ = pool.Exec(context.Background(), "DROP TABLE IF EXISTS "+table)
		_ = s.Close(context.Background())
	})
	return s
}

func TestStoreRoundTrip(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	records, err := s.Load(ctx, "sites")
	require.NoError(t, err)
	assert.Empty(t, records)

	err = s.SaveBatch(ctx, map[string][]json.RawMessage{
		"sites":   {json.RawMessage(`{"id":"s1","name":"Uroa"}`)},
		"farmers": {json.RawMessage(`{"id":"f1"}`), json.RawMessage(`{"id":"f2"}`)},
	})
	require.NoError(t, err)

	farmers, err := s.Load(ctx, "farmers")
	require.NoError(t, err)
	require.Len(t, farmers, 2)
	assert.JSONEq(t, `{"id":"f2"}`, string(farmers[1]))

	require.NoError(t, s.Save(ctx, "farmers", []json.RawMessage{json.RawMessage(`{"id":"f3"}`)}))
	farmers, err = s.Load(ctx, "farmers")
	require.NoError(t, err)
	require.Len(t, farmers, 1)

	names, err := s.Collections(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"farmers", "sites"}, names)
}
