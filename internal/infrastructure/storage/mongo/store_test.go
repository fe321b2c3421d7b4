package mongo_test

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sealedger/internal/infrastructure/storage/mongo"
)

func TestStoreRoundTrip(t *testing.T) {
	uri := os.Getenv("SEALEDGER_TEST_MONGO_URI")
	if uri == "" {
		t.Skip("SEALEDGER_TEST_MONGO_URI not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	s, err := mongo.Connect(ctx, uri, fmt.Sprintf("sealedger_test_%d", time.Now().UnixNano()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close(context.Background()) })

	records, err := s.Load(ctx, "credits")
	require.NoError(t, err)
	assert.Empty(t, records)

	require.NoError(t, s.SaveBatch(ctx, map[string][]json.RawMessage{
		"credits":    {json.RawMessage(`{"id":"c1","amount":"10000"}`)},
		"repayments": {},
	}))

	records, err = s.Load(ctx, "credits")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.JSONEq(t, `{"id":"c1","amount":"10000"}`, string(records[0]))

	require.NoError(t, s.Save(ctx, "credits", []json.RawMessage{
		json.RawMessage(`{"id":"c1"}`), json.RawMessage(`{"id":"c2"}`),
	}))
	records, err = s.Load(ctx, "credits")
	require.NoError(t, err)
	assert.Len(t, records, 2)
}
