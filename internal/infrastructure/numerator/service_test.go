package numerator

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	corenumerator "sealedger/internal/core/numerator"
	"sealedger/internal/infrastructure/storage"
	"sealedger/internal/infrastructure/storage/memory"
)

func TestNumbersAreSequentialPerYear(t *testing.T) {
	txm := storage.NewTxManager(memory.NewStore())
	svc := New()
	cfg := corenumerator.DefaultConfig("PRESS")
	y24 := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	y25 := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	var got []string
	for _, period := range []time.Time{y24, y24, y25} {
		require.NoError(t, txm.RunInTransaction(context.Background(), func(ctx context.Context) error {
			n, err := svc.GetNextNumber(ctx, cfg, period)
			got = append(got, n)
			return err
		}))
	}
	assert.Equal(t, []string{"PRESS-2024-001", "PRESS-2024-002", "PRESS-2025-001"}, got)
}

func TestRolledBackNumberIsReused(t *testing.T) {
	txm := storage.NewTxManager(memory.NewStore())
	svc := New()
	cfg := corenumerator.DefaultConfig("EXP")
	period := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	err := txm.RunInTransaction(context.Background(), func(ctx context.Context) error {
		if _, err := svc.GetNextNumber(ctx, cfg, period); err != nil {
			return err
		}
		return errors.New("abort")
	})
	require.Error(t, err)

	var n string
	require.NoError(t, txm.RunInTransaction(context.Background(), func(ctx context.Context) error {
		var err error
		n, err = svc.GetNextNumber(ctx, cfg, period)
		return err
	}))
	assert.Equal(t, "EXP-2024-001", n)
}

func TestSetNextNumber(t *testing.T) {
	txm := storage.NewTxManager(memory.NewStore())
	svc := New()
	cfg := corenumerator.DefaultConfig("DEL")
	period := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	var n string
	require.NoError(t, txm.RunInTransaction(context.Background(), func(ctx context.Context) error {
		if err := svc.SetNextNumber(ctx, cfg, period, 40); err != nil {
			return err
		}
		var err error
		n, err = svc.GetNextNumber(ctx, cfg, period)
		return err
	}))
	assert.Equal(t, "DEL-2024-040", n)
	assert.Equal(t, int64(40), ParseNumber(n))
	assert.Equal(t, int64(-1), ParseNumber("garbage"))
}

func TestRequiresTransaction(t *testing.T) {
	_, err := New().GetNextNumber(context.Background(), corenumerator.DefaultConfig("X"), time.Now())
	assert.Error(t, err)
}
