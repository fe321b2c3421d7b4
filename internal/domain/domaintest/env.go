// Package domaintest provides fixtures for domain service tests: an
// in-memory store, a fixed clock and predictable ids.
package domaintest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"sealedger/internal/core/clock"
	"sealedger/internal/core/id"
	"sealedger/internal/domain"
	"sealedger/internal/infrastructure/storage"
	"sealedger/internal/infrastructure/storage/memory"
	"sealedger/pkg/logger"
)

// Epoch is the fixed "now" of every Env.
var Epoch = time.Date(2024, 6, 15, 9, 0, 0, 0, time.UTC)

// Env bundles the collaborators of a domain service under test.
type Env struct {
	Deps  domain.Deps
	Store *memory.Store
	Tx    *storage.TxManager
	Clock *clock.Fixed
	// Logs captures warnings logged through the default logger
	Logs *observer.ObservedLogs
}

// New creates an empty Env.
func New(t testing.TB) *Env {
	t.Helper()
	st := memory.NewStore()
	txm := storage.NewTxManager(st)
	clk := clock.NewFixed(Epoch)

	core, logs := observer.New(zapcore.WarnLevel)
	prev := logger.Default()
	logger.SetDefault(&logger.Logger{SugaredLogger: zap.New(core).Sugar()})
	t.Cleanup(func() { logger.SetDefault(prev) })

	return &Env{
		Deps:  domain.Deps{Tx: txm, Clock: clk, IDs: id.NewSequence("id")},
		Store: st,
		Tx:    txm,
		Clock: clk,
		Logs:  logs,
	}
}

// Write runs fn in a write transaction and fails the test on error.
func (e *Env) Write(t testing.TB, fn func(ctx context.Context) error) {
	t.Helper()
	require.NoError(t, e.Tx.RunInTransaction(context.Background(), fn))
}

// Read runs fn in a read-only transaction and fails the test on error.
func (e *Env) Read(t testing.TB, fn func(ctx context.Context) error) {
	t.Helper()
	require.NoError(t, e.Tx.ReadOnly(context.Background(), fn))
}
