// Package storage wires the unit-of-work transaction manager to a concrete Store.
package storage

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"sealedger/internal/core/apperror"
	"sealedger/internal/core/store"
	"sealedger/internal/core/tx"
	"sealedger/pkg/logger"
)

var tracer = otel.Tracer("sealedger/tx")

// Compile-time check that TxManager implements tx.ReadOnlyManager interface.
var _ tx.ReadOnlyManager = (*TxManager)(nil)

// TxObserver receives the outcome of every top-level transaction.
type TxObserver interface {
	TransactionFinished(mode, outcome string, elapsed time.Duration)
}

// TxManager serializes writers and gives readers a shared lock, so every
// command is atomic to concurrent readers:
// - Nested calls reuse the session from context
// - A failing fn discards the session (nothing was written)
// - On success all dirty collections are flushed in one batch
type TxManager struct {
	store    store.Store
	mu       sync.RWMutex
	observer TxObserver
}

// NewTxManager creates a new transaction manager over s.
func NewTxManager(s store.Store) *TxManager {
	return &TxManager{store: s}
}

// SetObserver installs a metrics observer.
func (m *TxManager) SetObserver(o TxObserver) {
	m.observer = o
}

// Store returns the underlying store.
func (m *TxManager) Store() store.Store {
	return m.store
}

// RunInTransaction executes fn within a write transaction.
// If a transaction already exists in ctx, it will be reused (nested transaction).
func (m *TxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	ctx, span := tracer.Start(ctx, "transaction",
		trace.WithAttributes(attribute.String("tx.mode", "write")))
	defer span.End()

	if existing := tx.SessionFrom(ctx); existing != nil {
		if existing.ReadOnly() {
			return apperror.NewInternal(fmt.Errorf("write transaction nested in read-only transaction: %w", tx.ErrReadOnly))
		}
		return fn(ctx)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	start := time.Now()
	session := tx.NewSession(m.store, false)
	err := m.execute(tx.WithSession(ctx, session), session, fn)
	m.finish(span, "write", err, start)
	return err
}

// ReadOnly executes fn against a consistent snapshot under a shared lock.
func (m *TxManager) ReadOnly(ctx context.Context, fn func(ctx context.Context) error) error {
	if tx.SessionFrom(ctx) != nil {
		return fn(ctx)
	}

	ctx, span := tracer.Start(ctx, "transaction",
		trace.WithAttributes(attribute.String("tx.mode", "read")))
	defer span.End()

	m.mu.RLock()
	defer m.mu.RUnlock()

	start := time.Now()
	session := tx.NewSession(m.store, true)
	err := fn(tx.WithSession(ctx, session))
	m.finish(span, "read", err, start)
	return err
}

// execute runs fn and commits on success. On error the session is simply
// dropped; there is nothing to roll back because nothing was written yet.
func (m *TxManager) execute(ctx context.Context, session *tx.Session, fn func(ctx context.Context) error) error {
	if err := fn(ctx); err != nil {
		logger.Debug(ctx, "transaction rolled back", "error", err)
		return err
	}

	dirty := session.Dirty()
	if err := session.Commit(ctx); err != nil {
		logger.Error(ctx, "commit failed", "collections", dirty, "error", err)
		return apperror.NewStorage(fmt.Sprint(dirty), fmt.Errorf("commit transaction: %w", err))
	}
	return nil
}

func (m *TxManager) finish(span trace.Span, mode string, err error, start time.Time) {
	outcome := "commit"
	if err != nil {
		outcome = "rollback"
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	if m.observer != nil {
		m.observer.TransactionFinished(mode, outcome, time.Since(start))
	}
}
