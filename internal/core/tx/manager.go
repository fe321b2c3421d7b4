// Package tx provides transaction management abstractions.
// This package defines interfaces that decouple domain logic from specific
// storage implementations, following the Dependency Inversion Principle.
package tx

import (
	"context"
)

// Manager defines the contract for transaction management.
//
// A transaction is a unit of work over a Session: collections are loaded
// lazily, mutated in memory and written back together on success.
// Domain services depend on this interface, not concrete implementations.
type Manager interface {
	// RunInTransaction executes fn within a write transaction.
	// If fn returns an error, every change is discarded.
	// If fn succeeds, all touched collections are committed at once.
	//
	// Nested calls reuse the existing transaction from context.
	RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// ReadOnlyManager extends Manager with read-only transaction support.
type ReadOnlyManager interface {
	Manager

	// ReadOnly executes fn against a consistent snapshot. Nothing is committed
	// and any attempt to modify a collection fails.
	ReadOnly(ctx context.Context, fn func(ctx context.Context) error) error
}
