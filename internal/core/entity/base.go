package entity

import (
	"context"

	"sealedger/internal/core/types"
)

// Entity is any record kept in a collection. Ids are unique within a collection.
type Entity interface {
	GetID() string
}

// Validatable is implemented by entities that support self-validation.
// Validation checks internal invariants (without store access).
type Validatable interface {
	// Validate checks entity invariants.
	// Returns nil if valid, AppError with details otherwise.
	Validate(ctx context.Context) error
}

// Record is an Entity that can validate itself.
type Record interface {
	Entity
	Validatable
}

// HistoryEntry is one step of an append-only status trail.
type HistoryEntry[S ~string] struct {
	Status S          `json:"status"`
	Date   types.Date `json:"date"`
	Notes  string     `json:"notes,omitempty"`
}

// History is an append-only status trail; the last entry is the current status.
type History[S ~string] []HistoryEntry[S]

// Current returns the status of the last entry, or the zero status when empty.
func (h History[S]) Current() S {
	if len(h) == 0 {
		var zero S
		return zero
	}
	return h[len(h)-1].Status
}

// Append returns the trail with one more entry. Earlier entries are never touched.
func (h History[S]) Append(status S, date types.Date, notes string) History[S] {
	return append(h, HistoryEntry[S]{Status: status, Date: date, Notes: notes})
}
