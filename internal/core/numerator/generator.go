package numerator

import (
	"context"
	"time"
)

// Generator generates sequential document numbers.
// This is the domain contract - implementations live in infrastructure layer.
//
// Implementations take part in the caller's transaction so that a number is
// consumed only when the document carrying it is committed.
type Generator interface {
	// GetNextNumber generates the next document number.
	// Pattern: PREFIX-YEAR-NNN (e.g., PRESS-2024-001)
	GetNextNumber(ctx context.Context, cfg Config, period time.Time) (string, error)

	// SetNextNumber sets the next number value (for data imports).
	SetNextNumber(ctx context.Context, cfg Config, period time.Time, value int64) error
}
