// Package numerator implements document auto-numbering on top of the
// transaction session. It implements core/numerator.Generator.
package numerator

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	corenumerator "sealedger/internal/core/numerator"
	"sealedger/internal/core/tx"
)

// Collection stores one counter record per sequence key.
const Collection = "sequences"

// sequence is a persisted counter. ID is the sequence key (e.g. "PRESS:2024").
type sequence struct {
	ID         string `json:"id"`
	CurrentVal int64  `json:"currentVal"`
}

func (s *sequence) GetID() string { return s.ID }

// Service allocates numbers from the sequences collection of the active
// transaction. A number is consumed only when the caller's transaction
// commits; a rolled back command leaves no gap.
type Service struct{}

// Ensure compile-time interface compliance.
var _ corenumerator.Generator = (*Service)(nil)

// New creates a new numerator service.
func New() *Service {
	return &Service{}
}

// GetNextNumber generates the next document number.
// Pattern: PREFIX-YEAR-NNN (e.g., PRESS-2024-001)
func (s *Service) GetNextNumber(ctx context.Context, cfg corenumerator.Config, period time.Time) (string, error) {
	if s == nil {
		return "", fmt.Errorf("numerator service is not initialized")
	}

	rows, err := tx.Table[*sequence](ctx, Collection)
	if err != nil {
		return "", fmt.Errorf("numerator: %w", err)
	}

	key := cfg.Key(period)
	seq, ok := rows.Get(key)
	if !ok {
		seq = &sequence{ID: key}
		if err := rows.Append(seq); err != nil {
			return "", fmt.Errorf("numerator: %w", err)
		}
	}
	next := &sequence{ID: key, CurrentVal: seq.CurrentVal + 1}
	if _, err := rows.Replace(next); err != nil {
		return "", fmt.Errorf("numerator: %w", err)
	}
	return cfg.Format(period, next.CurrentVal), nil
}

// SetNextNumber sets the next number value (for data imports).
func (s *Service) SetNextNumber(ctx context.Context, cfg corenumerator.Config, period time.Time, value int64) error {
	if value < 1 {
		return fmt.Errorf("numerator: next value must be positive, got %d", value)
	}
	rows, err := tx.Table[*sequence](ctx, Collection)
	if err != nil {
		return fmt.Errorf("numerator: %w", err)
	}
	key := cfg.Key(period)
	next := &sequence{ID: key, CurrentVal: value - 1}
	replaced, err := rows.Replace(next)
	if err != nil {
		return fmt.Errorf("numerator: %w", err)
	}
	if !replaced {
		return rows.Append(next)
	}
	return nil
}

// ParseNumber extracts the numeric part from a formatted number.
// Returns -1 if parsing fails.
func ParseNumber(formatted string) int64 {
	i := strings.LastIndexByte(formatted, '-')
	n, err := strconv.ParseInt(formatted[i+1:], 10, 64)
	if err != nil {
		return -1
	}
	return n
}
