// Package id provides identifier generation for ledger records.
// Identifiers are opaque strings; the default generator emits UUIDv7 so that
// records created in one run sort by creation time.
package id

import (
	"fmt"
	"sync/atomic"

	"github.com/google/uuid"
)

// Generator produces unique record identifiers.
type Generator interface {
	New() string
}

// New generates a new UUIDv7 (time-ordered UUID) string.
func New() string {
	v, err := uuid.NewV7()
	if err != nil {
		// Fallback to V4 if V7 fails (should never happen)
		return uuid.NewString()
	}
	return v.String()
}

// UUIDGenerator is the production Generator.
type UUIDGenerator struct{}

// New implements Generator.
func (UUIDGenerator) New() string { return New() }

// Sequence generates predictable ids ("<prefix>-1", "<prefix>-2", ...).
// Use in tests and seed data.
type Sequence struct {
	Prefix string
	n      atomic.Int64
}

// NewSequence creates a Sequence generator.
func NewSequence(prefix string) *Sequence {
	return &Sequence{Prefix: prefix}
}

// New implements Generator.
func (s *Sequence) New() string {
	return fmt.Sprintf("%s-%d", s.Prefix, s.n.Add(1))
}

// IsZero reports whether the identifier is unset.
func IsZero(v string) bool {
	return v == ""
}
