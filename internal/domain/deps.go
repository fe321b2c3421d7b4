package domain

import (
	"time"

	"sealedger/internal/core/clock"
	"sealedger/internal/core/id"
	"sealedger/internal/core/tx"
	"sealedger/internal/core/types"
)

// Deps are the collaborators every domain service needs.
type Deps struct {
	Tx    tx.ReadOnlyManager
	Clock clock.Clock
	IDs   id.Generator
}

// Now returns the current time from the clock.
func (d Deps) Now() time.Time {
	if d.Clock == nil {
		return time.Now().UTC()
	}
	return d.Clock.Now()
}

// Today returns the current business date.
func (d Deps) Today() types.Date {
	return types.DateOf(d.Now())
}

// NewID returns a fresh record id.
func (d Deps) NewID() string {
	if d.IDs == nil {
		return id.New()
	}
	return d.IDs.New()
}
