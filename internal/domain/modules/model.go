// Package modules provides the module registry: physical cultivation units
// (line arrays) at a site, their farmer assignment and status history.
package modules

import (
	"context"

	"sealedger/internal/core/apperror"
	"sealedger/internal/core/entity"
)

// Status is a module history status.
type Status string

const (
	StatusCreated   Status = "CREATED"
	StatusFree      Status = "FREE"
	StatusAssigned  Status = "ASSIGNED"
	StatusCutting   Status = "CUTTING"
	StatusPlanted   Status = "PLANTED"
	StatusHarvested Status = "HARVESTED"
	StatusDrying    Status = "DRYING"
	StatusBagging   Status = "BAGGING"
	StatusBagged    Status = "BAGGED"
	StatusInStock   Status = "IN_STOCK"
	StatusExported  Status = "EXPORTED"
)

// Notes written by the registry.
const (
	NoteReady     = "Module is ready for assignment."
	NoteCompleted = "Cycle completed. Module is available."
)

// HistoryEntry is one step of a module status history.
type HistoryEntry = entity.HistoryEntry[Status]

// Module is a physical cultivation unit. It holds no reference to its
// cycles; cycles reference the module.
type Module struct {
	ID     string `json:"id"`
	Code   string `json:"code"`
	SiteID string `json:"siteId"`
	Lines  int    `json:"lines"`

	// FarmerID is the exclusive assignee, empty when free
	FarmerID string `json:"farmerId,omitempty"`

	// StatusHistory is append-only; the last entry is the current status
	StatusHistory entity.History[Status] `json:"statusHistory"`
}

// GetID implements entity.Entity.
func (m *Module) GetID() string { return m.ID }

// SetID implements entity.Assignable.
func (m *Module) SetID(id string) { m.ID = id }

// Validate implements entity.Validatable interface.
func (m *Module) Validate(ctx context.Context) error {
	if m.SiteID == "" {
		return apperror.NewFieldValidation("siteId", "site is required")
	}
	if m.Lines <= 0 {
		return apperror.NewFieldValidation("lines", "line count must be positive").
			WithDetail("value", m.Lines)
	}
	return nil
}

// CurrentStatus returns the status of the last history entry.
func (m *Module) CurrentStatus() Status {
	return m.StatusHistory.Current()
}

// IsFree reports whether the module has no farmer.
func (m *Module) IsFree() bool {
	return m.FarmerID == ""
}
