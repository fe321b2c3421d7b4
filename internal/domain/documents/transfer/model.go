// Package transfer provides site transfers: bulk seaweed moved between
// sites, or from a site to the pressing warehouse.
package transfer

import (
	"context"
	"time"

	"sealedger/internal/core/apperror"
	"sealedger/internal/core/entity"
	"sealedger/internal/core/types"
)

// Status of a transfer.
type Status string

const (
	StatusAwaitingOutbound Status = "AWAITING_OUTBOUND"
	StatusInTransit        Status = "IN_TRANSIT"
	StatusCompleted        Status = "COMPLETED"
	StatusCancelled        Status = "CANCELLED"
)

// Terminal reports whether no further transition is possible.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusAwaitingOutbound, StatusInTransit, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// Transfer moves WeightKg/Bags out of SourceSiteID on creation. The
// destination receives ReceivedWeightKg/ReceivedBags on completion.
type Transfer struct {
	ID                string         `json:"id"`
	Date              types.Date     `json:"date"`
	SourceSiteID      string         `json:"sourceSiteId"`
	DestinationSiteID string         `json:"destinationSiteId"`
	SeaweedTypeID     string         `json:"seaweedTypeId"`
	WeightKg          types.Quantity `json:"weightKg"`
	Bags              int            `json:"bags"`

	ReceivedWeightKg types.Quantity `json:"receivedWeightKg,omitzero"`
	ReceivedBags     int            `json:"receivedBags,omitempty"`
	CompletionDate   types.Date     `json:"completionDate,omitzero"`

	Status    Status                 `json:"status"`
	Notes     string                 `json:"notes,omitempty"`
	History   entity.History[Status] `json:"statusHistory"`
	CreatedAt time.Time              `json:"createdAt"`
}

// GetID implements entity.Entity.
func (t *Transfer) GetID() string { return t.ID }

// Validate implements entity.Validatable interface.
func (t *Transfer) Validate(_ context.Context) error {
	switch {
	case t.Date.IsZero():
		return apperror.NewFieldValidation("date", "date is required")
	case t.SourceSiteID == "":
		return apperror.NewFieldValidation("sourceSiteId", "source site is required")
	case t.DestinationSiteID == "":
		return apperror.NewFieldValidation("destinationSiteId", "destination is required")
	case t.SourceSiteID == t.DestinationSiteID:
		return apperror.NewFieldValidation("destinationSiteId", "destination must differ from source")
	case t.SeaweedTypeID == "":
		return apperror.NewFieldValidation("seaweedTypeId", "seaweed type is required")
	case !t.WeightKg.IsPositive():
		return apperror.NewFieldValidation("weightKg", "weight must be positive")
	case t.Bags < 0 || t.ReceivedBags < 0:
		return apperror.NewFieldValidation("bags", "bags cannot be negative")
	case t.ReceivedWeightKg.IsNegative():
		return apperror.NewFieldValidation("receivedWeightKg", "received weight cannot be negative")
	case t.Status != "" && !t.Status.Valid():
		return apperror.NewFieldValidation("status", "unknown status").WithDetail("status", string(t.Status))
	}
	return nil
}

// Received returns the quantities credited to the destination. They are
// never derived from the declared ones: a shortfall stays unreconciled.
func (t *Transfer) Received() (types.Quantity, int) {
	return t.ReceivedWeightKg, t.ReceivedBags
}
