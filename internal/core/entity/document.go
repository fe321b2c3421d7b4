package entity

import (
	"context"
	"time"

	"sealedger/internal/core/apperror"
	"sealedger/internal/core/types"
)

// Document is the base type for workflow records that post ledger movements.
// Examples: FarmerDelivery, PressingSlip, ExportDocument.
type Document struct {
	ID string `json:"id"`

	// Number is the document number (auto-generated, unique within type+year)
	Number string `json:"number"`

	// Date is the business date of the document
	Date types.Date `json:"date"`

	// Comment is an optional user comment
	Comment string `json:"comment,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
}

// GetID implements Entity.
func (d *Document) GetID() string { return d.ID }

// SetID implements Assignable.
func (d *Document) SetID(id string) { d.ID = id }

// Validate implements Validatable interface.
func (d *Document) Validate(ctx context.Context) error {
	if d.Date.IsZero() {
		return apperror.NewFieldValidation("date", "date is required")
	}
	return nil
}

// IsBackdated checks if document date is before today.
func (d *Document) IsBackdated(now time.Time) bool {
	return d.Date.Before(types.DateOf(now))
}
