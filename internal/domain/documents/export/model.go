// Package export provides the ExportDocument: a shipment of pressed bales
// drawn from pressing slips.
package export

import (
	"context"
	"slices"

	"sealedger/internal/core/apperror"
	"sealedger/internal/core/entity"
	"sealedger/internal/core/types"
)

// Container is one shipping container of a shipment.
type Container struct {
	ID         string         `json:"id"`
	Number     string         `json:"number"`
	SealNumber string         `json:"sealNumber,omitempty"`
	BalesCount int            `json:"balesCount"`
	WeightKg   types.Quantity `json:"weightKg"`
}

// Document is an export shipment. Number is the document number.
// The shipped quantity posted to the warehouse ledger is the sum of the
// referenced slips' production; the declared totals are informational.
type Document struct {
	entity.Document

	SeaweedTypeID   string      `json:"seaweedTypeId"`
	SourceSiteID    string      `json:"sourceSiteId,omitempty"`
	Buyer           string      `json:"buyer,omitempty"`
	Destination     string      `json:"destination,omitempty"`
	PressingSlipIDs []string    `json:"pressingSlipIds"`
	Containers      []Container `json:"containers,omitempty"`

	DeclaredBales    int            `json:"declaredBales,omitzero"`
	DeclaredWeightKg types.Quantity `json:"declaredWeightKg,omitzero"`
}

// Validate implements entity.Validatable interface.
func (d *Document) Validate(ctx context.Context) error {
	if err := d.Document.Validate(ctx); err != nil {
		return err
	}
	if d.SeaweedTypeID == "" {
		return apperror.NewFieldValidation("seaweedTypeId", "seaweed type is required")
	}
	seen := make(map[string]struct{}, len(d.PressingSlipIDs))
	for _, id := range d.PressingSlipIDs {
		if _, dup := seen[id]; dup || id == "" {
			return apperror.NewFieldValidation("pressingSlipIds", "slip ids must be unique and non-empty").
				WithDetail("pressing_slip_id", id)
		}
		seen[id] = struct{}{}
	}
	for i, c := range d.Containers {
		if c.BalesCount < 0 || c.WeightKg.IsNegative() {
			return apperror.NewFieldValidation("containers", "container quantities cannot be negative").
				WithDetail("index", i)
		}
	}
	return nil
}

// HasSlip reports whether the document ships slipID.
func (d *Document) HasSlip(slipID string) bool {
	return slices.Contains(d.PressingSlipIDs, slipID)
}
