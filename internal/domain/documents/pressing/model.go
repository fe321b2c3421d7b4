// Package pressing provides the PressingSlip document: bulk material
// consumed at the warehouse press and the bales it produced.
package pressing

import (
	"context"

	"sealedger/internal/core/apperror"
	"sealedger/internal/core/entity"
	"sealedger/internal/core/types"
)

// Slip is a pressing slip. Number is the slip number.
type Slip struct {
	entity.Document

	SeaweedTypeID string `json:"seaweedTypeId"`

	ConsumedWeightKg types.Quantity `json:"consumedWeightKg"`
	ConsumedBags     int            `json:"consumedBags"`

	ProducedWeightKg   types.Quantity `json:"producedWeightKg"`
	ProducedBalesCount int            `json:"producedBalesCount"`

	// ExportDocID is set while an export document ships the slip's bales
	ExportDocID string `json:"exportDocId,omitempty"`
}

// Validate implements entity.Validatable interface.
func (s *Slip) Validate(ctx context.Context) error {
	if err := s.Document.Validate(ctx); err != nil {
		return err
	}
	switch {
	case s.SeaweedTypeID == "":
		return apperror.NewFieldValidation("seaweedTypeId", "seaweed type is required")
	case s.ConsumedWeightKg.IsNegative(), s.ConsumedBags < 0:
		return apperror.NewFieldValidation("consumedWeightKg", "consumed quantities cannot be negative")
	case s.ProducedWeightKg.IsNegative(), s.ProducedBalesCount < 0:
		return apperror.NewFieldValidation("producedWeightKg", "produced quantities cannot be negative")
	case s.ConsumedWeightKg.IsZero() && s.ConsumedBags == 0:
		return apperror.NewFieldValidation("consumedWeightKg", "a slip must consume material")
	case s.ProducedWeightKg.IsZero() && s.ProducedBalesCount == 0:
		return apperror.NewFieldValidation("producedWeightKg", "a slip must produce bales")
	}
	return nil
}

// IsExported reports whether an export document ships the slip.
func (s *Slip) IsExported() bool { return s.ExportDocID != "" }

// ReturnInput records material sent back from the warehouse to a site.
type ReturnInput struct {
	Date           types.Date     `json:"date"`
	SiteID         string         `json:"siteId"`
	SeaweedTypeID  string         `json:"seaweedTypeId"`
	Designation    string         `json:"designation"`
	Kg             types.Quantity `json:"kg"`
	Bags           int            `json:"bags"`
	PressingSlipID string         `json:"pressingSlipId"`
}

func (in ReturnInput) validate() error {
	switch {
	case in.SiteID == "":
		return apperror.NewFieldValidation("siteId", "site is required")
	case in.PressingSlipID == "":
		return apperror.NewFieldValidation("pressingSlipId", "pressing slip is required")
	case in.Kg.IsNegative(), in.Bags < 0:
		return apperror.NewFieldValidation("kg", "quantities cannot be negative")
	case in.Kg.IsZero() && in.Bags == 0:
		return apperror.NewFieldValidation("kg", "nothing to return")
	}
	return nil
}
