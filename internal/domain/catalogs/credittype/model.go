// Package credittype provides the CreditType catalog used to classify farmer credit.
package credittype

import (
	"context"

	"sealedger/internal/core/entity"
)

// CuttingID is the reserved credit type for cutting and planting services.
const CuttingID = "ct-cutting"

// CreditType classifies a farmer credit (inputs, cash advance, cutting service...).
type CreditType struct {
	entity.Catalog

	Description string `json:"description,omitempty"`
}

// NewCreditType creates a CreditType with required fields.
func NewCreditType(name string) *CreditType {
	return &CreditType{Catalog: entity.NewCatalog("", name)}
}

// Validate implements entity.Validatable interface.
func (c *CreditType) Validate(ctx context.Context) error {
	return c.Catalog.Validate(ctx)
}

// IsReserved reports whether the type is managed by the system.
func (c *CreditType) IsReserved() bool {
	return c.ID == CuttingID
}
