// Package farmer provides the Farmer catalog. Farmers are assigned modules,
// receive credit and are paid by payment runs.
package farmer

import (
	"context"

	"sealedger/internal/core/entity"
)

// Farmer is a grower working modules at a site.
type Farmer struct {
	entity.Person

	// MobileMoneyNumber receives mobile money disbursements
	MobileMoneyNumber string `json:"mobileMoneyNumber,omitempty"`

	// IDNumber is the national identity number
	IDNumber string `json:"idNumber,omitempty"`
}

// NewFarmer creates a Farmer with required fields.
func NewFarmer(firstName, lastName, siteID string) *Farmer {
	return &Farmer{Person: entity.Person{FirstName: firstName, LastName: lastName, SiteID: siteID}}
}

// Validate implements entity.Validatable interface.
func (f *Farmer) Validate(ctx context.Context) error {
	return f.Person.Validate(ctx)
}
