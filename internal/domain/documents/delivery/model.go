// Package delivery provides the FarmerDelivery document: dry material a
// farmer brings to a site store or straight to the pressing warehouse.
package delivery

import (
	"context"

	"sealedger/internal/core/apperror"
	"sealedger/internal/core/entity"
	"sealedger/internal/core/types"
)

// Destination tells which ledger receives a delivery.
type Destination string

const (
	// ToSite posts to the site stock of the delivery's site.
	ToSite Destination = "SITE_STOCK"
	// ToWarehouse posts bulk material to the pressing warehouse.
	ToWarehouse Destination = "PRESSING_WAREHOUSE_BULK"
)

// Delivery is a farmer delivery slip. Number is the slip number.
type Delivery struct {
	entity.Document

	SiteID        string         `json:"siteId"`
	FarmerID      string         `json:"farmerId"`
	SeaweedTypeID string         `json:"seaweedTypeId"`
	Destination   Destination    `json:"destination"`
	TotalWeightKg types.Quantity `json:"totalWeightKg"`
	TotalBags     int            `json:"totalBags"`

	// PaymentRunID is set once by the payment run that paid the delivery
	PaymentRunID string `json:"paymentRunId,omitempty"`
}

// Validate implements entity.Validatable interface.
func (d *Delivery) Validate(ctx context.Context) error {
	if err := d.Document.Validate(ctx); err != nil {
		return err
	}
	switch {
	case d.SiteID == "":
		return apperror.NewFieldValidation("siteId", "site is required")
	case d.FarmerID == "":
		return apperror.NewFieldValidation("farmerId", "farmer is required")
	case d.SeaweedTypeID == "":
		return apperror.NewFieldValidation("seaweedTypeId", "seaweed type is required")
	case d.Destination != ToSite && d.Destination != ToWarehouse:
		return apperror.NewFieldValidation("destination", "unknown destination").
			WithDetail("value", string(d.Destination))
	case !d.TotalWeightKg.IsPositive():
		return apperror.NewFieldValidation("totalWeightKg", "weight must be positive")
	case d.TotalBags < 0:
		return apperror.NewFieldValidation("totalBags", "bag count cannot be negative")
	}
	return nil
}

// IsPaid reports whether a payment run has paid the delivery.
func (d *Delivery) IsPaid() bool { return d.PaymentRunID != "" }
