// Package seaweedtype provides the SeaweedType catalog with its price history.
// Payment runs price production at the price in force on the production date.
package seaweedtype

import (
	"context"
	"sort"

	"sealedger/internal/core/apperror"
	"sealedger/internal/core/entity"
	"sealedger/internal/core/types"
)

// PricePoint is the wet and dry price per kg effective from Date.
type PricePoint struct {
	Date     types.Date  `json:"date"`
	WetPrice types.Money `json:"wetPrice"`
	DryPrice types.Money `json:"dryPrice"`
}

// SeaweedType is a cultivated species or grade.
type SeaweedType struct {
	entity.Catalog

	// WetPrice and DryPrice are the prices currently in force
	WetPrice types.Money `json:"wetPrice"`
	DryPrice types.Money `json:"dryPrice"`

	// PriceHistory is ordered by date; the last entry matches the current prices
	PriceHistory []PricePoint `json:"priceHistory"`
}

// NewSeaweedType creates a SeaweedType with its initial prices effective from date.
func NewSeaweedType(name string, wet, dry types.Money, date types.Date) *SeaweedType {
	return &SeaweedType{
		Catalog:      entity.NewCatalog("", name),
		WetPrice:     wet,
		DryPrice:     dry,
		PriceHistory: []PricePoint{{Date: date, WetPrice: wet, DryPrice: dry}},
	}
}

// Validate implements entity.Validatable interface.
func (t *SeaweedType) Validate(ctx context.Context) error {
	if err := t.Catalog.Validate(ctx); err != nil {
		return err
	}
	if t.WetPrice.IsNegative() {
		return apperror.NewFieldValidation("wetPrice", "price cannot be negative")
	}
	if t.DryPrice.IsNegative() {
		return apperror.NewFieldValidation("dryPrice", "price cannot be negative")
	}
	for _, p := range t.PriceHistory {
		if p.WetPrice.IsNegative() || p.DryPrice.IsNegative() {
			return apperror.NewFieldValidation("priceHistory", "price cannot be negative").
				WithDetail("date", p.Date.String())
		}
	}
	return nil
}

// AddPrice records new prices and makes them current.
func (t *SeaweedType) AddPrice(p PricePoint) {
	t.PriceHistory = append(t.PriceHistory, p)
	sort.SliceStable(t.PriceHistory, func(i, j int) bool {
		return t.PriceHistory[i].Date.Before(t.PriceHistory[j].Date)
	})
	last := t.PriceHistory[len(t.PriceHistory)-1]
	t.WetPrice, t.DryPrice = last.WetPrice, last.DryPrice
}

// PriceAt returns the prices in force on date: the latest history entry dated
// on or before it. Dates before the first entry use the first entry; an
// empty history uses the current prices.
func (t *SeaweedType) PriceAt(date types.Date) PricePoint {
	if len(t.PriceHistory) == 0 {
		return PricePoint{Date: date, WetPrice: t.WetPrice, DryPrice: t.DryPrice}
	}
	found := t.PriceHistory[0]
	for _, p := range t.PriceHistory {
		if p.Date.OnOrBefore(date) {
			found = p
		}
	}
	return found
}
