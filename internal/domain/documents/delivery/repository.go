package delivery

import (
	"sealedger/internal/core/types"
	"sealedger/internal/domain"
)

// Collection is the store collection holding deliveries.
const Collection = "farmerDeliveries"

// Repository gives typed access to deliveries.
type Repository = domain.Repository[*Delivery]

// NewRepository creates a delivery repository.
func NewRepository() *Repository {
	return domain.NewRepository[*Delivery](Collection, "farmer delivery")
}

// ListFilter for filtering deliveries. Zero fields match everything.
type ListFilter struct {
	FarmerID      string
	SiteID        string
	SeaweedTypeID string
	DateFrom      types.Date
	DateTo        types.Date
	UnpaidOnly    bool
}

// Match reports whether d satisfies the filter.
func (f ListFilter) Match(d *Delivery) bool {
	switch {
	case f.FarmerID != "" && d.FarmerID != f.FarmerID,
		f.SiteID != "" && d.SiteID != f.SiteID,
		f.SeaweedTypeID != "" && d.SeaweedTypeID != f.SeaweedTypeID,
		f.UnpaidOnly && d.IsPaid():
		return false
	}
	return d.Date.Within(f.DateFrom, f.DateTo)
}
