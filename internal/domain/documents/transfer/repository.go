package transfer

import (
	"sealedger/internal/core/types"
	"sealedger/internal/domain"
)

// Collection is the store collection holding site transfers.
const Collection = "siteTransfers"

// Repository gives typed access to transfers.
type Repository = domain.Repository[*Transfer]

// NewRepository creates a transfer repository.
func NewRepository() *Repository {
	return domain.NewRepository[*Transfer](Collection, "site transfer")
}

// ListFilter for filtering transfers. Zero fields match everything; SiteID
// matches either end.
type ListFilter struct {
	SiteID        string
	SeaweedTypeID string
	Status        Status
	DateFrom      types.Date
	DateTo        types.Date
}

// Match reports whether t satisfies the filter.
func (f ListFilter) Match(t *Transfer) bool {
	if f.SiteID != "" && t.SourceSiteID != f.SiteID && t.DestinationSiteID != f.SiteID {
		return false
	}
	if f.SeaweedTypeID != "" && t.SeaweedTypeID != f.SeaweedTypeID {
		return false
	}
	if f.Status != "" && t.Status != f.Status {
		return false
	}
	return t.Date.Within(f.DateFrom, f.DateTo)
}
