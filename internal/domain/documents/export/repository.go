package export

import (
	"sealedger/internal/core/types"
	"sealedger/internal/domain"
)

// Collection is the store collection holding export documents.
const Collection = "exportDocuments"

// Repository gives typed access to export documents.
type Repository = domain.Repository[*Document]

// NewRepository creates an export document repository.
func NewRepository() *Repository {
	return domain.NewRepository[*Document](Collection, "export document")
}

// ListFilter for filtering export documents. Zero fields match everything.
type ListFilter struct {
	SeaweedTypeID string
	DateFrom      types.Date
	DateTo        types.Date
}

// Match reports whether d satisfies the filter.
func (f ListFilter) Match(d *Document) bool {
	if f.SeaweedTypeID != "" && d.SeaweedTypeID != f.SeaweedTypeID {
		return false
	}
	return d.Date.Within(f.DateFrom, f.DateTo)
}
