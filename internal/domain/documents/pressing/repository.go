package pressing

import (
	"sealedger/internal/core/types"
	"sealedger/internal/domain"
)

// Collection is the store collection holding pressing slips.
const Collection = "pressingSlips"

// Repository gives typed access to pressing slips.
type Repository = domain.Repository[*Slip]

// NewRepository creates a pressing slip repository.
func NewRepository() *Repository {
	return domain.NewRepository[*Slip](Collection, "pressing slip")
}

// ListFilter for filtering slips. Zero fields match everything.
type ListFilter struct {
	SeaweedTypeID string
	ExportDocID   string
	DateFrom      types.Date
	DateTo        types.Date
	Unexported    bool
}

// Match reports whether s satisfies the filter.
func (f ListFilter) Match(s *Slip) bool {
	switch {
	case f.SeaweedTypeID != "" && s.SeaweedTypeID != f.SeaweedTypeID,
		f.ExportDocID != "" && s.ExportDocID != f.ExportDocID,
		f.Unexported && s.IsExported():
		return false
	}
	return s.Date.Within(f.DateFrom, f.DateTo)
}
