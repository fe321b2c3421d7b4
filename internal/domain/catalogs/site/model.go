// Package site provides the Site catalog: the physical farming locations
// that own modules, farmers and site stock.
package site

import (
	"context"

	"sealedger/internal/core/entity"
)

// Site is a farming location.
type Site struct {
	entity.Catalog

	// Location is a free-text place description
	Location string `json:"location,omitempty"`

	// ManagerID references the employee managing the site
	ManagerID string `json:"managerId,omitempty"`
}

// NewSite creates a new Site with required fields.
func NewSite(code, name string) *Site {
	return &Site{Catalog: entity.NewCatalog(code, name)}
}

// Validate implements entity.Validatable interface.
func (s *Site) Validate(ctx context.Context) error {
	return s.Catalog.Validate(ctx)
}
