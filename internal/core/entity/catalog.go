package entity

import (
	"context"
	"strings"

	"sealedger/internal/core/apperror"
)

// Assignable entities accept a generated id on creation.
type Assignable interface {
	Record
	SetID(id string)
}

// Catalog is the base type for reference data.
// Examples: Site, SeaweedType, CreditType, ServiceProvider.
type Catalog struct {
	ID string `json:"id"`

	// Code is a human-readable identifier (optional)
	Code string `json:"code,omitempty"`

	// Name is the display name
	Name string `json:"name"`
}

// NewCatalog creates a new Catalog. The id is assigned on creation.
func NewCatalog(code, name string) Catalog {
	return Catalog{Code: code, Name: name}
}

// GetID implements Entity.
func (c *Catalog) GetID() string { return c.ID }

// SetID implements Assignable.
func (c *Catalog) SetID(id string) { c.ID = id }

// Validate implements Validatable interface.
func (c *Catalog) Validate(ctx context.Context) error {
	if strings.TrimSpace(c.Name) == "" {
		return apperror.NewFieldValidation("name", "name is required")
	}
	return nil
}

// Person is the base type for farmers and employees.
type Person struct {
	ID        string `json:"id"`
	Code      string `json:"code,omitempty"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	SiteID    string `json:"siteId"`
	Phone     string `json:"phone,omitempty"`
}

// GetID implements Entity.
func (p *Person) GetID() string { return p.ID }

// SetID implements Assignable.
func (p *Person) SetID(id string) { p.ID = id }

// FullName returns "First Last".
func (p *Person) FullName() string {
	return strings.TrimSpace(p.FirstName + " " + p.LastName)
}

// Validate implements Validatable interface.
func (p *Person) Validate(ctx context.Context) error {
	if strings.TrimSpace(p.FirstName) == "" && strings.TrimSpace(p.LastName) == "" {
		return apperror.NewFieldValidation("lastName", "name is required")
	}
	if p.SiteID == "" {
		return apperror.NewFieldValidation("siteId", "site is required")
	}
	return nil
}
