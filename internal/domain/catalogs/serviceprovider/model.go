// Package serviceprovider provides the ServiceProvider catalog: contractors
// performing cutting operations, paid per operation.
package serviceprovider

import (
	"context"

	"sealedger/internal/core/entity"
)

// ServiceProvider is a contractor.
type ServiceProvider struct {
	entity.Catalog

	ServiceType       string `json:"serviceType,omitempty"`
	Phone             string `json:"phone,omitempty"`
	MobileMoneyNumber string `json:"mobileMoneyNumber,omitempty"`
}

// NewServiceProvider creates a ServiceProvider with required fields.
func NewServiceProvider(name, serviceType string) *ServiceProvider {
	return &ServiceProvider{Catalog: entity.NewCatalog("", name), ServiceType: serviceType}
}

// Validate implements entity.Validatable interface.
func (p *ServiceProvider) Validate(ctx context.Context) error {
	return p.Catalog.Validate(ctx)
}
