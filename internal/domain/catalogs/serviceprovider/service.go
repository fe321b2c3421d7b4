package serviceprovider

import "sealedger/internal/domain"

// Service provides business logic for the ServiceProvider catalog.
type Service struct {
	*domain.CatalogService[*ServiceProvider]
}

// NewService creates a new ServiceProvider service.
func NewService(deps domain.Deps) *Service {
	return &Service{CatalogService: domain.NewCatalogService(domain.CatalogServiceConfig[*ServiceProvider]{
		Deps:       deps,
		Repo:       NewRepository(),
		EntityName: "service provider",
	})}
}
