package serviceprovider

import "sealedger/internal/domain"

// Collection is the store collection holding service providers.
const Collection = "serviceProviders"

// Repository gives typed access to service providers in the active transaction.
type Repository = domain.Repository[*ServiceProvider]

// NewRepository creates the service provider repository.
func NewRepository() *Repository {
	return domain.NewRepository[*ServiceProvider](Collection, "service provider")
}
