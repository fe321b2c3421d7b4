package farmer

import "sealedger/internal/domain"

// Collection is the store collection holding farmers.
const Collection = "farmers"

// Repository gives typed access to farmers in the active transaction.
type Repository = domain.Repository[*Farmer]

// NewRepository creates the farmer repository.
func NewRepository() *Repository {
	return domain.NewRepository[*Farmer](Collection, "farmer")
}
