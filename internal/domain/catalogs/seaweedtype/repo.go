package seaweedtype

import "sealedger/internal/domain"

// Collection is the store collection holding seaweed types.
const Collection = "seaweedTypes"

// Repository gives typed access to seaweed types in the active transaction.
type Repository = domain.Repository[*SeaweedType]

// NewRepository creates the seaweed type repository.
func NewRepository() *Repository {
	return domain.NewRepository[*SeaweedType](Collection, "seaweed type")
}
