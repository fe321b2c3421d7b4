package credittype

import "sealedger/internal/domain"

// Collection is the store collection holding credit types.
const Collection = "creditTypes"

// Repository gives typed access to credit types in the active transaction.
type Repository = domain.Repository[*CreditType]

// NewRepository creates the credit type repository.
func NewRepository() *Repository {
	return domain.NewRepository[*CreditType](Collection, "credit type")
}
