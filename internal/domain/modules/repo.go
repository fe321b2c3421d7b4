package modules

import "sealedger/internal/domain"

// Collection is the store collection holding modules.
const Collection = "modules"

// Repository gives typed access to modules in the active transaction.
type Repository = domain.Repository[*Module]

// NewRepository creates the module repository.
func NewRepository() *Repository {
	return domain.NewRepository[*Module](Collection, "module")
}
