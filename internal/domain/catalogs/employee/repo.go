package employee

import "sealedger/internal/domain"

// Collection is the store collection holding employees.
const Collection = "employees"

// Repository gives typed access to employees in the active transaction.
type Repository = domain.Repository[*Employee]

// NewRepository creates the employee repository.
func NewRepository() *Repository {
	return domain.NewRepository[*Employee](Collection, "employee")
}
