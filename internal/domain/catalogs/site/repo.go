package site

import "sealedger/internal/domain"

// Collection is the store collection holding sites.
const Collection = "sites"

// Repository gives typed access to sites in the active transaction.
type Repository = domain.Repository[*Site]

// NewRepository creates the site repository.
func NewRepository() *Repository {
	return domain.NewRepository[*Site](Collection, "site")
}
