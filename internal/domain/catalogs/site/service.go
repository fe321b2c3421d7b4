package site

import (
	"context"

	"sealedger/internal/domain"
)

// Service provides business logic for the Site catalog.
// Uses composition with domain.CatalogService for common CRUD operations.
type Service struct {
	*domain.CatalogService[*Site]
	repo *Repository
}

// NewService creates a new Site service.
func NewService(deps domain.Deps) *Service {
	repo := NewRepository()
	base := domain.NewCatalogService(domain.CatalogServiceConfig[*Site]{
		Deps:       deps,
		Repo:       repo,
		EntityName: "site",
	})
	return &Service{CatalogService: base, repo: repo}
}

// ClearManager removes managerID from every site it manages.
// Runs inside the caller's transaction.
func (s *Service) ClearManager(ctx context.Context, managerIDs ...string) error {
	set := make(map[string]struct{}, len(managerIDs))
	for _, id := range managerIDs {
		set[id] = struct{}{}
	}
	sites, err := s.repo.Find(ctx, func(st *Site) bool {
		_, ok := set[st.ManagerID]
		return ok && st.ManagerID != ""
	})
	if err != nil {
		return err
	}
	for _, st := range sites {
		st.ManagerID = ""
	}
	return s.repo.Put(ctx, sites...)
}
