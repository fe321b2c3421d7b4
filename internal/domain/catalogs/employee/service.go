package employee

import (
	"context"

	"sealedger/internal/domain"
	"sealedger/internal/domain/catalogs/site"
	"sealedger/pkg/logger"
)

// Service provides business logic for the Employee catalog.
type Service struct {
	*domain.CatalogService[*Employee]
	deps  domain.Deps
	repo  *Repository
	sites *site.Service
}

// NewService creates a new Employee service. Deleting an employee clears
// the manager reference of the sites they managed.
func NewService(deps domain.Deps, sites *site.Service) *Service {
	repo := NewRepository()
	base := domain.NewCatalogService(domain.CatalogServiceConfig[*Employee]{
		Deps:       deps,
		Repo:       repo,
		EntityName: "employee",
	})
	svc := &Service{CatalogService: base, deps: deps, repo: repo, sites: sites}

	base.Hooks().OnBeforeCreate(svc.checkSite)
	base.Hooks().OnBeforeUpdate(svc.checkSite)
	base.Hooks().OnAfterDelete(func(ctx context.Context, e *Employee) error {
		return sites.ClearManager(ctx, e.ID)
	})
	return svc
}

func (s *Service) checkSite(ctx context.Context, e *Employee) error {
	return s.sites.Repo().MustExist(ctx, e.SiteID)
}

// ReassignSite moves employees to another site.
func (s *Service) ReassignSite(ctx context.Context, employeeIDs []string, siteID string) error {
	err := s.deps.Tx.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.sites.Repo().MustExist(ctx, siteID); err != nil {
			return err
		}
		employees, err := s.repo.GetMany(ctx, employeeIDs)
		if err != nil {
			return err
		}
		for _, e := range employees {
			e.SiteID = siteID
		}
		return s.repo.Put(ctx, employees...)
	})
	if err != nil {
		return err
	}
	logger.Info(ctx, "employees reassigned", "count", len(employeeIDs), "site_id", siteID)
	return nil
}
