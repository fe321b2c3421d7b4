package farmer

import (
	"context"

	"sealedger/internal/domain"
	"sealedger/internal/domain/catalogs/site"
	"sealedger/pkg/logger"
)

// Service provides business logic for the Farmer catalog.
// Credit and repayment cleanup is attached as delete hooks by the credit ledger.
type Service struct {
	*domain.CatalogService[*Farmer]
	deps  domain.Deps
	repo  *Repository
	sites *site.Repository
}

// NewService creates a new Farmer service.
func NewService(deps domain.Deps) *Service {
	repo := NewRepository()
	base := domain.NewCatalogService(domain.CatalogServiceConfig[*Farmer]{
		Deps:       deps,
		Repo:       repo,
		EntityName: "farmer",
	})
	svc := &Service{CatalogService: base, deps: deps, repo: repo, sites: site.NewRepository()}

	base.Hooks().OnBeforeCreate(svc.checkSite)
	base.Hooks().OnBeforeUpdate(svc.checkSite)
	return svc
}

func (s *Service) checkSite(ctx context.Context, f *Farmer) error {
	return s.sites.MustExist(ctx, f.SiteID)
}

// ListBySite returns farmers registered at a site.
func (s *Service) ListBySite(ctx context.Context, siteID string) ([]*Farmer, error) {
	var out []*Farmer
	err := s.deps.Tx.ReadOnly(ctx, func(ctx context.Context) error {
		var err error
		out, err = s.repo.Find(ctx, func(f *Farmer) bool { return f.SiteID == siteID })
		return err
	})
	return out, err
}

// ReassignSite moves farmers to another site.
func (s *Service) ReassignSite(ctx context.Context, farmerIDs []string, siteID string) error {
	err := s.deps.Tx.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.sites.MustExist(ctx, siteID); err != nil {
			return err
		}
		farmers, err := s.repo.GetMany(ctx, farmerIDs)
		if err != nil {
			return err
		}
		for _, f := range farmers {
			f.SiteID = siteID
		}
		return s.repo.Put(ctx, farmers...)
	})
	if err != nil {
		return err
	}
	logger.Info(ctx, "farmers reassigned", "count", len(farmerIDs), "site_id", siteID)
	return nil
}
