package seaweedtype

import (
	"context"

	"sealedger/internal/domain"
	"sealedger/pkg/logger"
)

// Service provides business logic for the SeaweedType catalog.
type Service struct {
	*domain.CatalogService[*SeaweedType]
	deps domain.Deps
	repo *Repository
}

// NewService creates a new SeaweedType service.
func NewService(deps domain.Deps) *Service {
	repo := NewRepository()
	base := domain.NewCatalogService(domain.CatalogServiceConfig[*SeaweedType]{
		Deps:       deps,
		Repo:       repo,
		EntityName: "seaweed type",
	})
	svc := &Service{CatalogService: base, deps: deps, repo: repo}

	base.Hooks().OnBeforeCreate(svc.seedHistory)
	base.Hooks().OnBeforeUpdate(svc.keepHistory)
	return svc
}

// seedHistory starts the price history with today's prices.
func (s *Service) seedHistory(ctx context.Context, t *SeaweedType) error {
	if len(t.PriceHistory) == 0 {
		t.PriceHistory = []PricePoint{{Date: s.deps.Today(), WetPrice: t.WetPrice, DryPrice: t.DryPrice}}
	}
	return nil
}

// keepHistory preserves the stored history when an update omits it.
func (s *Service) keepHistory(ctx context.Context, t *SeaweedType) error {
	if len(t.PriceHistory) > 0 {
		return nil
	}
	stored, err := s.repo.Get(ctx, t.ID)
	if err != nil {
		return err
	}
	t.PriceHistory = stored.PriceHistory
	return nil
}

// UpdatePrices appends a price point and makes it current.
func (s *Service) UpdatePrices(ctx context.Context, id string, p PricePoint) (*SeaweedType, error) {
	if p.Date.IsZero() {
		p.Date = s.deps.Today()
	}
	var out *SeaweedType
	err := s.deps.Tx.RunInTransaction(ctx, func(ctx context.Context) error {
		t, err := s.repo.Get(ctx, id)
		if err != nil {
			return err
		}
		t.AddPrice(p)
		if err := t.Validate(ctx); err != nil {
			return err
		}
		out = t
		return s.repo.Put(ctx, t)
	})
	if err != nil {
		return nil, err
	}
	logger.Info(ctx, "seaweed prices updated", "seaweed_type_id", id, "date", p.Date.String())
	return out, nil
}
