package credittype

import (
	"context"

	"sealedger/internal/core/apperror"
	"sealedger/internal/domain"
)

// Service provides business logic for the CreditType catalog.
type Service struct {
	*domain.CatalogService[*CreditType]
	deps domain.Deps
	repo *Repository
}

// NewService creates a new CreditType service.
func NewService(deps domain.Deps) *Service {
	repo := NewRepository()
	base := domain.NewCatalogService(domain.CatalogServiceConfig[*CreditType]{
		Deps:       deps,
		Repo:       repo,
		EntityName: "credit type",
	})
	svc := &Service{CatalogService: base, deps: deps, repo: repo}
	base.Hooks().OnBeforeDelete(svc.protectReserved)
	return svc
}

func (s *Service) protectReserved(ctx context.Context, c *CreditType) error {
	if c.IsReserved() {
		return apperror.NewBusinessRule(apperror.CodeBusinessRule, "reserved credit type cannot be deleted").
			WithDetail("credit_type_id", c.ID)
	}
	return nil
}

// EnsureCutting creates the reserved cutting credit type when missing.
func (s *Service) EnsureCutting(ctx context.Context) error {
	return s.deps.Tx.RunInTransaction(ctx, func(ctx context.Context) error {
		return EnsureCutting(ctx, s.repo)
	})
}

// EnsureCutting creates the reserved cutting credit type inside the caller's transaction.
func EnsureCutting(ctx context.Context, repo *Repository) error {
	ok, err := repo.Exists(ctx, CuttingID)
	if err != nil || ok {
		return err
	}
	ct := NewCreditType("Cutting service")
	ct.ID = CuttingID
	ct.Description = "Cutting and planting services deducted from future payments"
	return repo.Insert(ctx, ct)
}
