package cutting

import (
	"context"
	"fmt"

	"sealedger/internal/core/types"
	"sealedger/internal/domain"
	"sealedger/internal/domain/catalogs/credittype"
	"sealedger/internal/domain/catalogs/farmer"
	"sealedger/internal/domain/catalogs/serviceprovider"
	"sealedger/internal/domain/catalogs/site"
	"sealedger/internal/domain/credit"
	"sealedger/internal/domain/modules"
	"sealedger/pkg/logger"
)

// Collection is the store collection holding cutting operations.
const Collection = "cuttingOperations"

// Service records cutting operations and issues their farmer credits.
// An operation owns its credits through relatedOperationId; any change to
// what they depend on deletes and reissues them all.
type Service struct {
	deps      domain.Deps
	repo      *domain.Repository[*Operation]
	credits   *credit.Service
	modules   *modules.Repository
	farmers   *farmer.Repository
	sites     *site.Repository
	providers *serviceprovider.Repository
}

// NewService creates the cutting operation service.
func NewService(deps domain.Deps, credits *credit.Service) *Service {
	return &Service{
		deps:      deps,
		repo:      domain.NewRepository[*Operation](Collection, "cutting operation"),
		credits:   credits,
		modules:   modules.NewRepository(),
		farmers:   farmer.NewRepository(),
		sites:     site.NewRepository(),
		providers: serviceprovider.NewRepository(),
	}
}

// Add records an operation and issues its credits atomically.
// Runs in the caller's transaction when there is one.
func (s *Service) Add(ctx context.Context, op Operation) (*Operation, error) {
	if op.ID == "" {
		op.ID = s.deps.NewID()
	}
	op.CreatedAt = s.deps.Now()
	op.ComputeTotal()
	if err := op.Validate(ctx); err != nil {
		return nil, err
	}

	var issued int
	err := s.deps.Tx.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.checkRefs(ctx, &op); err != nil {
			return err
		}
		if err := s.repo.Insert(ctx, &op); err != nil {
			return err
		}
		var err error
		issued, err = s.issueCredits(ctx, &op)
		return err
	})
	if err != nil {
		return nil, err
	}
	logger.Info(ctx, "cutting operation added", "operation_id", op.ID, "credits", issued, "total", op.TotalAmount.String())
	return &op, nil
}

func (s *Service) checkRefs(ctx context.Context, op *Operation) error {
	if err := s.sites.MustExist(ctx, op.SiteID); err != nil {
		return err
	}
	if err := s.providers.MustExist(ctx, op.ServiceProviderID); err != nil {
		return err
	}
	if op.BeneficiaryFarmerID != "" {
		if err := s.farmers.MustExist(ctx, op.BeneficiaryFarmerID); err != nil {
			return err
		}
	}
	for _, mc := range op.ModuleCuts {
		if err := s.modules.MustExist(ctx, mc.ModuleID); err != nil {
			return err
		}
	}
	return nil
}

// issueCredits charges each cut to the beneficiary, or else to the module's
// current farmer. Cuts without a payer or with a zero amount issue nothing.
func (s *Service) issueCredits(ctx context.Context, op *Operation) (int, error) {
	var out []credit.Credit
	for _, mc := range op.ModuleCuts {
		m, err := s.modules.Get(ctx, mc.ModuleID)
		if err != nil {
			return 0, err
		}
		payer := op.BeneficiaryFarmerID
		note := fmt.Sprintf("Cutting/Planting service for module %s", m.Code)
		if payer == "" {
			payer = m.FarmerID
			note = fmt.Sprintf("Cutting service for module %s", m.Code)
		}
		if payer == "" {
			continue
		}
		amount := op.CutAmount(mc)
		if !amount.IsPositive() {
			continue
		}
		out = append(out, credit.Credit{
			Date:               op.Date,
			SiteID:             op.SiteID,
			FarmerID:           payer,
			CreditTypeID:       credittype.CuttingID,
			TotalAmount:        amount,
			RelatedOperationID: op.ID,
			Notes:              note,
		})
	}
	if _, err := s.credits.AddCredits(ctx, out); err != nil {
		return 0, err
	}
	return len(out), nil
}

// Update replaces an operation. When anything its credits depend on changed,
// all its credits are deleted and reissued. Payment markers are kept.
func (s *Service) Update(ctx context.Context, op Operation) (*Operation, error) {
	op.ComputeTotal()
	if err := op.Validate(ctx); err != nil {
		return nil, err
	}

	var regenerated bool
	err := s.deps.Tx.RunInTransaction(ctx, func(ctx context.Context) error {
		stored, err := s.repo.Get(ctx, op.ID)
		if err != nil {
			return err
		}
		if err := s.checkRefs(ctx, &op); err != nil {
			return err
		}
		op.CreatedAt = stored.CreatedAt
		op.IsPaid = stored.IsPaid
		op.PaymentDate = stored.PaymentDate

		if stored.creditsDiffer(&op) {
			regenerated = true
			if _, err := s.credits.DeleteByOperation(ctx, op.ID); err != nil {
				return err
			}
			if _, err := s.issueCredits(ctx, &op); err != nil {
				return err
			}
		}
		return s.repo.Put(ctx, &op)
	})
	if err != nil {
		return nil, err
	}
	logger.Info(ctx, "cutting operation updated", "operation_id", op.ID, "credits_regenerated", regenerated)
	return &op, nil
}

// MarkPaid flags operations as paid. Already paid operations keep their
// original payment date.
func (s *Service) MarkPaid(ctx context.Context, ids []string, date types.Date) (int, error) {
	var marked int
	err := s.deps.Tx.RunInTransaction(ctx, func(ctx context.Context) error {
		ops, err := s.repo.GetMany(ctx, ids)
		if err != nil {
			return err
		}
		for _, op := range ops {
			if op.IsPaid {
				continue
			}
			op.IsPaid = true
			op.PaymentDate = date
			if err := s.repo.Put(ctx, op); err != nil {
				return err
			}
			marked++
		}
		return nil
	})
	return marked, err
}

// Delete removes an operation and its credits.
func (s *Service) Delete(ctx context.Context, id string) error {
	var removed int
	err := s.deps.Tx.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.MustExist(ctx, id); err != nil {
			return err
		}
		if _, err := s.repo.Delete(ctx, id); err != nil {
			return err
		}
		var err error
		removed, err = s.credits.DeleteByOperation(ctx, id)
		return err
	})
	if err != nil {
		return err
	}
	logger.Info(ctx, "cutting operation deleted", "operation_id", id, "credits_removed", removed)
	return nil
}

// Get returns an operation.
func (s *Service) Get(ctx context.Context, id string) (*Operation, error) {
	var out *Operation
	err := s.deps.Tx.ReadOnly(ctx, func(ctx context.Context) error {
		var err error
		out, err = s.repo.Get(ctx, id)
		return err
	})
	return out, err
}

// Filter selects operations. Zero fields match everything.
type Filter struct {
	SiteID        string
	SeaweedTypeID string
	ModuleID      string
	From, To      types.Date
	UnpaidOnly    bool
}

// Match reports whether op satisfies the filter.
func (f Filter) Match(op *Operation) bool {
	if f.SiteID != "" && op.SiteID != f.SiteID {
		return false
	}
	if f.SeaweedTypeID != "" && op.SeaweedTypeID != f.SeaweedTypeID {
		return false
	}
	if f.UnpaidOnly && op.IsPaid {
		return false
	}
	if f.ModuleID != "" {
		found := false
		for _, mc := range op.ModuleCuts {
			found = found || mc.ModuleID == f.ModuleID
		}
		if !found {
			return false
		}
	}
	return op.Date.Within(f.From, f.To)
}

// List returns operations matching the filter in insertion order.
// Runs in the caller's transaction when there is one.
func (s *Service) List(ctx context.Context, f Filter) ([]*Operation, error) {
	var out []*Operation
	err := s.deps.Tx.ReadOnly(ctx, func(ctx context.Context) error {
		var err error
		out, err = s.repo.Find(ctx, f.Match)
		return err
	})
	return out, err
}

// LatestForModule returns the most recent operation on a module dated on or
// before date, or nil.
func (s *Service) LatestForModule(ctx context.Context, moduleID string, date types.Date) (*Operation, error) {
	ops, err := s.List(ctx, Filter{ModuleID: moduleID, To: date})
	if err != nil {
		return nil, err
	}
	var latest *Operation
	for _, op := range ops {
		if latest == nil || !op.Date.Before(latest.Date) {
			latest = op
		}
	}
	return latest, nil
}
