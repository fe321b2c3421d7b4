package credit

import (
	"context"
	"sort"

	"sealedger/internal/core/types"
	"sealedger/internal/domain"
	"sealedger/internal/domain/catalogs/credittype"
	"sealedger/internal/domain/catalogs/farmer"
	"sealedger/pkg/logger"
)

// Service is the credit and repayment ledger. Both collections are
// append-only; deletion is referential cleanup, not reversal.
type Service struct {
	deps        domain.Deps
	credits     *domain.Repository[*Credit]
	repayments  *domain.Repository[*Repayment]
	farmers     *farmer.Repository
	creditTypes *credittype.Repository
}

// NewService creates the credit ledger.
func NewService(deps domain.Deps) *Service {
	return &Service{
		deps:        deps,
		credits:     NewCreditRepository(),
		repayments:  NewRepaymentRepository(),
		farmers:     farmer.NewRepository(),
		creditTypes: credittype.NewRepository(),
	}
}

// AttachCascades removes a deleted farmer's credits and repayments, and a
// deleted credit type's credits, in the deleting transaction.
func (s *Service) AttachCascades(farmers *farmer.Service, creditTypes *credittype.Service) {
	farmers.Hooks().OnBeforeDelete(func(ctx context.Context, f *farmer.Farmer) error {
		if _, err := s.credits.DeleteWhere(ctx, func(c *Credit) bool { return c.FarmerID == f.ID }); err != nil {
			return err
		}
		_, err := s.repayments.DeleteWhere(ctx, func(r *Repayment) bool { return r.FarmerID == f.ID })
		return err
	})
	creditTypes.Hooks().OnBeforeDelete(func(ctx context.Context, ct *credittype.CreditType) error {
		_, err := s.credits.DeleteWhere(ctx, func(c *Credit) bool { return c.CreditTypeID == ct.ID })
		return err
	})
}

// AddCredit records one credit.
func (s *Service) AddCredit(ctx context.Context, c Credit) (*Credit, error) {
	out, err := s.AddCredits(ctx, []Credit{c})
	if err != nil {
		return nil, err
	}
	return out[0], nil
}

// AddCredits records credits atomically. Farmers and credit types must exist;
// the reserved cutting type is created on first use.
func (s *Service) AddCredits(ctx context.Context, in []Credit) ([]*Credit, error) {
	if len(in) == 0 {
		return nil, nil
	}
	out := make([]*Credit, 0, len(in))
	for i := range in {
		c := in[i]
		if c.ID == "" {
			c.ID = s.deps.NewID()
		}
		c.CreatedAt = s.deps.Now()
		if err := c.Validate(ctx); err != nil {
			return nil, err
		}
		out = append(out, &c)
	}

	err := s.deps.Tx.RunInTransaction(ctx, func(ctx context.Context) error {
		for _, c := range out {
			if err := s.farmers.MustExist(ctx, c.FarmerID); err != nil {
				return err
			}
			if c.CreditTypeID == credittype.CuttingID {
				if err := credittype.EnsureCutting(ctx, s.creditTypes); err != nil {
					return err
				}
			} else if err := s.creditTypes.MustExist(ctx, c.CreditTypeID); err != nil {
				return err
			}
		}
		return s.credits.Insert(ctx, out...)
	})
	if err != nil {
		return nil, err
	}
	logger.Debug(ctx, "credits added", "count", len(out))
	return out, nil
}

// AddRepayment records one repayment.
func (s *Service) AddRepayment(ctx context.Context, r Repayment) (*Repayment, error) {
	out, err := s.AddRepayments(ctx, []Repayment{r})
	if err != nil {
		return nil, err
	}
	return out[0], nil
}

// AddRepayments records repayments atomically.
func (s *Service) AddRepayments(ctx context.Context, in []Repayment) ([]*Repayment, error) {
	if len(in) == 0 {
		return nil, nil
	}
	out := make([]*Repayment, 0, len(in))
	for i := range in {
		r := in[i]
		if r.ID == "" {
			r.ID = s.deps.NewID()
		}
		r.CreatedAt = s.deps.Now()
		if err := r.Validate(ctx); err != nil {
			return nil, err
		}
		out = append(out, &r)
	}

	err := s.deps.Tx.RunInTransaction(ctx, func(ctx context.Context) error {
		for _, r := range out {
			if err := s.farmers.MustExist(ctx, r.FarmerID); err != nil {
				return err
			}
		}
		return s.repayments.Insert(ctx, out...)
	})
	if err != nil {
		return nil, err
	}
	logger.Debug(ctx, "repayments added", "count", len(out))
	return out, nil
}

// DeleteByOperation removes every credit issued by a cutting operation.
func (s *Service) DeleteByOperation(ctx context.Context, operationID string) (int, error) {
	var n int
	err := s.deps.Tx.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		n, err = s.credits.DeleteWhere(ctx, func(c *Credit) bool { return c.RelatedOperationID == operationID })
		return err
	})
	return n, err
}

// DeleteCredit removes a credit.
func (s *Service) DeleteCredit(ctx context.Context, id string) error {
	return s.deps.Tx.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.credits.MustExist(ctx, id); err != nil {
			return err
		}
		_, err := s.credits.Delete(ctx, id)
		return err
	})
}

// DeleteRepayment removes a repayment.
func (s *Service) DeleteRepayment(ctx context.Context, id string) error {
	return s.deps.Tx.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repayments.MustExist(ctx, id); err != nil {
			return err
		}
		_, err := s.repayments.Delete(ctx, id)
		return err
	})
}

// Filter selects credits or repayments.
type Filter struct {
	FarmerID           string
	RelatedOperationID string
	PaymentRunID       string
}

// Credits lists credits in insertion order.
func (s *Service) Credits(ctx context.Context, f Filter) ([]*Credit, error) {
	var out []*Credit
	err := s.deps.Tx.ReadOnly(ctx, func(ctx context.Context) error {
		var err error
		out, err = s.credits.Find(ctx, func(c *Credit) bool {
			return (f.FarmerID == "" || c.FarmerID == f.FarmerID) &&
				(f.RelatedOperationID == "" || c.RelatedOperationID == f.RelatedOperationID)
		})
		return err
	})
	return out, err
}

// Repayments lists repayments in insertion order.
func (s *Service) Repayments(ctx context.Context, f Filter) ([]*Repayment, error) {
	var out []*Repayment
	err := s.deps.Tx.ReadOnly(ctx, func(ctx context.Context) error {
		var err error
		out, err = s.repayments.Find(ctx, func(r *Repayment) bool {
			return (f.FarmerID == "" || r.FarmerID == f.FarmerID) &&
				(f.PaymentRunID == "" || r.PaymentRunID == f.PaymentRunID)
		})
		return err
	})
	return out, err
}

// Balance returns a farmer's outstanding debt.
func (s *Service) Balance(ctx context.Context, farmerID string) (Balance, error) {
	var out Balance
	err := s.deps.Tx.ReadOnly(ctx, func(ctx context.Context) error {
		all, err := s.balances(ctx)
		if err != nil {
			return err
		}
		out = all[farmerID]
		out.FarmerID = farmerID
		return nil
	})
	return out, err
}

// Outstanding returns every farmer's outstanding balance keyed by farmer id.
// Runs in the caller's transaction when there is one.
func (s *Service) Outstanding(ctx context.Context) (map[string]types.Money, error) {
	out := make(map[string]types.Money)
	err := s.deps.Tx.ReadOnly(ctx, func(ctx context.Context) error {
		all, err := s.balances(ctx)
		if err != nil {
			return err
		}
		for id, b := range all {
			out[id] = b.Outstanding
		}
		return nil
	})
	return out, err
}

// Balances returns the position of every farmer with credits or repayments.
func (s *Service) Balances(ctx context.Context) ([]Balance, error) {
	var out []Balance
	err := s.deps.Tx.ReadOnly(ctx, func(ctx context.Context) error {
		all, err := s.balances(ctx)
		if err != nil {
			return err
		}
		for _, b := range all {
			out = append(out, b)
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].FarmerID < out[j].FarmerID })
	return out, err
}

func (s *Service) balances(ctx context.Context) (map[string]Balance, error) {
	credits, err := s.credits.List(ctx)
	if err != nil {
		return nil, err
	}
	repayments, err := s.repayments.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[string]Balance)
	for _, c := range credits {
		b := out[c.FarmerID]
		b.FarmerID = c.FarmerID
		b.Credits = b.Credits.Add(c.TotalAmount)
		out[c.FarmerID] = b
	}
	for _, r := range repayments {
		b := out[r.FarmerID]
		b.FarmerID = r.FarmerID
		b.Repayments = b.Repayments.Add(r.Amount)
		out[r.FarmerID] = b
	}
	for id, b := range out {
		b.Outstanding = b.Credits.Sub(b.Repayments)
		out[id] = b
	}
	return out, nil
}
