package delivery

import (
	"context"
	"fmt"

	"sealedger/internal/core/apperror"
	"sealedger/internal/core/entity"
	"sealedger/internal/core/numerator"
	"sealedger/internal/domain"
	"sealedger/internal/domain/catalogs/farmer"
	"sealedger/internal/domain/catalogs/seaweedtype"
	"sealedger/internal/domain/catalogs/site"
	"sealedger/internal/domain/registers/pressed"
	"sealedger/internal/domain/registers/stock"
	"sealedger/pkg/logger"
)

// Service provides business operations for farmer deliveries.
type Service struct {
	deps         domain.Deps
	repo         *Repository
	numerator    numerator.Generator
	stock        *stock.Service
	pressed      *pressed.Service
	farmers      *farmer.Repository
	sites        *site.Repository
	seaweedTypes *seaweedtype.Repository
}

// NewService creates a new delivery service.
func NewService(deps domain.Deps, numbers numerator.Generator, st *stock.Service, pr *pressed.Service) *Service {
	return &Service{
		deps:         deps,
		repo:         NewRepository(),
		numerator:    numbers,
		stock:        st,
		pressed:      pr,
		farmers:      farmer.NewRepository(),
		sites:        site.NewRepository(),
		seaweedTypes: seaweedtype.NewRepository(),
	}
}

// Add records a delivery and posts FARMER_DELIVERY to the site stock, or to
// the warehouse for bulk deliveries.
func (s *Service) Add(ctx context.Context, d Delivery) (*Delivery, error) {
	d.ID = s.deps.NewID()
	d.CreatedAt = s.deps.Now()
	d.PaymentRunID = ""
	if d.Destination == "" {
		d.Destination = ToSite
	}
	if err := d.Validate(ctx); err != nil {
		return nil, err
	}

	err := s.deps.Tx.RunInTransaction(ctx, func(ctx context.Context) error {
		f, err := s.farmers.Get(ctx, d.FarmerID)
		if err != nil {
			return err
		}
		if err := s.sites.MustExist(ctx, d.SiteID); err != nil {
			return err
		}
		if err := s.seaweedTypes.MustExist(ctx, d.SeaweedTypeID); err != nil {
			return err
		}
		if d.Number == "" {
			d.Number, err = s.numerator.GetNextNumber(ctx, NumberConfig, d.Date.Time())
			if err != nil {
				return fmt.Errorf("generate number: %w", err)
			}
		}
		if err := s.repo.Insert(ctx, &d); err != nil {
			return err
		}

		var m entity.Movement
		if d.Destination == ToWarehouse {
			m = s.pressed.Inbound(d.Date, d.SeaweedTypeID, pressed.FarmerDelivery, d.TotalWeightKg, d.TotalBags)
		} else {
			m = entity.Inbound(d.Date, d.SiteID, d.SeaweedTypeID, stock.FarmerDelivery, d.TotalWeightKg, d.TotalBags)
		}
		m.Designation = fmt.Sprintf("Delivery from %s %s (%s)", f.FirstName, f.LastName, d.Number)
		m.RelatedID = d.ID
		if d.Destination == ToWarehouse {
			_, err = s.pressed.Post(ctx, m)
		} else {
			_, err = s.stock.Post(ctx, m)
		}
		return err
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "farmer delivery added",
		"id", d.ID,
		"number", d.Number,
		"destination", string(d.Destination))
	return &d, nil
}

// Delete removes a delivery and its FARMER_DELIVERY movement. A paid
// delivery cannot be deleted.
func (s *Service) Delete(ctx context.Context, id string) error {
	err := s.deps.Tx.RunInTransaction(ctx, func(ctx context.Context) error {
		d, err := s.repo.Get(ctx, id)
		if err != nil {
			return err
		}
		if d.IsPaid() {
			return apperror.NewBusinessRule(apperror.CodeBusinessRule, "paid delivery cannot be deleted").
				WithDetail("payment_run_id", d.PaymentRunID)
		}
		if _, err := s.repo.Delete(ctx, id); err != nil {
			return err
		}
		if _, err := s.stock.RetractRelated(ctx, id, stock.FarmerDelivery); err != nil {
			return err
		}
		_, err = s.pressed.RetractRelated(ctx, id, pressed.FarmerDelivery)
		return err
	})
	if err != nil {
		return err
	}
	logger.Info(ctx, "farmer delivery deleted", "id", id)
	return nil
}

// MarkPaid stamps deliveries with a payment run id. Deliveries already paid
// keep their original run id.
func (s *Service) MarkPaid(ctx context.Context, ids []string, runID string) (int, error) {
	if runID == "" {
		return 0, apperror.NewFieldValidation("paymentRunId", "payment run id is required")
	}
	var marked int
	err := s.deps.Tx.RunInTransaction(ctx, func(ctx context.Context) error {
		items, err := s.repo.GetMany(ctx, ids)
		if err != nil {
			return err
		}
		for _, d := range items {
			if d.IsPaid() {
				continue
			}
			d.PaymentRunID = runID
			if err := s.repo.Put(ctx, d); err != nil {
				return err
			}
			marked++
		}
		return nil
	})
	return marked, err
}

// Get returns a delivery.
func (s *Service) Get(ctx context.Context, id string) (*Delivery, error) {
	var out *Delivery
	err := s.deps.Tx.ReadOnly(ctx, func(ctx context.Context) error {
		var err error
		out, err = s.repo.Get(ctx, id)
		return err
	})
	return out, err
}

// List returns deliveries matching the filter in insertion order.
// Runs in the caller's transaction when there is one.
func (s *Service) List(ctx context.Context, f ListFilter) ([]*Delivery, error) {
	var out []*Delivery
	err := s.deps.Tx.ReadOnly(ctx, func(ctx context.Context) error {
		var err error
		out, err = s.repo.Find(ctx, f.Match)
		return err
	})
	return out, err
}
