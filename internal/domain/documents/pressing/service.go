package pressing

import (
	"context"
	"fmt"

	"sealedger/internal/core/apperror"
	"sealedger/internal/core/entity"
	"sealedger/internal/core/numerator"
	"sealedger/internal/domain"
	"sealedger/internal/domain/catalogs/seaweedtype"
	"sealedger/internal/domain/catalogs/site"
	"sealedger/internal/domain/registers/pressed"
	"sealedger/internal/domain/registers/stock"
	"sealedger/pkg/logger"
)

// Service provides business operations for pressing slips. A slip owns
// exactly two warehouse movements: its consumption and its production.
type Service struct {
	deps         domain.Deps
	repo         *Repository
	numerator    numerator.Generator
	stock        *stock.Service
	pressed      *pressed.Service
	sites        *site.Repository
	seaweedTypes *seaweedtype.Repository
}

// NewService creates a new pressing slip service.
func NewService(deps domain.Deps, numbers numerator.Generator, st *stock.Service, pr *pressed.Service) *Service {
	return &Service{
		deps:         deps,
		repo:         NewRepository(),
		numerator:    numbers,
		stock:        st,
		pressed:      pr,
		sites:        site.NewRepository(),
		seaweedTypes: seaweedtype.NewRepository(),
	}
}

// Repo returns the slip repository for services working in the same transaction.
func (s *Service) Repo() *Repository { return s.repo }

// Add records a slip and posts its consumption and production.
func (s *Service) Add(ctx context.Context, slip Slip) (*Slip, error) {
	slip.ID = s.deps.NewID()
	slip.CreatedAt = s.deps.Now()
	slip.ExportDocID = ""
	if err := slip.Validate(ctx); err != nil {
		return nil, err
	}

	err := s.deps.Tx.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.seaweedTypes.MustExist(ctx, slip.SeaweedTypeID); err != nil {
			return err
		}
		if slip.Number == "" {
			number, err := s.numerator.GetNextNumber(ctx, NumberConfig, slip.Date.Time())
			if err != nil {
				return fmt.Errorf("generate number: %w", err)
			}
			slip.Number = number
		}
		if err := s.repo.Insert(ctx, &slip); err != nil {
			return err
		}
		return s.post(ctx, &slip)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "pressing slip added",
		"id", slip.ID,
		"number", slip.Number)
	return &slip, nil
}

func (s *Service) post(ctx context.Context, slip *Slip) error {
	consumed := s.pressed.Outbound(slip.Date, slip.SeaweedTypeID, pressed.PressingConsumption, slip.ConsumedWeightKg, slip.ConsumedBags)
	consumed.Designation = fmt.Sprintf("Consumed for Pressing Slip %s", slip.Number)
	consumed.RelatedID = slip.ID

	produced := s.pressed.Inbound(slip.Date, slip.SeaweedTypeID, pressed.PressingIn, slip.ProducedWeightKg, slip.ProducedBalesCount)
	produced.Designation = fmt.Sprintf("Produced from Pressing Slip %s", slip.Number)
	produced.RelatedID = slip.ID

	_, err := s.pressed.Post(ctx, consumed, produced)
	return err
}

// Update replaces a slip and reposts both movements from its new data.
// The number and export link are kept.
func (s *Service) Update(ctx context.Context, slip Slip) (*Slip, error) {
	if err := slip.Validate(ctx); err != nil {
		return nil, err
	}
	err := s.deps.Tx.RunInTransaction(ctx, func(ctx context.Context) error {
		stored, err := s.repo.Get(ctx, slip.ID)
		if err != nil {
			return err
		}
		if err := s.seaweedTypes.MustExist(ctx, slip.SeaweedTypeID); err != nil {
			return err
		}
		slip.Number = stored.Number
		slip.ExportDocID = stored.ExportDocID
		slip.CreatedAt = stored.CreatedAt
		if err := s.repo.Put(ctx, &slip); err != nil {
			return err
		}
		if _, err := s.pressed.RetractRelated(ctx, slip.ID, pressed.PressingConsumption, pressed.PressingIn); err != nil {
			return err
		}
		return s.post(ctx, &slip)
	})
	if err != nil {
		return nil, err
	}
	logger.Info(ctx, "pressing slip updated", "id", slip.ID, "number", slip.Number)
	return &slip, nil
}

// Delete removes a slip and every movement it produced, returns included.
// An exported slip must first be removed from its export document.
func (s *Service) Delete(ctx context.Context, id string) error {
	err := s.deps.Tx.RunInTransaction(ctx, func(ctx context.Context) error {
		slip, err := s.repo.Get(ctx, id)
		if err != nil {
			return err
		}
		if slip.IsExported() {
			return apperror.NewAlreadyExported(slip.ID, slip.ExportDocID)
		}
		if _, err := s.repo.Delete(ctx, id); err != nil {
			return err
		}
		if _, err := s.pressed.RetractRelated(ctx, id); err != nil {
			return err
		}
		_, err = s.stock.RetractRelated(ctx, id, stock.PressingIn)
		return err
	})
	if err != nil {
		return err
	}
	logger.Info(ctx, "pressing slip deleted", "id", id)
	return nil
}

// RecordReturnToSite sends warehouse material back to a site: PRESSING_IN
// on the site ledger and RETURN_TO_SITE on the warehouse ledger, both tied
// to the slip.
func (s *Service) RecordReturnToSite(ctx context.Context, in ReturnInput) ([]*entity.Movement, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	in.Date = in.Date.Or(s.deps.Today())

	var out []*entity.Movement
	err := s.deps.Tx.RunInTransaction(ctx, func(ctx context.Context) error {
		slip, err := s.repo.Get(ctx, in.PressingSlipID)
		if err != nil {
			return err
		}
		st, err := s.sites.Get(ctx, in.SiteID)
		if err != nil {
			return err
		}
		typeID := in.SeaweedTypeID
		if typeID == "" {
			typeID = slip.SeaweedTypeID
		}

		siteIn := entity.Inbound(in.Date, st.ID, typeID, stock.PressingIn, in.Kg, in.Bags)
		siteIn.Designation = in.Designation
		if siteIn.Designation == "" {
			siteIn.Designation = fmt.Sprintf("Return from Pressing Slip %s", slip.Number)
		}
		siteIn.RelatedID = slip.ID

		whOut := s.pressed.Outbound(in.Date, typeID, pressed.ReturnToSite, in.Kg, in.Bags)
		whOut.Designation = fmt.Sprintf("Return to site: %s", st.Name)
		whOut.RelatedID = slip.ID

		a, err := s.stock.Post(ctx, siteIn)
		if err != nil {
			return err
		}
		b, err := s.pressed.Post(ctx, whOut)
		if err != nil {
			return err
		}
		out = append(a, b...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	logger.Info(ctx, "return to site recorded", "slip_id", in.PressingSlipID, "site_id", in.SiteID)
	return out, nil
}

// Get returns a slip.
func (s *Service) Get(ctx context.Context, id string) (*Slip, error) {
	var out *Slip
	err := s.deps.Tx.ReadOnly(ctx, func(ctx context.Context) error {
		var err error
		out, err = s.repo.Get(ctx, id)
		return err
	})
	return out, err
}

// List returns slips matching the filter in insertion order.
func (s *Service) List(ctx context.Context, f ListFilter) ([]*Slip, error) {
	var out []*Slip
	err := s.deps.Tx.ReadOnly(ctx, func(ctx context.Context) error {
		var err error
		out, err = s.repo.Find(ctx, f.Match)
		return err
	})
	return out, err
}
