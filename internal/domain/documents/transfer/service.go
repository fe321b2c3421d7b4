package transfer

import (
	"context"
	"fmt"

	"sealedger/internal/core/apperror"
	"sealedger/internal/core/entity"
	"sealedger/internal/core/types"
	"sealedger/internal/domain"
	"sealedger/internal/domain/catalogs/seaweedtype"
	"sealedger/internal/domain/catalogs/site"
	"sealedger/internal/domain/registers/pressed"
	"sealedger/internal/domain/registers/stock"
	"sealedger/pkg/logger"
)

const warehouseName = "Pressing Warehouse"

// Service runs the transfer state machine:
//
//	AWAITING_OUTBOUND -> IN_TRANSIT -> COMPLETED
//	AWAITING_OUTBOUND | IN_TRANSIT -> CANCELLED
//
// Every status change appends one history entry dated today.
type Service struct {
	deps         domain.Deps
	repo         *Repository
	stock        *stock.Service
	pressed      *pressed.Service
	sites        *site.Repository
	seaweedTypes *seaweedtype.Repository
}

// NewService creates a new transfer service.
func NewService(deps domain.Deps, st *stock.Service, pr *pressed.Service) *Service {
	return &Service{
		deps:         deps,
		repo:         NewRepository(),
		stock:        st,
		pressed:      pr,
		sites:        site.NewRepository(),
		seaweedTypes: seaweedtype.NewRepository(),
	}
}

// Add opens a transfer in AWAITING_OUTBOUND and posts SITE_TRANSFER_OUT at
// the source for the declared quantities.
func (s *Service) Add(ctx context.Context, t Transfer) (*Transfer, error) {
	t.ID = s.deps.NewID()
	t.CreatedAt = s.deps.Now()
	t.Status = StatusAwaitingOutbound
	t.History = entity.History[Status]{}.Append(StatusAwaitingOutbound, s.deps.Today(), "Transfer initiated.")
	t.ReceivedWeightKg, t.ReceivedBags, t.CompletionDate = 0, 0, types.Date{}
	if err := t.Validate(ctx); err != nil {
		return nil, err
	}

	err := s.deps.Tx.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.sites.MustExist(ctx, t.SourceSiteID); err != nil {
			return err
		}
		if err := s.seaweedTypes.MustExist(ctx, t.SeaweedTypeID); err != nil {
			return err
		}
		dest, err := s.siteName(ctx, t.DestinationSiteID)
		if err != nil {
			return err
		}
		if err := s.repo.Insert(ctx, &t); err != nil {
			return err
		}
		m := entity.Outbound(t.Date, t.SourceSiteID, t.SeaweedTypeID, stock.TransferOut, t.WeightKg, t.Bags)
		m.Designation = fmt.Sprintf("Transfer to %s (%s)", dest, t.ID)
		m.RelatedID = t.ID
		_, err = s.stock.Post(ctx, m)
		return err
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "site transfer added",
		"id", t.ID,
		"source", t.SourceSiteID,
		"destination", t.DestinationSiteID)
	return &t, nil
}

// MarkInTransit moves an awaiting transfer to IN_TRANSIT.
func (s *Service) MarkInTransit(ctx context.Context, id string) (*Transfer, error) {
	return s.transition(ctx, id, StatusInTransit, func(ctx context.Context, t *Transfer) (string, error) {
		if t.Status != StatusAwaitingOutbound {
			return "", apperror.NewInvalidTransition("site transfer", t.Status, StatusInTransit)
		}
		return "Marked as in transit.", nil
	})
}

// CompleteInput carries the receiving side of a transfer.
type CompleteInput struct {
	ReceivedWeightKg types.Quantity
	ReceivedBags     int
	// CompletionDate defaults to today
	CompletionDate types.Date
}

// Complete records receipt of an in-transit transfer and credits the
// destination: the warehouse gets BULK_IN_FROM_SITE, a site gets
// SITE_TRANSFER_IN.
func (s *Service) Complete(ctx context.Context, id string, in CompleteInput) (*Transfer, error) {
	if in.ReceivedWeightKg.IsNegative() || in.ReceivedBags < 0 {
		return nil, apperror.NewFieldValidation("receivedWeightKg", "received quantities cannot be negative")
	}
	return s.transition(ctx, id, StatusCompleted, func(ctx context.Context, t *Transfer) (string, error) {
		if t.Status != StatusInTransit {
			return "", apperror.NewInvalidTransition("site transfer", t.Status, StatusCompleted)
		}
		t.ReceivedWeightKg, t.ReceivedBags = in.ReceivedWeightKg, in.ReceivedBags
		t.CompletionDate = in.CompletionDate.Or(s.deps.Today())
		kg, bags := t.Received()

		if err := s.postReceipt(ctx, t, kg, bags); err != nil {
			return "", err
		}
		return fmt.Sprintf("Completed. Received %skg in %d bags.", kg.Decimal(), bags), nil
	})
}

func (s *Service) postReceipt(ctx context.Context, t *Transfer, kg types.Quantity, bags int) error {
	if kg.IsZero() && bags == 0 {
		return nil
	}
	source, err := s.siteName(ctx, t.SourceSiteID)
	if err != nil {
		return err
	}
	designation := fmt.Sprintf("Transfer from %s (%s)", source, t.ID)

	if s.pressed.IsWarehouse(t.DestinationSiteID) {
		m := s.pressed.Inbound(t.CompletionDate, t.SeaweedTypeID, pressed.BulkInFromSite, kg, bags)
		m.Designation = designation
		m.RelatedID = t.ID
		_, err = s.pressed.Post(ctx, m)
		return err
	}
	m := entity.Inbound(t.CompletionDate, t.DestinationSiteID, t.SeaweedTypeID, stock.TransferIn, kg, bags)
	m.Designation = designation
	m.RelatedID = t.ID
	_, err = s.stock.Post(ctx, m)
	return err
}

// Cancel abandons a transfer that has not completed and returns the
// declared quantities to the source.
func (s *Service) Cancel(ctx context.Context, id, reason string) (*Transfer, error) {
	return s.transition(ctx, id, StatusCancelled, func(ctx context.Context, t *Transfer) (string, error) {
		if t.Status != StatusAwaitingOutbound && t.Status != StatusInTransit {
			return "", apperror.NewInvalidTransition("site transfer", t.Status, StatusCancelled)
		}
		if reason != "" {
			t.Notes = reason
		}
		m := entity.Inbound(s.deps.Today(), t.SourceSiteID, t.SeaweedTypeID, stock.TransferIn, t.WeightKg, t.Bags)
		m.Designation = fmt.Sprintf("Cancelled Transfer %s: %s", t.ID, t.Notes)
		m.RelatedID = t.ID
		if _, err := s.stock.Post(ctx, m); err != nil {
			return "", err
		}
		return fmt.Sprintf("Cancelled. Reason: %s", t.Notes), nil
	})
}

// transition loads the transfer, applies fn and appends the returned note
// under the new status. A transfer already in a terminal status equal to
// the target is returned unchanged.
func (s *Service) transition(
	ctx context.Context,
	id string,
	to Status,
	fn func(ctx context.Context, t *Transfer) (string, error),
) (*Transfer, error) {
	var out *Transfer
	changed := false
	err := s.deps.Tx.RunInTransaction(ctx, func(ctx context.Context) error {
		t, err := s.repo.Get(ctx, id)
		if err != nil {
			return err
		}
		out = t
		if t.Status == to && to.Terminal() {
			return nil
		}
		note, err := fn(ctx, t)
		if err != nil {
			return err
		}
		t.Status = to
		t.History = t.History.Append(to, s.deps.Today(), note)
		changed = true
		return s.repo.Put(ctx, t)
	})
	if err != nil {
		return nil, err
	}
	if changed {
		logger.Info(ctx, "site transfer status changed", "id", id, "status", string(to))
	}
	return out, nil
}

// Update saves editable fields and dispatches a status change to the
// matching transition. Quantities and sites are fixed once posted.
func (s *Service) Update(ctx context.Context, t Transfer) (*Transfer, error) {
	var current *Transfer
	err := s.deps.Tx.RunInTransaction(ctx, func(ctx context.Context) error {
		stored, err := s.repo.Get(ctx, t.ID)
		if err != nil {
			return err
		}
		if t.Notes != "" && t.Notes != stored.Notes {
			stored.Notes = t.Notes
			if err := s.repo.Put(ctx, stored); err != nil {
				return err
			}
		}

		switch {
		case t.Status == "" || t.Status == stored.Status:
			current = stored
			return nil
		case t.Status == StatusInTransit:
			current, err = s.MarkInTransit(ctx, t.ID)
		case t.Status == StatusCompleted:
			current, err = s.Complete(ctx, t.ID, CompleteInput{
				ReceivedWeightKg: t.ReceivedWeightKg,
				ReceivedBags:     t.ReceivedBags,
				CompletionDate:   t.CompletionDate,
			})
		case t.Status == StatusCancelled:
			current, err = s.Cancel(ctx, t.ID, t.Notes)
		default:
			err = apperror.NewInvalidTransition("site transfer", stored.Status, t.Status)
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return current, nil
}

// Get returns a transfer.
func (s *Service) Get(ctx context.Context, id string) (*Transfer, error) {
	var out *Transfer
	err := s.deps.Tx.ReadOnly(ctx, func(ctx context.Context) error {
		var err error
		out, err = s.repo.Get(ctx, id)
		return err
	})
	return out, err
}

// List returns transfers matching the filter in insertion order.
func (s *Service) List(ctx context.Context, f ListFilter) ([]*Transfer, error) {
	var out []*Transfer
	err := s.deps.Tx.ReadOnly(ctx, func(ctx context.Context) error {
		var err error
		out, err = s.repo.Find(ctx, f.Match)
		return err
	})
	return out, err
}

func (s *Service) siteName(ctx context.Context, id string) (string, error) {
	if s.pressed.IsWarehouse(id) {
		return warehouseName, nil
	}
	st, err := s.sites.Get(ctx, id)
	if err != nil {
		return "", err
	}
	return st.Name, nil
}
