// Package stock provides the site stock register: raw wet and dry material
// held at each farming site.
package stock

import (
	"context"

	"sealedger/internal/core/entity"
	"sealedger/internal/core/types"
	"sealedger/internal/domain"
	"sealedger/internal/domain/catalogs/seaweedtype"
	"sealedger/internal/domain/catalogs/site"
	"sealedger/internal/domain/registers"
	"sealedger/pkg/logger"
)

// Collection is the store collection holding site movements.
const Collection = "stockMovements"

// Site movement types.
const (
	InitialStock    entity.MovementType = "INITIAL_STOCK"
	FarmerDelivery  entity.MovementType = "FARMER_DELIVERY"
	BaggingTransfer entity.MovementType = "BAGGING_TRANSFER"
	ExportOut       entity.MovementType = "EXPORT_OUT"
	TransferOut     entity.MovementType = "SITE_TRANSFER_OUT"
	TransferIn      entity.MovementType = "SITE_TRANSFER_IN"
	PressingIn      entity.MovementType = "PRESSING_IN"
	Adjustment      entity.MovementType = "ADJUSTMENT"
)

// Types lists every site movement type.
var Types = []entity.MovementType{
	InitialStock, FarmerDelivery, BaggingTransfer, ExportOut,
	TransferOut, TransferIn, PressingIn, Adjustment,
}

// Service provides business operations for the site stock register.
// Workflows post through it inside their own transaction.
type Service struct {
	*registers.Ledger
	deps         domain.Deps
	sites        *site.Repository
	seaweedTypes *seaweedtype.Repository
}

// NewService creates a new site stock register service.
func NewService(deps domain.Deps, rejectOverdraw bool) *Service {
	return &Service{
		Ledger: registers.NewLedger(deps, registers.Config{
			Name:           "site",
			Collection:     Collection,
			Types:          Types,
			RejectOverdraw: rejectOverdraw,
		}),
		deps:         deps,
		sites:        site.NewRepository(),
		seaweedTypes: seaweedtype.NewRepository(),
	}
}

// EntryInput is a manually recorded movement (opening stock or correction).
type EntryInput struct {
	Date          types.Date     `json:"date"`
	SiteID        string         `json:"siteId"`
	SeaweedTypeID string         `json:"seaweedTypeId"`
	Designation   string         `json:"designation"`
	InKg          types.Quantity `json:"inKg"`
	InBags        int            `json:"inBags"`
	OutKg         types.Quantity `json:"outKg"`
	OutBags       int            `json:"outBags"`
}

func (in EntryInput) movement(typ entity.MovementType) entity.Movement {
	return entity.Movement{
		Date:          in.Date,
		SiteID:        in.SiteID,
		SeaweedTypeID: in.SeaweedTypeID,
		Type:          typ,
		Designation:   in.Designation,
		InKg:          in.InKg,
		InBags:        in.InBags,
		OutKg:         in.OutKg,
		OutBags:       in.OutBags,
	}
}

// AddInitialStock records opening stock at a site.
func (s *Service) AddInitialStock(ctx context.Context, in EntryInput) (*entity.Movement, error) {
	in.OutKg, in.OutBags = 0, 0
	return s.record(ctx, in.movement(InitialStock))
}

// AddAdjustment records a correction in either direction.
// The movement is its own related record.
func (s *Service) AddAdjustment(ctx context.Context, in EntryInput) (*entity.Movement, error) {
	m := in.movement(Adjustment)
	m.ID = s.deps.NewID()
	m.RelatedID = m.ID
	return s.record(ctx, m)
}

func (s *Service) record(ctx context.Context, m entity.Movement) (*entity.Movement, error) {
	if m.Date.IsZero() {
		m.Date = s.deps.Today()
	}
	var out *entity.Movement
	err := s.deps.Tx.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.sites.MustExist(ctx, m.SiteID); err != nil {
			return err
		}
		if err := s.seaweedTypes.MustExist(ctx, m.SeaweedTypeID); err != nil {
			return err
		}
		posted, err := s.Post(ctx, m)
		if err != nil {
			return err
		}
		out = posted[0]
		return nil
	})
	if err != nil {
		return nil, err
	}
	logger.Info(ctx, "site stock recorded", "type", m.Type, "site_id", m.SiteID, "movement_id", out.ID)
	return out, nil
}
