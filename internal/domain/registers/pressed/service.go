// Package pressed provides the pressed stock register of the central pressing
// warehouse: bulk material received from sites and pressed bales.
package pressed

import (
	"context"

	"sealedger/internal/core/entity"
	"sealedger/internal/core/types"
	"sealedger/internal/domain"
	"sealedger/internal/domain/catalogs/seaweedtype"
	"sealedger/internal/domain/registers"
	"sealedger/pkg/logger"
)

// Collection is the store collection holding warehouse movements.
const Collection = "pressedStockMovements"

// DefaultWarehouseID is the reserved site id of the pressing warehouse.
const DefaultWarehouseID = "pressing-warehouse"

// Warehouse movement types. Bag counts on this ledger are bales once pressed.
const (
	InitialStock        entity.MovementType = "INITIAL_STOCK"
	FarmerDelivery      entity.MovementType = "FARMER_DELIVERY"
	BulkInFromSite      entity.MovementType = "BULK_IN_FROM_SITE"
	PressingConsumption entity.MovementType = "PRESSING_CONSUMPTION"
	PressingIn          entity.MovementType = "PRESSING_IN"
	ExportOut           entity.MovementType = "EXPORT_OUT"
	ReturnToSite        entity.MovementType = "RETURN_TO_SITE"
	Adjustment          entity.MovementType = "ADJUSTMENT"
)

// Types lists every warehouse movement type.
var Types = []entity.MovementType{
	InitialStock, FarmerDelivery, BulkInFromSite, PressingConsumption,
	PressingIn, ExportOut, ReturnToSite, Adjustment,
}

// Service provides business operations for the pressed stock register.
type Service struct {
	*registers.Ledger
	deps         domain.Deps
	warehouseID  string
	seaweedTypes *seaweedtype.Repository
}

// NewService creates a new pressed stock register service.
// An empty warehouseID selects DefaultWarehouseID.
func NewService(deps domain.Deps, warehouseID string, rejectOverdraw bool) *Service {
	if warehouseID == "" {
		warehouseID = DefaultWarehouseID
	}
	return &Service{
		Ledger: registers.NewLedger(deps, registers.Config{
			Name:           "warehouse",
			Collection:     Collection,
			Types:          Types,
			RejectOverdraw: rejectOverdraw,
		}),
		deps:         deps,
		warehouseID:  warehouseID,
		seaweedTypes: seaweedtype.NewRepository(),
	}
}

// WarehouseID returns the site id used for every warehouse movement.
func (s *Service) WarehouseID() string { return s.warehouseID }

// IsWarehouse reports whether siteID designates the pressing warehouse.
func (s *Service) IsWarehouse(siteID string) bool { return siteID == s.warehouseID }

// Inbound builds a receipt at the warehouse.
func (s *Service) Inbound(date types.Date, seaweedTypeID string, typ entity.MovementType, kg types.Quantity, bales int) entity.Movement {
	return entity.Inbound(date, s.warehouseID, seaweedTypeID, typ, kg, bales)
}

// Outbound builds an issue from the warehouse.
func (s *Service) Outbound(date types.Date, seaweedTypeID string, typ entity.MovementType, kg types.Quantity, bales int) entity.Movement {
	return entity.Outbound(date, s.warehouseID, seaweedTypeID, typ, kg, bales)
}

// Balance returns the warehouse balance for a seaweed type.
func (s *Service) Balance(ctx context.Context, seaweedTypeID string) (entity.Balance, error) {
	return s.Ledger.Balance(ctx, s.warehouseID, seaweedTypeID)
}

// EntryInput is a manually recorded warehouse movement.
type EntryInput struct {
	Date          types.Date          `json:"date"`
	SeaweedTypeID string              `json:"seaweedTypeId"`
	Type          entity.MovementType `json:"type,omitempty"`
	Designation   string              `json:"designation"`
	InKg          types.Quantity      `json:"inKg"`
	InBales       int                 `json:"inBales"`
	OutKg         types.Quantity      `json:"outKg"`
	OutBales      int                 `json:"outBales"`
}

// AddInitialStock records opening pressed stock.
func (s *Service) AddInitialStock(ctx context.Context, in EntryInput) (*entity.Movement, error) {
	m := s.Inbound(in.Date, in.SeaweedTypeID, InitialStock, in.InKg, in.InBales)
	m.Designation = in.Designation
	return s.record(ctx, m)
}

// AddAdjustment records a correction. The type defaults to ADJUSTMENT and
// the movement is its own related record.
func (s *Service) AddAdjustment(ctx context.Context, in EntryInput) (*entity.Movement, error) {
	typ := in.Type
	if typ == "" {
		typ = Adjustment
	}
	m := entity.Movement{
		ID:            s.deps.NewID(),
		Date:          in.Date,
		SiteID:        s.warehouseID,
		SeaweedTypeID: in.SeaweedTypeID,
		Type:          typ,
		Designation:   in.Designation,
		InKg:          in.InKg,
		InBags:        in.InBales,
		OutKg:         in.OutKg,
		OutBags:       in.OutBales,
	}
	m.RelatedID = m.ID
	return s.record(ctx, m)
}

func (s *Service) record(ctx context.Context, m entity.Movement) (*entity.Movement, error) {
	if m.Date.IsZero() {
		m.Date = s.deps.Today()
	}
	var out *entity.Movement
	err := s.deps.Tx.RunInTransaction(ctx, func(ctx context.Context) error {
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
	logger.Info(ctx, "pressed stock recorded", "type", m.Type, "movement_id", out.ID)
	return out, nil
}
