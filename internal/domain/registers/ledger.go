// Package registers provides the append-only movement ledger shared by the
// site stock and the pressed (warehouse) stock registers.
package registers

import (
	"context"
	"fmt"
	"sort"

	"sealedger/internal/core/apperror"
	"sealedger/internal/core/entity"
	"sealedger/internal/core/tx"
	"sealedger/internal/core/types"
	"sealedger/internal/domain"
	"sealedger/pkg/logger"
)

// MovementObserver is notified of every committed posting.
type MovementObserver interface {
	MovementsPosted(ledger string, typ entity.MovementType, count int)
}

// Config configures a Ledger.
type Config struct {
	// Name identifies the ledger in logs and metrics ("site", "warehouse")
	Name string

	// Collection is the store collection holding the movements
	Collection string

	// Types is the allowed movement type set
	Types []entity.MovementType

	// RejectOverdraw refuses outbound postings larger than the current balance
	RejectOverdraw bool
}

// Ledger is an append-only movement log. Balances are derived on every read.
type Ledger struct {
	cfg      Config
	deps     domain.Deps
	repo     *domain.Repository[*entity.Movement]
	allowed  map[entity.MovementType]struct{}
	observer MovementObserver
}

// NewLedger creates a ledger over cfg.Collection.
func NewLedger(deps domain.Deps, cfg Config) *Ledger {
	allowed := make(map[entity.MovementType]struct{}, len(cfg.Types))
	for _, t := range cfg.Types {
		allowed[t] = struct{}{}
	}
	return &Ledger{
		cfg:     cfg,
		deps:    deps,
		repo:    domain.NewRepository[*entity.Movement](cfg.Collection, cfg.Name+" movement"),
		allowed: allowed,
	}
}

// Name returns the ledger name.
func (l *Ledger) Name() string { return l.cfg.Name }

// SetObserver installs a metrics observer.
func (l *Ledger) SetObserver(o MovementObserver) { l.observer = o }

// Validate checks a movement before it is posted.
func (l *Ledger) Validate(m *entity.Movement) error {
	if _, ok := l.allowed[m.Type]; !ok {
		return apperror.NewFieldValidation("type", fmt.Sprintf("movement type %q is not allowed in the %s ledger", m.Type, l.cfg.Name))
	}
	if m.Date.IsZero() {
		return apperror.NewFieldValidation("date", "movement date is required")
	}
	if m.SiteID == "" {
		return apperror.NewFieldValidation("siteId", "movement site is required")
	}
	if m.SeaweedTypeID == "" {
		return apperror.NewFieldValidation("seaweedTypeId", "movement seaweed type is required")
	}
	if m.InKg < 0 || m.OutKg < 0 || m.InBags < 0 || m.OutBags < 0 {
		return apperror.NewValidation("movement quantities cannot be negative")
	}
	in := m.InKg > 0 || m.InBags > 0
	out := m.OutKg > 0 || m.OutBags > 0
	if in == out {
		return apperror.NewValidation("movement must have exactly one direction").
			WithDetail("type", string(m.Type))
	}
	return nil
}

// Post validates and appends movements. Ids and creation times are assigned here.
// Runs in the caller's transaction when there is one.
func (l *Ledger) Post(ctx context.Context, movements ...entity.Movement) ([]*entity.Movement, error) {
	if len(movements) == 0 {
		return nil, nil
	}
	posted := make([]*entity.Movement, 0, len(movements))
	for i := range movements {
		m := movements[i]
		if m.ID == "" {
			m.ID = l.deps.NewID()
		}
		if m.CreatedAt.IsZero() {
			m.CreatedAt = l.deps.Now()
		}
		if err := l.Validate(&m); err != nil {
			return nil, err
		}
		posted = append(posted, &m)
	}

	err := l.deps.Tx.RunInTransaction(ctx, func(ctx context.Context) error {
		if l.cfg.RejectOverdraw {
			if err := l.checkAvailable(ctx, posted); err != nil {
				return err
			}
		}
		return l.repo.Insert(ctx, posted...)
	})
	if err != nil {
		return nil, err
	}

	if l.observer != nil {
		tx.AfterCommit(ctx, func(context.Context) {
			for _, m := range posted {
				l.observer.MovementsPosted(l.cfg.Name, m.Type, 1)
			}
		})
	}
	logger.Debug(ctx, "ledger movements posted", "ledger", l.cfg.Name, "count", len(posted), "related_id", posted[0].RelatedID)
	return posted, nil
}

func (l *Ledger) checkAvailable(ctx context.Context, posted []*entity.Movement) error {
	need := make(map[balanceKey]types.Quantity)
	for _, m := range posted {
		if m.OutKg > 0 {
			need[balanceKey{m.SiteID, m.SeaweedTypeID}] += m.OutKg - m.InKg
		}
	}
	for key, kg := range need {
		bal, err := l.balance(ctx, key.siteID, key.seaweedTypeID)
		if err != nil {
			return err
		}
		if bal.Kg < kg {
			return apperror.NewInsufficientStock(key.siteID, key.seaweedTypeID, kg.Float64(), bal.Kg.Float64())
		}
	}
	return nil
}

// RetractRelated deletes the movements produced by relatedID. With types
// given only those movement types are removed. Movements of other records
// are never touched.
func (l *Ledger) RetractRelated(ctx context.Context, relatedID string, types ...entity.MovementType) (int, error) {
	if relatedID == "" {
		return 0, apperror.NewFieldValidation("relatedId", "related id is required")
	}
	typeSet := make(map[entity.MovementType]struct{}, len(types))
	for _, t := range types {
		typeSet[t] = struct{}{}
	}
	var n int
	err := l.deps.Tx.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		n, err = l.repo.DeleteWhere(ctx, func(m *entity.Movement) bool {
			if m.RelatedID != relatedID {
				return false
			}
			if len(typeSet) == 0 {
				return true
			}
			_, ok := typeSet[m.Type]
			return ok
		})
		return err
	})
	if err != nil {
		return 0, err
	}
	if n > 0 {
		logger.Debug(ctx, "ledger movements retracted", "ledger", l.cfg.Name, "count", n, "related_id", relatedID)
	}
	return n, nil
}

// MovementFilter selects movements. Zero fields match everything.
type MovementFilter struct {
	SiteID        string
	SeaweedTypeID string
	RelatedID     string
	Type          entity.MovementType
	From          types.Date
	To            types.Date
}

func (f MovementFilter) match(m *entity.Movement) bool {
	switch {
	case f.SiteID != "" && m.SiteID != f.SiteID:
		return false
	case f.SeaweedTypeID != "" && m.SeaweedTypeID != f.SeaweedTypeID:
		return false
	case f.RelatedID != "" && m.RelatedID != f.RelatedID:
		return false
	case f.Type != "" && m.Type != f.Type:
		return false
	}
	return m.Date.Within(f.From, f.To)
}

// Movements returns movements matching the filter in posting order.
func (l *Ledger) Movements(ctx context.Context, f MovementFilter) ([]*entity.Movement, error) {
	var out []*entity.Movement
	err := l.deps.Tx.ReadOnly(ctx, func(ctx context.Context) error {
		var err error
		out, err = l.repo.Find(ctx, f.match)
		return err
	})
	return out, err
}

type balanceKey struct {
	siteID        string
	seaweedTypeID string
}

// Balance returns Σin − Σout for one (site, seaweed type).
func (l *Ledger) Balance(ctx context.Context, siteID, seaweedTypeID string) (entity.Balance, error) {
	var out entity.Balance
	err := l.deps.Tx.ReadOnly(ctx, func(ctx context.Context) error {
		var err error
		out, err = l.balance(ctx, siteID, seaweedTypeID)
		return err
	})
	return out, err
}

func (l *Ledger) balance(ctx context.Context, siteID, seaweedTypeID string) (entity.Balance, error) {
	b := entity.Balance{SiteID: siteID, SeaweedTypeID: seaweedTypeID}
	movements, err := l.repo.Find(ctx, func(m *entity.Movement) bool {
		return m.SiteID == siteID && m.SeaweedTypeID == seaweedTypeID
	})
	if err != nil {
		return b, err
	}
	for _, m := range movements {
		b.Apply(m)
	}
	return b, nil
}

// BalanceFilter selects balances.
type BalanceFilter struct {
	SiteID        string
	SeaweedTypeID string
	// AsOf limits the movements to those dated on or before it
	AsOf        types.Date
	ExcludeZero bool
}

// Balances returns one balance per (site, seaweed type) pair seen in the ledger,
// sorted by site then seaweed type.
func (l *Ledger) Balances(ctx context.Context, f BalanceFilter) ([]entity.Balance, error) {
	var movements []*entity.Movement
	err := l.deps.Tx.ReadOnly(ctx, func(ctx context.Context) error {
		var err error
		movements, err = l.repo.Find(ctx, MovementFilter{
			SiteID:        f.SiteID,
			SeaweedTypeID: f.SeaweedTypeID,
			To:            f.AsOf,
		}.match)
		return err
	})
	if err != nil {
		return nil, err
	}

	byKey := make(map[balanceKey]*entity.Balance)
	for _, m := range movements {
		key := balanceKey{m.SiteID, m.SeaweedTypeID}
		b, ok := byKey[key]
		if !ok {
			b = &entity.Balance{SiteID: m.SiteID, SeaweedTypeID: m.SeaweedTypeID}
			byKey[key] = b
		}
		b.Apply(m)
	}

	out := make([]entity.Balance, 0, len(byKey))
	for _, b := range byKey {
		if f.ExcludeZero && b.Kg == 0 && b.Bags == 0 {
			continue
		}
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].SiteID != out[j].SiteID {
			return out[i].SiteID < out[j].SiteID
		}
		return out[i].SeaweedTypeID < out[j].SeaweedTypeID
	})
	return out, nil
}
