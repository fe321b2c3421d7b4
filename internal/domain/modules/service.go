package modules

import (
	"context"
	"fmt"

	"sealedger/internal/core/types"
	"sealedger/internal/domain"
	"sealedger/internal/domain/catalogs/farmer"
	"sealedger/internal/domain/catalogs/site"
	"sealedger/pkg/logger"
)

// Service is the module registry. Every assignment and cycle transition
// appends one history entry; stored history is never rewritten.
type Service struct {
	*domain.CatalogService[*Module]
	deps    domain.Deps
	repo    *Repository
	sites   *site.Repository
	farmers *farmer.Repository
}

// NewService creates the module registry.
func NewService(deps domain.Deps) *Service {
	repo := NewRepository()
	base := domain.NewCatalogService(domain.CatalogServiceConfig[*Module]{
		Deps:       deps,
		Repo:       repo,
		EntityName: "module",
	})
	svc := &Service{
		CatalogService: base,
		deps:           deps,
		repo:           repo,
		sites:          site.NewRepository(),
		farmers:        farmer.NewRepository(),
	}
	base.Hooks().OnBeforeUpdate(svc.prepareForUpdate)
	return svc
}

// Repo returns the module repository for services working in the same transaction.
func (s *Service) Repo() *Repository { return s.repo }

// CreateInput holds the fields of a new module.
type CreateInput struct {
	SiteID string `json:"siteId"`
	Code   string `json:"code"`
	Lines  int    `json:"lines"`
}

// Create registers a free module at a site.
func (s *Service) Create(ctx context.Context, in CreateInput) (*Module, error) {
	today := s.deps.Today()
	m := &Module{
		ID:     s.deps.NewID(),
		Code:   in.Code,
		SiteID: in.SiteID,
		Lines:  in.Lines,
	}
	m.StatusHistory = m.StatusHistory.
		Append(StatusCreated, today, "").
		Append(StatusFree, today, NoteReady)
	if err := m.Validate(ctx); err != nil {
		return nil, err
	}

	err := s.deps.Tx.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.sites.MustExist(ctx, m.SiteID); err != nil {
			return err
		}
		return s.repo.Insert(ctx, m)
	})
	if err != nil {
		return nil, err
	}
	logger.Info(ctx, "module created", "module_id", m.ID, "site_id", m.SiteID, "lines", m.Lines)
	return m, nil
}

// prepareForUpdate keeps the stored history and assignment: edits only touch
// code, lines and site.
func (s *Service) prepareForUpdate(ctx context.Context, m *Module) error {
	stored, err := s.repo.Get(ctx, m.ID)
	if err != nil {
		return err
	}
	if err := s.sites.MustExist(ctx, m.SiteID); err != nil {
		return err
	}
	m.StatusHistory = stored.StatusHistory
	m.FarmerID = stored.FarmerID
	return nil
}

// AssignToFarmer assigns modules to a farmer. An unknown farmer or module
// fails the whole command with NotFound; nothing is written.
func (s *Service) AssignToFarmer(ctx context.Context, moduleIDs []string, farmerID string) error {
	today := s.deps.Today()
	err := s.deps.Tx.RunInTransaction(ctx, func(ctx context.Context) error {
		f, err := s.farmers.Get(ctx, farmerID)
		if err != nil {
			return err
		}
		mods, err := s.repo.GetMany(ctx, moduleIDs)
		if err != nil {
			return err
		}
		note := fmt.Sprintf("Assigned to farmer %s %s", f.FirstName, f.LastName)
		for _, m := range mods {
			m.FarmerID = farmerID
			m.StatusHistory = m.StatusHistory.Append(StatusAssigned, today, note)
		}
		return s.repo.Put(ctx, mods...)
	})
	if err != nil {
		return err
	}
	logger.Info(ctx, "modules assigned", "count", len(moduleIDs), "farmer_id", farmerID)
	return nil
}

// ReassignSite moves modules to another site.
func (s *Service) ReassignSite(ctx context.Context, moduleIDs []string, siteID string) error {
	err := s.deps.Tx.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.sites.MustExist(ctx, siteID); err != nil {
			return err
		}
		mods, err := s.repo.GetMany(ctx, moduleIDs)
		if err != nil {
			return err
		}
		for _, m := range mods {
			m.SiteID = siteID
		}
		return s.repo.Put(ctx, mods...)
	})
	if err != nil {
		return err
	}
	logger.Info(ctx, "modules moved", "count", len(moduleIDs), "site_id", siteID)
	return nil
}

// AppendHistory appends one entry to a module's history and returns the
// updated module. Runs in the caller's transaction.
func (s *Service) AppendHistory(ctx context.Context, moduleID string, e HistoryEntry) (*Module, error) {
	var out *Module
	err := s.deps.Tx.RunInTransaction(ctx, func(ctx context.Context) error {
		m, err := s.repo.Get(ctx, moduleID)
		if err != nil {
			return err
		}
		m.StatusHistory = m.StatusHistory.Append(e.Status, e.Date, e.Notes)
		out = m
		return s.repo.Put(ctx, m)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Free clears the farmer assignment and appends a FREE entry.
// Runs in the caller's transaction.
func (s *Service) Free(ctx context.Context, moduleID string, date types.Date, note string) error {
	return s.deps.Tx.RunInTransaction(ctx, func(ctx context.Context) error {
		m, err := s.repo.Get(ctx, moduleID)
		if err != nil {
			return err
		}
		m.FarmerID = ""
		m.StatusHistory = m.StatusHistory.Append(StatusFree, date, note)
		return s.repo.Put(ctx, m)
	})
}

// ListBySite returns the modules of a site.
func (s *Service) ListBySite(ctx context.Context, siteID string) ([]*Module, error) {
	var out []*Module
	err := s.deps.Tx.ReadOnly(ctx, func(ctx context.Context) error {
		var err error
		out, err = s.repo.Find(ctx, func(m *Module) bool { return m.SiteID == siteID })
		return err
	})
	return out, err
}

// ListByFarmer returns the modules currently assigned to a farmer.
func (s *Service) ListByFarmer(ctx context.Context, farmerID string) ([]*Module, error) {
	var out []*Module
	err := s.deps.Tx.ReadOnly(ctx, func(ctx context.Context) error {
		var err error
		out, err = s.repo.Find(ctx, func(m *Module) bool { return m.FarmerID == farmerID })
		return err
	})
	return out, err
}

// CurrentStatus returns the module's current status.
func (s *Service) CurrentStatus(ctx context.Context, moduleID string) (Status, error) {
	m, err := s.Get(ctx, moduleID)
	if err != nil {
		return "", err
	}
	return m.CurrentStatus(), nil
}
