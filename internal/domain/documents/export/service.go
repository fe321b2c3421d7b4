package export

import (
	"context"
	"fmt"

	"sealedger/internal/core/apperror"
	"sealedger/internal/core/numerator"
	"sealedger/internal/core/types"
	"sealedger/internal/domain"
	"sealedger/internal/domain/catalogs/seaweedtype"
	"sealedger/internal/domain/catalogs/site"
	"sealedger/internal/domain/documents/pressing"
	"sealedger/internal/domain/registers/pressed"
	"sealedger/pkg/logger"
)

// Service provides business operations for export documents. A document
// links its slips through their exportDocId and owns one EXPORT_OUT
// movement on the warehouse ledger.
type Service struct {
	deps         domain.Deps
	repo         *Repository
	numerator    numerator.Generator
	slips        *pressing.Repository
	pressed      *pressed.Service
	sites        *site.Repository
	seaweedTypes *seaweedtype.Repository
}

// NewService creates a new export document service.
func NewService(deps domain.Deps, numbers numerator.Generator, pr *pressed.Service) *Service {
	return &Service{
		deps:         deps,
		repo:         NewRepository(),
		numerator:    numbers,
		slips:        pressing.NewRepository(),
		pressed:      pr,
		sites:        site.NewRepository(),
		seaweedTypes: seaweedtype.NewRepository(),
	}
}

// Add records a shipment from sourceSiteID, links its slips and posts the
// slips' production as EXPORT_OUT.
func (s *Service) Add(ctx context.Context, doc Document, sourceSiteID string) (*Document, error) {
	doc.ID = s.deps.NewID()
	doc.CreatedAt = s.deps.Now()
	doc.SourceSiteID = sourceSiteID
	for i := range doc.Containers {
		if doc.Containers[i].ID == "" {
			doc.Containers[i].ID = s.deps.NewID()
		}
	}
	if err := doc.Validate(ctx); err != nil {
		return nil, err
	}

	err := s.deps.Tx.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.seaweedTypes.MustExist(ctx, doc.SeaweedTypeID); err != nil {
			return err
		}
		if sourceSiteID != "" && !s.pressed.IsWarehouse(sourceSiteID) {
			if err := s.sites.MustExist(ctx, sourceSiteID); err != nil {
				return err
			}
		}
		if doc.Number == "" {
			number, err := s.numerator.GetNextNumber(ctx, NumberConfig, doc.Date.Time())
			if err != nil {
				return fmt.Errorf("generate number: %w", err)
			}
			doc.Number = number
		}
		if err := s.repo.Insert(ctx, &doc); err != nil {
			return err
		}
		if err := s.link(ctx, &doc, doc.PressingSlipIDs); err != nil {
			return err
		}
		return s.post(ctx, &doc)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "export document added",
		"id", doc.ID,
		"number", doc.Number,
		"slips", len(doc.PressingSlipIDs))
	return &doc, nil
}

// link marks slips as shipped by doc. A slip shipped by another document is
// rejected.
func (s *Service) link(ctx context.Context, doc *Document, ids []string) error {
	slips, err := s.slips.GetMany(ctx, ids)
	if err != nil {
		return err
	}
	for _, slip := range slips {
		if slip.IsExported() && slip.ExportDocID != doc.ID {
			return apperror.NewAlreadyExported(slip.ID, slip.ExportDocID)
		}
		slip.ExportDocID = doc.ID
	}
	return s.slips.Put(ctx, slips...)
}

func (s *Service) unlink(ctx context.Context, doc *Document, ids []string) error {
	slips, err := s.slips.Find(ctx, func(slip *pressing.Slip) bool {
		return slip.ExportDocID == doc.ID && containsID(ids, slip.ID)
	})
	if err != nil {
		return err
	}
	for _, slip := range slips {
		slip.ExportDocID = ""
	}
	return s.slips.Put(ctx, slips...)
}

// post writes the EXPORT_OUT movement sized by the slips' production.
// Nothing is posted when the slips produced no bales.
func (s *Service) post(ctx context.Context, doc *Document) error {
	slips, err := s.slips.GetMany(ctx, doc.PressingSlipIDs)
	if err != nil {
		return err
	}
	var (
		bales int
		kg    types.Quantity
	)
	for _, slip := range slips {
		bales += slip.ProducedBalesCount
		kg += slip.ProducedWeightKg
	}
	if bales == 0 {
		return nil
	}
	m := s.pressed.Outbound(doc.Date, doc.SeaweedTypeID, pressed.ExportOut, kg, bales)
	m.Designation = fmt.Sprintf("Export Shipment %s", doc.Number)
	m.RelatedID = doc.ID
	_, err = s.pressed.Post(ctx, m)
	return err
}

// Update replaces a document: removed slips are released, added slips are
// linked and the EXPORT_OUT movement is replaced. Number and source are kept.
func (s *Service) Update(ctx context.Context, doc Document) (*Document, error) {
	if err := doc.Validate(ctx); err != nil {
		return nil, err
	}
	err := s.deps.Tx.RunInTransaction(ctx, func(ctx context.Context) error {
		stored, err := s.repo.Get(ctx, doc.ID)
		if err != nil {
			return err
		}
		if err := s.seaweedTypes.MustExist(ctx, doc.SeaweedTypeID); err != nil {
			return err
		}
		doc.Number = stored.Number
		doc.SourceSiteID = stored.SourceSiteID
		doc.CreatedAt = stored.CreatedAt
		for i := range doc.Containers {
			if doc.Containers[i].ID == "" {
				doc.Containers[i].ID = s.deps.NewID()
			}
		}

		var removed []string
		for _, id := range stored.PressingSlipIDs {
			if !doc.HasSlip(id) {
				removed = append(removed, id)
			}
		}
		if err := s.unlink(ctx, &doc, removed); err != nil {
			return err
		}
		if err := s.link(ctx, &doc, doc.PressingSlipIDs); err != nil {
			return err
		}
		if err := s.repo.Put(ctx, &doc); err != nil {
			return err
		}
		if _, err := s.pressed.RetractRelated(ctx, doc.ID, pressed.ExportOut); err != nil {
			return err
		}
		return s.post(ctx, &doc)
	})
	if err != nil {
		return nil, err
	}
	logger.Info(ctx, "export document updated", "id", doc.ID, "number", doc.Number)
	return &doc, nil
}

// Delete removes a document, releases its slips and retracts its movement.
func (s *Service) Delete(ctx context.Context, id string) error {
	err := s.deps.Tx.RunInTransaction(ctx, func(ctx context.Context) error {
		doc, err := s.repo.Get(ctx, id)
		if err != nil {
			return err
		}
		if err := s.unlink(ctx, doc, doc.PressingSlipIDs); err != nil {
			return err
		}
		if _, err := s.repo.Delete(ctx, id); err != nil {
			return err
		}
		_, err = s.pressed.RetractRelated(ctx, id, pressed.ExportOut)
		return err
	})
	if err != nil {
		return err
	}
	logger.Info(ctx, "export document deleted", "id", id)
	return nil
}

// Get returns a document.
func (s *Service) Get(ctx context.Context, id string) (*Document, error) {
	var out *Document
	err := s.deps.Tx.ReadOnly(ctx, func(ctx context.Context) error {
		var err error
		out, err = s.repo.Get(ctx, id)
		return err
	})
	return out, err
}

// List returns documents matching the filter in insertion order.
func (s *Service) List(ctx context.Context, f ListFilter) ([]*Document, error) {
	var out []*Document
	err := s.deps.Tx.ReadOnly(ctx, func(ctx context.Context) error {
		var err error
		out, err = s.repo.Find(ctx, f.Match)
		return err
	})
	return out, err
}

func containsID(ids []string, id string) bool {
	for _, x := range ids {
		if x == id {
			return true
		}
	}
	return false
}
