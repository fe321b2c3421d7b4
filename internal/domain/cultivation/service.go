package cultivation

import (
	"context"
	"fmt"

	"sealedger/internal/core/apperror"
	"sealedger/internal/core/entity"
	"sealedger/internal/core/types"
	"sealedger/internal/domain"
	"sealedger/internal/domain/catalogs/farmer"
	"sealedger/internal/domain/catalogs/seaweedtype"
	"sealedger/internal/domain/cutting"
	"sealedger/internal/domain/modules"
	"sealedger/internal/domain/registers/stock"
	"sealedger/pkg/logger"
)

// Collection is the store collection holding cultivation cycles.
const Collection = "cultivationCycles"

// BagKg is the nominal bag size used to count bags of exported material.
const BagKg = 50

// DeletionPolicy decides what happens to a deleted cycle's stock movements.
type DeletionPolicy string

const (
	// Retain keeps the movements; deletion is administrative only.
	Retain DeletionPolicy = "retain"
	// Retract removes the movements posted for the cycle.
	Retract DeletionPolicy = "retract"
)

// Service is the cultivation cycle state machine. Every transition writes
// the cycle, its module history and its stock movements in one transaction.
type Service struct {
	deps         domain.Deps
	repo         *domain.Repository[*Cycle]
	modules      *modules.Service
	cuttings     *cutting.Service
	stock        *stock.Service
	farmers      *farmer.Repository
	seaweedTypes *seaweedtype.Repository
	policy       DeletionPolicy
}

// NewService creates the cultivation service.
func NewService(deps domain.Deps, mods *modules.Service, cuttings *cutting.Service, st *stock.Service, policy DeletionPolicy) *Service {
	if policy == "" {
		policy = Retain
	}
	return &Service{
		deps:         deps,
		repo:         domain.NewRepository[*Cycle](Collection, "cultivation cycle"),
		modules:      mods,
		cuttings:     cuttings,
		stock:        st,
		farmers:      farmer.NewRepository(),
		seaweedTypes: seaweedtype.NewRepository(),
		policy:       policy,
	}
}

// AttachCascades removes a deleted module's cycles in the deleting transaction.
func (s *Service) AttachCascades(mods *modules.Service) {
	mods.Hooks().OnBeforeDelete(func(ctx context.Context, m *modules.Module) error {
		cycles, err := s.repo.Find(ctx, func(c *Cycle) bool { return c.ModuleID == m.ID })
		if err != nil {
			return err
		}
		for _, c := range cycles {
			if err := s.remove(ctx, c); err != nil {
				return err
			}
		}
		return nil
	})
}

// PlantInput describes a new cycle.
type PlantInput struct {
	ModuleID           string         `json:"moduleId"`
	SeaweedTypeID      string         `json:"seaweedTypeId"`
	PlantingDate       types.Date     `json:"plantingDate"`
	LinesPlanted       int            `json:"linesPlanted"`
	InitialWeightKg    types.Quantity `json:"initialWeightKg"`
	CuttingOperationID string         `json:"cuttingOperationId"`
	Notes              string         `json:"notes"`
}

// Plant starts a cycle on a module for a farmer. The module is assigned to
// the farmer and its history records the cutting (when the planted material
// is traced to one), the assignment and the planting.
func (s *Service) Plant(ctx context.Context, in PlantInput, farmerID string) (*Cycle, error) {
	c := &Cycle{
		ID:                 s.deps.NewID(),
		ModuleID:           in.ModuleID,
		SeaweedTypeID:      in.SeaweedTypeID,
		FarmerID:           farmerID,
		CuttingOperationID: in.CuttingOperationID,
		Status:             StatusPlanted,
		PlantingDate:       in.PlantingDate,
		LinesPlanted:       in.LinesPlanted,
		InitialWeightKg:    in.InitialWeightKg,
		ProcessingNotes:    in.Notes,
		CreatedAt:          s.deps.Now(),
	}
	if farmerID == "" {
		return nil, apperror.NewFieldValidation("farmerId", "farmer is required")
	}
	if err := c.Validate(ctx); err != nil {
		return nil, err
	}

	err := s.deps.Tx.RunInTransaction(ctx, func(ctx context.Context) error {
		m, err := s.modules.Repo().Get(ctx, c.ModuleID)
		if err != nil {
			return err
		}
		f, err := s.farmers.Get(ctx, farmerID)
		if err != nil {
			return err
		}
		if err := s.seaweedTypes.MustExist(ctx, c.SeaweedTypeID); err != nil {
			return err
		}
		active, err := s.repo.Find(ctx, func(o *Cycle) bool { return o.ModuleID == m.ID && o.Status.Active() })
		if err != nil {
			return err
		}
		if len(active) > 0 {
			return apperror.NewBusinessRule(apperror.CodeBusinessRule, "module already has an active cycle").
				WithDetail("module_id", m.ID).
				WithDetail("cycle_id", active[0].ID)
		}

		op, err := s.provenance(ctx, c)
		if err != nil {
			return err
		}
		if c.LinesPlanted == 0 {
			c.LinesPlanted = m.Lines
		}
		if err := s.repo.Insert(ctx, c); err != nil {
			return err
		}

		if op != nil {
			m.StatusHistory = m.StatusHistory.Append(modules.StatusCutting, op.Date, "")
		}
		m.StatusHistory = m.StatusHistory.
			Append(modules.StatusAssigned, c.PlantingDate, fmt.Sprintf("Assigned to farmer %s %s", f.FirstName, f.LastName)).
			Append(modules.StatusPlanted, c.PlantingDate, "")
		m.FarmerID = farmerID
		return s.modules.Repo().Put(ctx, m)
	})
	if err != nil {
		return nil, err
	}
	logger.Info(ctx, "cycle planted", "cycle_id", c.ID, "module_id", c.ModuleID, "farmer_id", farmerID,
		"cutting_operation_id", c.CuttingOperationID)
	return c, nil
}

// provenance resolves the cutting operation the planted material came from:
// the explicit one, else the latest on the module dated on or before planting.
func (s *Service) provenance(ctx context.Context, c *Cycle) (*cutting.Operation, error) {
	if c.CuttingOperationID != "" {
		return s.cuttings.Get(ctx, c.CuttingOperationID)
	}
	op, err := s.cuttings.LatestForModule(ctx, c.ModuleID, c.PlantingDate)
	if err != nil || op == nil {
		return nil, err
	}
	c.CuttingOperationID = op.ID
	return op, nil
}

// PlantFromCuttings records a cutting operation whose credits are charged to
// the beneficiary and plants a cycle traced to it, atomically.
func (s *Service) PlantFromCuttings(ctx context.Context, op cutting.Operation, in PlantInput, beneficiaryID string) (*cutting.Operation, *Cycle, error) {
	var (
		added *cutting.Operation
		cycle *Cycle
	)
	err := s.deps.Tx.RunInTransaction(ctx, func(ctx context.Context) error {
		op.BeneficiaryFarmerID = beneficiaryID
		var err error
		added, err = s.cuttings.Add(ctx, op)
		if err != nil {
			return err
		}
		in.CuttingOperationID = added.ID
		cycle, err = s.Plant(ctx, in, beneficiaryID)
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	return added, cycle, nil
}

// advance moves a cycle one stage forward. apply fills the stage fields;
// the result is validated, stored and recorded in the module history.
func (s *Service) advance(ctx context.Context, id string, to Status, apply func(c *Cycle) error) (*Cycle, *modules.Module, error) {
	c, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	from, _ := to.previous()
	if c.Status != from {
		return nil, nil, apperror.NewInvalidTransition("cultivation cycle", c.Status, to).
			WithDetail("cycle_id", id)
	}
	if err := apply(c); err != nil {
		return nil, nil, err
	}
	c.Status = to
	if err := c.Validate(ctx); err != nil {
		return nil, nil, err
	}
	if err := s.repo.Put(ctx, c); err != nil {
		return nil, nil, err
	}
	m, err := s.appendModuleHistory(ctx, c, "")
	if err != nil {
		return nil, nil, err
	}
	return c, m, nil
}

func (s *Service) appendModuleHistory(ctx context.Context, c *Cycle, notes string) (*modules.Module, error) {
	return s.modules.AppendHistory(ctx, c.ModuleID, modules.HistoryEntry{
		Status: modules.Status(c.Status),
		Date:   c.StatusDate(s.deps.Today()),
		Notes:  notes,
	})
}

// HarvestInput records a harvest.
type HarvestInput struct {
	Date                types.Date     `json:"date"`
	WeightKg            types.Quantity `json:"weightKg"`
	CuttingsKg          types.Quantity `json:"cuttingsKg"`
	CuttingsIntendedUse string         `json:"cuttingsIntendedUse"`
	LinesHarvested      int            `json:"linesHarvested"`
	Notes               string         `json:"notes"`
}

// Harvest moves a planted cycle to HARVESTED.
func (s *Service) Harvest(ctx context.Context, id string, in HarvestInput) (*Cycle, error) {
	if in.Date.IsZero() {
		return nil, apperror.NewFieldValidation("date", "harvest date is required")
	}
	if !in.WeightKg.IsPositive() {
		return nil, apperror.NewFieldValidation("weightKg", "harvested weight must be positive")
	}
	if in.CuttingsKg.IsNegative() || in.CuttingsKg > in.WeightKg {
		return nil, apperror.NewFieldValidation("cuttingsKg", "cuttings must be between zero and the harvested weight")
	}
	return s.transition(ctx, id, StatusHarvested, func(c *Cycle) error {
		if in.Date.Before(c.PlantingDate) {
			return apperror.NewFieldValidation("date", "harvest cannot precede planting")
		}
		c.HarvestDate = in.Date
		c.HarvestedWeightKg = in.WeightKg
		c.CuttingsTakenAtHarvestKg = in.CuttingsKg
		c.CuttingsIntendedUse = in.CuttingsIntendedUse
		c.LinesHarvested = in.LinesHarvested
		if in.Notes != "" {
			c.ProcessingNotes = in.Notes
		}
		return nil
	})
}

// StartDrying moves a harvested cycle to DRYING.
func (s *Service) StartDrying(ctx context.Context, id string, date types.Date) (*Cycle, error) {
	if date.IsZero() {
		return nil, apperror.NewFieldValidation("date", "drying start date is required")
	}
	return s.transition(ctx, id, StatusDrying, func(c *Cycle) error {
		if c.HarvestDate.IsZero() {
			return apperror.NewFieldValidation("harvestDate", "cycle has no harvest date")
		}
		if date.Before(c.HarvestDate) {
			return apperror.NewFieldValidation("date", "drying cannot start before harvest")
		}
		c.DryingStartDate = date
		return nil
	})
}

// DryingInput completes drying.
type DryingInput struct {
	CompletionDate   types.Date     `json:"completionDate"`
	BaggingStartDate types.Date     `json:"baggingStartDate"`
	DryWeightKg      types.Quantity `json:"dryWeightKg"`
}

// CompleteDrying records the dry weight and moves the cycle to BAGGING.
func (s *Service) CompleteDrying(ctx context.Context, id string, in DryingInput) (*Cycle, error) {
	if in.CompletionDate.IsZero() {
		return nil, apperror.NewFieldValidation("completionDate", "completion date is required")
	}
	if !in.DryWeightKg.IsPositive() {
		return nil, apperror.NewFieldValidation("dryWeightKg", "dry weight must be positive")
	}
	baggingStart := in.BaggingStartDate.Or(in.CompletionDate)
	if baggingStart.Before(in.CompletionDate) {
		return nil, apperror.NewFieldValidation("baggingStartDate", "bagging cannot start before drying completes")
	}
	return s.transition(ctx, id, StatusBagging, func(c *Cycle) error {
		if c.DryingStartDate.IsZero() {
			return apperror.NewFieldValidation("dryingStartDate", "cycle has no drying start date")
		}
		if in.CompletionDate.Before(c.DryingStartDate) {
			return apperror.NewFieldValidation("completionDate", "drying cannot complete before it starts")
		}
		c.DryingCompletionDate = in.CompletionDate
		c.BaggingStartDate = baggingStart
		c.ActualDryWeightKg = in.DryWeightKg
		return nil
	})
}

// BaggingInput completes bagging, either from individual bag weights or
// from totals.
type BaggingInput struct {
	Date       types.Date       `json:"date"`
	BagWeights []types.Quantity `json:"bagWeights"`
	WeightKg   types.Quantity   `json:"weightKg"`
	Bags       int              `json:"bags"`
}

func (in BaggingInput) totals() (types.Quantity, int, error) {
	if len(in.BagWeights) == 0 {
		if !in.WeightKg.IsPositive() || in.Bags <= 0 {
			return 0, 0, apperror.NewFieldValidation("bagWeights", "bag weights or a positive weight and bag count are required")
		}
		return in.WeightKg, in.Bags, nil
	}
	var total types.Quantity
	for i, w := range in.BagWeights {
		if !w.IsPositive() {
			return 0, 0, apperror.NewFieldValidation("bagWeights", "bag weight must be positive").WithDetail("index", i)
		}
		total += w
	}
	return total, len(in.BagWeights), nil
}

// CompleteBagging moves a cycle to BAGGED.
func (s *Service) CompleteBagging(ctx context.Context, id string, in BaggingInput) (*Cycle, error) {
	weight, bags, err := in.totals()
	if err != nil {
		return nil, err
	}
	return s.transition(ctx, id, StatusBagged, func(c *Cycle) error {
		if c.DryingCompletionDate.IsZero() {
			return apperror.NewFieldValidation("dryingCompletionDate", "cycle has not finished drying")
		}
		c.BaggedDate = in.Date.Or(c.BaggingStartDate)
		c.BagWeights = in.BagWeights
		c.BaggedWeightKg = weight
		c.BaggedBagsCount = bags
		return nil
	})
}

func (s *Service) transition(ctx context.Context, id string, to Status, apply func(c *Cycle) error) (*Cycle, error) {
	var out *Cycle
	err := s.deps.Tx.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		out, _, err = s.advance(ctx, id, to, apply)
		return err
	})
	if err != nil {
		return nil, err
	}
	logger.Info(ctx, "cycle advanced", "cycle_id", id, "status", string(to))
	return out, nil
}

// TransferToStock moves a bagged cycle into site stock and frees its module.
func (s *Service) TransferToStock(ctx context.Context, id string, date types.Date) (*Cycle, error) {
	n, err := s.transferToStock(ctx, []string{id}, date, false)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, apperror.NewInternal(fmt.Errorf("cycle %s was not stocked", id))
	}
	return s.Get(ctx, id)
}

// TransferBaggedToStock stocks every BAGGED cycle among ids in one
// transaction. Cycles in other stages are skipped. It returns how many
// cycles were stocked.
func (s *Service) TransferBaggedToStock(ctx context.Context, ids []string, date types.Date) (int, error) {
	return s.transferToStock(ctx, ids, date, true)
}

func (s *Service) transferToStock(ctx context.Context, ids []string, date types.Date, skipOthers bool) (int, error) {
	date = date.Or(s.deps.Today())
	var stocked, posted int
	err := s.deps.Tx.RunInTransaction(ctx, func(ctx context.Context) error {
		cycles, err := s.repo.GetMany(ctx, ids)
		if err != nil {
			return err
		}
		var movements []entity.Movement
		for _, c := range cycles {
			if skipOthers && c.Status != StatusBagged {
				continue
			}
			c, m, err := s.advance(ctx, c.ID, StatusInStock, func(c *Cycle) error {
				c.StockDate = date
				return nil
			})
			if err != nil {
				return err
			}
			if err := s.modules.Free(ctx, m.ID, c.StockDate, modules.NoteCompleted); err != nil {
				return err
			}
			stocked++
			if !c.BaggedWeightKg.IsPositive() {
				continue
			}
			mv := entity.Inbound(c.StockDate, m.SiteID, c.SeaweedTypeID, stock.BaggingTransfer, c.BaggedWeightKg, c.BaggedBagsCount)
			mv.Designation = fmt.Sprintf("From Bagging (Module %s)", m.Code)
			mv.RelatedID = c.ID
			movements = append(movements, mv)
		}
		posted = len(movements)
		if posted == 0 {
			return nil
		}
		_, err = s.stock.Post(ctx, movements...)
		return err
	})
	if err != nil {
		return 0, err
	}
	logger.Info(ctx, "cycles stocked", "count", stocked, "movements", posted)
	return stocked, nil
}

// Export ships a stocked cycle and posts its EXPORT_OUT movement.
func (s *Service) Export(ctx context.Context, id string, date types.Date) (*Cycle, error) {
	if _, err := s.export(ctx, []string{id}, date, "Export of cycle (Module %s)", false); err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

// ExportBatch exports every IN_STOCK cycle among ids in one transaction.
// Cycles in other stages are skipped.
func (s *Service) ExportBatch(ctx context.Context, ids []string, date types.Date) (int, error) {
	return s.export(ctx, ids, date, "Export from Batch (Module %s)", true)
}

// export posts the harvested weight with bags counted at BagKg per bag.
func (s *Service) export(ctx context.Context, ids []string, date types.Date, designation string, skipOthers bool) (int, error) {
	date = date.Or(s.deps.Today())
	var exported int
	err := s.deps.Tx.RunInTransaction(ctx, func(ctx context.Context) error {
		cycles, err := s.repo.GetMany(ctx, ids)
		if err != nil {
			return err
		}
		var movements []entity.Movement
		for _, c := range cycles {
			if skipOthers && c.Status != StatusInStock {
				continue
			}
			c, m, err := s.advance(ctx, c.ID, StatusExported, func(c *Cycle) error {
				c.ExportDate = date
				return nil
			})
			if err != nil {
				return err
			}
			exported++
			kg := c.HarvestedWeightKg
			if !kg.IsPositive() {
				continue
			}
			mv := entity.Outbound(c.ExportDate, m.SiteID, c.SeaweedTypeID, stock.ExportOut, kg, kg.CeilDiv(BagKg))
			mv.Designation = fmt.Sprintf(designation, m.Code)
			mv.RelatedID = c.ID
			movements = append(movements, mv)
		}
		if len(movements) == 0 {
			return nil
		}
		_, err = s.stock.Post(ctx, movements...)
		return err
	})
	if err != nil {
		return 0, err
	}
	logger.Info(ctx, "cycles exported", "count", exported)
	return exported, nil
}

// Update is an administrative edit. The farmer, creation time and a set
// paymentRunId are kept. A status change is recorded in the module history;
// moving to IN_STOCK also frees the module.
func (s *Service) Update(ctx context.Context, c Cycle) (*Cycle, error) {
	err := s.deps.Tx.RunInTransaction(ctx, func(ctx context.Context) error {
		stored, err := s.repo.Get(ctx, c.ID)
		if err != nil {
			return err
		}
		if stored.PaymentRunID != "" {
			c.PaymentRunID = stored.PaymentRunID
		}
		if c.FarmerID == "" {
			c.FarmerID = stored.FarmerID
		}
		c.CreatedAt = stored.CreatedAt
		if err := c.Validate(ctx); err != nil {
			return err
		}
		if c.ModuleID != stored.ModuleID {
			if err := s.modules.Repo().MustExist(ctx, c.ModuleID); err != nil {
				return err
			}
		}
		if err := s.seaweedTypes.MustExist(ctx, c.SeaweedTypeID); err != nil {
			return err
		}
		if err := s.repo.Put(ctx, &c); err != nil {
			return err
		}
		if c.Status == stored.Status {
			return nil
		}
		m, err := s.appendModuleHistory(ctx, &c, "")
		if err != nil {
			return err
		}
		if c.Status == StatusInStock {
			return s.modules.Free(ctx, m.ID, c.StockDate.Or(s.deps.Today()), modules.NoteCompleted)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	logger.Info(ctx, "cycle updated", "cycle_id", c.ID, "status", string(c.Status))
	return &c, nil
}

// Delete removes a cycle. Its stock movements are kept or retracted
// according to the deletion policy.
func (s *Service) Delete(ctx context.Context, id string) error {
	err := s.deps.Tx.RunInTransaction(ctx, func(ctx context.Context) error {
		c, err := s.repo.Get(ctx, id)
		if err != nil {
			return err
		}
		return s.remove(ctx, c)
	})
	if err != nil {
		return err
	}
	logger.Info(ctx, "cycle deleted", "cycle_id", id, "policy", string(s.policy))
	return nil
}

func (s *Service) remove(ctx context.Context, c *Cycle) error {
	if _, err := s.repo.Delete(ctx, c.ID); err != nil {
		return err
	}
	if s.policy != Retract {
		return nil
	}
	_, err := s.stock.RetractRelated(ctx, c.ID, stock.BaggingTransfer, stock.ExportOut)
	return err
}

// MarkPaid stamps cycles with a payment run id. Cycles already paid keep
// their original run id.
func (s *Service) MarkPaid(ctx context.Context, ids []string, runID string) (int, error) {
	if runID == "" {
		return 0, apperror.NewFieldValidation("paymentRunId", "payment run id is required")
	}
	var marked int
	err := s.deps.Tx.RunInTransaction(ctx, func(ctx context.Context) error {
		cycles, err := s.repo.GetMany(ctx, ids)
		if err != nil {
			return err
		}
		for _, c := range cycles {
			if c.IsPaid() {
				continue
			}
			c.PaymentRunID = runID
			if err := s.repo.Put(ctx, c); err != nil {
				return err
			}
			marked++
		}
		return nil
	})
	return marked, err
}

// Get returns a cycle.
func (s *Service) Get(ctx context.Context, id string) (*Cycle, error) {
	var out *Cycle
	err := s.deps.Tx.ReadOnly(ctx, func(ctx context.Context) error {
		var err error
		out, err = s.repo.Get(ctx, id)
		return err
	})
	return out, err
}

// Filter selects cycles. Zero fields match everything; the harvest range
// only matches harvested cycles when set.
type Filter struct {
	ModuleID      string
	FarmerID      string
	SeaweedTypeID string
	SiteID        string
	Status        Status
	HarvestFrom   types.Date
	HarvestTo     types.Date
	UnpaidOnly    bool
}

func (f Filter) match(c *Cycle, siteOf map[string]string) bool {
	switch {
	case f.ModuleID != "" && c.ModuleID != f.ModuleID,
		f.FarmerID != "" && c.FarmerID != f.FarmerID,
		f.SeaweedTypeID != "" && c.SeaweedTypeID != f.SeaweedTypeID,
		f.Status != "" && c.Status != f.Status,
		f.UnpaidOnly && c.IsPaid(),
		f.SiteID != "" && siteOf[c.ModuleID] != f.SiteID:
		return false
	}
	if f.HarvestFrom.IsZero() && f.HarvestTo.IsZero() {
		return true
	}
	return !c.HarvestDate.IsZero() && c.HarvestDate.Within(f.HarvestFrom, f.HarvestTo)
}

// List returns cycles matching the filter in insertion order.
// Runs in the caller's transaction when there is one.
func (s *Service) List(ctx context.Context, f Filter) ([]*Cycle, error) {
	var out []*Cycle
	err := s.deps.Tx.ReadOnly(ctx, func(ctx context.Context) error {
		var siteOf map[string]string
		if f.SiteID != "" {
			mods, err := s.modules.Repo().List(ctx)
			if err != nil {
				return err
			}
			siteOf = make(map[string]string, len(mods))
			for _, m := range mods {
				siteOf[m.ID] = m.SiteID
			}
		}
		var err error
		out, err = s.repo.Find(ctx, func(c *Cycle) bool { return f.match(c, siteOf) })
		return err
	})
	return out, err
}
