package payments

import (
	"context"
	"fmt"

	"sealedger/internal/core/apperror"
	"sealedger/internal/core/types"
	"sealedger/internal/domain/catalogs/seaweedtype"
	"sealedger/internal/domain/cultivation"
	"sealedger/internal/domain/cutting"
	"sealedger/internal/domain/documents/delivery"
	"sealedger/pkg/logger"
)

// Payee is one line of a payment run. Farmer lines are keyed by farmer id,
// service provider lines by cutting operation id, employee lines by
// employee id.
type Payee struct {
	ID            string        `json:"id"`
	RecipientType RecipientType `json:"recipientType"`
	RecipientID   string        `json:"recipientId"`
	Name          string        `json:"name"`
	SiteID        string        `json:"siteId,omitempty"`
	Selected      bool          `json:"selected"`

	// Production behind the line
	WeightKg  types.Quantity `json:"weightKg,omitzero"`
	Bags      int            `json:"bags,omitempty"`
	Lines     int            `json:"lines,omitempty"`
	UnitPrice types.Money    `json:"unitPrice"`

	BaseAmount    types.Money `json:"baseAmount"`
	Adjustment    types.Money `json:"adjustment"`
	Deduction     types.Money `json:"deduction"`
	NetAmount     types.Money `json:"netAmount"`
	CreditBalance types.Money `json:"creditBalance"`

	CycleIDs     []string `json:"cycleIds,omitempty"`
	DeliveryIDs  []string `json:"deliveryIds,omitempty"`
	OperationIDs []string `json:"operationIds,omitempty"`

	Payroll *PayrollLine `json:"payroll,omitempty"`
}

// Totals sums the selected lines of a preview.
type Totals struct {
	Base      types.Money `json:"base"`
	Deduction types.Money `json:"deduction"`
	Net       types.Money `json:"net"`
}

// Preview is the computed, uncommitted content of a run.
type Preview struct {
	Config RunConfig `json:"config"`
	Payees []*Payee  `json:"payees"`
	Totals Totals    `json:"totals"`
}

// preview computes payees from the store state visible in ctx.
func (s *Service) preview(ctx context.Context, cfg RunConfig) (*Preview, error) {
	var (
		payees []*Payee
		err    error
	)
	switch cfg.PayeeClass {
	case FarmerWet:
		payees, err = s.wetPayees(ctx, cfg)
	case FarmerDry:
		payees, err = s.dryPayees(ctx, cfg)
	case ServiceProvider:
		payees, err = s.providerPayees(ctx, cfg)
	case EmployeePayroll:
		payees, err = s.employeePayees(ctx, cfg)
	}
	if err != nil {
		return nil, err
	}

	if cfg.PayeeClass == FarmerWet || cfg.PayeeClass == FarmerDry {
		outstanding, err := s.credits.Outstanding(ctx)
		if err != nil {
			return nil, err
		}
		for _, p := range payees {
			p.CreditBalance = outstanding[p.RecipientID]
		}
	}

	p := &Preview{Config: cfg, Payees: make([]*Payee, 0, len(payees))}
	for _, payee := range payees {
		payee.Selected = cfg.selected(payee.ID)
		if payee.Payroll == nil {
			payee.Adjustment = cfg.Adjustments[payee.ID]
			payable := payee.BaseAmount.Add(payee.Adjustment)
			if payee.RecipientType == RecipientFarmer {
				payee.Deduction = cfg.Deduction.Deduct(payable, payee.CreditBalance)
			}
			payee.NetAmount = payable.Sub(payee.Deduction)
		}
		p.Payees = append(p.Payees, payee)
		if payee.Selected {
			p.Totals.Base = p.Totals.Base.Add(payee.BaseAmount).Add(payee.Adjustment)
			p.Totals.Deduction = p.Totals.Deduction.Add(payee.Deduction)
			p.Totals.Net = p.Totals.Net.Add(payee.NetAmount)
		}
	}
	return p, nil
}

// priceBook caches seaweed types for price lookups. A type deleted since
// the production was recorded resolves to ok=false.
type priceBook struct {
	repo  *seaweedtype.Repository
	types map[string]*seaweedtype.SeaweedType
}

func (b *priceBook) at(ctx context.Context, typeID string, date types.Date) (seaweedtype.PricePoint, bool, error) {
	t, cached := b.types[typeID]
	if !cached {
		var err error
		t, err = b.repo.Get(ctx, typeID)
		switch {
		case apperror.IsNotFound(err):
			t = nil
		case err != nil:
			return seaweedtype.PricePoint{}, false, err
		}
		b.types[typeID] = t
	}
	if t == nil {
		return seaweedtype.PricePoint{}, false, nil
	}
	return t.PriceAt(date), true, nil
}

func (s *Service) prices() *priceBook {
	return &priceBook{repo: s.seaweedTypes, types: make(map[string]*seaweedtype.SeaweedType)}
}

// farmerLines builds one payee line per farmer for a run.
type farmerLines struct {
	siteID  string
	byID    map[string]*Payee
	missing map[string]bool
	order   []*Payee
}

func newFarmerLines(siteID string) *farmerLines {
	return &farmerLines{siteID: siteID, byID: make(map[string]*Payee), missing: make(map[string]bool)}
}

// farmerLine returns the line for farmerID, creating it on first use. It returns
// nil for a farmer of another site than the run's, and nil with
// missing=true for a farmer that no longer exists.
func (s *Service) farmerLine(ctx context.Context, lines *farmerLines, farmerID string) (p *Payee, missing bool, err error) {
	if lines.missing[farmerID] {
		return nil, true, nil
	}
	if p, ok := lines.byID[farmerID]; ok {
		return p, false, nil
	}
	f, err := s.farmers.Get(ctx, farmerID)
	if apperror.IsNotFound(err) {
		lines.missing[farmerID] = true
		return nil, true, nil
	}
	if err != nil {
		return nil, false, err
	}
	if lines.siteID != "" && f.SiteID != lines.siteID {
		lines.byID[farmerID] = nil
		return nil, false, nil
	}
	p = &Payee{
		ID:            f.ID,
		RecipientType: RecipientFarmer,
		RecipientID:   f.ID,
		Name:          f.FullName(),
		SiteID:        f.SiteID,
	}
	lines.byID[farmerID] = p
	lines.order = append(lines.order, p)
	return p, false, nil
}

// wetPayees groups unpaid cycles harvested in range by farmer and prices
// their net weight at the wet price in force on each harvest date. The
// site filter applies to the farmer's site, not the module's.
func (s *Service) wetPayees(ctx context.Context, cfg RunConfig) ([]*Payee, error) {
	cycles, err := s.cycles.List(ctx, cultivation.Filter{
		SeaweedTypeID: cfg.SeaweedTypeID,
		HarvestFrom:   cfg.StartDate,
		HarvestTo:     cfg.EndDate,
		UnpaidOnly:    true,
	})
	if err != nil {
		return nil, err
	}
	book := s.prices()
	lines := newFarmerLines(cfg.SiteID)
	for _, c := range cycles {
		if c.FarmerID == "" {
			continue
		}
		p, missing, err := s.farmerLine(ctx, lines, c.FarmerID)
		if err != nil {
			return nil, err
		}
		if missing {
			logger.Warn(ctx, "cycle skipped, farmer not found", "cycle_id", c.ID, "farmer_id", c.FarmerID)
		}
		if p == nil {
			continue
		}
		price, ok, err := book.at(ctx, c.SeaweedTypeID, c.HarvestDate)
		if err != nil {
			return nil, err
		}
		if !ok {
			logger.Warn(ctx, "cycle skipped, seaweed type not found", "cycle_id", c.ID, "seaweed_type_id", c.SeaweedTypeID)
			continue
		}
		net := c.NetWeight()
		p.WeightKg += net
		p.BaseAmount = p.BaseAmount.Add(net.MulPrice(price.WetPrice).Round(2))
		p.CycleIDs = append(p.CycleIDs, c.ID)
	}
	return positive(lines.order), nil
}

// dryPayees groups unpaid deliveries in range by farmer and prices them at
// the dry price in force on each delivery date. The site filter applies to
// the farmer's site.
func (s *Service) dryPayees(ctx context.Context, cfg RunConfig) ([]*Payee, error) {
	deliveries, err := s.deliveries.List(ctx, delivery.ListFilter{
		SeaweedTypeID: cfg.SeaweedTypeID,
		DateFrom:      cfg.StartDate,
		DateTo:        cfg.EndDate,
		UnpaidOnly:    true,
	})
	if err != nil {
		return nil, err
	}
	book := s.prices()
	lines := newFarmerLines(cfg.SiteID)
	for _, d := range deliveries {
		p, missing, err := s.farmerLine(ctx, lines, d.FarmerID)
		if err != nil {
			return nil, err
		}
		if missing {
			logger.Warn(ctx, "delivery skipped, farmer not found", "delivery_id", d.ID, "farmer_id", d.FarmerID)
		}
		if p == nil {
			continue
		}
		price, ok, err := book.at(ctx, d.SeaweedTypeID, d.Date)
		if err != nil {
			return nil, err
		}
		if !ok {
			logger.Warn(ctx, "delivery skipped, seaweed type not found", "delivery_id", d.ID, "seaweed_type_id", d.SeaweedTypeID)
			continue
		}
		p.WeightKg += d.TotalWeightKg
		p.Bags += d.TotalBags
		p.BaseAmount = p.BaseAmount.Add(d.TotalWeightKg.MulPrice(price.DryPrice).Round(2))
		p.DeliveryIDs = append(p.DeliveryIDs, d.ID)
	}
	return positive(lines.order), nil
}

// providerPayees lists one line per unpaid cutting operation in range.
func (s *Service) providerPayees(ctx context.Context, cfg RunConfig) ([]*Payee, error) {
	ops, err := s.cuttings.List(ctx, cutting.Filter{
		SiteID:        cfg.SiteID,
		SeaweedTypeID: cfg.SeaweedTypeID,
		From:          cfg.StartDate,
		To:            cfg.EndDate,
		UnpaidOnly:    true,
	})
	if err != nil {
		return nil, err
	}
	out := make([]*Payee, 0, len(ops))
	for _, op := range ops {
		name := "Unknown"
		if sp, err := s.providers.Get(ctx, op.ServiceProviderID); err == nil {
			name = sp.Name
		}
		out = append(out, &Payee{
			ID:            op.ID,
			RecipientType: RecipientServiceProvider,
			RecipientID:   op.ServiceProviderID,
			Name:          fmt.Sprintf("%s (%s)", name, op.Date),
			SiteID:        op.SiteID,
			Lines:         op.TotalLines(),
			UnitPrice:     op.UnitPrice,
			BaseAmount:    op.TotalAmount,
			OperationIDs:  []string{op.ID},
		})
	}
	return positive(out), nil
}

// employeePayees computes payroll for employees not yet paid for the period.
func (s *Service) employeePayees(ctx context.Context, cfg RunConfig) ([]*Payee, error) {
	paid, err := s.repo.Find(ctx, func(p *MonthlyPayment) bool {
		return p.RecipientType == RecipientEmployee && p.Period == cfg.PeriodName
	})
	if err != nil {
		return nil, err
	}
	already := make(map[string]bool, len(paid))
	for _, p := range paid {
		already[p.RecipientID] = true
	}

	employees, err := s.employees.List(ctx)
	if err != nil {
		return nil, err
	}
	var out []*Payee
	for _, e := range employees {
		if already[e.ID] || (cfg.SiteID != "" && e.SiteID != cfg.SiteID) {
			continue
		}
		line := s.payroll.Calculate(e.GrossWage, cfg.Payroll[e.ID])
		out = append(out, &Payee{
			ID:            e.ID,
			RecipientType: RecipientEmployee,
			RecipientID:   e.ID,
			Name:          e.FullName(),
			SiteID:        e.SiteID,
			BaseAmount:    line.TotalGross,
			Deduction:     line.TotalDeductions,
			NetAmount:     line.NetPay,
			Payroll:       &line,
		})
	}
	return out, nil
}

// positive drops lines with nothing to pay for.
func positive(in []*Payee) []*Payee {
	out := in[:0]
	for _, p := range in {
		if p.BaseAmount.IsPositive() {
			out = append(out, p)
		}
	}
	return out
}
