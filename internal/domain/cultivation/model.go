// Package cultivation owns the production timeline of a module: planting,
// harvest, drying, bagging, stocking and export of one cultivation cycle.
package cultivation

import (
	"context"
	"time"

	"sealedger/internal/core/apperror"
	"sealedger/internal/core/types"
)

// Status is a cycle stage. Stages are strictly ordered.
type Status string

const (
	StatusPlanted   Status = "PLANTED"
	StatusHarvested Status = "HARVESTED"
	StatusDrying    Status = "DRYING"
	StatusBagging   Status = "BAGGING"
	StatusBagged    Status = "BAGGED"
	StatusInStock   Status = "IN_STOCK"
	StatusExported  Status = "EXPORTED"
)

// Statuses lists the stages in order.
var Statuses = []Status{
	StatusPlanted, StatusHarvested, StatusDrying, StatusBagging,
	StatusBagged, StatusInStock, StatusExported,
}

// Valid reports whether s is a known stage.
func (s Status) Valid() bool {
	for _, st := range Statuses {
		if st == s {
			return true
		}
	}
	return false
}

// Active reports whether a cycle in this stage still occupies its module.
func (s Status) Active() bool {
	return s != StatusInStock && s != StatusExported
}

// previous returns the only stage a transition into s may start from.
func (s Status) previous() (Status, bool) {
	for i, st := range Statuses {
		if st == s && i > 0 {
			return Statuses[i-1], true
		}
	}
	return "", false
}

// Cycle is one production run on a module. Stage fields are populated
// once the stage is reached.
type Cycle struct {
	ID            string `json:"id"`
	ModuleID      string `json:"moduleId"`
	SeaweedTypeID string `json:"seaweedTypeId"`

	// FarmerID is the farmer who planted the cycle and is paid for it
	FarmerID string `json:"farmerId"`

	// CuttingOperationID is the provenance of the planted material
	CuttingOperationID string `json:"cuttingOperationId,omitempty"`

	Status Status `json:"status"`

	PlantingDate    types.Date     `json:"plantingDate"`
	LinesPlanted    int            `json:"linesPlanted"`
	InitialWeightKg types.Quantity `json:"initialWeightKg,omitzero"`

	HarvestDate              types.Date     `json:"harvestDate,omitzero"`
	HarvestedWeightKg        types.Quantity `json:"harvestedWeightKg,omitzero"`
	CuttingsTakenAtHarvestKg types.Quantity `json:"cuttingsTakenAtHarvestKg,omitzero"`
	CuttingsIntendedUse      string         `json:"cuttingsIntendedUse,omitempty"`
	LinesHarvested           int            `json:"linesHarvested,omitzero"`

	DryingStartDate      types.Date     `json:"dryingStartDate,omitzero"`
	DryingCompletionDate types.Date     `json:"dryingCompletionDate,omitzero"`
	ActualDryWeightKg    types.Quantity `json:"actualDryWeightKg,omitzero"`

	BaggingStartDate types.Date       `json:"baggingStartDate,omitzero"`
	BaggedDate       types.Date       `json:"baggedDate,omitzero"`
	BagWeights       []types.Quantity `json:"bagWeights,omitempty"`
	BaggedWeightKg   types.Quantity   `json:"baggedWeightKg,omitzero"`
	BaggedBagsCount  int              `json:"baggedBagsCount,omitzero"`

	StockDate  types.Date `json:"stockDate,omitzero"`
	ExportDate types.Date `json:"exportDate,omitzero"`

	// PaymentRunID is set once by the payment run that paid the cycle
	PaymentRunID string `json:"paymentRunId,omitempty"`

	ProcessingNotes string    `json:"processingNotes,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
}

// GetID implements entity.Entity.
func (c *Cycle) GetID() string { return c.ID }

// NetWeight is the harvested weight minus the cuttings kept for replanting.
// No later stage may hold more material.
func (c *Cycle) NetWeight() types.Quantity {
	return c.HarvestedWeightKg - c.CuttingsTakenAtHarvestKg
}

// IsPaid reports whether a payment run has paid the cycle.
func (c *Cycle) IsPaid() bool { return c.PaymentRunID != "" }

// StatusDate dates a status change: the most advanced stage date that is
// set, else now.
func (c *Cycle) StatusDate(now types.Date) types.Date {
	return c.ExportDate.
		Or(c.StockDate).
		Or(c.BaggingStartDate).
		Or(c.DryingStartDate).
		Or(c.HarvestDate).
		Or(now)
}

// Validate implements entity.Validatable interface.
func (c *Cycle) Validate(ctx context.Context) error {
	switch {
	case c.ModuleID == "":
		return apperror.NewFieldValidation("moduleId", "module is required")
	case c.SeaweedTypeID == "":
		return apperror.NewFieldValidation("seaweedTypeId", "seaweed type is required")
	case c.PlantingDate.IsZero():
		return apperror.NewFieldValidation("plantingDate", "planting date is required")
	case !c.Status.Valid():
		return apperror.NewFieldValidation("status", "unknown status").WithDetail("value", string(c.Status))
	case c.LinesPlanted < 0:
		return apperror.NewFieldValidation("linesPlanted", "cannot be negative")
	}

	for field, q := range map[string]types.Quantity{
		"initialWeightKg":          c.InitialWeightKg,
		"harvestedWeightKg":        c.HarvestedWeightKg,
		"cuttingsTakenAtHarvestKg": c.CuttingsTakenAtHarvestKg,
		"actualDryWeightKg":        c.ActualDryWeightKg,
		"baggedWeightKg":           c.BaggedWeightKg,
	} {
		if q.IsNegative() {
			return apperror.NewFieldValidation(field, "weight cannot be negative")
		}
	}
	if c.BaggedBagsCount < 0 {
		return apperror.NewFieldValidation("baggedBagsCount", "cannot be negative")
	}

	net := c.NetWeight()
	if net.IsNegative() {
		return apperror.NewFieldValidation("cuttingsTakenAtHarvestKg", "cuttings exceed harvested weight").
			WithDetail("harvested", c.HarvestedWeightKg.Float64()).
			WithDetail("cuttings", c.CuttingsTakenAtHarvestKg.Float64())
	}
	if c.ActualDryWeightKg > net {
		return apperror.NewFieldValidation("actualDryWeightKg", "dry weight exceeds net harvested weight").
			WithDetail("net", net.Float64())
	}
	if c.BaggedWeightKg > net {
		return apperror.NewFieldValidation("baggedWeightKg", "bagged weight exceeds net harvested weight").
			WithDetail("net", net.Float64())
	}
	return nil
}
