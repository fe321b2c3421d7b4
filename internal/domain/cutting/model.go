// Package cutting records cutting operations: service providers cut lines on
// modules, and the farmers working those modules are charged a credit for it.
package cutting

import (
	"context"
	"slices"
	"time"

	"sealedger/internal/core/apperror"
	"sealedger/internal/core/types"
)

// ModuleCut is the number of lines cut on one module.
type ModuleCut struct {
	ModuleID string `json:"moduleId"`
	LinesCut int    `json:"linesCut"`
}

// Operation is one cutting event.
type Operation struct {
	ID                string      `json:"id"`
	Date              types.Date  `json:"date"`
	SiteID            string      `json:"siteId"`
	ServiceProviderID string      `json:"serviceProviderId"`
	SeaweedTypeID     string      `json:"seaweedTypeId,omitempty"`
	ModuleCuts        []ModuleCut `json:"moduleCuts"`
	UnitPrice         types.Money `json:"unitPrice"`

	// TotalAmount is Σ linesCut × unitPrice, owed to the service provider
	TotalAmount types.Money `json:"totalAmount"`

	// BeneficiaryFarmerID receives the cuttings to start a new cycle and is
	// charged instead of the modules' farmers
	BeneficiaryFarmerID string `json:"beneficiaryFarmerId,omitempty"`

	IsPaid      bool       `json:"isPaid"`
	PaymentDate types.Date `json:"paymentDate,omitzero"`

	Notes     string    `json:"notes,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// GetID implements entity.Entity.
func (o *Operation) GetID() string { return o.ID }

// Validate implements entity.Validatable interface.
func (o *Operation) Validate(ctx context.Context) error {
	if o.Date.IsZero() {
		return apperror.NewFieldValidation("date", "date is required")
	}
	if o.SiteID == "" {
		return apperror.NewFieldValidation("siteId", "site is required")
	}
	if o.ServiceProviderID == "" {
		return apperror.NewFieldValidation("serviceProviderId", "service provider is required")
	}
	if len(o.ModuleCuts) == 0 {
		return apperror.NewFieldValidation("moduleCuts", "at least one module cut is required")
	}
	if o.UnitPrice.IsNegative() {
		return apperror.NewFieldValidation("unitPrice", "price cannot be negative")
	}
	seen := make(map[string]struct{}, len(o.ModuleCuts))
	for i, mc := range o.ModuleCuts {
		if mc.ModuleID == "" {
			return apperror.NewFieldValidation("moduleCuts", "module is required").WithDetail("index", i)
		}
		if mc.LinesCut < 0 {
			return apperror.NewFieldValidation("moduleCuts", "lines cut cannot be negative").WithDetail("index", i)
		}
		if _, dup := seen[mc.ModuleID]; dup {
			return apperror.NewFieldValidation("moduleCuts", "module listed twice").WithDetail("module_id", mc.ModuleID)
		}
		seen[mc.ModuleID] = struct{}{}
	}
	return nil
}

// TotalLines returns Σ linesCut.
func (o *Operation) TotalLines() int {
	n := 0
	for _, mc := range o.ModuleCuts {
		n += mc.LinesCut
	}
	return n
}

// CutAmount returns linesCut × unitPrice for one cut.
func (o *Operation) CutAmount(mc ModuleCut) types.Money {
	return o.UnitPrice.Mul(types.NewMoney(float64(mc.LinesCut)))
}

// ComputeTotal sets TotalAmount from the module cuts.
func (o *Operation) ComputeTotal() {
	total := types.Zero()
	for _, mc := range o.ModuleCuts {
		total = total.Add(o.CutAmount(mc))
	}
	o.TotalAmount = total
}

// ModuleIDs returns the sorted module ids.
func (o *Operation) ModuleIDs() []string {
	ids := make([]string, 0, len(o.ModuleCuts))
	for _, mc := range o.ModuleCuts {
		ids = append(ids, mc.ModuleID)
	}
	slices.Sort(ids)
	return ids
}

// creditsDiffer reports whether the credits issued for o and other differ:
// price, module set, lines, date, site or beneficiary changed.
func (o *Operation) creditsDiffer(other *Operation) bool {
	if !o.UnitPrice.Equal(other.UnitPrice) ||
		!o.Date.Equal(other.Date) ||
		o.SiteID != other.SiteID ||
		o.BeneficiaryFarmerID != other.BeneficiaryFarmerID {
		return true
	}
	if !slices.Equal(o.ModuleIDs(), other.ModuleIDs()) {
		return true
	}
	lines := make(map[string]int, len(o.ModuleCuts))
	for _, mc := range o.ModuleCuts {
		lines[mc.ModuleID] = mc.LinesCut
	}
	for _, mc := range other.ModuleCuts {
		if lines[mc.ModuleID] != mc.LinesCut {
			return true
		}
	}
	return false
}
