package payments

import (
	"github.com/shopspring/decimal"

	"sealedger/internal/core/apperror"
	"sealedger/internal/core/types"
)

// PayeeClass selects what a run pays for.
type PayeeClass string

const (
	// FarmerWet pays harvested cycles by net weight at the wet price.
	FarmerWet PayeeClass = "farmer_wet"
	// FarmerDry pays farmer deliveries by weight at the dry price.
	FarmerDry PayeeClass = "farmer_dry"
	// ServiceProvider pays unpaid cutting operations, one line per operation.
	ServiceProvider PayeeClass = "service_provider"
	// EmployeePayroll pays salaried employees once per period.
	EmployeePayroll PayeeClass = "employee_payroll"
)

// DeductionType tells how the configured deduction is derived.
type DeductionType string

const (
	DeductionPercentage DeductionType = "percentage"
	DeductionFixed      DeductionType = "fixed"
)

// DeductionConfig is the credit deduction applied to farmer lines.
type DeductionConfig struct {
	Enabled bool          `json:"enabled"`
	Type    DeductionType `json:"type"`
	Value   types.Money   `json:"value"`
}

// FullDeduction deducts up to 100% of every farmer line.
func FullDeduction() DeductionConfig {
	return DeductionConfig{Enabled: true, Type: DeductionPercentage, Value: decimal.NewFromInt(100)}
}

// PayrollInput carries the variable part of an employee's pay.
type PayrollInput struct {
	Bonus           types.Money `json:"bonus"`
	Overtime        types.Money `json:"overtime"`
	OtherDeductions types.Money `json:"otherDeductions"`
}

// RunConfig selects and parameterizes a payment run.
type RunConfig struct {
	PeriodName    string     `json:"periodName"`
	StartDate     types.Date `json:"startDate"`
	EndDate       types.Date `json:"endDate"`
	PayeeClass    PayeeClass `json:"paymentType"`
	SiteID        string     `json:"siteId,omitempty"`
	SeaweedTypeID string     `json:"seaweedTypeId,omitempty"`

	Deduction DeductionConfig `json:"deduction"`

	// Adjustments are added to the base amount of the payee with that id
	Adjustments map[string]types.Money `json:"adjustments,omitempty"`

	// Payroll holds bonuses and extra deductions per employee id
	Payroll map[string]PayrollInput `json:"payroll,omitempty"`

	// Selection lists payee ids to commit; empty selects every payee
	Selection []string `json:"selection,omitempty"`

	Method Method `json:"method"`
}

// Validate checks the configuration before any store access.
func (c *RunConfig) Validate() error {
	switch c.PayeeClass {
	case FarmerWet, FarmerDry, ServiceProvider, EmployeePayroll:
	default:
		return apperror.NewFieldValidation("paymentType", "unknown payee class").
			WithDetail("value", string(c.PayeeClass))
	}
	switch {
	case c.PeriodName == "":
		return apperror.NewFieldValidation("periodName", "period name is required")
	case c.StartDate.IsZero(), c.EndDate.IsZero():
		return apperror.NewFieldValidation("startDate", "date range is required")
	case c.EndDate.Before(c.StartDate):
		return apperror.NewFieldValidation("endDate", "end date precedes start date")
	}
	if c.Method == "" {
		c.Method = MethodCash
	}
	if !c.Method.Valid() {
		return apperror.NewFieldValidation("method", "unknown payment method").
			WithDetail("value", string(c.Method))
	}
	if c.Deduction.Enabled {
		switch c.Deduction.Type {
		case DeductionPercentage, DeductionFixed:
		default:
			return apperror.NewFieldValidation("deduction.type", "unknown deduction type").
				WithDetail("value", string(c.Deduction.Type))
		}
		if c.Deduction.Value.IsNegative() {
			return apperror.NewFieldValidation("deduction.value", "deduction cannot be negative")
		}
	}
	return nil
}

func (c *RunConfig) selected(payeeID string) bool {
	if len(c.Selection) == 0 {
		return true
	}
	for _, id := range c.Selection {
		if id == payeeID {
			return true
		}
	}
	return false
}

// Deduct applies the clamp to one farmer line: the configured amount, never
// more than the payable amount and never more than the outstanding credit.
// It returns zero when deductions are disabled or nothing is owed.
func (d DeductionConfig) Deduct(payable, outstanding types.Money) types.Money {
	if !d.Enabled || !outstanding.IsPositive() || !payable.IsPositive() {
		return types.Zero()
	}
	configured := d.Value
	if d.Type == DeductionPercentage {
		configured = payable.Mul(d.Value).Div(decimal.NewFromInt(100)).Round(2)
	}
	out := types.MinMoney(configured, payable, outstanding)
	if out.IsNegative() {
		return types.Zero()
	}
	return out
}
