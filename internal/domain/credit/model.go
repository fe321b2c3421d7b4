// Package credit provides the farmer credit and repayment ledger. A farmer's
// outstanding balance is the sum of credits minus the sum of repayments.
package credit

import (
	"context"
	"time"

	"sealedger/internal/core/apperror"
	"sealedger/internal/core/types"
)

// Credit is a debt issued to a farmer.
type Credit struct {
	ID           string      `json:"id"`
	Date         types.Date  `json:"date"`
	SiteID       string      `json:"siteId,omitempty"`
	FarmerID     string      `json:"farmerId"`
	CreditTypeID string      `json:"creditTypeId"`
	TotalAmount  types.Money `json:"totalAmount"`

	// RelatedOperationID links credits issued by a cutting operation
	RelatedOperationID string `json:"relatedOperationId,omitempty"`

	Notes     string    `json:"notes,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// GetID implements entity.Entity.
func (c *Credit) GetID() string { return c.ID }

// Validate implements entity.Validatable interface.
func (c *Credit) Validate(ctx context.Context) error {
	if c.FarmerID == "" {
		return apperror.NewFieldValidation("farmerId", "farmer is required")
	}
	if c.CreditTypeID == "" {
		return apperror.NewFieldValidation("creditTypeId", "credit type is required")
	}
	if c.Date.IsZero() {
		return apperror.NewFieldValidation("date", "date is required")
	}
	if !c.TotalAmount.IsPositive() {
		return apperror.NewFieldValidation("totalAmount", "amount must be positive").
			WithDetail("value", c.TotalAmount.String())
	}
	return nil
}

// RepaymentMethod tells how a debt was reduced.
type RepaymentMethod string

const (
	MethodCash             RepaymentMethod = "cash"
	MethodMobileMoney      RepaymentMethod = "mobile_money"
	MethodHarvestDeduction RepaymentMethod = "harvest_deduction"
)

// Repayment reduces a farmer's debt.
type Repayment struct {
	ID       string          `json:"id"`
	Date     types.Date      `json:"date"`
	FarmerID string          `json:"farmerId"`
	Amount   types.Money     `json:"amount"`
	Method   RepaymentMethod `json:"method"`

	// PaymentRunID is set on deductions made by a payment run
	PaymentRunID string `json:"paymentRunId,omitempty"`

	Notes     string    `json:"notes,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// GetID implements entity.Entity.
func (r *Repayment) GetID() string { return r.ID }

// Validate implements entity.Validatable interface.
func (r *Repayment) Validate(ctx context.Context) error {
	if r.FarmerID == "" {
		return apperror.NewFieldValidation("farmerId", "farmer is required")
	}
	if r.Date.IsZero() {
		return apperror.NewFieldValidation("date", "date is required")
	}
	if !r.Amount.IsPositive() {
		return apperror.NewFieldValidation("amount", "amount must be positive").
			WithDetail("value", r.Amount.String())
	}
	switch r.Method {
	case MethodCash, MethodMobileMoney, MethodHarvestDeduction:
	default:
		return apperror.NewFieldValidation("method", "unknown repayment method").
			WithDetail("value", string(r.Method))
	}
	return nil
}

// Balance is a farmer's debt position.
type Balance struct {
	FarmerID    string      `json:"farmerId"`
	Credits     types.Money `json:"credits"`
	Repayments  types.Money `json:"repayments"`
	Outstanding types.Money `json:"outstanding"`
}
