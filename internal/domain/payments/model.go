// Package payments provides the payment run engine: it turns unpaid
// production into payee lines, nets farmer lines against outstanding
// credit and commits the settlement in one transaction.
package payments

import (
	"context"
	"time"

	"sealedger/internal/core/apperror"
	"sealedger/internal/core/types"
)

// RecipientType classifies who receives a payment.
type RecipientType string

const (
	RecipientFarmer          RecipientType = "farmer"
	RecipientServiceProvider RecipientType = "service_provider"
	RecipientEmployee        RecipientType = "employee"
)

// Method is how a payment is settled.
type Method string

const (
	MethodCash        Method = "cash"
	MethodMobileMoney Method = "mobile_money"
)

// Valid reports whether m is a known method.
func (m Method) Valid() bool { return m == MethodCash || m == MethodMobileMoney }

// Status is the settlement state of a payment.
type Status string

const (
	StatusPending    Status = "PENDING"
	StatusProcessing Status = "PROCESSING"
	StatusCompleted  Status = "COMPLETED"
	StatusFailed     Status = "FAILED"
)

var transitions = map[Status][]Status{
	StatusPending:    {StatusProcessing, StatusCompleted, StatusFailed},
	StatusProcessing: {StatusCompleted, StatusFailed},
	StatusFailed:     {StatusProcessing, StatusPending},
}

// CanTransition reports whether a payment may move from s to next.
func (s Status) CanTransition(next Status) bool {
	for _, to := range transitions[s] {
		if to == next {
			return true
		}
	}
	return false
}

// MonthlyPayment is one committed payable line. Only its status and notes
// change after commit.
type MonthlyPayment struct {
	ID            string        `json:"id"`
	Date          types.Date    `json:"date"`
	Period        string        `json:"period"`
	RecipientType RecipientType `json:"recipientType"`
	RecipientID   string        `json:"recipientId"`
	Amount        types.Money   `json:"amount"`
	Method        Method        `json:"method"`
	Notes         string        `json:"notes,omitempty"`
	PaymentRunID  string        `json:"paymentRunId"`

	Status        Status `json:"paymentStatus"`
	TransactionID string `json:"transactionId,omitempty"`
	FailureReason string `json:"failureReason,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
}

// GetID implements entity.Entity.
func (p *MonthlyPayment) GetID() string { return p.ID }

// Validate implements entity.Validatable interface.
func (p *MonthlyPayment) Validate(_ context.Context) error {
	switch {
	case p.Date.IsZero():
		return apperror.NewFieldValidation("date", "date is required")
	case p.RecipientID == "":
		return apperror.NewFieldValidation("recipientId", "recipient is required")
	case !p.Amount.IsPositive():
		return apperror.NewFieldValidation("amount", "amount must be positive").
			WithDetail("value", p.Amount.String())
	case !p.Method.Valid():
		return apperror.NewFieldValidation("method", "unknown payment method").
			WithDetail("value", string(p.Method))
	}
	switch p.RecipientType {
	case RecipientFarmer, RecipientServiceProvider, RecipientEmployee:
	default:
		return apperror.NewFieldValidation("recipientType", "unknown recipient type").
			WithDetail("value", string(p.RecipientType))
	}
	return nil
}
