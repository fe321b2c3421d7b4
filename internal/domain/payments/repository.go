package payments

import (
	"sealedger/internal/domain"
)

// Collection is the store collection holding committed payments.
const Collection = "monthlyPayments"

// Repository gives typed access to payments.
type Repository = domain.Repository[*MonthlyPayment]

// NewRepository creates a payment repository.
func NewRepository() *Repository {
	return domain.NewRepository[*MonthlyPayment](Collection, "payment")
}

// ListFilter for filtering payments. Zero fields match everything.
type ListFilter struct {
	Period        string
	PaymentRunID  string
	RecipientType RecipientType
	RecipientID   string
	Status        Status
	Method        Method
}

// Match reports whether p satisfies the filter.
func (f ListFilter) Match(p *MonthlyPayment) bool {
	switch {
	case f.Period != "" && p.Period != f.Period,
		f.PaymentRunID != "" && p.PaymentRunID != f.PaymentRunID,
		f.RecipientType != "" && p.RecipientType != f.RecipientType,
		f.RecipientID != "" && p.RecipientID != f.RecipientID,
		f.Status != "" && p.Status != f.Status,
		f.Method != "" && p.Method != f.Method:
		return false
	}
	return true
}
