package credit

import "sealedger/internal/domain"

// Store collections.
const (
	CreditCollection    = "farmerCredits"
	RepaymentCollection = "repayments"
)

// NewCreditRepository creates the credit repository.
func NewCreditRepository() *domain.Repository[*Credit] {
	return domain.NewRepository[*Credit](CreditCollection, "farmer credit")
}

// NewRepaymentRepository creates the repayment repository.
func NewRepaymentRepository() *domain.Repository[*Repayment] {
	return domain.NewRepository[*Repayment](RepaymentCollection, "repayment")
}
