package payments

import (
	"context"

	"sealedger/internal/core/types"
)

// DisbursementRequest is what a mobile money provider needs to pay out.
type DisbursementRequest struct {
	PaymentID     string
	Reference     string
	RecipientName string
	PhoneNumber   string
	Amount        types.Money
}

// DisbursementResult reports the provider's answer. A declined payout is a
// result with Success false, not an error.
type DisbursementResult struct {
	Success       bool
	TransactionID string
	FailureReason string
}

// Disburser sends mobile money payouts. An error means the provider could
// not be reached or answered garbage.
type Disburser interface {
	Initiate(ctx context.Context, req DisbursementRequest) (DisbursementResult, error)
}
