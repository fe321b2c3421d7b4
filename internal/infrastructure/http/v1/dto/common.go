// Package dto provides request and response bodies of the ledger API that
// have no domain type of their own.
package dto

import (
	"sealedger/internal/core/types"
)

// --- List Response ---

// ListResponse wraps list results.
type ListResponse struct {
	Items      any   `json:"items"`
	TotalCount int64 `json:"totalCount"`
	Limit      int   `json:"limit,omitempty"`
	Offset     int   `json:"offset,omitempty"`
}

// NewListResponse wraps an unpaged list.
func NewListResponse[T any](items []T) ListResponse {
	if items == nil {
		items = []T{}
	}
	return ListResponse{Items: items, TotalCount: int64(len(items))}
}

// --- Batch requests ---

// IDsRequest selects records by id.
type IDsRequest struct {
	IDs []string `json:"ids" binding:"required,min=1"`
}

// DatedIDsRequest applies a dated operation to several records.
type DatedIDsRequest struct {
	IDs  []string   `json:"ids" binding:"required,min=1"`
	Date types.Date `json:"date"`
}

// MarkPaidRequest marks production records as paid by a run.
type MarkPaidRequest struct {
	IDs          []string   `json:"ids" binding:"required,min=1"`
	PaymentRunID string     `json:"paymentRunId"`
	Date         types.Date `json:"date"`
}

// AssignRequest assigns records to a farmer or a site.
type AssignRequest struct {
	IDs      []string `json:"ids" binding:"required,min=1"`
	FarmerID string   `json:"farmerId"`
	SiteID   string   `json:"siteId"`
}

// DateRequest carries one date.
type DateRequest struct {
	Date types.Date `json:"date"`
}

// FreeModuleRequest releases a module.
type FreeModuleRequest struct {
	Date  types.Date `json:"date"`
	Notes string     `json:"notes"`
}

// CancelRequest carries a cancellation reason.
type CancelRequest struct {
	Reason string `json:"reason"`
}

// --- Responses ---

// IDResponse for create operations.
type IDResponse struct {
	ID string `json:"id"`
}

// CountResponse reports how many records a batch touched.
type CountResponse struct {
	Count int `json:"count"`
}

// SuccessResponse for operations without data.
type SuccessResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// ErrorResponse for error details.
type ErrorResponse struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}
