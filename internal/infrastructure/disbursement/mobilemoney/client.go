// Package mobilemoney is a resty-backed payout client for a mobile money
// aggregator. It implements payments.Disburser.
package mobilemoney

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"sealedger/internal/domain/payments"
	"sealedger/pkg/logger"
)

// Compile-time check that Client implements payments.Disburser.
var _ payments.Disburser = (*Client)(nil)

// Provider statuses.
const (
	StatusSuccessful = "SUCCESSFUL"
	StatusFailed     = "FAILED"
)

// Config configures the client.
type Config struct {
	BaseURL  string
	APIKey   string
	Currency string
	Timeout  time.Duration
}

// Observer is notified of every provider round trip.
type Observer interface {
	DisbursementFinished(outcome string, elapsed time.Duration)
}

// Client calls POST {BaseURL}/disbursements.
type Client struct {
	http     *resty.Client
	currency string
	observer Observer
}

// NewClient builds a client from cfg.
func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	currency := cfg.Currency
	if currency == "" {
		currency = "TZS"
	}

	restyClient := resty.New()
	restyClient.
		SetBaseURL(strings.TrimSuffix(cfg.BaseURL, "/")).
		SetHeader("Authorization", fmt.Sprintf("Bearer %s", cfg.APIKey)).
		SetHeader("Content-Type", "application/json").
		SetTimeout(timeout)

	return &Client{http: restyClient, currency: currency}
}

// SetObserver installs a metrics observer.
func (c *Client) SetObserver(o Observer) { c.observer = o }

type recipient struct {
	Name   string `json:"name"`
	MSISDN string `json:"msisdn"`
}

type disbursementRequest struct {
	ExternalID string    `json:"externalId"`
	Reference  string    `json:"reference"`
	Amount     string    `json:"amount"`
	Currency   string    `json:"currency"`
	Recipient  recipient `json:"recipient"`
}

type disbursementResponse struct {
	TransactionID string `json:"transactionId"`
	Status        string `json:"status"`
	Reason        string `json:"reason"`
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Initiate sends one payout. A 4xx answer with an error body is a declined
// payout; transport failures and 5xx answers are errors.
func (c *Client) Initiate(ctx context.Context, req payments.DisbursementRequest) (payments.DisbursementResult, error) {
	start := time.Now()
	result, err := c.initiate(ctx, req)

	outcome := "completed"
	switch {
	case err != nil:
		outcome = "error"
	case !result.Success:
		outcome = "declined"
	}
	if c.observer != nil {
		c.observer.DisbursementFinished(outcome, time.Since(start))
	}
	logger.Info(ctx, "mobile money disbursement",
		"payment_id", req.PaymentID,
		"outcome", outcome,
		"transaction_id", result.TransactionID,
	)
	return result, err
}

func (c *Client) initiate(ctx context.Context, req payments.DisbursementRequest) (payments.DisbursementResult, error) {
	if req.PhoneNumber == "" {
		return payments.DisbursementResult{FailureReason: "recipient has no mobile money number"}, nil
	}

	body := disbursementRequest{
		ExternalID: req.PaymentID,
		Reference:  req.Reference,
		Amount:     req.Amount.StringFixed(2),
		Currency:   c.currency,
		Recipient:  recipient{Name: req.RecipientName, MSISDN: req.PhoneNumber},
	}

	result := new(disbursementResponse)
	apiErr := new(apiError)

	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Idempotency-Key", req.PaymentID).
		SetBody(body).
		SetResult(result).
		SetError(apiErr).
		Post("/disbursements")
	if err != nil {
		return payments.DisbursementResult{}, fmt.Errorf("send disbursement: %w", err)
	}

	if code := resp.StatusCode(); code >= http.StatusInternalServerError {
		return payments.DisbursementResult{}, fmt.Errorf("mobile money api error: status=%d", code)
	} else if code >= http.StatusBadRequest {
		reason := apiErr.Message
		if reason == "" {
			reason = fmt.Sprintf("provider rejected the payout (status %d)", code)
		}
		return payments.DisbursementResult{FailureReason: reason}, nil
	}

	switch strings.ToUpper(result.Status) {
	case StatusSuccessful:
		if result.TransactionID == "" {
			return payments.DisbursementResult{}, fmt.Errorf("mobile money api returned no transaction id")
		}
		return payments.DisbursementResult{Success: true, TransactionID: result.TransactionID}, nil
	case StatusFailed:
		reason := result.Reason
		if reason == "" {
			reason = "declined by provider"
		}
		return payments.DisbursementResult{TransactionID: result.TransactionID, FailureReason: reason}, nil
	default:
		return payments.DisbursementResult{}, fmt.Errorf("mobile money api returned unknown status %q", result.Status)
	}
}
