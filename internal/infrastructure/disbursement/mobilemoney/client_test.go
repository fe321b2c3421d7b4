package mobilemoney_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sealedger/internal/core/types"
	"sealedger/internal/domain/payments"
	"sealedger/internal/infrastructure/disbursement/mobilemoney"
)

type outcomes []string

func (o *outcomes) DisbursementFinished(outcome string, _ time.Duration) {
	*o = append(*o, outcome)
}

func newClient(t *testing.T, h http.HandlerFunc) (*mobilemoney.Client, *outcomes) {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c := mobilemoney.NewClient(mobilemoney.Config{BaseURL: srv.URL + "/", APIKey: "secret", Timeout: time.Second})
	obs := &outcomes{}
	c.SetObserver(obs)
	return c, obs
}

func request() payments.DisbursementRequest {
	return payments.DisbursementRequest{
		PaymentID:     "pay-1",
		Reference:     "June 2024",
		RecipientName: "Amina Juma",
		PhoneNumber:   "+255700000001",
		Amount:        types.MustMoney("25000"),
	}
}

func TestInitiateSuccess(t *testing.T) {
	c, obs := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/disbursements", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		assert.Equal(t, "pay-1", r.Header.Get("Idempotency-Key"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "25000.00", body["amount"])
		assert.Equal(t, "TZS", body["currency"])
		assert.Equal(t, "+255700000001", body["recipient"].(map[string]any)["msisdn"])

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"transactionId":"MM123","status":"SUCCESSFUL"}`))
	})

	res, err := c.Initiate(context.Background(), request())
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, "MM123", res.TransactionID)
	assert.Equal(t, outcomes{"completed"}, *obs)
}

func TestInitiateDeclined(t *testing.T) {
	c, obs := newClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"code":"INVALID_MSISDN","message":"unknown subscriber"}`))
	})

	res, err := c.Initiate(context.Background(), request())
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, "unknown subscriber", res.FailureReason)
	assert.Equal(t, outcomes{"declined"}, *obs)
}

func TestInitiateProviderFailedStatus(t *testing.T) {
	c, _ := newClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"transactionId":"MM9","status":"FAILED","reason":"insufficient float"}`))
	})

	res, err := c.Initiate(context.Background(), request())
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, "insufficient float", res.FailureReason)
}

func TestInitiateServerError(t *testing.T) {
	c, obs := newClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := c.Initiate(context.Background(), request())
	assert.ErrorContains(t, err, "status=502")
	assert.Equal(t, outcomes{"error"}, *obs)
}

func TestInitiateWithoutPhoneNumberDoesNotCallProvider(t *testing.T) {
	called := false
	c, _ := newClient(t, func(http.ResponseWriter, *http.Request) { called = true })

	req := request()
	req.PhoneNumber = ""
	res, err := c.Initiate(context.Background(), req)
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.False(t, called)
}
