package metrics_test

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sealedger/internal/infrastructure/metrics"
)

func TestCountersAndHandler(t *testing.T) {
	m := metrics.New()

	m.TransactionFinished("write", "commit", 3*time.Millisecond)
	m.TransactionFinished("write", "rollback", time.Millisecond)
	m.MovementsPosted("site", "FARMER_DELIVERY", 2)
	m.MovementsPosted("warehouse", "EXPORT_OUT", 1)
	m.DisbursementFinished("completed", 200*time.Millisecond)

	families, err := m.Registry().Gather()
	require.NoError(t, err)
	var movementSeries int
	for _, f := range families {
		if f.GetName() == "sealedger_stock_movements_total" {
			movementSeries = len(f.GetMetric())
		}
	}
	assert.Equal(t, 2, movementSeries)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `sealedger_transactions_total{mode="write",outcome="commit"} 1`)
	assert.Contains(t, string(body), `sealedger_stock_movements_total{ledger="site",type="FARMER_DELIVERY"} 2`)
	assert.Contains(t, string(body), `sealedger_disbursements_total{outcome="completed"} 1`)
}
