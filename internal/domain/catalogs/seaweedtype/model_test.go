package seaweedtype

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"sealedger/internal/core/types"
)

func TestPriceAtPicksEntryInForce(t *testing.T) {
	st := NewSeaweedType("Cottonii", types.NewMoney(300), types.NewMoney(900), types.MustDate("2024-01-01"))
	st.AddPrice(PricePoint{Date: types.MustDate("2024-06-01"), WetPrice: types.NewMoney(400), DryPrice: types.NewMoney(1000)})

	assert.True(t, st.PriceAt(types.MustDate("2024-03-15")).WetPrice.Equal(types.NewMoney(300)))
	assert.True(t, st.PriceAt(types.MustDate("2024-06-01")).WetPrice.Equal(types.NewMoney(400)))
	assert.True(t, st.PriceAt(types.MustDate("2025-01-01")).DryPrice.Equal(types.NewMoney(1000)))
	// Before the first entry the earliest known price applies.
	assert.True(t, st.PriceAt(types.MustDate("2023-01-01")).WetPrice.Equal(types.NewMoney(300)))
}

func TestAddPriceKeepsHistoryOrdered(t *testing.T) {
	st := NewSeaweedType("Spinosum", types.NewMoney(200), types.NewMoney(700), types.MustDate("2024-05-01"))
	st.AddPrice(PricePoint{Date: types.MustDate("2024-01-01"), WetPrice: types.NewMoney(150), DryPrice: types.NewMoney(600)})

	assert.Equal(t, types.MustDate("2024-01-01"), st.PriceHistory[0].Date)
	// Current prices follow the latest dated entry, not the last appended.
	assert.True(t, st.WetPrice.Equal(types.NewMoney(200)))
}

func TestValidateRejectsNegativePrices(t *testing.T) {
	st := NewSeaweedType("Bad", types.NewMoney(-1), types.Zero(), types.MustDate("2024-01-01"))
	assert.Error(t, st.Validate(context.Background()))

	empty := NewSeaweedType("", types.Zero(), types.Zero(), types.MustDate("2024-01-01"))
	assert.Error(t, empty.Validate(context.Background()))
}
