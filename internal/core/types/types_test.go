package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuantityJSON(t *testing.T) {
	var q Quantity
	require.NoError(t, json.Unmarshal([]byte(`"12.5"`), &q))
	assert.Equal(t, Quantity(125000), q)

	require.NoError(t, json.Unmarshal([]byte(`7`), &q))
	assert.Equal(t, Kg(7), q)

	out, err := json.Marshal(Kg(290))
	require.NoError(t, err)
	assert.Equal(t, "290.0000", string(out))
}

func TestQuantityMulPrice(t *testing.T) {
	got := Kg(100).MulPrice(MustMoney("400"))
	assert.True(t, got.Equal(MustMoney("40000")), got.String())

	half := NewQuantityFromFloat64(0.5).MulPrice(MustMoney("3"))
	assert.True(t, half.Equal(MustMoney("1.5")), half.String())
}

func TestQuantityCeilDiv(t *testing.T) {
	assert.Equal(t, 0, Quantity(0).CeilDiv(50))
	assert.Equal(t, 1, Kg(50).CeilDiv(50))
	assert.Equal(t, 3, Kg(101).CeilDiv(50))
	assert.Equal(t, 1, NewQuantityFromFloat64(0.1).CeilDiv(50))
}

func TestMinMoney(t *testing.T) {
	got := MinMoney(MustMoney("40000"), MustMoney("40000"), MustMoney("50000"))
	assert.True(t, got.Equal(MustMoney("40000")))
}

func TestDateJSON(t *testing.T) {
	var d Date
	require.NoError(t, json.Unmarshal([]byte(`"2024-03-05"`), &d))
	assert.Equal(t, NewDate(2024, 3, 5), d)

	require.NoError(t, json.Unmarshal([]byte(`"2024-03-05T18:30:00Z"`), &d))
	assert.Equal(t, NewDate(2024, 3, 5), d)

	require.NoError(t, json.Unmarshal([]byte(`null`), &d))
	assert.True(t, d.IsZero())

	out, err := json.Marshal(struct {
		D Date `json:"d"`
	}{D: NewDate(2024, 12, 1)})
	require.NoError(t, err)
	assert.JSONEq(t, `{"d":"2024-12-01"}`, string(out))
}

func TestDateWithin(t *testing.T) {
	from, to := MustDate("2024-01-01"), MustDate("2024-01-31")

	assert.True(t, MustDate("2024-01-01").Within(from, to))
	assert.True(t, MustDate("2024-01-31").Within(from, to))
	assert.False(t, MustDate("2024-02-01").Within(from, to))
	assert.False(t, Date{}.Within(from, to))
	assert.True(t, MustDate("1999-01-01").Within(Date{}, to))
}
