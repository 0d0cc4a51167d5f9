package inventory

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecomputeAverageCost_BlendsPurchase(t *testing.T) {
	// 10 units @ 20 on hand, receiving 5 units @ 50
	// new total = 15, new avg = (200 + 250) / 15 = 30
	result := RecomputeAverageCost(10, decimal.NewFromInt(20), 5, decimal.NewFromInt(50))

	assert.Equal(t, int64(15), result.NewTotalQuantity)
	assert.True(t, result.NewAverageCost.Equal(decimal.NewFromInt(30)),
		"expected 30, got %s", result.NewAverageCost)
}

func TestRecomputeAverageCost_EmptyProduct(t *testing.T) {
	result := RecomputeAverageCost(0, decimal.Zero, 0, decimal.Zero)

	assert.Equal(t, int64(0), result.NewTotalQuantity)
	assert.True(t, result.NewAverageCost.IsZero())
}

func TestRecomputeAverageCost_FirstPurchase(t *testing.T) {
	result := RecomputeAverageCost(0, decimal.Zero, 7, decimal.RequireFromString("12.50"))

	assert.Equal(t, int64(7), result.NewTotalQuantity)
	assert.True(t, result.NewAverageCost.Equal(decimal.RequireFromString("12.50")))
}

func TestRecomputeAverageCost_ZeroQuantityPassThrough(t *testing.T) {
	// Zero incoming quantity must leave quantity and cost untouched.
	result := RecomputeAverageCost(10, decimal.NewFromInt(20), 0, decimal.NewFromInt(99))

	assert.Equal(t, int64(10), result.NewTotalQuantity)
	assert.True(t, result.NewAverageCost.Equal(decimal.NewFromInt(20)))
}

func TestRecomputeAverageCost_Properties(t *testing.T) {
	cases := []struct {
		oldQty int64
		oldAvg string
		inQty  int64
		inRate string
	}{
		{0, "0", 0, "0"},
		{0, "0", 1, "100"},
		{1, "100", 0, "0"},
		{3, "10.33", 7, "42.1"},
		{100, "0.01", 1, "999.99"},
		{9999, "123.456", 1, "0"},
	}

	for _, tc := range cases {
		oldAvg := decimal.RequireFromString(tc.oldAvg)
		inRate := decimal.RequireFromString(tc.inRate)

		result := RecomputeAverageCost(tc.oldQty, oldAvg, tc.inQty, inRate)

		require.Equal(t, tc.oldQty+tc.inQty, result.NewTotalQuantity)

		if result.NewTotalQuantity == 0 {
			assert.True(t, result.NewAverageCost.IsZero())
			continue
		}

		expected := oldAvg.Mul(decimal.NewFromInt(tc.oldQty)).
			Add(inRate.Mul(decimal.NewFromInt(tc.inQty))).
			Div(decimal.NewFromInt(result.NewTotalQuantity))
		assert.True(t, result.NewAverageCost.Equal(expected),
			"oldQty=%d oldAvg=%s inQty=%d inRate=%s: expected %s, got %s",
			tc.oldQty, tc.oldAvg, tc.inQty, tc.inRate, expected, result.NewAverageCost)
	}
}
