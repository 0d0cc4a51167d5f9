package inventory

import (
	"github.com/shopspring/decimal"

	"shopledger/internal/core/types"
)

// CostResult is the outcome of a weighted-average cost recomputation.
type CostResult struct {
	// NewAverageCost is the blended per-unit acquisition cost.
	NewAverageCost types.Money `json:"newAverageCost"`

	// NewTotalQuantity is the quantity on hand after the receipt.
	NewTotalQuantity int64 `json:"newTotalQuantity"`
}

// RecomputeAverageCost blends an incoming purchase into the running
// weighted-average unit cost:
//
//	newAvg = (oldQty*oldAvg + incomingQty*incomingRate) / (oldQty + incomingQty)
//
// A zero resulting quantity yields {0, 0}: a product with no stock has no
// defined cost. The function is pure; persisting the result onto the product
// is the caller's job, inside the same transaction as the triggering receipt.
func RecomputeAverageCost(oldQty int64, oldAvgCost types.Money, incomingQty int64, incomingRate types.Money) CostResult {
	newTotal := oldQty + incomingQty
	if newTotal == 0 {
		return CostResult{NewAverageCost: types.Zero(), NewTotalQuantity: 0}
	}

	oldValue := oldAvgCost.Mul(decimal.NewFromInt(oldQty))
	newValue := incomingRate.Mul(decimal.NewFromInt(incomingQty))
	totalValue := oldValue.Add(newValue)

	return CostResult{
		NewAverageCost:   totalValue.Div(decimal.NewFromInt(newTotal)),
		NewTotalQuantity: newTotal,
	}
}
