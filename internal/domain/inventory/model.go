// Package inventory provides the product stock valuation and tracking core:
// weighted-average purchase costing, batch/lot tracking, and unit-level
// serial tracking over a single product quantity counter.
package inventory

import (
	"context"
	"time"

	"shopledger/internal/core/apperror"
	"shopledger/internal/core/types"
)

// TrackingType defines how a product's stock is tracked.
type TrackingType string

const (
	// TrackingNone - untracked bulk quantity only
	TrackingNone TrackingType = "none"

	// TrackingBatch - stock is partitioned into lots/batches
	TrackingBatch TrackingType = "batch"

	// TrackingSerial - one record per physical unit, grouped into batches
	TrackingSerial TrackingType = "serial"
)

// Product represents a sellable item with its stock counters and pricing.
//
// Invariant: Quantity always equals untracked stock plus the sum of all
// batch quantities. For serial-tracked products every batch quantity equals
// the count of active serials in that batch.
type Product struct {
	ID int64 `db:"id" json:"id"`

	Name string  `db:"name" json:"name"`
	SKU  *string `db:"sku" json:"sku,omitempty"`

	// Quantity is total units on hand across all tracking modes.
	Quantity int64 `db:"quantity" json:"quantity"`

	// AveragePurchasePrice is the running weighted-average acquisition
	// cost per unit. Recomputed on every purchase receipt.
	AveragePurchasePrice types.Money `db:"average_purchase_price" json:"averagePurchasePrice"`

	TrackingType TrackingType `db:"tracking_type" json:"trackingType"`

	// Pricing attributes
	MRP            types.Money `db:"mrp" json:"mrp"`
	OfferPrice     types.Money `db:"offer_price" json:"offerPrice"`
	WholesalePrice types.Money `db:"wholesale_price" json:"wholesalePrice"`

	LowStockThreshold int64 `db:"low_stock_threshold" json:"lowStockThreshold"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// Validate checks product fields before persistence.
func (p *Product) Validate(ctx context.Context) error {
	if p.Name == "" {
		return apperror.NewValidation("product name is required").
			WithDetail("field", "name")
	}

	if !isValidTrackingType(p.TrackingType) {
		return apperror.NewValidation("invalid tracking type").
			WithDetail("field", "trackingType").
			WithDetail("value", string(p.TrackingType))
	}

	if p.Quantity < 0 {
		return apperror.NewValidation("quantity cannot be negative").
			WithDetail("field", "quantity")
	}

	if p.AveragePurchasePrice.IsNegative() {
		return apperror.NewValidation("average purchase price cannot be negative").
			WithDetail("field", "averagePurchasePrice")
	}

	for field, price := range map[string]types.Money{
		"mrp":            p.MRP,
		"offerPrice":     p.OfferPrice,
		"wholesalePrice": p.WholesalePrice,
	} {
		if price.IsNegative() {
			return apperror.NewValidation("price cannot be negative").
				WithDetail("field", field)
		}
	}

	if p.LowStockThreshold < 0 {
		return apperror.NewValidation("low stock threshold cannot be negative").
			WithDetail("field", "lowStockThreshold")
	}

	return nil
}

// IsLowStock reports whether quantity fell to or below the threshold.
func (p *Product) IsLowStock() bool {
	return p.LowStockThreshold > 0 && p.Quantity <= p.LowStockThreshold
}

// Batch represents a lot of a product sharing attributes distinct from
// other quantities of the same product.
type Batch struct {
	ID        int64 `db:"id" json:"id"`
	ProductID int64 `db:"product_id" json:"productId"`

	// BatchUID is the generated identifier, unique per product.
	// Format: BAT-<productId>-<4-digit sequence>.
	BatchUID string `db:"batch_uid" json:"batchUid"`

	// BatchNo is the human-supplied lot label from the assignment request.
	BatchNo string `db:"batch_no" json:"batchNo"`

	Quantity int64 `db:"quantity" json:"quantity"`

	ExpiryDate *time.Time `db:"expiry_date" json:"expiryDate,omitempty"`
	MfgDate    *time.Time `db:"mfg_date" json:"mfgDate,omitempty"`

	// Optional per-batch price overrides
	MRP            *types.Money `db:"mrp" json:"mrp,omitempty"`
	OfferPrice     *types.Money `db:"offer_price" json:"offerPrice,omitempty"`
	WholesalePrice *types.Money `db:"wholesale_price" json:"wholesalePrice,omitempty"`

	Location *string `db:"location" json:"location,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// SerialStatus is the lifecycle state of a serialized unit.
type SerialStatus string

const (
	SerialActive  SerialStatus = "active"
	SerialSold    SerialStatus = "sold"
	SerialRemoved SerialStatus = "removed"
)

// Serial represents a single physical unit of a serial-tracked product.
// Sold serials outlive their batch: releasing a batch detaches them
// (BatchID nil) instead of erasing the sale history.
type Serial struct {
	ID        int64  `db:"id" json:"id"`
	ProductID int64  `db:"product_id" json:"productId"`
	BatchID   *int64 `db:"batch_id" json:"batchId,omitempty"`

	// SerialNumber is unique within the product (case-sensitive).
	SerialNumber string `db:"serial_number" json:"serialNumber"`

	Status SerialStatus `db:"status" json:"status"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// Direction of a stock movement.
type Direction string

const (
	// DirectionIn - purchase receipt
	DirectionIn Direction = "in"

	// DirectionOut - sales issue or removal
	DirectionOut Direction = "out"
)

// Movement is one row of the stock movement register. Every purchase
// receipt and stock issue records a movement in the same transaction;
// GST-period and date-filtered reports aggregate over this table.
type Movement struct {
	ID        int64     `db:"id" json:"id"`
	ProductID int64     `db:"product_id" json:"productId"`
	Direction Direction `db:"direction" json:"direction"`

	Quantity int64 `db:"quantity" json:"quantity"`

	// Rate is the per-unit value of the movement: the purchase rate for
	// receipts, the running average cost for issues.
	Rate   types.Money `db:"rate" json:"rate"`
	Amount types.Money `db:"amount" json:"amount"`

	BatchUID *string `db:"batch_uid" json:"batchUid,omitempty"`

	OccurredAt time.Time `db:"occurred_at" json:"occurredAt"`
}

func isValidTrackingType(t TrackingType) bool {
	switch t {
	case TrackingNone, TrackingBatch, TrackingSerial:
		return true
	}
	return false
}
