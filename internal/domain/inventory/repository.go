package inventory

import (
	"context"

	"shopledger/internal/core/types"
)

// Repository defines storage operations for products, batches and serials.
//
// All mutating methods are expected to run inside an ambient transaction
// (see core/tx.Manager); implementations join the transaction from context.
type Repository interface {
	// Product operations

	// CreateProduct inserts a new product and fills its ID.
	CreateProduct(ctx context.Context, p *Product) error

	// GetProduct returns a product by id (apperror.NotFound if missing).
	GetProduct(ctx context.Context, productID int64) (Product, error)

	// GetProductForUpdate returns a product with a row lock.
	// Every read-modify-write cycle on stock must go through this.
	GetProductForUpdate(ctx context.Context, productID int64) (Product, error)

	// ListProducts returns products matching the filter.
	ListProducts(ctx context.Context, filter ProductFilter) ([]Product, error)

	// ListLowStock returns products at or below their low-stock threshold.
	ListLowStock(ctx context.Context) ([]Product, error)

	// UpdateProductStock persists recomputed quantity and average cost.
	UpdateProductStock(ctx context.Context, productID int64, quantity int64, averageCost types.Money) error

	// Batch operations

	// GetBatchByUID returns a batch by (productID, batchUID).
	GetBatchByUID(ctx context.Context, productID int64, batchUID string) (Batch, error)

	// ListBatches returns all batches of a product.
	ListBatches(ctx context.Context, productID int64) ([]Batch, error)

	// SumBatchQuantities returns the total quantity held in batches.
	// Untracked availability = product quantity - this sum.
	SumBatchQuantities(ctx context.Context, productID int64) (int64, error)

	// CreateBatch inserts a new batch and fills its ID.
	CreateBatch(ctx context.Context, b *Batch) error

	// AddBatchQuantity adjusts a batch quantity by delta (may be negative).
	AddBatchQuantity(ctx context.Context, batchID int64, delta int64) error

	// DeleteBatch removes a batch row.
	DeleteBatch(ctx context.Context, batchID int64) error

	// NextBatchSequence atomically allocates the next per-product batch
	// sequence number within the ambient transaction.
	NextBatchSequence(ctx context.Context, productID int64) (int64, error)

	// Movement register

	// RecordMovement appends one row to the stock movement register
	// within the ambient transaction.
	RecordMovement(ctx context.Context, m *Movement) error

	// Serial operations

	// CreateSerials batch inserts serial records.
	CreateSerials(ctx context.Context, serials []Serial) error

	// FindExistingSerials returns which of the given serial numbers already
	// exist for the product (case-sensitive exact match).
	FindExistingSerials(ctx context.Context, productID int64, serialNumbers []string) ([]string, error)

	// ListSerialsByBatch returns serial records belonging to a batch.
	ListSerialsByBatch(ctx context.Context, batchID int64) ([]Serial, error)

	// UpdateSerialStatus transitions the given serials of a product.
	UpdateSerialStatus(ctx context.Context, productID int64, serialNumbers []string, status SerialStatus) error

	// ReleaseSerialsByBatch removes the batch's active serials and detaches
	// the rest (sold/removed stay as history with no batch reference).
	ReleaseSerialsByBatch(ctx context.Context, batchID int64) error
}

// ProductFilter narrows product listings.
type ProductFilter struct {
	Search       string
	TrackingType *TrackingType
	Limit        int
	Offset       int
}
