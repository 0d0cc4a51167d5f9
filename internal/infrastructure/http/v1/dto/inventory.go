package dto

import (
	"time"

	"shopledger/internal/core/types"
	"shopledger/internal/domain/inventory"
)

// --- Products ---

// CreateProductRequest for creating products.
type CreateProductRequest struct {
	Name              string       `json:"name" binding:"required"`
	SKU               *string      `json:"sku"`
	Quantity          int64        `json:"quantity"`
	TrackingType      string       `json:"trackingType"`
	MRP               *types.Money `json:"mrp"`
	OfferPrice        *types.Money `json:"offerPrice"`
	WholesalePrice    *types.Money `json:"wholesalePrice"`
	LowStockThreshold int64        `json:"lowStockThreshold"`
}

// ToProduct converts the request into a domain product.
func (r CreateProductRequest) ToProduct() inventory.Product {
	p := inventory.Product{
		Name:              r.Name,
		SKU:               r.SKU,
		Quantity:          r.Quantity,
		TrackingType:      inventory.TrackingType(r.TrackingType),
		LowStockThreshold: r.LowStockThreshold,
	}
	if r.MRP != nil {
		p.MRP = *r.MRP
	}
	if r.OfferPrice != nil {
		p.OfferPrice = *r.OfferPrice
	}
	if r.WholesalePrice != nil {
		p.WholesalePrice = *r.WholesalePrice
	}
	return p
}

// ProductFilterRequest for listing products.
type ProductFilterRequest struct {
	PaginationRequest
	Search       string `form:"search"`
	TrackingType string `form:"trackingType"`
}

// ToFilter converts query parameters into a domain filter.
func (r ProductFilterRequest) ToFilter() inventory.ProductFilter {
	f := inventory.ProductFilter{
		Search: r.Search,
		Limit:  r.Limit,
		Offset: r.Offset,
	}
	if r.TrackingType != "" {
		t := inventory.TrackingType(r.TrackingType)
		f.TrackingType = &t
	}
	return f
}

// --- Purchases ---

// PurchaseReceiptRequest applies one purchase line to a product.
type PurchaseReceiptRequest struct {
	ProductID int64       `json:"productId" binding:"required"`
	Quantity  int64       `json:"quantity"`
	Rate      types.Money `json:"rate"`
}

// PurchaseReceiptResponse returns the recomputed cost state.
type PurchaseReceiptResponse struct {
	ProductID        int64       `json:"productId"`
	NewTotalQuantity int64       `json:"newTotalQuantity"`
	NewAverageCost   types.Money `json:"newAverageCost"`
}

// --- Batches ---

// AssignBatchRequest partitions untracked stock into a batch.
type AssignBatchRequest struct {
	Quantity    int64  `json:"quantity" binding:"required"`
	BatchNumber string `json:"batchNumber" binding:"required"`

	Location   *string    `json:"location"`
	ExpiryDate *time.Time `json:"expiryDate"`
	MfgDate    *time.Time `json:"mfgDate"`

	MRP            *types.Money `json:"mrp"`
	OfferPrice     *types.Money `json:"offerPrice"`
	WholesalePrice *types.Money `json:"wholesalePrice"`

	Serials []string `json:"serials"`
}

// ToInput converts the request into a domain assignment input.
func (r AssignBatchRequest) ToInput(productID int64) inventory.BatchAssignmentInput {
	return inventory.BatchAssignmentInput{
		ProductID:      productID,
		Quantity:       r.Quantity,
		BatchNumber:    r.BatchNumber,
		Location:       r.Location,
		ExpiryDate:     r.ExpiryDate,
		MfgDate:        r.MfgDate,
		MRP:            r.MRP,
		OfferPrice:     r.OfferPrice,
		WholesalePrice: r.WholesalePrice,
		Serials:        r.Serials,
	}
}

// IssueStockRequest removes sold stock from a product.
type IssueStockRequest struct {
	Quantity int64    `json:"quantity" binding:"required"`
	BatchUID string   `json:"batchUid"`
	Serials  []string `json:"serials"`
}

// BatchListResponse wraps a product's batches with the untracked remainder.
type BatchListResponse struct {
	Batches           []inventory.Batch `json:"batches"`
	UntrackedQuantity int64             `json:"untrackedQuantity"`
}
