package handlers

import (
	"github.com/gin-gonic/gin"

	"shopledger/internal/domain/inventory"
	"shopledger/internal/infrastructure/http/v1/dto"
)

// InventoryHandler handles product, purchase and stock-tracking endpoints.
type InventoryHandler struct {
	*BaseHandler
	service *inventory.Service
}

// NewInventoryHandler creates a new inventory handler.
func NewInventoryHandler(base *BaseHandler, service *inventory.Service) *InventoryHandler {
	return &InventoryHandler{
		BaseHandler: base,
		service:     service,
	}
}

// CreateProduct handles POST /products.
func (h *InventoryHandler) CreateProduct(c *gin.Context) {
	var req dto.CreateProductRequest
	if !h.BindJSON(c, &req) {
		return
	}

	product := req.ToProduct()
	if err := h.service.CreateProduct(c.Request.Context(), &product); err != nil {
		h.Error(c, err)
		return
	}

	h.Created(c, product.ID)
}

// GetProduct handles GET /products/:id.
func (h *InventoryHandler) GetProduct(c *gin.Context) {
	productID, ok := h.ParamInt64(c, "id")
	if !ok {
		return
	}

	product, err := h.service.GetProduct(c.Request.Context(), productID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, product)
}

// ListProducts handles GET /products.
func (h *InventoryHandler) ListProducts(c *gin.Context) {
	var req dto.ProductFilterRequest
	if !h.BindQuery(c, &req) {
		return
	}
	req.Defaults()

	products, err := h.service.ListProducts(c.Request.Context(), req.ToFilter())
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.ListResponse{Items: products, Count: len(products)})
}

// ListLowStock handles GET /products/low-stock.
func (h *InventoryHandler) ListLowStock(c *gin.Context) {
	products, err := h.service.ListLowStock(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.ListResponse{Items: products, Count: len(products)})
}

// ReceivePurchase handles POST /purchases.
func (h *InventoryHandler) ReceivePurchase(c *gin.Context) {
	var req dto.PurchaseReceiptRequest
	if !h.BindJSON(c, &req) {
		return
	}

	result, err := h.service.ReceivePurchase(c.Request.Context(), inventory.PurchaseReceiptInput{
		ProductID: req.ProductID,
		Quantity:  req.Quantity,
		Rate:      req.Rate,
	})
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.PurchaseReceiptResponse{
		ProductID:        req.ProductID,
		NewTotalQuantity: result.NewTotalQuantity,
		NewAverageCost:   result.NewAverageCost,
	})
}

// AssignBatch handles POST /products/:id/batches.
func (h *InventoryHandler) AssignBatch(c *gin.Context) {
	productID, ok := h.ParamInt64(c, "id")
	if !ok {
		return
	}

	var req dto.AssignBatchRequest
	if !h.BindJSON(c, &req) {
		return
	}

	batch, err := h.service.AssignToBatch(c.Request.Context(), req.ToInput(productID))
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, batch)
}

// ListBatches handles GET /products/:id/batches.
func (h *InventoryHandler) ListBatches(c *gin.Context) {
	productID, ok := h.ParamInt64(c, "id")
	if !ok {
		return
	}

	ctx := c.Request.Context()
	batches, err := h.service.ListBatches(ctx, productID)
	if err != nil {
		h.Error(c, err)
		return
	}
	untracked, err := h.service.UntrackedQuantity(ctx, productID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.BatchListResponse{Batches: batches, UntrackedQuantity: untracked})
}

// ReleaseBatch handles DELETE /products/:id/batches/:uid.
func (h *InventoryHandler) ReleaseBatch(c *gin.Context) {
	productID, ok := h.ParamInt64(c, "id")
	if !ok {
		return
	}

	if err := h.service.ReleaseBatch(c.Request.Context(), productID, c.Param("uid")); err != nil {
		h.Error(c, err)
		return
	}

	h.NoContent(c)
}

// IssueStock handles POST /products/:id/issue.
func (h *InventoryHandler) IssueStock(c *gin.Context) {
	productID, ok := h.ParamInt64(c, "id")
	if !ok {
		return
	}

	var req dto.IssueStockRequest
	if !h.BindJSON(c, &req) {
		return
	}

	err := h.service.IssueStock(c.Request.Context(), inventory.StockIssueInput{
		ProductID: productID,
		Quantity:  req.Quantity,
		BatchUID:  req.BatchUID,
		Serials:   req.Serials,
	})
	if err != nil {
		h.Error(c, err)
		return
	}

	h.Success(c, "stock issued")
}
