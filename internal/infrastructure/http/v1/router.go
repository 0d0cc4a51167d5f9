// Package v1 provides HTTP API version 1.
package v1

import (
	"github.com/gin-gonic/gin"

	"shopledger/internal/domain/audit"
	"shopledger/internal/domain/inventory"
	"shopledger/internal/domain/reports"
	"shopledger/internal/infrastructure/http/v1/handlers"
	"shopledger/internal/infrastructure/http/v1/middleware"
	"shopledger/internal/infrastructure/storage/postgres"
	"shopledger/pkg/logger"
)

// RouterConfig holds router dependencies.
type RouterConfig struct {
	// Pool is the database connection pool (for health checks).
	Pool *postgres.Pool

	// Logger for request logging.
	Logger *logger.Logger

	// InventoryService drives products, purchases and stock tracking.
	InventoryService *inventory.Service

	// ReportsService drives period and date-filtered reports.
	ReportsService *reports.Service

	// AuditRecorder receives one entry per API request.
	AuditRecorder *audit.Recorder

	// AuditStore serves the audit trail read side.
	AuditStore audit.Store
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// Global middleware (order matters!)
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.ErrorHandler())

	// Health endpoints are not audited.
	healthHandler := handlers.NewHealthHandler(cfg.Pool)
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
		health.GET("/info", healthHandler.Info)
	}

	base := handlers.NewBaseHandler()
	inventoryHandler := handlers.NewInventoryHandler(base, cfg.InventoryService)
	reportsHandler := handlers.NewReportsHandler(base, cfg.ReportsService)
	auditHandler := handlers.NewAuditHandler(base, cfg.AuditStore)

	api := router.Group("/api/v1")
	api.Use(middleware.Audit(cfg.AuditRecorder))
	{
		products := api.Group("/products")
		{
			products.POST("", inventoryHandler.CreateProduct)
			products.GET("", inventoryHandler.ListProducts)
			products.GET("/low-stock", inventoryHandler.ListLowStock)
			products.GET("/:id", inventoryHandler.GetProduct)

			products.GET("/:id/batches", inventoryHandler.ListBatches)
			products.POST("/:id/batches", inventoryHandler.AssignBatch)
			products.DELETE("/:id/batches/:uid", inventoryHandler.ReleaseBatch)
			products.POST("/:id/issue", inventoryHandler.IssueStock)
		}

		api.POST("/purchases", inventoryHandler.ReceivePurchase)

		reportsGroup := api.Group("/reports")
		{
			reportsGroup.GET("/gst", reportsHandler.GST)
			reportsGroup.GET("/sales", reportsHandler.Sales)
		}

		api.GET("/audit", auditHandler.ListRecent)
	}

	return router
}
