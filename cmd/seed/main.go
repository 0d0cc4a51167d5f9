// Package main provides a CLI tool for applying the schema and seeding
// the database with demo data.
package main

import (
	"context"
	"fmt"
	"os"

	"shopledger/internal/core/types"
	"shopledger/internal/domain/inventory"
	"shopledger/internal/infrastructure/storage/postgres"
	"shopledger/pkg/logger"
)

func main() {
	log, err := logger.New(logger.Config{
		Level:       "info",
		Development: true,
	})
	if err != nil {
		fmt.Printf("failed to create logger: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL environment variable is required")
	}

	poolCfg := postgres.DefaultPoolConfig(dbURL)
	pool, err := postgres.NewPool(ctx, poolCfg)
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()

	log.Info("connected to database")

	if err := postgres.Migrate(ctx, pool); err != nil {
		log.Fatalw("failed to apply schema", "error", err)
	}
	log.Info("schema applied")

	if os.Getenv("SEED_DEMO_DATA") == "true" {
		if err := seedDemoData(ctx, pool, log); err != nil {
			log.Fatalw("failed to seed demo data", "error", err)
		}
	}

	log.Info("seeding completed successfully")
}

func seedDemoData(ctx context.Context, pool *postgres.Pool, log *logger.Logger) error {
	txManager := postgres.NewTxManager(pool)
	repo := postgres.NewInventoryRepo(txManager)
	service := inventory.NewService(repo, txManager)

	demo := []inventory.Product{
		{
			Name:              "Basmati Rice 5kg",
			SKU:               strPtr("RICE-5KG"),
			TrackingType:      inventory.TrackingNone,
			MRP:               types.MustMoney("650"),
			OfferPrice:        types.MustMoney("599"),
			WholesalePrice:    types.MustMoney("540"),
			LowStockThreshold: 10,
		},
		{
			Name:              "Paracetamol 500mg Strip",
			SKU:               strPtr("PARA-500"),
			TrackingType:      inventory.TrackingBatch,
			MRP:               types.MustMoney("30"),
			OfferPrice:        types.MustMoney("28"),
			LowStockThreshold: 50,
		},
		{
			Name:              "Wireless Mouse M220",
			SKU:               strPtr("MOUSE-M220"),
			TrackingType:      inventory.TrackingSerial,
			MRP:               types.MustMoney("1295"),
			OfferPrice:        types.MustMoney("999"),
			WholesalePrice:    types.MustMoney("850"),
			LowStockThreshold: 5,
		},
	}

	for i := range demo {
		if err := service.CreateProduct(ctx, &demo[i]); err != nil {
			return fmt.Errorf("create product %q: %w", demo[i].Name, err)
		}
		log.Infow("demo product created", "id", demo[i].ID, "name", demo[i].Name)
	}

	// Receive opening stock so the demo products carry an average cost.
	openings := []inventory.PurchaseReceiptInput{
		{ProductID: demo[0].ID, Quantity: 40, Rate: types.MustMoney("510")},
		{ProductID: demo[1].ID, Quantity: 200, Rate: types.MustMoney("18.50")},
		{ProductID: demo[2].ID, Quantity: 12, Rate: types.MustMoney("780")},
	}
	for _, in := range openings {
		if _, err := service.ReceivePurchase(ctx, in); err != nil {
			return fmt.Errorf("receive opening stock for product %d: %w", in.ProductID, err)
		}
	}

	return nil
}

func strPtr(s string) *string {
	return &s
}
