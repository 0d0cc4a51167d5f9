package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5/pgconn"

	"shopledger/internal/core/apperror"
	"shopledger/internal/core/types"
	"shopledger/internal/domain/inventory"
)

const (
	productsTable       = "products"
	batchesTable        = "batches"
	serialsTable        = "serials"
	movementsTable      = "stock_movements"
	batchSequencesTable = "batch_sequences"
)

var productColumns = []string{
	"id", "name", "sku", "quantity", "average_purchase_price", "tracking_type",
	"mrp", "offer_price", "wholesale_price", "low_stock_threshold",
	"created_at", "updated_at",
}

var batchColumns = []string{
	"id", "product_id", "batch_uid", "batch_no", "quantity",
	"expiry_date", "mfg_date", "mrp", "offer_price", "wholesale_price",
	"location", "created_at",
}

var serialColumns = []string{
	"id", "product_id", "batch_id", "serial_number", "status", "created_at",
}

// InventoryRepo implements inventory.Repository on PostgreSQL.
type InventoryRepo struct {
	txm     *TxManager
	builder squirrel.StatementBuilderType
}

// Compile-time check.
var _ inventory.Repository = (*InventoryRepo)(nil)

// NewInventoryRepo creates a new inventory repository.
func NewInventoryRepo(txm *TxManager) *InventoryRepo {
	return &InventoryRepo{
		txm:     txm,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// --- Products ---

// CreateProduct inserts a new product and fills its ID.
func (r *InventoryRepo) CreateProduct(ctx context.Context, p *inventory.Product) error {
	q := r.builder.Insert(productsTable).
		Columns("name", "sku", "quantity", "average_purchase_price", "tracking_type",
			"mrp", "offer_price", "wholesale_price", "low_stock_threshold").
		Values(p.Name, p.SKU, p.Quantity, p.AveragePurchasePrice, p.TrackingType,
			p.MRP, p.OfferPrice, p.WholesalePrice, p.LowStockThreshold).
		Suffix("RETURNING id, created_at, updated_at")

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	querier := r.txm.GetQuerier(ctx)
	if err := querier.QueryRow(ctx, sql, args...).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt); err != nil {
		if isUniqueViolation(err) {
			return apperror.NewDuplicate("product", "sku", derefOrEmpty(p.SKU))
		}
		return fmt.Errorf("insert product: %w", err)
	}

	return nil
}

// GetProduct returns a product by id.
func (r *InventoryRepo) GetProduct(ctx context.Context, productID int64) (inventory.Product, error) {
	var product inventory.Product

	q := r.builder.Select(productColumns...).
		From(productsTable).
		Where(squirrel.Eq{"id": productID}).
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return product, fmt.Errorf("build query: %w", err)
	}

	querier := r.txm.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &product, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return product, apperror.NewNotFound("product", productID)
		}
		return product, fmt.Errorf("get product: %w", err)
	}

	return product, nil
}

// GetProductForUpdate returns a product with a pessimistic row lock.
// Must run inside a transaction; the lock serializes all concurrent
// stock mutations on the product.
func (r *InventoryRepo) GetProductForUpdate(ctx context.Context, productID int64) (inventory.Product, error) {
	var product inventory.Product

	sql := `
		SELECT id, name, sku, quantity, average_purchase_price, tracking_type,
		       mrp, offer_price, wholesale_price, low_stock_threshold,
		       created_at, updated_at
		FROM products
		WHERE id = $1
		FOR UPDATE
	`

	querier := r.txm.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &product, sql, productID); err != nil {
		if pgxscan.NotFound(err) {
			return product, apperror.NewNotFound("product", productID)
		}
		return product, fmt.Errorf("get product for update: %w", err)
	}

	return product, nil
}

// ListProducts returns products matching the filter.
func (r *InventoryRepo) ListProducts(ctx context.Context, filter inventory.ProductFilter) ([]inventory.Product, error) {
	q := r.builder.Select(productColumns...).
		From(productsTable).
		OrderBy("id")

	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		q = q.Where(squirrel.Or{
			squirrel.ILike{"name": pattern},
			squirrel.ILike{"sku": pattern},
		})
	}
	if filter.TrackingType != nil {
		q = q.Where(squirrel.Eq{"tracking_type": *filter.TrackingType})
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	q = q.Limit(uint64(limit)).Offset(uint64(filter.Offset))

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var products []inventory.Product
	querier := r.txm.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &products, sql, args...); err != nil {
		return nil, fmt.Errorf("select products: %w", err)
	}

	return products, nil
}

// ListLowStock returns products at or below their low-stock threshold.
func (r *InventoryRepo) ListLowStock(ctx context.Context) ([]inventory.Product, error) {
	q := r.builder.Select(productColumns...).
		From(productsTable).
		Where("low_stock_threshold > 0 AND quantity <= low_stock_threshold").
		OrderBy("quantity")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var products []inventory.Product
	querier := r.txm.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &products, sql, args...); err != nil {
		return nil, fmt.Errorf("select low stock: %w", err)
	}

	return products, nil
}

// UpdateProductStock persists recomputed quantity and average cost.
func (r *InventoryRepo) UpdateProductStock(ctx context.Context, productID int64, quantity int64, averageCost types.Money) error {
	q := r.builder.Update(productsTable).
		Set("quantity", quantity).
		Set("average_purchase_price", averageCost).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": productID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	querier := r.txm.GetQuerier(ctx)
	tag, err := querier.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update product stock: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("product", productID)
	}

	return nil
}

// --- Batches ---

// GetBatchByUID returns a batch by (productID, batchUID).
func (r *InventoryRepo) GetBatchByUID(ctx context.Context, productID int64, batchUID string) (inventory.Batch, error) {
	var batch inventory.Batch

	q := r.builder.Select(batchColumns...).
		From(batchesTable).
		Where(squirrel.Eq{"product_id": productID, "batch_uid": batchUID}).
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return batch, fmt.Errorf("build query: %w", err)
	}

	querier := r.txm.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &batch, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return batch, apperror.NewNotFound("batch", batchUID)
		}
		return batch, fmt.Errorf("get batch: %w", err)
	}

	return batch, nil
}

// ListBatches returns all batches of a product.
func (r *InventoryRepo) ListBatches(ctx context.Context, productID int64) ([]inventory.Batch, error) {
	q := r.builder.Select(batchColumns...).
		From(batchesTable).
		Where(squirrel.Eq{"product_id": productID}).
		OrderBy("created_at")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var batches []inventory.Batch
	querier := r.txm.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &batches, sql, args...); err != nil {
		return nil, fmt.Errorf("select batches: %w", err)
	}

	return batches, nil
}

// SumBatchQuantities returns the total quantity held in batches.
func (r *InventoryRepo) SumBatchQuantities(ctx context.Context, productID int64) (int64, error) {
	sql := `SELECT COALESCE(SUM(quantity), 0) FROM batches WHERE product_id = $1`

	var sum int64
	querier := r.txm.GetQuerier(ctx)
	if err := querier.QueryRow(ctx, sql, productID).Scan(&sum); err != nil {
		return 0, fmt.Errorf("sum batch quantities: %w", err)
	}

	return sum, nil
}

// CreateBatch inserts a new batch and fills its ID.
func (r *InventoryRepo) CreateBatch(ctx context.Context, b *inventory.Batch) error {
	q := r.builder.Insert(batchesTable).
		Columns("product_id", "batch_uid", "batch_no", "quantity",
			"expiry_date", "mfg_date", "mrp", "offer_price", "wholesale_price", "location").
		Values(b.ProductID, b.BatchUID, b.BatchNo, b.Quantity,
			b.ExpiryDate, b.MfgDate, b.MRP, b.OfferPrice, b.WholesalePrice, b.Location).
		Suffix("RETURNING id, created_at")

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	querier := r.txm.GetQuerier(ctx)
	if err := querier.QueryRow(ctx, sql, args...).Scan(&b.ID, &b.CreatedAt); err != nil {
		if isUniqueViolation(err) {
			return apperror.NewDuplicate("batch", "batch_uid", b.BatchUID)
		}
		return fmt.Errorf("insert batch: %w", err)
	}

	return nil
}

// AddBatchQuantity adjusts a batch quantity by delta.
func (r *InventoryRepo) AddBatchQuantity(ctx context.Context, batchID int64, delta int64) error {
	sql := `UPDATE batches SET quantity = quantity + $2 WHERE id = $1`

	querier := r.txm.GetQuerier(ctx)
	tag, err := querier.Exec(ctx, sql, batchID, delta)
	if err != nil {
		return fmt.Errorf("adjust batch quantity: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("batch", batchID)
	}

	return nil
}

// DeleteBatch removes a batch row.
func (r *InventoryRepo) DeleteBatch(ctx context.Context, batchID int64) error {
	sql := `DELETE FROM batches WHERE id = $1`

	querier := r.txm.GetQuerier(ctx)
	if _, err := querier.Exec(ctx, sql, batchID); err != nil {
		return fmt.Errorf("delete batch: %w", err)
	}

	return nil
}

// NextBatchSequence atomically allocates the next per-product batch
// sequence number. UPSERT + RETURNING inside the ambient transaction, so
// concurrent assignments on the same product cannot observe the same value.
func (r *InventoryRepo) NextBatchSequence(ctx context.Context, productID int64) (int64, error) {
	sql := `
		INSERT INTO batch_sequences (product_id, current_val)
		VALUES ($1, 1)
		ON CONFLICT (product_id) DO UPDATE SET current_val = batch_sequences.current_val + 1
		RETURNING current_val
	`

	var seq int64
	querier := r.txm.GetQuerier(ctx)
	if err := querier.QueryRow(ctx, sql, productID).Scan(&seq); err != nil {
		return 0, fmt.Errorf("next batch sequence: %w", err)
	}

	return seq, nil
}

// --- Movements ---

// RecordMovement appends one row to the stock movement register.
func (r *InventoryRepo) RecordMovement(ctx context.Context, m *inventory.Movement) error {
	q := r.builder.Insert(movementsTable).
		Columns("product_id", "direction", "quantity", "rate", "amount", "batch_uid").
		Values(m.ProductID, m.Direction, m.Quantity, m.Rate, m.Amount, m.BatchUID).
		Suffix("RETURNING id, occurred_at")

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	querier := r.txm.GetQuerier(ctx)
	if err := querier.QueryRow(ctx, sql, args...).Scan(&m.ID, &m.OccurredAt); err != nil {
		return fmt.Errorf("insert movement: %w", err)
	}

	return nil
}

// --- Serials ---

// CreateSerials batch inserts serial records.
func (r *InventoryRepo) CreateSerials(ctx context.Context, serials []inventory.Serial) error {
	if len(serials) == 0 {
		return nil
	}

	q := r.builder.Insert(serialsTable).
		Columns("product_id", "batch_id", "serial_number", "status")

	for _, s := range serials {
		q = q.Values(s.ProductID, s.BatchID, s.SerialNumber, s.Status)
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	querier := r.txm.GetQuerier(ctx)
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		if isUniqueViolation(err) {
			return apperror.NewDuplicate("serial", "serial_number", serials[0].SerialNumber)
		}
		return fmt.Errorf("insert serials: %w", err)
	}

	return nil
}

// FindExistingSerials returns which of the given serial numbers already
// exist for the product.
func (r *InventoryRepo) FindExistingSerials(ctx context.Context, productID int64, serialNumbers []string) ([]string, error) {
	if len(serialNumbers) == 0 {
		return nil, nil
	}

	q := r.builder.Select("serial_number").
		From(serialsTable).
		Where(squirrel.Eq{"product_id": productID, "serial_number": serialNumbers})

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var existing []string
	querier := r.txm.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &existing, sql, args...); err != nil {
		return nil, fmt.Errorf("select serials: %w", err)
	}

	return existing, nil
}

// ListSerialsByBatch returns serial records belonging to a batch.
func (r *InventoryRepo) ListSerialsByBatch(ctx context.Context, batchID int64) ([]inventory.Serial, error) {
	q := r.builder.Select(serialColumns...).
		From(serialsTable).
		Where(squirrel.Eq{"batch_id": batchID}).
		OrderBy("serial_number")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var serials []inventory.Serial
	querier := r.txm.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &serials, sql, args...); err != nil {
		return nil, fmt.Errorf("select serials: %w", err)
	}

	return serials, nil
}

// UpdateSerialStatus transitions the given serials of a product.
func (r *InventoryRepo) UpdateSerialStatus(ctx context.Context, productID int64, serialNumbers []string, status inventory.SerialStatus) error {
	if len(serialNumbers) == 0 {
		return nil
	}

	q := r.builder.Update(serialsTable).
		Set("status", status).
		Where(squirrel.Eq{"product_id": productID, "serial_number": serialNumbers})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	querier := r.txm.GetQuerier(ctx)
	tag, err := querier.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update serial status: %w", err)
	}
	if tag.RowsAffected() != int64(len(serialNumbers)) {
		return apperror.NewNotFound("serial", serialNumbers)
	}

	return nil
}

// ReleaseSerialsByBatch removes the batch's active serials and detaches the
// rest, so sold serial numbers stay recorded and unique for the product.
func (r *InventoryRepo) ReleaseSerialsByBatch(ctx context.Context, batchID int64) error {
	querier := r.txm.GetQuerier(ctx)

	if _, err := querier.Exec(ctx,
		`DELETE FROM serials WHERE batch_id = $1 AND status = $2`,
		batchID, inventory.SerialActive,
	); err != nil {
		return fmt.Errorf("delete active serials: %w", err)
	}

	if _, err := querier.Exec(ctx,
		`UPDATE serials SET batch_id = NULL WHERE batch_id = $1`,
		batchID,
	); err != nil {
		return fmt.Errorf("detach serials: %w", err)
	}

	return nil
}

// --- helpers ---

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func derefOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
