package inventory

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"shopledger/internal/core/apperror"
	"shopledger/internal/core/tx"
	"shopledger/internal/core/types"
	"shopledger/pkg/logger"
)

// Service provides business operations over the stock-tracking ledger:
// purchase receipts (weighted-average recosting), batch assignment,
// batch release and stock issue.
//
// Every mutating operation runs as one storage transaction with a row lock
// on the product, so concurrent requests on the same product serialize.
type Service struct {
	repo Repository
	txm  tx.Manager
}

// NewService creates a new inventory service.
func NewService(repo Repository, txm tx.Manager) *Service {
	return &Service{
		repo: repo,
		txm:  txm,
	}
}

// --- Inputs ---

// PurchaseReceiptInput describes an inbound purchase line.
type PurchaseReceiptInput struct {
	ProductID int64
	Quantity  int64
	Rate      types.Money
}

// BatchAssignmentInput converts untracked stock into a batch, optionally
// with serial records. Product total quantity is unchanged by assignment.
type BatchAssignmentInput struct {
	ProductID   int64
	Quantity    int64
	BatchNumber string

	Location   *string
	ExpiryDate *time.Time
	MfgDate    *time.Time

	MRP            *types.Money
	OfferPrice     *types.Money
	WholesalePrice *types.Money

	Serials []string
}

// StockIssueInput describes a sale or removal of stock.
type StockIssueInput struct {
	ProductID int64
	Quantity  int64

	// BatchUID targets a specific batch; required for serial-tracked
	// products, optional otherwise (absent means issue from untracked pool).
	BatchUID string

	// Serials being sold; required for serial-tracked products, count must
	// equal Quantity.
	Serials []string
}

// --- Operations ---

// ReceivePurchase applies a purchase line to a product: recomputes the
// weighted-average acquisition cost and the total quantity, and persists
// both within one transaction.
//
// Zero-quantity receipts are legal no-ops returning the current state.
func (s *Service) ReceivePurchase(ctx context.Context, in PurchaseReceiptInput) (CostResult, error) {
	var result CostResult

	if in.Quantity < 0 {
		return result, apperror.NewValidation("quantity cannot be negative").
			WithDetail("field", "quantity")
	}
	if in.Rate.IsNegative() {
		return result, apperror.NewValidation("rate cannot be negative").
			WithDetail("field", "rate")
	}

	err := s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		product, err := s.repo.GetProductForUpdate(ctx, in.ProductID)
		if err != nil {
			return err
		}

		result = RecomputeAverageCost(product.Quantity, product.AveragePurchasePrice, in.Quantity, in.Rate)

		if in.Quantity == 0 {
			// Pass-through: nothing to persist.
			return nil
		}

		if err := s.repo.UpdateProductStock(ctx, in.ProductID, result.NewTotalQuantity, result.NewAverageCost); err != nil {
			return fmt.Errorf("update product stock: %w", err)
		}

		movement := Movement{
			ProductID: in.ProductID,
			Direction: DirectionIn,
			Quantity:  in.Quantity,
			Rate:      in.Rate,
			Amount:    in.Rate.Mul(decimal.NewFromInt(in.Quantity)),
		}
		if err := s.repo.RecordMovement(ctx, &movement); err != nil {
			return fmt.Errorf("record movement: %w", err)
		}
		return nil
	})
	if err != nil {
		return CostResult{}, err
	}

	logger.Info(ctx, "purchase received",
		"product_id", in.ProductID,
		"quantity", in.Quantity,
		"new_total", result.NewTotalQuantity,
		"new_average_cost", result.NewAverageCost,
	)

	return result, nil
}

// AssignToBatch re-partitions untracked stock of a product into a batch,
// creating serial records when the product is serial-tracked. The product's
// aggregate quantity is unchanged: this is neither a purchase nor a sale.
//
// The whole assignment is all-or-nothing; validation failures leave state
// untouched.
func (s *Service) AssignToBatch(ctx context.Context, in BatchAssignmentInput) (Batch, error) {
	var batch Batch

	if in.BatchNumber == "" {
		return batch, apperror.NewValidation("batch number is required").
			WithDetail("field", "batchNumber")
	}
	if in.Quantity <= 0 {
		return batch, apperror.NewValidation("quantity must be positive").
			WithDetail("field", "quantity")
	}
	if dup := firstDuplicate(in.Serials); dup != "" {
		return batch, apperror.NewValidation("duplicate serial number in request").
			WithDetail("serial", dup)
	}

	err := s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		product, err := s.repo.GetProductForUpdate(ctx, in.ProductID)
		if err != nil {
			return err
		}

		if product.TrackingType == TrackingSerial {
			if int64(len(in.Serials)) != in.Quantity {
				return apperror.NewBusinessRule(apperror.CodeTrackingMismatch,
					"serial count must equal quantity").
					WithDetail("quantity", in.Quantity).
					WithDetail("serials", len(in.Serials))
			}
		} else if len(in.Serials) > 0 {
			return apperror.NewValidation("serials are only accepted for serial-tracked products").
				WithDetail("trackingType", string(product.TrackingType))
		}

		tracked, err := s.repo.SumBatchQuantities(ctx, in.ProductID)
		if err != nil {
			return fmt.Errorf("sum batch quantities: %w", err)
		}
		available := product.Quantity - tracked
		if in.Quantity > available {
			return apperror.NewInsufficientStock(in.ProductID, in.Quantity, available)
		}

		if len(in.Serials) > 0 {
			existing, err := s.repo.FindExistingSerials(ctx, in.ProductID, in.Serials)
			if err != nil {
				return fmt.Errorf("check serials: %w", err)
			}
			if len(existing) > 0 {
				return apperror.NewDuplicate("serial", "serial_number", existing[0])
			}
		}

		batch, err = s.resolveTargetBatch(ctx, in)
		if err != nil {
			return err
		}

		if len(in.Serials) > 0 {
			batchID := batch.ID
			serials := make([]Serial, 0, len(in.Serials))
			for _, sn := range in.Serials {
				serials = append(serials, Serial{
					ProductID:    in.ProductID,
					BatchID:      &batchID,
					SerialNumber: sn,
					Status:       SerialActive,
				})
			}
			if err := s.repo.CreateSerials(ctx, serials); err != nil {
				return fmt.Errorf("create serials: %w", err)
			}
		}

		return nil
	})
	if err != nil {
		return Batch{}, err
	}

	logger.Info(ctx, "stock assigned to batch",
		"product_id", in.ProductID,
		"batch_uid", batch.BatchUID,
		"quantity", in.Quantity,
		"serials", len(in.Serials),
	)

	return batch, nil
}

// resolveTargetBatch either increments an existing batch (when the caller
// supplied a generated uid) or creates a new one with a freshly allocated
// per-product sequence number. Runs inside the assignment transaction.
func (s *Service) resolveTargetBatch(ctx context.Context, in BatchAssignmentInput) (Batch, error) {
	if IsBatchUID(in.BatchNumber) {
		existing, err := s.repo.GetBatchByUID(ctx, in.ProductID, in.BatchNumber)
		if err != nil {
			return Batch{}, err
		}
		if err := s.repo.AddBatchQuantity(ctx, existing.ID, in.Quantity); err != nil {
			return Batch{}, fmt.Errorf("increment batch: %w", err)
		}
		existing.Quantity += in.Quantity
		return existing, nil
	}

	seq, err := s.repo.NextBatchSequence(ctx, in.ProductID)
	if err != nil {
		return Batch{}, fmt.Errorf("allocate batch sequence: %w", err)
	}

	batch := Batch{
		ProductID:      in.ProductID,
		BatchUID:       BatchUID(in.ProductID, seq),
		BatchNo:        in.BatchNumber,
		Quantity:       in.Quantity,
		ExpiryDate:     in.ExpiryDate,
		MfgDate:        in.MfgDate,
		MRP:            in.MRP,
		OfferPrice:     in.OfferPrice,
		WholesalePrice: in.WholesalePrice,
		Location:       in.Location,
	}
	if err := s.repo.CreateBatch(ctx, &batch); err != nil {
		return Batch{}, fmt.Errorf("create batch: %w", err)
	}
	return batch, nil
}

// ReleaseBatch dissolves a batch back into the untracked pool, removing its
// active serial records; sold serials are kept (detached) so sale history
// and number uniqueness survive. The product's aggregate quantity is
// unchanged: this is the reverse of AssignToBatch.
func (s *Service) ReleaseBatch(ctx context.Context, productID int64, batchUID string) error {
	if batchUID == "" {
		return apperror.NewValidation("batch uid is required").
			WithDetail("field", "batchUid")
	}

	err := s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.repo.GetProductForUpdate(ctx, productID); err != nil {
			return err
		}

		batch, err := s.repo.GetBatchByUID(ctx, productID, batchUID)
		if err != nil {
			return err
		}

		if err := s.repo.ReleaseSerialsByBatch(ctx, batch.ID); err != nil {
			return fmt.Errorf("release serials: %w", err)
		}
		if err := s.repo.DeleteBatch(ctx, batch.ID); err != nil {
			return fmt.Errorf("delete batch: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	logger.Info(ctx, "batch released to untracked pool",
		"product_id", productID,
		"batch_uid", batchUID,
	)
	return nil
}

// IssueStock removes sold stock from a product. For batch-targeted issues
// the batch quantity is decremented; serials being sold are marked sold.
// Average cost is unchanged by issues under the weighted-average method.
func (s *Service) IssueStock(ctx context.Context, in StockIssueInput) error {
	if in.Quantity <= 0 {
		return apperror.NewValidation("quantity must be positive").
			WithDetail("field", "quantity")
	}
	if dup := firstDuplicate(in.Serials); dup != "" {
		return apperror.NewValidation("duplicate serial number in request").
			WithDetail("serial", dup)
	}

	err := s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		product, err := s.repo.GetProductForUpdate(ctx, in.ProductID)
		if err != nil {
			return err
		}

		if product.TrackingType == TrackingSerial {
			if in.BatchUID == "" {
				return apperror.NewValidation("batch uid is required for serial-tracked products").
					WithDetail("field", "batchUid")
			}
			if int64(len(in.Serials)) != in.Quantity {
				return apperror.NewBusinessRule(apperror.CodeTrackingMismatch,
					"serial count must equal quantity").
					WithDetail("quantity", in.Quantity).
					WithDetail("serials", len(in.Serials))
			}
		} else if len(in.Serials) > 0 {
			return apperror.NewValidation("serials are only accepted for serial-tracked products").
				WithDetail("trackingType", string(product.TrackingType))
		}

		if in.BatchUID != "" {
			batch, err := s.repo.GetBatchByUID(ctx, in.ProductID, in.BatchUID)
			if err != nil {
				return err
			}
			if batch.Quantity < in.Quantity {
				return apperror.NewInsufficientStock(in.ProductID, in.Quantity, batch.Quantity)
			}
			if len(in.Serials) > 0 {
				if err := s.verifyActiveSerials(ctx, batch.ID, in.Serials); err != nil {
					return err
				}
			}
			if err := s.repo.AddBatchQuantity(ctx, batch.ID, -in.Quantity); err != nil {
				return fmt.Errorf("decrement batch: %w", err)
			}
		} else {
			tracked, err := s.repo.SumBatchQuantities(ctx, in.ProductID)
			if err != nil {
				return fmt.Errorf("sum batch quantities: %w", err)
			}
			available := product.Quantity - tracked
			if in.Quantity > available {
				return apperror.NewInsufficientStock(in.ProductID, in.Quantity, available)
			}
		}

		if len(in.Serials) > 0 {
			if err := s.repo.UpdateSerialStatus(ctx, in.ProductID, in.Serials, SerialSold); err != nil {
				return fmt.Errorf("mark serials sold: %w", err)
			}
		}

		if err := s.repo.UpdateProductStock(ctx, in.ProductID, product.Quantity-in.Quantity, product.AveragePurchasePrice); err != nil {
			return fmt.Errorf("update product stock: %w", err)
		}

		movement := Movement{
			ProductID: in.ProductID,
			Direction: DirectionOut,
			Quantity:  in.Quantity,
			Rate:      product.AveragePurchasePrice,
			Amount:    product.AveragePurchasePrice.Mul(decimal.NewFromInt(in.Quantity)),
		}
		if in.BatchUID != "" {
			uid := in.BatchUID
			movement.BatchUID = &uid
		}
		if err := s.repo.RecordMovement(ctx, &movement); err != nil {
			return fmt.Errorf("record movement: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	logger.Info(ctx, "stock issued",
		"product_id", in.ProductID,
		"quantity", in.Quantity,
		"batch_uid", in.BatchUID,
	)
	return nil
}

// verifyActiveSerials confirms every serial being sold is an active unit of
// the targeted batch. Invariant: a batch's quantity equals its count of
// active serials, so decrementing for a foreign or already-sold serial would
// desynchronize the two.
func (s *Service) verifyActiveSerials(ctx context.Context, batchID int64, serialNumbers []string) error {
	inBatch, err := s.repo.ListSerialsByBatch(ctx, batchID)
	if err != nil {
		return fmt.Errorf("list batch serials: %w", err)
	}

	statuses := make(map[string]SerialStatus, len(inBatch))
	for _, sn := range inBatch {
		statuses[sn.SerialNumber] = sn.Status
	}

	for _, sn := range serialNumbers {
		status, ok := statuses[sn]
		if !ok {
			return apperror.NewValidation("serial does not belong to the batch").
				WithDetail("serial", sn)
		}
		if status != SerialActive {
			return apperror.NewValidation("serial is not active").
				WithDetail("serial", sn).
				WithDetail("status", string(status))
		}
	}

	return nil
}

// --- Catalog support ---

// CreateProduct validates and persists a new product.
func (s *Service) CreateProduct(ctx context.Context, p *Product) error {
	if p.TrackingType == "" {
		p.TrackingType = TrackingNone
	}
	if err := p.Validate(ctx); err != nil {
		return err
	}

	return s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.repo.CreateProduct(ctx, p)
	})
}

// GetProduct returns a product by id.
func (s *Service) GetProduct(ctx context.Context, productID int64) (Product, error) {
	return s.repo.GetProduct(ctx, productID)
}

// ListProducts returns products matching the filter.
func (s *Service) ListProducts(ctx context.Context, filter ProductFilter) ([]Product, error) {
	return s.repo.ListProducts(ctx, filter)
}

// ListLowStock returns products at or below their low-stock threshold.
func (s *Service) ListLowStock(ctx context.Context) ([]Product, error) {
	return s.repo.ListLowStock(ctx)
}

// ListBatches returns the batches of a product.
func (s *Service) ListBatches(ctx context.Context, productID int64) ([]Batch, error) {
	if _, err := s.repo.GetProduct(ctx, productID); err != nil {
		return nil, err
	}
	return s.repo.ListBatches(ctx, productID)
}

// UntrackedQuantity returns how much of a product's stock is not yet
// assigned to any batch.
func (s *Service) UntrackedQuantity(ctx context.Context, productID int64) (int64, error) {
	product, err := s.repo.GetProduct(ctx, productID)
	if err != nil {
		return 0, err
	}
	tracked, err := s.repo.SumBatchQuantities(ctx, productID)
	if err != nil {
		return 0, err
	}
	return product.Quantity - tracked, nil
}

func firstDuplicate(serials []string) string {
	if len(serials) < 2 {
		return ""
	}
	seen := make(map[string]struct{}, len(serials))
	for _, sn := range serials {
		if _, ok := seen[sn]; ok {
			return sn
		}
		seen[sn] = struct{}{}
	}
	return ""
}
