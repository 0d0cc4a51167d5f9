package inventory

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shopledger/internal/core/apperror"
	"shopledger/internal/core/types"
)

// passthroughTxManager satisfies tx.Manager for unit tests.
type passthroughTxManager struct{}

func (passthroughTxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// fakeRepo is an in-memory Repository implementation.
type fakeRepo struct {
	products  map[int64]Product
	batches   map[int64]Batch
	serials   map[int64]Serial
	sequences map[int64]int64
	movements []Movement

	nextBatchID  int64
	nextSerialID int64
}

func newFakeRepo(products ...Product) *fakeRepo {
	r := &fakeRepo{
		products:  make(map[int64]Product),
		batches:   make(map[int64]Batch),
		serials:   make(map[int64]Serial),
		sequences: make(map[int64]int64),
	}
	for _, p := range products {
		r.products[p.ID] = p
	}
	return r
}

func (r *fakeRepo) CreateProduct(ctx context.Context, p *Product) error {
	p.ID = int64(len(r.products) + 1)
	r.products[p.ID] = *p
	return nil
}

func (r *fakeRepo) GetProduct(ctx context.Context, productID int64) (Product, error) {
	p, ok := r.products[productID]
	if !ok {
		return Product{}, apperror.NewNotFound("product", productID)
	}
	return p, nil
}

func (r *fakeRepo) GetProductForUpdate(ctx context.Context, productID int64) (Product, error) {
	return r.GetProduct(ctx, productID)
}

func (r *fakeRepo) ListProducts(ctx context.Context, filter ProductFilter) ([]Product, error) {
	var out []Product
	for _, p := range r.products {
		out = append(out, p)
	}
	return out, nil
}

func (r *fakeRepo) ListLowStock(ctx context.Context) ([]Product, error) {
	var out []Product
	for _, p := range r.products {
		if p.IsLowStock() {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *fakeRepo) UpdateProductStock(ctx context.Context, productID int64, quantity int64, averageCost types.Money) error {
	p, ok := r.products[productID]
	if !ok {
		return apperror.NewNotFound("product", productID)
	}
	p.Quantity = quantity
	p.AveragePurchasePrice = averageCost
	r.products[productID] = p
	return nil
}

func (r *fakeRepo) GetBatchByUID(ctx context.Context, productID int64, batchUID string) (Batch, error) {
	for _, b := range r.batches {
		if b.ProductID == productID && b.BatchUID == batchUID {
			return b, nil
		}
	}
	return Batch{}, apperror.NewNotFound("batch", batchUID)
}

func (r *fakeRepo) ListBatches(ctx context.Context, productID int64) ([]Batch, error) {
	var out []Batch
	for _, b := range r.batches {
		if b.ProductID == productID {
			out = append(out, b)
		}
	}
	return out, nil
}

func (r *fakeRepo) SumBatchQuantities(ctx context.Context, productID int64) (int64, error) {
	var sum int64
	for _, b := range r.batches {
		if b.ProductID == productID {
			sum += b.Quantity
		}
	}
	return sum, nil
}

func (r *fakeRepo) CreateBatch(ctx context.Context, b *Batch) error {
	r.nextBatchID++
	b.ID = r.nextBatchID
	r.batches[b.ID] = *b
	return nil
}

func (r *fakeRepo) AddBatchQuantity(ctx context.Context, batchID int64, delta int64) error {
	b, ok := r.batches[batchID]
	if !ok {
		return apperror.NewNotFound("batch", batchID)
	}
	b.Quantity += delta
	r.batches[batchID] = b
	return nil
}

func (r *fakeRepo) DeleteBatch(ctx context.Context, batchID int64) error {
	delete(r.batches, batchID)
	return nil
}

func (r *fakeRepo) NextBatchSequence(ctx context.Context, productID int64) (int64, error) {
	r.sequences[productID]++
	return r.sequences[productID], nil
}

func (r *fakeRepo) RecordMovement(ctx context.Context, m *Movement) error {
	m.ID = int64(len(r.movements) + 1)
	r.movements = append(r.movements, *m)
	return nil
}

func (r *fakeRepo) CreateSerials(ctx context.Context, serials []Serial) error {
	for _, s := range serials {
		r.nextSerialID++
		s.ID = r.nextSerialID
		r.serials[s.ID] = s
	}
	return nil
}

func (r *fakeRepo) FindExistingSerials(ctx context.Context, productID int64, serialNumbers []string) ([]string, error) {
	var existing []string
	for _, sn := range serialNumbers {
		for _, s := range r.serials {
			if s.ProductID == productID && s.SerialNumber == sn {
				existing = append(existing, sn)
				break
			}
		}
	}
	return existing, nil
}

func (r *fakeRepo) ListSerialsByBatch(ctx context.Context, batchID int64) ([]Serial, error) {
	var out []Serial
	for _, s := range r.serials {
		if s.BatchID != nil && *s.BatchID == batchID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r *fakeRepo) UpdateSerialStatus(ctx context.Context, productID int64, serialNumbers []string, status SerialStatus) error {
	for id, s := range r.serials {
		if s.ProductID != productID {
			continue
		}
		for _, sn := range serialNumbers {
			if s.SerialNumber == sn {
				s.Status = status
				r.serials[id] = s
			}
		}
	}
	return nil
}

func (r *fakeRepo) ReleaseSerialsByBatch(ctx context.Context, batchID int64) error {
	for id, s := range r.serials {
		if s.BatchID == nil || *s.BatchID != batchID {
			continue
		}
		if s.Status == SerialActive {
			delete(r.serials, id)
			continue
		}
		s.BatchID = nil
		r.serials[id] = s
	}
	return nil
}

var _ Repository = (*fakeRepo)(nil)

func newTestService(products ...Product) (*Service, *fakeRepo) {
	repo := newFakeRepo(products...)
	return NewService(repo, passthroughTxManager{}), repo
}

// --- ReceivePurchase ---

func TestReceivePurchase_RecomputesAverage(t *testing.T) {
	svc, repo := newTestService(Product{
		ID:                   1,
		Name:                 "Soap",
		Quantity:             10,
		AveragePurchasePrice: decimal.NewFromInt(20),
		TrackingType:         TrackingNone,
	})

	result, err := svc.ReceivePurchase(context.Background(), PurchaseReceiptInput{
		ProductID: 1,
		Quantity:  5,
		Rate:      decimal.NewFromInt(50),
	})
	require.NoError(t, err)

	assert.Equal(t, int64(15), result.NewTotalQuantity)
	assert.True(t, result.NewAverageCost.Equal(decimal.NewFromInt(30)))

	stored := repo.products[1]
	assert.Equal(t, int64(15), stored.Quantity)
	assert.True(t, stored.AveragePurchasePrice.Equal(decimal.NewFromInt(30)))

	require.Len(t, repo.movements, 1)
	assert.Equal(t, DirectionIn, repo.movements[0].Direction)
	assert.True(t, repo.movements[0].Amount.Equal(decimal.NewFromInt(250)))
}

func TestReceivePurchase_UnknownProduct(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.ReceivePurchase(context.Background(), PurchaseReceiptInput{
		ProductID: 404,
		Quantity:  1,
		Rate:      decimal.NewFromInt(10),
	})
	assert.True(t, apperror.IsNotFound(err))
}

func TestReceivePurchase_ZeroQuantityIsNoOp(t *testing.T) {
	svc, repo := newTestService(Product{
		ID:                   1,
		Name:                 "Soap",
		Quantity:             10,
		AveragePurchasePrice: decimal.NewFromInt(20),
		TrackingType:         TrackingNone,
	})

	result, err := svc.ReceivePurchase(context.Background(), PurchaseReceiptInput{
		ProductID: 1,
		Quantity:  0,
		Rate:      decimal.NewFromInt(999),
	})
	require.NoError(t, err)

	assert.Equal(t, int64(10), result.NewTotalQuantity)
	assert.True(t, result.NewAverageCost.Equal(decimal.NewFromInt(20)))
	assert.Equal(t, int64(10), repo.products[1].Quantity)
}

func TestReceivePurchase_NegativeInputs(t *testing.T) {
	svc, _ := newTestService(Product{ID: 1, Name: "Soap", TrackingType: TrackingNone})

	_, err := svc.ReceivePurchase(context.Background(), PurchaseReceiptInput{
		ProductID: 1, Quantity: -1, Rate: decimal.NewFromInt(10),
	})
	assert.True(t, apperror.IsValidation(err))

	_, err = svc.ReceivePurchase(context.Background(), PurchaseReceiptInput{
		ProductID: 1, Quantity: 1, Rate: decimal.NewFromInt(-10),
	})
	assert.True(t, apperror.IsValidation(err))
}

// --- AssignToBatch ---

func TestAssignToBatch_CreatesBatchWithGeneratedUID(t *testing.T) {
	svc, repo := newTestService(Product{
		ID: 101, Name: "Phone", Quantity: 10, TrackingType: TrackingBatch,
	})

	batch, err := svc.AssignToBatch(context.Background(), BatchAssignmentInput{
		ProductID:   101,
		Quantity:    4,
		BatchNumber: "LOT-A",
	})
	require.NoError(t, err)

	assert.Equal(t, "BAT-101-0001", batch.BatchUID)
	assert.Equal(t, "LOT-A", batch.BatchNo)
	assert.Equal(t, int64(4), batch.Quantity)

	// Aggregate quantity unchanged: assignment only re-partitions stock.
	assert.Equal(t, int64(10), repo.products[101].Quantity)

	untracked, err := svc.UntrackedQuantity(context.Background(), 101)
	require.NoError(t, err)
	assert.Equal(t, int64(6), untracked)
}

func TestAssignToBatch_InsufficientUntrackedStock(t *testing.T) {
	svc, repo := newTestService(Product{
		ID: 1, Name: "Phone", Quantity: 2, TrackingType: TrackingBatch,
	})

	_, err := svc.AssignToBatch(context.Background(), BatchAssignmentInput{
		ProductID:   1,
		Quantity:    3,
		BatchNumber: "LOT-A",
	})

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeInsufficientStock, appErr.Code)

	// All-or-nothing: no batch rows, quantity split untouched.
	assert.Empty(t, repo.batches)
	assert.Equal(t, int64(2), repo.products[1].Quantity)
}

func TestAssignToBatch_SerialCountMismatch(t *testing.T) {
	svc, repo := newTestService(Product{
		ID: 1, Name: "Phone", Quantity: 5, TrackingType: TrackingSerial,
	})

	_, err := svc.AssignToBatch(context.Background(), BatchAssignmentInput{
		ProductID:   1,
		Quantity:    3,
		BatchNumber: "LOT-A",
		Serials:     []string{"SN1", "SN2"},
	})

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeTrackingMismatch, appErr.Code)
	assert.Empty(t, repo.batches)
	assert.Empty(t, repo.serials)
}

func TestAssignToBatch_DuplicateSerial(t *testing.T) {
	svc, repo := newTestService(Product{
		ID: 1, Name: "Phone", Quantity: 5, TrackingType: TrackingSerial,
	})

	_, err := svc.AssignToBatch(context.Background(), BatchAssignmentInput{
		ProductID:   1,
		Quantity:    2,
		BatchNumber: "LOT-A",
		Serials:     []string{"SN1", "SN2"},
	})
	require.NoError(t, err)

	// SN2 already exists for this product.
	_, err = svc.AssignToBatch(context.Background(), BatchAssignmentInput{
		ProductID:   1,
		Quantity:    2,
		BatchNumber: "LOT-B",
		Serials:     []string{"SN3", "SN2"},
	})

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeDuplicate, appErr.Code)
	assert.Len(t, repo.serials, 2)
	assert.Len(t, repo.batches, 1)
}

func TestAssignToBatch_DuplicateSerialInRequest(t *testing.T) {
	svc, _ := newTestService(Product{
		ID: 1, Name: "Phone", Quantity: 5, TrackingType: TrackingSerial,
	})

	_, err := svc.AssignToBatch(context.Background(), BatchAssignmentInput{
		ProductID:   1,
		Quantity:    2,
		BatchNumber: "LOT-A",
		Serials:     []string{"SN1", "SN1"},
	})
	assert.True(t, apperror.IsValidation(err))
}

func TestAssignToBatch_ExistingUIDIncrements(t *testing.T) {
	svc, repo := newTestService(Product{
		ID: 101, Name: "Phone", Quantity: 10, TrackingType: TrackingBatch,
	})

	first, err := svc.AssignToBatch(context.Background(), BatchAssignmentInput{
		ProductID: 101, Quantity: 4, BatchNumber: "LOT-A",
	})
	require.NoError(t, err)

	second, err := svc.AssignToBatch(context.Background(), BatchAssignmentInput{
		ProductID: 101, Quantity: 3, BatchNumber: first.BatchUID,
	})
	require.NoError(t, err)

	assert.Equal(t, first.BatchUID, second.BatchUID)
	assert.Equal(t, int64(7), second.Quantity)
	assert.Len(t, repo.batches, 1)
}

func TestAssignToBatch_MissingBatchNumber(t *testing.T) {
	svc, _ := newTestService(Product{ID: 1, Name: "Phone", Quantity: 5, TrackingType: TrackingBatch})

	_, err := svc.AssignToBatch(context.Background(), BatchAssignmentInput{
		ProductID: 1, Quantity: 1,
	})
	assert.True(t, apperror.IsValidation(err))
}

// --- ReleaseBatch round-trip ---

func TestReleaseBatch_RestoresUntrackedSplit(t *testing.T) {
	svc, repo := newTestService(Product{
		ID: 1, Name: "Phone", Quantity: 10, TrackingType: TrackingSerial,
	})

	batch, err := svc.AssignToBatch(context.Background(), BatchAssignmentInput{
		ProductID:   1,
		Quantity:    2,
		BatchNumber: "LOT-A",
		Serials:     []string{"SN1", "SN2"},
	})
	require.NoError(t, err)

	untracked, err := svc.UntrackedQuantity(context.Background(), 1)
	require.NoError(t, err)
	require.Equal(t, int64(8), untracked)

	require.NoError(t, svc.ReleaseBatch(context.Background(), 1, batch.BatchUID))

	untracked, err = svc.UntrackedQuantity(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, int64(10), untracked)
	assert.Equal(t, int64(10), repo.products[1].Quantity)
	assert.Empty(t, repo.serials)
}

func TestReleaseBatch_RetainsSoldSerials(t *testing.T) {
	svc, repo := newTestService(Product{
		ID: 1, Name: "Phone", Quantity: 2, TrackingType: TrackingSerial,
	})

	batch, err := svc.AssignToBatch(context.Background(), BatchAssignmentInput{
		ProductID:   1,
		Quantity:    2,
		BatchNumber: "LOT-A",
		Serials:     []string{"SN1", "SN2"},
	})
	require.NoError(t, err)

	require.NoError(t, svc.IssueStock(context.Background(), StockIssueInput{
		ProductID: 1, Quantity: 1, BatchUID: batch.BatchUID, Serials: []string{"SN1"},
	}))

	require.NoError(t, svc.ReleaseBatch(context.Background(), 1, batch.BatchUID))

	// The sold serial survives as detached history; the active one is freed.
	require.Len(t, repo.serials, 1)
	for _, s := range repo.serials {
		assert.Equal(t, "SN1", s.SerialNumber)
		assert.Equal(t, SerialSold, s.Status)
		assert.Nil(t, s.BatchID)
	}

	// Its number stays taken for the product.
	existing, err := repo.FindExistingSerials(context.Background(), 1, []string{"SN1"})
	require.NoError(t, err)
	assert.Equal(t, []string{"SN1"}, existing)

	untracked, err := svc.UntrackedQuantity(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), untracked)
}

// --- IssueStock ---

func TestIssueStock_FromBatch(t *testing.T) {
	svc, repo := newTestService(Product{
		ID: 1, Name: "Phone", Quantity: 10,
		AveragePurchasePrice: decimal.NewFromInt(30),
		TrackingType:         TrackingBatch,
	})

	batch, err := svc.AssignToBatch(context.Background(), BatchAssignmentInput{
		ProductID: 1, Quantity: 6, BatchNumber: "LOT-A",
	})
	require.NoError(t, err)

	require.NoError(t, svc.IssueStock(context.Background(), StockIssueInput{
		ProductID: 1, Quantity: 4, BatchUID: batch.BatchUID,
	}))

	assert.Equal(t, int64(6), repo.products[1].Quantity)
	assert.Equal(t, int64(2), repo.batches[batch.ID].Quantity)
	// Average cost unchanged by issues.
	assert.True(t, repo.products[1].AveragePurchasePrice.Equal(decimal.NewFromInt(30)))
}

func TestIssueStock_SerialsMarkedSold(t *testing.T) {
	svc, repo := newTestService(Product{
		ID: 1, Name: "Phone", Quantity: 3, TrackingType: TrackingSerial,
	})

	batch, err := svc.AssignToBatch(context.Background(), BatchAssignmentInput{
		ProductID:   1,
		Quantity:    3,
		BatchNumber: "LOT-A",
		Serials:     []string{"SN1", "SN2", "SN3"},
	})
	require.NoError(t, err)

	require.NoError(t, svc.IssueStock(context.Background(), StockIssueInput{
		ProductID: 1,
		Quantity:  2,
		BatchUID:  batch.BatchUID,
		Serials:   []string{"SN1", "SN2"},
	}))

	assert.Equal(t, int64(1), repo.products[1].Quantity)
	assert.Equal(t, int64(1), repo.batches[batch.ID].Quantity)

	sold := 0
	for _, s := range repo.serials {
		if s.Status == SerialSold {
			sold++
		}
	}
	assert.Equal(t, 2, sold)
}

func TestIssueStock_ResoldSerialRejected(t *testing.T) {
	svc, repo := newTestService(Product{
		ID: 1, Name: "Phone", Quantity: 2, TrackingType: TrackingSerial,
	})

	batch, err := svc.AssignToBatch(context.Background(), BatchAssignmentInput{
		ProductID:   1,
		Quantity:    2,
		BatchNumber: "LOT-A",
		Serials:     []string{"SN1", "SN2"},
	})
	require.NoError(t, err)

	require.NoError(t, svc.IssueStock(context.Background(), StockIssueInput{
		ProductID: 1, Quantity: 1, BatchUID: batch.BatchUID, Serials: []string{"SN1"},
	}))

	// Selling the same unit twice must fail, not silently decrement again.
	err = svc.IssueStock(context.Background(), StockIssueInput{
		ProductID: 1, Quantity: 1, BatchUID: batch.BatchUID, Serials: []string{"SN1"},
	})
	require.True(t, apperror.IsValidation(err))

	assert.Equal(t, int64(1), repo.products[1].Quantity)
	assert.Equal(t, int64(1), repo.batches[batch.ID].Quantity)

	active := 0
	for _, s := range repo.serials {
		if s.Status == SerialActive {
			active++
		}
	}
	// Batch quantity still equals its active-serial count.
	assert.Equal(t, 1, active)
}

func TestIssueStock_SerialFromOtherBatchRejected(t *testing.T) {
	svc, repo := newTestService(Product{
		ID: 1, Name: "Phone", Quantity: 2, TrackingType: TrackingSerial,
	})

	batchA, err := svc.AssignToBatch(context.Background(), BatchAssignmentInput{
		ProductID: 1, Quantity: 1, BatchNumber: "LOT-A", Serials: []string{"SN1"},
	})
	require.NoError(t, err)
	batchB, err := svc.AssignToBatch(context.Background(), BatchAssignmentInput{
		ProductID: 1, Quantity: 1, BatchNumber: "LOT-B", Serials: []string{"SN2"},
	})
	require.NoError(t, err)

	err = svc.IssueStock(context.Background(), StockIssueInput{
		ProductID: 1, Quantity: 1, BatchUID: batchA.BatchUID, Serials: []string{"SN2"},
	})
	require.True(t, apperror.IsValidation(err))

	assert.Equal(t, int64(2), repo.products[1].Quantity)
	assert.Equal(t, int64(1), repo.batches[batchA.ID].Quantity)
	assert.Equal(t, int64(1), repo.batches[batchB.ID].Quantity)
	for _, s := range repo.serials {
		assert.Equal(t, SerialActive, s.Status)
	}
}

func TestIssueStock_SerialsRejectedForUntrackedProduct(t *testing.T) {
	svc, _ := newTestService(Product{
		ID: 1, Name: "Soap", Quantity: 5, TrackingType: TrackingNone,
	})

	err := svc.IssueStock(context.Background(), StockIssueInput{
		ProductID: 1, Quantity: 1, Serials: []string{"SN1"},
	})
	assert.True(t, apperror.IsValidation(err))
}

func TestIssueStock_ExceedsBatch(t *testing.T) {
	svc, repo := newTestService(Product{
		ID: 1, Name: "Phone", Quantity: 10, TrackingType: TrackingBatch,
	})

	batch, err := svc.AssignToBatch(context.Background(), BatchAssignmentInput{
		ProductID: 1, Quantity: 2, BatchNumber: "LOT-A",
	})
	require.NoError(t, err)

	err = svc.IssueStock(context.Background(), StockIssueInput{
		ProductID: 1, Quantity: 3, BatchUID: batch.BatchUID,
	})

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeInsufficientStock, appErr.Code)
	assert.Equal(t, int64(10), repo.products[1].Quantity)
	assert.Equal(t, int64(2), repo.batches[batch.ID].Quantity)
}
