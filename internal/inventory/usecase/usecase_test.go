package usecase

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/motohub/workshop-service/internal/apperror"
	"github.com/motohub/workshop-service/internal/event"
	"github.com/motohub/workshop-service/internal/inventory"
	"github.com/motohub/workshop-service/internal/inventory/dto"
	"github.com/motohub/workshop-service/internal/model"
	"github.com/motohub/workshop-service/internal/pkg/cache"
	"github.com/motohub/workshop-service/internal/pkg/logger"
	"github.com/motohub/workshop-service/internal/pkg/search"
)

const (
	dealerA = "dealer-a"
	dealerB = "dealer-b"
)

type memState struct {
	products  map[string]model.Product
	batches   map[string]model.InventoryBatch
	movements []model.InventoryMovement
}

func (s memState) clone() memState {
	out := memState{
		products:  make(map[string]model.Product, len(s.products)),
		batches:   make(map[string]model.InventoryBatch, len(s.batches)),
		movements: append([]model.InventoryMovement(nil), s.movements...),
	}
	for k, v := range s.products {
		out.products[k] = v
	}
	for k, v := range s.batches {
		out.batches[k] = v
	}
	return out
}

// memRepo commits a transaction's working copy only when fn succeeds.
type memRepo struct {
	mu        sync.Mutex
	state     memState
	listCalls int
}

func newMemRepo() *memRepo {
	return &memRepo{state: memState{
		products: map[string]model.Product{},
		batches:  map[string]model.InventoryBatch{},
	}}
}

func (r *memRepo) addProduct(p model.Product) {
	r.state.products[p.ID] = p
}

func (r *memRepo) WithTx(ctx context.Context, fn func(tx inventory.TxRepository) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	tx := &memTx{state: r.state.clone()}
	if err := fn(tx); err != nil {
		return err
	}
	r.state = tx.state
	return nil
}

func (r *memRepo) FindProduct(ctx context.Context, dealerID, productID string) (*model.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.state.products[productID]
	if !ok || p.DealerID != dealerID {
		return nil, nil
	}
	return &p, nil
}

func (r *memRepo) ListProducts(ctx context.Context, f *dto.InventoryFilters) ([]model.Product, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listCalls++
	var out []model.Product
	for _, p := range r.state.products {
		if p.DealerID == f.DealerID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, len(out), nil
}

func (r *memRepo) ListBatches(ctx context.Context, dealerID, productID string) ([]model.InventoryBatch, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.InventoryBatch
	for _, b := range r.state.batches {
		if b.DealerID == dealerID && b.ProductID == productID {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ReceivedAt.Before(out[j].ReceivedAt) })
	return out, nil
}

func (r *memRepo) ListMovements(ctx context.Context, f *dto.MovementFilters) ([]model.InventoryMovement, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.InventoryMovement
	for _, m := range r.state.movements {
		if m.DealerID == f.DealerID && (f.ProductID == "" || m.ProductID == f.ProductID) {
			out = append(out, m)
		}
	}
	return out, len(out), nil
}

type memTx struct {
	state memState
}

func (t *memTx) LockProduct(ctx context.Context, dealerID, productID string) (*model.Product, error) {
	p, ok := t.state.products[productID]
	if !ok || p.DealerID != dealerID {
		return nil, nil
	}
	return &p, nil
}

func (t *memTx) LockActiveBatches(ctx context.Context, dealerID, productID string) ([]model.InventoryBatch, error) {
	var out []model.InventoryBatch
	for _, b := range t.state.batches {
		if b.DealerID == dealerID && b.ProductID == productID && b.Status == model.BatchStatusActive && b.CurrentQuantity > 0 {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ReceivedAt.Before(out[j].ReceivedAt) })
	return out, nil
}

func (t *memTx) UpdateBatch(ctx context.Context, b *model.InventoryBatch) error {
	t.state.batches[b.ID] = *b
	return nil
}

func (t *memTx) InsertBatch(ctx context.Context, b *model.InventoryBatch) error {
	t.state.batches[b.ID] = *b
	return nil
}

func (t *memTx) InsertMovement(ctx context.Context, m *model.InventoryMovement) error {
	t.state.movements = append(t.state.movements, *m)
	return nil
}

func (t *memTx) UpdateProductStock(ctx context.Context, p *model.Product) error {
	t.state.products[p.ID] = *p
	return nil
}

type recorder struct {
	mu   sync.Mutex
	envs []event.Envelope
}

func (r *recorder) Publish(_ context.Context, env event.Envelope) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.envs = append(r.envs, env)
	return nil
}

type fixture struct {
	repo   *memRepo
	cache  *cache.Memory
	events *recorder
	uc     inventory.UseCase
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	repo := newMemRepo()
	repo.addProduct(model.Product{
		BaseModel:         model.BaseModel{ID: "p-oil"},
		DealerID:          dealerA,
		SKU:               "OIL-10W40",
		Name:              "Engine oil",
		StockQuantity:     5,
		LowStockThreshold: 5,
		StockStatus:       model.StockStatusLowStock,
		IsActive:          true,
	})
	repo.addProduct(model.Product{
		BaseModel:         model.BaseModel{ID: "p-chain"},
		DealerID:          dealerA,
		SKU:               "CHAIN-428",
		Name:              "Drive chain",
		StockQuantity:     0,
		LowStockThreshold: 2,
		StockStatus:       model.StockStatusInStock,
		IsActive:          true,
	})

	store := cache.NewMemory()
	rec := &recorder{}
	emitter := event.NewEmitter(rec, "workshop-service", logger.NewNop())
	uc := NewInventoryUseCase(repo, store, nil, emitter, Config{ListCacheTTL: time.Minute, LockTTL: time.Second}, logger.NewNop())
	return &fixture{repo: repo, cache: store, events: rec, uc: uc}
}

func TestAdjustStock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, _, err := f.uc.ListInventory(ctx, &dto.InventoryFilters{DealerID: dealerA})
	require.NoError(t, err)

	res, err := f.uc.AdjustStock(ctx, &dto.AdjustStockInput{
		DealerID:       dealerA,
		ProductID:      "p-oil",
		QuantityChange: 10,
		Reason:         "stock count",
		ActorID:        "u-1",
	})
	require.NoError(t, err)

	assert.Equal(t, 15, res.Product.StockQuantity)
	assert.Equal(t, model.StockStatusInStock, res.Product.StockStatus)
	assert.Equal(t, 5, res.Movement.QuantityBefore)
	assert.Equal(t, 15, res.Movement.QuantityAfter)
	assert.Equal(t, 10, res.Movement.QuantityChange)
	assert.Equal(t, model.MovementTypeAdjustment, res.Movement.MovementType)
	require.NotNil(t, res.Movement.ReferenceType)
	assert.Equal(t, model.ReferenceTypeManualAdjustment, *res.Movement.ReferenceType)

	assert.Equal(t, 15, f.repo.state.products["p-oil"].StockQuantity)
	require.Len(t, f.repo.state.movements, 1)

	require.Len(t, f.events.envs, 1)
	assert.Equal(t, event.InventoryAdjusted, f.events.envs[0].EventType)
	assert.Equal(t, dealerA, f.events.envs[0].DealerID)

	// the listing cache was dropped, so the next read hits the repository
	calls := f.repo.listCalls
	_, _, err = f.uc.ListInventory(ctx, &dto.InventoryFilters{DealerID: dealerA})
	require.NoError(t, err)
	assert.Equal(t, calls+1, f.repo.listCalls)
}

func TestAdjustStockRejections(t *testing.T) {
	tests := []struct {
		name  string
		input dto.AdjustStockInput
		kind  apperror.Kind
		code  string
	}{
		{
			name:  "zero change",
			input: dto.AdjustStockInput{DealerID: dealerA, ProductID: "p-oil"},
			kind:  apperror.KindValidation,
			code:  apperror.CodeInvalidQuantity,
		},
		{
			name:  "below zero",
			input: dto.AdjustStockInput{DealerID: dealerA, ProductID: "p-oil", QuantityChange: -6},
			kind:  apperror.KindUnprocessable,
			code:  apperror.CodeNegativeStock,
		},
		{
			name:  "other dealer",
			input: dto.AdjustStockInput{DealerID: dealerB, ProductID: "p-oil", QuantityChange: 1},
			kind:  apperror.KindNotFound,
			code:  apperror.CodeProductMissing,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			_, err := f.uc.AdjustStock(context.Background(), &tt.input)
			require.Error(t, err)
			ae := apperror.From(err)
			assert.Equal(t, tt.kind, ae.Kind)
			assert.Equal(t, tt.code, ae.Code)

			assert.Equal(t, 5, f.repo.state.products["p-oil"].StockQuantity)
			assert.Empty(t, f.repo.state.movements)
			assert.Empty(t, f.events.envs)
		})
	}
}

func TestAdjustStockBusy(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	ok, err := f.cache.AcquireLock(ctx, inventory.LockKey(dealerA, "p-oil"), "someone-else", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	_, err = f.uc.AdjustStock(ctx, &dto.AdjustStockInput{DealerID: dealerA, ProductID: "p-oil", QuantityChange: 1})
	require.Error(t, err)
	assert.Equal(t, apperror.CodeResourceBusy, apperror.From(err).Code)
	assert.Equal(t, 5, f.repo.state.products["p-oil"].StockQuantity)
}

func TestAdjustStockReleasesLock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.uc.AdjustStock(ctx, &dto.AdjustStockInput{DealerID: dealerA, ProductID: "p-oil", QuantityChange: -1})
	require.NoError(t, err)

	ok, err := f.cache.AcquireLock(ctx, inventory.LockKey(dealerA, "p-oil"), "next", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestReceiveBatch(t *testing.T) {
	f := newFixture(t)
	received := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	res, err := f.uc.ReceiveBatch(context.Background(), &dto.ReceiveBatchInput{
		DealerID:    dealerA,
		ProductID:   "p-chain",
		BatchNumber: "GRN-001",
		Quantity:    4,
		UnitCost:    decimal.RequireFromString("12.50"),
		ReceivedAt:  received,
		ActorID:     "u-1",
	})
	require.NoError(t, err)

	assert.Equal(t, 4, res.Product.StockQuantity)
	assert.Equal(t, model.StockStatusInStock, res.Product.StockStatus)
	assert.Equal(t, model.BatchStatusActive, res.Batch.Status)
	assert.Equal(t, 4, res.Batch.CurrentQuantity)
	assert.Equal(t, received, res.Batch.ReceivedAt)
	assert.Equal(t, model.MovementTypeReceipt, res.Movement.MovementType)
	require.NotNil(t, res.Movement.BatchID)
	assert.Equal(t, res.Batch.ID, *res.Movement.BatchID)

	batches, err := f.uc.ListBatches(context.Background(), dealerA, "p-chain")
	require.NoError(t, err)
	require.Len(t, batches, 1)
	assert.True(t, decimal.RequireFromString("12.5").Equal(batches[0].UnitCost))

	require.Len(t, f.events.envs, 1)
	assert.Equal(t, event.InventoryReceived, f.events.envs[0].EventType)
}

func TestReceiveBatchValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.uc.ReceiveBatch(ctx, &dto.ReceiveBatchInput{DealerID: dealerA, ProductID: "p-chain", BatchNumber: "X"})
	assert.True(t, apperror.Is(err, apperror.KindValidation))

	_, err = f.uc.ReceiveBatch(ctx, &dto.ReceiveBatchInput{DealerID: dealerA, ProductID: "p-chain", Quantity: 1})
	assert.True(t, apperror.Is(err, apperror.KindValidation))

	_, err = f.uc.ReceiveBatch(ctx, &dto.ReceiveBatchInput{DealerID: dealerB, ProductID: "p-chain", BatchNumber: "X", Quantity: 1})
	assert.True(t, apperror.Is(err, apperror.KindNotFound))
	assert.Empty(t, f.repo.state.batches)
}

func TestListInventoryComputesStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	items, total, err := f.uc.ListInventory(ctx, &dto.InventoryFilters{DealerID: dealerA})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	require.Len(t, items, 2)

	byID := map[string]model.Product{}
	for _, p := range items {
		byID[p.ID] = p
	}
	// stored column says in_stock, quantity says otherwise
	assert.Equal(t, model.StockStatusOutOfStock, byID["p-chain"].StockStatus)
	assert.Equal(t, model.StockStatusLowStock, byID["p-oil"].StockStatus)

	_, _, err = f.uc.ListInventory(ctx, &dto.InventoryFilters{DealerID: dealerA})
	require.NoError(t, err)
	assert.Equal(t, 1, f.repo.listCalls, "second read is served from cache")
}

func TestListInventoryValidation(t *testing.T) {
	f := newFixture(t)

	_, _, err := f.uc.ListInventory(context.Background(), &dto.InventoryFilters{})
	assert.Equal(t, apperror.CodeMissingDealer, apperror.From(err).Code)

	_, _, err = f.uc.ListInventory(context.Background(), &dto.InventoryFilters{DealerID: dealerA, StockStatus: "plenty"})
	assert.True(t, apperror.Is(err, apperror.KindValidation))
}

func TestSearchInventoryFallsBackToDatabase(t *testing.T) {
	f := newFixture(t)

	items, total, err := f.uc.SearchInventory(context.Background(), dealerA, "oil", 1, 10)
	require.NoError(t, err)
	assert.Equal(t, 2, total, "memory repository ignores q")
	assert.Len(t, items, 2)
}

func TestSearchInventoryUsesIndexForActiveProducts(t *testing.T) {
	var query string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		query = string(body)
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"hits":{"total":{"value":1},"hits":[
			{"_id":"p-oil","_source":{"id":"p-oil","dealer_id":"dealer-a","sku":"OIL-10W40","name":"Engine oil","stock_quantity":5,"stock_status":"low_stock","is_active":true}}
		]}}`))
	}))
	defer srv.Close()
	client, err := search.NewClient(&search.Config{Addresses: []string{srv.URL}})
	require.NoError(t, err)

	index := search.NewProductIndex(client, "workshop-products", logger.NewNop())
	uc := NewInventoryUseCase(newMemRepo(), cache.NewMemory(), index, nil, Config{ListCacheTTL: time.Minute, LockTTL: time.Second}, logger.NewNop())

	items, total, err := uc.SearchInventory(context.Background(), dealerA, "oil", 1, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, items, 1)
	assert.Equal(t, "p-oil", items[0].ID)
	assert.True(t, items[0].IsActive)
	assert.Contains(t, query, `{"term":{"is_active":true}}`)
	assert.Contains(t, query, `{"term":{"dealer_id":"dealer-a"}}`)
}

func TestListBatchesOtherDealer(t *testing.T) {
	f := newFixture(t)
	_, err := f.uc.ListBatches(context.Background(), dealerB, "p-oil")
	assert.True(t, apperror.Is(err, apperror.KindNotFound))
}
