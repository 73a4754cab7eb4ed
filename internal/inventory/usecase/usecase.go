package usecase

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/motohub/workshop-service/internal/apperror"
	"github.com/motohub/workshop-service/internal/event"
	"github.com/motohub/workshop-service/internal/inventory"
	"github.com/motohub/workshop-service/internal/inventory/dto"
	"github.com/motohub/workshop-service/internal/model"
	"github.com/motohub/workshop-service/internal/pkg/cache"
	"github.com/motohub/workshop-service/internal/pkg/logger"
	"github.com/motohub/workshop-service/internal/pkg/metrics"
	"github.com/motohub/workshop-service/internal/pkg/pagination"
	"github.com/motohub/workshop-service/internal/pkg/search"
	"github.com/motohub/workshop-service/internal/stock"
)

var tracer = otel.Tracer("github.com/motohub/workshop-service/internal/inventory")

const (
	lockAttempts   = 3
	lockRetryDelay = 100 * time.Millisecond
)

type Config struct {
	ListCacheTTL time.Duration
	LockTTL      time.Duration
}

type inventoryUseCase struct {
	repo   inventory.Repository
	cache  cache.Store
	index  *search.ProductIndex
	events *event.Emitter
	cfg    Config
	logger logger.ZapLogger
	now    func() time.Time
}

// NewInventoryUseCase builds the inventory use case. cache and index may be
// nil, which disables list caching, adjustment locks and search.
func NewInventoryUseCase(repo inventory.Repository, store cache.Store, index *search.ProductIndex, events *event.Emitter, cfg Config, log logger.ZapLogger) inventory.UseCase {
	return &inventoryUseCase{
		repo:   repo,
		cache:  store,
		index:  index,
		events: events,
		cfg:    cfg,
		logger: log,
		now:    time.Now,
	}
}

type cachedList struct {
	Products []model.Product
	Count    int
}

func (uc *inventoryUseCase) ListInventory(ctx context.Context, filters *dto.InventoryFilters) ([]model.Product, int, error) {
	if filters.DealerID == "" {
		return nil, 0, apperror.Validation(apperror.CodeMissingDealer, "dealer context is required")
	}
	if filters.StockStatus != "" && !model.StockStatus(filters.StockStatus).Valid() {
		return nil, 0, apperror.Validation(apperror.CodeInvalidStatus, "unknown stock status")
	}
	filters.Page, filters.PageSize = pagination.Normalize(filters.Page, filters.PageSize)

	cacheKey := ""
	if uc.cache != nil {
		if key, err := inventory.ListCacheKey(filters); err == nil {
			cacheKey = key
			if val, err := uc.cache.Get(ctx, cacheKey); err == nil {
				var hit cachedList
				if err := json.Unmarshal(val, &hit); err == nil {
					return hit.Products, hit.Count, nil
				}
			}
		}
	}

	products, count, err := uc.repo.ListProducts(ctx, filters)
	if err != nil {
		return nil, 0, apperror.Internal(err)
	}
	for i := range products {
		products[i].StockStatus = stock.StatusFor(products[i].StockQuantity, products[i].LowStockThreshold)
	}

	if cacheKey != "" {
		if data, err := json.Marshal(cachedList{Products: products, Count: count}); err == nil {
			if err := uc.cache.Set(ctx, cacheKey, data, uc.cfg.ListCacheTTL); err != nil {
				uc.logger.Warn("failed to cache inventory list", zap.Error(err))
			}
		}
	}
	return products, count, nil
}

// SearchInventory queries the search index and falls back to the SQL listing
// when the index is disabled or failing.
func (uc *inventoryUseCase) SearchInventory(ctx context.Context, dealerID, q string, page, pageSize int) ([]model.Product, int, error) {
	page, pageSize = pagination.Normalize(page, pageSize)
	if q != "" && uc.index != nil {
		docs, total, err := uc.index.Search(ctx, dealerID, q, page, pageSize)
		if err == nil {
			products := make([]model.Product, 0, len(docs))
			for _, d := range docs {
				products = append(products, model.Product{
					BaseModel:     model.BaseModel{ID: d.ID, UpdatedAt: d.UpdatedAt},
					DealerID:      d.DealerID,
					SKU:           d.SKU,
					Name:          d.Name,
					StockQuantity: d.StockQuantity,
					StockStatus:   d.StockStatus,
					IsActive:      d.IsActive,
				})
			}
			return products, total, nil
		}
		uc.logger.Error("search index query failed, falling back to database", zap.Error(err))
	}

	return uc.ListInventory(ctx, &dto.InventoryFilters{
		DealerID:    dealerID,
		SearchQuery: q,
		Page:        page,
		PageSize:    pageSize,
	})
}

func (uc *inventoryUseCase) AdjustStock(ctx context.Context, input *dto.AdjustStockInput) (*dto.AdjustResult, error) {
	ctx, span := tracer.Start(ctx, "inventory.AdjustStock")
	defer span.End()
	span.SetAttributes(
		attribute.String("dealer.id", input.DealerID),
		attribute.String("product.id", input.ProductID),
		attribute.Int("quantity.change", input.QuantityChange),
	)

	if input.QuantityChange == 0 {
		return nil, apperror.Validation(apperror.CodeInvalidQuantity, "quantity change must not be zero")
	}

	release, err := uc.acquireLock(ctx, inventory.LockKey(input.DealerID, input.ProductID))
	if err != nil {
		return nil, err
	}
	defer release()

	now := uc.now()
	var (
		product  *model.Product
		movement *model.InventoryMovement
	)
	err = uc.repo.WithTx(ctx, func(tx inventory.TxRepository) error {
		p, err := tx.LockProduct(ctx, input.DealerID, input.ProductID)
		if err != nil {
			return err
		}
		if p == nil {
			return apperror.NotFound(apperror.CodeProductMissing, "product not found")
		}

		before := p.StockQuantity
		after := before + input.QuantityChange
		if after < 0 {
			return apperror.Unprocessable(apperror.CodeNegativeStock, "adjustment would make stock negative").
				WithDetails(map[string]interface{}{"current": before, "change": input.QuantityChange})
		}

		p.StockQuantity = after
		p.StockStatus = stock.StatusFor(after, p.LowStockThreshold)
		p.UpdatedAt = now
		if err := tx.UpdateProductStock(ctx, p); err != nil {
			return err
		}

		refType := model.ReferenceTypeManualAdjustment
		m := &model.InventoryMovement{
			ID:             uuid.New().String(),
			DealerID:       input.DealerID,
			ProductID:      p.ID,
			MovementType:   model.MovementTypeAdjustment,
			QuantityChange: input.QuantityChange,
			QuantityBefore: before,
			QuantityAfter:  after,
			ReferenceType:  &refType,
			Notes:          input.Reason,
			CreatedBy:      optional(input.ActorID),
			CreatedAt:      now,
		}
		if err := tx.InsertMovement(ctx, m); err != nil {
			return err
		}

		product, movement = p, m
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		if apperror.KindOf(err) == apperror.KindInternal {
			uc.logger.Error("failed to adjust stock", zap.String("product_id", input.ProductID), zap.Error(err))
		}
		return nil, apperror.From(err)
	}

	metrics.StockUnitsMoved.WithLabelValues(model.MovementTypeAdjustment).Add(float64(abs(input.QuantityChange)))
	uc.afterStockChange(ctx, product)
	uc.events.Emit(ctx, event.InventoryAdjusted, input.DealerID, movement.ID, event.InventoryPayload{
		ProductID:      product.ID,
		DealerID:       input.DealerID,
		MovementID:     movement.ID,
		QuantityChange: movement.QuantityChange,
		QuantityBefore: movement.QuantityBefore,
		QuantityAfter:  movement.QuantityAfter,
		StockStatus:    string(product.StockStatus),
		ActorID:        input.ActorID,
	})

	return &dto.AdjustResult{Product: product, Movement: movement}, nil
}

func (uc *inventoryUseCase) ReceiveBatch(ctx context.Context, input *dto.ReceiveBatchInput) (*dto.ReceiveResult, error) {
	ctx, span := tracer.Start(ctx, "inventory.ReceiveBatch")
	defer span.End()
	span.SetAttributes(
		attribute.String("dealer.id", input.DealerID),
		attribute.String("product.id", input.ProductID),
		attribute.Int("quantity", input.Quantity),
	)

	if input.Quantity <= 0 {
		return nil, apperror.Validation(apperror.CodeInvalidQuantity, "quantity must be greater than zero")
	}
	if input.BatchNumber == "" {
		return nil, apperror.Validation(apperror.CodeInvalidRequest, "batch number is required")
	}
	if input.UnitCost.IsNegative() {
		return nil, apperror.Validation(apperror.CodeInvalidRequest, "unit cost must not be negative")
	}

	now := uc.now()
	receivedAt := input.ReceivedAt
	if receivedAt.IsZero() {
		receivedAt = now
	}

	var (
		product  *model.Product
		batch    *model.InventoryBatch
		movement *model.InventoryMovement
		before   int
	)
	err := uc.repo.WithTx(ctx, func(tx inventory.TxRepository) error {
		p, err := tx.LockProduct(ctx, input.DealerID, input.ProductID)
		if err != nil {
			return err
		}
		if p == nil {
			return apperror.NotFound(apperror.CodeProductMissing, "product not found")
		}

		b := &model.InventoryBatch{
			ID:              uuid.New().String(),
			DealerID:        input.DealerID,
			ProductID:       p.ID,
			BatchNumber:     input.BatchNumber,
			ReceivedAt:      receivedAt,
			InitialQuantity: input.Quantity,
			CurrentQuantity: input.Quantity,
			UnitCost:        input.UnitCost,
			Status:          model.BatchStatusActive,
			CreatedAt:       now,
			UpdatedAt:       now,
		}
		if err := tx.InsertBatch(ctx, b); err != nil {
			return err
		}

		refType := model.ReferenceTypeBatchReceipt
		m := &model.InventoryMovement{
			ID:             uuid.New().String(),
			DealerID:       input.DealerID,
			ProductID:      p.ID,
			BatchID:        &b.ID,
			MovementType:   model.MovementTypeReceipt,
			QuantityChange: input.Quantity,
			QuantityBefore: 0,
			QuantityAfter:  input.Quantity,
			ReferenceType:  &refType,
			ReferenceID:    &b.ID,
			Notes:          "batch " + input.BatchNumber,
			CreatedBy:      optional(input.ActorID),
			CreatedAt:      now,
		}
		if err := tx.InsertMovement(ctx, m); err != nil {
			return err
		}

		before = p.StockQuantity
		p.StockQuantity += input.Quantity
		p.StockStatus = stock.StatusFor(p.StockQuantity, p.LowStockThreshold)
		p.UpdatedAt = now
		if err := tx.UpdateProductStock(ctx, p); err != nil {
			return err
		}

		product, batch, movement = p, b, m
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		if apperror.KindOf(err) == apperror.KindInternal {
			uc.logger.Error("failed to receive batch", zap.String("product_id", input.ProductID), zap.Error(err))
		}
		return nil, apperror.From(err)
	}

	metrics.StockUnitsMoved.WithLabelValues(model.MovementTypeReceipt).Add(float64(input.Quantity))
	uc.afterStockChange(ctx, product)
	uc.events.Emit(ctx, event.InventoryReceived, input.DealerID, movement.ID, event.InventoryPayload{
		ProductID:      product.ID,
		DealerID:       input.DealerID,
		BatchID:        &batch.ID,
		MovementID:     movement.ID,
		QuantityChange: input.Quantity,
		QuantityBefore: before,
		QuantityAfter:  product.StockQuantity,
		StockStatus:    string(product.StockStatus),
		ActorID:        input.ActorID,
	})

	return &dto.ReceiveResult{Product: product, Batch: batch, Movement: movement}, nil
}

func (uc *inventoryUseCase) ListBatches(ctx context.Context, dealerID, productID string) ([]model.InventoryBatch, error) {
	p, err := uc.repo.FindProduct(ctx, dealerID, productID)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	if p == nil {
		return nil, apperror.NotFound(apperror.CodeProductMissing, "product not found")
	}
	batches, err := uc.repo.ListBatches(ctx, dealerID, productID)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	return batches, nil
}

func (uc *inventoryUseCase) ListMovements(ctx context.Context, filters *dto.MovementFilters) ([]model.InventoryMovement, int, error) {
	filters.Page, filters.PageSize = pagination.Normalize(filters.Page, filters.PageSize)
	items, count, err := uc.repo.ListMovements(ctx, filters)
	if err != nil {
		return nil, 0, apperror.Internal(err)
	}
	return items, count, nil
}

// acquireLock takes the per product adjustment lock. Without a cache there
// is no lock and the row lock inside the transaction is the only guard.
func (uc *inventoryUseCase) acquireLock(ctx context.Context, key string) (func(), error) {
	if uc.cache == nil {
		return func() {}, nil
	}

	value := uuid.New().String()
	for i := 0; i < lockAttempts; i++ {
		ok, err := uc.cache.AcquireLock(ctx, key, value, uc.cfg.LockTTL)
		if err != nil {
			uc.logger.Error("failed to acquire lock", zap.String("key", key), zap.Error(err))
		}
		if ok {
			return func() {
				if err := uc.cache.ReleaseLock(context.WithoutCancel(ctx), key, value); err != nil {
					uc.logger.Warn("failed to release lock", zap.String("key", key), zap.Error(err))
				}
			}, nil
		}
		if i < lockAttempts-1 {
			time.Sleep(lockRetryDelay)
		}
	}
	return nil, apperror.Conflict(apperror.CodeResourceBusy, "system busy, please try again later")
}

func (uc *inventoryUseCase) afterStockChange(ctx context.Context, p *model.Product) {
	if err := inventory.InvalidateListCache(ctx, uc.cache, p.DealerID); err != nil {
		uc.logger.Warn("failed to invalidate inventory cache", zap.String("dealer_id", p.DealerID), zap.Error(err))
	}
	if uc.index != nil {
		snapshot := *p
		go uc.index.Sync(context.Background(), &snapshot)
	}
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
