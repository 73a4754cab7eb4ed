package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"

	"github.com/motohub/workshop-service/internal/apperror"
	"github.com/motohub/workshop-service/internal/inventory"
	"github.com/motohub/workshop-service/internal/model"
	"github.com/motohub/workshop-service/internal/pkg/cache"
	"github.com/motohub/workshop-service/internal/pkg/logger"
	"github.com/motohub/workshop-service/internal/pkg/search"
	"github.com/motohub/workshop-service/internal/product"
	"github.com/motohub/workshop-service/internal/product/dto"
)

const uniqueViolation = "23505"

type productUseCase struct {
	repo             product.Repository
	cache            cache.Store
	index            *search.ProductIndex
	defaultThreshold int
	logger           logger.ZapLogger
	now              func() time.Time
}

func NewProductUseCase(repo product.Repository, store cache.Store, index *search.ProductIndex, defaultThreshold int, log logger.ZapLogger) product.UseCase {
	return &productUseCase{
		repo:             repo,
		cache:            store,
		index:            index,
		defaultThreshold: defaultThreshold,
		logger:           log,
		now:              time.Now,
	}
}

func (uc *productUseCase) CreateProduct(ctx context.Context, input *dto.CreateProductInput) (*model.Product, error) {
	if input.DealerID == "" {
		return nil, apperror.Validation(apperror.CodeMissingDealer, "dealer context is required")
	}
	sku := strings.TrimSpace(input.SKU)
	name := strings.TrimSpace(input.Name)
	if sku == "" || name == "" {
		return nil, apperror.Validation(apperror.CodeInvalidRequest, "sku and name are required")
	}
	threshold := uc.defaultThreshold
	if input.LowStockThreshold != nil {
		threshold = *input.LowStockThreshold
	}
	if threshold < 0 {
		return nil, apperror.Validation(apperror.CodeInvalidRequest, "low stock threshold cannot be negative")
	}

	unique, err := uc.repo.IsSKUUnique(ctx, input.DealerID, sku, "")
	if err != nil {
		return nil, apperror.Internal(err)
	}
	if !unique {
		return nil, duplicateSKU(sku)
	}

	now := uc.now()
	p := &model.Product{
		BaseModel:         model.BaseModel{ID: uuid.New().String(), CreatedAt: now, UpdatedAt: now},
		DealerID:          input.DealerID,
		SKU:               sku,
		Name:              name,
		Description:       optional(input.Description),
		StockQuantity:     0,
		LowStockThreshold: threshold,
		StockStatus:       model.StockStatusOutOfStock,
		IsActive:          true,
	}
	if err := uc.repo.Create(ctx, p); err != nil {
		if isUniqueViolation(err) {
			return nil, duplicateSKU(sku)
		}
		uc.logger.Error("failed to create product", zap.String("dealer_id", input.DealerID), zap.Error(err))
		return nil, apperror.Internal(err)
	}

	uc.afterChange(ctx, p)
	return p, nil
}

func (uc *productUseCase) GetProduct(ctx context.Context, dealerID, id string) (*model.Product, error) {
	p, err := uc.repo.FindByID(ctx, dealerID, id)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	if p == nil {
		return nil, apperror.NotFound(apperror.CodeProductMissing, "product not found")
	}
	return p, nil
}

func (uc *productUseCase) UpdateProduct(ctx context.Context, input *dto.UpdateProductInput) (*model.Product, error) {
	p, err := uc.GetProduct(ctx, input.DealerID, input.ID)
	if err != nil {
		return nil, err
	}

	if input.SKU != nil {
		sku := strings.TrimSpace(*input.SKU)
		if sku == "" {
			return nil, apperror.Validation(apperror.CodeInvalidRequest, "sku cannot be empty")
		}
		if sku != p.SKU {
			unique, err := uc.repo.IsSKUUnique(ctx, p.DealerID, sku, p.ID)
			if err != nil {
				return nil, apperror.Internal(err)
			}
			if !unique {
				return nil, duplicateSKU(sku)
			}
		}
		p.SKU = sku
	}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, apperror.Validation(apperror.CodeInvalidRequest, "name cannot be empty")
		}
		p.Name = name
	}
	if input.Description != nil {
		p.Description = optional(*input.Description)
	}
	if input.LowStockThreshold != nil {
		if *input.LowStockThreshold < 0 {
			return nil, apperror.Validation(apperror.CodeInvalidRequest, "low stock threshold cannot be negative")
		}
		p.LowStockThreshold = *input.LowStockThreshold
	}
	if input.IsActive != nil {
		p.IsActive = *input.IsActive
	}

	p.UpdatedAt = uc.now()
	if err := uc.repo.Update(ctx, p); err != nil {
		if isUniqueViolation(err) {
			return nil, duplicateSKU(p.SKU)
		}
		uc.logger.Error("failed to update product", zap.String("product_id", p.ID), zap.Error(err))
		return nil, apperror.Internal(err)
	}

	uc.afterChange(ctx, p)
	return p, nil
}

func (uc *productUseCase) afterChange(ctx context.Context, p *model.Product) {
	if err := inventory.InvalidateListCache(ctx, uc.cache, p.DealerID); err != nil {
		uc.logger.Warn("failed to invalidate inventory cache", zap.String("dealer_id", p.DealerID), zap.Error(err))
	}
	if uc.index != nil {
		snapshot := *p
		go uc.index.Sync(context.Background(), &snapshot)
	}
}

func duplicateSKU(sku string) error {
	return apperror.Conflict(apperror.CodeDuplicateSKU, "a product with this SKU already exists").
		WithDetails(map[string]interface{}{"sku": sku})
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
