package product

import (
	"context"

	"github.com/motohub/workshop-service/internal/model"
	"github.com/motohub/workshop-service/internal/product/dto"
)

type UseCase interface {
	CreateProduct(ctx context.Context, input *dto.CreateProductInput) (*model.Product, error)
	GetProduct(ctx context.Context, dealerID, id string) (*model.Product, error)
	UpdateProduct(ctx context.Context, input *dto.UpdateProductInput) (*model.Product, error)
}
