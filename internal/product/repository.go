package product

import (
	"context"

	"github.com/motohub/workshop-service/internal/model"
)

type Repository interface {
	Create(ctx context.Context, product *model.Product) error
	FindByID(ctx context.Context, dealerID, id string) (*model.Product, error)
	Update(ctx context.Context, product *model.Product) error

	// IsSKUUnique reports whether sku is free within the dealer, ignoring excludeID.
	IsSKUUnique(ctx context.Context, dealerID, sku, excludeID string) (bool, error)
}
