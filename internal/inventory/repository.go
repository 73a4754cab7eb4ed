package inventory

import (
	"context"

	"github.com/motohub/workshop-service/internal/inventory/dto"
	"github.com/motohub/workshop-service/internal/model"
)

// TxRepository is the stock ledger bound to one database transaction. Rows
// returned by the Lock methods stay locked until the transaction ends.
type TxRepository interface {
	// LockProduct returns nil when the product does not exist for the dealer.
	LockProduct(ctx context.Context, dealerID, productID string) (*model.Product, error)
	// LockActiveBatches returns the active batches with stock left, oldest
	// received first.
	LockActiveBatches(ctx context.Context, dealerID, productID string) ([]model.InventoryBatch, error)
	UpdateBatch(ctx context.Context, b *model.InventoryBatch) error
	InsertBatch(ctx context.Context, b *model.InventoryBatch) error
	InsertMovement(ctx context.Context, m *model.InventoryMovement) error
	UpdateProductStock(ctx context.Context, p *model.Product) error
}

type Repository interface {
	WithTx(ctx context.Context, fn func(tx TxRepository) error) error

	FindProduct(ctx context.Context, dealerID, productID string) (*model.Product, error)
	ListProducts(ctx context.Context, filters *dto.InventoryFilters) ([]model.Product, int, error)
	ListBatches(ctx context.Context, dealerID, productID string) ([]model.InventoryBatch, error)
	ListMovements(ctx context.Context, filters *dto.MovementFilters) ([]model.InventoryMovement, int, error)
}
