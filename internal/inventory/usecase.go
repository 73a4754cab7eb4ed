package inventory

import (
	"context"

	"github.com/motohub/workshop-service/internal/inventory/dto"
	"github.com/motohub/workshop-service/internal/model"
)

type UseCase interface {
	ListInventory(ctx context.Context, filters *dto.InventoryFilters) ([]model.Product, int, error)
	SearchInventory(ctx context.Context, dealerID, q string, page, pageSize int) ([]model.Product, int, error)
	AdjustStock(ctx context.Context, input *dto.AdjustStockInput) (*dto.AdjustResult, error)
	ReceiveBatch(ctx context.Context, input *dto.ReceiveBatchInput) (*dto.ReceiveResult, error)
	ListBatches(ctx context.Context, dealerID, productID string) ([]model.InventoryBatch, error)
	ListMovements(ctx context.Context, filters *dto.MovementFilters) ([]model.InventoryMovement, int, error)
}
