package dto

import "github.com/motohub/workshop-service/internal/model"

type InventoryFilters struct {
	DealerID    string `json:"dealer_id"`
	StockStatus string `json:"stock_status,omitempty"`
	SearchQuery string `json:"q,omitempty"`
	Page        int    `json:"page"`
	PageSize    int    `json:"page_size"`
}

type MovementFilters struct {
	DealerID     string
	ProductID    string
	BatchID      string
	MovementType string
	ReferenceID  string
	Page         int
	PageSize     int
}

type AdjustResult struct {
	Product  *model.Product           `json:"product"`
	Movement *model.InventoryMovement `json:"movement"`
}

type ReceiveResult struct {
	Product  *model.Product           `json:"product"`
	Batch    *model.InventoryBatch    `json:"batch"`
	Movement *model.InventoryMovement `json:"movement"`
}

// ListQuery binds GET /inventory query parameters.
type ListQuery struct {
	StockStatus string `form:"stock_status"`
	Q           string `form:"q"`
	Page        int    `form:"page"`
	PageSize    int    `form:"page_size"`
}

type MovementQuery struct {
	ProductID    string `form:"product_id" binding:"omitempty,uuid"`
	BatchID      string `form:"batch_id" binding:"omitempty,uuid"`
	MovementType string `form:"movement_type"`
	ReferenceID  string `form:"reference_id" binding:"omitempty,uuid"`
	Page         int    `form:"page"`
	PageSize     int    `form:"page_size"`
}
