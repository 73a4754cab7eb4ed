package dto

type CreateProductInput struct {
	DealerID          string
	SKU               string
	Name              string
	Description       string
	LowStockThreshold *int
}

// UpdateProductInput carries a partial update; nil fields are left as they are.
type UpdateProductInput struct {
	ID                string
	DealerID          string
	SKU               *string
	Name              *string
	Description       *string
	LowStockThreshold *int
	IsActive          *bool
}

type CreateProductRequest struct {
	SKU               string `json:"sku" binding:"required"`
	Name              string `json:"name" binding:"required"`
	Description       string `json:"description"`
	LowStockThreshold *int   `json:"low_stock_threshold" binding:"omitempty,min=0"`
}

type UpdateProductRequest struct {
	SKU               *string `json:"sku" binding:"omitempty,min=1"`
	Name              *string `json:"name" binding:"omitempty,min=1"`
	Description       *string `json:"description"`
	LowStockThreshold *int    `json:"low_stock_threshold" binding:"omitempty,min=0"`
	IsActive          *bool   `json:"is_active"`
}
