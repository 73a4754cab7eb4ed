package model

type StockStatus string

const (
	StockStatusInStock    StockStatus = "in_stock"
	StockStatusLowStock   StockStatus = "low_stock"
	StockStatusOutOfStock StockStatus = "out_of_stock"
)

func (s StockStatus) Valid() bool {
	switch s {
	case StockStatusInStock, StockStatusLowStock, StockStatusOutOfStock:
		return true
	}
	return false
}

// Product is a spare part sold or issued by a dealer. StockQuantity is the
// denormalized total of its active batches.
type Product struct {
	BaseModel
	DealerID          string      `db:"dealer_id" json:"dealer_id"`
	SKU               string      `db:"sku" json:"sku"`
	Name              string      `db:"name" json:"name"`
	Description       *string     `db:"description" json:"description"`
	StockQuantity     int         `db:"stock_quantity" json:"stock_quantity"`
	LowStockThreshold int         `db:"low_stock_threshold" json:"low_stock_threshold"`
	StockStatus       StockStatus `db:"stock_status" json:"stock_status"`
	IsActive          bool        `db:"is_active" json:"is_active"`
}
