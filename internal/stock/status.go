package stock

import "github.com/motohub/workshop-service/internal/model"

// StatusFor buckets a quantity against a product's low stock threshold.
func StatusFor(qty, threshold int) model.StockStatus {
	switch {
	case qty <= 0:
		return model.StockStatusOutOfStock
	case qty <= threshold:
		return model.StockStatusLowStock
	default:
		return model.StockStatusInStock
	}
}
