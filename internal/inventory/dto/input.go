package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

type AdjustStockInput struct {
	DealerID       string
	ProductID      string
	QuantityChange int
	Reason         string
	ActorID        string
}

type ReceiveBatchInput struct {
	DealerID    string
	ProductID   string
	BatchNumber string
	Quantity    int
	UnitCost    decimal.Decimal
	ReceivedAt  time.Time
	ActorID     string
}

type AdjustStockRequest struct {
	ProductID      string `json:"product_id" binding:"required,uuid"`
	QuantityChange int    `json:"quantity_change"`
	Reason         string `json:"reason"`
}

type ReceiveBatchRequest struct {
	BatchNumber string          `json:"batch_number" binding:"required"`
	Quantity    int             `json:"quantity"`
	UnitCost    decimal.Decimal `json:"unit_cost"`
	ReceivedAt  *time.Time      `json:"received_at"`
}
