package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type BatchStatus string

const (
	BatchStatusActive   BatchStatus = "active"
	BatchStatusInactive BatchStatus = "inactive"
)

const (
	MovementTypeRequisitionIssue = "requisition_issue"
	MovementTypeAdjustment       = "adjustment"
	MovementTypeReceipt          = "receipt"
)

const (
	ReferenceTypeRequisitionApproval = "requisition_approval"
	ReferenceTypeManualAdjustment    = "manual_adjustment"
	ReferenceTypeBatchReceipt        = "batch_receipt"
)

// InventoryBatch is one received lot of a product. Batches are consumed in
// ReceivedAt order.
type InventoryBatch struct {
	ID              string          `db:"id" json:"id"`
	DealerID        string          `db:"dealer_id" json:"dealer_id"`
	ProductID       string          `db:"product_id" json:"product_id"`
	BatchNumber     string          `db:"batch_number" json:"batch_number"`
	ReceivedAt      time.Time       `db:"received_at" json:"received_at"`
	InitialQuantity int             `db:"initial_quantity" json:"initial_quantity"`
	CurrentQuantity int             `db:"current_quantity" json:"current_quantity"`
	SoldQuantity    int             `db:"sold_quantity" json:"sold_quantity"`
	UnitCost        decimal.Decimal `db:"unit_cost" json:"unit_cost"`
	Status          BatchStatus     `db:"status" json:"status"`
	CreatedAt       time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time       `db:"updated_at" json:"updated_at"`
}

// InventoryMovement is an append-only ledger row.
type InventoryMovement struct {
	ID             string    `db:"id" json:"id"`
	DealerID       string    `db:"dealer_id" json:"dealer_id"`
	ProductID      string    `db:"product_id" json:"product_id"`
	BatchID        *string   `db:"batch_id" json:"batch_id"`
	MovementType   string    `db:"movement_type" json:"movement_type"`
	QuantityChange int       `db:"quantity_change" json:"quantity_change"`
	QuantityBefore int       `db:"quantity_before" json:"quantity_before"`
	QuantityAfter  int       `db:"quantity_after" json:"quantity_after"`
	ReferenceType  *string   `db:"reference_type" json:"reference_type"`
	ReferenceID    *string   `db:"reference_id" json:"reference_id"`
	Notes          string    `db:"notes" json:"notes"`
	CreatedBy      *string   `db:"created_by" json:"created_by"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}
