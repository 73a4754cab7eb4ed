// Package stock holds the pure stock rules: FIFO batch allocation and the
// stock status buckets.
package stock

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/motohub/workshop-service/internal/model"
)

// Allocation is the quantity taken from one batch.
type Allocation struct {
	BatchID  string          `json:"batch_id"`
	Before   int             `json:"quantity_before"`
	Take     int             `json:"quantity"`
	After    int             `json:"quantity_after"`
	UnitCost decimal.Decimal `json:"unit_cost"`
}

type Plan struct {
	Requested   int
	Allocations []Allocation
}

func (p Plan) Total() int {
	n := 0
	for _, a := range p.Allocations {
		n += a.Take
	}
	return n
}

func (p Plan) TotalCost() decimal.Decimal {
	total := decimal.Zero
	for _, a := range p.Allocations {
		total = total.Add(a.UnitCost.Mul(decimal.NewFromInt(int64(a.Take))))
	}
	return total
}

type InsufficientStockError struct {
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock: requested %d, available %d", e.Requested, e.Available)
}

// ErrInvalidQuantity is returned for non-positive requests.
var ErrInvalidQuantity = fmt.Errorf("quantity must be greater than zero")

// Available sums the remaining quantity over batches.
func Available(batches []model.InventoryBatch) int {
	n := 0
	for _, b := range batches {
		if b.CurrentQuantity > 0 {
			n += b.CurrentQuantity
		}
	}
	return n
}

// PlanFIFO takes qty from batches in the given order, which must be oldest
// received first. Nothing is planned unless the batches cover qty in full.
func PlanFIFO(batches []model.InventoryBatch, qty int) (Plan, error) {
	if qty <= 0 {
		return Plan{}, ErrInvalidQuantity
	}
	if avail := Available(batches); avail < qty {
		return Plan{}, &InsufficientStockError{Requested: qty, Available: avail}
	}

	plan := Plan{Requested: qty}
	remaining := qty
	for _, b := range batches {
		if remaining == 0 {
			break
		}
		if b.CurrentQuantity <= 0 {
			continue
		}
		take := min(b.CurrentQuantity, remaining)
		plan.Allocations = append(plan.Allocations, Allocation{
			BatchID:  b.ID,
			Before:   b.CurrentQuantity,
			Take:     take,
			After:    b.CurrentQuantity - take,
			UnitCost: b.UnitCost,
		})
		remaining -= take
	}
	return plan, nil
}
