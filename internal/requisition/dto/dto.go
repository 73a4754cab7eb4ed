package dto

import (
	"github.com/shopspring/decimal"

	"github.com/motohub/workshop-service/internal/model"
	"github.com/motohub/workshop-service/internal/stock"
)

type RequisitionFilters struct {
	DealerID  string
	Status    string
	JobCardID string
	GroupID   string
	Page      int
	PageSize  int
}

// StatusResult is the outcome of an approval or rejection. Allocations and
// Product are only set on approval.
type StatusResult struct {
	Requisition *model.Requisition `json:"requisition"`
	Product     *model.Product     `json:"product,omitempty"`
	Allocations []stock.Allocation `json:"allocations,omitempty"`
	TotalCost   decimal.Decimal    `json:"total_cost"`
}

type ListQuery struct {
	Status    string `form:"status"`
	JobCardID string `form:"job_card_id" binding:"omitempty,uuid"`
	GroupID   string `form:"group_id" binding:"omitempty,uuid"`
	Page      int    `form:"page"`
	PageSize  int    `form:"page_size"`
}
