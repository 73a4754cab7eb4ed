package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/motohub/workshop-service/internal/api/param"
	"github.com/motohub/workshop-service/internal/api/response"
	"github.com/motohub/workshop-service/internal/apperror"
	"github.com/motohub/workshop-service/internal/auth"
	"github.com/motohub/workshop-service/internal/inventory"
	"github.com/motohub/workshop-service/internal/inventory/dto"
	"github.com/motohub/workshop-service/internal/pkg/logger"
	"github.com/motohub/workshop-service/internal/pkg/pagination"
)

type InventoryHandler struct {
	uc     inventory.UseCase
	logger logger.ZapLogger
}

func NewInventoryHandler(uc inventory.UseCase, log logger.ZapLogger) *InventoryHandler {
	return &InventoryHandler{
		uc:     uc,
		logger: log,
	}
}

// List handles GET /inventory.
func (h *InventoryHandler) List(c *gin.Context) {
	user, err := auth.RequireDealer(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	var q dto.ListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.Error(c, apperror.Validation(apperror.CodeInvalidRequest, err.Error()))
		return
	}

	filters := &dto.InventoryFilters{
		DealerID:    user.DealerID,
		StockStatus: q.StockStatus,
		SearchQuery: q.Q,
		Page:        q.Page,
		PageSize:    q.PageSize,
	}
	items, total, err := h.uc.ListInventory(c.Request.Context(), filters)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.List(c, items, filters.Page, filters.PageSize, total)
}

// Search handles GET /inventory/search?q=.
func (h *InventoryHandler) Search(c *gin.Context) {
	user, err := auth.RequireDealer(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	var q dto.ListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.Error(c, apperror.Validation(apperror.CodeInvalidRequest, err.Error()))
		return
	}

	items, total, err := h.uc.SearchInventory(c.Request.Context(), user.DealerID, q.Q, q.Page, q.PageSize)
	if err != nil {
		response.Error(c, err)
		return
	}
	page, pageSize := pagination.Normalize(q.Page, q.PageSize)
	response.List(c, items, page, pageSize, total)
}

// Adjust handles POST /inventory/adjustments.
func (h *InventoryHandler) Adjust(c *gin.Context) {
	user, err := auth.RequireDealer(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.AdjustStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(apperror.CodeInvalidRequest, err.Error()))
		return
	}

	res, err := h.uc.AdjustStock(c.Request.Context(), &dto.AdjustStockInput{
		DealerID:       user.DealerID,
		ProductID:      req.ProductID,
		QuantityChange: req.QuantityChange,
		Reason:         req.Reason,
		ActorID:        user.UserID,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, res)
}

// ListMovements handles GET /inventory/movements.
func (h *InventoryHandler) ListMovements(c *gin.Context) {
	user, err := auth.RequireDealer(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	var q dto.MovementQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.Error(c, apperror.Validation(apperror.CodeInvalidRequest, err.Error()))
		return
	}

	filters := &dto.MovementFilters{
		DealerID:     user.DealerID,
		ProductID:    q.ProductID,
		BatchID:      q.BatchID,
		MovementType: q.MovementType,
		ReferenceID:  q.ReferenceID,
		Page:         q.Page,
		PageSize:     q.PageSize,
	}
	items, total, err := h.uc.ListMovements(c.Request.Context(), filters)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.List(c, items, filters.Page, filters.PageSize, total)
}

// ListBatches handles GET /inventory/:productId/batches.
func (h *InventoryHandler) ListBatches(c *gin.Context) {
	user, err := auth.RequireDealer(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	productID, err := param.ID(c, "productId", apperror.CodeProductMissing)
	if err != nil {
		response.Error(c, err)
		return
	}
	batches, err := h.uc.ListBatches(c.Request.Context(), user.DealerID, productID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, batches)
}

// ReceiveBatch handles POST /inventory/:productId/batches.
func (h *InventoryHandler) ReceiveBatch(c *gin.Context) {
	user, err := auth.RequireDealer(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	productID, err := param.ID(c, "productId", apperror.CodeProductMissing)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.ReceiveBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(apperror.CodeInvalidRequest, err.Error()))
		return
	}

	input := &dto.ReceiveBatchInput{
		DealerID:    user.DealerID,
		ProductID:   productID,
		BatchNumber: req.BatchNumber,
		Quantity:    req.Quantity,
		UnitCost:    req.UnitCost,
		ActorID:     user.UserID,
	}
	if req.ReceivedAt != nil {
		input.ReceivedAt = *req.ReceivedAt
	}

	res, err := h.uc.ReceiveBatch(c.Request.Context(), input)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, res)
}
