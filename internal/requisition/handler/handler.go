package handler

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/motohub/workshop-service/internal/api/param"
	"github.com/motohub/workshop-service/internal/api/response"
	"github.com/motohub/workshop-service/internal/apperror"
	"github.com/motohub/workshop-service/internal/auth"
	"github.com/motohub/workshop-service/internal/pkg/logger"
	"github.com/motohub/workshop-service/internal/requisition"
	"github.com/motohub/workshop-service/internal/requisition/dto"
)

type RequisitionHandler struct {
	uc     requisition.UseCase
	logger logger.ZapLogger
}

func NewRequisitionHandler(uc requisition.UseCase, log logger.ZapLogger) *RequisitionHandler {
	return &RequisitionHandler{
		uc:     uc,
		logger: log,
	}
}

// Create handles POST /requisitions. All items share one requisition group.
func (h *RequisitionHandler) Create(c *gin.Context) {
	user, err := auth.RequireDealer(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.CreateRequisitionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(apperror.CodeInvalidRequest, err.Error()))
		return
	}

	items := make([]dto.CreateItem, 0, len(req.Items))
	for _, it := range req.Items {
		items = append(items, dto.CreateItem{ProductID: it.ProductID, Quantity: it.Quantity, Notes: it.Notes})
	}
	created, err := h.uc.CreateRequisitions(c.Request.Context(), &dto.CreateRequisitionsInput{
		DealerID:    user.DealerID,
		JobCardID:   req.JobCardID,
		RequestedBy: user.UserID,
		Items:       items,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, created)
}

func (h *RequisitionHandler) List(c *gin.Context) {
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

	filters := &dto.RequisitionFilters{
		DealerID:  user.DealerID,
		Status:    q.Status,
		JobCardID: q.JobCardID,
		GroupID:   q.GroupID,
		Page:      q.Page,
		PageSize:  q.PageSize,
	}
	items, total, err := h.uc.ListRequisitions(c.Request.Context(), filters)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.List(c, items, filters.Page, filters.PageSize, total)
}

func (h *RequisitionHandler) Get(c *gin.Context) {
	user, err := auth.RequireDealer(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	id, err := param.ID(c, "id", apperror.CodeRequisitionMissing)
	if err != nil {
		response.Error(c, err)
		return
	}
	req, err := h.uc.GetRequisition(c.Request.Context(), user.DealerID, id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, req)
}

// UpdateStatus handles PATCH /requisitions/:id with {"status":"approved"|"rejected"}.
func (h *RequisitionHandler) UpdateStatus(c *gin.Context) {
	user, err := auth.RequireDealer(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	id, err := param.ID(c, "id", apperror.CodeRequisitionMissing)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(apperror.CodeInvalidRequest, err.Error()))
		return
	}

	res, err := h.uc.UpdateStatus(c.Request.Context(), &dto.UpdateStatusInput{
		DealerID:      user.DealerID,
		RequisitionID: id,
		Status:        req.Status,
		Reason:        req.Reason,
		ActorID:       user.UserID,
	})
	if err != nil {
		if apperror.Is(err, apperror.KindUnprocessable) {
			h.logger.Info("requisition approval refused",
				zap.String("requisition_id", id),
				zap.String("dealer_id", user.DealerID),
				zap.Error(err),
			)
		}
		response.Error(c, err)
		return
	}
	response.OK(c, res)
}
