package handler

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/motohub/workshop-service/internal/api/param"
	"github.com/motohub/workshop-service/internal/api/response"
	"github.com/motohub/workshop-service/internal/apperror"
	"github.com/motohub/workshop-service/internal/auth"
	"github.com/motohub/workshop-service/internal/pkg/logger"
	"github.com/motohub/workshop-service/internal/product"
	"github.com/motohub/workshop-service/internal/product/dto"
)

type ProductHandler struct {
	uc     product.UseCase
	logger logger.ZapLogger
}

func NewProductHandler(uc product.UseCase, log logger.ZapLogger) *ProductHandler {
	return &ProductHandler{
		uc:     uc,
		logger: log,
	}
}

func (h *ProductHandler) Create(c *gin.Context) {
	user, err := auth.RequireDealer(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(apperror.CodeInvalidRequest, err.Error()))
		return
	}

	p, err := h.uc.CreateProduct(c.Request.Context(), &dto.CreateProductInput{
		DealerID:          user.DealerID,
		SKU:               req.SKU,
		Name:              req.Name,
		Description:       req.Description,
		LowStockThreshold: req.LowStockThreshold,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	h.logger.Info("product created", zap.String("product_id", p.ID), zap.String("dealer_id", p.DealerID))
	response.Created(c, p)
}

func (h *ProductHandler) Get(c *gin.Context) {
	user, err := auth.RequireDealer(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	id, err := param.ID(c, "id", apperror.CodeProductMissing)
	if err != nil {
		response.Error(c, err)
		return
	}
	p, err := h.uc.GetProduct(c.Request.Context(), user.DealerID, id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, p)
}

func (h *ProductHandler) Update(c *gin.Context) {
	user, err := auth.RequireDealer(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	id, err := param.ID(c, "id", apperror.CodeProductMissing)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.UpdateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(apperror.CodeInvalidRequest, err.Error()))
		return
	}

	p, err := h.uc.UpdateProduct(c.Request.Context(), &dto.UpdateProductInput{
		ID:                id,
		DealerID:          user.DealerID,
		SKU:               req.SKU,
		Name:              req.Name,
		Description:       req.Description,
		LowStockThreshold: req.LowStockThreshold,
		IsActive:          req.IsActive,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, p)
}
