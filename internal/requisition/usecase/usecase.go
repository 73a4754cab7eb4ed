package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/motohub/workshop-service/internal/apperror"
	"github.com/motohub/workshop-service/internal/event"
	"github.com/motohub/workshop-service/internal/inventory"
	"github.com/motohub/workshop-service/internal/model"
	"github.com/motohub/workshop-service/internal/pkg/cache"
	"github.com/motohub/workshop-service/internal/pkg/logger"
	"github.com/motohub/workshop-service/internal/pkg/metrics"
	"github.com/motohub/workshop-service/internal/pkg/pagination"
	"github.com/motohub/workshop-service/internal/pkg/search"
	"github.com/motohub/workshop-service/internal/requisition"
	"github.com/motohub/workshop-service/internal/requisition/dto"
	"github.com/motohub/workshop-service/internal/stock"
)

var tracer = otel.Tracer("github.com/motohub/workshop-service/internal/requisition")

type requisitionUseCase struct {
	repo   requisition.Repository
	cache  cache.Store
	index  *search.ProductIndex
	events *event.Emitter
	logger logger.ZapLogger
	now    func() time.Time
}

func NewRequisitionUseCase(repo requisition.Repository, store cache.Store, index *search.ProductIndex, events *event.Emitter, log logger.ZapLogger) requisition.UseCase {
	return &requisitionUseCase{
		repo:   repo,
		cache:  store,
		index:  index,
		events: events,
		logger: log,
		now:    time.Now,
	}
}

// UpdateStatus moves a pending requisition to approved or rejected. Approval
// issues the quantity from the product's batches oldest first; the status
// change, batch updates, ledger rows and product total commit together or
// not at all.
func (uc *requisitionUseCase) UpdateStatus(ctx context.Context, input *dto.UpdateStatusInput) (*dto.StatusResult, error) {
	ctx, span := tracer.Start(ctx, "requisition.UpdateStatus")
	defer span.End()
	span.SetAttributes(
		attribute.String("dealer.id", input.DealerID),
		attribute.String("requisition.id", input.RequisitionID),
		attribute.String("requisition.status", input.Status),
	)

	target := model.RequisitionStatus(input.Status)
	if target != model.RequisitionApproved && target != model.RequisitionRejected {
		return nil, apperror.Validation(apperror.CodeInvalidStatus, "status must be approved or rejected")
	}
	if input.DealerID == "" {
		return nil, apperror.Validation(apperror.CodeMissingDealer, "dealer context is required")
	}

	now := uc.now()
	result := &dto.StatusResult{TotalCost: decimal.Zero}

	err := uc.repo.WithTx(ctx, func(tx requisition.TxRepository) error {
		req, err := tx.LockRequisition(ctx, input.DealerID, input.RequisitionID)
		if err != nil {
			return err
		}
		if req == nil {
			return apperror.NotFound(apperror.CodeRequisitionMissing, "requisition not found")
		}
		if req.Status != model.RequisitionPending {
			return apperror.Conflict(apperror.CodeAlreadyProcessed, "requisition has already been processed").
				WithDetails(map[string]interface{}{"status": string(req.Status)})
		}

		req.Status = target
		req.ApprovedBy = optional(input.ActorID)
		req.ApprovedAt = &now
		req.Reason = input.Reason
		req.UpdatedAt = now

		if target == model.RequisitionApproved {
			product, plan, err := uc.issueStock(ctx, tx, req, input.ActorID, now)
			if err != nil {
				return err
			}
			result.Product = product
			result.Allocations = plan.Allocations
			result.TotalCost = plan.TotalCost()
		}

		if err := tx.UpdateRequisitionStatus(ctx, req); err != nil {
			return err
		}
		result.Requisition = req
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		if apperror.KindOf(err) == apperror.KindInternal {
			uc.logger.Error("failed to update requisition status",
				zap.String("requisition_id", input.RequisitionID),
				zap.Error(err),
			)
		}
		return nil, apperror.From(err)
	}

	metrics.RequisitionsProcessed.WithLabelValues(string(target)).Inc()
	if result.Product != nil {
		metrics.StockUnitsMoved.WithLabelValues(model.MovementTypeRequisitionIssue).Add(float64(result.Requisition.Quantity))
		uc.afterStockChange(ctx, result.Product)
	}
	uc.publishStatus(ctx, result.Requisition, input.ActorID)

	uc.logger.Info("requisition status updated",
		zap.String("requisition_id", result.Requisition.ID),
		zap.String("status", string(target)),
		zap.Int("batches", len(result.Allocations)),
	)
	return result, nil
}

// issueStock deducts req.Quantity from the product's active batches and
// writes one ledger row per batch touched. Nothing is written unless the
// batches cover the full quantity.
func (uc *requisitionUseCase) issueStock(ctx context.Context, tx requisition.TxRepository, req *model.Requisition, actorID string, now time.Time) (*model.Product, stock.Plan, error) {
	product, err := tx.LockProduct(ctx, req.DealerID, req.ProductID)
	if err != nil {
		return nil, stock.Plan{}, err
	}
	if product == nil {
		return nil, stock.Plan{}, apperror.NotFound(apperror.CodeProductMissing, "product not found")
	}

	batches, err := tx.LockActiveBatches(ctx, req.DealerID, product.ID)
	if err != nil {
		return nil, stock.Plan{}, err
	}

	plan, err := stock.PlanFIFO(batches, req.Quantity)
	if err != nil {
		var insufficient *stock.InsufficientStockError
		if errors.As(err, &insufficient) {
			return nil, stock.Plan{}, apperror.Unprocessable(apperror.CodeInsufficientStock, err.Error()).
				WithDetails(map[string]interface{}{
					"product_id": product.ID,
					"requested":  insufficient.Requested,
					"available":  insufficient.Available,
				})
		}
		return nil, stock.Plan{}, apperror.Validation(apperror.CodeInvalidQuantity, err.Error())
	}
	// Manual adjustments move only the product total, so it can sit below
	// the batch sum. The total never goes negative.
	if product.StockQuantity < req.Quantity {
		return nil, stock.Plan{}, apperror.Unprocessable(apperror.CodeInsufficientStock, "insufficient stock").
			WithDetails(map[string]interface{}{
				"product_id": product.ID,
				"requested":  req.Quantity,
				"available":  product.StockQuantity,
			})
	}

	byID := make(map[string]model.InventoryBatch, len(batches))
	for _, b := range batches {
		byID[b.ID] = b
	}

	refType := model.ReferenceTypeRequisitionApproval
	for _, a := range plan.Allocations {
		b := byID[a.BatchID]
		b.CurrentQuantity = a.After
		b.SoldQuantity += a.Take
		b.UpdatedAt = now
		if err := tx.UpdateBatch(ctx, &b); err != nil {
			return nil, stock.Plan{}, err
		}

		batchID := a.BatchID
		refID := req.ID
		if err := tx.InsertMovement(ctx, &model.InventoryMovement{
			ID:             uuid.New().String(),
			DealerID:       req.DealerID,
			ProductID:      product.ID,
			BatchID:        &batchID,
			MovementType:   model.MovementTypeRequisitionIssue,
			QuantityChange: -a.Take,
			QuantityBefore: a.Before,
			QuantityAfter:  a.After,
			ReferenceType:  &refType,
			ReferenceID:    &refID,
			Notes:          "requisition approval",
			CreatedBy:      optional(actorID),
			CreatedAt:      now,
		}); err != nil {
			return nil, stock.Plan{}, err
		}
	}

	product.StockQuantity -= req.Quantity
	product.StockStatus = stock.StatusFor(product.StockQuantity, product.LowStockThreshold)
	product.UpdatedAt = now
	if err := tx.UpdateProductStock(ctx, product); err != nil {
		return nil, stock.Plan{}, err
	}
	return product, plan, nil
}

func (uc *requisitionUseCase) CreateRequisitions(ctx context.Context, input *dto.CreateRequisitionsInput) ([]model.Requisition, error) {
	ctx, span := tracer.Start(ctx, "requisition.CreateRequisitions")
	defer span.End()
	span.SetAttributes(
		attribute.String("dealer.id", input.DealerID),
		attribute.String("job_card.id", input.JobCardID),
		attribute.Int("items", len(input.Items)),
	)

	if input.DealerID == "" {
		return nil, apperror.Validation(apperror.CodeMissingDealer, "dealer context is required")
	}
	if len(input.Items) == 0 {
		return nil, apperror.Validation(apperror.CodeInvalidRequest, "at least one item is required")
	}
	for _, item := range input.Items {
		if item.Quantity <= 0 {
			return nil, apperror.Validation(apperror.CodeInvalidQuantity, "quantity must be greater than zero").
				WithDetails(map[string]interface{}{"product_id": item.ProductID})
		}
	}

	now := uc.now()
	groupID := uuid.New().String()
	var (
		created []model.Requisition
		jobCard *model.JobCard
	)
	err := uc.repo.WithTx(ctx, func(tx requisition.TxRepository) error {
		jc, err := tx.FindJobCard(ctx, input.DealerID, input.JobCardID)
		if err != nil {
			return err
		}
		if jc == nil {
			return apperror.NotFound(apperror.CodeJobCardMissing, "job card not found")
		}

		created = created[:0]
		for _, item := range input.Items {
			p, err := tx.LockProduct(ctx, input.DealerID, item.ProductID)
			if err != nil {
				return err
			}
			if p == nil || !p.IsActive {
				return apperror.NotFound(apperror.CodeProductMissing, "product not found").
					WithDetails(map[string]interface{}{"product_id": item.ProductID})
			}

			req := model.Requisition{
				BaseModel:   model.BaseModel{ID: uuid.New().String(), CreatedAt: now, UpdatedAt: now},
				JobCardID:   jc.ID,
				GroupID:     groupID,
				ProductID:   p.ID,
				Quantity:    item.Quantity,
				Status:      model.RequisitionPending,
				RequestedBy: optional(input.RequestedBy),
				Notes:       item.Notes,
				DealerID:    jc.DealerID,
			}
			if err := tx.InsertRequisition(ctx, &req); err != nil {
				return err
			}
			created = append(created, req)
		}
		jobCard = jc
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		if apperror.KindOf(err) == apperror.KindInternal {
			uc.logger.Error("failed to create requisitions", zap.String("job_card_id", input.JobCardID), zap.Error(err))
		}
		return nil, apperror.From(err)
	}

	for _, req := range created {
		uc.events.Emit(ctx, event.RequisitionCreated, req.DealerID, req.ID, event.RequisitionPayload{
			RequisitionID:      req.ID,
			RequisitionGroupID: req.GroupID,
			JobID:              jobCard.ID,
			JobNumber:          jobCard.JobNumber,
			TechnicianID:       jobCard.TechnicianID,
			DealerID:           req.DealerID,
			ProductID:          req.ProductID,
			Quantity:           req.Quantity,
			Status:             string(req.Status),
			ActorID:            input.RequestedBy,
		})
	}
	return created, nil
}

func (uc *requisitionUseCase) GetRequisition(ctx context.Context, dealerID, id string) (*model.Requisition, error) {
	req, err := uc.repo.FindByID(ctx, dealerID, id)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	if req == nil {
		return nil, apperror.NotFound(apperror.CodeRequisitionMissing, "requisition not found")
	}
	return req, nil
}

func (uc *requisitionUseCase) ListRequisitions(ctx context.Context, filters *dto.RequisitionFilters) ([]model.Requisition, int, error) {
	if filters.Status != "" {
		switch model.RequisitionStatus(filters.Status) {
		case model.RequisitionPending, model.RequisitionApproved, model.RequisitionRejected:
		default:
			return nil, 0, apperror.Validation(apperror.CodeInvalidStatus, "unknown requisition status")
		}
	}
	filters.Page, filters.PageSize = pagination.Normalize(filters.Page, filters.PageSize)

	items, count, err := uc.repo.List(ctx, filters)
	if err != nil {
		return nil, 0, apperror.Internal(err)
	}
	return items, count, nil
}

// publishStatus sends the status specific event and the generic
// status_changed event. The transaction is already committed, so a failed
// context lookup only degrades the payload.
func (uc *requisitionUseCase) publishStatus(ctx context.Context, req *model.Requisition, actorID string) {
	rc, err := uc.repo.FindContext(ctx, req.ID)
	if err != nil || rc == nil {
		uc.logger.Warn("requisition context lookup failed", zap.String("requisition_id", req.ID), zap.Error(err))
		rc = &model.RequisitionContext{
			RequisitionID: req.ID,
			GroupID:       req.GroupID,
			JobCardID:     req.JobCardID,
			DealerID:      req.DealerID,
		}
	}

	payload := event.RequisitionPayload{
		RequisitionID:      req.ID,
		RequisitionGroupID: rc.GroupID,
		JobID:              rc.JobCardID,
		JobNumber:          rc.JobNumber,
		TechnicianID:       rc.TechnicianID,
		DealerID:           rc.DealerID,
		ProductID:          req.ProductID,
		Quantity:           req.Quantity,
		Status:             string(req.Status),
		PreviousStatus:     string(model.RequisitionPending),
		ActorID:            actorID,
		Reason:             req.Reason,
	}

	specific := event.RequisitionApproved
	if req.Status == model.RequisitionRejected {
		specific = event.RequisitionRejected
	}
	uc.events.Emit(ctx, specific, rc.DealerID, req.ID, payload)
	uc.events.Emit(ctx, event.RequisitionStatusChanged, rc.DealerID, req.ID, payload)
}

func (uc *requisitionUseCase) afterStockChange(ctx context.Context, p *model.Product) {
	if err := inventory.InvalidateListCache(ctx, uc.cache, p.DealerID); err != nil {
		uc.logger.Warn("failed to invalidate inventory cache", zap.String("dealer_id", p.DealerID), zap.Error(err))
	}
	if uc.index != nil {
		snapshot := *p
		go uc.index.Sync(context.Background(), &snapshot)
	}
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
