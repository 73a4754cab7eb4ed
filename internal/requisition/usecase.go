package requisition

import (
	"context"

	"github.com/motohub/workshop-service/internal/model"
	"github.com/motohub/workshop-service/internal/requisition/dto"
)

type UseCase interface {
	UpdateStatus(ctx context.Context, input *dto.UpdateStatusInput) (*dto.StatusResult, error)
	CreateRequisitions(ctx context.Context, input *dto.CreateRequisitionsInput) ([]model.Requisition, error)
	GetRequisition(ctx context.Context, dealerID, id string) (*model.Requisition, error)
	ListRequisitions(ctx context.Context, filters *dto.RequisitionFilters) ([]model.Requisition, int, error)
}
