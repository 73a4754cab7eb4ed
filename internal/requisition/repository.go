package requisition

import (
	"context"

	"github.com/motohub/workshop-service/internal/inventory"
	"github.com/motohub/workshop-service/internal/model"
	"github.com/motohub/workshop-service/internal/requisition/dto"
)

// TxRepository extends the stock ledger with the requisition rows of the same
// transaction.
type TxRepository interface {
	inventory.TxRepository

	// LockRequisition returns nil when the requisition does not exist or its
	// job card belongs to another dealer.
	LockRequisition(ctx context.Context, dealerID, id string) (*model.Requisition, error)
	UpdateRequisitionStatus(ctx context.Context, r *model.Requisition) error
	InsertRequisition(ctx context.Context, r *model.Requisition) error
	FindJobCard(ctx context.Context, dealerID, jobCardID string) (*model.JobCard, error)
}

type Repository interface {
	WithTx(ctx context.Context, fn func(tx TxRepository) error) error

	FindByID(ctx context.Context, dealerID, id string) (*model.Requisition, error)
	List(ctx context.Context, filters *dto.RequisitionFilters) ([]model.Requisition, int, error)
	// FindContext returns the job and technician a requisition notification
	// is routed by.
	FindContext(ctx context.Context, requisitionID string) (*model.RequisitionContext, error)
}
