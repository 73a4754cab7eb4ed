package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	invrepo "github.com/motohub/workshop-service/internal/inventory/repository"
	"github.com/motohub/workshop-service/internal/model"
	"github.com/motohub/workshop-service/internal/pkg/pagination"
	"github.com/motohub/workshop-service/internal/pkg/postgres"
	"github.com/motohub/workshop-service/internal/requisition"
	"github.com/motohub/workshop-service/internal/requisition/dto"
)

// requisitionSelect joins the owning job card so every read is dealer scoped.
const requisitionSelect = `
        SELECT sr.id, sr.job_card_id, sr.group_id, sr.product_id, sr.quantity, sr.status,
               sr.requested_by, sr.approved_by, sr.approved_at, sr.reason, sr.notes,
               sr.created_at, sr.updated_at, jc.dealer_id
        FROM service_requisitions sr
        JOIN job_cards jc ON jc.id = sr.job_card_id
    `

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

func (r *PGRepository) WithTx(ctx context.Context, fn func(tx requisition.TxRepository) error) error {
	return postgres.WithTx(ctx, r.DB, func(tx *sqlx.Tx) error {
		return fn(&txRepository{TxRepo: invrepo.NewTxRepository(tx), q: tx})
	})
}

func (r *PGRepository) FindByID(ctx context.Context, dealerID, id string) (*model.Requisition, error) {
	var req model.Requisition
	query := requisitionSelect + ` WHERE sr.id = $1 AND jc.dealer_id = $2`
	if err := r.DB.GetContext(ctx, &req, query, id, dealerID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "find requisition")
	}
	return &req, nil
}

func (r *PGRepository) List(ctx context.Context, f *dto.RequisitionFilters) ([]model.Requisition, int, error) {
	items := []model.Requisition{}
	var count int

	conditions := []string{"jc.dealer_id = :dealer_id"}
	args := map[string]interface{}{"dealer_id": f.DealerID}

	if f.Status != "" {
		conditions = append(conditions, "sr.status = :status")
		args["status"] = f.Status
	}
	if f.JobCardID != "" {
		conditions = append(conditions, "sr.job_card_id = :job_card_id")
		args["job_card_id"] = f.JobCardID
	}
	if f.GroupID != "" {
		conditions = append(conditions, "sr.group_id = :group_id")
		args["group_id"] = f.GroupID
	}
	whereClause := " WHERE " + strings.Join(conditions, " AND ")

	countQuery, countArgs, err := sqlx.Named(`
        SELECT count(*) FROM service_requisitions sr
        JOIN job_cards jc ON jc.id = sr.job_card_id`+whereClause, args)
	if err != nil {
		return nil, 0, err
	}
	if err := r.DB.GetContext(ctx, &count, r.DB.Rebind(countQuery), countArgs...); err != nil {
		return nil, 0, errors.Wrap(err, "count requisitions")
	}

	query := requisitionSelect + whereClause + " ORDER BY sr.created_at DESC"
	if f.PageSize > 0 {
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", f.PageSize, pagination.Offset(f.Page, f.PageSize))
	}
	query, listArgs, err := sqlx.Named(query, args)
	if err != nil {
		return nil, 0, err
	}
	if err := r.DB.SelectContext(ctx, &items, r.DB.Rebind(query), listArgs...); err != nil {
		return nil, 0, errors.Wrap(err, "list requisitions")
	}
	return items, count, nil
}

func (r *PGRepository) FindContext(ctx context.Context, requisitionID string) (*model.RequisitionContext, error) {
	var rc model.RequisitionContext
	query := `
        SELECT sr.id AS requisition_id, sr.group_id, sr.job_card_id,
               jc.job_number, jc.technician_id, jc.dealer_id
        FROM service_requisitions sr
        JOIN job_cards jc ON jc.id = sr.job_card_id
        WHERE sr.id = $1
    `
	if err := r.DB.GetContext(ctx, &rc, query, requisitionID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "find requisition context")
	}
	return &rc, nil
}

type txRepository struct {
	*invrepo.TxRepo
	q sqlx.ExtContext
}

func (r *txRepository) LockRequisition(ctx context.Context, dealerID, id string) (*model.Requisition, error) {
	var req model.Requisition
	query := requisitionSelect + ` WHERE sr.id = $1 AND jc.dealer_id = $2 FOR UPDATE OF sr`
	if err := sqlx.GetContext(ctx, r.q, &req, query, id, dealerID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "lock requisition")
	}
	return &req, nil
}

func (r *txRepository) UpdateRequisitionStatus(ctx context.Context, req *model.Requisition) error {
	query := `
        UPDATE service_requisitions
        SET status = :status,
            approved_by = :approved_by,
            approved_at = :approved_at,
            reason = :reason,
            updated_at = :updated_at
        WHERE id = :id
    `
	_, err := sqlx.NamedExecContext(ctx, r.q, query, req)
	return errors.Wrap(err, "update requisition status")
}

func (r *txRepository) InsertRequisition(ctx context.Context, req *model.Requisition) error {
	query := `
        INSERT INTO service_requisitions (
            id, job_card_id, group_id, product_id, quantity, status,
            requested_by, notes, created_at, updated_at
        )
        VALUES (
            :id, :job_card_id, :group_id, :product_id, :quantity, :status,
            :requested_by, :notes, :created_at, :updated_at
        )
    `
	_, err := sqlx.NamedExecContext(ctx, r.q, query, req)
	return errors.Wrap(err, "insert requisition")
}

func (r *txRepository) FindJobCard(ctx context.Context, dealerID, jobCardID string) (*model.JobCard, error) {
	var jc model.JobCard
	query := `SELECT * FROM job_cards WHERE id = $1 AND dealer_id = $2`
	if err := sqlx.GetContext(ctx, r.q, &jc, query, jobCardID, dealerID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "find job card")
	}
	return &jc, nil
}
