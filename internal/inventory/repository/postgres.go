package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/motohub/workshop-service/internal/inventory"
	"github.com/motohub/workshop-service/internal/inventory/dto"
	"github.com/motohub/workshop-service/internal/model"
	"github.com/motohub/workshop-service/internal/pkg/pagination"
	"github.com/motohub/workshop-service/internal/pkg/postgres"
)

// statusExpr derives the stock bucket from quantity and threshold so reads
// never depend on the stored stock_status column.
const statusExpr = `CASE
            WHEN stock_quantity <= 0 THEN 'out_of_stock'
            WHEN stock_quantity <= low_stock_threshold THEN 'low_stock'
            ELSE 'in_stock'
        END`

const productColumns = `id, dealer_id, sku, name, description, stock_quantity, low_stock_threshold,
        ` + statusExpr + ` AS stock_status, is_active, created_at, updated_at`

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

func (r *PGRepository) WithTx(ctx context.Context, fn func(tx inventory.TxRepository) error) error {
	return postgres.WithTx(ctx, r.DB, func(tx *sqlx.Tx) error {
		return fn(NewTxRepository(tx))
	})
}

func (r *PGRepository) FindProduct(ctx context.Context, dealerID, productID string) (*model.Product, error) {
	var p model.Product
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1 AND dealer_id = $2`
	if err := r.DB.GetContext(ctx, &p, query, productID, dealerID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "find product")
	}
	return &p, nil
}

func (r *PGRepository) ListProducts(ctx context.Context, f *dto.InventoryFilters) ([]model.Product, int, error) {
	items := []model.Product{}
	var count int

	conditions := []string{"dealer_id = :dealer_id", "is_active = TRUE"}
	args := map[string]interface{}{"dealer_id": f.DealerID}

	if f.StockStatus != "" {
		conditions = append(conditions, statusExpr+" = :stock_status")
		args["stock_status"] = f.StockStatus
	}
	if f.SearchQuery != "" {
		conditions = append(conditions, "(name ILIKE :q OR sku ILIKE :q)")
		args["q"] = "%" + f.SearchQuery + "%"
	}
	whereClause := " WHERE " + strings.Join(conditions, " AND ")

	countQuery, countArgs, err := sqlx.Named("SELECT count(*) FROM products"+whereClause, args)
	if err != nil {
		return nil, 0, err
	}
	if err := r.DB.GetContext(ctx, &count, r.DB.Rebind(countQuery), countArgs...); err != nil {
		return nil, 0, errors.Wrap(err, "count products")
	}

	query := "SELECT " + productColumns + " FROM products" + whereClause + " ORDER BY name ASC"
	if f.PageSize > 0 {
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", f.PageSize, pagination.Offset(f.Page, f.PageSize))
	}
	query, listArgs, err := sqlx.Named(query, args)
	if err != nil {
		return nil, 0, err
	}
	if err := r.DB.SelectContext(ctx, &items, r.DB.Rebind(query), listArgs...); err != nil {
		return nil, 0, errors.Wrap(err, "list products")
	}
	return items, count, nil
}

func (r *PGRepository) ListBatches(ctx context.Context, dealerID, productID string) ([]model.InventoryBatch, error) {
	items := []model.InventoryBatch{}
	query := `
        SELECT * FROM inventory_batches
        WHERE dealer_id = $1 AND product_id = $2
        ORDER BY received_at ASC, created_at ASC
    `
	if err := r.DB.SelectContext(ctx, &items, query, dealerID, productID); err != nil {
		return nil, errors.Wrap(err, "list batches")
	}
	return items, nil
}

func (r *PGRepository) ListMovements(ctx context.Context, f *dto.MovementFilters) ([]model.InventoryMovement, int, error) {
	items := []model.InventoryMovement{}
	var count int

	conditions := []string{"dealer_id = :dealer_id"}
	args := map[string]interface{}{"dealer_id": f.DealerID}

	if f.ProductID != "" {
		conditions = append(conditions, "product_id = :product_id")
		args["product_id"] = f.ProductID
	}
	if f.BatchID != "" {
		conditions = append(conditions, "batch_id = :batch_id")
		args["batch_id"] = f.BatchID
	}
	if f.MovementType != "" {
		conditions = append(conditions, "movement_type = :movement_type")
		args["movement_type"] = f.MovementType
	}
	if f.ReferenceID != "" {
		conditions = append(conditions, "reference_id = :reference_id")
		args["reference_id"] = f.ReferenceID
	}
	whereClause := " WHERE " + strings.Join(conditions, " AND ")

	countQuery, countArgs, err := sqlx.Named("SELECT count(*) FROM inventory_movements"+whereClause, args)
	if err != nil {
		return nil, 0, err
	}
	if err := r.DB.GetContext(ctx, &count, r.DB.Rebind(countQuery), countArgs...); err != nil {
		return nil, 0, errors.Wrap(err, "count movements")
	}

	query := "SELECT * FROM inventory_movements" + whereClause + " ORDER BY created_at DESC"
	if f.PageSize > 0 {
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", f.PageSize, pagination.Offset(f.Page, f.PageSize))
	}
	query, listArgs, err := sqlx.Named(query, args)
	if err != nil {
		return nil, 0, err
	}
	if err := r.DB.SelectContext(ctx, &items, r.DB.Rebind(query), listArgs...); err != nil {
		return nil, 0, errors.Wrap(err, "list movements")
	}
	return items, count, nil
}

// TxRepo runs the ledger statements on a transaction.
type TxRepo struct {
	q sqlx.ExtContext
}

func NewTxRepository(q sqlx.ExtContext) *TxRepo {
	return &TxRepo{q: q}
}

func (r *TxRepo) LockProduct(ctx context.Context, dealerID, productID string) (*model.Product, error) {
	var p model.Product
	query := `SELECT * FROM products WHERE id = $1 AND dealer_id = $2 FOR UPDATE`
	if err := sqlx.GetContext(ctx, r.q, &p, query, productID, dealerID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "lock product")
	}
	return &p, nil
}

func (r *TxRepo) LockActiveBatches(ctx context.Context, dealerID, productID string) ([]model.InventoryBatch, error) {
	batches := []model.InventoryBatch{}
	query := `
        SELECT * FROM inventory_batches
        WHERE product_id = $1 AND dealer_id = $2
          AND status = 'active' AND current_quantity > 0
        ORDER BY received_at ASC, created_at ASC
        FOR UPDATE
    `
	if err := sqlx.SelectContext(ctx, r.q, &batches, query, productID, dealerID); err != nil {
		return nil, errors.Wrap(err, "lock batches")
	}
	return batches, nil
}

func (r *TxRepo) UpdateBatch(ctx context.Context, b *model.InventoryBatch) error {
	query := `
        UPDATE inventory_batches
        SET current_quantity = :current_quantity,
            sold_quantity = :sold_quantity,
            status = :status,
            updated_at = :updated_at
        WHERE id = :id
    `
	_, err := sqlx.NamedExecContext(ctx, r.q, query, b)
	return errors.Wrap(err, "update batch")
}

func (r *TxRepo) InsertBatch(ctx context.Context, b *model.InventoryBatch) error {
	query := `
        INSERT INTO inventory_batches (
            id, dealer_id, product_id, batch_number, received_at,
            initial_quantity, current_quantity, sold_quantity, unit_cost,
            status, created_at, updated_at
        )
        VALUES (
            :id, :dealer_id, :product_id, :batch_number, :received_at,
            :initial_quantity, :current_quantity, :sold_quantity, :unit_cost,
            :status, :created_at, :updated_at
        )
    `
	_, err := sqlx.NamedExecContext(ctx, r.q, query, b)
	return errors.Wrap(err, "insert batch")
}

func (r *TxRepo) InsertMovement(ctx context.Context, m *model.InventoryMovement) error {
	query := `
        INSERT INTO inventory_movements (
            id, dealer_id, product_id, batch_id,
            movement_type, quantity_change, quantity_before, quantity_after,
            reference_type, reference_id, notes, created_by, created_at
        )
        VALUES (
            :id, :dealer_id, :product_id, :batch_id,
            :movement_type, :quantity_change, :quantity_before, :quantity_after,
            :reference_type, :reference_id, :notes, :created_by, :created_at
        )
    `
	_, err := sqlx.NamedExecContext(ctx, r.q, query, m)
	return errors.Wrap(err, "insert movement")
}

func (r *TxRepo) UpdateProductStock(ctx context.Context, p *model.Product) error {
	query := `
        UPDATE products
        SET stock_quantity = :stock_quantity,
            stock_status = :stock_status,
            updated_at = :updated_at
        WHERE id = :id
    `
	_, err := sqlx.NamedExecContext(ctx, r.q, query, p)
	return errors.Wrap(err, "update product stock")
}
