package repository

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/motohub/workshop-service/internal/model"
)

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

func (r *PGRepository) Create(ctx context.Context, p *model.Product) error {
	query := `
        INSERT INTO products (
            id, dealer_id, sku, name, description, stock_quantity,
            low_stock_threshold, stock_status, is_active, created_at, updated_at
        )
        VALUES (
            :id, :dealer_id, :sku, :name, :description, :stock_quantity,
            :low_stock_threshold, :stock_status, :is_active, :created_at, :updated_at
        )
    `
	_, err := r.DB.NamedExecContext(ctx, query, p)
	return errors.Wrap(err, "insert product")
}

func (r *PGRepository) FindByID(ctx context.Context, dealerID, id string) (*model.Product, error) {
	var product model.Product
	query := `SELECT * FROM products WHERE id = $1 AND dealer_id = $2 LIMIT 1`
	err := r.DB.GetContext(ctx, &product, query, id, dealerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "find product")
	}
	return &product, nil
}

// Update writes catalog fields only. stock_quantity belongs to the inventory
// flows; the status bucket is recomputed against the row's current quantity
// and both are read back into p.
func (r *PGRepository) Update(ctx context.Context, p *model.Product) error {
	query, args, err := sqlx.Named(`
        UPDATE products
        SET sku = :sku,
            name = :name,
            description = :description,
            low_stock_threshold = :low_stock_threshold,
            stock_status = CASE
                WHEN stock_quantity <= 0 THEN 'out_of_stock'
                WHEN stock_quantity <= :low_stock_threshold THEN 'low_stock'
                ELSE 'in_stock'
            END,
            is_active = :is_active,
            updated_at = :updated_at
        WHERE id = :id AND dealer_id = :dealer_id
        RETURNING stock_quantity, stock_status
    `, p)
	if err != nil {
		return err
	}
	row := r.DB.QueryRowxContext(ctx, r.DB.Rebind(query), args...)
	return errors.Wrap(row.Scan(&p.StockQuantity, &p.StockStatus), "update product")
}

func (r *PGRepository) IsSKUUnique(ctx context.Context, dealerID, sku, excludeID string) (bool, error) {
	var count int
	query := `SELECT count(*) FROM products WHERE dealer_id = $1 AND sku = $2`
	args := []interface{}{dealerID, sku}
	if excludeID != "" {
		query += ` AND id != $3`
		args = append(args, excludeID)
	}

	if err := r.DB.GetContext(ctx, &count, query, args...); err != nil {
		return false, errors.Wrap(err, "check sku")
	}
	return count == 0, nil
}
