package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/motohub/workshop-service/internal/inventory"
	"github.com/motohub/workshop-service/internal/inventory/dto"
	"github.com/motohub/workshop-service/internal/model"
)

func newMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return sqlx.NewDb(db, "pgx"), mock
}

var batchColumns = []string{
	"id", "dealer_id", "product_id", "batch_number", "received_at", "initial_quantity",
	"current_quantity", "sold_quantity", "unit_cost", "status", "created_at", "updated_at",
}

func TestLockActiveBatches(t *testing.T) {
	db, mock := newMock(t)
	day1 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	day2 := day1.AddDate(0, 0, 1)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM inventory_batches\s+WHERE product_id = \$1 AND dealer_id = \$2\s+AND status = 'active' AND current_quantity > 0\s+ORDER BY received_at ASC, created_at ASC\s+FOR UPDATE`).
		WithArgs("p-1", "dealer-a").
		WillReturnRows(sqlmock.NewRows(batchColumns).
			AddRow("b-1", "dealer-a", "p-1", "GRN-1", day1, 5, 5, 0, "10.00", "active", day1, day1).
			AddRow("b-2", "dealer-a", "p-1", "GRN-2", day2, 10, 10, 0, "11.50", "active", day2, day2))
	mock.ExpectCommit()

	repo := NewPGRepository(db)
	var got []model.InventoryBatch
	err := repo.WithTx(context.Background(), func(tx inventory.TxRepository) error {
		var err error
		got, err = tx.LockActiveBatches(context.Background(), "dealer-a", "p-1")
		return err
	})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "b-1", got[0].ID)
	assert.Equal(t, "11.5", got[1].UnitCost.String())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLockProductMissing(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery(`SELECT \* FROM products WHERE id = \$1 AND dealer_id = \$2 FOR UPDATE`).
		WithArgs("p-x", "dealer-a").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	p, err := NewTxRepository(db).LockProduct(context.Background(), "dealer-a", "p-x")
	require.NoError(t, err)
	assert.Nil(t, p)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateProductStock(t *testing.T) {
	db, mock := newMock(t)
	now := time.Now()
	mock.ExpectExec(`UPDATE products\s+SET stock_quantity = \$1,\s+stock_status = \$2,\s+updated_at = \$3\s+WHERE id = \$4`).
		WithArgs(7, "in_stock", now, "p-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := NewTxRepository(db).UpdateProductStock(context.Background(), &model.Product{
		BaseModel:     model.BaseModel{ID: "p-1", UpdatedAt: now},
		StockQuantity: 7,
		StockStatus:   model.StockStatusInStock,
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertMovement(t *testing.T) {
	db, mock := newMock(t)
	now := time.Now()
	batchID := "b-1"
	refType := model.ReferenceTypeRequisitionApproval
	refID := "r-1"
	actor := "u-1"

	mock.ExpectExec(`INSERT INTO inventory_movements`).
		WithArgs("m-1", "dealer-a", "p-1", batchID, model.MovementTypeRequisitionIssue, -5, 5, 0,
			refType, refID, "", actor, now).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := NewTxRepository(db).InsertMovement(context.Background(), &model.InventoryMovement{
		ID:             "m-1",
		DealerID:       "dealer-a",
		ProductID:      "p-1",
		BatchID:        &batchID,
		MovementType:   model.MovementTypeRequisitionIssue,
		QuantityChange: -5,
		QuantityBefore: 5,
		QuantityAfter:  0,
		ReferenceType:  &refType,
		ReferenceID:    &refID,
		CreatedBy:      &actor,
		CreatedAt:      now,
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListProductsFiltersStatus(t *testing.T) {
	db, mock := newMock(t)
	now := time.Now()

	mock.ExpectQuery(`SELECT count\(\*\) FROM products WHERE dealer_id = \$1 AND is_active = TRUE AND CASE .* END = \$2`).
		WithArgs("dealer-a", "low_stock").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery(`SELECT id, dealer_id, sku, .* FROM products WHERE .* ORDER BY name ASC LIMIT 20 OFFSET 20`).
		WithArgs("dealer-a", "low_stock").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "dealer_id", "sku", "name", "description", "stock_quantity", "low_stock_threshold",
			"stock_status", "is_active", "created_at", "updated_at",
		}).AddRow("p-1", "dealer-a", "OIL", "Engine oil", nil, 3, 5, "low_stock", true, now, now))

	items, count, err := NewPGRepository(db).ListProducts(context.Background(), &dto.InventoryFilters{
		DealerID:    "dealer-a",
		StockStatus: "low_stock",
		Page:        2,
		PageSize:    20,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	require.Len(t, items, 1)
	assert.Equal(t, model.StockStatusLowStock, items[0].StockStatus)
	assert.NoError(t, mock.ExpectationsWereMet())
}
