package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/motohub/workshop-service/internal/model"
)

func newMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return sqlx.NewDb(db, "pgx"), mock
}

func TestIsSKUUnique(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery(`SELECT count\(\*\) FROM products WHERE dealer_id = \$1 AND sku = \$2 AND id != \$3`).
		WithArgs("dealer-a", "OIL", "p-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	unique, err := NewPGRepository(db).IsSKUUnique(context.Background(), "dealer-a", "OIL", "p-1")
	require.NoError(t, err)
	assert.False(t, unique)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindByIDScopedToDealer(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery(`SELECT \* FROM products WHERE id = \$1 AND dealer_id = \$2 LIMIT 1`).
		WithArgs("p-1", "dealer-b").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	p, err := NewPGRepository(db).FindByID(context.Background(), "dealer-b", "p-1")
	require.NoError(t, err)
	assert.Nil(t, p)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateReadsBackStock(t *testing.T) {
	db, mock := newMock(t)
	now := time.Now()
	mock.ExpectQuery(`UPDATE products\s+SET sku = \$1,.*RETURNING stock_quantity, stock_status`).
		WithArgs("OIL", "Oil", nil, 10, 10, true, now, "p-1", "dealer-a").
		WillReturnRows(sqlmock.NewRows([]string{"stock_quantity", "stock_status"}).AddRow(8, "low_stock"))

	p := &model.Product{
		BaseModel:         model.BaseModel{ID: "p-1", UpdatedAt: now},
		DealerID:          "dealer-a",
		SKU:               "OIL",
		Name:              "Oil",
		LowStockThreshold: 10,
		StockStatus:       model.StockStatusInStock,
		IsActive:          true,
	}
	require.NoError(t, NewPGRepository(db).Update(context.Background(), p))
	assert.Equal(t, 8, p.StockQuantity)
	assert.Equal(t, model.StockStatusLowStock, p.StockStatus)
	assert.NoError(t, mock.ExpectationsWereMet())
}
