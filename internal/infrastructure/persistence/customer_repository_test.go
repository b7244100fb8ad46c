package persistence

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/kanva/portal/internal/domain/sales"
	"github.com/kanva/portal/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGormCustomerRepository_UpsertBatch_SQL(t *testing.T) {
	customers := []*sales.Customer{
		{ID: "1", Name: "Acme Inc"},
		{ID: "2", Name: "Zenith LLC"},
		{ID: "3", Name: "Kratom Hub"},
	}

	t.Run("one transaction per chunk", func(t *testing.T) {
		db, mock, mockDB := newMockDB(t)
		defer mockDB.Close()
		repo := NewGormCustomerRepository(db, 2)

		for i := 0; i < 2; i++ {
			mock.ExpectBegin()
			mock.ExpectExec(`INSERT INTO "customers" .* ON CONFLICT \("id"\) DO UPDATE SET`).
				WillReturnResult(sqlmock.NewResult(0, 2))
			mock.ExpectCommit()
		}

		require.NoError(t, repo.UpsertBatch(context.Background(), customers))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("failed chunk rolls back and stops", func(t *testing.T) {
		db, mock, mockDB := newMockDB(t)
		defer mockDB.Close()
		repo := NewGormCustomerRepository(db, 2)

		mock.ExpectBegin()
		mock.ExpectExec(`INSERT INTO "customers"`).WillReturnResult(sqlmock.NewResult(0, 2))
		mock.ExpectCommit()
		mock.ExpectBegin()
		mock.ExpectExec(`INSERT INTO "customers"`).WillReturnError(errors.New("deadlock detected"))
		mock.ExpectRollback()

		err := repo.UpsertBatch(context.Background(), customers)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "upsert chunk 1")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("cancelled context writes nothing", func(t *testing.T) {
		db, mock, mockDB := newMockDB(t)
		defer mockDB.Close()
		repo := NewGormCustomerRepository(db, 2)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		err := repo.UpsertBatch(ctx, customers)
		assert.ErrorIs(t, err, context.Canceled)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormCustomerRepository_FindByID_NotFound(t *testing.T) {
	repo := NewGormCustomerRepository(newSQLiteDB(t), 0)

	_, err := repo.FindByID(context.Background(), "missing")
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestGormCustomerRepository_UpsertIsIdempotent(t *testing.T) {
	db := newSQLiteDB(t)
	repo := NewGormCustomerRepository(db, 0)
	ctx := context.Background()

	first := day(2024, 3, 1)
	c := &sales.Customer{
		ID:             "100",
		Name:           "Acme Inc",
		AccountNumber:  "ACC-1",
		AccountType:    sales.AccountTypeWholesale,
		FirstOrderDate: &first,
	}

	require.NoError(t, repo.UpsertBatch(ctx, []*sales.Customer{c}))
	require.NoError(t, repo.UpsertBatch(ctx, []*sales.Customer{c}))

	var count int64
	require.NoError(t, db.Table("customers").Count(&count).Error)
	assert.Equal(t, int64(1), count)

	c.LinkCRM("C-555")
	require.NoError(t, repo.UpsertBatch(ctx, []*sales.Customer{c}))

	got, err := repo.FindByID(ctx, "100")
	require.NoError(t, err)
	assert.Equal(t, "C-555", got.CopperCompanyID)
	assert.Equal(t, sales.AccountTypeWholesale, got.AccountType)
	assert.Equal(t, sales.TransferStatusAuto, got.TransferStatus)
	require.NotNil(t, got.FirstOrderDate)
	assert.True(t, first.Equal(*got.FirstOrderDate))

	all, err := repo.FindAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}
