package persistence

import (
	"context"
	"sync"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/aigate/backend/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGormUsageLedger_Get(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	ledger := NewGormUsageLedger(db)
	ctx := context.Background()

	t.Run("creates record at zero", func(t *testing.T) {
		count, err := ledger.Get(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, int64(0), count)

		var rows int64
		require.NoError(t, db.Table("user_api_usage").Where("user_id = ?", 1).Count(&rows).Error)
		assert.Equal(t, int64(1), rows)
	})

	t.Run("is idempotent", func(t *testing.T) {
		_, err := ledger.Get(ctx, 1)
		require.NoError(t, err)

		var rows int64
		require.NoError(t, db.Table("user_api_usage").Where("user_id = ?", 1).Count(&rows).Error)
		assert.Equal(t, int64(1), rows)
	})
}

func TestGormUsageLedger_Increment(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	ledger := NewGormUsageLedger(db)
	ctx := context.Background()

	t.Run("inserts at one when absent", func(t *testing.T) {
		require.NoError(t, ledger.Increment(ctx, 7))

		count, err := ledger.Get(ctx, 7)
		require.NoError(t, err)
		assert.Equal(t, int64(1), count)
	})

	t.Run("adds one when present", func(t *testing.T) {
		require.NoError(t, ledger.Increment(ctx, 7))

		count, err := ledger.Get(ctx, 7)
		require.NoError(t, err)
		assert.Equal(t, int64(2), count)
	})

	t.Run("concurrent increments are not lost", func(t *testing.T) {
		const n = 100
		var wg sync.WaitGroup
		errs := make(chan error, n)
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				errs <- ledger.Increment(ctx, 99)
			}()
		}
		wg.Wait()
		close(errs)
		for err := range errs {
			require.NoError(t, err)
		}

		count, err := ledger.Get(ctx, 99)
		require.NoError(t, err)
		assert.Equal(t, int64(n), count)
	})
}

func TestGormUsageLedger_Reset(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	ledger := NewGormUsageLedger(db)
	ctx := context.Background()

	for i := 0; i < 25; i++ {
		require.NoError(t, ledger.Increment(ctx, 3))
	}
	require.NoError(t, ledger.Reset(ctx, 3))

	count, err := ledger.Get(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)

	require.NoError(t, ledger.Reset(ctx, 4), "reset of unknown account creates a zero record")
	count, err = ledger.Get(ctx, 4)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
}

func TestGormUsageLedger_Increment_SingleStatement(t *testing.T) {
	mockDB := testutil.NewMockDB(t)
	ledger := NewGormUsageLedger(mockDB.DB)

	mockDB.Mock.ExpectQuery(`INSERT INTO "user_api_usage" .* ON CONFLICT \("user_id"\) DO UPDATE SET "api_calls"=user_api_usage\.api_calls \+ 1`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))

	require.NoError(t, ledger.Increment(context.Background(), 5))
	mockDB.ExpectationsWereMet(t)
}
