//go:build integration

package migration

import (
	"context"
	"database/sql"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aigate/backend/internal/domain/account"
	"github.com/aigate/backend/internal/domain/shared"
	"github.com/aigate/backend/internal/infrastructure/persistence"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func startPostgres(t *testing.T) string {
	t.Helper()
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("aigate_test"),
		tcpostgres.WithUsername("postgres"),
		tcpostgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err, "Failed to start PostgreSQL container")
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)
	return dsn
}

func migrated(t *testing.T) (*sql.DB, *gorm.DB) {
	t.Helper()
	dsn := startPostgres(t)

	sqlDB, err := sql.Open("postgres", dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	m, err := New(sqlDB, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, m.Up())
	require.NoError(t, m.Up(), "second run is a no-op")

	db, err := gorm.Open(gormpostgres.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	return sqlDB, db
}

func TestMigrator_UpDown(t *testing.T) {
	dsn := startPostgres(t)
	sqlDB, err := sql.Open("postgres", dsn)
	require.NoError(t, err)
	defer sqlDB.Close()

	m, err := New(sqlDB, zap.NewNop())
	require.NoError(t, err)

	version, dirty, err := m.Version()
	require.NoError(t, err)
	assert.Zero(t, version)
	assert.False(t, dirty)

	require.NoError(t, m.Up())
	version, _, err = m.Version()
	require.NoError(t, err)
	assert.Equal(t, uint(1), version)

	for _, table := range []string{"users", "user_api_usage", "endpoint_stats"} {
		var exists bool
		require.NoError(t, sqlDB.QueryRow(`SELECT to_regclass($1) IS NOT NULL`, table).Scan(&exists))
		assert.True(t, exists, table)
	}

	require.NoError(t, m.Down())
	var exists bool
	require.NoError(t, sqlDB.QueryRow(`SELECT to_regclass('users') IS NOT NULL`).Scan(&exists))
	assert.False(t, exists)
}

func TestSchema_ConcurrentUsageIncrements(t *testing.T) {
	_, db := migrated(t)
	ctx := context.Background()

	repo := persistence.NewGormAccountRepository(db)
	ledger := persistence.NewGormUsageLedger(db)
	acct, err := account.NewAccount("load@example.com", "pw1", account.RoleStandard)
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, acct))

	const workers = 25
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, ledger.Increment(ctx, acct.ID))
		}()
	}
	wg.Wait()

	calls, err := ledger.Get(ctx, acct.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(workers), calls)
}

func TestSchema_Constraints(t *testing.T) {
	sqlDB, db := migrated(t)
	ctx := context.Background()
	repo := persistence.NewGormAccountRepository(db)

	first, err := account.NewAccount("dup@example.com", "pw1", account.RoleStandard)
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, first))

	second, err := account.NewAccount("DUP@example.com", "pw2", account.RoleStandard)
	require.NoError(t, err)
	assert.ErrorIs(t, repo.Create(ctx, second), shared.ErrDuplicateIdentity)

	require.NoError(t, persistence.NewGormUsageLedger(db).Increment(ctx, first.ID))
	require.NoError(t, repo.Delete(ctx, first.ID))

	var usageRows int
	require.NoError(t, sqlDB.QueryRow(`SELECT COUNT(*) FROM user_api_usage`).Scan(&usageRows))
	assert.Zero(t, usageRows)

	_, err = sqlDB.Exec(`INSERT INTO users (email, password_hash, role) VALUES ('x@example.com', 'h', 'root')`)
	assert.Error(t, err, "role is constrained")

	tally := persistence.NewGormEndpointTally(db)
	long := "/" + strings.Repeat("a", 300)
	require.NoError(t, tally.Record(ctx, "GET", long))
	require.NoError(t, tally.Record(ctx, "GET", long))
	stats, err := tally.List(ctx)
	require.NoError(t, err)
	require.Len(t, stats, 1)
	assert.Equal(t, int64(2), stats[0].Count)
}
