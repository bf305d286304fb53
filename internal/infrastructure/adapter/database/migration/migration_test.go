package migration

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/amirhossein-jamali/gamestore-ledger/internal/infrastructure/adapter/logger"
	timeadapter "github.com/amirhossein-jamali/gamestore-ledger/internal/infrastructure/adapter/time"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger:                 gormlogger.Discard,
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	t.Cleanup(func() {
		require.NoError(t, mock.ExpectationsWereMet())
		_ = sqlDB.Close()
	})
	return db, mock
}

func TestCreateConstraints(t *testing.T) {
	db, mock := setupMockDB(t)

	for _, c := range ledgerChecks {
		mock.ExpectExec(`IF NOT EXISTS \(SELECT 1 FROM pg_constraint WHERE conname = '` + c.name + `'\)`).
			WillReturnResult(sqlmock.NewResult(0, 0))
	}

	require.NoError(t, NewConstraintManager(db, logger.NewNoopLogger()).CreateConstraints())
}

func TestCreateConstraints_StopsOnFailure(t *testing.T) {
	db, mock := setupMockDB(t)

	mock.ExpectExec(`chk_wallet_accounts_balance_nonneg`).
		WillReturnError(errors.New("check constraint is violated by some row"))

	err := NewConstraintManager(db, logger.NewNoopLogger()).CreateConstraints()
	assert.Error(t, err)
}

func TestCreateIndexes(t *testing.T) {
	db, mock := setupMockDB(t)

	mock.ExpectExec(`CREATE UNIQUE INDEX IF NOT EXISTS idx_wallet_transactions_reference\s+ON wallet_transactions \(wallet_id, reference\)\s+WHERE reference IS NOT NULL`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`CREATE INDEX IF NOT EXISTS idx_wallet_transactions_created_at_brin`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, NewConstraintManager(db, logger.NewNoopLogger()).CreateIndexes())
}

func TestAddCheckSQL(t *testing.T) {
	sql := addCheckSQL(checkConstraint{table: "votes", name: "chk_votes_direction", expr: "direction IN ('up', 'down')"})

	assert.Contains(t, sql, "conname = 'chk_votes_direction'")
	assert.Contains(t, sql, "ALTER TABLE votes ADD CONSTRAINT chk_votes_direction CHECK (direction IN ('up', 'down'));")
}

func TestGetCurrentVersion(t *testing.T) {
	db, mock := setupMockDB(t)
	manager := NewMigrationManager(db, logger.NewNoopLogger(), timeadapter.NewManualTimeProvider(time.Now()))

	mock.ExpectQuery(`SELECT \* FROM "migration_versions" ORDER BY applied_at desc`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "version", "applied_at", "details", "created_at"}))

	version, err := manager.GetCurrentVersion(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "", version)

	mock.ExpectQuery(`SELECT \* FROM "migration_versions" ORDER BY applied_at desc`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "version", "applied_at", "details", "created_at"}).
			AddRow(1, "1.0.0", time.Now(), "base", time.Now()))

	version, err = manager.GetCurrentVersion(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "1.0.0", version)
}

func TestGetCurrentVersion_CanceledContext(t *testing.T) {
	db, _ := setupMockDB(t)
	manager := NewMigrationManager(db, logger.NewNoopLogger(), timeadapter.NewManualTimeProvider(time.Now()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := manager.GetCurrentVersion(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
