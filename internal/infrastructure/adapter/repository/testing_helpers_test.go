package repository

import (
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/amirhossein-jamali/gamestore-ledger/internal/infrastructure/adapter/logger"
	timeadapter "github.com/amirhossein-jamali/gamestore-ledger/internal/infrastructure/adapter/time"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var fixedNow = time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

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

func newTestWalletRepository(t *testing.T) (*WalletRepository, sqlmock.Sqlmock) {
	db, mock := setupMockDB(t)
	return NewWalletRepository(db, timeadapter.NewManualTimeProvider(fixedNow), logger.NewNoopLogger()), mock
}

func newTestVoteRepository(t *testing.T) (*VoteRepository, sqlmock.Sqlmock) {
	db, mock := setupMockDB(t)
	return NewVoteRepository(db, logger.NewNoopLogger()), mock
}

func newTestVotableRepository(t *testing.T) (*VotableRepository, sqlmock.Sqlmock) {
	db, mock := setupMockDB(t)
	return NewVotableRepository(db, timeadapter.NewManualTimeProvider(fixedNow), logger.NewNoopLogger()), mock
}
