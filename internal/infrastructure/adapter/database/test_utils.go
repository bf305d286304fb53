package database

import (
	"context"
	"os"
	"strconv"
	"testing"
	"time"

	coreport "github.com/amirhossein-jamali/gamestore-ledger/internal/domain/port/core"
	"github.com/amirhossein-jamali/gamestore-ledger/internal/infrastructure/adapter/model"
	timeprovider "github.com/amirhossein-jamali/gamestore-ledger/internal/infrastructure/adapter/time"
)

// TestDBManager connects integration tests to a real PostgreSQL database.
// Tests are skipped unless TEST_DB_HOST is set.
type TestDBManager struct {
	Manager      *Manager
	Config       *Config
	Logger       coreport.Logger
	TimeProvider coreport.TimeProvider
}

// NewTestDBManager connects and migrates the test database, or skips the test
func NewTestDBManager(t *testing.T, logger coreport.Logger) *TestDBManager {
	t.Helper()

	host := os.Getenv("TEST_DB_HOST")
	if host == "" {
		t.Skip("TEST_DB_HOST not set; skipping PostgreSQL integration test")
	}

	config := DefaultConfig()
	config.Host = host
	config.Port = getEnvIntOrDefault("TEST_DB_PORT", 5432)
	config.Username = getEnvOrDefault("TEST_DB_USERNAME", "postgres")
	config.Password = getEnvOrDefault("TEST_DB_PASSWORD", "postgres")
	config.Database = getEnvOrDefault("TEST_DB_DATABASE", "gamestore_ledger_test")
	config.MaxOpenConns = 20
	config.MaxIdleConns = 5
	config.LockTimeout = 2 * time.Second
	config.LogLevel = "silent"
	config.RetryAttempts = 1

	timeProvider := timeprovider.NewRealTimeProvider()
	m := &TestDBManager{
		Manager:      NewManager(config, logger, timeProvider),
		Config:       config,
		Logger:       logger,
		TimeProvider: timeProvider,
	}

	ctx := context.Background()
	if _, err := m.Manager.Connect(ctx); err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}
	t.Cleanup(func() {
		if err := m.Manager.Close(); err != nil {
			t.Logf("Warning: Failed to close test database connection: %v", err)
		}
	})

	m.dropAllTables(t)
	if err := m.Manager.Migrate(ctx, false); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}
	return m
}

func (m *TestDBManager) dropAllTables(t *testing.T) {
	t.Helper()

	if err := m.Manager.DB().Exec(`
		DO $$ DECLARE
			r RECORD;
		BEGIN
			FOR r IN (SELECT tablename FROM pg_tables WHERE schemaname = current_schema()) LOOP
				EXECUTE 'DROP TABLE IF EXISTS ' || quote_ident(r.tablename) || ' CASCADE';
			END LOOP;
		END $$;
	`).Error; err != nil {
		t.Fatalf("Failed to drop tables: %v", err)
	}
}

// CreatePost inserts a votable post with the given counters
func (m *TestDBManager) CreatePost(t *testing.T, id uint64, up, down int64) {
	t.Helper()

	now := m.TimeProvider.Now()
	post := model.Post{
		ID:                 id,
		Title:              "test post",
		VoteCounterColumns: model.VoteCounterColumns{UpvoteCount: up, DownvoteCount: down},
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if err := m.Manager.DB().Create(&post).Error; err != nil {
		t.Fatalf("Failed to create test post: %v", err)
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if result, err := strconv.Atoi(value); err == nil {
			return result
		}
	}
	return defaultValue
}
