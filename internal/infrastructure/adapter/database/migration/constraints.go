package migration

import (
	"fmt"

	coreport "github.com/amirhossein-jamali/gamestore-ledger/internal/domain/port/core"
	"gorm.io/gorm"
)

// checkConstraint is a CHECK constraint added after AutoMigrate
type checkConstraint struct {
	table string
	name  string
	expr  string
}

// ledgerChecks back the ledger invariants at the storage level
var ledgerChecks = []checkConstraint{
	{"wallet_accounts", "chk_wallet_accounts_balance_nonneg", "balance >= 0"},
	{"wallet_transactions", "chk_wallet_transactions_amount_pos", "amount > 0"},
	{"wallet_transactions", "chk_wallet_transactions_balance_after_nonneg", "balance_after >= 0"},
	{"wallet_transactions", "chk_wallet_transactions_direction", "direction IN ('credit', 'debit')"},
	{"wallet_transactions", "chk_wallet_transactions_payment_type", "payment_type IN ('recharge', 'refund', 'payment')"},
	{"votes", "chk_votes_direction", "direction IN ('up', 'down')"},
	{"votes", "chk_votes_target_type", "target_type IN ('post', 'comment', 'review')"},
	{"posts", "chk_posts_counters_nonneg", "upvote_count >= 0 AND downvote_count >= 0"},
	{"comments", "chk_comments_counters_nonneg", "upvote_count >= 0 AND downvote_count >= 0"},
	{"reviews", "chk_reviews_counters_nonneg", "upvote_count >= 0 AND downvote_count >= 0"},
}

// ledgerIndexes are the indexes GORM tags cannot express
var ledgerIndexes = []struct {
	name string
	sql  string
}{
	{
		name: "idx_wallet_transactions_reference",
		sql: `CREATE UNIQUE INDEX IF NOT EXISTS idx_wallet_transactions_reference
			ON wallet_transactions (wallet_id, reference)
			WHERE reference IS NOT NULL`,
	},
	{
		name: "idx_wallet_transactions_created_at_brin",
		sql: `CREATE INDEX IF NOT EXISTS idx_wallet_transactions_created_at_brin
			ON wallet_transactions USING BRIN (created_at)
			WITH (pages_per_range = 32)`,
	},
}

// ConstraintManager adds PostgreSQL constraints and indexes beyond AutoMigrate
type ConstraintManager struct {
	db     *gorm.DB
	logger coreport.Logger
}

// NewConstraintManager creates a new constraint manager
func NewConstraintManager(db *gorm.DB, logger coreport.Logger) *ConstraintManager {
	return &ConstraintManager{
		db:     db,
		logger: logger,
	}
}

// CreateConstraints adds every check constraint that is not present yet
func (m *ConstraintManager) CreateConstraints() error {
	m.logger.Info("Creating ledger check constraints", nil)

	for _, c := range ledgerChecks {
		if err := m.db.Exec(addCheckSQL(c)).Error; err != nil {
			m.logger.Error("Failed to add check constraint", map[string]any{
				"table":      c.table,
				"constraint": c.name,
				"error":      err.Error(),
			})
			return err
		}
	}
	return nil
}

// CreateIndexes adds the partial and BRIN indexes
func (m *ConstraintManager) CreateIndexes() error {
	m.logger.Info("Creating ledger indexes", nil)

	for _, idx := range ledgerIndexes {
		if err := m.db.Exec(idx.sql).Error; err != nil {
			m.logger.Error("Failed to create index", map[string]any{
				"index": idx.name,
				"error": err.Error(),
			})
			return err
		}
	}
	return nil
}

// ApplyPerformanceTweaks leaves headroom for HOT updates on the hot counter rows.
// Failures are logged and ignored.
func (m *ConstraintManager) ApplyPerformanceTweaks() {
	for _, table := range []string{"wallet_accounts", "posts", "comments", "reviews"} {
		if err := m.db.Exec(fmt.Sprintf("ALTER TABLE %s SET (fillfactor = 90)", table)).Error; err != nil {
			m.logger.Warn("Failed to set fillfactor", map[string]any{
				"table": table,
				"error": err.Error(),
			})
		}
	}
}

// addCheckSQL builds an idempotent ADD CONSTRAINT; PostgreSQL has no IF NOT EXISTS for it
func addCheckSQL(c checkConstraint) string {
	return fmt.Sprintf(`DO $$
BEGIN
	IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = '%s') THEN
		ALTER TABLE %s ADD CONSTRAINT %s CHECK (%s);
	END IF;
END $$;`, c.name, c.table, c.name, c.expr)
}
