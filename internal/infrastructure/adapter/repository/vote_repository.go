package repository

import (
	"context"
	"fmt"

	"github.com/amirhossein-jamali/gamestore-ledger/internal/domain/entity"
	errs "github.com/amirhossein-jamali/gamestore-ledger/internal/domain/error"
	coreport "github.com/amirhossein-jamali/gamestore-ledger/internal/domain/port/core"
	"github.com/amirhossein-jamali/gamestore-ledger/internal/infrastructure/adapter/model"
	"gorm.io/gorm"
)

const voteColumns = "id, voter_id, target_type, target_id, direction, created_at, updated_at"

// VoteRepository implements VoteRepository interface using GORM
type VoteRepository struct {
	db              *gorm.DB
	logger          coreport.Logger
	errorClassifier *ErrorClassifier
}

// NewVoteRepository creates a new VoteRepository instance
func NewVoteRepository(db *gorm.DB, logger coreport.Logger) *VoteRepository {
	return &VoteRepository{
		db:              db,
		logger:          logger,
		errorClassifier: NewErrorClassifier(),
	}
}

func voteToEntity(m *model.VoteRecord) *entity.VoteRecord {
	return &entity.VoteRecord{
		ID:      m.ID,
		VoterID: m.VoterID,
		Target: entity.VoteTarget{
			Type: entity.TargetType(m.TargetType),
			ID:   m.TargetID,
		},
		Direction: entity.VoteDirection(m.Direction),
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

func voteFields(voterID uint64, target entity.VoteTarget) map[string]any {
	return map[string]any{
		"voter_id": voterID,
		"target":   target.Tag(),
	}
}

// pairLockKey names the advisory lock serializing one voter on one target
func pairLockKey(voterID uint64, target entity.VoteTarget) string {
	return fmt.Sprintf("vote:%d:%s", voterID, target.Tag())
}

func (r *VoteRepository) handleDatabaseError(operation string, err error, fields map[string]any) error {
	fields["error"] = err.Error()
	r.logger.Error("Database error when "+operation, fields)
	return r.errorClassifier.Translate(operation, err)
}

func (r *VoteRepository) selectVote(ctx context.Context, voterID uint64, target entity.VoteTarget, forUpdate bool) (*entity.VoteRecord, error) {
	query := "SELECT " + voteColumns + " FROM votes WHERE voter_id = ? AND target_type = ? AND target_id = ?"
	if forUpdate {
		query += " FOR UPDATE"
	}

	var m model.VoteRecord
	result := r.db.WithContext(ctx).Raw(query, voterID, string(target.Type), target.ID).Scan(&m)
	if result.Error != nil {
		return nil, r.handleDatabaseError("reading vote", result.Error, voteFields(voterID, target))
	}
	if result.RowsAffected == 0 {
		return nil, errs.ErrVoteNotFound
	}
	return voteToEntity(&m), nil
}

// LockVote takes a transaction-scoped advisory lock on the (voter, target)
// pair so that concurrent first votes cannot both insert, then reads the
// current record under a row lock.
func (r *VoteRepository) LockVote(ctx context.Context, voterID uint64, target entity.VoteTarget) (*entity.VoteRecord, error) {
	if err := r.db.WithContext(ctx).Exec(
		"SELECT pg_advisory_xact_lock(hashtext(?))", pairLockKey(voterID, target),
	).Error; err != nil {
		return nil, r.handleDatabaseError("locking vote", err, voteFields(voterID, target))
	}

	record, err := r.selectVote(ctx, voterID, target, true)
	if err == errs.ErrVoteNotFound {
		return nil, nil
	}
	return record, err
}

// Create inserts a new vote record
func (r *VoteRepository) Create(ctx context.Context, record *entity.VoteRecord) error {
	var id uint64
	result := r.db.WithContext(ctx).Raw(
		`INSERT INTO votes (voter_id, target_type, target_id, direction, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 RETURNING id`,
		record.VoterID,
		string(record.Target.Type),
		record.Target.ID,
		string(record.Direction),
		record.CreatedAt,
		record.UpdatedAt,
	).Scan(&id)

	if result.Error != nil {
		if r.errorClassifier.IsDuplicateKeyError(result.Error) {
			r.logger.Warn("Voter already voted on target", voteFields(record.VoterID, record.Target))
			return errs.ErrConstraintViolation
		}
		return r.handleDatabaseError("creating vote", result.Error, voteFields(record.VoterID, record.Target))
	}

	record.ID = id
	return nil
}

// UpdateDirection writes the record's direction
func (r *VoteRepository) UpdateDirection(ctx context.Context, record *entity.VoteRecord) error {
	result := r.db.WithContext(ctx).Exec(
		"UPDATE votes SET direction = ?, updated_at = ? WHERE id = ?",
		string(record.Direction), record.UpdatedAt, record.ID,
	)
	if result.Error != nil {
		return r.handleDatabaseError("updating vote", result.Error, voteFields(record.VoterID, record.Target))
	}
	if result.RowsAffected == 0 {
		return errs.ErrVoteNotFound
	}
	return nil
}

// Delete removes the record
func (r *VoteRepository) Delete(ctx context.Context, record *entity.VoteRecord) error {
	result := r.db.WithContext(ctx).Exec("DELETE FROM votes WHERE id = ?", record.ID)
	if result.Error != nil {
		return r.handleDatabaseError("deleting vote", result.Error, voteFields(record.VoterID, record.Target))
	}
	if result.RowsAffected == 0 {
		return errs.ErrVoteNotFound
	}
	return nil
}

// GetVote returns the voter's current vote
func (r *VoteRepository) GetVote(ctx context.Context, voterID uint64, target entity.VoteTarget) (*entity.VoteRecord, error) {
	return r.selectVote(ctx, voterID, target, false)
}

type directionCount struct {
	Direction string
	Votes     int64
}

// CountByDirection counts the target's records per direction
func (r *VoteRepository) CountByDirection(ctx context.Context, target entity.VoteTarget) (entity.VoteCounters, error) {
	var rows []directionCount
	if err := r.db.WithContext(ctx).Raw(
		`SELECT direction, COUNT(*) AS votes
		 FROM votes
		 WHERE target_type = ? AND target_id = ?
		 GROUP BY direction`,
		string(target.Type), target.ID,
	).Scan(&rows).Error; err != nil {
		return entity.VoteCounters{}, r.handleDatabaseError("counting votes", err, map[string]any{
			"target": target.Tag(),
		})
	}

	var counters entity.VoteCounters
	for _, row := range rows {
		switch entity.VoteDirection(row.Direction) {
		case entity.VoteUp:
			counters.Up = row.Votes
		case entity.VoteDown:
			counters.Down = row.Votes
		}
	}
	return counters, nil
}
