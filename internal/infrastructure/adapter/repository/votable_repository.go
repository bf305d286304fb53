package repository

import (
	"context"
	"strings"

	"github.com/amirhossein-jamali/gamestore-ledger/internal/domain/entity"
	errs "github.com/amirhossein-jamali/gamestore-ledger/internal/domain/error"
	coreport "github.com/amirhossein-jamali/gamestore-ledger/internal/domain/port/core"
	"github.com/amirhossein-jamali/gamestore-ledger/internal/infrastructure/adapter/model"
	"gorm.io/gorm"
)

// VotableRepository implements VotableRepository interface using GORM.
// The counter table is chosen from the target kind, never from caller input.
type VotableRepository struct {
	db              *gorm.DB
	timeProvider    coreport.TimeProvider
	logger          coreport.Logger
	errorClassifier *ErrorClassifier
}

// NewVotableRepository creates a new VotableRepository instance
func NewVotableRepository(db *gorm.DB, timeProvider coreport.TimeProvider, logger coreport.Logger) *VotableRepository {
	return &VotableRepository{
		db:              db,
		timeProvider:    timeProvider,
		logger:          logger,
		errorClassifier: NewErrorClassifier(),
	}
}

func (r *VotableRepository) table(target entity.VoteTarget) (string, error) {
	table := target.Type.Table()
	if table == "" {
		return "", errs.ErrInvalidTargetType
	}
	return table, nil
}

func (r *VotableRepository) handleDatabaseError(operation string, err error, target entity.VoteTarget) error {
	r.logger.Error("Database error when "+operation, map[string]any{
		"target": target.Tag(),
		"error":  err.Error(),
	})
	return r.errorClassifier.Translate(operation, err)
}

func (r *VotableRepository) readCounters(ctx context.Context, target entity.VoteTarget, forUpdate bool) (entity.VoteCounters, error) {
	table, err := r.table(target)
	if err != nil {
		return entity.VoteCounters{}, err
	}

	query := "SELECT upvote_count, downvote_count FROM " + table + " WHERE id = ?"
	if forUpdate {
		query += " FOR UPDATE"
	}

	var row model.VoteCounterColumns
	result := r.db.WithContext(ctx).Raw(query, target.ID).Scan(&row)
	if result.Error != nil {
		return entity.VoteCounters{}, r.handleDatabaseError("reading counters", result.Error, target)
	}
	if result.RowsAffected == 0 {
		return entity.VoteCounters{}, errs.ErrTargetNotFound
	}
	return entity.VoteCounters{Up: row.UpvoteCount, Down: row.DownvoteCount}, nil
}

// GetCounters reads the target's counters
func (r *VotableRepository) GetCounters(ctx context.Context, target entity.VoteTarget) (entity.VoteCounters, error) {
	return r.readCounters(ctx, target, false)
}

// LockCounters reads the target's counters under its row lock
func (r *VotableRepository) LockCounters(ctx context.Context, target entity.VoteTarget) (entity.VoteCounters, error) {
	return r.readCounters(ctx, target, true)
}

// AdjustCounters increments the counters in place, touching only the non-zero columns
func (r *VotableRepository) AdjustCounters(ctx context.Context, target entity.VoteTarget, delta entity.CounterDelta) error {
	if delta.IsZero() {
		return nil
	}
	table, err := r.table(target)
	if err != nil {
		return err
	}

	sets := make([]string, 0, 3)
	args := make([]any, 0, 4)
	if delta.Up != 0 {
		sets = append(sets, "upvote_count = upvote_count + ?")
		args = append(args, delta.Up)
	}
	if delta.Down != 0 {
		sets = append(sets, "downvote_count = downvote_count + ?")
		args = append(args, delta.Down)
	}
	sets = append(sets, "updated_at = ?")
	args = append(args, r.timeProvider.Now(), target.ID)

	result := r.db.WithContext(ctx).Exec(
		"UPDATE "+table+" SET "+strings.Join(sets, ", ")+" WHERE id = ?",
		args...,
	)
	if result.Error != nil {
		return r.handleDatabaseError("adjusting counters", result.Error, target)
	}
	if result.RowsAffected == 0 {
		return errs.ErrTargetNotFound
	}
	return nil
}

// SetCounters overwrites the target's counters
func (r *VotableRepository) SetCounters(ctx context.Context, target entity.VoteTarget, counters entity.VoteCounters) error {
	table, err := r.table(target)
	if err != nil {
		return err
	}

	result := r.db.WithContext(ctx).Exec(
		"UPDATE "+table+" SET upvote_count = ?, downvote_count = ?, updated_at = ? WHERE id = ?",
		counters.Up, counters.Down, r.timeProvider.Now(), target.ID,
	)
	if result.Error != nil {
		return r.handleDatabaseError("setting counters", result.Error, target)
	}
	if result.RowsAffected == 0 {
		return errs.ErrTargetNotFound
	}

	r.logger.Info("Vote counters overwritten", map[string]any{
		"target":         target.Tag(),
		"upvote_count":   counters.Up,
		"downvote_count": counters.Down,
	})
	return nil
}
