package migration

import (
	"context"

	coreport "github.com/amirhossein-jamali/gamestore-ledger/internal/domain/port/core"
	"github.com/amirhossein-jamali/gamestore-ledger/internal/infrastructure/adapter/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SeedVotableTargets creates a few posts, comments and reviews so a fresh
// development database has something to vote on. Existing rows are kept.
func SeedVotableTargets(ctx context.Context, db *gorm.DB, timeProvider coreport.TimeProvider, logger coreport.Logger) error {
	now := timeProvider.Now()
	db = db.WithContext(ctx)
	insert := db.Clauses(clause.OnConflict{DoNothing: true}).Session(&gorm.Session{})

	posts := []model.Post{
		{ID: 1, Title: "Patch notes discussion", CreatedAt: now, UpdatedAt: now},
		{ID: 2, Title: "Best co-op games this year", CreatedAt: now, UpdatedAt: now},
		{ID: 3, Title: "Looking for a raid group", CreatedAt: now, UpdatedAt: now},
	}
	if err := insert.Create(&posts).Error; err != nil {
		return err
	}

	comments := []model.Comment{
		{ID: 1, PostID: 1, Body: "The balance changes look good", CreatedAt: now, UpdatedAt: now},
		{ID: 2, PostID: 2, Body: "Count me in", CreatedAt: now, UpdatedAt: now},
	}
	if err := insert.Create(&comments).Error; err != nil {
		return err
	}

	reviews := []model.Review{
		{ID: 1, GameID: 100, Rating: 5, Body: "Worth every rupee", CreatedAt: now, UpdatedAt: now},
		{ID: 2, GameID: 101, Rating: 2, Body: "Too short", CreatedAt: now, UpdatedAt: now},
	}
	if err := insert.Create(&reviews).Error; err != nil {
		return err
	}

	// Explicit IDs do not advance the serial sequences
	for _, table := range []string{"posts", "comments", "reviews"} {
		if err := db.Exec("SELECT setval(pg_get_serial_sequence(?, 'id'), (SELECT COALESCE(MAX(id), 1) FROM " + table + "))", table).Error; err != nil {
			return err
		}
	}

	logger.Info("Seeded votable targets", map[string]any{
		"posts":    len(posts),
		"comments": len(comments),
		"reviews":  len(reviews),
	})
	return nil
}
