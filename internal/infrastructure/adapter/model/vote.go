package model

import (
	"time"
)

// VoteRecord is one voter's current vote on one target
type VoteRecord struct {
	ID         uint64    `gorm:"primaryKey;autoIncrement"`
	VoterID    uint64    `gorm:"not null;uniqueIndex:idx_votes_voter_target,priority:1"`
	TargetType string    `gorm:"type:varchar(20);not null;uniqueIndex:idx_votes_voter_target,priority:2;index:idx_votes_target,priority:1"`
	TargetID   uint64    `gorm:"not null;uniqueIndex:idx_votes_voter_target,priority:3;index:idx_votes_target,priority:2"`
	Direction  string    `gorm:"type:varchar(4);not null"`
	CreatedAt  time.Time `gorm:"not null"`
	UpdatedAt  time.Time `gorm:"not null"`
}

// TableName specifies the table name for VoteRecord
func (VoteRecord) TableName() string {
	return "votes"
}

// VoteCounterColumns are the denormalized counters carried by every votable table
type VoteCounterColumns struct {
	UpvoteCount   int64 `gorm:"not null;default:0"`
	DownvoteCount int64 `gorm:"not null;default:0"`
}

// Post is a votable forum post
type Post struct {
	ID    uint64 `gorm:"primaryKey;autoIncrement"`
	Title string `gorm:"type:varchar(255);not null"`
	VoteCounterColumns
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// TableName specifies the table name for Post
func (Post) TableName() string {
	return "posts"
}

// Comment is a votable comment
type Comment struct {
	ID     uint64 `gorm:"primaryKey;autoIncrement"`
	PostID uint64 `gorm:"not null;index"`
	Body   string `gorm:"type:text;not null"`
	VoteCounterColumns
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// TableName specifies the table name for Comment
func (Comment) TableName() string {
	return "comments"
}

// Review is a votable game review
type Review struct {
	ID     uint64 `gorm:"primaryKey;autoIncrement"`
	GameID uint64 `gorm:"not null;index"`
	Rating int    `gorm:"not null"`
	Body   string `gorm:"type:text"`
	VoteCounterColumns
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// TableName specifies the table name for Review
func (Review) TableName() string {
	return "reviews"
}
