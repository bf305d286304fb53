package entity

import (
	"fmt"
	"strings"
	"time"

	errs "github.com/amirhossein-jamali/gamestore-ledger/internal/domain/error"
)

// TargetType identifies which kind of entity carries the vote counters
type TargetType string

// Votable entity kinds
const (
	TargetPost    TargetType = "post"
	TargetComment TargetType = "comment"
	TargetReview  TargetType = "review"
)

// TargetTypes lists every votable kind
var TargetTypes = []TargetType{TargetPost, TargetComment, TargetReview}

// ParseTargetType converts a raw kind such as "post" or "Review"
func ParseTargetType(raw string) (TargetType, error) {
	tt := TargetType(strings.ToLower(strings.TrimSpace(raw)))
	if !tt.IsValid() {
		return "", fmt.Errorf("%w: %s", errs.ErrInvalidTargetType, raw)
	}
	return tt, nil
}

// IsValid reports whether the kind is one of the known values
func (t TargetType) IsValid() bool {
	switch t {
	case TargetPost, TargetComment, TargetReview:
		return true
	}
	return false
}

// Table returns the table holding this kind's counters
func (t TargetType) Table() string {
	switch t {
	case TargetPost:
		return "posts"
	case TargetComment:
		return "comments"
	case TargetReview:
		return "reviews"
	}
	return ""
}

// VoteTarget is the (kind, id) pair a vote points at
type VoteTarget struct {
	Type TargetType
	ID   uint64
}

// NewVoteTarget validates a raw kind and id
func NewVoteTarget(kind string, id uint64) (VoteTarget, error) {
	tt, err := ParseTargetType(kind)
	if err != nil {
		return VoteTarget{}, err
	}
	if id == 0 {
		return VoteTarget{}, errs.ErrInvalidTargetID
	}
	return VoteTarget{Type: tt, ID: id}, nil
}

// Tag is the cache tag for everything derived from this target, e.g. "post:42"
func (t VoteTarget) Tag() string {
	return fmt.Sprintf("%s:%d", t.Type, t.ID)
}

func (t VoteTarget) String() string {
	return t.Tag()
}

// VoteDirection is the direction of a stored vote
type VoteDirection string

// Vote directions
const (
	VoteUp   VoteDirection = "up"
	VoteDown VoteDirection = "down"
)

// IsValid reports whether the direction is up or down
func (d VoteDirection) IsValid() bool {
	return d == VoteUp || d == VoteDown
}

// VoteRecord is one voter's current vote on one target
type VoteRecord struct {
	ID        uint64
	VoterID   uint64
	Target    VoteTarget
	Direction VoteDirection
	CreatedAt time.Time
	UpdatedAt time.Time
}

// VoteRequest carries the parsed upvote/downvote flags of a request
type VoteRequest struct {
	Up   bool
	Down bool
}

// Direction returns the requested direction. ok is false for a no-op request.
func (r VoteRequest) Direction() (direction VoteDirection, ok bool, err error) {
	switch {
	case r.Up && r.Down:
		return "", false, errs.ErrConflictingVote
	case r.Up:
		return VoteUp, true, nil
	case r.Down:
		return VoteDown, true, nil
	}
	return "", false, nil
}

// VoteCounters are the denormalized counters stored on a votable entity
type VoteCounters struct {
	Up   int64 `json:"upvoteCount"`
	Down int64 `json:"downvoteCount"`
}

// Apply returns the counters shifted by delta
func (c VoteCounters) Apply(delta CounterDelta) VoteCounters {
	return VoteCounters{Up: c.Up + delta.Up, Down: c.Down + delta.Down}
}

// CounterDelta is the signed change to apply to a target's counters
type CounterDelta struct {
	Up   int64
	Down int64
}

// IsZero reports whether the delta changes nothing
func (d CounterDelta) IsZero() bool {
	return d.Up == 0 && d.Down == 0
}

// VoteAction is the record mutation chosen for a vote request
type VoteAction int

// Vote actions
const (
	VoteActionNone VoteAction = iota
	VoteActionCreate
	VoteActionFlip
	VoteActionDelete
)

func (a VoteAction) String() string {
	switch a {
	case VoteActionCreate:
		return "create"
	case VoteActionFlip:
		return "flip"
	case VoteActionDelete:
		return "delete"
	}
	return "none"
}

// ResolveVote picks the record mutation and counter delta for a requested
// direction given the voter's existing vote (nil when there is none).
// Repeating the existing direction retracts the vote; the opposite direction flips it.
func ResolveVote(existing *VoteDirection, requested VoteDirection) (VoteAction, CounterDelta) {
	if existing == nil {
		return VoteActionCreate, unitDelta(requested, 1)
	}
	if *existing == requested {
		return VoteActionDelete, unitDelta(requested, -1)
	}
	delta := unitDelta(*existing, -1)
	flip := unitDelta(requested, 1)
	return VoteActionFlip, CounterDelta{Up: delta.Up + flip.Up, Down: delta.Down + flip.Down}
}

func unitDelta(direction VoteDirection, sign int64) CounterDelta {
	if direction == VoteUp {
		return CounterDelta{Up: sign}
	}
	return CounterDelta{Down: sign}
}
