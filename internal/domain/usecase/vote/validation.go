package vote

import (
	"fmt"
	"strings"

	"github.com/amirhossein-jamali/gamestore-ledger/internal/domain/entity"
	errs "github.com/amirhossein-jamali/gamestore-ledger/internal/domain/error"
)

// truthyValues are the string forms accepted as a set vote flag
var truthyValues = map[string]bool{"1": true, "true": true, "True": true}

// ParseVoteFlag interprets a boolean-ish request value. Accepted as set:
// "1", "true", "True", JSON true and the number 1. Anything else is unset.
func ParseVoteFlag(value any) bool {
	switch v := value.(type) {
	case nil:
		return false
	case bool:
		return v
	case string:
		return truthyValues[strings.TrimSpace(v)]
	case float64:
		return v == 1
	case int:
		return v == 1
	case int64:
		return v == 1
	case []string:
		return len(v) > 0 && ParseVoteFlag(v[0])
	default:
		return truthyValues[fmt.Sprint(v)]
	}
}

// UpvoteField and DownvoteField name the request fields for a target kind,
// e.g. "upvote_post" and "downvote_post"
func UpvoteField(kind entity.TargetType) string   { return "upvote_" + string(kind) }
func DownvoteField(kind entity.TargetType) string { return "downvote_" + string(kind) }

// ParseVoteRequest reads the upvote_<kind> / downvote_<kind> flags from
// decoded request fields. Setting both is a validation error.
func ParseVoteRequest(kind entity.TargetType, fields map[string]any) (entity.VoteRequest, error) {
	req := entity.VoteRequest{
		Up:   ParseVoteFlag(fields[UpvoteField(kind)]),
		Down: ParseVoteFlag(fields[DownvoteField(kind)]),
	}
	if req.Up && req.Down {
		return entity.VoteRequest{}, errs.NewValidationError("", "", errs.ErrConflictingVote)
	}
	return req, nil
}
