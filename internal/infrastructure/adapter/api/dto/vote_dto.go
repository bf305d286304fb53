package dto

// VoteResponse represents a target's counters and the caller's own vote
type VoteResponse struct {
	TargetType    string  `json:"targetType"`
	TargetID      uint64  `json:"targetId"`
	UpvoteCount   int64   `json:"upvoteCount"`
	DownvoteCount int64   `json:"downvoteCount"`
	UserVote      *string `json:"userVote"`
	Action        string  `json:"action,omitempty"`
}

// RecountResponse reports the counters before and after a recount
type RecountResponse struct {
	TargetType string           `json:"targetType"`
	TargetID   uint64           `json:"targetId"`
	Before     VoteCountersBody `json:"before"`
	After      VoteCountersBody `json:"after"`
	Changed    bool             `json:"changed"`
}

// VoteCountersBody is the JSON form of a counter pair
type VoteCountersBody struct {
	Up   int64 `json:"upvoteCount"`
	Down int64 `json:"downvoteCount"`
}
