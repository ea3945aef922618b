package jobs

import "time"

// Status is the lifecycle state of an ingestion job.
// Transitions are monotonic: scheduled -> in_progress -> done | failed.
type Status string

const (
	StatusScheduled  Status = "scheduled"
	StatusInProgress Status = "in_progress"
	StatusDone       Status = "done"
	StatusFailed     Status = "failed"
)

// statusRank orders statuses along the allowed transition path. Terminal
// states share the highest rank so neither can replace the other.
var statusRank = map[Status]int{
	StatusScheduled:  0,
	StatusInProgress: 1,
	StatusDone:       2,
	StatusFailed:     2,
}

// Terminal reports whether the status is an absorbing state.
func (s Status) Terminal() bool {
	return s == StatusDone || s == StatusFailed
}

// Job is an ingestion job record.
type Job struct {
	ID        string    `json:"repo_id"`
	SourceURL string    `json:"source_url"`
	Status    Status    `json:"status"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
