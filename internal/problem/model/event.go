package model

import "time"

const (
	ProblemEventCreated            = "problem.created"
	ProblemEventUpdated            = "problem.updated"
	ProblemEventDeleted            = "problem.deleted"
	ProblemEventSubmissionRecorded = "problem.submission_recorded"
)

// ProblemEvent notifies downstream consumers about catalog changes.
type ProblemEvent struct {
	EventType  string     `json:"event_type"`
	ProblemID  int64      `json:"problem_id"`
	Title      string     `json:"title,omitempty"`
	Difficulty Difficulty `json:"difficulty,omitempty"`
	Accepted   *bool      `json:"accepted,omitempty"`
	OccurredAt time.Time  `json:"occurred_at"`
}
