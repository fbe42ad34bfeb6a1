// Package task models a submitted background analysis job and its status.
package task

import "time"

// Kind names the analysis a task runs.
type Kind string

// Task kinds.
const (
	KindCompetitors         Kind = "competitors"
	KindLocationCompetitors Kind = "location_competitors"
	KindKeywords            Kind = "keywords"
	KindTargets             Kind = "targets"
	KindOpportunities       Kind = "opportunities"
)

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	switch k {
	case KindCompetitors, KindLocationCompetitors, KindKeywords, KindTargets, KindOpportunities:
		return true
	}
	return false
}

// Status is the task lifecycle state.
type Status string

// Lifecycle: pending -> running -> succeeded | failed.
const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// Terminal reports whether no further transitions happen.
func (s Status) Terminal() bool { return s == StatusSucceeded || s == StatusFailed }

// Task is the status record observers poll. Message carries the first hard
// failure for failed tasks; Warnings lists degraded stages.
type Task struct {
	ID         string    `json:"id"`
	Kind       Kind      `json:"kind"`
	BusinessID string    `json:"business_id"`
	Status     Status    `json:"status"`
	Message    string    `json:"message,omitempty"`
	Warnings   []string  `json:"warnings,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
