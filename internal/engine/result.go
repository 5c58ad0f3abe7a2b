package engine

import (
	"time"

	"github.com/lucasnoah/repoboost/internal/state"
)

// Status is the overall result of a pipeline run.
type Status string

const (
	StatusCompleted Status = "completed"
	StatusAborted   Status = "aborted"
)

// OutcomeKind is what happened to one boost in one run.
type OutcomeKind string

const (
	// OutcomeSatisfied means an earlier run already applied the boost; no
	// record is written.
	OutcomeSatisfied OutcomeKind = "satisfied"
	OutcomeSkipped   OutcomeKind = "skipped"
	OutcomeApplied   OutcomeKind = "applied"
	OutcomeFailed    OutcomeKind = "failed"
)

// Outcome is the transient result of driving one boost through its protocol.
type Outcome struct {
	Boost      string        `json:"boost"`
	Kind       OutcomeKind   `json:"kind"`
	Reason     string        `json:"reason,omitempty"`
	Checkpoint string        `json:"checkpoint,omitempty"`
	Duration   time.Duration `json:"duration"`
	Err        error         `json:"-"`
}

// Result is what a run reports back to the caller.
type Result struct {
	RunID       string         `json:"run_id"`
	Identity    state.Identity `json:"identity"`
	RepoPath    string         `json:"repo_path"`
	Branch      string         `json:"branch"`
	Status      Status         `json:"status"`
	FailedBoost string         `json:"failed_boost,omitempty"`
	Reason      string         `json:"reason,omitempty"`
	Outcomes    []Outcome      `json:"outcomes"`
	StartedAt   time.Time      `json:"started_at"`
	FinishedAt  time.Time      `json:"finished_at"`
}

// Completed reports whether every boost ended applied, skipped or satisfied.
func (r *Result) Completed() bool {
	return r.Status == StatusCompleted
}

// Commits counts the checkpoint commits made during the run.
func (r *Result) Commits() int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Kind == OutcomeApplied {
			n++
		}
	}
	return n
}

func (k OutcomeKind) recordStatus() state.Status {
	switch k {
	case OutcomeSkipped:
		return state.StatusSkipped
	case OutcomeApplied:
		return state.StatusApplied
	case OutcomeFailed:
		return state.StatusFailed
	}
	return state.StatusPending
}
