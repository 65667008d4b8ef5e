package conversion

import (
	"path/filepath"
	"time"
)

// Status is the run-time state of a job
type Status string

const (
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

// IsTerminal reports whether no further transitions can leave s
func (s Status) IsTerminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusCancelled:
		return true
	default:
		return false
	}
}

// ProgressEvent is emitted after each successfully converted source
type ProgressEvent struct {
	Completed int `json:"completed"`
	Total     int `json:"total"`
}

// Percent returns floor(Completed*100/Total)
func (p ProgressEvent) Percent() int {
	if p.Total <= 0 {
		return 0
	}
	return p.Completed * 100 / p.Total
}

// OutcomeKind tags the terminal outcome of a job
type OutcomeKind string

const (
	OutcomeKindSuccess   OutcomeKind = "success"
	OutcomeKindFailure   OutcomeKind = "failure"
	OutcomeKindCancelled OutcomeKind = "cancelled"
)

// Outcome is the single terminal result of a job
type Outcome struct {
	Kind    OutcomeKind `json:"kind"`
	Message string      `json:"message,omitempty"`
}

// OutcomeSuccess reports that every source was converted
func OutcomeSuccess() Outcome {
	return Outcome{Kind: OutcomeKindSuccess}
}

// OutcomeFailure reports the first source that failed and why
func OutcomeFailure(err error) Outcome {
	return Outcome{Kind: OutcomeKindFailure, Message: err.Error()}
}

// OutcomeCancelled reports a caller-requested stop
func OutcomeCancelled() Outcome {
	return Outcome{Kind: OutcomeKindCancelled}
}

// Status maps the outcome to the job status it terminates in
func (o Outcome) Status() Status {
	switch o.Kind {
	case OutcomeKindSuccess:
		return StatusCompleted
	case OutcomeKindCancelled:
		return StatusCancelled
	default:
		return StatusFailed
	}
}

// Event is one entry of a job's ordered stream. Exactly one of Progress or Outcome is set.
type Event struct {
	JobID     string         `json:"jobId"`
	Seq       int64          `json:"seq"`
	Timestamp time.Time      `json:"timestamp"`
	Source    string         `json:"source,omitempty"`
	Output    string         `json:"output,omitempty"`
	Progress  *ProgressEvent `json:"progress,omitempty"`
	Outcome   *Outcome       `json:"outcome,omitempty"`
}

// IsTerminal reports whether this is the job's final event
func (e Event) IsTerminal() bool {
	return e.Outcome != nil
}

// SourceName returns the base name of the source the event refers to, if any
func (e Event) SourceName() string {
	if e.Source == "" {
		return ""
	}
	return filepath.Base(e.Source)
}
