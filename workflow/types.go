// Package workflow owns multi-step, human-gated workflows: an ordered step
// plan fixed at creation, a control state machine, and a sequential executor
// that parks on steps awaiting approval.
package workflow

import (
	"errors"
	"time"
)

type Status string

const (
	StatusIdle      Status = "idle"
	StatusRunning   Status = "running"
	StatusPaused    Status = "paused"
	StatusCompleted Status = "completed"
	StatusError     Status = "error"
)

type StepStatus string

const (
	StepPending   StepStatus = "pending"
	StepRunning   StepStatus = "running"
	StepCompleted StepStatus = "completed"
	StepError     StepStatus = "error"
	StepPaused    StepStatus = "paused"
)

var (
	ErrNotFound        = errors.New("workflow not found")
	ErrForbidden       = errors.New("workflow belongs to another user")
	ErrStepNotFound    = errors.New("workflow step not found")
	ErrStepNotApproved = errors.New("step must be completed before approval")
	ErrStepNotEditable = errors.New("step does not accept modifications")
	ErrUnknownAction   = errors.New("unknown control action")
	ErrUnsupportedFmt  = errors.New("unsupported export format")
	ErrTransition      = errors.New("invalid control transition")
)

// Step is one unit of the plan. Result is a JSON document produced by the
// executing agent; CanApprove/CanModify gate the human-in-the-loop actions.
type Step struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Status      StepStatus `json:"status"`
	Progress    int        `json:"progress"` // 0-100
	StartTime   *time.Time `json:"startTime,omitempty"`
	EndTime     *time.Time `json:"endTime,omitempty"`
	Duration    float64    `json:"duration,omitempty"` // seconds
	Result      string     `json:"result,omitempty"`   // JSON payload
	Error       string     `json:"error,omitempty"`
	CanModify   bool       `json:"canModify"`
	CanApprove  bool       `json:"canApprove"`
}

// Workflow is an ordered, human-gated sequence of agent steps owned by one
// user. CurrentStep is a 0-based index into Steps.
type Workflow struct {
	ID                string    `json:"id"`
	UserID            string    `json:"userId"`
	ChatID            string    `json:"chatId,omitempty"`
	DraftID           string    `json:"draftId,omitempty"`
	Name              string    `json:"name"`
	Description       string    `json:"description"`
	Status            Status    `json:"status"`
	CurrentStep       int       `json:"currentStep"`
	Steps             []*Step   `json:"steps"`
	Progress          int       `json:"progress"` // completed/total, percent
	EstimatedDuration int       `json:"estimatedDuration"` // minutes
	CreatedAt         time.Time `json:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

// clone copies the step. Timestamp pointers are shared: the executor always
// replaces them wholesale, never mutates them in place.
func (st *Step) clone() *Step {
	c := *st
	return &c
}

// clone deep-copies the workflow so callers can read and serialize it
// without holding the store lock while the executor keeps mutating the
// live record.
func (w *Workflow) clone() *Workflow {
	c := *w
	c.Steps = make([]*Step, len(w.Steps))
	for i, st := range w.Steps {
		c.Steps[i] = st.clone()
	}
	return &c
}

// Step finds a step by ID.
func (w *Workflow) Step(stepID string) *Step {
	for _, st := range w.Steps {
		if st.ID == stepID {
			return st
		}
	}
	return nil
}

// recomputeProgress derives overall progress from completed steps, rounded
// to the nearest integer.
func (w *Workflow) recomputeProgress() {
	if len(w.Steps) == 0 {
		w.Progress = 0
		return
	}
	completed := 0
	for _, st := range w.Steps {
		if st.Status == StepCompleted {
			completed++
		}
	}
	w.Progress = (completed*100 + len(w.Steps)/2) / len(w.Steps)
}
