package workflow

import (
	"fmt"

	"github.com/anggasct/fluo"
)

// Control events accepted by the workflow machine. Complete and fail are
// raised by the executor, the rest by explicit user actions.
const (
	EventStart    = "start"
	EventPause    = "pause"
	EventResume   = "resume"
	EventStop     = "stop"
	EventComplete = "complete"
	EventFail     = "fail"
)

var controlMachine = buildControlMachine()

func buildControlMachine() fluo.MachineDefinition {
	b := fluo.NewMachine()

	b.State(string(StatusIdle)).Initial().
		To(string(StatusRunning)).On(EventStart).
		To(string(StatusError)).On(EventStop)

	b.State(string(StatusRunning)).
		To(string(StatusPaused)).On(EventPause).
		To(string(StatusError)).On(EventStop).
		To(string(StatusCompleted)).On(EventComplete).
		To(string(StatusError)).On(EventFail)

	// Complete is accepted from paused too: approving the final step of a
	// paused workflow ends the plan, there is nothing left to resume.
	b.State(string(StatusPaused)).
		To(string(StatusRunning)).On(EventResume).
		To(string(StatusError)).On(EventStop).
		To(string(StatusCompleted)).On(EventComplete).
		To(string(StatusError)).On(EventFail)

	b.State(string(StatusCompleted)).Final()

	b.State(string(StatusError))

	return b.Build()
}

// controlTransition validates one control event against the workflow's
// current status and returns the next status.
func controlTransition(current Status, event string) (Status, error) {
	inst := controlMachine.CreateInstance()
	if err := inst.Start(); err != nil {
		return "", fmt.Errorf("control machine start: %w", err)
	}
	if string(current) != inst.CurrentState() {
		if err := inst.SetState(string(current)); err != nil {
			return "", fmt.Errorf("control machine restore %q: %w", current, err)
		}
	}
	res := inst.SendEvent(event, nil)
	if !res.Success() {
		if res.Error != nil {
			return "", fmt.Errorf("workflow %s cannot %s (%v): %w", current, event, res.Error, ErrTransition)
		}
		return "", fmt.Errorf("workflow %s cannot %s: %w", current, event, ErrTransition)
	}
	return Status(inst.CurrentState()), nil
}
