package drafting

import (
	"fmt"

	"github.com/anggasct/fluo"
)

// Review events accepted by the version machine.
const (
	EventApprove = "approve"
	EventReject  = "reject"
	EventModify  = "modify"
)

// reviewMachine encodes the version review lifecycle:
// pending -> approved | rejected | modified; approved is terminal;
// modified versions may be modified again. Anything else is rejected by
// the machine rather than checked ad hoc.
var reviewMachine = buildReviewMachine()

func buildReviewMachine() fluo.MachineDefinition {
	b := fluo.NewMachine()

	b.State(string(VersionPending)).Initial().
		To(string(VersionApproved)).On(EventApprove).
		To(string(VersionRejected)).On(EventReject).
		To(string(VersionModified)).On(EventModify)

	b.State(string(VersionApproved)).Final()

	b.State(string(VersionRejected))

	b.State(string(VersionModified)).
		ToSelf().On(EventModify)

	return b.Build()
}

// reviewTransition runs one event against a fresh machine instance seeded
// with the version's current status and returns the resulting status.
func reviewTransition(current VersionStatus, event string) (VersionStatus, error) {
	inst := reviewMachine.CreateInstance()
	if err := inst.Start(); err != nil {
		return "", fmt.Errorf("review machine start: %w", err)
	}
	if string(current) != inst.CurrentState() {
		if err := inst.SetState(string(current)); err != nil {
			return "", fmt.Errorf("review machine restore %q: %w", current, err)
		}
	}
	res := inst.SendEvent(event, nil)
	if !res.Success() {
		if res.Error != nil {
			return "", fmt.Errorf("version %s cannot %s (%v): %w", current, event, res.Error, ErrTransition)
		}
		return "", fmt.Errorf("version %s cannot %s: %w", current, event, ErrTransition)
	}
	return VersionStatus(inst.CurrentState()), nil
}
