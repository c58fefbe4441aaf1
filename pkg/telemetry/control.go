package telemetry

import (
	"fmt"

	"github.com/robotalks/romi.go/pkg/cotask"
)

// Control actions.
const (
	ActionEnable  = "enable"
	ActionDisable = "disable"
	ActionTrigger = "trigger"
	ActionReset   = "reset"
)

// ControlRequest asks to change a task remotely.
type ControlRequest struct {
	Task   string `json:"task"`
	Action string `json:"action"`
}

// Apply executes the request. It must run on the Scheduler goroutine,
// e.g. through Scheduler.Exec.
func (r ControlRequest) Apply(s *cotask.Scheduler) error {
	t, err := s.Task(r.Task)
	if err != nil {
		return err
	}
	switch r.Action {
	case ActionEnable:
		t.Enable()
	case ActionDisable:
		t.Disable()
	case ActionTrigger:
		t.Trigger()
	case ActionReset:
		t.ResetProfile()
	default:
		return fmt.Errorf("%w: %q", ErrUnknownAction, r.Action)
	}
	return nil
}
