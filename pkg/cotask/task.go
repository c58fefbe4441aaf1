package cotask

import (
	"errors"
	"fmt"
	"runtime/debug"
	"time"
)

// State is the lifecycle state of a Task.
type State int

// Task states. Faulted and Finished are terminal.
const (
	StateCreated State = iota
	StateReady
	StateFaulted
	StateFinished
)

// String implements fmt.Stringer.
func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateReady:
		return "ready"
	case StateFaulted:
		return "faulted"
	case StateFinished:
		return "finished"
	default:
		return "unknown"
	}
}

// Terminal tells whether the Task will never run again.
func (s State) Terminal() bool {
	return s == StateFaulted || s == StateFinished
}

// Task is one cooperative unit of periodic or triggered work plus its
// scheduling bookkeeping. A Task is mutated only by the Scheduler it is
// registered with, on the Scheduler's goroutine.
type Task struct {
	name      string
	priority  int
	period    time.Duration
	phase     time.Duration
	triggered bool
	routine   Routine
	clock     Clock

	seq     int
	runs    uint64
	state   State
	enabled bool
	goFlag  bool
	next    time.Duration
	fault   *TaskFault
	step    Step
	prof    accumulator
	tracer  tracer
}

// TaskOption configures a Task.
type TaskOption func(*Task)

// Period sets the time between scheduled runs. Zero makes the Task eligible
// on every dispatch pass.
func Period(d time.Duration) TaskOption {
	return func(t *Task) { t.period = d }
}

// Priority sets the priority. Higher is served first.
func Priority(p int) TaskOption {
	return func(t *Task) { t.priority = p }
}

// Triggered makes the Task run only after Trigger is called, instead of on
// every pass. Triggered Tasks with a period run on both.
func Triggered() TaskOption {
	return func(t *Task) { t.triggered = true }
}

// Phase delays the first run by d after registration.
func Phase(d time.Duration) TaskOption {
	return func(t *Task) { t.phase = d }
}

// Trace records up to limit state transitions. Tracing stops silently once
// the limit is reached.
func Trace(limit int) TaskOption {
	return func(t *Task) { t.tracer.limit = limit }
}

// NewTask creates a Task.
func NewTask(name string, routine Routine, opts ...TaskOption) (*Task, error) {
	t := &Task{name: name, routine: routine, enabled: true}
	for _, opt := range opts {
		opt(t)
	}
	switch {
	case name == "" || routine == nil:
		return nil, &ConfigError{Task: name, Err: ErrInvalidTask}
	case t.period < 0 || t.phase < 0:
		return nil, &ConfigError{Task: name, Err: fmt.Errorf("%w: %v", ErrInvalidPeriod, t.period)}
	case t.priority < 0:
		return nil, &ConfigError{Task: name, Err: fmt.Errorf("%w: %d", ErrInvalidPriority, t.priority)}
	}
	t.step.Task = name
	t.tracer.enabled = t.tracer.limit > 0
	return t, nil
}

// MustNewTask is NewTask which panics on error, for static task tables.
func MustNewTask(name string, routine Routine, opts ...TaskOption) *Task {
	t, err := NewTask(name, routine, opts...)
	if err != nil {
		panic(err)
	}
	return t
}

// Name implements framework.Named.
func (t *Task) Name() string { return t.name }

// Priority returns the priority.
func (t *Task) Priority() int { return t.priority }

// Period returns the period.
func (t *Task) Period() time.Duration { return t.period }

// State returns the lifecycle state.
func (t *Task) State() State { return t.state }

// Enabled tells whether the Task takes part in readiness checks.
func (t *Task) Enabled() bool { return t.enabled }

// NextRun returns when the next periodic run is due.
func (t *Task) NextRun() time.Duration { return t.next }

// Fault returns the fault which halted the Task, or nil.
func (t *Task) Fault() error {
	if t.fault == nil {
		return nil
	}
	return t.fault
}

// Enable includes the Task in readiness checks again. A periodic Task
// re-enabled after falling behind restarts its phase at the current time
// rather than running the missed periods back to back.
func (t *Task) Enable() {
	if t.enabled {
		return
	}
	t.enabled = true
	if now := t.now(); t.period > 0 && t.next < now {
		t.next = now
	}
}

// Disable excludes the Task from readiness checks. A step in progress is
// not affected.
func (t *Task) Disable() {
	t.enabled = false
}

// Trigger marks the Task ready for the next dispatch pass.
func (t *Task) Trigger() {
	t.goFlag = true
}

// SetPeriod changes the period. The next due time is kept.
func (t *Task) SetPeriod(d time.Duration) error {
	if d < 0 {
		return &ConfigError{Task: t.name, Err: fmt.Errorf("%w: %v", ErrInvalidPeriod, d)}
	}
	t.period = d
	return nil
}

// IsReady tells whether the Task should run at now.
func (t *Task) IsReady(now time.Duration) bool {
	if !t.enabled || t.state.Terminal() {
		return false
	}
	if t.goFlag {
		return true
	}
	return !t.triggered && now >= t.next
}

// RunOnce resumes the routine for exactly one step started at now, then
// reschedules the Task and records its timing. It reports whether the
// routine ran; terminal Tasks are never resumed.
func (t *Task) RunOnce(now time.Duration) bool {
	if t.state.Terminal() {
		return false
	}
	periodic := !t.triggered && now >= t.next
	scheduled := now
	if periodic {
		scheduled = t.next
		if t.period > 0 {
			t.next = scheduled + t.period
		} else {
			t.next = now
		}
	}
	t.goFlag = false

	t.runs++
	t.step.Run = t.runs
	t.step.Now, t.step.Scheduled = now, scheduled
	prevState := t.step.State
	err := t.resume()
	end := t.now()

	var lateness time.Duration
	if periodic {
		lateness = now - scheduled
	}
	t.prof.record(end-now, lateness, periodic)
	if t.step.State != prevState {
		t.tracer.record(end, prevState, t.step.State)
	}

	switch {
	case err == nil:
		t.state = StateReady
	case errors.Is(err, Done):
		t.state = StateFinished
		t.stop()
	default:
		t.state = StateFaulted
		t.fault = &TaskFault{Task: t.name, Run: t.step.Run, At: now, Err: err}
		t.stop()
	}
	return true
}

// Profile returns a snapshot of the timing statistics.
func (t *Task) Profile() Profile {
	return t.prof.snapshot(t)
}

// ResetProfile clears the timing statistics.
func (t *Task) ResetProfile() {
	t.prof = accumulator{}
}

// Trace returns the recorded state transitions.
func (t *Task) Trace() []Transition {
	return append([]Transition(nil), t.tracer.items...)
}

// String implements fmt.Stringer.
func (t *Task) String() string {
	return t.Profile().String()
}

func (t *Task) resume() (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Value: r, Stack: debug.Stack()}
		}
	}()
	return t.routine.Step(&t.step)
}

func (t *Task) stop() {
	if s, ok := t.routine.(Stopper); ok {
		s.Stop()
	}
}

func (t *Task) now() time.Duration {
	if t.clock == nil {
		t.clock = NewSystemClock()
	}
	return t.clock.Now()
}
