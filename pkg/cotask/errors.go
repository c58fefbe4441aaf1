package cotask

import (
	"errors"
	"fmt"
	"time"
)

var (
	// Done is returned by a Routine to finish its Task. It is not a fault.
	Done = errors.New("done")

	// ErrDuplicateTask indicates a task name is already registered.
	ErrDuplicateTask = errors.New("duplicate task")
	// ErrInvalidPeriod indicates a negative period.
	ErrInvalidPeriod = errors.New("invalid period")
	// ErrInvalidPriority indicates a negative priority.
	ErrInvalidPriority = errors.New("invalid priority")
	// ErrInvalidTask indicates a task without name or routine.
	ErrInvalidTask = errors.New("invalid task")
	// ErrRunning indicates the operation is not allowed once Run started.
	ErrRunning = errors.New("scheduler is running")
	// ErrNoTask indicates the task name is not registered.
	ErrNoTask = errors.New("no such task")
)

// ConfigError reports a task or scheduler setup mistake.
// It is detected before the scheduler runs and aborts startup.
type ConfigError struct {
	Task string
	Err  error
}

// Error implements error.
func (e *ConfigError) Error() string {
	return fmt.Sprintf("task %q: %v", e.Task, e.Err)
}

// Unwrap returns the cause.
func (e *ConfigError) Unwrap() error {
	return e.Err
}

// TaskFault records the unhandled error which halted a Task.
type TaskFault struct {
	Task string
	Run  uint64        // 1-based run which faulted
	At   time.Duration // clock time the faulting step started
	Err  error
}

// Error implements error.
func (f *TaskFault) Error() string {
	return fmt.Sprintf("task %q faulted on run %d: %v", f.Task, f.Run, f.Err)
}

// Unwrap returns the routine error.
func (f *TaskFault) Unwrap() error {
	return f.Err
}

// PanicError wraps a value recovered from a panicking Routine.
type PanicError struct {
	Value any
	Stack []byte
}

// Error implements error.
func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}
