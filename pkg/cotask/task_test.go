package cotask

import (
	"errors"
	"iter"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func nop(*Step) error { return nil }

func TestNewTaskValidation(t *testing.T) {
	testCases := []struct {
		name    string
		task    string
		routine Routine
		opts    []TaskOption
		expect  error
	}{
		{"empty name", "", RoutineFunc(nop), nil, ErrInvalidTask},
		{"nil routine", "t", nil, nil, ErrInvalidTask},
		{"negative period", "t", RoutineFunc(nop), []TaskOption{Period(-time.Millisecond)}, ErrInvalidPeriod},
		{"negative phase", "t", RoutineFunc(nop), []TaskOption{Phase(-time.Millisecond)}, ErrInvalidPeriod},
		{"negative priority", "t", RoutineFunc(nop), []TaskOption{Priority(-1)}, ErrInvalidPriority},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			task, err := NewTask(tc.task, tc.routine, tc.opts...)
			require.Nil(t, task)
			require.ErrorIs(t, err, tc.expect)
			var cfgErr *ConfigError
			require.ErrorAs(t, err, &cfgErr)
		})
	}
}

func TestTaskFixedPhase(t *testing.T) {
	clock := &ManualClock{}
	task := MustNewTask("t", RoutineFunc(nop), Period(10*time.Millisecond))
	NewScheduler(WithClock(clock)).MustRegister(task)

	require.True(t, task.IsReady(0))
	// start 4ms late: the next run is still due at 10ms.
	clock.Set(4 * time.Millisecond)
	require.True(t, task.RunOnce(clock.Now()))
	require.Equal(t, 10*time.Millisecond, task.NextRun())
	require.False(t, task.IsReady(9*time.Millisecond))
	require.True(t, task.IsReady(10*time.Millisecond))

	prof := task.Profile()
	require.EqualValues(t, 1, prof.Runs)
	require.Equal(t, 4*time.Millisecond, prof.MaxLateness)
}

func TestTaskEveryPass(t *testing.T) {
	task := MustNewTask("t", RoutineFunc(nop))
	NewScheduler(WithClock(&ManualClock{})).MustRegister(task)
	for n := 0; n < 3; n++ {
		require.True(t, task.IsReady(0))
		task.RunOnce(0)
	}
	require.Zero(t, task.Profile().MaxLateness)
}

func TestTaskTriggered(t *testing.T) {
	task := MustNewTask("t", RoutineFunc(nop), Triggered())
	NewScheduler(WithClock(&ManualClock{})).MustRegister(task)
	require.False(t, task.IsReady(time.Hour))
	task.Trigger()
	require.True(t, task.IsReady(0))
	task.RunOnce(0)
	require.False(t, task.IsReady(time.Hour))
	require.Zero(t, task.Profile().LateRuns)
}

func TestTaskDisable(t *testing.T) {
	clock := &ManualClock{}
	task := MustNewTask("t", RoutineFunc(nop), Period(10*time.Millisecond))
	NewScheduler(WithClock(clock)).MustRegister(task)
	task.Disable()
	require.False(t, task.IsReady(0))
	clock.Set(35 * time.Millisecond)
	task.Enable()
	require.Equal(t, 35*time.Millisecond, task.NextRun())
	require.True(t, task.IsReady(clock.Now()))
}

func TestTaskFault(t *testing.T) {
	errBoom := errors.New("boom")
	task := MustNewTask("t", RoutineFunc(func(s *Step) error {
		if s.Run == 2 {
			return errBoom
		}
		return nil
	}))
	NewScheduler(WithClock(&ManualClock{})).MustRegister(task)
	require.True(t, task.RunOnce(0))
	require.NoError(t, task.Fault())
	require.True(t, task.RunOnce(0))
	require.Equal(t, StateFaulted, task.State())
	require.False(t, task.IsReady(0))
	require.False(t, task.RunOnce(0))

	var fault *TaskFault
	require.ErrorAs(t, task.Fault(), &fault)
	require.ErrorIs(t, fault, errBoom)
	require.EqualValues(t, 2, fault.Run)
	require.Equal(t, "boom", task.Profile().Fault)
}

func TestTaskPanicFaults(t *testing.T) {
	task := MustNewTask("t", RoutineFunc(func(*Step) error {
		var m map[string]int
		m["x"] = 1
		return nil
	}))
	NewScheduler(WithClock(&ManualClock{})).MustRegister(task)
	task.RunOnce(0)
	require.Equal(t, StateFaulted, task.State())
	var pe *PanicError
	require.ErrorAs(t, task.Fault(), &pe)
	require.NotEmpty(t, pe.Stack)
}

func TestTaskOnce(t *testing.T) {
	calls := 0
	task := MustNewTask("calibrate", Once(func(*Step) error {
		calls++
		return nil
	}))
	NewScheduler(WithClock(&ManualClock{})).MustRegister(task)
	task.RunOnce(0)
	require.Equal(t, StateFinished, task.State())
	require.NoError(t, task.Fault())
	require.False(t, task.RunOnce(0))
	require.Equal(t, 1, calls)
}

func TestGeneratorRoutine(t *testing.T) {
	stopped := false
	task := MustNewTask("gen", Generator(func(s *Step) iter.Seq2[int, error] {
		return func(yield func(int, error) bool) {
			defer func() { stopped = true }()
			for state := 1; state <= 3; state++ {
				if !yield(state, nil) {
					return
				}
			}
		}
	}), Trace(8))
	NewScheduler(WithClock(&ManualClock{})).MustRegister(task)
	for n := 0; n < 3; n++ {
		task.RunOnce(0)
		require.Equal(t, StateReady, task.State())
	}
	task.RunOnce(0)
	require.Equal(t, StateFinished, task.State())
	require.True(t, stopped)

	trace := task.Trace()
	require.Len(t, trace, 3)
	require.Equal(t, Transition{From: 0, To: 1}, trace[0])
	require.Equal(t, Transition{From: 2, To: 3}, trace[2])
}

func TestGeneratorError(t *testing.T) {
	errBoom := errors.New("boom")
	task := MustNewTask("gen", Generator(func(s *Step) iter.Seq2[int, error] {
		return func(yield func(int, error) bool) {
			if !yield(1, nil) {
				return
			}
			yield(0, errBoom)
		}
	}))
	NewScheduler(WithClock(&ManualClock{})).MustRegister(task)
	task.RunOnce(0)
	task.RunOnce(0)
	require.Equal(t, StateFaulted, task.State())
	require.ErrorIs(t, task.Fault(), errBoom)
}

func TestTraceLimit(t *testing.T) {
	task := MustNewTask("t", RoutineFunc(func(s *Step) error {
		s.State = 1 - s.State
		return nil
	}), Trace(2))
	NewScheduler(WithClock(&ManualClock{})).MustRegister(task)
	for n := 0; n < 5; n++ {
		task.RunOnce(0)
	}
	require.Len(t, task.Trace(), 2)
}

func TestProfileDurations(t *testing.T) {
	clock := &SteppingClock{Step: time.Millisecond}
	task := MustNewTask("t", RoutineFunc(nop))
	s := NewScheduler(WithClock(clock)).MustRegister(task)
	for n := 0; n < 4; n++ {
		require.True(t, s.RunPass())
	}
	prof := task.Profile()
	require.EqualValues(t, 4, prof.Runs)
	require.Equal(t, time.Millisecond, prof.MaxDuration)
	require.Equal(t, time.Millisecond, prof.AvgDuration)
	require.Equal(t, 4*time.Millisecond, prof.TotalDuration)

	task.ResetProfile()
	require.Zero(t, task.Profile().Runs)
}
