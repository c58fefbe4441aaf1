package cotask

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type dispatchLog struct {
	names []string
}

func (l *dispatchLog) task(name string, opts ...TaskOption) *Task {
	return MustNewTask(name, RoutineFunc(func(*Step) error {
		l.names = append(l.names, name)
		return nil
	}), opts...)
}

// runUntil runs passes until nothing is ready, then advances the clock by
// tick, until the clock reaches end.
func runUntil(s *Scheduler, clock *ManualClock, tick, end time.Duration) {
	for clock.Now() < end {
		for s.RunPass() {
		}
		clock.Advance(tick)
	}
}

func TestPriorityOrder(t *testing.T) {
	var log dispatchLog
	s := NewScheduler(WithClock(&ManualClock{}))
	require.NoError(t, s.Register(
		log.task("B", Priority(1), Period(10*time.Millisecond)),
		log.task("A", Priority(5), Period(10*time.Millisecond)),
	))
	require.True(t, s.RunPass())
	require.True(t, s.RunPass())
	require.False(t, s.RunPass())
	require.Equal(t, []string{"A", "B"}, log.names)
}

func TestEqualPriorityTakesTurns(t *testing.T) {
	var log dispatchLog
	s := NewScheduler(WithClock(&ManualClock{}))
	require.NoError(t, s.Register(log.task("A", Priority(2)), log.task("B", Priority(2))))
	for n := 0; n < 4; n++ {
		require.True(t, s.RunPass())
	}
	require.Equal(t, []string{"A", "B", "A", "B"}, log.names)
}

func TestHighPriorityStarvesLower(t *testing.T) {
	var log dispatchLog
	s := NewScheduler(WithClock(&ManualClock{}))
	require.NoError(t, s.Register(log.task("hog", Priority(9)), log.task("low", Priority(1))))
	for n := 0; n < 100; n++ {
		s.RunPass()
	}
	require.Len(t, log.names, 100)
	require.NotContains(t, log.names, "low")
}

func TestRoundRobinDispatch(t *testing.T) {
	var log dispatchLog
	s := NewScheduler(WithClock(&ManualClock{}), WithDispatch(DispatchRoundRobin))
	require.NoError(t, s.Register(
		log.task("low", Priority(1)),
		log.task("high", Priority(3)),
		log.task("later", Priority(2), Phase(time.Second)),
	))
	require.True(t, s.RunPass())
	require.Equal(t, []string{"high", "low"}, log.names)
}

func TestFaultIsolation(t *testing.T) {
	errBoom := errors.New("boom")
	clock := &ManualClock{}
	var faults []*TaskFault
	s := NewScheduler(WithClock(clock), WithFaultHandler(func(f *TaskFault) {
		faults = append(faults, f)
	}))
	flaky := MustNewTask("flaky", RoutineFunc(func(st *Step) error {
		if st.Run == 3 {
			return errBoom
		}
		return nil
	}), Priority(5), Period(10*time.Millisecond))
	var log dispatchLog
	steady := log.task("steady", Priority(1), Period(10*time.Millisecond))
	require.NoError(t, s.Register(flaky, steady))

	runUntil(s, clock, time.Millisecond, 101*time.Millisecond)

	require.Equal(t, StateFaulted, flaky.State())
	require.EqualValues(t, 3, flaky.Profile().Runs)
	require.ErrorIs(t, flaky.Fault(), errBoom)
	require.Len(t, faults, 1)
	require.Equal(t, s.Faults(), faults)

	require.Len(t, log.names, 11)
	prof := steady.Profile()
	require.Zero(t, prof.MaxLateness)
	require.Equal(t, StateReady, steady.State())
}

func TestPeriodConvergence(t *testing.T) {
	clock := &ManualClock{}
	var starts, due []time.Duration
	task := MustNewTask("est", RoutineFunc(func(st *Step) error {
		starts = append(starts, st.Now)
		due = append(due, st.Scheduled)
		return nil
	}), Period(10*time.Millisecond))
	s := NewScheduler(WithClock(clock)).MustRegister(task)

	// a coarse 3ms polling tick makes every start late by a varying amount.
	runUntil(s, clock, 3*time.Millisecond, 3*time.Second)

	for n, d := range due {
		require.Equal(t, time.Duration(n)*10*time.Millisecond, d)
		require.Less(t, starts[n]-d, 3*time.Millisecond)
	}
	count := len(starts)
	avg := (starts[count-1] - starts[0]) / time.Duration(count-1)
	require.InDelta(t, float64(10*time.Millisecond), float64(avg), float64(100*time.Microsecond))
	require.Less(t, task.Profile().MaxLateness, 3*time.Millisecond)
}

func TestDisabledTaskSkipped(t *testing.T) {
	var log dispatchLog
	s := NewScheduler(WithClock(&ManualClock{}))
	a := log.task("A", Priority(5))
	require.NoError(t, s.Register(a, log.task("B", Priority(1))))
	a.Disable()
	s.RunPass()
	a.Enable()
	s.RunPass()
	require.Equal(t, []string{"B", "A"}, log.names)
}

func TestTriggeredTask(t *testing.T) {
	var log dispatchLog
	s := NewScheduler(WithClock(&ManualClock{}))
	ev := log.task("event", Priority(9), Triggered())
	require.NoError(t, s.Register(ev))
	require.False(t, s.RunPass())
	_, ok := s.NextRun()
	require.False(t, ok)
	ev.Trigger()
	require.True(t, s.RunPass())
	require.False(t, s.RunPass())
	require.Equal(t, []string{"event"}, log.names)
}

func TestRegisterErrors(t *testing.T) {
	s := NewScheduler(WithClock(&ManualClock{}))
	a := MustNewTask("a", RoutineFunc(nop))
	require.NoError(t, s.Register(a))
	err := s.Register(MustNewTask("a", RoutineFunc(nop)), MustNewTask("b", RoutineFunc(nop)))
	require.ErrorIs(t, err, ErrDuplicateTask)
	var cfgErr *ConfigError
	require.ErrorAs(t, err, &cfgErr)
	require.Equal(t, "a", cfgErr.Task)
	require.Len(t, s.Tasks(), 2)

	_, err = s.Task("nope")
	require.ErrorIs(t, err, ErrNoTask)
	found, err := s.Task("b")
	require.NoError(t, err)
	require.Equal(t, "b", found.Name())
}

func TestRunAndExec(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	var lateErr error
	clock := &ManualClock{}
	s := NewScheduler(WithClock(clock), WithIdle(IdleAdvance(clock, time.Millisecond)))
	ticks := 0
	require.NoError(t, s.Register(MustNewTask("tick", RoutineFunc(func(*Step) error {
		ticks++
		if ticks == 1 {
			lateErr = s.Register(MustNewTask("late", RoutineFunc(nop)))
		}
		return nil
	}), Period(5*time.Millisecond))))

	errCh := make(chan error, 1)
	go func() { errCh <- s.Run(ctx) }()

	var seen int
	require.NoError(t, s.Exec(ctx, func() error {
		seen = len(s.Tasks())
		return nil
	}))
	require.Equal(t, 1, seen)
	cancel()
	require.ErrorIs(t, <-errCh, context.Canceled)
	require.ErrorIs(t, lateErr, ErrRunning)
}

func TestReport(t *testing.T) {
	s := NewScheduler(WithClock(&ManualClock{}))
	require.NoError(t, s.Register(
		MustNewTask("collector", RoutineFunc(nop), Priority(0), Period(50*time.Millisecond)),
		MustNewTask("controller", RoutineFunc(nop), Priority(5), Period(10*time.Millisecond)),
	))
	s.RunPass()
	lines := strings.Split(strings.TrimSpace(s.Report()), "\n")
	require.Len(t, lines, 3)
	require.Equal(t, ProfileHeader, lines[0])
	require.True(t, strings.HasPrefix(lines[1], "controller"))
	require.Contains(t, lines[1], "10.0")
	require.True(t, strings.HasPrefix(lines[2], "collector"))

	profiles := s.ProfileReport()
	require.Equal(t, "collector", profiles[0].Name)
	require.EqualValues(t, 1, profiles[1].Runs)
}

func TestCollector(t *testing.T) {
	var stats GCStats
	restore := ManualGC(0)
	defer restore()
	task := MustNewTask("gc", Collector(&stats), Period(time.Second))
	s := NewScheduler(WithClock(&ManualClock{})).MustRegister(task)
	require.True(t, s.RunPass())
	require.EqualValues(t, 1, stats.Collections)
}
