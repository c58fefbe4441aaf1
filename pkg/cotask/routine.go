package cotask

import (
	"iter"
	"time"
)

// Step is handed to a Routine on every resume. The same Step is reused for
// the whole life of a Task, so State carries over from one step to the next.
type Step struct {
	// Task is the name of the running Task.
	Task string
	// Run is the 1-based number of this step.
	Run uint64
	// Now is the clock time the step started.
	Now time.Duration
	// Scheduled is when the step was due. Now - Scheduled is the lateness.
	Scheduled time.Duration
	// State is the state number reported by the Routine, recorded in the
	// Task's transition trace.
	State int
}

// Routine is a resumable computation. Step runs until the next suspend
// point and returns. Returning Done finishes the Task; any other error
// faults it.
type Routine interface {
	Step(*Step) error
}

// RoutineFunc is the func form of Routine.
type RoutineFunc func(*Step) error

// Step implements Routine.
func (f RoutineFunc) Step(s *Step) error {
	return f(s)
}

// Stopper is implemented by Routines holding resources which must be
// released once the Task finishes or faults.
type Stopper interface {
	Stop()
}

// GeneratorFunc creates a generator which yields the routine state at every
// suspend point. A non-nil error faults the Task; returning from the
// generator finishes it. The Step pointer stays valid across resumes.
type GeneratorFunc func(*Step) iter.Seq2[int, error]

// Generator adapts a generator into a Routine. Each Step resumes the
// generator up to its next yield.
func Generator(fn GeneratorFunc) Routine {
	return &generator{fn: fn}
}

type generator struct {
	fn   GeneratorFunc
	next func() (int, error, bool)
	stop func()
}

func (g *generator) Step(s *Step) error {
	if g.next == nil {
		g.next, g.stop = iter.Pull2(g.fn(s))
	}
	state, err, ok := g.next()
	if !ok {
		return Done
	}
	if err != nil {
		return err
	}
	s.State = state
	return nil
}

// Stop implements Stopper.
func (g *generator) Stop() {
	if g.stop != nil {
		g.stop()
	}
}

// Once runs fn as a one-shot routine: the Task finishes after the first step
// unless fn fails.
func Once(fn func(*Step) error) Routine {
	return RoutineFunc(func(s *Step) error {
		if err := fn(s); err != nil {
			return err
		}
		return Done
	})
}
