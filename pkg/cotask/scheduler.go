package cotask

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/emirpasic/gods/trees/redblacktree"
	"github.com/emirpasic/gods/utils"
	"github.com/golang/glog"

	fx "github.com/robotalks/romi.go/pkg/framework"
)

// Dispatch selects how a Scheduler picks Tasks on a pass.
type Dispatch int

const (
	// DispatchPriority runs the single highest-priority ready Task per pass.
	// Ready Tasks of equal priority take turns.
	DispatchPriority Dispatch = iota
	// DispatchRoundRobin runs every ready Task once per pass, higher
	// priorities first.
	DispatchRoundRobin
)

// IdleFunc is called when a dispatch pass found nothing ready.
type IdleFunc func(context.Context, *Scheduler)

// FaultHandler observes Tasks faulting.
type FaultHandler func(*TaskFault)

// Scheduler owns a static set of Tasks and drives them by cooperative,
// priority-ordered dispatch on the goroutine calling Run.
type Scheduler struct {
	clock    Clock
	idle     IdleFunc
	onFault  FaultHandler
	dispatch Dispatch

	tasks  []*Task
	byName map[string]*Task
	groups *redblacktree.Tree // priority (descending) -> *priorityGroup
	faults []*TaskFault

	running atomic.Bool

	inbox     []func()
	inboxLock sync.Mutex
	wakeUpCh  chan struct{}
}

type priorityGroup struct {
	priority int
	tasks    []*Task
	next     int // round-robin position
}

// SchedulerOption configures a Scheduler.
type SchedulerOption func(*Scheduler)

// WithClock sets the Clock. The default is a SystemClock.
func WithClock(c Clock) SchedulerOption {
	return func(s *Scheduler) { s.clock = c }
}

// WithIdle sets the idle hook. The default is IdleSleep(time.Millisecond).
func WithIdle(fn IdleFunc) SchedulerOption {
	return func(s *Scheduler) { s.idle = fn }
}

// WithFaultHandler sets a hook called on the Scheduler goroutine right
// after a Task faults.
func WithFaultHandler(fn FaultHandler) SchedulerOption {
	return func(s *Scheduler) { s.onFault = fn }
}

// WithDispatch sets the dispatch policy.
func WithDispatch(d Dispatch) SchedulerOption {
	return func(s *Scheduler) { s.dispatch = d }
}

// NewScheduler creates a Scheduler.
func NewScheduler(opts ...SchedulerOption) *Scheduler {
	s := &Scheduler{
		byName: make(map[string]*Task),
		groups: redblacktree.NewWith(func(a, b interface{}) int {
			return utils.IntComparator(b, a)
		}),
		wakeUpCh: make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.clock == nil {
		s.clock = NewSystemClock()
	}
	if s.idle == nil {
		s.idle = IdleSleep(time.Millisecond)
	}
	return s
}

// Clock returns the Clock.
func (s *Scheduler) Clock() Clock {
	return s.clock
}

// Register adds Tasks. Registration must happen before Run, and names must
// be unique. Tasks are due immediately unless they have a Phase.
func (s *Scheduler) Register(tasks ...*Task) error {
	if s.running.Load() {
		return ErrRunning
	}
	var errs fx.AggregatedError
	now := s.clock.Now()
	for _, t := range tasks {
		if _, dup := s.byName[t.name]; dup {
			errs.Add(&ConfigError{Task: t.name, Err: ErrDuplicateTask})
			continue
		}
		if t.state != StateCreated {
			errs.Add(&ConfigError{Task: t.name, Err: fmt.Errorf("%w: already registered", ErrInvalidTask)})
			continue
		}
		t.seq = len(s.tasks)
		t.clock = s.clock
		t.next = now + t.phase
		t.state = StateReady
		s.tasks = append(s.tasks, t)
		s.byName[t.name] = t

		var g *priorityGroup
		if v, found := s.groups.Get(t.priority); found {
			g = v.(*priorityGroup)
		} else {
			g = &priorityGroup{priority: t.priority}
			s.groups.Put(t.priority, g)
		}
		g.tasks = append(g.tasks, t)
		glog.V(2).Infof("registered task %q priority=%d period=%v", t.name, t.priority, t.period)
	}
	return errs.Aggregate()
}

// MustRegister is Register which panics on error.
func (s *Scheduler) MustRegister(tasks ...*Task) *Scheduler {
	if err := s.Register(tasks...); err != nil {
		panic(err)
	}
	return s
}

// Task looks up a registered Task.
func (s *Scheduler) Task(name string) (*Task, error) {
	if t, ok := s.byName[name]; ok {
		return t, nil
	}
	return nil, &ConfigError{Task: name, Err: ErrNoTask}
}

// Tasks returns the registered Tasks in registration order.
func (s *Scheduler) Tasks() []*Task {
	return append([]*Task(nil), s.tasks...)
}

// Faults returns the faults observed so far, oldest first.
func (s *Scheduler) Faults() []*TaskFault {
	return append([]*TaskFault(nil), s.faults...)
}

// NextRun returns the earliest due time among Tasks which can still become
// ready by the clock alone.
func (s *Scheduler) NextRun() (next time.Duration, ok bool) {
	for _, t := range s.tasks {
		if !t.enabled || t.state.Terminal() {
			continue
		}
		if t.goFlag {
			return s.clock.Now(), true
		}
		if t.triggered {
			continue
		}
		if !ok || t.next < next {
			next, ok = t.next, true
		}
	}
	return
}

// RunPass performs one dispatch pass and reports whether any Task ran.
// Requests queued by Post are executed first.
func (s *Scheduler) RunPass() bool {
	s.runInbox()
	if s.dispatch == DispatchRoundRobin {
		return s.passRoundRobin()
	}
	return s.passPriority()
}

func (s *Scheduler) passPriority() bool {
	now := s.clock.Now()
	it := s.groups.Iterator()
	for it.Next() {
		g := it.Value().(*priorityGroup)
		count := len(g.tasks)
		for i := 0; i < count; i++ {
			idx := (g.next + i) % count
			if t := g.tasks[idx]; t.IsReady(now) {
				g.next = (idx + 1) % count
				s.run(t, now)
				return true
			}
		}
	}
	return false
}

func (s *Scheduler) passRoundRobin() (ran bool) {
	it := s.groups.Iterator()
	for it.Next() {
		for _, t := range it.Value().(*priorityGroup).tasks {
			if now := s.clock.Now(); t.IsReady(now) {
				s.run(t, now)
				ran = true
			}
		}
	}
	return
}

func (s *Scheduler) run(t *Task, now time.Duration) {
	glog.V(4).Infof("dispatch %q at %v", t.name, now)
	t.RunOnce(now)
	if t.state != StateFaulted {
		return
	}
	s.faults = append(s.faults, t.fault)
	glog.Errorf("%v", t.fault)
	if pe, ok := t.fault.Err.(*PanicError); ok {
		glog.Errorf("task %q panic stack:\n%s", t.name, pe.Stack)
	}
	if fn := s.onFault; fn != nil {
		fn(t.fault)
	}
}

// Run implements framework.Runnable. It dispatches Tasks until ctx is done,
// calling the idle hook whenever a pass found nothing ready.
func (s *Scheduler) Run(ctx context.Context) error {
	if !s.running.CompareAndSwap(false, true) {
		return ErrRunning
	}
	defer s.running.Store(false)
	glog.Infof("scheduler started with %d tasks", len(s.tasks))
	for {
		if err := ctx.Err(); err != nil {
			glog.Infof("scheduler stopped: %v", err)
			return err
		}
		if !s.RunPass() {
			s.idle(ctx, s)
		}
	}
}

// Post queues fn to run on the Scheduler goroutine before the next pass.
// It is the only Scheduler method safe to call from other goroutines.
func (s *Scheduler) Post(fn func()) {
	s.inboxLock.Lock()
	s.inbox = append(s.inbox, fn)
	s.inboxLock.Unlock()
	select {
	case s.wakeUpCh <- struct{}{}:
	default:
	}
}

// Exec runs fn on the Scheduler goroutine and waits for its result.
// The Scheduler must be running, or ctx must expire.
func (s *Scheduler) Exec(ctx context.Context, fn func() error) error {
	errCh := make(chan error, 1)
	s.Post(func() { errCh <- fn() })
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Scheduler) runInbox() {
	s.inboxLock.Lock()
	fns := s.inbox
	s.inbox = nil
	s.inboxLock.Unlock()
	for _, fn := range fns {
		fn()
	}
}

// WakeUpChan is signaled by Post. Idle hooks which wait should also wait on
// this channel.
func (s *Scheduler) WakeUpChan() <-chan struct{} {
	return s.wakeUpCh
}

// ProfileReport returns the profiles of all Tasks in registration order.
func (s *Scheduler) ProfileReport() []Profile {
	profiles := make([]Profile, len(s.tasks))
	for n, t := range s.tasks {
		profiles[n] = t.Profile()
	}
	return profiles
}

// Report formats the profiles as a table, highest priority first.
func (s *Scheduler) Report() string {
	var w strings.Builder
	w.WriteString(ProfileHeader)
	w.WriteByte('\n')
	it := s.groups.Iterator()
	for it.Next() {
		for _, t := range it.Value().(*priorityGroup).tasks {
			w.WriteString(t.Profile().String())
			w.WriteByte('\n')
		}
	}
	return w.String()
}
