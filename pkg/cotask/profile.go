package cotask

import (
	"fmt"
	"strings"
	"time"
)

// Profile is a read-only snapshot of a Task's timing statistics.
type Profile struct {
	Name     string
	Priority int
	Period   time.Duration
	State    State
	Enabled  bool

	Runs          uint64
	TotalDuration time.Duration
	AvgDuration   time.Duration
	MaxDuration   time.Duration

	LateRuns    uint64 // periodic runs, the ones lateness is measured on
	AvgLateness time.Duration
	MaxLateness time.Duration
	Fault       string
}

type accumulator struct {
	runs      uint64
	total     time.Duration
	max       time.Duration
	lateRuns  uint64
	lateTotal time.Duration
	lateMax   time.Duration
}

func (a *accumulator) record(dur, late time.Duration, periodic bool) {
	a.runs++
	a.total += dur
	if dur > a.max {
		a.max = dur
	}
	if periodic {
		a.lateRuns++
		a.lateTotal += late
		if late > a.lateMax {
			a.lateMax = late
		}
	}
}

func (a *accumulator) snapshot(t *Task) Profile {
	p := Profile{
		Name:          t.name,
		Priority:      t.priority,
		Period:        t.period,
		State:         t.state,
		Enabled:       t.enabled,
		Runs:          a.runs,
		TotalDuration: a.total,
		MaxDuration:   a.max,
		LateRuns:      a.lateRuns,
		MaxLateness:   a.lateMax,
	}
	if a.runs > 0 {
		p.AvgDuration = a.total / time.Duration(a.runs)
	}
	if a.lateRuns > 0 {
		p.AvgLateness = a.lateTotal / time.Duration(a.lateRuns)
	}
	if t.fault != nil {
		p.Fault = t.fault.Err.Error()
	}
	return p
}

// ProfileHeader is the header line matching Profile.String.
const ProfileHeader = "TASK                PRI    PERIOD    RUNS   AVG DUR   MAX DUR  AVG LATE  MAX LATE  STATE"

// String formats the profile as one line of a report, times in milliseconds.
func (p Profile) String() string {
	var w strings.Builder
	fmt.Fprintf(&w, "%-18s%5d", p.Name, p.Priority)
	if p.Period > 0 {
		fmt.Fprintf(&w, "%10.1f", ms(p.Period))
	} else {
		w.WriteString("         -")
	}
	fmt.Fprintf(&w, "%8d%10.3f%10.3f", p.Runs, ms(p.AvgDuration), ms(p.MaxDuration))
	if p.LateRuns > 0 {
		fmt.Fprintf(&w, "%10.3f%10.3f", ms(p.AvgLateness), ms(p.MaxLateness))
	} else {
		w.WriteString("         -         -")
	}
	state := p.State.String()
	if !p.Enabled && !p.State.Terminal() {
		state = "disabled"
	}
	fmt.Fprintf(&w, "  %s", state)
	if p.Fault != "" {
		fmt.Fprintf(&w, ": %s", p.Fault)
	}
	return w.String()
}

func ms(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

// Transition is one recorded change of a routine's state number.
type Transition struct {
	At       time.Duration
	From, To int
}

// String implements fmt.Stringer.
func (t Transition) String() string {
	return fmt.Sprintf("%12.6f: %2d -> %d", t.At.Seconds(), t.From, t.To)
}

type tracer struct {
	limit   int
	enabled bool
	items   []Transition
}

func (t *tracer) record(at time.Duration, from, to int) {
	if !t.enabled {
		return
	}
	if len(t.items) >= t.limit {
		t.enabled = false
		return
	}
	if t.items == nil {
		t.items = make([]Transition, 0, t.limit)
	}
	t.items = append(t.items, Transition{At: at, From: from, To: to})
}
