package chans

import "fmt"

// Policy decides what a Put on a full Queue does.
type Policy int

const (
	// PolicyReject drops the new value and keeps the queued history.
	PolicyReject Policy = iota
	// PolicyEvict discards the oldest value to make room for the new one.
	PolicyEvict
)

// String implements fmt.Stringer.
func (p Policy) String() string {
	switch p {
	case PolicyReject:
		return "reject"
	case PolicyEvict:
		return "evict"
	default:
		return "unknown"
	}
}

// ParsePolicy parses the names produced by Policy.String.
func ParsePolicy(s string) (Policy, error) {
	switch s {
	case "reject":
		return PolicyReject, nil
	case "evict", "overwrite":
		return PolicyEvict, nil
	}
	return PolicyReject, fmt.Errorf("%w: %q", ErrInvalidPolicy, s)
}

// Queue is a fixed-capacity FIFO backed by a ring buffer.
// At any time 0 <= Depth() <= Cap().
type Queue[T any] struct {
	name   string
	policy Policy
	buf    []T
	head   int // index of the oldest entry
	depth  int

	overflows uint64
	maxDepth  int
}

// NewQueue creates a Queue. The capacity must be positive.
func NewQueue[T any](name string, capacity int, policy Policy) (*Queue[T], error) {
	if capacity <= 0 {
		return nil, &ConfigError{Channel: name, Err: fmt.Errorf("%w: %d", ErrInvalidCapacity, capacity)}
	}
	if policy != PolicyReject && policy != PolicyEvict {
		return nil, &ConfigError{Channel: name, Err: ErrInvalidPolicy}
	}
	return &Queue[T]{name: name, policy: policy, buf: make([]T, capacity)}, nil
}

// MustNewQueue is NewQueue which panics on error, for static wiring.
func MustNewQueue[T any](name string, capacity int, policy Policy) *Queue[T] {
	q, err := NewQueue[T](name, capacity, policy)
	if err != nil {
		panic(err)
	}
	return q
}

// Name implements Channel.
func (q *Queue[T]) Name() string {
	return q.name
}

// Policy returns the overflow policy.
func (q *Queue[T]) Policy() Policy {
	return q.policy
}

// Put appends v at the tail. On a full queue it returns ErrOverflow after
// applying the policy: with PolicyReject v is dropped, with PolicyEvict
// the oldest entry is dropped and v is appended.
func (q *Queue[T]) Put(v T) error {
	if q.depth == len(q.buf) {
		q.overflows++
		if q.policy == PolicyReject {
			return ErrOverflow
		}
		q.buf[q.head] = v
		q.head = q.wrap(q.head + 1)
		return ErrOverflow
	}
	q.buf[q.wrap(q.head+q.depth)] = v
	q.depth++
	if q.depth > q.maxDepth {
		q.maxDepth = q.depth
	}
	return nil
}

// Get removes and returns the oldest entry.
func (q *Queue[T]) Get() (v T, err error) {
	if q.depth == 0 {
		return v, ErrUnderflow
	}
	var zero T
	v, q.buf[q.head] = q.buf[q.head], zero
	q.head = q.wrap(q.head + 1)
	q.depth--
	return v, nil
}

// Peek returns the oldest entry without removing it.
func (q *Queue[T]) Peek() (v T, err error) {
	if q.depth == 0 {
		return v, ErrUnderflow
	}
	return q.buf[q.head], nil
}

// Newest returns the most recently put entry without removing it.
func (q *Queue[T]) Newest() (v T, err error) {
	if q.depth == 0 {
		return v, ErrUnderflow
	}
	return q.buf[q.wrap(q.head+q.depth-1)], nil
}

// NewestOr returns the newest entry, or def if the queue is empty.
func (q *Queue[T]) NewestOr(def T) T {
	if v, err := q.Newest(); err == nil {
		return v
	}
	return def
}

// Available tells whether at least n entries are queued.
func (q *Queue[T]) Available(n int) bool {
	return q.depth >= n
}

// Depth returns the number of queued entries.
func (q *Queue[T]) Depth() int {
	return q.depth
}

// Cap returns the capacity.
func (q *Queue[T]) Cap() int {
	return len(q.buf)
}

// Empty tells whether the queue has no entries.
func (q *Queue[T]) Empty() bool {
	return q.depth == 0
}

// Full tells whether the next Put overflows.
func (q *Queue[T]) Full() bool {
	return q.depth == len(q.buf)
}

// Overflows returns the number of Puts on a full queue.
func (q *Queue[T]) Overflows() uint64 {
	return q.overflows
}

// MaxDepth returns the highest depth observed since creation or Clear.
func (q *Queue[T]) MaxDepth() int {
	return q.maxDepth
}

// Drain removes entries oldest first, passing each to fn until the queue
// is empty or fn returns false. It returns the number of entries removed.
func (q *Queue[T]) Drain(fn func(T) bool) (n int) {
	for q.depth > 0 {
		v, _ := q.Get()
		n++
		if !fn(v) {
			break
		}
	}
	return
}

// Clear removes all entries and resets the counters.
func (q *Queue[T]) Clear() {
	clear(q.buf)
	q.head, q.depth = 0, 0
	q.overflows, q.maxDepth = 0, 0
}

// Stat implements Channel.
func (q *Queue[T]) Stat() Stat {
	return Stat{
		Name:      q.name,
		Kind:      KindQueue,
		Type:      typeName[T](),
		Policy:    q.policy,
		Depth:     q.depth,
		Capacity:  len(q.buf),
		MaxDepth:  q.maxDepth,
		Overflows: q.overflows,
	}
}

// String implements fmt.Stringer.
func (q *Queue[T]) String() string {
	return fmt.Sprintf("%-24s Queue<%s> %s Max Full %d/%d Overflows %d",
		q.name, typeName[T](), q.policy, q.maxDepth, len(q.buf), q.overflows)
}

func (q *Queue[T]) wrap(i int) int {
	if i >= len(q.buf) {
		i -= len(q.buf)
	}
	return i
}
