package chans

import (
	"fmt"
	"strings"
)

// Kind distinguishes Shares from Queues in diagnostics.
type Kind int

// Channel kinds.
const (
	KindShare Kind = iota
	KindQueue
)

// String implements fmt.Stringer.
func (k Kind) String() string {
	if k == KindQueue {
		return "queue"
	}
	return "share"
}

// Stat is a diagnostic snapshot of a channel.
type Stat struct {
	Name      string
	Kind      Kind
	Type      string
	Writes    uint64 // Share only
	Policy    Policy // Queue only
	Depth     int
	Capacity  int
	MaxDepth  int
	Overflows uint64
}

// Channel is the type-erased view of a Share or a Queue.
type Channel interface {
	Name() string
	Stat() Stat
	String() string
}

// Catalog indexes the named channels of an application. Wiring is done by
// name at construction time; channels never know their producers or
// consumers.
type Catalog struct {
	channels []Channel
	byName   map[string]Channel
}

// NewCatalog creates an empty Catalog.
func NewCatalog() *Catalog {
	return &Catalog{byName: make(map[string]Channel)}
}

// Add adds channels. Names must be unique within the Catalog.
func (c *Catalog) Add(chs ...Channel) error {
	for _, ch := range chs {
		name := ch.Name()
		if _, dup := c.byName[name]; dup {
			return &ConfigError{Channel: name, Err: ErrDuplicateChannel}
		}
		c.byName[name] = ch
		c.channels = append(c.channels, ch)
	}
	return nil
}

// Get looks up a channel by name.
func (c *Catalog) Get(name string) (Channel, bool) {
	ch, ok := c.byName[name]
	return ch, ok
}

// Channels returns all channels in the order they were added.
func (c *Catalog) Channels() []Channel {
	return append([]Channel(nil), c.channels...)
}

// Stats returns a snapshot of every channel.
func (c *Catalog) Stats() []Stat {
	stats := make([]Stat, len(c.channels))
	for n, ch := range c.channels {
		stats[n] = ch.Stat()
	}
	return stats
}

// Report returns one diagnostic line per channel.
func (c *Catalog) Report() string {
	lines := make([]string, len(c.channels))
	for n, ch := range c.channels {
		lines[n] = ch.String()
	}
	return strings.Join(lines, "\n")
}

// ShareOf looks up a Share with element type T.
func ShareOf[T any](c *Catalog, name string) (*Share[T], error) {
	ch, ok := c.byName[name]
	if !ok {
		return nil, &ConfigError{Channel: name, Err: ErrNoChannel}
	}
	s, ok := ch.(*Share[T])
	if !ok {
		return nil, &ConfigError{Channel: name, Err: fmt.Errorf("%w: want Share<%s>", ErrTypeMismatch, typeName[T]())}
	}
	return s, nil
}

// QueueOf looks up a Queue with element type T.
func QueueOf[T any](c *Catalog, name string) (*Queue[T], error) {
	ch, ok := c.byName[name]
	if !ok {
		return nil, &ConfigError{Channel: name, Err: ErrNoChannel}
	}
	q, ok := ch.(*Queue[T])
	if !ok {
		return nil, &ConfigError{Channel: name, Err: fmt.Errorf("%w: want Queue<%s>", ErrTypeMismatch, typeName[T]())}
	}
	return q, nil
}
