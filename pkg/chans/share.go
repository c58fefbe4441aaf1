package chans

import "fmt"

// Share is a single-slot channel holding the most recent value of a signal.
// Writes overwrite unconditionally and reads never fail: before the first
// write a read returns the default given to NewShare.
type Share[T any] struct {
	name   string
	value  T
	def    T
	writes uint64
}

// NewShare creates a Share with the default value returned before any write.
func NewShare[T any](name string, def T) *Share[T] {
	return &Share[T]{name: name, value: def, def: def}
}

// Name implements Channel.
func (s *Share[T]) Name() string {
	return s.name
}

// Write overwrites the current value.
func (s *Share[T]) Write(v T) {
	s.value = v
	s.writes++
}

// Read returns the latest written value, or the default.
func (s *Share[T]) Read() T {
	return s.value
}

// Writes returns the number of writes since creation or Reset.
func (s *Share[T]) Writes() uint64 {
	return s.writes
}

// Reset restores the default value.
func (s *Share[T]) Reset() {
	s.value, s.writes = s.def, 0
}

// Stat implements Channel.
func (s *Share[T]) Stat() Stat {
	return Stat{
		Name:   s.name,
		Kind:   KindShare,
		Type:   typeName[T](),
		Writes: s.writes,
	}
}

// String implements fmt.Stringer.
func (s *Share[T]) String() string {
	return fmt.Sprintf("%-24s Share<%s> = %v", s.name, typeName[T](), s.value)
}

func typeName[T any]() string {
	var zero T
	return fmt.Sprintf("%T", zero)
}
