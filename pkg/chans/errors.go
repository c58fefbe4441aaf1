package chans

import (
	"errors"
	"fmt"
)

var (
	// ErrUnderflow indicates a Get or Peek on an empty Queue.
	ErrUnderflow = errors.New("queue underflow")
	// ErrOverflow indicates a Put on a full Queue. Whether the new value
	// was dropped or the oldest one was evicted depends on the Policy.
	ErrOverflow = errors.New("queue overflow")

	// ErrInvalidCapacity indicates a non-positive Queue capacity.
	ErrInvalidCapacity = errors.New("invalid capacity")
	// ErrInvalidPolicy indicates an unknown overflow policy.
	ErrInvalidPolicy = errors.New("invalid overflow policy")
	// ErrDuplicateChannel indicates the channel name is already in a Catalog.
	ErrDuplicateChannel = errors.New("duplicate channel")
	// ErrNoChannel indicates the channel name is not in a Catalog.
	ErrNoChannel = errors.New("no such channel")
	// ErrTypeMismatch indicates a catalog lookup with the wrong element type.
	ErrTypeMismatch = errors.New("channel type mismatch")
)

// ConfigError reports a channel which can't be constructed or wired.
type ConfigError struct {
	Channel string
	Err     error
}

// Error implements error.
func (e *ConfigError) Error() string {
	return fmt.Sprintf("channel %q: %v", e.Channel, e.Err)
}

// Unwrap returns the cause.
func (e *ConfigError) Unwrap() error {
	return e.Err
}
