package telemetry

import (
	"errors"
	"fmt"
)

var (
	// ErrFrameTooLarge indicates the payload exceeds MaxFrameData.
	ErrFrameTooLarge = errors.New("frame too large")
	// ErrMalformed indicates a frame payload can't be decoded.
	ErrMalformed = errors.New("malformed frame")
	// ErrUnknownCommand indicates a command line nobody handles.
	ErrUnknownCommand = errors.New("unknown command")
	// ErrUnknownAction indicates a control request with an unknown action.
	ErrUnknownAction = errors.New("unknown action")
)

// CommandError is a non-OK status replied to a command.
type CommandError struct {
	Status byte
}

// Error implements error.
func (e *CommandError) Error() string {
	switch e.Status {
	case StatusUnknownCommand:
		return "command error: unknown command"
	case StatusBadArgument:
		return "command error: bad argument"
	}
	return fmt.Sprintf("command error %d", e.Status)
}
