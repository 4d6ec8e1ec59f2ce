package serialize

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownCommand reports a Serialize call for a command with no
	// registered template.
	ErrUnknownCommand = errors.New("unknown command")

	// ErrMissingArguments reports a Serialize call whose params disqualify
	// every spec registered for the command.
	ErrMissingArguments = errors.New("missing arguments")
)

// UnknownCommandError carries the normalized command name of a failed
// lookup. It matches ErrUnknownCommand under errors.Is.
type UnknownCommandError struct {
	Command string
}

// Error implements the error interface.
func (e *UnknownCommandError) Error() string {
	return fmt.Sprintf("unknown command %q", e.Command)
}

// Unwrap returns ErrUnknownCommand.
func (e *UnknownCommandError) Unwrap() error { return ErrUnknownCommand }

// MissingArgumentsError names the closest candidate spec when every spec for
// a command is disqualified. It matches ErrMissingArguments under errors.Is.
type MissingArgumentsError struct {
	Command string
	Closest *CommandSpec
}

// Error implements the error interface.
func (e *MissingArgumentsError) Error() string {
	return fmt.Sprintf("missing arguments for command %q, closest match: %s", e.Command, e.Closest)
}

// Unwrap returns ErrMissingArguments.
func (e *MissingArgumentsError) Unwrap() error { return ErrMissingArguments }

// UnknownParamError reports a Register call whose defaults or dependencies
// reference a parameter the template does not declare.
type UnknownParamError struct {
	Command string
	Param   string
	Context string // "default" or "dependency"
}

// Error implements the error interface.
func (e *UnknownParamError) Error() string {
	return fmt.Sprintf("command %q: %s references unknown parameter %q", e.Command, e.Context, e.Param)
}
