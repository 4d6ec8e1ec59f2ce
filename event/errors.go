package event

import "fmt"

// UnknownModeError is returned by WaitFor for a Mode other than ModeFirst or
// ModeAll.
type UnknownModeError struct {
	Mode Mode
}

// Error implements the error interface.
func (e *UnknownModeError) Error() string {
	return fmt.Sprintf("unknown wait mode %q", string(e.Mode))
}
