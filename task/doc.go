// Package task provides supervised fire-and-forget scheduling. Work spawned
// through a Supervisor runs to completion whether or not the caller keeps
// the returned handle, with panics recovered and failures logged instead of
// crashing the process.
package task
