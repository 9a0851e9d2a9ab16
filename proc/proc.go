// Package proc provides the minimal process control needed to drive a
// tracee binary: launching it stopped under ptrace, waiting for its
// traps, and reading and writing its memory and registers while it is
// stopped. The tracee raises its own breakpoint traps; this package
// never inserts or removes breakpoints.
package proc

import "fmt"

// ProcessExitedError is returned by wait operations after the traced
// process has exited.
type ProcessExitedError struct {
	Pid    int
	Status int
}

func (pe ProcessExitedError) Error() string {
	return fmt.Sprintf("Process %d has exited with status %d", pe.Pid, pe.Status)
}
