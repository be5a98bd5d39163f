package telemetry

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrShutdownTimeout is returned by ShutdownWithDeadline when the deadline
	// passes before the backends finish. The shutdown keeps running.
	ErrShutdownTimeout = errors.New("shutdown timeout exceeded")

	// ErrShutdownAbandoned is returned by ShutdownWithDeadline when the
	// caller's context is done before the backends finish. It wraps the
	// context's cause. The shutdown keeps running.
	ErrShutdownAbandoned = errors.New("shutdown abandoned")

	// ErrMissingBackend is returned when a Manager would be built without all
	// three backends.
	ErrMissingBackend = errors.New("missing telemetry backend")
)

// BackendError records one backend's shutdown failure. It is only ever
// reported inside a ShutdownError.
type BackendError struct {
	Signal Signal
	Err    error
}

func (e BackendError) Error() string {
	return fmt.Sprintf("%s: %v", e.Signal.Name(), e.Err)
}

func (e BackendError) Unwrap() error {
	return e.Err
}

// ShutdownError aggregates every backend failure from one shutdown attempt,
// in attempt order.
type ShutdownError struct {
	Failures []BackendError
}

func (e *ShutdownError) Error() string {
	lines := make([]string, len(e.Failures))
	for i, f := range e.Failures {
		lines[i] = f.Error()
	}
	return "multiple shutdown failures: " + strings.Join(lines, "\n")
}

// Unwrap exposes each backend failure to errors.Is and errors.As.
func (e *ShutdownError) Unwrap() []error {
	errs := make([]error, len(e.Failures))
	for i, f := range e.Failures {
		errs[i] = f
	}
	return errs
}

// Failed reports whether the given signal's backend failed.
func (e *ShutdownError) Failed(s Signal) bool {
	for _, f := range e.Failures {
		if f.Signal == s {
			return true
		}
	}
	return false
}

// WorkerError reports that the shutdown worker goroutine did not run the
// coordinator to completion, for example because a backend panicked.
type WorkerError struct {
	Value any
}

func (e *WorkerError) Error() string {
	return fmt.Sprintf("shutdown worker failed: %v", e.Value)
}

// Unwrap returns the panic value when it is an error.
func (e *WorkerError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}
