// Package simerr enumerates the error taxonomy of spec.md §7:
// configuration errors (diagnosed before the run loop starts), messaging
// errors (fatal, abort the process), and numeric errors (fatal, indicate a
// programmer error).
package simerr

import "errors"

// Sentinel classes. Wrap one of these with fmt.Errorf("...: %w", ErrX) so
// callers can classify failures with errors.Is.
var (
	// ErrConfiguration marks a configuration error: N not divisible by P,
	// or a non-positive R, dt, or theta.
	ErrConfiguration = errors.New("configuration error")

	// ErrMessaging marks a fatal transport failure: any send/receive,
	// all-gather, or barrier failure.
	ErrMessaging = errors.New("messaging error")

	// ErrNumeric marks a non-finite force or position. Softening is
	// chosen to prevent this under normal inputs; its occurrence
	// indicates a programmer error.
	ErrNumeric = errors.New("numeric error")
)

// ExitCode maps an error produced by this module to the process exit code
// spec.md §6 calls for: 0 on clean shutdown, nonzero otherwise.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, ErrConfiguration):
		return 2
	case errors.Is(err, ErrMessaging):
		return 3
	case errors.Is(err, ErrNumeric):
		return 4
	default:
		return 1
	}
}
