package pie

import "errors"

var (
	// ErrInvalidGradient is returned for an unknown gradient policy.
	ErrInvalidGradient = errors.New("pie: invalid gradient policy")

	// ErrNotConstructed is returned when Reset or Step is called on a nil processor.
	ErrNotConstructed = errors.New("pie: processor not constructed")

	// ErrNotRoot is returned when Reset is called on a non-root rank.
	ErrNotRoot = errors.New("pie: reset on non-root rank")

	// ErrNoSession is returned when Step is called on the root rank without a session.
	ErrNoSession = errors.New("pie: step without a session")

	// ErrStaleSession is returned when Step gets a session that a later
	// Reset, or another processor, has superseded.
	ErrStaleSession = errors.New("pie: stale session")

	ErrInvalidMask      = errors.New("pie: invalid mask")
	ErrInvalidImage     = errors.New("pie: invalid image")
	ErrInvalidPartition = errors.New("pie: invalid partition")
)

// InvalidMaskError reports a mask that yields no unknowns or whose
// placement would read outside an image.
type InvalidMaskError struct {
	Reason string
}

func (e *InvalidMaskError) Error() string { return "pie: invalid mask: " + e.Reason }

func (e *InvalidMaskError) Unwrap() error { return ErrInvalidMask }
