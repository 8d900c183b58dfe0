package backend

import (
	"errors"
	"fmt"
	"strings"
)

// Common backend errors.
var (
	// ErrBackendNotAvailable is returned when a requested backend was not discovered.
	ErrBackendNotAvailable = errors.New("backend: not available")

	// ErrNotReset is returned by Step when no problem has been loaded.
	ErrNotReset = errors.New("backend: step before reset")

	// ErrInvalidProblem is returned by Reset for inconsistent problem shapes.
	ErrInvalidProblem = errors.New("backend: invalid problem")
)

// Backend families and what to install for each.
var familyHints = map[string]string{
	"gonum":    "build with gonum.org/v1/gonum available (go get gonum.org/v1/gonum)",
	"gcc":      "install a C compiler and build with CGO_ENABLED=1",
	"cgo":      "install a C compiler and build with CGO_ENABLED=1",
	"parallel": "unset PIE_NO_PARALLEL and run on a machine with more than one CPU",
	"openmp":   "install a C compiler with OpenMP support (-fopenmp)",
	"mpi":      "install MPI and its Go binding, then launch with mpirun",
	"cuda":     "install the CUDA toolkit (nvcc and runtime libraries)",
	"taichi":   "install the Taichi tensor compiler runtime",
}

// Family returns the backend family of name: the text before the first '-'.
func Family(name string) string {
	family, _, _ := strings.Cut(name, "-")
	return family
}

// Hint returns the remediation message for the family of name.
func Hint(name string) string {
	if h, ok := familyHints[Family(name)]; ok {
		return h
	}
	return "check that the backend is compiled in and its native dependencies are installed"
}

// UnavailableBackendError reports a backend that was requested explicitly but
// is not available in this process.
type UnavailableBackendError struct {
	Backend string
	Family  string
	Hint    string
	// Err is the probe failure, if the backend is known but its probe failed.
	Err error
}

func newUnavailable(name string, probeErr error) *UnavailableBackendError {
	return &UnavailableBackendError{
		Backend: name,
		Family:  Family(name),
		Hint:    Hint(name),
		Err:     probeErr,
	}
}

func (e *UnavailableBackendError) Error() string {
	msg := fmt.Sprintf("backend: %q (%s family) not available: %s", e.Backend, e.Family, e.Hint)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *UnavailableBackendError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrBackendNotAvailable, e.Err}
	}
	return []error{ErrBackendNotAvailable}
}
