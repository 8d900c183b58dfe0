package pie

import (
	"fmt"

	"github.com/setanarut/pie/backend"
)

// Gradient is the rule for combining source and target gradients.
type Gradient int

const (
	// GradientMax keeps whichever gradient has the larger magnitude
	// (Equ. 12 of the Poisson Image Editing paper).
	GradientMax Gradient = iota
	// GradientSrc uses the source gradient only.
	GradientSrc
	// GradientAvg uses the mean of both gradients.
	GradientAvg
)

func (g Gradient) String() string {
	switch g {
	case GradientMax:
		return "max"
	case GradientSrc:
		return "src"
	case GradientAvg:
		return "avg"
	default:
		return fmt.Sprintf("Gradient(%d)", int(g))
	}
}

func (g Gradient) valid() bool {
	return g >= GradientMax && g <= GradientAvg
}

// ParseGradient accepts "src", "avg", "max" and "mix" (same as "max").
func ParseGradient(s string) (Gradient, error) {
	switch s {
	case "max", "mix":
		return GradientMax, nil
	case "src":
		return GradientSrc, nil
	case "avg":
		return GradientAvg, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidGradient, s)
	}
}

type Options struct {
	// Gradient mixing policy. The zero value is GradientMax.
	Gradient Gradient
	// Backend name. Empty selects the registry default.
	Backend string
	// Construction parameters passed to the backend core.
	// Zero fields take backend.DefaultParams values.
	Params backend.Params
	// Registry to build the core from. Nil uses backend.DefaultRegistry().
	Registry *backend.Registry
}

func DefaultOptions() Options {
	return Options{
		Gradient: GradientMax,
		Backend:  backend.Default(),
		Params:   backend.DefaultParams(),
	}
}

func (o Options) withDefaults() (Options, error) {
	if !o.Gradient.valid() {
		return o, fmt.Errorf("%w: %v", ErrInvalidGradient, o.Gradient)
	}
	if o.Registry == nil {
		o.Registry = backend.DefaultRegistry()
	}
	if o.Backend == "" {
		o.Backend = o.Registry.Default()
	}
	o.Params = o.Params.WithDefaults()
	return o, nil
}
