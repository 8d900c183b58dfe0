// Package pie implements Poisson image editing: it builds the sparse linear
// system that blends a masked region of a source image into a target image
// by matching gradients, hands it to a solver backend, and reassembles the
// solver output into the target.
//
// A blend runs in two phases. Reset builds the problem and returns a
// Session; Step advances the solver and returns the blended image:
//
//	p, err := pie.NewEquProcessor(pie.DefaultOptions())
//	if err != nil {
//		log.Fatal(err)
//	}
//	s, err := p.Reset(src, mask, tgt, image.Pt(0, 0), image.Pt(40, 60))
//	if err != nil {
//		log.Fatal(err)
//	}
//	res, err := p.Step(s, 5000)
//
// Image coordinates are image.Point values with X as the column and Y as
// the row.
package pie

import (
	"fmt"
	"image"

	"github.com/setanarut/pie/backend"

	// Built-in backends.
	_ "github.com/setanarut/pie/backend/jacobi"
	_ "github.com/setanarut/pie/backend/parallel"
)

// Processor is implemented by EquProcessor and GridProcessor. A Processor
// serves one blend session at a time and is not safe for concurrent use.
type Processor interface {
	// Reset builds a new blend problem and loads it into the solver core.
	// It may only be called on the root rank.
	Reset(src, mask, tgt *Image, maskOnSrc, maskOnTgt image.Point) (*Session, error)

	// Step advances the solver by iteration sweeps. On the root rank it
	// returns the blended target image; other ranks get a nil Result and
	// may pass a nil Session.
	Step(s *Session, iteration int) (*Result, error)

	// Sync is a barrier for distributed backends.
	Sync() error

	Close() error
	Backend() string
	Gradient() Gradient
	Rank() int
	Root() bool
}

// Session is the state Reset hands to Step: the persisted copy of the
// target and the mapping from solver output back into it.
type Session struct {
	// N is the unknown count handed to the core (max_id in index mode,
	// crop cells in grid mode).
	N int

	tgt    *Image
	coords []image.Point   // index mode: target coordinate of id k+1
	bounds image.Rectangle // grid mode: crop placement in the target
	owner  *base
	gen    uint64
}

// Bounds returns the rectangle of the target image that Step may modify.
func (s *Session) Bounds() image.Rectangle {
	if s.coords == nil {
		return s.bounds
	}
	var r image.Rectangle
	for _, p := range s.coords {
		r = r.Union(image.Rectangle{Min: p, Max: p.Add(image.Pt(1, 1))})
	}
	return r
}

// Result is the outcome of one Step on the root rank.
type Result struct {
	// Image is a snapshot of the blended target.
	Image *Image
	// Err is the solver residual; Err.Sum() is the scalar convergence metric.
	Err backend.Residual
}

type base struct {
	gradient Gradient
	rank     int
	backend  string
	core     backend.Core
	gen      uint64
}

func newBase(opts Options, core backend.Core) base {
	return base{
		gradient: opts.Gradient,
		rank:     core.Rank(),
		backend:  opts.Backend,
		core:     core,
	}
}

func (b *base) Backend() string    { return b.backend }
func (b *base) Gradient() Gradient { return b.gradient }
func (b *base) Rank() int          { return b.rank }
func (b *base) Root() bool         { return b.rank == 0 }

func (b *base) Sync() error {
	return b.core.Sync()
}

func (b *base) Close() error {
	return b.core.Close()
}

func (b *base) newSession(n int, tgt *Image) *Session {
	b.gen++
	return &Session{
		N:     n,
		tgt:   tgt.Clone(),
		owner: b,
		gen:   b.gen,
	}
}

// checkSession validates s on the root rank.
func (b *base) checkSession(s *Session) error {
	if !b.Root() {
		return nil
	}
	if s == nil {
		return ErrNoSession
	}
	if s.owner != b || s.gen != b.gen {
		return ErrStaleSession
	}
	return nil
}

func (b *base) checkSolution(sol *backend.Solution, want int) error {
	if sol == nil {
		return fmt.Errorf("pie: %s core returned no solution on root rank", b.backend)
	}
	if len(sol.Values) != want {
		return fmt.Errorf("pie: %s core returned %d values, want %d", b.backend, len(sol.Values), want)
	}
	return nil
}

var (
	_ Processor = (*EquProcessor)(nil)
	_ Processor = (*GridProcessor)(nil)
)
