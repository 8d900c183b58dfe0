package pie

import (
	"fmt"
	"image"
	"log/slog"

	"github.com/setanarut/pie/backend"
)

// BuildGrid turns a mask and two images into the dense-crop problem: the
// target patch under the grown bounding box of the mask, the mask itself,
// and a gradient field holding, for every mask-true cell, the sum of the
// four mixed one-sided gradients. bounds is the crop placement in the
// target.
func BuildGrid(src, mask, tgt *Image, maskOnSrc, maskOnTgt image.Point, g Gradient) (p *backend.GridProblem, bounds image.Rectangle, err error) {
	if err := src.validate("source", 3); err != nil {
		return nil, bounds, err
	}
	if err := tgt.validate("target", 3); err != nil {
		return nil, bounds, err
	}
	m, origin, err := prepareMask(mask)
	if err != nil {
		return nil, bounds, err
	}
	srcOff, tgtOff := maskOnSrc.Add(origin), maskOnTgt.Add(origin)
	if err := checkPlacement("source", src, srcOff, m.W, m.H); err != nil {
		return nil, bounds, err
	}
	if err := checkPlacement("target", tgt, tgtOff, m.W, m.H); err != nil {
		return nil, bounds, err
	}

	rows, cols := m.H, m.W
	srcCrop := cropPix(src, srcOff, cols, rows)
	tgtCrop := cropPix(tgt, tgtOff, cols, rows)
	grad := make([]float32, rows*cols*3)
	inside := image.Rect(0, 0, cols, rows)
	for y := range rows {
		for x := range cols {
			o := (y*cols + x) * 3
			for _, d := range dirs {
				nb := image.Pt(x, y).Add(d)
				if !nb.In(inside) {
					continue
				}
				no := (nb.Y*cols + nb.X) * 3
				for c := range 3 {
					grad[o+c] += Mix(srcCrop[o+c]-srcCrop[no+c], tgtCrop[o+c]-tgtCrop[no+c], g)
				}
			}
		}
	}
	for i, v := range m.Pix {
		if v == 0 {
			grad[i*3], grad[i*3+1], grad[i*3+2] = 0, 0, 0
		}
	}

	p = &backend.GridProblem{
		N:    rows * cols,
		Rows: rows,
		Cols: cols,
		Mask: m.Pix,
		Tgt:  tgtCrop,
		Grad: grad,
	}
	return p, image.Rect(tgtOff.X, tgtOff.Y, tgtOff.X+cols, tgtOff.Y+rows), nil
}

// cropPix copies the w x h patch of img at off.
func cropPix(img *Image, off image.Point, w, h int) []float32 {
	out := make([]float32, w*h*img.C)
	for y := range h {
		start := img.offset(image.Pt(off.X, off.Y+y))
		copy(out[y*w*img.C:(y+1)*w*img.C], img.Pix[start:])
	}
	return out
}

// GridProcessor blends through the dense-crop formulation, for solvers
// that work directly on 2D grids.
type GridProcessor struct {
	base
	core backend.GridCore
}

// NewGridProcessor builds the grid solver core of opts.Backend. Like
// NewEquProcessor it never falls back to another backend.
func NewGridProcessor(opts Options) (*GridProcessor, error) {
	opts, err := opts.withDefaults()
	if err != nil {
		return nil, err
	}
	core, err := opts.Registry.NewGridCore(opts.Backend, opts.Params)
	if err != nil {
		return nil, fmt.Errorf("pie: grid processor: %w", err)
	}
	return &GridProcessor{base: newBase(opts, core), core: core}, nil
}

func (p *GridProcessor) Reset(src, mask, tgt *Image, maskOnSrc, maskOnTgt image.Point) (*Session, error) {
	if p == nil || p.core == nil {
		return nil, ErrNotConstructed
	}
	if !p.Root() {
		return nil, ErrNotRoot
	}
	prob, bounds, err := BuildGrid(src, mask, tgt, maskOnSrc, maskOnTgt, p.gradient)
	if err != nil {
		return nil, err
	}
	if err := p.core.Reset(prob); err != nil {
		return nil, fmt.Errorf("pie: reset %s core: %w", p.backend, err)
	}
	s := p.newSession(prob.N, tgt)
	s.bounds = bounds
	Logger().Debug("grid problem loaded",
		slog.String("backend", p.backend),
		slog.Int("rows", prob.Rows),
		slog.Int("cols", prob.Cols),
		slog.String("gradient", p.gradient.String()))
	return s, nil
}

func (p *GridProcessor) Step(s *Session, iteration int) (*Result, error) {
	if p == nil || p.core == nil {
		return nil, ErrNotConstructed
	}
	if err := p.checkSession(s); err != nil {
		return nil, err
	}
	sol, err := p.core.Step(iteration)
	if err != nil {
		return nil, fmt.Errorf("pie: step %s core: %w", p.backend, err)
	}
	if !p.Root() {
		return nil, nil
	}
	if err := p.checkSolution(sol, s.N*3); err != nil {
		return nil, err
	}
	w := s.bounds.Dx() * 3
	for y := range s.bounds.Dy() {
		o := s.tgt.offset(image.Pt(s.bounds.Min.X, s.bounds.Min.Y+y))
		copy(s.tgt.Pix[o:o+w], sol.Values[y*w:(y+1)*w])
	}
	Logger().Debug("grid step", slog.Int("iteration", iteration), slog.Float64("err", sol.Err.Sum()))
	return &Result{Image: s.tgt.Clone(), Err: sol.Err}, nil
}
