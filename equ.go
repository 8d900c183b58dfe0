package pie

import (
	"fmt"
	"image"
	"log/slog"

	"github.com/setanarut/pie/backend"
)

// Neighbor directions in adjacency order: up, down, left, right.
var dirs = [4]image.Point{{0, -1}, {0, 1}, {-1, 0}, {1, 0}}

// PartitionFunc assigns ids 1..n to the n mask-true cells of a rows x cols
// mask. See backend.EquCore.
type PartitionFunc func(mask []int32, rows, cols int) []int32

// BuildEquation turns a mask and two images into the index-graph problem:
// every mask-true cell becomes an unknown with an id in [1, N), A holds its
// up/down/left/right neighbor ids (0 for fixed boundary cells), B the mixed
// gradient sum plus the target values of boundary neighbors, and X the
// target values as initial guess. coords[k] is the target coordinate of id
// k+1. A nil partition numbers cells in row-major order.
func BuildEquation(src, mask, tgt *Image, maskOnSrc, maskOnTgt image.Point, g Gradient, partition PartitionFunc) (*backend.EquProblem, []image.Point, error) {
	if err := src.validate("source", 3); err != nil {
		return nil, nil, err
	}
	if err := tgt.validate("target", 3); err != nil {
		return nil, nil, err
	}
	m, origin, err := prepareMask(mask)
	if err != nil {
		return nil, nil, err
	}
	srcOff, tgtOff := maskOnSrc.Add(origin), maskOnTgt.Add(origin)
	if err := checkPlacement("source", src, srcOff, m.W, m.H); err != nil {
		return nil, nil, err
	}
	if err := checkPlacement("target", tgt, tgtOff, m.W, m.H); err != nil {
		return nil, nil, err
	}

	if partition == nil {
		partition = backend.RowMajorPartition
	}
	ids, cells, err := enumerate(m, partition)
	if err != nil {
		return nil, nil, err
	}
	n := len(cells)

	p := &backend.EquProblem{
		N: n,
		A: make([][4]int32, n),
		X: make([]float32, n*3),
		B: make([]float32, n*3),
	}
	coords := make([]image.Point, n-1)
	for id := 1; id < n; id++ {
		cell := cells[id]
		sp, tp := cell.Add(srcOff), cell.Add(tgtOff)
		sc, tc := src.px(sp), tgt.px(tp)
		b := p.B[id*3 : id*3+3]
		for k, d := range dirs {
			sn, tn := src.px(sp.Add(d)), tgt.px(tp.Add(d))
			for c := range 3 {
				b[c] += Mix(sc[c]-sn[c], tc[c]-tn[c], g)
			}
			nb := cell.Add(d)
			if m.at(nb) == 0 {
				for c := range 3 {
					b[c] += tn[c]
				}
				continue
			}
			p.A[id][k] = ids[nb.Y*m.W+nb.X]
		}
		copy(p.X[id*3:id*3+3], tc)
		coords[id-1] = tp
	}
	return p, coords, nil
}

// enumerate runs partition over m and checks that it is a bijection from
// the mask-true cells onto [1, n]. It returns the id grid (0 outside the
// mask) and the cell of every id, with index 0 unused.
func enumerate(m *Mask, partition PartitionFunc) ([]int32, []image.Point, error) {
	count := m.Count()
	ids := partition(m.Pix, m.H, m.W)
	if len(ids) != len(m.Pix) {
		return nil, nil, fmt.Errorf("%w: got %d ids for %d cells", ErrInvalidPartition, len(ids), len(m.Pix))
	}
	cells := make([]image.Point, count+1)
	seen := make([]bool, count+1)
	for y := range m.H {
		for x := range m.W {
			i := y*m.W + x
			if m.Pix[i] == 0 {
				ids[i] = 0 // reserve id=0 for constant
				continue
			}
			id := ids[i]
			if id < 1 || int(id) > count || seen[id] {
				return nil, nil, fmt.Errorf("%w: cell (%d,%d) got id %d", ErrInvalidPartition, y, x, id)
			}
			seen[id] = true
			cells[id] = image.Pt(x, y)
		}
	}
	return ids, cells, nil
}

// EquProcessor blends through the index-graph formulation, for solvers
// that work on a flat list of unknowns.
type EquProcessor struct {
	base
	core backend.EquCore
}

// NewEquProcessor builds the solver core of opts.Backend. It fails with a
// *backend.UnavailableBackendError if the backend is not available; there
// is no fallback to another backend.
func NewEquProcessor(opts Options) (*EquProcessor, error) {
	opts, err := opts.withDefaults()
	if err != nil {
		return nil, err
	}
	core, err := opts.Registry.NewEquCore(opts.Backend, opts.Params)
	if err != nil {
		return nil, fmt.Errorf("pie: equation processor: %w", err)
	}
	return &EquProcessor{base: newBase(opts, core), core: core}, nil
}

func (p *EquProcessor) Reset(src, mask, tgt *Image, maskOnSrc, maskOnTgt image.Point) (*Session, error) {
	if p == nil || p.core == nil {
		return nil, ErrNotConstructed
	}
	if !p.Root() {
		return nil, ErrNotRoot
	}
	prob, coords, err := BuildEquation(src, mask, tgt, maskOnSrc, maskOnTgt, p.gradient, p.core.Partition)
	if err != nil {
		return nil, err
	}
	if err := p.core.Reset(prob); err != nil {
		return nil, fmt.Errorf("pie: reset %s core: %w", p.backend, err)
	}
	s := p.newSession(prob.N, tgt)
	s.coords = coords
	Logger().Debug("equation problem loaded",
		slog.String("backend", p.backend),
		slog.Int("unknowns", prob.N-1),
		slog.String("gradient", p.gradient.String()))
	return s, nil
}

func (p *EquProcessor) Step(s *Session, iteration int) (*Result, error) {
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
	for k, tp := range s.coords {
		copy(s.tgt.px(tp), sol.Values[(k+1)*3:(k+2)*3])
	}
	Logger().Debug("equation step", slog.Int("iteration", iteration), slog.Float64("err", sol.Err.Sum()))
	return &Result{Image: s.tgt.Clone(), Err: sol.Err}, nil
}
