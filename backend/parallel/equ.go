package parallel

import (
	"github.com/setanarut/pie/backend"
	"github.com/setanarut/pie/backend/jacobi"
	"gonum.org/v1/gonum/mat"
)

// EquSolver runs the index-graph Jacobi sweep in blocks of BlockSize
// unknowns. Unknowns are numbered tile by tile so that a block touches a
// compact patch of the image.
type EquSolver struct {
	local
	pool         pool
	blockSize    int
	tileH, tileW int

	n       int
	a       [][4]int32
	x, next *mat.Dense
	b       *mat.Dense
}

func NewEquSolver(p backend.Params) *EquSolver {
	p = p.WithDefaults()
	return &EquSolver{
		pool:      pool{workers: p.Workers},
		blockSize: p.BlockSize,
		tileH:     p.GridX,
		tileW:     p.GridY,
	}
}

// Partition numbers mask-true cells tile by tile, row-major inside a tile.
func (s *EquSolver) Partition(mask []int32, rows, cols int) []int32 {
	ids := make([]int32, rows*cols)
	var cnt int32
	for ti := 0; ti < rows; ti += s.tileH {
		for tj := 0; tj < cols; tj += s.tileW {
			for i := ti; i < min(ti+s.tileH, rows); i++ {
				for j := tj; j < min(tj+s.tileW, cols); j++ {
					if mask[i*cols+j] > 0 {
						cnt++
						ids[i*cols+j] = cnt
					}
				}
			}
		}
	}
	return ids
}

func (s *EquSolver) Reset(p *backend.EquProblem) error {
	if err := backend.ValidateEqu(p); err != nil {
		return err
	}
	s.n = p.N
	s.a = p.A
	s.x, s.b = jacobi.NewEquMatrices(p)
	s.next = mat.NewDense(p.N, 3, nil)
	return nil
}

func (s *EquSolver) blocks() int {
	return (s.n + s.blockSize - 1) / s.blockSize
}

func (s *EquSolver) bounds(k int) (lo, hi int) {
	lo = k * s.blockSize
	return lo, min(lo+s.blockSize, s.n)
}

func (s *EquSolver) Step(iteration int) (*backend.Solution, error) {
	if s.x == nil {
		return nil, backend.ErrNotReset
	}
	nb := s.blocks()
	for range iteration {
		s.pool.run(nb, func(k int) {
			lo, hi := s.bounds(k)
			jacobi.RelaxRows(s.next, s.x, s.b, s.a, lo, hi)
		})
		s.x, s.next = s.next, s.x
	}

	partial := make([]backend.Residual, nb)
	s.pool.run(nb, func(k int) {
		lo, hi := s.bounds(k)
		partial[k] = jacobi.RowsResidual(s.x, s.b, s.a, lo, hi)
	})
	return &backend.Solution{Values: jacobi.Values(s.x), Err: sumResiduals(partial)}, nil
}

func sumResiduals(rs []backend.Residual) backend.Residual {
	var out backend.Residual
	for _, r := range rs {
		for c := range 3 {
			out[c] += r[c]
		}
	}
	return out
}
