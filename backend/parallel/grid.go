package parallel

import (
	"github.com/setanarut/pie/backend"
	"github.com/setanarut/pie/backend/jacobi"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// GridSolver splits the crop into GridX x GridY tiles and relaxes every
// (tile, channel) pair concurrently.
type GridSolver struct {
	local
	pool         pool
	tileH, tileW int

	rows, cols int
	mask       []int32
	tiles      []tile
	cur, next  [3]*mat.Dense
	grad       [3]*mat.Dense
}

type tile struct {
	r0, r1, c0, c1 int
}

func NewGridSolver(p backend.Params) *GridSolver {
	p = p.WithDefaults()
	return &GridSolver{
		pool:  pool{workers: p.Workers},
		tileH: p.GridX,
		tileW: p.GridY,
	}
}

func (s *GridSolver) Reset(p *backend.GridProblem) error {
	if err := backend.ValidateGrid(p); err != nil {
		return err
	}
	s.rows, s.cols = p.Rows, p.Cols
	s.mask = p.Mask
	s.cur, s.next, s.grad = jacobi.NewGridMatrices(p)
	s.tiles = s.tiles[:0]
	for r := 0; r < p.Rows; r += s.tileH {
		for c := 0; c < p.Cols; c += s.tileW {
			s.tiles = append(s.tiles, tile{r, min(r+s.tileH, p.Rows), c, min(c+s.tileW, p.Cols)})
		}
	}
	return nil
}

func (s *GridSolver) Step(iteration int) (*backend.Solution, error) {
	if s.cur[0] == nil {
		return nil, backend.ErrNotReset
	}
	nt := len(s.tiles)
	for range iteration {
		s.pool.run(nt*3, func(k int) {
			t, c := s.tiles[k/3], k%3
			jacobi.RelaxTile(s.next[c], s.cur[c], s.grad[c], s.mask, t.r0, t.r1, t.c0, t.c1)
		})
		s.cur, s.next = s.next, s.cur
	}

	var partial [3][]float64
	for c := range 3 {
		partial[c] = make([]float64, nt)
	}
	s.pool.run(nt*3, func(k int) {
		t, c := s.tiles[k/3], k%3
		partial[c][k/3] = jacobi.TileResidual(s.cur[c], s.grad[c], s.mask, t.r0, t.r1, t.c0, t.c1)
	})
	var res backend.Residual
	for c := range 3 {
		res[c] = floats.Sum(partial[c])
	}
	return &backend.Solution{Values: jacobi.GridValues(s.cur), Err: res}, nil
}
