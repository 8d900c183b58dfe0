package jacobi

import (
	"math"

	"github.com/setanarut/pie/backend"
	"gonum.org/v1/gonum/mat"
)

// GridSolver relaxes the masked cells of a dense crop, one Rows x Cols
// matrix per channel. Unmasked cells hold fixed boundary values.
type GridSolver struct {
	local
	rows, cols int
	mask       []int32
	cur, next  [3]*mat.Dense
	grad       [3]*mat.Dense
}

func NewGridSolver() *GridSolver {
	return &GridSolver{}
}

func (s *GridSolver) Reset(p *backend.GridProblem) error {
	if err := backend.ValidateGrid(p); err != nil {
		return err
	}
	s.rows, s.cols = p.Rows, p.Cols
	s.mask = p.Mask
	s.cur, s.next, s.grad = NewGridMatrices(p)
	return nil
}

func (s *GridSolver) Step(iteration int) (*backend.Solution, error) {
	if s.cur[0] == nil {
		return nil, backend.ErrNotReset
	}
	for range iteration {
		for c := range 3 {
			RelaxTile(s.next[c], s.cur[c], s.grad[c], s.mask, 0, s.rows, 0, s.cols)
			s.cur[c], s.next[c] = s.next[c], s.cur[c]
		}
	}

	var res backend.Residual
	for c := range 3 {
		res[c] = TileResidual(s.cur[c], s.grad[c], s.mask, 0, s.rows, 0, s.cols)
	}

	values := GridValues(s.cur)
	return &backend.Solution{Values: values, Err: res}, nil
}

// RelaxTile writes one Jacobi sweep of src into dst over rows [r0,r1) and
// columns [c0,c1). Masked cells never sit on the matrix edge.
func RelaxTile(dst, src, grad *mat.Dense, mask []int32, r0, r1, c0, c1 int) {
	d, s, g := dst.RawMatrix(), src.RawMatrix(), grad.RawMatrix()
	cols := s.Cols
	for i := r0; i < r1; i++ {
		for j := c0; j < c1; j++ {
			o := i*s.Stride + j
			if mask[i*cols+j] == 0 {
				d.Data[i*d.Stride+j] = s.Data[o]
				continue
			}
			sum := g.Data[i*g.Stride+j] + s.Data[o-s.Stride] + s.Data[o+s.Stride] + s.Data[o-1] + s.Data[o+1]
			d.Data[i*d.Stride+j] = sum / 4
		}
	}
}

// TileResidual sums |4x - grad - neighbors| over masked cells of a tile.
func TileResidual(x, grad *mat.Dense, mask []int32, r0, r1, c0, c1 int) float64 {
	s, g := x.RawMatrix(), grad.RawMatrix()
	cols := s.Cols
	var err float64
	for i := r0; i < r1; i++ {
		for j := c0; j < c1; j++ {
			if mask[i*cols+j] == 0 {
				continue
			}
			o := i*s.Stride + j
			r := 4*s.Data[o] - g.Data[i*g.Stride+j] - s.Data[o-s.Stride] - s.Data[o+s.Stride] - s.Data[o-1] - s.Data[o+1]
			err += math.Abs(r)
		}
	}
	return err
}

// NewGridMatrices splits a validated problem into per-channel matrices:
// the current patch, a scratch copy of it, and the gradient field.
func NewGridMatrices(p *backend.GridProblem) (cur, next, grad [3]*mat.Dense) {
	for c := range 3 {
		cur[c] = mat.NewDense(p.Rows, p.Cols, channel(p.Tgt, c))
		grad[c] = mat.NewDense(p.Rows, p.Cols, channel(p.Grad, c))
		next[c] = mat.DenseCopyOf(cur[c])
	}
	return cur, next, grad
}

// GridValues interleaves per-channel matrices into a float32 buffer
// clipped to [0,255].
func GridValues(cur [3]*mat.Dense) []float32 {
	rows, cols := cur[0].Dims()
	values := make([]float32, rows*cols*3)
	for c := range 3 {
		raw := cur[c].RawMatrix()
		for i := range rows {
			for j := range cols {
				values[(i*cols+j)*3+c] = float32(raw.Data[i*raw.Stride+j])
			}
		}
	}
	backend.Clip255(values)
	return values
}

// channel extracts channel c of an interleaved 3-channel buffer.
func channel(v []float32, c int) []float64 {
	out := make([]float64, len(v)/3)
	for i := range out {
		out[i] = float64(v[i*3+c])
	}
	return out
}
