package jacobi

import (
	"math"

	"github.com/setanarut/pie/backend"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// EquSolver relaxes X_i <- (B_i + sum of X over the 4 neighbors of i) / 4.
// X and B are N x 3 matrices; row 0 is the constant slot and stays 0.
type EquSolver struct {
	local
	n       int
	a       [][4]int32
	x, next *mat.Dense
	b       *mat.Dense
}

func NewEquSolver() *EquSolver {
	return &EquSolver{}
}

func (s *EquSolver) Partition(mask []int32, rows, cols int) []int32 {
	return backend.RowMajorPartition(mask, rows, cols)
}

func (s *EquSolver) Reset(p *backend.EquProblem) error {
	if err := backend.ValidateEqu(p); err != nil {
		return err
	}
	s.n = p.N
	s.a = p.A
	s.x, s.b = NewEquMatrices(p)
	s.next = mat.NewDense(p.N, 3, nil)
	return nil
}

func (s *EquSolver) Step(iteration int) (*backend.Solution, error) {
	if s.x == nil {
		return nil, backend.ErrNotReset
	}
	for range iteration {
		RelaxRows(s.next, s.x, s.b, s.a, 0, s.n)
		s.x, s.next = s.next, s.x
	}
	res := RowsResidual(s.x, s.b, s.a, 0, s.n)
	return &backend.Solution{Values: Values(s.x), Err: res}, nil
}

// RelaxRows writes one Jacobi sweep of x into next for rows [lo,hi).
func RelaxRows(next, x, b *mat.Dense, a [][4]int32, lo, hi int) {
	for i := lo; i < hi; i++ {
		row := next.RawRowView(i)
		copy(row, b.RawRowView(i))
		for _, nb := range a[i] {
			floats.Add(row, x.RawRowView(int(nb)))
		}
		floats.Scale(0.25, row)
	}
}

// RowsResidual sums |B_i + sum of neighbor X - 4 X_i| per channel over rows [lo,hi).
func RowsResidual(x, b *mat.Dense, a [][4]int32, lo, hi int) backend.Residual {
	var res backend.Residual
	tmp := make([]float64, 3)
	for i := lo; i < hi; i++ {
		copy(tmp, b.RawRowView(i))
		for _, nb := range a[i] {
			floats.Add(tmp, x.RawRowView(int(nb)))
		}
		floats.AddScaled(tmp, -4, x.RawRowView(i))
		for c := range 3 {
			res[c] += math.Abs(tmp[c])
		}
	}
	return res
}

// NewEquMatrices converts a validated problem into X and B matrices.
func NewEquMatrices(p *backend.EquProblem) (x, b *mat.Dense) {
	return mat.NewDense(p.N, 3, toFloat64(p.X)), mat.NewDense(p.N, 3, toFloat64(p.B))
}

// Values flattens x to float32 clipped to [0,255].
func Values(x *mat.Dense) []float32 {
	v := toFloat32(x.RawMatrix().Data)
	backend.Clip255(v)
	return v
}

func toFloat64(v []float32) []float64 {
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = float64(x)
	}
	return out
}

func toFloat32(v []float64) []float32 {
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(x)
	}
	return out
}
