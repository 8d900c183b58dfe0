package backend

import "math"

// Core is the part of the solver contract shared by both problem layouts.
type Core interface {
	// Name returns the backend identifier the core was built for.
	Name() string

	// Rank is 0 for single-process backends. Only rank 0 holds images.
	Rank() int

	// Sync is a barrier/flush. Most backends treat it as a no-op.
	Sync() error

	// Close releases worker resources. The core must not be used afterwards.
	Close() error
}

// EquCore solves a problem expressed as a flat list of unknowns with a
// 4-neighbor adjacency table.
type EquCore interface {
	Core

	// Partition assigns ids to the mask-true cells of a rows x cols mask.
	// The result has one entry per cell; mask-true cells must receive a
	// unique id in [1, n] where n is the number of true cells. Entries of
	// mask-false cells are ignored.
	Partition(mask []int32, rows, cols int) []int32

	Reset(p *EquProblem) error

	// Step advances the solver by iteration Jacobi sweeps. It returns
	// (nil, nil) on non-root ranks.
	Step(iteration int) (*Solution, error)
}

// GridCore solves a problem expressed directly on a dense 2D crop.
type GridCore interface {
	Core
	Reset(p *GridProblem) error
	Step(iteration int) (*Solution, error)
}

// EquProblem is the index-graph form of a blend.
type EquProblem struct {
	// N is max_id: unknown count + 1. Row 0 is the constant slot.
	N int
	// A holds the up, down, left, right neighbor ids of each unknown.
	// A neighbor id of 0 marks a fixed boundary value already folded into B.
	A [][4]int32
	// X is the initial guess, N*3 interleaved.
	X []float32
	// B is the right-hand side, N*3 interleaved.
	B []float32
}

// GridProblem is the dense-crop form of a blend.
type GridProblem struct {
	N          int // Rows * Cols
	Rows, Cols int
	Mask       []int32   // Rows*Cols, 1 = unknown
	Tgt        []float32 // Rows*Cols*3, initial patch and boundary values
	Grad       []float32 // Rows*Cols*3, zero where Mask is 0
}

// Solution is what Step returns on the root rank.
type Solution struct {
	// Values is N*3 (index mode, including row 0) or Rows*Cols*3 (grid mode),
	// clipped to [0,255].
	Values []float32
	Err    Residual
}

// Residual is the per-channel sum of absolute equation residuals.
type Residual [3]float64

// Sum returns the residual summed over channels.
func (r Residual) Sum() float64 {
	return r[0] + r[1] + r[2]
}

// Max returns the largest per-channel residual.
func (r Residual) Max() float64 {
	return math.Max(r[0], math.Max(r[1], r[2]))
}

// Clip255 clamps v in place to [0,255].
func Clip255(v []float32) {
	for i, x := range v {
		if x < 0 {
			v[i] = 0
		} else if x > 255 {
			v[i] = 255
		}
	}
}

// RowMajorPartition numbers mask-true cells 1..n in row-major order.
func RowMajorPartition(mask []int32, rows, cols int) []int32 {
	ids := make([]int32, rows*cols)
	var cnt int32
	for i := range rows * cols {
		if mask[i] > 0 {
			cnt++
			ids[i] = cnt
		}
	}
	return ids
}
