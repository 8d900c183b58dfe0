package parallel

import (
	"math"
	"math/rand/v2"
	"slices"
	"testing"

	"github.com/setanarut/pie/backend"
	"github.com/setanarut/pie/backend/jacobi"
)

// blob returns a rows x cols mask with a random interior and a zero border.
func blob(rows, cols int, rng *rand.Rand) []int32 {
	mask := make([]int32, rows*cols)
	for i := 1; i < rows-1; i++ {
		for j := 1; j < cols-1; j++ {
			if rng.IntN(4) > 0 {
				mask[i*cols+j] = 1
			}
		}
	}
	return mask
}

func TestPartitionIsBijection(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	rows, cols := 23, 17
	mask := blob(rows, cols, rng)
	s := NewEquSolver(backend.Params{GridX: 4, GridY: 3})
	ids := s.Partition(mask, rows, cols)

	n := 0
	for _, v := range mask {
		n += int(v)
	}
	seen := make([]bool, n+1)
	for i, id := range ids {
		if mask[i] == 0 {
			if id != 0 {
				t.Fatalf("cell %d outside mask got id %d", i, id)
			}
			continue
		}
		if id < 1 || int(id) > n || seen[id] {
			t.Fatalf("cell %d got invalid or duplicate id %d", i, id)
		}
		seen[id] = true
	}
	if slices.Equal(ids, backend.RowMajorPartition(mask, rows, cols)) {
		t.Error("tiled partition should differ from row-major order for this mask")
	}
}

// problemFrom builds an index-graph problem over mask with random data.
func problemFrom(mask []int32, rows, cols int, ids []int32, rng *rand.Rand) *backend.EquProblem {
	n := 1
	for _, v := range mask {
		n += int(v)
	}
	p := &backend.EquProblem{N: n, A: make([][4]int32, n), X: make([]float32, n*3), B: make([]float32, n*3)}
	offsets := [4]int{-cols, cols, -1, 1}
	for i, v := range mask {
		if v == 0 {
			continue
		}
		id := ids[i]
		for k, o := range offsets {
			if mask[i+o] != 0 {
				p.A[id][k] = ids[i+o]
			}
		}
		for c := range 3 {
			p.X[int(id)*3+c] = float32(rng.IntN(256))
			p.B[int(id)*3+c] = float32(rng.IntN(200))
		}
	}
	return p
}

func TestEquSolverMatchesReference(t *testing.T) {
	rng := rand.New(rand.NewPCG(3, 4))
	rows, cols := 30, 41
	mask := blob(rows, cols, rng)
	par := NewEquSolver(backend.Params{Workers: 4, BlockSize: 37})
	ids := par.Partition(mask, rows, cols)
	p := problemFrom(mask, rows, cols, ids, rng)

	ref := jacobi.NewEquSolver()
	if err := ref.Reset(p); err != nil {
		t.Fatalf("reference Reset() error = %v", err)
	}
	if err := par.Reset(p); err != nil {
		t.Fatalf("Reset() error = %v", err)
	}
	want, err := ref.Step(25)
	if err != nil {
		t.Fatalf("reference Step() error = %v", err)
	}
	got, err := par.Step(25)
	if err != nil {
		t.Fatalf("Step() error = %v", err)
	}
	if !slices.Equal(got.Values, want.Values) {
		t.Error("parallel values differ from reference")
	}
	for c := range 3 {
		if math.Abs(got.Err[c]-want.Err[c]) > 1e-6*math.Max(1, want.Err[c]) {
			t.Errorf("Err[%d] = %v, want %v", c, got.Err[c], want.Err[c])
		}
	}
}

func TestGridSolverMatchesReference(t *testing.T) {
	rng := rand.New(rand.NewPCG(5, 6))
	rows, cols := 19, 26
	p := &backend.GridProblem{
		N: rows * cols, Rows: rows, Cols: cols,
		Mask: blob(rows, cols, rng),
		Tgt:  make([]float32, rows*cols*3),
		Grad: make([]float32, rows*cols*3),
	}
	for i := range p.Tgt {
		p.Tgt[i] = float32(rng.IntN(256))
		if p.Mask[i/3] != 0 {
			p.Grad[i] = float32(rng.IntN(41) - 20)
		}
	}

	ref := jacobi.NewGridSolver()
	par := NewGridSolver(backend.Params{Workers: 3, GridX: 5, GridY: 7})
	if err := ref.Reset(p); err != nil {
		t.Fatalf("reference Reset() error = %v", err)
	}
	if err := par.Reset(p); err != nil {
		t.Fatalf("Reset() error = %v", err)
	}
	for _, iters := range []int{0, 1, 30} {
		want, err := ref.Step(iters)
		if err != nil {
			t.Fatalf("reference Step() error = %v", err)
		}
		got, err := par.Step(iters)
		if err != nil {
			t.Fatalf("Step() error = %v", err)
		}
		if !slices.Equal(got.Values, want.Values) {
			t.Errorf("after %d more iterations parallel values differ from reference", iters)
		}
		for c := range 3 {
			if math.Abs(got.Err[c]-want.Err[c]) > 1e-6*math.Max(1, want.Err[c]) {
				t.Errorf("Err[%d] = %v, want %v", c, got.Err[c], want.Err[c])
			}
		}
	}
}

func TestNoParallelEnv(t *testing.T) {
	tests := []struct {
		val  string
		want bool
	}{
		{"", false},
		{"0", false},
		{"false", false},
		{"1", true},
		{"true", true},
		{"yes", true},
	}
	for _, tt := range tests {
		t.Setenv(EnvNoParallel, tt.val)
		if got := noParallelEnv(); got != tt.want {
			t.Errorf("noParallelEnv() with %q = %v, want %v", tt.val, got, tt.want)
		}
	}
	t.Setenv(EnvNoParallel, "1")
	if err := probe(); err == nil {
		t.Error("probe() = nil with PIE_NO_PARALLEL=1")
	}
}

func TestCapabilities(t *testing.T) {
	caps, ok := backend.DefaultRegistry().Capabilities(Name)
	if !ok {
		t.Skip("parallel backend not discovered on this machine")
	}
	if !caps.Parallel || caps.Family != "parallel" || caps.Device != "cpu" {
		t.Errorf("Capabilities() = %+v", caps)
	}
}
