package backend

import (
	"errors"
	"slices"
	"strings"
	"testing"
)

type stubCore struct{ name string }

func (s stubCore) Name() string                { return s.name }
func (s stubCore) Rank() int                   { return 0 }
func (s stubCore) Sync() error                 { return nil }
func (s stubCore) Close() error                { return nil }
func (s stubCore) Reset(*GridProblem) error    { return nil }
func (s stubCore) Step(int) (*Solution, error) { return &Solution{}, nil }

func stubEntry(name string, priority int, probe func() error) Entry {
	return Entry{
		Priority: priority,
		Probe:    probe,
		NewGrid: func(Params) (GridCore, error) {
			return stubCore{name}, nil
		},
	}
}

func TestRegistryPriority(t *testing.T) {
	r := NewRegistry()
	r.Register("slow", stubEntry("slow", 0, nil))
	r.Register("fast", stubEntry("fast", 10, nil))
	r.Register("also-slow", stubEntry("also-slow", 0, nil))

	want := []string{"fast", "also-slow", "slow"}
	if got := r.Available(); !slices.Equal(got, want) {
		t.Errorf("Available() = %v, want %v", got, want)
	}
	if got := r.Default(); got != "fast" {
		t.Errorf("Default() = %q, want %q", got, "fast")
	}
	c, err := r.NewGridCore("slow", Params{})
	if err != nil {
		t.Fatalf("NewGridCore() error = %v", err)
	}
	if c.Name() != "slow" {
		t.Errorf("core Name() = %q, want %q", c.Name(), "slow")
	}
}

func TestRegistryProbeRunsOnce(t *testing.T) {
	r := NewRegistry()
	probeErr := errors.New("no device")
	calls := 0
	r.Register("cuda", stubEntry("cuda", 20, func() error {
		calls++
		return probeErr
	}))
	r.Register("gonum", stubEntry("gonum", 0, nil))

	for range 3 {
		if got := r.Default(); got != "gonum" {
			t.Fatalf("Default() = %q, want gonum", got)
		}
	}
	if calls != 1 {
		t.Errorf("probe ran %d times, want 1", calls)
	}
	if r.IsAvailable("cuda") {
		t.Error("IsAvailable(cuda) = true after failed probe")
	}

	_, err := r.NewGridCore("cuda", Params{})
	var ue *UnavailableBackendError
	if !errors.As(err, &ue) {
		t.Fatalf("NewGridCore(cuda) error = %v, want *UnavailableBackendError", err)
	}
	if !errors.Is(err, ErrBackendNotAvailable) || !errors.Is(err, probeErr) {
		t.Errorf("error %v should wrap ErrBackendNotAvailable and the probe error", err)
	}
	if ue.Family != "cuda" || !strings.Contains(ue.Hint, "CUDA") {
		t.Errorf("Family = %q, Hint = %q", ue.Family, ue.Hint)
	}
}

func TestRegistryMissingLayout(t *testing.T) {
	r := NewRegistry()
	r.Register("gonum", stubEntry("gonum", 0, nil))
	if _, err := r.NewEquCore("gonum", Params{}); !errors.Is(err, ErrBackendNotAvailable) {
		t.Errorf("NewEquCore() error = %v, want ErrBackendNotAvailable", err)
	}
}

func TestRegistryRegisterAfterDiscovery(t *testing.T) {
	r := NewRegistry()
	r.Register("gonum", stubEntry("gonum", 0, nil))
	_ = r.Available()
	defer func() {
		if recover() == nil {
			t.Error("Register after discovery did not panic")
		}
	}()
	r.Register("late", stubEntry("late", 0, nil))
}

func TestRegistryCapabilities(t *testing.T) {
	r := NewRegistry()
	e := stubEntry("taichi-cpu", 0, nil)
	e.Caps.Parallel = true
	r.Register("taichi-cpu", e)
	caps, ok := r.Capabilities("taichi-cpu")
	if !ok {
		t.Fatal("Capabilities() ok = false")
	}
	if caps.Family != "taichi" || !caps.Parallel {
		t.Errorf("Capabilities() = %+v, want taichi family, parallel", caps)
	}
	if _, ok := r.Capabilities("mpi"); ok {
		t.Error("Capabilities(mpi) ok = true for unregistered backend")
	}
}

func TestHint(t *testing.T) {
	tests := []struct {
		name, want string
	}{
		{"mpi", "MPI"},
		{"cuda", "CUDA"},
		{"taichi-gpu", "Taichi"},
		{"openmp", "OpenMP"},
		{"gcc", "C compiler"},
		{"gonum", "gonum"},
		{"unknown-thing", "compiled in"},
	}
	for _, tt := range tests {
		if got := Hint(tt.name); !strings.Contains(got, tt.want) {
			t.Errorf("Hint(%q) = %q, want it to mention %q", tt.name, got, tt.want)
		}
	}
}

func TestEmptyRegistryDefault(t *testing.T) {
	if got := NewRegistry().Default(); got != "" {
		t.Errorf("Default() = %q, want empty", got)
	}
}

func TestParamsWithDefaults(t *testing.T) {
	got := Params{Workers: 3, GridY: -1}.WithDefaults()
	d := DefaultParams()
	if got.Workers != 3 || got.GridY != d.GridY || got.BlockSize != d.BlockSize || got.MinInterval != 100 {
		t.Errorf("WithDefaults() = %+v", got)
	}
}

func TestResidual(t *testing.T) {
	r := Residual{1, 5, 2}
	if r.Sum() != 8 || r.Max() != 5 {
		t.Errorf("Sum() = %v, Max() = %v, want 8, 5", r.Sum(), r.Max())
	}
}

func TestRowMajorPartition(t *testing.T) {
	mask := []int32{
		0, 1, 0,
		1, 1, 0,
	}
	want := []int32{0, 1, 0, 2, 3, 0}
	if got := RowMajorPartition(mask, 2, 3); !slices.Equal(got, want) {
		t.Errorf("RowMajorPartition() = %v, want %v", got, want)
	}
}

func TestValidate(t *testing.T) {
	good := &EquProblem{N: 2, A: make([][4]int32, 2), X: make([]float32, 6), B: make([]float32, 6)}
	if err := ValidateEqu(good); err != nil {
		t.Errorf("ValidateEqu(good) = %v", err)
	}
	bad := &EquProblem{N: 2, A: [][4]int32{{}, {2, 0, 0, 0}}, X: make([]float32, 6), B: make([]float32, 6)}
	if err := ValidateEqu(bad); !errors.Is(err, ErrInvalidProblem) {
		t.Errorf("ValidateEqu(out of range id) = %v, want ErrInvalidProblem", err)
	}
	edge := &GridProblem{N: 4, Rows: 2, Cols: 2, Mask: []int32{1, 0, 0, 0}, Tgt: make([]float32, 12), Grad: make([]float32, 12)}
	if err := ValidateGrid(edge); !errors.Is(err, ErrInvalidProblem) {
		t.Errorf("ValidateGrid(unknown at edge) = %v, want ErrInvalidProblem", err)
	}
}
