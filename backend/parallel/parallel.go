// Package parallel is a multi-core solver backend. Each Jacobi sweep is
// split into blocks of unknowns (or tiles of the grid) and run on a bounded
// pool of goroutines. It registers itself as "parallel" with a higher
// priority than the reference backend.
package parallel

import (
	"errors"
	"os"
	"runtime"
	"strconv"

	"github.com/setanarut/pie/backend"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sys/cpu"
)

// Name is the registry name of this backend.
const Name = "parallel"

// EnvNoParallel disables the backend at discovery when set to a true value.
const EnvNoParallel = "PIE_NO_PARALLEL"

var (
	errDisabled  = errors.New("disabled by " + EnvNoParallel)
	errSingleCPU = errors.New("only one CPU available")
)

func init() {
	backend.Register(Name, backend.Entry{
		Priority: 10,
		Caps: backend.Caps{
			Family:   "parallel",
			Parallel: true,
			Device:   "cpu",
			Features: Features(),
		},
		Probe: probe,
		NewEqu: func(p backend.Params) (backend.EquCore, error) {
			return NewEquSolver(p), nil
		},
		NewGrid: func(p backend.Params) (backend.GridCore, error) {
			return NewGridSolver(p), nil
		},
	})
}

func probe() error {
	if noParallelEnv() {
		return errDisabled
	}
	if runtime.NumCPU() < 2 {
		return errSingleCPU
	}
	return nil
}

// noParallelEnv reports whether PIE_NO_PARALLEL is set. Any non-empty value
// that does not parse as a bool counts as true.
func noParallelEnv() bool {
	val := os.Getenv(EnvNoParallel)
	if val == "" {
		return false
	}
	if b, err := strconv.ParseBool(val); err == nil {
		return b
	}
	return true
}

// Features lists the SIMD features of the running CPU.
func Features() []string {
	var f []string
	if cpu.X86.HasAVX2 {
		f = append(f, "avx2")
	}
	if cpu.X86.HasFMA {
		f = append(f, "fma")
	}
	if cpu.X86.HasAVX512F {
		f = append(f, "avx512f")
	}
	if cpu.ARM64.HasASIMD {
		f = append(f, "asimd")
	}
	if cpu.ARM64.HasSVE {
		f = append(f, "sve")
	}
	return f
}

// pool runs fn over work items on at most workers goroutines.
type pool struct {
	workers int
}

func (p pool) run(n int, fn func(i int)) {
	var g errgroup.Group
	g.SetLimit(p.workers)
	for i := range n {
		g.Go(func() error {
			fn(i)
			return nil
		})
	}
	_ = g.Wait()
}

type local struct{}

func (local) Name() string { return Name }
func (local) Rank() int    { return 0 }
func (local) Sync() error  { return nil }
func (local) Close() error { return nil }
