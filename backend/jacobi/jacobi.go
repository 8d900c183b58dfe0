// Package jacobi is the reference solver backend. It runs plain Jacobi
// relaxation on gonum matrices, needs nothing beyond pure Go, and is
// therefore always available. It registers itself as "gonum".
package jacobi

import (
	"github.com/setanarut/pie/backend"
)

// Name is the registry name of this backend.
const Name = "gonum"

func init() {
	backend.Register(Name, backend.Entry{
		Priority: 0,
		Caps:     backend.Caps{Family: "gonum", Device: "cpu"},
		NewEqu: func(backend.Params) (backend.EquCore, error) {
			return NewEquSolver(), nil
		},
		NewGrid: func(backend.Params) (backend.GridCore, error) {
			return NewGridSolver(), nil
		},
	})
}

// single-process cores share these.
type local struct{}

func (local) Name() string { return Name }
func (local) Rank() int    { return 0 }
func (local) Sync() error  { return nil }
func (local) Close() error { return nil }
