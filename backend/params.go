package backend

import "runtime"

// Params are the construction parameters a backend may use. Backends ignore
// the fields they have no use for.
type Params struct {
	// Number of worker goroutines for parallel backends.
	Workers int
	// Minimum number of iterations between synchronizations for
	// distributed backends.
	MinInterval int
	// Work items per scheduling block.
	BlockSize int
	// Grid tiling factors: tile height and width in cells.
	GridX, GridY int
}

func DefaultParams() Params {
	return Params{
		Workers:     runtime.NumCPU(),
		MinInterval: 100,
		BlockSize:   1024,
		GridX:       8,
		GridY:       8,
	}
}

// WithDefaults returns p with every non-positive field replaced by its default.
func (p Params) WithDefaults() Params {
	d := DefaultParams()
	if p.Workers <= 0 {
		p.Workers = d.Workers
	}
	if p.MinInterval <= 0 {
		p.MinInterval = d.MinInterval
	}
	if p.BlockSize <= 0 {
		p.BlockSize = d.BlockSize
	}
	if p.GridX <= 0 {
		p.GridX = d.GridX
	}
	if p.GridY <= 0 {
		p.GridY = d.GridY
	}
	return p
}
