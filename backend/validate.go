package backend

import "fmt"

// ValidateEqu checks that p is internally consistent.
func ValidateEqu(p *EquProblem) error {
	if p == nil || p.N < 1 {
		return fmt.Errorf("%w: empty equation problem", ErrInvalidProblem)
	}
	if len(p.A) != p.N || len(p.X) != p.N*3 || len(p.B) != p.N*3 {
		return fmt.Errorf("%w: want %d rows, got A=%d X=%d B=%d",
			ErrInvalidProblem, p.N, len(p.A), len(p.X)/3, len(p.B)/3)
	}
	for i, nbs := range p.A {
		for _, nb := range nbs {
			if nb < 0 || int(nb) >= p.N {
				return fmt.Errorf("%w: row %d references id %d outside [0,%d)",
					ErrInvalidProblem, i, nb, p.N)
			}
		}
	}
	return nil
}

// ValidateGrid checks that p is internally consistent and that no unknown
// touches the crop edge.
func ValidateGrid(p *GridProblem) error {
	if p == nil || p.Rows < 1 || p.Cols < 1 {
		return fmt.Errorf("%w: empty grid problem", ErrInvalidProblem)
	}
	cells := p.Rows * p.Cols
	if p.N != cells || len(p.Mask) != cells || len(p.Tgt) != cells*3 || len(p.Grad) != cells*3 {
		return fmt.Errorf("%w: shape mismatch for %dx%d grid", ErrInvalidProblem, p.Rows, p.Cols)
	}
	for i := range p.Rows {
		for j := range p.Cols {
			if p.Mask[i*p.Cols+j] == 0 {
				continue
			}
			if i == 0 || j == 0 || i == p.Rows-1 || j == p.Cols-1 {
				return fmt.Errorf("%w: unknown at edge cell (%d,%d)", ErrInvalidProblem, i, j)
			}
		}
	}
	return nil
}
