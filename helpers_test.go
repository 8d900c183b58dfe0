package pie

import (
	"image"
	"math"
	"testing"
)

// filled returns a 3-channel image with every channel set to f(x, y).
func filled(w, h int, f func(x, y int) float32) *Image {
	img := NewImage(w, h, 3)
	for y := range h {
		for x := range w {
			px := img.px(image.Pt(x, y))
			v := f(x, y)
			px[0], px[1], px[2] = v, v, v
		}
	}
	return img
}

func constant(v float32) func(x, y int) float32 {
	return func(int, int) float32 { return v }
}

func quadratic(x, y int) float32 {
	return float32(x*x + y*y)
}

// maskOf builds a single-channel mask image from rows of '#' (255) and '.' (0).
func maskOf(rows ...string) *Image {
	img := NewImage(len(rows[0]), len(rows), 1)
	for y, r := range rows {
		for x, ch := range r {
			if ch == '#' {
				img.Pix[y*img.W+x] = 255
			}
		}
	}
	return img
}

// assertOnlyChanged fails if any pixel outside region differs between got and want.
func assertOnlyChanged(t *testing.T, got, want *Image, region image.Rectangle) {
	t.Helper()
	for y := range want.H {
		for x := range want.W {
			if image.Pt(x, y).In(region) {
				continue
			}
			g, w := got.At(y, x), want.At(y, x)
			for c := range g {
				if g[c] != w[c] {
					t.Fatalf("pixel (row %d, col %d) changed: got %v, want %v", y, x, g, w)
				}
			}
		}
	}
}

func near(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}
