package pie

import (
	"fmt"
	"image"
)

// Binarize collapses a 1- or 3-channel mask to 0/1 by thresholding the
// channel mean at 128.
func Binarize(mask *Image) (*Mask, error) {
	if err := mask.validate("mask", 0); err != nil {
		return nil, err
	}
	out := &Mask{W: mask.W, H: mask.H, Pix: make([]int32, mask.W*mask.H)}
	for i := range out.Pix {
		var sum float32
		for c := range mask.C {
			sum += mask.Pix[i*mask.C+c]
		}
		if sum/float32(mask.C) >= 128 {
			out.Pix[i] = 1
		}
	}
	return out, nil
}

// prepareMask binarizes mask, clears its outermost border and crops it to
// the bounding box of the unknowns grown by one cell on each side. It
// returns the crop and the crop's top-left corner in mask coordinates.
func prepareMask(mask *Image) (*Mask, image.Point, error) {
	m, err := Binarize(mask)
	if err != nil {
		return nil, image.Point{}, err
	}

	// zero-out edge
	for x := range m.W {
		m.Pix[x] = 0
		m.Pix[(m.H-1)*m.W+x] = 0
	}
	for y := range m.H {
		m.Pix[y*m.W] = 0
		m.Pix[y*m.W+m.W-1] = 0
	}

	box := image.Rectangle{}
	for y := range m.H {
		for x := range m.W {
			if m.Pix[y*m.W+x] == 0 {
				continue
			}
			cell := image.Rect(x, y, x+1, y+1)
			if box.Empty() {
				box = cell
			} else {
				box = box.Union(cell)
			}
		}
	}
	if box.Empty() {
		return nil, image.Point{}, &InvalidMaskError{Reason: "no pixels inside the mask border"}
	}
	box = box.Inset(-1)

	crop := &Mask{W: box.Dx(), H: box.Dy(), Pix: make([]int32, box.Dx()*box.Dy())}
	for y := range crop.H {
		copy(crop.Pix[y*crop.W:(y+1)*crop.W], m.Pix[(box.Min.Y+y)*m.W+box.Min.X:])
	}
	return crop, box.Min, nil
}

// checkPlacement verifies that a crop of size w x h placed at off lies
// inside img.
func checkPlacement(name string, img *Image, off image.Point, w, h int) error {
	r := image.Rect(off.X, off.Y, off.X+w, off.Y+h)
	if !r.In(img.Bounds()) {
		return &InvalidMaskError{Reason: fmt.Sprintf("region %v falls outside %s bounds %v", r, name, img.Bounds())}
	}
	return nil
}
