package pie

import (
	"fmt"
	"image"
	"image/color"

	"github.com/lucasb-eyer/go-colorful"
)

// Image is a row-major, channel-interleaved float image with samples in
// [0,255]. C is 1 or 3.
type Image struct {
	W, H, C int
	Pix     []float32 // len = W*H*C
}

func NewImage(w, h, c int) *Image {
	return &Image{W: w, H: h, C: c, Pix: make([]float32, w*h*c)}
}

// FromImage converts img to a 3-channel Image. Fully transparent pixels
// become black.
func FromImage(img image.Image) *Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	out := NewImage(w, h, 3)
	for y := range h {
		for x := range w {
			col, ok := colorful.MakeColor(img.At(b.Min.X+x, b.Min.Y+y))
			if !ok {
				continue
			}
			o := out.offset(image.Pt(x, y))
			out.Pix[o] = float32(col.R * 255)
			out.Pix[o+1] = float32(col.G * 255)
			out.Pix[o+2] = float32(col.B * 255)
		}
	}
	return out
}

// RGBA converts m back to an 8-bit opaque image, clamping samples.
func (m *Image) RGBA() *image.RGBA {
	out := image.NewRGBA(image.Rect(0, 0, m.W, m.H))
	for y := range m.H {
		for x := range m.W {
			px := m.px(image.Pt(x, y))
			var col colorful.Color
			if m.C == 1 {
				col = colorful.Color{R: float64(px[0]) / 255, G: float64(px[0]) / 255, B: float64(px[0]) / 255}
			} else {
				col = colorful.Color{R: float64(px[0]) / 255, G: float64(px[1]) / 255, B: float64(px[2]) / 255}
			}
			r, g, b := col.Clamped().RGB255()
			out.SetRGBA(x, y, color.RGBA{R: r, G: g, B: b, A: 255})
		}
	}
	return out
}

func (m *Image) Clone() *Image {
	pix := make([]float32, len(m.Pix))
	copy(pix, m.Pix)
	return &Image{W: m.W, H: m.H, C: m.C, Pix: pix}
}

// At returns the channels of the pixel at row, col. The slice aliases Pix.
func (m *Image) At(row, col int) []float32 {
	return m.px(image.Pt(col, row))
}

func (m *Image) Bounds() image.Rectangle {
	return image.Rect(0, 0, m.W, m.H)
}

func (m *Image) offset(p image.Point) int {
	return (p.Y*m.W + p.X) * m.C
}

func (m *Image) px(p image.Point) []float32 {
	o := m.offset(p)
	return m.Pix[o : o+m.C : o+m.C]
}

func (m *Image) validate(name string, channels int) error {
	if m == nil {
		return fmt.Errorf("%w: %s is nil", ErrInvalidImage, name)
	}
	if m.W <= 0 || m.H <= 0 || len(m.Pix) != m.W*m.H*m.C {
		return fmt.Errorf("%w: %s has shape %dx%dx%d and %d samples",
			ErrInvalidImage, name, m.H, m.W, m.C, len(m.Pix))
	}
	if channels != 0 && m.C != channels {
		return fmt.Errorf("%w: %s has %d channels, want %d", ErrInvalidImage, name, m.C, channels)
	}
	if m.C != 1 && m.C != 3 {
		return fmt.Errorf("%w: %s has %d channels", ErrInvalidImage, name, m.C)
	}
	return nil
}

// Mask is a binary 0/1 grid. 1 marks an unknown.
type Mask struct {
	W, H int
	Pix  []int32 // len = W*H
}

func (m *Mask) At(row, col int) int32 {
	return m.Pix[row*m.W+col]
}

func (m *Mask) at(p image.Point) int32 {
	return m.Pix[p.Y*m.W+p.X]
}

// Count returns the number of unknowns.
func (m *Mask) Count() int {
	n := 0
	for _, v := range m.Pix {
		if v != 0 {
			n++
		}
	}
	return n
}
