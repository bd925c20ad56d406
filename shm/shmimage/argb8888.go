package shmimage

import (
	"image"
	"image/color"
	"image/draw"

	"deedles.dev/kms/internal/bin"
)

// ARGB8888 is an image over a wl_shm or DRM ARGB8888 buffer. Each pixel
// is a host-order 32-bit word, so the byte order in Pix depends on the
// machine.
type ARGB8888 struct {
	Pix    []uint8
	Stride int
	Rect   image.Rectangle
}

// NewARGB8888 allocates a tightly packed image covering r.
func NewARGB8888(r image.Rectangle) *ARGB8888 {
	return &ARGB8888{
		Pix:    make([]uint8, r.Dx()*r.Dy()*4),
		Stride: 4 * r.Dx(),
		Rect:   r,
	}
}

func (p *ARGB8888) Bounds() image.Rectangle { return p.Rect }
func (p *ARGB8888) ColorModel() color.Model { return ARGB8888Model }

func (p *ARGB8888) At(x, y int) color.Color {
	return p.ARGB8888At(x, y)
}

// ARGB8888At is At without the interface conversion. Points outside of
// the image are transparent.
func (p *ARGB8888) ARGB8888At(x, y int) ARGB8888Color {
	i, ok := p.offset(x, y)
	if !ok {
		return 0
	}
	return ARGB8888Color(bin.Uint32At(p.Pix, i))
}

// PixOffset is the index in Pix of the first byte of the pixel at
// (x, y).
func (p *ARGB8888) PixOffset(x, y int) int {
	return (y-p.Rect.Min.Y)*p.Stride + (x-p.Rect.Min.X)*4
}

func (p *ARGB8888) offset(x, y int) (int, bool) {
	if !image.Pt(x, y).In(p.Rect) {
		return 0, false
	}
	return p.PixOffset(x, y), true
}

func (p *ARGB8888) Set(x, y int, c color.Color) {
	p.SetARGB8888(x, y, ARGB8888Model.Convert(c).(ARGB8888Color))
}

// SetARGB8888 is Set without the color conversion.
func (p *ARGB8888) SetARGB8888(x, y int, c ARGB8888Color) {
	i, ok := p.offset(x, y)
	if !ok {
		return
	}
	word := bin.Bytes(c)
	copy(p.Pix[i:i+4], word[:])
}

// SubImage shares p's pixels. An r that does not overlap p gives an
// empty image.
func (p *ARGB8888) SubImage(r image.Rectangle) draw.Image {
	r = r.Intersect(p.Rect)
	if r.Empty() {
		return &ARGB8888{}
	}
	return &ARGB8888{
		Pix:    p.Pix[p.PixOffset(r.Min.X, r.Min.Y):],
		Stride: p.Stride,
		Rect:   r,
	}
}
