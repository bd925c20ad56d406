package shmimage

import (
	"image"
	"image/color"
	"image/draw"
)

// XRGB8888 is an ARGB8888 image whose padding byte is ignored when
// reading: every pixel is opaque.
type XRGB8888 struct {
	ARGB8888
}

func (p *XRGB8888) ColorModel() color.Model { return XRGB8888Model }

func (p *XRGB8888) At(x, y int) color.Color {
	return p.ARGB8888At(x, y) | 0xFF000000
}

func (p *XRGB8888) Set(x, y int, c color.Color) {
	p.ARGB8888.Set(x, y, XRGB8888Model.Convert(c))
}

func (p *XRGB8888) SubImage(r image.Rectangle) draw.Image {
	sub, ok := p.ARGB8888.SubImage(r).(*ARGB8888)
	if !ok {
		return &XRGB8888{}
	}
	return &XRGB8888{ARGB8888: *sub}
}

var XRGB8888Model color.Model = color.ModelFunc(xrgb8888Model)

func xrgb8888Model(c color.Color) color.Color {
	return argb8888Model(c).(ARGB8888Color) | 0xFF000000
}
