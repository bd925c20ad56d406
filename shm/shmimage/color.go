package shmimage

import "image/color"

// ARGB8888Color is a premultiplied 32-bit color as stored by wl_shm
// and DRM ARGB8888 buffers.
type ARGB8888Color uint32

// NewARGB8888Color builds a color from premultiplied components.
func NewARGB8888Color(r, g, b, a uint8) ARGB8888Color {
	return ARGB8888Color((uint32(a) << 24) | (uint32(r) << 16) | (uint32(g) << 8) | uint32(b))
}

func (c ARGB8888Color) RGBA() (r, g, b, a uint32) {
	r = uint32(c.r()) * 0x101
	g = uint32(c.g()) * 0x101
	b = uint32(c.b()) * 0x101
	a = uint32(c.a()) * 0x101
	return
}

func (c ARGB8888Color) r() uint8 {
	return uint8((c & 0x00FF0000) >> 16)
}

func (c ARGB8888Color) g() uint8 {
	return uint8((c & 0x0000FF00) >> 8)
}

func (c ARGB8888Color) b() uint8 {
	return uint8(c & 0x000000FF)
}

func (c ARGB8888Color) a() uint8 {
	return uint8((c & 0xFF000000) >> 24)
}

var ARGB8888Model color.Model = color.ModelFunc(argb8888Model)

func argb8888Model(c color.Color) color.Color {
	if c, ok := c.(ARGB8888Color); ok {
		return c
	}

	r, g, b, a := c.RGBA()
	return NewARGB8888Color(uint8(r>>8), uint8(g>>8), uint8(b>>8), uint8(a>>8))
}
