package shmimage

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestARGB8888RoundTrip(t *testing.T) {
	img := NewARGB8888(image.Rect(0, 0, 2, 2))
	img.Set(1, 1, color.RGBA{R: 0x80, G: 0x40, B: 0x20, A: 0x80})

	assert.Equal(t, NewARGB8888Color(0x80, 0x40, 0x20, 0x80), img.ARGB8888At(1, 1))
	assert.Equal(t, ARGB8888Color(0), img.ARGB8888At(0, 0))
	assert.Equal(t, ARGB8888Color(0), img.ARGB8888At(5, 5), "out of bounds")
}

func TestARGB8888Stride(t *testing.T) {
	img := &ARGB8888{
		Pix:    make([]byte, 3*16),
		Stride: 16,
		Rect:   image.Rect(0, 0, 2, 3),
	}
	img.Set(1, 2, color.White)
	assert.Equal(t, []byte{0xFF, 0xFF, 0xFF, 0xFF}, img.Pix[2*16+4:2*16+8])
}

func TestXRGB8888IsOpaque(t *testing.T) {
	img := &XRGB8888{ARGB8888: *NewARGB8888(image.Rect(0, 0, 1, 1))}
	copy(img.Pix, []byte{0x10, 0x20, 0x30, 0x00})

	_, _, _, a := img.At(0, 0).RGBA()
	assert.Equal(t, uint32(0xFFFF), a)

	sub := img.SubImage(image.Rect(0, 0, 1, 1))
	_, _, _, a = sub.At(0, 0).RGBA()
	assert.Equal(t, uint32(0xFFFF), a)
}
