// Package render defines how surface buffers become textures and how
// textures are composited into a monitor's scanout buffers.
package render

import (
	"errors"
	"image"
	"image/color"

	"deedles.dev/kms/buffer"
	"deedles.dev/kms/gbm"
)

// ErrFormat is returned by Upload for buffers in a format the backend
// cannot sample.
var ErrFormat = errors.New("unsupported buffer format")

// Background is the color a frame is cleared to before drawing.
var Background = color.NRGBA{R: 0x33, G: 0x33, B: 0x4c, A: 0xff}

// Texture is a surface buffer in a form the backend can draw.
type Texture interface {
	Size() image.Point
	Destroy()
}

// Renderer turns buffers into textures.
type Renderer interface {
	// Upload copies b into a texture. If prev is a texture from the
	// same Renderer it may be reused and is either returned or
	// destroyed.
	Upload(prev Texture, b buffer.Buffer) (Texture, error)
}

// Output draws one frame at a time into a monitor's render target.
type Output interface {
	Begin() error
	Draw(tex Texture, r image.Rectangle)
	End() error
	Destroy()
}

// Backend is a Renderer that can also create render targets.
type Backend interface {
	Renderer

	Name() string

	// NewTarget creates a width by height render target. The returned
	// allocator provides the buffers that the target's frames end up
	// in.
	NewTarget(width, height uint32) (gbm.Allocator, Output, error)

	Destroy()
}
