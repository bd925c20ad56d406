// Package soft is a render backend that composites on the CPU into
// dumb buffers.
package soft

import (
	"fmt"
	"image"

	"deedles.dev/kms/buffer"
	"deedles.dev/kms/drm"
	"deedles.dev/kms/gbm"
	"deedles.dev/kms/render"
	"golang.org/x/image/draw"
)

type Backend struct {
	dev drm.Device
}

func New(dev drm.Device) *Backend {
	return &Backend{dev: dev}
}

func (b *Backend) Name() string { return "software" }

func (b *Backend) Destroy() {}

type texture struct {
	raw *buffer.Raw
	img draw.Image
}

func (t *texture) Size() image.Point {
	return image.Pt(t.raw.Width(), t.raw.Height())
}

func (t *texture) Destroy() {
	t.raw = nil
	t.img = nil
}

func (b *Backend) Upload(prev render.Texture, buf buffer.Buffer) (render.Texture, error) {
	switch buf.Format() {
	case buffer.ARGB8888, buffer.XRGB8888:
	default:
		return prev, fmt.Errorf("upload %v: %w", buf.Format(), render.ErrFormat)
	}

	tex, ok := prev.(*texture)
	if !ok || tex.raw == nil || tex.raw.Width() != buf.Width() || tex.raw.Height() != buf.Height() || tex.raw.Format() != buf.Format() {
		if prev != nil {
			prev.Destroy()
		}
		raw := buffer.NewRaw(buf.Width(), buf.Height(), buf.Format())
		tex = &texture{raw: raw, img: buffer.View(raw)}
	}

	buffer.Copy(tex.raw, buf)
	return tex, nil
}

func (b *Backend) NewTarget(width, height uint32) (gbm.Allocator, render.Output, error) {
	alloc, err := gbm.NewDumbAllocator(b.dev, width, height)
	if err != nil {
		return nil, nil, err
	}
	return alloc, &Output{alloc: alloc}, nil
}

// Output renders into the back buffer of a DumbAllocator.
type Output struct {
	alloc  *gbm.DumbAllocator
	target draw.Image
}

func (out *Output) Begin() error {
	back := out.alloc.Back()
	if back == nil {
		return fmt.Errorf("render target destroyed")
	}
	out.target = buffer.View(back)
	draw.Draw(out.target, out.target.Bounds(), image.NewUniform(render.Background), image.Point{}, draw.Src)
	return nil
}

func (out *Output) Draw(tex render.Texture, r image.Rectangle) {
	t, ok := tex.(*texture)
	if !ok || t.img == nil || out.target == nil {
		return
	}

	op := draw.Over
	if t.raw.Format().Opaque() {
		op = draw.Src
	}

	if r.Size() == t.Size() {
		draw.Draw(out.target, r, t.img, image.Point{}, op)
		return
	}
	draw.ApproxBiLinear.Scale(out.target, r, t.img, t.img.Bounds(), op, nil)
}

func (out *Output) End() error {
	out.target = nil
	return nil
}

func (out *Output) Destroy() {}
