//go:build !(linux && cgo)

package gles

import (
	"deedles.dev/kms/buffer"
	"deedles.dev/kms/fbdev"
	"deedles.dev/kms/gbm"
	"deedles.dev/kms/render"
)

type Backend struct{}

func New(dev *fbdev.Device) (*Backend, error) {
	return nil, ErrUnavailable
}

func (b *Backend) Name() string { return "gles" }
func (b *Backend) Destroy()     {}

func (b *Backend) BindWaylandDisplay() error { return ErrUnavailable }

func (b *Backend) Upload(prev render.Texture, buf buffer.Buffer) (render.Texture, error) {
	return prev, ErrUnavailable
}

func (b *Backend) NewTarget(width, height uint32) (gbm.Allocator, render.Output, error) {
	return nil, nil, ErrUnavailable
}
