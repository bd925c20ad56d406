package gbm

import (
	"errors"
	"fmt"

	"deedles.dev/kms/drm"
)

type dumbBO struct {
	*drm.Dumb
}

func (bo dumbBO) Handle() uint32 { return bo.Dumb.Handle }
func (bo dumbBO) Stride() uint32 { return bo.Dumb.Pitch }

// DumbAllocator alternates between two CPU-mapped dumb buffers. It is
// used when there is no GPU to render with.
type DumbAllocator struct {
	bufs [2]*drm.Dumb
	back int
}

func NewDumbAllocator(dev drm.Device, width, height uint32) (*DumbAllocator, error) {
	var a DumbAllocator
	for i := range a.bufs {
		d, err := dev.CreateDumb(width, height, 32)
		if err != nil {
			a.Destroy()
			return nil, fmt.Errorf("create dumb buffer %v: %w", i, err)
		}
		a.bufs[i] = d
	}
	return &a, nil
}

// Back returns the buffer to render the next frame into.
func (a *DumbAllocator) Back() *drm.Dumb {
	return a.bufs[a.back]
}

func (a *DumbAllocator) LockFront() (BO, error) {
	d := a.bufs[a.back]
	if d == nil {
		return nil, errors.New("allocator destroyed")
	}
	a.back ^= 1
	return dumbBO{d}, nil
}

func (a *DumbAllocator) Release(BO) {}

func (a *DumbAllocator) Destroy() {
	for i, d := range a.bufs {
		if d != nil {
			d.Destroy()
			a.bufs[i] = nil
		}
	}
}
