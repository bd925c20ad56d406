// Package gbm manages double-buffered scanout surfaces.
//
// A Surface has two slots. Lock registers the most recently rendered
// buffer object in the current slot as a framebuffer, Flip queues it
// for display, and Release, called once the flip has completed, frees
// the other slot and makes it current. A Surface cannot be locked again
// until the previous lock has been released.
package gbm

import (
	"errors"
	"fmt"

	"deedles.dev/kms/drm"
)

// ErrFlipPending is returned by Lock while a locked buffer has not
// been released.
var ErrFlipPending = errors.New("page flip pending")

// BO is a buffer object that can be scanned out.
type BO interface {
	Handle() uint32
	Stride() uint32
}

// Allocator provides the buffer objects behind a Surface.
type Allocator interface {
	// LockFront returns the buffer object that rendering most recently
	// finished.
	LockFront() (BO, error)
	Release(BO)
	Destroy()
}

type slot struct {
	bo BO
	fb uint32
}

type Surface struct {
	dev    drm.Device
	alloc  Allocator
	width  uint32
	height uint32

	slots  [2]slot
	cur    int
	locked bool
}

// NewSurface creates a width by height surface whose buffers come
// from alloc. The surface owns alloc.
func NewSurface(dev drm.Device, alloc Allocator, width, height uint32) *Surface {
	return &Surface{
		dev:    dev,
		alloc:  alloc,
		width:  width,
		height: height,
	}
}

func (s *Surface) Size() (width, height uint32) {
	return s.width, s.height
}

// Busy reports whether a locked buffer is waiting to be released.
func (s *Surface) Busy() bool {
	return s.locked
}

// Current returns the index of the slot that the next Lock fills.
func (s *Surface) Current() int {
	return s.cur
}

// Lock takes the front buffer from the allocator, registers it as a
// framebuffer in the current slot, and returns the framebuffer id.
func (s *Surface) Lock() (uint32, error) {
	if s.locked {
		return 0, ErrFlipPending
	}

	bo, err := s.alloc.LockFront()
	if err != nil {
		return 0, fmt.Errorf("lock front buffer: %w", err)
	}

	fb, err := s.dev.AddFB(s.width, s.height, 24, 32, bo.Stride(), bo.Handle())
	if err != nil {
		s.alloc.Release(bo)
		return 0, err
	}

	s.slots[s.cur] = slot{bo: bo, fb: fb}
	s.locked = true
	return fb, nil
}

// Front returns the framebuffer id of the locked slot, or zero.
func (s *Surface) Front() uint32 {
	if !s.locked {
		return 0
	}
	return s.slots[s.cur].fb
}

// Flip queues the locked slot for display on crtc. Completion is
// reported through the device's events with userData attached.
func (s *Surface) Flip(crtc uint32, userData uint64) error {
	if !s.locked {
		return errors.New("flip without a locked buffer")
	}
	return s.dev.PageFlip(crtc, s.slots[s.cur].fb, drm.PageFlipEvent, userData)
}

// Release frees the slot that was displayed before the most recent
// lock and makes it current.
func (s *Surface) Release() error {
	next := s.cur ^ 1
	err := s.free(next)
	s.cur = next
	s.locked = false
	return err
}

// Abandon releases the current slot without it ever having been
// shown, for use when a flip could not be queued.
func (s *Surface) Abandon() error {
	if !s.locked {
		return nil
	}
	s.locked = false
	return s.free(s.cur)
}

func (s *Surface) free(i int) error {
	sl := s.slots[i]
	s.slots[i] = slot{}
	if sl.bo == nil {
		return nil
	}

	err := s.dev.RmFB(sl.fb)
	s.alloc.Release(sl.bo)
	return err
}

// Destroy frees both slots and the allocator.
func (s *Surface) Destroy() error {
	err := errors.Join(s.free(0), s.free(1))
	s.locked = false
	s.alloc.Destroy()
	return err
}
