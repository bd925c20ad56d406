//go:build !(linux && cgo)

package egl

import "unsafe"

type Display struct{}

type Surface struct{}

func Open(native unsafe.Pointer, format uint32) (*Display, error) {
	return nil, ErrUnavailable
}

func (d *Display) BindWaylandDisplay() error { return ErrNoWaylandDisplay }

func (d *Display) CreateWindowSurface(native unsafe.Pointer) (*Surface, error) {
	return nil, ErrUnavailable
}

func (s *Surface) MakeCurrent() error { return ErrUnavailable }
func (s *Surface) SwapBuffers() error { return ErrUnavailable }
func (s *Surface) Destroy()           {}
func (d *Display) Terminate()         {}
