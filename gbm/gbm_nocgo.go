//go:build !(linux && cgo)

package gbm

import "unsafe"

// Device is a GBM allocation device. Without cgo it cannot be created.
type Device struct{}

func CreateDevice(fd int) (*Device, error) {
	return nil, ErrUnavailable
}

func (d *Device) Ptr() unsafe.Pointer { return nil }
func (d *Device) Destroy()            {}

type NativeSurface struct{}

func (d *Device) CreateSurface(width, height uint32, format, flags uint32) (*NativeSurface, error) {
	return nil, ErrUnavailable
}

func (s *NativeSurface) Ptr() unsafe.Pointer    { return nil }
func (s *NativeSurface) LockFront() (BO, error) { return nil, ErrUnavailable }
func (s *NativeSurface) Release(BO)             {}
func (s *NativeSurface) Destroy()               {}
