//go:build linux && cgo

package gbm

/*
#cgo pkg-config: gbm
#include <stdlib.h>
#include <gbm.h>
*/
import "C"

import (
	"fmt"
	"unsafe"
)

// Device is a GBM allocation device bound to a DRM file descriptor.
type Device struct {
	dev *C.struct_gbm_device
}

func CreateDevice(fd int) (*Device, error) {
	dev := C.gbm_create_device(C.int(fd))
	if dev == nil {
		return nil, fmt.Errorf("gbm_create_device on fd %v failed", fd)
	}
	return &Device{dev: dev}, nil
}

func (d *Device) Ptr() unsafe.Pointer {
	return unsafe.Pointer(d.dev)
}

func (d *Device) Destroy() {
	if d.dev != nil {
		C.gbm_device_destroy(d.dev)
		d.dev = nil
	}
}

// NativeSurface is a GBM surface that EGL renders into. It is the
// Allocator for GPU-rendered monitors.
type NativeSurface struct {
	surf *C.struct_gbm_surface
}

func (d *Device) CreateSurface(width, height uint32, format, flags uint32) (*NativeSurface, error) {
	surf := C.gbm_surface_create(d.dev, C.uint32_t(width), C.uint32_t(height), C.uint32_t(format), C.uint32_t(flags))
	if surf == nil {
		return nil, fmt.Errorf("gbm_surface_create %vx%v failed", width, height)
	}
	return &NativeSurface{surf: surf}, nil
}

func (s *NativeSurface) Ptr() unsafe.Pointer {
	return unsafe.Pointer(s.surf)
}

type nativeBO struct {
	bo *C.struct_gbm_bo
}

func (bo nativeBO) Handle() uint32 {
	h := C.gbm_bo_get_handle(bo.bo)
	return *(*uint32)(unsafe.Pointer(&h))
}

func (bo nativeBO) Stride() uint32 {
	return uint32(C.gbm_bo_get_stride(bo.bo))
}

func (s *NativeSurface) LockFront() (BO, error) {
	bo := C.gbm_surface_lock_front_buffer(s.surf)
	if bo == nil {
		return nil, fmt.Errorf("gbm_surface_lock_front_buffer failed")
	}
	return nativeBO{bo: bo}, nil
}

func (s *NativeSurface) Release(bo BO) {
	if nb, ok := bo.(nativeBO); ok {
		C.gbm_surface_release_buffer(s.surf, nb.bo)
	}
}

func (s *NativeSurface) Destroy() {
	if s.surf != nil {
		C.gbm_surface_destroy(s.surf)
		s.surf = nil
	}
}
