// Package egl brings up an OpenGL ES 2 context on a GBM device and
// creates window surfaces over GBM surfaces.
package egl

import (
	"errors"
	"fmt"

	"golang.org/x/sys/unix"
)

var (
	// ErrUnavailable is returned when the program was built without
	// EGL support.
	ErrUnavailable = fmt.Errorf("egl unavailable: %w", unix.EOPNOTSUPP)

	// ErrNoConfig is returned when no config has a native visual of
	// the requested format.
	ErrNoConfig = fmt.Errorf("no matching egl config: %w", unix.ENOENT)

	// ErrNoWaylandDisplay is returned by BindWaylandDisplay. Clients
	// of this server share buffers through wl_shm only.
	ErrNoWaylandDisplay = errors.New("no native wayland display to bind")
)

const (
	platformGBM       = 0x31d7
	attrNativeVisual  = 0x302e
	attrNone          = 0x3038
	attrClientVersion = 0x3098
	attrRenderable    = 0x3040
	attrSurfaceType   = 0x3033
	attrRedSize       = 0x3024
	attrGreenSize     = 0x3023
	attrBlueSize      = 0x3022
	attrAlphaSize     = 0x3021
	bitWindow         = 0x4
	bitES2            = 0x4
)

// configAttribs is the attribute list for eglChooseConfig.
var configAttribs = []int32{
	attrSurfaceType, bitWindow,
	attrRedSize, 1,
	attrGreenSize, 1,
	attrBlueSize, 1,
	attrAlphaSize, 0,
	attrRenderable, bitES2,
	attrNone,
}

// pickConfig returns the index of the first config whose native visual
// is format.
func pickConfig(visuals []int32, format uint32) (int, error) {
	for i, v := range visuals {
		if uint32(v) == format {
			return i, nil
		}
	}
	return -1, ErrNoConfig
}

// Error is an EGL error code.
type Error int32

func (err Error) Error() string {
	return fmt.Sprintf("egl error 0x%x", int32(err))
}
