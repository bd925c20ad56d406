package gbm

import (
	"errors"
	"unsafe"
)

// ErrUnavailable is returned when the program was built without GBM.
var ErrUnavailable = errors.New("gbm unavailable")

// Formats for surfaces, as DRM fourcc codes.
const (
	FormatXRGB8888 = 'X' | 'R'<<8 | '2'<<16 | '4'<<24
	FormatARGB8888 = 'A' | 'R'<<8 | '2'<<16 | '4'<<24
)

// Usage flags for surfaces.
const (
	UseScanout   = 1 << 0
	UseCursor    = 1 << 1
	UseRendering = 1 << 2
)

// Native is implemented by objects that EGL can use directly.
type Native interface {
	Ptr() unsafe.Pointer
}
