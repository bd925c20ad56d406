package buffer

import "fmt"

// Format is a pixel format, numbered the way wl_shm numbers them: the
// two mandatory formats are 0 and 1 and every other format is its DRM
// fourcc code.
type Format uint32

const (
	ARGB8888 Format = 0
	XRGB8888 Format = 1
	ABGR8888 Format = 'A' | 'B'<<8 | '2'<<16 | '4'<<24
	XBGR8888 Format = 'X' | 'B'<<8 | '2'<<16 | '4'<<24
	RGBA8888 Format = 'R' | 'A'<<8 | '2'<<16 | '4'<<24
	RGBX8888 Format = 'R' | 'X'<<8 | '2'<<16 | '4'<<24
)

// Formats lists the formats that clients may submit.
func Formats() []Format {
	return []Format{ARGB8888, XRGB8888}
}

// Fourcc returns the DRM fourcc code of f.
func (f Format) Fourcc() uint32 {
	switch f {
	case ARGB8888:
		return 'A' | 'R'<<8 | '2'<<16 | '4'<<24
	case XRGB8888:
		return 'X' | 'R'<<8 | '2'<<16 | '4'<<24
	}
	return uint32(f)
}

// BPP returns the number of bytes per pixel, or zero if f is unknown.
func (f Format) BPP() int {
	switch f {
	case ARGB8888, XRGB8888, ABGR8888, XBGR8888, RGBA8888, RGBX8888:
		return 4
	}
	return 0
}

// Opaque reports whether f has no alpha channel.
func (f Format) Opaque() bool {
	switch f {
	case XRGB8888, XBGR8888, RGBX8888:
		return true
	}
	return false
}

func (f Format) String() string {
	switch f {
	case ARGB8888:
		return "ARGB8888"
	case XRGB8888:
		return "XRGB8888"
	case ABGR8888:
		return "ABGR8888"
	case XBGR8888:
		return "XBGR8888"
	case RGBA8888:
		return "RGBA8888"
	case RGBX8888:
		return "RGBX8888"
	}
	return fmt.Sprintf("Format(%#x)", uint32(f))
}
