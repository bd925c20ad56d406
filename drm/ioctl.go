package drm

import (
	"unsafe"

	"golang.org/x/sys/unix"
)

// Kernel structures, laid out as in include/uapi/drm/drm.h and
// drm_mode.h.

type getCap struct {
	capability uint64
	value      uint64
}

type modeCardRes struct {
	fbIDPtr        uint64
	crtcIDPtr      uint64
	connectorIDPtr uint64
	encoderIDPtr   uint64
	countFBs       uint32
	countCrtcs     uint32
	countConns     uint32
	countEncoders  uint32
	minWidth       uint32
	maxWidth       uint32
	minHeight      uint32
	maxHeight      uint32
}

type modeCrtc struct {
	setConnectorsPtr uint64
	countConnectors  uint32
	crtcID           uint32
	fbID             uint32
	x, y             uint32
	gammaSize        uint32
	modeValid        uint32
	mode             ModeInfo
}

type modeCursor2 struct {
	flags         uint32
	crtcID        uint32
	x, y          int32
	width, height uint32
	handle        uint32
	hotX, hotY    int32
}

type modeGetEncoder struct {
	encoderID      uint32
	encoderType    uint32
	crtcID         uint32
	possibleCrtcs  uint32
	possibleClones uint32
}

type modeGetConnector struct {
	encodersPtr     uint64
	modesPtr        uint64
	propsPtr        uint64
	propValuesPtr   uint64
	countModes      uint32
	countProps      uint32
	countEncoders   uint32
	encoderID       uint32
	connectorID     uint32
	connectorType   uint32
	connectorTypeID uint32
	connection      uint32
	mmWidth         uint32
	mmHeight        uint32
	subpixel        uint32
	pad             uint32
}

type modeFBCmd struct {
	fbID          uint32
	width, height uint32
	pitch         uint32
	bpp           uint32
	depth         uint32
	handle        uint32
}

type modeCrtcPageFlip struct {
	crtcID   uint32
	fbID     uint32
	flags    uint32
	reserved uint32
	userData uint64
}

type modeCreateDumb struct {
	height, width uint32
	bpp           uint32
	flags         uint32
	handle        uint32
	pitch         uint32
	size          uint64
}

type modeMapDumb struct {
	handle uint32
	pad    uint32
	offset uint64
}

type modeDestroyDumb struct {
	handle uint32
}

const (
	iocWrite = 1
	iocRead  = 2
)

func iowr(nr uintptr, size uintptr) uintptr {
	return (iocRead|iocWrite)<<30 | size<<16 | 'd'<<8 | nr
}

var (
	ioctlGetCap       = iowr(0x0C, unsafe.Sizeof(getCap{}))
	ioctlGetResources = iowr(0xA0, unsafe.Sizeof(modeCardRes{}))
	ioctlGetCrtc      = iowr(0xA1, unsafe.Sizeof(modeCrtc{}))
	ioctlSetCrtc      = iowr(0xA2, unsafe.Sizeof(modeCrtc{}))
	ioctlGetEncoder   = iowr(0xA6, unsafe.Sizeof(modeGetEncoder{}))
	ioctlGetConnector = iowr(0xA7, unsafe.Sizeof(modeGetConnector{}))
	ioctlAddFB        = iowr(0xAE, unsafe.Sizeof(modeFBCmd{}))
	ioctlRmFB         = iowr(0xAF, unsafe.Sizeof(uint32(0)))
	ioctlPageFlip     = iowr(0xB0, unsafe.Sizeof(modeCrtcPageFlip{}))
	ioctlCreateDumb   = iowr(0xB2, unsafe.Sizeof(modeCreateDumb{}))
	ioctlMapDumb      = iowr(0xB3, unsafe.Sizeof(modeMapDumb{}))
	ioctlDestroyDumb  = iowr(0xB4, unsafe.Sizeof(modeDestroyDumb{}))
	ioctlCursor2      = iowr(0xBB, unsafe.Sizeof(modeCursor2{}))
)

// Cursor flags.
const (
	cursorBO   = 0x01
	cursorMove = 0x02
)

// ioctl retries on EINTR and EAGAIN the way libdrm does.
func ioctl(fd int, req uintptr, arg unsafe.Pointer) error {
	for {
		_, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(fd), req, uintptr(arg))
		switch errno {
		case 0:
			return nil
		case unix.EINTR, unix.EAGAIN:
			continue
		default:
			return errno
		}
	}
}

func ptr[T any](s []T) uint64 {
	if len(s) == 0 {
		return 0
	}
	return uint64(uintptr(unsafe.Pointer(&s[0])))
}
