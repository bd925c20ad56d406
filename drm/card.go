package drm

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"unsafe"

	"golang.org/x/sys/unix"
)

// Card is a Device backed by an open DRM node.
type Card struct {
	file *os.File
	fd   int
}

// Open opens a DRM node such as /dev/dri/card0.
func Open(path string) (*Card, error) {
	file, err := os.OpenFile(path, os.O_RDWR|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, err
	}
	return &Card{file: file, fd: int(file.Fd())}, nil
}

func (c *Card) Fd() int {
	return c.fd
}

func (c *Card) Close() error {
	return c.file.Close()
}

func (c *Card) Cap(capability uint64) (uint64, error) {
	arg := getCap{capability: capability}
	err := ioctl(c.fd, ioctlGetCap, unsafe.Pointer(&arg))
	if err != nil {
		return 0, fmt.Errorf("get cap %#x: %w", capability, err)
	}
	return arg.value, nil
}

func (c *Card) Resources() (*Resources, error) {
	for {
		var arg modeCardRes
		err := ioctl(c.fd, ioctlGetResources, unsafe.Pointer(&arg))
		if err != nil {
			return nil, fmt.Errorf("get resources: %w", err)
		}

		res := Resources{
			FBs:        make([]uint32, arg.countFBs),
			CRTCs:      make([]uint32, arg.countCrtcs),
			Connectors: make([]uint32, arg.countConns),
			Encoders:   make([]uint32, arg.countEncoders),
		}
		counts := arg
		arg.fbIDPtr = ptr(res.FBs)
		arg.crtcIDPtr = ptr(res.CRTCs)
		arg.connectorIDPtr = ptr(res.Connectors)
		arg.encoderIDPtr = ptr(res.Encoders)

		err = ioctl(c.fd, ioctlGetResources, unsafe.Pointer(&arg))
		runtime.KeepAlive(&res)
		if err != nil {
			return nil, fmt.Errorf("get resources: %w", err)
		}

		// Hotplug between the two calls changes the counts.
		if arg.countFBs > counts.countFBs || arg.countCrtcs > counts.countCrtcs ||
			arg.countConns > counts.countConns || arg.countEncoders > counts.countEncoders {
			continue
		}

		res.FBs = res.FBs[:arg.countFBs]
		res.CRTCs = res.CRTCs[:arg.countCrtcs]
		res.Connectors = res.Connectors[:arg.countConns]
		res.Encoders = res.Encoders[:arg.countEncoders]
		res.MinWidth, res.MaxWidth = arg.minWidth, arg.maxWidth
		res.MinHeight, res.MaxHeight = arg.minHeight, arg.maxHeight
		return &res, nil
	}
}

func (c *Card) Connector(id uint32) (*Connector, error) {
	for {
		arg := modeGetConnector{connectorID: id}
		err := ioctl(c.fd, ioctlGetConnector, unsafe.Pointer(&arg))
		if err != nil {
			return nil, fmt.Errorf("get connector %v: %w", id, err)
		}

		modes := make([]ModeInfo, arg.countModes)
		encoders := make([]uint32, arg.countEncoders)
		counts := arg
		arg.modesPtr = ptr(modes)
		arg.encodersPtr = ptr(encoders)
		arg.countProps = 0

		err = ioctl(c.fd, ioctlGetConnector, unsafe.Pointer(&arg))
		runtime.KeepAlive(modes)
		runtime.KeepAlive(encoders)
		if err != nil {
			return nil, fmt.Errorf("get connector %v: %w", id, err)
		}
		if arg.countModes > counts.countModes || arg.countEncoders > counts.countEncoders {
			continue
		}

		return &Connector{
			ID:         arg.connectorID,
			EncoderID:  arg.encoderID,
			Type:       ConnectorType(arg.connectorType),
			TypeID:     arg.connectorTypeID,
			Connection: Connection(arg.connection),
			MMWidth:    arg.mmWidth,
			MMHeight:   arg.mmHeight,
			Subpixel:   arg.subpixel,
			Modes:      modes[:arg.countModes],
			Encoders:   encoders[:arg.countEncoders],
		}, nil
	}
}

func (c *Card) Encoder(id uint32) (*Encoder, error) {
	arg := modeGetEncoder{encoderID: id}
	err := ioctl(c.fd, ioctlGetEncoder, unsafe.Pointer(&arg))
	if err != nil {
		return nil, fmt.Errorf("get encoder %v: %w", id, err)
	}
	return &Encoder{
		ID:             arg.encoderID,
		Type:           arg.encoderType,
		CrtcID:         arg.crtcID,
		PossibleCrtcs:  arg.possibleCrtcs,
		PossibleClones: arg.possibleClones,
	}, nil
}

func (c *Card) Crtc(id uint32) (*Crtc, error) {
	arg := modeCrtc{crtcID: id}
	err := ioctl(c.fd, ioctlGetCrtc, unsafe.Pointer(&arg))
	if err != nil {
		return nil, fmt.Errorf("get crtc %v: %w", id, err)
	}
	return &Crtc{
		ID:        arg.crtcID,
		FB:        arg.fbID,
		X:         arg.x,
		Y:         arg.y,
		GammaSize: arg.gammaSize,
		ModeValid: arg.modeValid != 0,
		Mode:      arg.mode,
	}, nil
}

func (c *Card) SetCrtc(crtc, fb, x, y uint32, connectors []uint32, mode *ModeInfo) error {
	arg := modeCrtc{
		setConnectorsPtr: ptr(connectors),
		countConnectors:  uint32(len(connectors)),
		crtcID:           crtc,
		fbID:             fb,
		x:                x,
		y:                y,
	}
	if mode != nil {
		arg.mode = *mode
		arg.modeValid = 1
	}

	err := ioctl(c.fd, ioctlSetCrtc, unsafe.Pointer(&arg))
	runtime.KeepAlive(connectors)
	if err != nil {
		return fmt.Errorf("set crtc %v: %w", crtc, err)
	}
	return nil
}

func (c *Card) AddFB(width, height uint32, depth, bpp uint8, pitch, handle uint32) (uint32, error) {
	arg := modeFBCmd{
		width:  width,
		height: height,
		pitch:  pitch,
		bpp:    uint32(bpp),
		depth:  uint32(depth),
		handle: handle,
	}
	err := ioctl(c.fd, ioctlAddFB, unsafe.Pointer(&arg))
	if err != nil {
		return 0, fmt.Errorf("add fb: %w", err)
	}
	return arg.fbID, nil
}

func (c *Card) RmFB(fb uint32) error {
	err := ioctl(c.fd, ioctlRmFB, unsafe.Pointer(&fb))
	if err != nil {
		return fmt.Errorf("rm fb %v: %w", fb, err)
	}
	return nil
}

func (c *Card) PageFlip(crtc, fb, flags uint32, userData uint64) error {
	arg := modeCrtcPageFlip{
		crtcID:   crtc,
		fbID:     fb,
		flags:    flags,
		userData: userData,
	}
	err := ioctl(c.fd, ioctlPageFlip, unsafe.Pointer(&arg))
	if err != nil {
		return fmt.Errorf("page flip crtc %v: %w", crtc, err)
	}
	return nil
}

func (c *Card) SetCursor(crtc, handle, width, height uint32, hotX, hotY int32) error {
	arg := modeCursor2{
		flags:  cursorBO,
		crtcID: crtc,
		width:  width,
		height: height,
		handle: handle,
		hotX:   hotX,
		hotY:   hotY,
	}
	err := ioctl(c.fd, ioctlCursor2, unsafe.Pointer(&arg))
	if err != nil {
		return fmt.Errorf("set cursor crtc %v: %w", crtc, err)
	}
	return nil
}

func (c *Card) MoveCursor(crtc uint32, x, y int32) error {
	arg := modeCursor2{
		flags:  cursorMove,
		crtcID: crtc,
		x:      x,
		y:      y,
	}
	err := ioctl(c.fd, ioctlCursor2, unsafe.Pointer(&arg))
	if err != nil {
		return fmt.Errorf("move cursor crtc %v: %w", crtc, err)
	}
	return nil
}

func (c *Card) CreateDumb(width, height, bpp uint32) (*Dumb, error) {
	create := modeCreateDumb{width: width, height: height, bpp: bpp}
	err := ioctl(c.fd, ioctlCreateDumb, unsafe.Pointer(&create))
	if err != nil {
		return nil, fmt.Errorf("create dumb %vx%v: %w", width, height, err)
	}

	destroy := func() error {
		arg := modeDestroyDumb{handle: create.handle}
		return ioctl(c.fd, ioctlDestroyDumb, unsafe.Pointer(&arg))
	}

	m := modeMapDumb{handle: create.handle}
	err = ioctl(c.fd, ioctlMapDumb, unsafe.Pointer(&m))
	if err != nil {
		return nil, errors.Join(fmt.Errorf("map dumb: %w", err), destroy())
	}

	data, err := unix.Mmap(c.fd, int64(m.offset), int(create.size), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		return nil, errors.Join(fmt.Errorf("mmap dumb: %w", err), destroy())
	}

	dumb, err := NewDumb(data, int(width), int(height), create.handle, create.pitch, func() error {
		return errors.Join(unix.Munmap(data), destroy())
	})
	if err != nil {
		return nil, errors.Join(err, unix.Munmap(data), destroy())
	}
	return dumb, nil
}

func (c *Card) ReadEvents() ([]Event, error) {
	buf := make([]byte, 1024)
	n, err := unix.Read(c.fd, buf)
	if err != nil {
		return nil, fmt.Errorf("read events: %w", err)
	}
	return ParseEvents(buf[:n]), nil
}

// Wait blocks until the card has events to read or timeout elapses. It
// reports whether events are ready.
func (c *Card) Wait(timeoutMs int) (bool, error) {
	fds := []unix.PollFd{{Fd: int32(c.fd), Events: unix.POLLIN}}
	for {
		n, err := unix.Poll(fds, timeoutMs)
		if errors.Is(err, unix.EINTR) {
			continue
		}
		if err != nil {
			return false, fmt.Errorf("poll: %w", err)
		}
		return n > 0 && fds[0].Revents&unix.POLLIN != 0, nil
	}
}
