package compositor

import (
	"deedles.dev/kms/buffer"
	"deedles.dev/kms/pointer"
	"deedles.dev/kms/wire"
)

// Client is a connected protocol client.
type Client interface {
	Pointers() []Pointer
	Keyboards() []Keyboard
}

// Resource is the protocol object that backs an entity.
type Resource interface {
	ID() uint32
	Client() Client
}

// Pointer is a client's wl_pointer.
type Pointer interface {
	Enter(serial uint32, surface Resource, x, y wire.Fixed)
	Leave(serial uint32, surface Resource)
	Motion(time uint32, x, y wire.Fixed)
	Button(serial, time uint32, button pointer.Button, state pointer.ButtonState)
}

// Keyboard is a client's wl_keyboard.
type Keyboard interface {
	Enter(serial uint32, surface Resource, keys []byte)
	Leave(serial uint32, surface Resource)
}

// ClientBuffer is a buffer that a client has attached to a surface.
// Release hands it back to the client.
type ClientBuffer interface {
	Buffer() buffer.Buffer
	Release()
}

// FrameCallback is a one-shot wl_callback requested with
// wl_surface.frame.
type FrameCallback interface {
	Done(ms uint32)
}

// ShellResource is a wl_shell_surface.
type ShellResource interface {
	Resource
	Configure(edges uint32, width, height int32)
}

// Output is a bound wl_output.
type Output interface {
	Geometry(x, y, physWidth, physHeight, subpixel int32, make, model string, transform int32)
	Mode(flags uint32, width, height, refresh int32)
	Done()
}

// Display is the shared protocol display. Event delivery to clients
// happens between Acquire and Release.
type Display interface {
	Acquire() bool
	Release()
	NextSerial() uint32
}

type nopDisplay struct {
	serial uint32
}

func (d *nopDisplay) Acquire() bool { return true }
func (d *nopDisplay) Release()      {}

func (d *nopDisplay) NextSerial() uint32 {
	d.serial++
	return d.serial
}
