// Package drm talks to the kernel's Direct Rendering Manager through
// its mode-setting ioctls.
package drm

import (
	"bytes"
	"fmt"
)

// Capabilities that can be queried with Cap.
const (
	CapDumbBuffer      = 0x1
	CapVBlankHighCRTC  = 0x2
	CapDumbPreferDepth = 0x3
	CapCursorWidth     = 0x8
	CapCursorHeight    = 0x9
)

// Flags for PageFlip.
const (
	PageFlipEvent = 0x01
	PageFlipAsync = 0x02
)

// Device is the mode-setting interface of one card.
type Device interface {
	Fd() int
	Cap(capability uint64) (uint64, error)

	Resources() (*Resources, error)
	Connector(id uint32) (*Connector, error)
	Encoder(id uint32) (*Encoder, error)
	Crtc(id uint32) (*Crtc, error)
	SetCrtc(crtc, fb, x, y uint32, connectors []uint32, mode *ModeInfo) error

	AddFB(width, height uint32, depth, bpp uint8, pitch, handle uint32) (uint32, error)
	RmFB(fb uint32) error
	PageFlip(crtc, fb, flags uint32, userData uint64) error

	// SetCursor binds a buffer object as the CRTC's cursor image. A zero
	// handle hides the cursor.
	SetCursor(crtc, handle, width, height uint32, hotX, hotY int32) error
	MoveCursor(crtc uint32, x, y int32) error

	CreateDumb(width, height, bpp uint32) (*Dumb, error)

	// Wait blocks until events are ready or timeoutMs passes and
	// reports which happened. ReadEvents reads them. It blocks if there
	// are none.
	Wait(timeoutMs int) (bool, error)
	ReadEvents() ([]Event, error)

	Close() error
}

// Resources lists the mode-setting objects of a card.
type Resources struct {
	FBs        []uint32
	CRTCs      []uint32
	Connectors []uint32
	Encoders   []uint32

	MinWidth, MaxWidth   uint32
	MinHeight, MaxHeight uint32
}

// Connection is the state of a connector.
type Connection uint32

const (
	Connected         Connection = 1
	Disconnected      Connection = 2
	UnknownConnection Connection = 3
)

func (c Connection) String() string {
	switch c {
	case Connected:
		return "connected"
	case Disconnected:
		return "disconnected"
	}
	return "unknown"
}

type Connector struct {
	ID         uint32
	EncoderID  uint32
	Type       ConnectorType
	TypeID     uint32
	Connection Connection
	MMWidth    uint32
	MMHeight   uint32
	Subpixel   uint32
	Modes      []ModeInfo
	Encoders   []uint32
}

// Name returns the conventional name of the connector, such as
// "HDMI-A-1".
func (c *Connector) Name() string {
	return fmt.Sprintf("%v-%v", c.Type, c.TypeID)
}

type ConnectorType uint32

var connectorTypeNames = []string{
	"Unknown", "VGA", "DVI-I", "DVI-D", "DVI-A", "Composite", "SVIDEO",
	"LVDS", "Component", "DIN", "DP", "HDMI-A", "HDMI-B", "TV", "eDP",
	"Virtual", "DSI", "DPI", "Writeback", "SPI", "USB",
}

func (t ConnectorType) String() string {
	if int(t) < len(connectorTypeNames) {
		return connectorTypeNames[t]
	}
	return "Unknown"
}

type Encoder struct {
	ID             uint32
	Type           uint32
	CrtcID         uint32
	PossibleCrtcs  uint32
	PossibleClones uint32
}

type Crtc struct {
	ID        uint32
	FB        uint32
	X, Y      uint32
	GammaSize uint32
	ModeValid bool
	Mode      ModeInfo
}

// ModeInfo is a display mode line. Its layout matches the kernel's
// struct drm_mode_modeinfo.
type ModeInfo struct {
	Clock                                         uint32
	Hdisplay, HsyncStart, HsyncEnd, Htotal, Hskew uint16
	Vdisplay, VsyncStart, VsyncEnd, Vtotal, Vscan uint16
	Vrefresh                                      uint32
	Flags                                         uint32
	Type                                          uint32
	Name                                          [32]byte
}

// Mode type bits.
const (
	ModeTypePreferred = 1 << 3
	ModeTypeDriver    = 1 << 6
)

func (m ModeInfo) String() string {
	name, _, _ := bytes.Cut(m.Name[:], []byte{0})
	if len(name) == 0 {
		return fmt.Sprintf("%vx%v@%v", m.Hdisplay, m.Vdisplay, m.Vrefresh)
	}
	return fmt.Sprintf("%s@%v", name, m.Vrefresh)
}

// Preferred reports whether the display marked this mode as its
// preferred one.
func (m ModeInfo) Preferred() bool {
	return m.Type&ModeTypePreferred != 0
}

// NewMode builds a mode with the given size and refresh rate and the
// conventional name. Timings other than the visible size are left
// zero, which is enough for tests and for describing modes to clients.
func NewMode(width, height uint16, refresh uint32) ModeInfo {
	m := ModeInfo{Hdisplay: width, Vdisplay: height, Vrefresh: refresh}
	copy(m.Name[:], fmt.Sprintf("%vx%v", width, height))
	return m
}
