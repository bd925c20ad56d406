// Package drmtest provides an in-memory drm.Device for tests.
package drmtest

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"

	"deedles.dev/kms/drm"
	"golang.org/x/sys/unix"
)

// SetCrtcCall records one SetCrtc.
type SetCrtcCall struct {
	Crtc, FB   uint32
	X, Y       uint32
	Connectors []uint32
	Mode       *drm.ModeInfo
}

// Flip records one PageFlip.
type Flip struct {
	Crtc, FB uint32
	UserData uint64
}

// Cursor is the cursor plane state of one CRTC.
type Cursor struct {
	Handle        uint32
	Width, Height uint32
	HotX, HotY    int32
	X, Y          int32
}

type FB struct {
	Width, Height uint32
	Pitch, Handle uint32
}

// Device is a fake card. Its exported fields may be set up before use
// and inspected afterwards.
type Device struct {
	m sync.Mutex

	Caps       map[uint64]uint64
	connectors []*drm.Connector
	encoders   []*drm.Encoder
	crtcs      []*drm.Crtc

	FBs        map[uint32]FB
	SetCrtcs   []SetCrtcCall
	Flips      []Flip
	Cursors    map[uint32]Cursor
	Closed     bool
	pending    []Flip
	events     []drm.Event
	notify     chan struct{}
	nextID     uint32
	nextHandle uint32

	// FailPageFlip, if set, is returned by PageFlip.
	FailPageFlip error
}

// New returns a device that supports dumb buffers and has no outputs.
func New() *Device {
	return &Device{
		Caps:       map[uint64]uint64{drm.CapDumbBuffer: 1},
		FBs:        make(map[uint32]FB),
		Cursors:    make(map[uint32]Cursor),
		notify:     make(chan struct{}, 1),
		nextID:     100,
		nextHandle: 1,
	}
}

// AddCrtc adds a CRTC with the given id.
func (d *Device) AddCrtc(id uint32) {
	d.m.Lock()
	defer d.m.Unlock()
	d.crtcs = append(d.crtcs, &drm.Crtc{ID: id, FB: 1000 + id})
}

// AddEncoder adds an encoder currently driving crtc (zero for none)
// that can drive the CRTCs whose indices are set in possible.
func (d *Device) AddEncoder(id, crtc, possible uint32) {
	d.m.Lock()
	defer d.m.Unlock()
	d.encoders = append(d.encoders, &drm.Encoder{ID: id, CrtcID: crtc, PossibleCrtcs: possible})
}

// AddConnector adds c. If c.Connection is zero it is connected.
func (d *Device) AddConnector(c drm.Connector) {
	d.m.Lock()
	defer d.m.Unlock()
	if c.Connection == 0 {
		c.Connection = drm.Connected
	}
	d.connectors = append(d.connectors, &c)
}

func (d *Device) Fd() int { return 3 }

func (d *Device) Cap(capability uint64) (uint64, error) {
	d.m.Lock()
	defer d.m.Unlock()
	v, ok := d.Caps[capability]
	if !ok {
		return 0, unix.EINVAL
	}
	return v, nil
}

func ids[T any](s []T, id func(T) uint32) []uint32 {
	r := make([]uint32, 0, len(s))
	for _, v := range s {
		r = append(r, id(v))
	}
	return r
}

func (d *Device) Resources() (*drm.Resources, error) {
	d.m.Lock()
	defer d.m.Unlock()
	return &drm.Resources{
		FBs:        slices.Sorted(maps.Keys(d.FBs)),
		CRTCs:      ids(d.crtcs, func(c *drm.Crtc) uint32 { return c.ID }),
		Connectors: ids(d.connectors, func(c *drm.Connector) uint32 { return c.ID }),
		Encoders:   ids(d.encoders, func(e *drm.Encoder) uint32 { return e.ID }),
		MaxWidth:   8192,
		MaxHeight:  8192,
	}, nil
}

func find[T any](s []*T, match func(*T) bool) (*T, bool) {
	i := slices.IndexFunc(s, match)
	if i < 0 {
		return nil, false
	}
	return s[i], true
}

func (d *Device) Connector(id uint32) (*drm.Connector, error) {
	d.m.Lock()
	defer d.m.Unlock()
	c, ok := find(d.connectors, func(c *drm.Connector) bool { return c.ID == id })
	if !ok {
		return nil, fmt.Errorf("get connector %v: %w", id, unix.ENOENT)
	}
	cp := *c
	return &cp, nil
}

func (d *Device) Encoder(id uint32) (*drm.Encoder, error) {
	d.m.Lock()
	defer d.m.Unlock()
	e, ok := find(d.encoders, func(e *drm.Encoder) bool { return e.ID == id })
	if !ok {
		return nil, fmt.Errorf("get encoder %v: %w", id, unix.ENOENT)
	}
	cp := *e
	return &cp, nil
}

func (d *Device) Crtc(id uint32) (*drm.Crtc, error) {
	d.m.Lock()
	defer d.m.Unlock()
	c, ok := find(d.crtcs, func(c *drm.Crtc) bool { return c.ID == id })
	if !ok {
		return nil, fmt.Errorf("get crtc %v: %w", id, unix.ENOENT)
	}
	cp := *c
	return &cp, nil
}

func (d *Device) SetCrtc(crtc, fb, x, y uint32, connectors []uint32, mode *drm.ModeInfo) error {
	d.m.Lock()
	defer d.m.Unlock()
	c, ok := find(d.crtcs, func(c *drm.Crtc) bool { return c.ID == crtc })
	if !ok {
		return fmt.Errorf("set crtc %v: %w", crtc, unix.ENOENT)
	}
	c.FB, c.X, c.Y = fb, x, y
	c.ModeValid = mode != nil
	if mode != nil {
		c.Mode = *mode
	}
	d.SetCrtcs = append(d.SetCrtcs, SetCrtcCall{
		Crtc:       crtc,
		FB:         fb,
		X:          x,
		Y:          y,
		Connectors: slices.Clone(connectors),
		Mode:       mode,
	})
	return nil
}

func (d *Device) AddFB(width, height uint32, depth, bpp uint8, pitch, handle uint32) (uint32, error) {
	d.m.Lock()
	defer d.m.Unlock()
	d.nextID++
	d.FBs[d.nextID] = FB{Width: width, Height: height, Pitch: pitch, Handle: handle}
	return d.nextID, nil
}

func (d *Device) RmFB(fb uint32) error {
	d.m.Lock()
	defer d.m.Unlock()
	if _, ok := d.FBs[fb]; !ok {
		return fmt.Errorf("rm fb %v: %w", fb, unix.ENOENT)
	}
	delete(d.FBs, fb)
	return nil
}

func (d *Device) PageFlip(crtc, fb, flags uint32, userData uint64) error {
	d.m.Lock()
	defer d.m.Unlock()
	if d.FailPageFlip != nil {
		return d.FailPageFlip
	}
	if slices.ContainsFunc(d.pending, func(f Flip) bool { return f.Crtc == crtc }) {
		return fmt.Errorf("page flip crtc %v: %w", crtc, unix.EBUSY)
	}

	f := Flip{Crtc: crtc, FB: fb, UserData: userData}
	d.Flips = append(d.Flips, f)
	if flags&drm.PageFlipEvent != 0 {
		d.pending = append(d.pending, f)
	}
	return nil
}

// Pending returns the number of flips awaiting completion.
func (d *Device) Pending() int {
	d.m.Lock()
	defer d.m.Unlock()
	return len(d.pending)
}

// CompleteFlips turns every pending flip into a completion event that
// ReadEvents will return. It returns the number of flips completed.
func (d *Device) CompleteFlips() int {
	d.m.Lock()
	defer d.m.Unlock()

	n := len(d.pending)
	now := time.Now()
	for _, f := range d.pending {
		d.events = append(d.events, drm.Event{
			Type:     drm.EventFlipComplete,
			UserData: f.UserData,
			Sec:      uint32(now.Unix()),
			Usec:     uint32(now.Nanosecond() / 1000),
			CrtcID:   f.Crtc,
		})
		if c, ok := find(d.crtcs, func(c *drm.Crtc) bool { return c.ID == f.Crtc }); ok {
			c.FB = f.FB
		}
	}
	d.pending = nil

	if n > 0 {
		select {
		case d.notify <- struct{}{}:
		default:
		}
	}
	return n
}

func (d *Device) SetCursor(crtc, handle, width, height uint32, hotX, hotY int32) error {
	d.m.Lock()
	defer d.m.Unlock()
	c := d.Cursors[crtc]
	c.Handle, c.Width, c.Height, c.HotX, c.HotY = handle, width, height, hotX, hotY
	d.Cursors[crtc] = c
	return nil
}

func (d *Device) MoveCursor(crtc uint32, x, y int32) error {
	d.m.Lock()
	defer d.m.Unlock()
	c := d.Cursors[crtc]
	c.X, c.Y = x, y
	d.Cursors[crtc] = c
	return nil
}

func (d *Device) CreateDumb(width, height, bpp uint32) (*drm.Dumb, error) {
	d.m.Lock()
	handle := d.nextHandle
	d.nextHandle++
	d.m.Unlock()

	pitch := width * bpp / 8
	data := make([]byte, pitch*height)
	return drm.NewDumb(data, int(width), int(height), handle, pitch, func() error { return nil })
}

func (d *Device) Wait(timeoutMs int) (bool, error) {
	d.m.Lock()
	ready := len(d.events) > 0
	d.m.Unlock()
	if ready {
		return true, nil
	}

	select {
	case <-d.notify:
		return true, nil
	case <-time.After(time.Duration(timeoutMs) * time.Millisecond):
		return false, nil
	}
}

func (d *Device) ReadEvents() ([]drm.Event, error) {
	d.m.Lock()
	defer d.m.Unlock()
	if d.Closed {
		return nil, errors.New("device closed")
	}
	events := d.events
	d.events = nil
	return events, nil
}

func (d *Device) Close() error {
	d.m.Lock()
	defer d.m.Unlock()
	d.Closed = true
	return nil
}
