package compositor

import (
	"errors"
	"fmt"

	"deedles.dev/kms/buffer"
	"deedles.dev/kms/drm"
	"deedles.dev/kms/pointer"
	"deedles.dev/kms/wire"
	"github.com/charmbracelet/log"
	"golang.org/x/exp/constraints"
)

// CursorSize is the width and height of the hardware cursor buffer.
const CursorSize = 64

// Cursor is the hardware cursor of the monitor it was created on. Its
// position is the top-left corner of the cursor image. The point that
// it actually points at, and that surfaces are hit-tested against, is
// the position plus the hotspot.
type Cursor struct {
	comp    *Compositor
	log     *log.Logger
	monitor *Monitor

	fb  *drm.Dumb
	def buffer.Buffer

	x, y   int32
	hx, hy int32
	hidden bool

	active *ShellSurface
	source *Surface
}

func newCursor(c *Compositor, def buffer.Buffer) (*Cursor, error) {
	fb, err := c.dev.CreateDumb(CursorSize, CursorSize, 32)
	if err != nil {
		return nil, err
	}
	err = fb.AsFormat(buffer.ARGB8888)
	if err != nil {
		fb.Destroy()
		return nil, err
	}

	cur := Cursor{
		comp: c,
		log:  c.log.With("cursor", ""),
		fb:   fb,
		def:  def,
		x:    350,
		y:    350,
		hx:   1,
		hy:   1,
	}
	for _, m := range c.monitors {
		if m.State() == Connected {
			cur.monitor = m
			cur.log = c.log.With("cursor", m.crtc)
			break
		}
	}

	cur.fb.Clear()
	if def != nil {
		buffer.Copy(cur.fb, def)
	}

	return &cur, nil
}

func (c *Cursor) destroy() error {
	if c.fb == nil {
		return nil
	}
	var err error
	if c.monitor != nil {
		err = c.Unset()
	}
	err = errors.Join(err, c.fb.Destroy())
	c.fb = nil
	return err
}

// Monitor returns the monitor that the cursor is shown on. It is nil if
// no monitor is connected.
func (c *Cursor) Monitor() *Monitor {
	return c.monitor
}

func (c *Cursor) Position() (x, y int32) {
	return c.x, c.y
}

func (c *Cursor) Hotspot() (x, y int32) {
	return c.hx, c.hy
}

// Point returns the position plus the hotspot.
func (c *Cursor) Point() (x, y int32) {
	return c.x + c.hx, c.y + c.hy
}

// Image is the cursor's framebuffer.
func (c *Cursor) Image() buffer.Buffer {
	return c.fb
}

func clamp[T constraints.Integer](v, lo, hi T) T {
	return max(lo, min(v, hi))
}

// SetPosition moves the cursor, keeping the hotspot on the monitor,
// and then updates which surface is under it.
func (c *Cursor) SetPosition(x, y int32) error {
	if c.monitor == nil {
		return nil
	}

	c.x, c.y = x, y
	err := c.place()

	next := c.SurfaceUnderCursor()
	if next == c.active {
		c.motion()
	} else {
		c.SetActiveSurface(next)
	}
	c.comp.focus.set(next)

	return err
}

// place clamps the position and moves the hardware cursor there.
func (c *Cursor) place() error {
	m := c.monitor
	if m == nil {
		return nil
	}

	w, h := m.Size()
	c.x = clamp(c.x, -c.hx, int32(w))
	c.y = clamp(c.y, -c.hy, int32(h))

	err := c.comp.dev.MoveCursor(m.crtc, c.x, c.y)
	if err != nil {
		return fmt.Errorf("move cursor: %w", err)
	}
	return nil
}

// AddPosition moves the cursor relative to where it is.
func (c *Cursor) AddPosition(dx, dy int32) error {
	return c.SetPosition(c.x+dx, c.y+dy)
}

// SetHotspot changes the hotspot without moving the point that the
// cursor points at. The hotspot is clamped to the cursor's buffer.
func (c *Cursor) SetHotspot(x, y int32) error {
	c.setHotspot(x, y)
	return c.AddPosition(0, 0)
}

func (c *Cursor) setHotspot(x, y int32) {
	c.x += c.hx - x
	c.y += c.hy - y
	c.hx = clamp(x, 0, CursorSize)
	c.hy = clamp(y, 0, CursorSize)
}

// SetImage replaces the cursor image. A nil img restores the default
// image and hotspot.
func (c *Cursor) SetImage(img buffer.Buffer) {
	if c.fb == nil {
		return
	}

	c.fb.Clear()
	if img == nil {
		img = c.def
		err := c.SetHotspot(1, 1)
		if err != nil {
			c.log.Warn("reset hotspot", "err", err)
		}
	}
	if img != nil {
		buffer.Copy(c.fb, img)
	}
}

// resetImage restores the default image and hotspot without changing
// which surface is active. A hidden cursor is shown again.
func (c *Cursor) resetImage() {
	if c.fb == nil {
		return
	}

	c.fb.Clear()
	if c.def != nil {
		buffer.Copy(c.fb, c.def)
	}

	c.setHotspot(1, 1)
	err := c.place()
	if err != nil {
		c.log.Warn("reset cursor", "err", err)
	}

	if c.hidden {
		err := c.Redraw()
		if err != nil {
			c.log.Warn("show default cursor", "err", err)
		}
	}
}

// Redraw binds the cursor's buffer to the monitor's CRTC and moves it
// into place, showing it if it was hidden.
func (c *Cursor) Redraw() error {
	m := c.monitor
	if m == nil {
		return nil
	}

	err := c.comp.dev.SetCursor(m.crtc, c.fb.Handle, CursorSize, CursorSize, c.hx, c.hy)
	if err != nil {
		return fmt.Errorf("set cursor: %w", err)
	}
	c.hidden = false

	err = c.comp.dev.MoveCursor(m.crtc, c.x, c.y)
	if err != nil {
		return fmt.Errorf("move cursor: %w", err)
	}
	return nil
}

// Unset hides the cursor.
func (c *Cursor) Unset() error {
	m := c.monitor
	if m == nil {
		return nil
	}

	err := c.comp.dev.SetCursor(m.crtc, 0, 0, 0, 0, 0)
	if err != nil {
		return fmt.Errorf("hide cursor: %w", err)
	}
	c.hidden = true
	return nil
}

func (c *Cursor) Hidden() bool {
	return c.hidden
}

// SurfaceUnderCursor returns the first surface, in the order they were
// added to the monitor, that contains the point that the cursor points
// at.
func (c *Cursor) SurfaceUnderCursor() *ShellSurface {
	if c.monitor == nil {
		return nil
	}

	px, py := c.Point()
	for s := range c.monitor.surfaces.All() {
		if s.hit(px, py) {
			return s
		}
	}
	return nil
}

// Active returns the surface that the cursor is over.
func (c *Cursor) Active() *ShellSurface {
	return c.active
}

// SetActiveSurface changes the surface that the cursor is over,
// sending leave to the old surface's pointers and enter to the new
// one's. Leaving a surface restores the default cursor image. It
// returns false if next was already active.
func (c *Cursor) SetActiveSurface(next *ShellSurface) bool {
	if next == c.active {
		return false
	}

	prev := c.active
	c.active = next

	d := c.comp.display
	if !d.Acquire() {
		c.log.Error("could not acquire display")
		return false
	}
	defer d.Release()

	if prev != nil {
		if res := prev.surfaceResource(); res != nil {
			for _, p := range clientPointers(res) {
				p.Leave(d.NextSerial(), res)
			}
		}
		c.source = nil
		c.resetImage()
	}

	if next != nil {
		if res := next.surfaceResource(); res != nil {
			x, y := c.local(next)
			for _, p := range clientPointers(res) {
				p.Enter(d.NextSerial(), res, wire.FixedInt(int(x)), wire.FixedInt(int(y)))
			}
		}
	}

	return true
}

// local returns the cursor's point relative to s.
func (c *Cursor) local(s *ShellSurface) (x, y int32) {
	px, py := c.Point()
	sx, sy, _, _ := s.Geometry()
	return px - sx, py - sy
}

func (c *Cursor) motion() {
	s := c.active
	if s == nil {
		return
	}
	res := s.surfaceResource()
	if res == nil {
		return
	}

	d := c.comp.display
	if !d.Acquire() {
		return
	}
	defer d.Release()

	x, y := c.local(s)
	now := c.comp.Now()
	for _, p := range clientPointers(res) {
		p.Motion(now, wire.FixedInt(int(x)), wire.FixedInt(int(y)))
	}
}

// SetButtonState sends a button event to the pointers of the client
// whose surface is under the cursor.
func (c *Cursor) SetButtonState(time uint32, button pointer.Button, state pointer.ButtonState) {
	s := c.active
	if s == nil {
		return
	}
	res := s.surfaceResource()
	if res == nil {
		return
	}

	d := c.comp.display
	if !d.Acquire() {
		c.log.Error("could not acquire display")
		return
	}
	defer d.Release()

	for _, p := range clientPointers(res) {
		p.Button(d.NextSerial(), time, button, state)
	}
}

// setSource makes s the surface that provides the cursor image. A nil
// s hides the cursor.
func (c *Cursor) setSource(s *Surface, hx, hy int32) error {
	if s == nil {
		c.source = nil
		return c.Unset()
	}

	c.source = s
	if img := s.cursorImage(); img != nil {
		c.SetImage(img)
	}
	err := c.SetHotspot(hx, hy)
	if err != nil {
		return err
	}
	if c.hidden {
		return c.Redraw()
	}
	return nil
}

func (c *Cursor) surfaceCommitted(s *Surface) {
	if s != c.source {
		return
	}
	if img := s.cursorImage(); img != nil {
		c.SetImage(img)
		return
	}

	err := c.Unset()
	if err != nil {
		c.log.Warn("hide cursor", "err", err)
	}
}

func (c *Cursor) surfaceDestroyed(s *Surface) {
	if s != c.source {
		return
	}
	c.source = nil
	c.resetImage()
}

// forget drops the active surface without notifying its client, for
// surfaces whose resources are already gone.
func (c *Cursor) forget() {
	c.active = nil
	c.source = nil
	c.resetImage()
}

func clientPointers(res Resource) []Pointer {
	client := res.Client()
	if client == nil {
		return nil
	}
	return client.Pointers()
}

// SetCursorSurface makes surface provide the cursor image, with the
// given hotspot, for as long as the pointer stays on the surface that
// has focus. Only the client that owns that surface may set it. A nil
// surface hides the cursor.
func (c *Compositor) SetCursorSurface(client Client, surface *Surface, hx, hy int32) error {
	active := c.cursor.Active()
	if active == nil || client == nil || active.Client() != client {
		return nil
	}

	if surface != nil {
		err := surface.SetRole(RolePointer)
		if err != nil {
			return err
		}
	}
	return c.cursor.setSource(surface, hx, hy)
}
