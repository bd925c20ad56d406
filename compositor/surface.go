package compositor

import (
	"errors"
	"fmt"
	"image"

	"deedles.dev/kms/buffer"
	"deedles.dev/kms/object"
	"deedles.dev/kms/render"
	"github.com/charmbracelet/log"
	"golang.org/x/image/draw"
	"golang.org/x/sys/unix"
)

// ErrRoleConflict is returned when a surface that already has a role
// is given a different one.
var ErrRoleConflict = fmt.Errorf("surface already has another role: %w", unix.EEXIST)

var SurfaceType = object.NewType("surface", WaylandObjectType)

// Role is what a surface is used as. A surface gets at most one role
// for its whole lifetime.
type Role uint8

const (
	RoleNone Role = iota
	RoleShell
	RolePointer
)

func (r Role) String() string {
	switch r {
	case RoleNone:
		return "none"
	case RoleShell:
		return "shell"
	case RolePointer:
		return "pointer"
	}
	return fmt.Sprintf("Role(%d)", uint8(r))
}

// PendingFlags record which parts of a surface's pending state have
// been set since the last commit.
type PendingFlags uint8

const (
	Attached PendingFlags = 1 << iota
	Damaged
)

type pendingState struct {
	buf   ClientBuffer
	flags PendingFlags
	x, y  int32
}

// Surface is a wl_surface. Requests change its pending state and
// Commit publishes that state.
type Surface struct {
	WaylandObject
	comp *Compositor
	log  *log.Logger

	pending pendingState

	tex    render.Texture
	x, y   int32
	width  int
	height int

	// image is a copy of the committed buffer of a pointer surface.
	image *buffer.Raw

	input  *Region
	frames []FrameCallback
	role   Role
	parent *ShellSurface
}

// NewSurface creates a surface for res. The caller owns the returned
// reference.
func (c *Compositor) NewSurface(res Resource) *Surface {
	s := Surface{comp: c}
	s.initWayland(SurfaceType, &s, res)

	var id uint32
	if res != nil {
		id = res.ID()
	}
	s.log = c.log.With("surface", id)
	return &s
}

// Attach sets the pending buffer and offset. A nil buf detaches the
// current buffer on commit.
func (s *Surface) Attach(buf ClientBuffer, x, y int32) {
	s.pending.buf = buf
	s.pending.x = x
	s.pending.y = y
	s.pending.flags |= Attached
}

// Damage marks part of the surface as changed. Commits always upload
// the whole buffer, so the area itself is not kept.
func (s *Surface) Damage(x, y, width, height int32) {
	s.pending.flags |= Damaged
}

// Frame registers cb to be called the next time the surface's content
// is committed. Every callback registered before that commit is called,
// in the order they were registered.
func (s *Surface) Frame(cb FrameCallback) {
	s.frames = append(s.frames, cb)
}

// SetInputRegion restricts pointer input to r. A nil region accepts
// input everywhere.
func (s *Surface) SetInputRegion(r *Region) {
	if r == nil {
		s.input = nil
		return
	}
	s.input = r.Copy()
}

// Pending returns the flags set since the last commit.
func (s *Surface) Pending() PendingFlags {
	return s.pending.flags
}

// Commit publishes the pending state. Pending flags are always clear
// afterwards.
func (s *Surface) Commit() error {
	defer func() { s.pending = pendingState{} }()

	if s.pending.flags&Attached == 0 {
		return nil
	}

	s.x, s.y = s.pending.x, s.pending.y

	var err error
	buf := s.pending.buf
	switch {
	case buf == nil:
		if s.tex != nil {
			s.tex.Destroy()
			s.tex = nil
		}
		s.image = nil
		s.width, s.height = 0, 0
		if s.Role() == RolePointer {
			s.comp.cursor.surfaceCommitted(s)
		}

	default:
		b := buf.Buffer()
		s.width, s.height = b.Width(), b.Height()

		if s.Role() == RolePointer {
			s.setCursorImage(b)
			s.comp.cursor.surfaceCommitted(s)
			break
		}

		s.tex, err = s.comp.renderer.Upload(s.tex, b)
		if err != nil {
			err = fmt.Errorf("upload: %w", err)
		}
	}

	if p := s.Parent(); p != nil {
		p.committed(s.width, s.height)
	}

	if len(s.frames) > 0 {
		now := s.comp.Now()
		for _, cb := range s.frames {
			cb.Done(now)
		}
		clear(s.frames)
		s.frames = s.frames[:0]
	}

	if buf != nil {
		buf.Release()
	}

	return err
}

// SetRole gives the surface a role. Setting the role that the surface
// already has succeeds.
func (s *Surface) SetRole(role Role) error {
	s.Lock()
	defer s.Unlock()

	if role == RoleNone {
		return errors.New("cannot clear a surface's role")
	}
	if s.role != RoleNone && s.role != role {
		return fmt.Errorf("set role %v on %v surface: %w", role, s.role, ErrRoleConflict)
	}
	s.role = role
	return nil
}

func (s *Surface) Role() Role {
	s.RLock()
	defer s.RUnlock()
	return s.role
}

// Parent returns the shell surface that displays s, if any.
func (s *Surface) Parent() *ShellSurface {
	s.RLock()
	defer s.RUnlock()
	return s.parent
}

func (s *Surface) setParent(p *ShellSurface) {
	s.Lock()
	defer s.Unlock()
	s.parent = p
}

// Offset is the position of the buffer relative to the surface, as
// given with the last committed attach.
func (s *Surface) Offset() (x, y int32) {
	return s.x, s.y
}

func (s *Surface) Size() (width, height int) {
	return s.width, s.height
}

func (s *Surface) Texture() render.Texture {
	return s.tex
}

// setCursorImage copies b into the surface's cursor image, which is
// always ARGB8888 to match the cursor plane. Opaque formats come out
// with full alpha.
func (s *Surface) setCursorImage(b buffer.Buffer) {
	w, h := min(b.Width(), CursorSize), min(b.Height(), CursorSize)
	if s.image == nil || s.image.Width() != w || s.image.Height() != h {
		s.image = buffer.NewRaw(w, h, buffer.ARGB8888)
	}
	if b.Format() == buffer.ARGB8888 {
		buffer.Copy(s.image, b)
		return
	}

	b.BeginAccess()
	defer b.EndAccess()

	dst := buffer.View(s.image)
	src := buffer.View(b)
	if src == nil {
		draw.Draw(dst, dst.Bounds(), image.Transparent, image.Point{}, draw.Src)
		return
	}
	draw.Draw(dst, dst.Bounds(), src, image.Point{}, draw.Src)
}

func (s *Surface) cursorImage() buffer.Buffer {
	if s.image == nil {
		return nil
	}
	return s.image
}

// accepts reports whether the surface-local point is in the input
// region.
func (s *Surface) accepts(x, y int) bool {
	return s.input == nil || s.input.Contains(x, y)
}

// Destroy is called when the surface's resource is destroyed. The
// surface is removed from every monitor and the cursor stops using it,
// then the creator's reference is dropped.
func (s *Surface) Destroy() {
	c := s.comp

	if p := s.Parent(); p != nil {
		for _, m := range c.monitors {
			m.removeSurface(p)
		}
		if c.cursor.Active() == p {
			c.cursor.forget()
		}
	}
	c.cursor.surfaceDestroyed(s)
	c.focus.surfaceDestroyed(s)

	if s.pending.buf != nil {
		s.pending = pendingState{}
	}

	s.SetResource(nil)
	s.Unref()
}

func (s *Surface) Deinit() {
	if s.tex != nil {
		s.tex.Destroy()
		s.tex = nil
	}
	s.log.Debug("surface released")
}
