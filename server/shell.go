package wl

import (
	"errors"

	"deedles.dev/kms/compositor"
	"deedles.dev/kms/wire"
)

// Shell is wl_shell.
type Shell struct {
	resource
}

func bindShell(c *Client, id, version uint32) error {
	return c.add(&Shell{resource: newResource(c, shellInterface, id, version)})
}

func (s *Shell) Delete() {}

func (s *Shell) Dispatch(msg *wire.MessageBuffer) error {
	switch msg.Op() {
	case shellGetShellSurface:
		id := msg.ReadUint()
		surfaceID := msg.ReadUint()
		if err := msg.Err(); err != nil {
			return err
		}

		surface, err := lookup[*Surface](s.owner, surfaceID, false)
		if err != nil {
			return err
		}

		ss := ShellSurface{resource: newResource(s.owner, shellSurfaceInterface, id, 1)}
		err = s.owner.add(&ss)
		if err != nil {
			return err
		}

		ss.shell, err = s.owner.server.comp.NewShellSurface(&ss, surface.surface)
		if err != nil {
			s.owner.store.Delete(id)
			if errors.Is(err, compositor.ErrRoleConflict) {
				return protocolError(s, shellErrorRole, "%v", err)
			}
			return err
		}
		return nil

	default:
		return s.unknownOp(msg.Op())
	}
}

// ShellSurface is wl_shell_surface.
type ShellSurface struct {
	resource
	shell *compositor.ShellSurface
	title string
	class string
}

func (s *ShellSurface) Delete() {
	if s.shell == nil {
		return
	}
	s.shell.Destroy()
	s.shell = nil
}

func (s *ShellSurface) Dispatch(msg *wire.MessageBuffer) error {
	switch msg.Op() {
	case shellSurfacePong:
		msg.ReadUint()
		return msg.Err()

	case shellSurfaceMove:
		msg.ReadUint()
		msg.ReadUint()
		return msg.Err()

	case shellSurfaceResize:
		msg.ReadUint()
		msg.ReadUint()
		msg.ReadUint()
		return msg.Err()

	case shellSurfaceSetToplevel:
		return msg.Err()

	case shellSurfaceSetTransient:
		parent := msg.ReadUint()
		x := msg.ReadInt()
		y := msg.ReadInt()
		msg.ReadUint()
		if err := msg.Err(); err != nil {
			return err
		}
		return s.placeNear(parent, x, y)

	case shellSurfaceSetPopup:
		msg.ReadUint()
		msg.ReadUint()
		parent := msg.ReadUint()
		x := msg.ReadInt()
		y := msg.ReadInt()
		msg.ReadUint()
		if err := msg.Err(); err != nil {
			return err
		}
		return s.placeNear(parent, x, y)

	case shellSurfaceSetFullscreen:
		msg.ReadUint()
		msg.ReadUint()
		out := msg.ReadUint()
		if err := msg.Err(); err != nil {
			return err
		}
		return s.fill(out)

	case shellSurfaceSetMaximized:
		out := msg.ReadUint()
		if err := msg.Err(); err != nil {
			return err
		}
		return s.fill(out)

	case shellSurfaceSetTitle:
		s.title = msg.ReadString()
		return msg.Err()

	case shellSurfaceSetClass:
		s.class = msg.ReadString()
		return msg.Err()

	default:
		return s.unknownOp(msg.Op())
	}
}

// placeNear positions the surface relative to the shell surface of
// parent.
func (s *ShellSurface) placeNear(parentID uint32, x, y int32) error {
	parent, err := lookup[*Surface](s.owner, parentID, false)
	if err != nil {
		return err
	}

	p := parent.surface.Parent()
	if p == nil {
		return nil
	}
	px, py, _, _ := p.Geometry()
	s.shell.SetPos(px+x, py+y)
	return nil
}

// fill moves the surface to the corner of a monitor and asks the
// client to cover it. A null output means the surface's own monitor.
func (s *ShellSurface) fill(outID uint32) error {
	out, err := lookup[*Output](s.owner, outID, true)
	if err != nil {
		return err
	}

	m := s.shell.Monitor()
	if out != nil {
		m = out.monitor
	}
	if m == nil {
		return nil
	}

	w, h := m.Size()
	s.shell.SetPos(0, 0)
	s.shell.SetWidthAndHeight(int32(w), int32(h))
	return nil
}

func (s *ShellSurface) Title() string {
	return s.title
}

func (s *ShellSurface) Class() string {
	return s.class
}

func (s *ShellSurface) Configure(edges uint32, width, height int32) {
	mb := event(s, shellSurfaceConfigure, "configure", edges, width, height)
	mb.WriteUint(edges)
	mb.WriteInt(width)
	mb.WriteInt(height)
	s.send(mb)
}
