package wl

import (
	"runtime/debug"

	"deedles.dev/kms/compositor"
	"deedles.dev/kms/wire"
)

// Compositor is wl_compositor.
type Compositor struct {
	resource
}

func bindCompositor(c *Client, id, version uint32) error {
	return c.add(&Compositor{resource: newResource(c, compositorInterface, id, version)})
}

func (comp *Compositor) Delete() {}

func (comp *Compositor) Dispatch(msg *wire.MessageBuffer) error {
	switch msg.Op() {
	case compositorCreateSurface:
		id := msg.ReadUint()
		if err := msg.Err(); err != nil {
			return err
		}

		s := Surface{resource: newResource(comp.owner, surfaceInterface, id, comp.version)}
		err := comp.owner.add(&s)
		if err != nil {
			return err
		}
		s.surface = comp.owner.server.comp.NewSurface(&s)
		return nil

	case compositorCreateRegion:
		id := msg.ReadUint()
		if err := msg.Err(); err != nil {
			return err
		}

		r := Region{resource: newResource(comp.owner, regionInterface, id, 1)}
		r.region = compositor.NewRegion(&r)
		return comp.owner.add(&r)

	default:
		return comp.unknownOp(msg.Op())
	}
}

// Surface is wl_surface.
type Surface struct {
	resource
	surface *compositor.Surface

	pending *Buffer
	px, py  int32
}

func (s *Surface) Delete() {
	if s.surface == nil {
		return
	}
	s.surface.Destroy()
	s.surface = nil
}

func (s *Surface) Dispatch(msg *wire.MessageBuffer) error {
	switch msg.Op() {
	case surfaceDestroy:
		if err := msg.Err(); err != nil {
			return err
		}
		s.owner.remove(s.id)
		return nil

	case surfaceAttach:
		bufID := msg.ReadUint()
		x := msg.ReadInt()
		y := msg.ReadInt()
		if err := msg.Err(); err != nil {
			return err
		}

		buf, err := lookup[*Buffer](s.owner, bufID, true)
		if err != nil {
			return err
		}
		s.pending, s.px, s.py = buf, x, y
		if buf == nil {
			s.surface.Attach(nil, x, y)
			return nil
		}
		s.surface.Attach(buf, x, y)
		return nil

	case surfaceDamage, surfaceDamageBuffer:
		x := msg.ReadInt()
		y := msg.ReadInt()
		w := msg.ReadInt()
		h := msg.ReadInt()
		if err := msg.Err(); err != nil {
			return err
		}
		s.surface.Damage(x, y, w, h)
		return nil

	case surfaceFrame:
		id := msg.ReadUint()
		if err := msg.Err(); err != nil {
			return err
		}

		cb := newCallback(s.owner, id)
		err := s.owner.add(cb)
		if err != nil {
			return err
		}
		s.surface.Frame(cb)
		return nil

	case surfaceSetOpaqueRegion:
		id := msg.ReadUint()
		if err := msg.Err(); err != nil {
			return err
		}
		_, err := lookup[*Region](s.owner, id, true)
		return err

	case surfaceSetInputRegion:
		id := msg.ReadUint()
		if err := msg.Err(); err != nil {
			return err
		}

		r, err := lookup[*Region](s.owner, id, true)
		if err != nil {
			return err
		}
		if r == nil {
			s.surface.SetInputRegion(nil)
			return nil
		}
		s.surface.SetInputRegion(r.region)
		return nil

	case surfaceCommit:
		if err := msg.Err(); err != nil {
			return err
		}
		return s.commit()

	case surfaceSetBufferTransform:
		transform := msg.ReadInt()
		if err := msg.Err(); err != nil {
			return err
		}
		if (transform < 0) || (transform > 7) {
			return protocolError(s, surfaceErrorInvalidTransform, "invalid transform %v", transform)
		}
		if transform != 0 {
			s.owner.log.Debug("ignoring buffer transform", "surface", s.id, "transform", transform)
		}
		return nil

	case surfaceSetBufferScale:
		scale := msg.ReadInt()
		if err := msg.Err(); err != nil {
			return err
		}
		if scale < 1 {
			return protocolError(s, surfaceErrorInvalidScale, "invalid scale %v", scale)
		}
		return nil

	default:
		return s.unknownOp(msg.Op())
	}
}

// commit commits the surface, turning a fault while reading a client's
// shared memory into an error instead of a crash. Clients can cause
// that by shrinking the file behind a pool.
func (s *Surface) commit() (err error) {
	old := debug.SetPanicOnFault(true)
	defer func() {
		debug.SetPanicOnFault(old)
		if r := recover(); r != nil {
			err = protocolError(s, shmErrorInvalidFD, "fault reading buffer: %v", r)
		}
	}()

	// A buffer destroyed between attach and commit counts as null.
	if (s.pending != nil) && s.pending.destroyed() {
		s.surface.Attach(nil, s.px, s.py)
	}
	s.pending = nil

	err = s.surface.Commit()
	if err != nil {
		s.owner.log.Warn("commit", "surface", s.id, "err", err)
	}
	return nil
}

// Region is wl_region.
type Region struct {
	resource
	region *compositor.Region
}

func (r *Region) Delete() {}

func (r *Region) Dispatch(msg *wire.MessageBuffer) error {
	switch msg.Op() {
	case regionDestroy:
		if err := msg.Err(); err != nil {
			return err
		}
		r.owner.remove(r.id)
		return nil

	case regionAdd, regionSubtract:
		x := msg.ReadInt()
		y := msg.ReadInt()
		w := msg.ReadInt()
		h := msg.ReadInt()
		if err := msg.Err(); err != nil {
			return err
		}
		if (w <= 0) || (h <= 0) {
			return nil
		}

		if msg.Op() == regionAdd {
			r.region.Add(x, y, w, h)
			return nil
		}
		r.region.Subtract(x, y, w, h)
		return nil

	default:
		return r.unknownOp(msg.Op())
	}
}
