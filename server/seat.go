package wl

import (
	"errors"

	"deedles.dev/kms/compositor"
	"deedles.dev/kms/internal/xslices"
	"deedles.dev/kms/pointer"
	"deedles.dev/kms/shm"
	"deedles.dev/kms/wire"
)

// SeatName is the name that the only seat advertises.
const SeatName = "seat0"

// Seat is wl_seat.
type Seat struct {
	resource
}

func bindSeat(c *Client, id, version uint32) error {
	s := Seat{resource: newResource(c, seatInterface, id, version)}
	err := c.add(&s)
	if err != nil {
		return err
	}

	s.Capabilities(seatCapabilityPointer | seatCapabilityKeyboard)
	if version >= 2 {
		s.Name(SeatName)
	}
	return nil
}

func (s *Seat) Delete() {}

func (s *Seat) Dispatch(msg *wire.MessageBuffer) error {
	switch msg.Op() {
	case seatGetPointer:
		id := msg.ReadUint()
		if err := msg.Err(); err != nil {
			return err
		}

		p := Pointer{resource: newResource(s.owner, pointerInterface, id, s.version)}
		err := s.owner.add(&p)
		if err != nil {
			return err
		}
		s.owner.pointers = append(s.owner.pointers, &p)
		return nil

	case seatGetKeyboard:
		id := msg.ReadUint()
		if err := msg.Err(); err != nil {
			return err
		}

		k := Keyboard{resource: newResource(s.owner, keyboardInterface, id, s.version)}
		err := s.owner.add(&k)
		if err != nil {
			return err
		}
		s.owner.keyboards = append(s.owner.keyboards, &k)
		return k.noKeymap()

	case seatGetTouch:
		msg.ReadUint()
		if err := msg.Err(); err != nil {
			return err
		}
		return protocolError(s, seatErrorMissingCapability, "no touch devices")

	case seatRelease:
		if err := msg.Err(); err != nil {
			return err
		}
		s.owner.remove(s.id)
		return nil

	default:
		return s.unknownOp(msg.Op())
	}
}

func (s *Seat) Capabilities(caps uint32) {
	mb := event(s, seatCapabilities, "capabilities", caps)
	mb.WriteUint(caps)
	s.send(mb)
}

func (s *Seat) Name(name string) {
	mb := event(s, seatName, "name", name)
	mb.WriteString(name)
	s.send(mb)
}

// Pointer is wl_pointer.
type Pointer struct {
	resource
}

func (p *Pointer) Delete() {
	p.owner.pointers = xslices.Delete(p.owner.pointers, p)
}

func (p *Pointer) Dispatch(msg *wire.MessageBuffer) error {
	switch msg.Op() {
	case pointerSetCursor:
		msg.ReadUint()
		id := msg.ReadUint()
		hx := msg.ReadInt()
		hy := msg.ReadInt()
		if err := msg.Err(); err != nil {
			return err
		}

		s, err := lookup[*Surface](p.owner, id, true)
		if err != nil {
			return err
		}
		var surface *compositor.Surface
		if s != nil {
			surface = s.surface
		}

		err = p.owner.server.comp.SetCursorSurface(p.owner, surface, hx, hy)
		if errors.Is(err, compositor.ErrRoleConflict) {
			return protocolError(p, pointerErrorRole, "%v", err)
		}
		return err

	case pointerRelease:
		if err := msg.Err(); err != nil {
			return err
		}
		p.owner.remove(p.id)
		return nil

	default:
		return p.unknownOp(msg.Op())
	}
}

func (p *Pointer) Enter(serial uint32, surface compositor.Resource, x, y wire.Fixed) {
	id := resourceID(surface)
	mb := event(p, pointerEnter, "enter", serial, id, x, y)
	mb.WriteUint(serial)
	mb.WriteUint(id)
	mb.WriteFixed(x)
	mb.WriteFixed(y)
	p.send(mb)
}

func (p *Pointer) Leave(serial uint32, surface compositor.Resource) {
	id := resourceID(surface)
	mb := event(p, pointerLeave, "leave", serial, id)
	mb.WriteUint(serial)
	mb.WriteUint(id)
	p.send(mb)
}

func (p *Pointer) Motion(time uint32, x, y wire.Fixed) {
	mb := event(p, pointerMotion, "motion", time, x, y)
	mb.WriteUint(time)
	mb.WriteFixed(x)
	mb.WriteFixed(y)
	p.send(mb)
}

func (p *Pointer) Button(serial, time uint32, button pointer.Button, state pointer.ButtonState) {
	mb := event(p, pointerButton, "button", serial, time, button, state)
	mb.WriteUint(serial)
	mb.WriteUint(time)
	mb.WriteUint(uint32(button))
	mb.WriteUint(uint32(state))
	p.send(mb)
}

// Keyboard is wl_keyboard. Focus changes are delivered, but key events
// are not.
type Keyboard struct {
	resource
}

func (k *Keyboard) Delete() {
	k.owner.keyboards = xslices.Delete(k.owner.keyboards, k)
}

func (k *Keyboard) Dispatch(msg *wire.MessageBuffer) error {
	switch msg.Op() {
	case keyboardRelease:
		if err := msg.Err(); err != nil {
			return err
		}
		k.owner.remove(k.id)
		return nil

	default:
		return k.unknownOp(msg.Op())
	}
}

// noKeymap tells the client that there is no keymap. The event still
// carries a file, so an empty one is sent.
func (k *Keyboard) noKeymap() error {
	file, err := shm.Create("keymap", 0)
	if err != nil {
		return err
	}
	defer file.Close()

	mb := event(k, keyboardKeymap, "keymap", keymapFormatNoKeymap, file, 0)
	mb.WriteUint(keymapFormatNoKeymap)
	mb.WriteFile(file)
	mb.WriteUint(0)
	k.send(mb)
	return nil
}

func (k *Keyboard) Enter(serial uint32, surface compositor.Resource, keys []byte) {
	id := resourceID(surface)
	mb := event(k, keyboardEnter, "enter", serial, id, keys)
	mb.WriteUint(serial)
	mb.WriteUint(id)
	mb.WriteArray(keys)
	k.send(mb)
}

func (k *Keyboard) Leave(serial uint32, surface compositor.Resource) {
	id := resourceID(surface)
	mb := event(k, keyboardLeave, "leave", serial, id)
	mb.WriteUint(serial)
	mb.WriteUint(id)
	k.send(mb)
}
