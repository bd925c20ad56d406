package wl

import (
	"fmt"

	"deedles.dev/kms/compositor"
	"deedles.dev/kms/internal/xslices"
	"deedles.dev/kms/wire"
)

// resource is the part of every protocol object that identifies it.
type resource struct {
	owner   *Client
	id      uint32
	iface   string
	version uint32
}

func newResource(c *Client, iface string, id, version uint32) resource {
	return resource{owner: c, id: id, iface: iface, version: version}
}

func (r *resource) ID() uint32 {
	return r.id
}

func (r *resource) SetID(id uint32) {
	r.id = id
}

func (r *resource) Interface() string {
	return r.iface
}

func (r *resource) Version() uint32 {
	return r.version
}

func (r *resource) Client() compositor.Client {
	return r.owner
}

func (r *resource) MethodName(op uint16) string {
	req, ok := r.owner.server.requestOp(r.iface, op)
	if !ok {
		return fmt.Sprintf("unknown%v", op)
	}
	return req.Name
}

func (r *resource) String() string {
	return fmt.Sprintf("%v@%v", r.iface, r.id)
}

// event starts an event message from obj. The event is sent when it is
// passed to send.
func event(obj wire.Object, op uint16, method string, args ...any) *wire.MessageBuilder {
	mb := wire.NewMessage(obj, op)
	mb.Method = method
	mb.Args = args
	return mb
}

func (r *resource) send(mb *wire.MessageBuilder) {
	r.owner.Enqueue(mb)
}

func (r *resource) unknownOp(op uint16) error {
	return protocolError(r, ErrorInvalidMethod, "invalid opcode %v", op)
}

// resourceID returns the protocol ID of res, or 0 for nil.
func resourceID(res compositor.Resource) uint32 {
	if res == nil {
		return 0
	}
	return res.ID()
}

// Display is wl_display.
type Display struct {
	resource
}

func newDisplay(c *Client) *Display {
	return &Display{resource: newResource(c, displayInterface, 1, 1)}
}

func (d *Display) Delete() {}

func (d *Display) Dispatch(msg *wire.MessageBuffer) error {
	switch msg.Op() {
	case displaySync:
		id := msg.ReadUint()
		if err := msg.Err(); err != nil {
			return err
		}
		cb := newCallback(d.owner, id)
		err := d.owner.add(cb)
		if err != nil {
			return err
		}
		cb.Done(d.owner.server.NextSerial())
		return nil

	case displayGetRegistry:
		id := msg.ReadUint()
		if err := msg.Err(); err != nil {
			return err
		}
		return newRegistry(d.owner, id)

	default:
		return d.unknownOp(msg.Op())
	}
}

func (d *Display) Error(obj wire.Object, code uint32, msg string) {
	mb := event(d, displayError, "error", obj, code, msg)
	mb.WriteObject(obj)
	mb.WriteUint(code)
	mb.WriteString(msg)
	d.send(mb)
}

func (d *Display) DeleteID(id uint32) {
	mb := event(d, displayDeleteID, "delete_id", id)
	mb.WriteUint(id)
	d.send(mb)
}

// Callback is wl_callback.
type Callback struct {
	resource
	done bool
}

func newCallback(c *Client, id uint32) *Callback {
	return &Callback{resource: newResource(c, callbackInterface, id, 1)}
}

func (cb *Callback) Delete() {}

func (cb *Callback) Dispatch(msg *wire.MessageBuffer) error {
	return cb.unknownOp(msg.Op())
}

// Done sends the callback's only event, which destroys it.
func (cb *Callback) Done(data uint32) {
	if cb.done {
		return
	}
	cb.done = true

	mb := event(cb, callbackDone, "done", data)
	mb.WriteUint(data)
	cb.send(mb)
	cb.owner.remove(cb.id)
}

// Registry is wl_registry.
type Registry struct {
	resource
}

func newRegistry(c *Client, id uint32) error {
	r := Registry{resource: newResource(c, registryInterface, id, 1)}
	err := c.add(&r)
	if err != nil {
		return err
	}
	c.registries = append(c.registries, &r)

	for _, g := range c.server.globals {
		r.Global(g.name, g.iface, g.version)
	}
	return nil
}

func (r *Registry) Delete() {
	r.owner.registries = xslices.Delete(r.owner.registries, r)
}

func (r *Registry) Dispatch(msg *wire.MessageBuffer) error {
	switch msg.Op() {
	case registryBind:
		name := msg.ReadUint()
		id := msg.ReadNewID()
		if err := msg.Err(); err != nil {
			return err
		}

		g, ok := r.owner.server.global(name)
		if !ok {
			return protocolError(r, ErrorInvalidObject, "invalid global %v", name)
		}
		if g.iface != id.Interface {
			return protocolError(r, ErrorInvalidObject, "global %v is %v, not %v", name, g.iface, id.Interface)
		}
		if (id.Version == 0) || (id.Version > g.version) {
			return protocolError(r, ErrorInvalidObject, "invalid version %v for %v, max %v", id.Version, g.iface, g.version)
		}

		return g.bind(r.owner, id.ID, id.Version)

	default:
		return r.unknownOp(msg.Op())
	}
}

func (r *Registry) Global(name uint32, iface string, version uint32) {
	mb := event(r, registryGlobal, "global", name, iface, version)
	mb.WriteUint(name)
	mb.WriteString(iface)
	mb.WriteUint(version)
	r.send(mb)
}
