package wl

import (
	"deedles.dev/kms/compositor"
	"deedles.dev/kms/wire"
)

// Output is wl_output, bound to one monitor.
type Output struct {
	resource
	monitor *compositor.Monitor
}

func bindOutput(c *Client, id, version uint32, m *compositor.Monitor) error {
	o := Output{
		resource: newResource(c, outputInterface, id, version),
		monitor:  m,
	}
	err := c.add(&o)
	if err != nil {
		return err
	}

	m.Bind(&o)
	return nil
}

func (o *Output) Delete() {
	o.monitor.Unbind(o)
}

func (o *Output) Dispatch(msg *wire.MessageBuffer) error {
	switch msg.Op() {
	case outputRelease:
		if err := msg.Err(); err != nil {
			return err
		}
		o.owner.remove(o.id)
		return nil

	default:
		return o.unknownOp(msg.Op())
	}
}

func (o *Output) Geometry(x, y, physWidth, physHeight, subpixel int32, make, model string, transform int32) {
	mb := event(o, outputGeometry, "geometry", x, y, physWidth, physHeight, subpixel, make, model, transform)
	mb.WriteInt(x)
	mb.WriteInt(y)
	mb.WriteInt(physWidth)
	mb.WriteInt(physHeight)
	mb.WriteInt(subpixel)
	mb.WriteString(make)
	mb.WriteString(model)
	mb.WriteInt(transform)
	o.send(mb)
}

func (o *Output) Mode(flags uint32, width, height, refresh int32) {
	mb := event(o, outputMode, "mode", flags, width, height, refresh)
	mb.WriteUint(flags)
	mb.WriteInt(width)
	mb.WriteInt(height)
	mb.WriteInt(refresh)
	o.send(mb)
}

// Done ends a batch of output information. Version 1 outputs do not
// have the event.
func (o *Output) Done() {
	if o.version < 2 {
		return
	}
	o.send(event(o, outputDone, "done"))
}
