package main

import (
	"fmt"
	"io"

	"deedles.dev/kms/wire"
	"github.com/spf13/cobra"
)

var globalsCmd = &cobra.Command{
	Use:   "globals",
	Short: "List the globals of a running Wayland display",
	Long: `Connect to the display named by WAYLAND_DISPLAY, or WAYLAND_SOCKET if
set, and print every global that it advertises. Outputs are bound so
that their geometry and modes can be printed too.`,
	Args: cobra.NoArgs,
	RunE: listGlobals,
}

const (
	displaySync        = 0
	displayGetRegistry = 1
	displayError       = 0
	registryBind       = 0
	registryGlobal     = 0
	callbackDone       = 0
	outputGeometry     = 0
	outputMode         = 1
)

type objectID uint32

func (id objectID) ID() uint32                  { return uint32(id) }
func (id objectID) MethodName(op uint16) string { return fmt.Sprintf("op %v", op) }

type globalsClient struct {
	conn *wire.Conn
	next objectID
	w    io.Writer
}

func (c *globalsClient) newID() objectID {
	c.next++
	return c.next
}

func (c *globalsClient) send(obj objectID, op uint16, args ...uint32) error {
	mb := wire.NewMessage(obj, op)
	for _, arg := range args {
		mb.WriteUint(arg)
	}
	return mb.Build(c.conn)
}

// roundTrip sends a sync and handles events until it is done.
func (c *globalsClient) roundTrip(handle func(*wire.MessageBuffer) error) error {
	cb := c.newID()
	err := c.send(1, displaySync, uint32(cb))
	if err != nil {
		return err
	}

	for {
		msg, err := wire.ReadMessage(c.conn)
		if err != nil {
			return err
		}

		switch msg.Sender() {
		case uint32(cb):
			if msg.Op() == callbackDone {
				return nil
			}
		case 1:
			if msg.Op() == displayError {
				obj, code, text := msg.ReadUint(), msg.ReadUint(), msg.ReadString()
				return fmt.Errorf("protocol error on object %v: %v: %v", obj, code, text)
			}
		default:
			err := handle(msg)
			if err != nil {
				return err
			}
		}
	}
}

func listGlobals(cmd *cobra.Command, args []string) error {
	conn, err := wire.Dial()
	if err != nil {
		return fmt.Errorf("dial display: %w", err)
	}
	defer conn.Close()

	c := globalsClient{conn: conn, next: 1, w: cmd.OutOrStdout()}
	reg := c.newID()
	err = c.send(1, displayGetRegistry, uint32(reg))
	if err != nil {
		return err
	}

	outputs := make(map[uint32]uint32)
	err = c.roundTrip(func(msg *wire.MessageBuffer) error {
		if (msg.Sender() != uint32(reg)) || (msg.Op() != registryGlobal) {
			return nil
		}
		name, iface, version := msg.ReadUint(), msg.ReadString(), msg.ReadUint()
		if err := msg.Err(); err != nil {
			return err
		}
		fmt.Fprintf(c.w, "%v %v\n", titleStyle.Render(iface), dimStyle.Render(fmt.Sprintf("name %v, version %v", name, version)))

		if iface == "wl_output" {
			id := c.newID()
			mb := wire.NewMessage(reg, registryBind)
			mb.WriteUint(name)
			mb.WriteNewID(wire.NewID{Interface: iface, Version: 1, ID: uint32(id)})
			outputs[uint32(id)] = name
			return mb.Build(c.conn)
		}
		return nil
	})
	if err != nil {
		return err
	}
	if len(outputs) == 0 {
		return nil
	}

	return c.roundTrip(func(msg *wire.MessageBuffer) error {
		name, ok := outputs[msg.Sender()]
		if !ok {
			return nil
		}

		switch msg.Op() {
		case outputGeometry:
			x, y, pw, ph := msg.ReadInt(), msg.ReadInt(), msg.ReadInt(), msg.ReadInt()
			msg.ReadInt()
			vendor, model := msg.ReadString(), msg.ReadString()
			fmt.Fprintf(c.w, "output %v: %v,%v %vx%v mm %q %q\n", name, x, y, pw, ph, vendor, model)
		case outputMode:
			flags, w, h, refresh := msg.ReadUint(), msg.ReadInt(), msg.ReadInt(), msg.ReadInt()
			line := fmt.Sprintf("output %v: %vx%v@%v", name, w, h, refresh)
			if flags&0x1 != 0 {
				fmt.Fprintln(c.w, okStyle.Render(line+" current"))
				return msg.Err()
			}
			fmt.Fprintln(c.w, line)
		}
		return msg.Err()
	})
}
