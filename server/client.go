package wl

import (
	"errors"
	"fmt"
	"io"
	"net"
	"sync"

	"deedles.dev/kms/compositor"
	"deedles.dev/kms/internal/logger"
	"deedles.dev/kms/internal/objstore"
	"deedles.dev/kms/wire"
	"github.com/charmbracelet/log"
	"golang.org/x/sys/unix"
)

// serverIDStart is the first ID of the range reserved for objects that
// the server creates.
const serverIDStart = 0xFF000000

// object is a protocol object owned by a client.
type object interface {
	wire.Object
	SetID(id uint32)
	Interface() string
	Version() uint32
	Delete()
	Dispatch(msg *wire.MessageBuffer) error
}

// Client is a connected Wayland client.
type Client struct {
	server *Server
	conn   *wire.Conn
	log    *log.Logger
	store  *objstore.Store[object]
	disp   *Display
	out    []*wire.MessageBuilder

	done  chan struct{}
	close sync.Once
	gone  bool

	registries []*Registry
	pointers   []*Pointer
	keyboards  []*Keyboard
}

func newClient(server *Server, conn *wire.Conn) *Client {
	l := server.log
	if cred, err := conn.Credentials(); err == nil {
		l = l.With("pid", cred.Pid)
	}

	c := Client{
		server: server,
		conn:   conn,
		log:    l,
		store:  objstore.New[object](serverIDStart),
		done:   make(chan struct{}),
	}

	c.disp = newDisplay(&c)
	c.store.Add(c.disp)

	c.log.Debug("client connected")
	return &c
}

// listen reads requests and posts them to the server's goroutine until
// the connection fails.
func (c *Client) listen() {
	for {
		msg, err := wire.ReadMessage(c.conn)
		if err != nil {
			c.server.post(func() error {
				if !errors.Is(err, io.EOF) && !errors.Is(err, net.ErrClosed) {
					c.log.Warn("read request", "err", err)
				}
				c.server.removeClient(c)
				return nil
			})
			return
		}

		select {
		case <-c.done:
			return
		default:
		}

		ok := c.server.post(func() error {
			c.dispatch(msg)
			return nil
		})
		if !ok {
			return
		}
	}
}

func (c *Client) dispatch(msg *wire.MessageBuffer) {
	if c.gone {
		return
	}

	err := c.handle(msg)
	if err != nil {
		c.fail(err)
	}
}

func (c *Client) handle(msg *wire.MessageBuffer) error {
	obj, ok := c.store.Get(msg.Sender())
	if !ok {
		return protocolError(c.display(), ErrorInvalidObject, "invalid object %v", msg.Sender())
	}

	op, ok := c.server.requestOp(obj.Interface(), msg.Op())
	if !ok {
		return protocolError(obj, ErrorInvalidMethod, "invalid opcode %v", msg.Op())
	}
	if uint32(op.Since) > obj.Version() {
		return protocolError(obj, ErrorInvalidMethod, "%v requires version %v", op.Name, op.Since)
	}

	err := obj.Dispatch(msg)
	logger.Tracef("%v", msg.Debug(obj))
	return err
}

// fail reports err to the client as a protocol error and disconnects
// it.
func (c *Client) fail(err error) {
	var perr *Error
	if !errors.As(err, &perr) {
		perr = protocolError(c.display(), ErrorImplementation, "%v", err)
	}

	c.log.Warn("protocol error", "err", perr)
	c.display().Error(perr.Object, perr.Code, perr.Msg)
	c.flush()
	c.disconnect()
}

// disconnect removes the client once the current event has been
// handled.
func (c *Client) disconnect() {
	if c.gone {
		return
	}
	c.gone = true
	c.server.post(func() error {
		c.server.removeClient(c)
		return nil
	})
}

func (c *Client) destroy() {
	c.gone = true
	c.close.Do(func() { close(c.done) })
	c.store.Clear()
	c.conn.Close()
	c.log.Debug("client disconnected")
}

func (c *Client) display() *Display {
	return c.disp
}

// add stores a newly created object, failing with a protocol error if
// the client reused an ID.
func (c *Client) add(obj object) error {
	err := c.store.Add(obj)
	if err != nil {
		return protocolError(c.display(), ErrorInvalidObject, "%v", err)
	}
	return nil
}

// remove deletes an object at the client's request and confirms the
// deletion.
func (c *Client) remove(id uint32) {
	if !c.store.Delete(id) {
		return
	}
	if id < serverIDStart {
		c.display().DeleteID(id)
	}
}

// lookup finds an object of type T. ID 0 means null, which is only
// accepted if nullable is true.
func lookup[T object](c *Client, id uint32, nullable bool) (T, error) {
	var zero T
	if id == 0 {
		if nullable {
			return zero, nil
		}
		return zero, protocolError(c.display(), ErrorInvalidObject, "null object")
	}

	obj, ok := c.store.Get(id)
	if !ok {
		return zero, protocolError(c.display(), ErrorInvalidObject, "invalid object %v", id)
	}
	v, ok := obj.(T)
	if !ok {
		return zero, protocolError(c.display(), ErrorInvalidObject, "object %v has the wrong type", obj)
	}
	return v, nil
}

// Enqueue queues an event to be sent on the next flush.
func (c *Client) Enqueue(msg *wire.MessageBuilder) {
	if c.gone && (msg.Sender() != wire.Object(c.disp)) {
		return
	}
	c.out = append(c.out, msg)
}

func (c *Client) flush() {
	out := c.out
	c.out = nil
	for _, msg := range out {
		logger.Tracef(" -> %v", msg)
		err := msg.Build(c.conn)
		if err != nil {
			if !errors.Is(err, unix.EPIPE) && !errors.Is(err, net.ErrClosed) {
				c.log.Warn("send event", "err", err)
			}
			c.disconnect()
			return
		}
	}
}

func (c *Client) Pointers() []compositor.Pointer {
	ps := make([]compositor.Pointer, 0, len(c.pointers))
	for _, p := range c.pointers {
		ps = append(ps, p)
	}
	return ps
}

func (c *Client) Keyboards() []compositor.Keyboard {
	ks := make([]compositor.Keyboard, 0, len(c.keyboards))
	for _, k := range c.keyboards {
		ks = append(ks, k)
	}
	return ks
}

func (c *Client) String() string {
	return fmt.Sprintf("client %p", c)
}
