// Package wl implements the server side of the core Wayland protocol
// on top of a compositor.
package wl

import (
	"errors"
	"fmt"
	"net"
	"sync"

	"deedles.dev/kms/compositor"
	"deedles.dev/kms/internal/logger"
	"deedles.dev/kms/internal/set"
	"deedles.dev/kms/protocol"
	"deedles.dev/kms/wire"
	"github.com/charmbracelet/log"
)

// Options configure a Server.
type Options struct {
	// Post runs f on the goroutine that owns the compositor. It
	// returns false if that goroutine is no longer running. Every
	// request is dispatched through Post.
	Post func(f func() error) bool

	Logger *log.Logger
}

// Server accepts clients on a socket and dispatches their requests to a
// compositor. Apart from Close, its methods must only be called from
// the goroutine that Post delivers to.
type Server struct {
	lis  *wire.Listener
	post func(func() error) bool
	log  *log.Logger
	reqs map[string][]protocol.Op

	done  chan struct{}
	close sync.Once

	comp     *compositor.Compositor
	clients  set.Set[*Client]
	globals  []*global
	nextName uint32
	serial   uint32
	closed   bool
}

// NewServer creates a server that will accept clients on lis once
// Serve is called.
func NewServer(lis *wire.Listener, opts Options) (*Server, error) {
	core, err := protocol.Core()
	if err != nil {
		return nil, err
	}
	reqs := make(map[string][]protocol.Op, len(core.Interfaces))
	for _, iface := range core.Interfaces {
		reqs[iface.Name] = iface.Requests
	}

	if opts.Logger == nil {
		opts.Logger = logger.Logger
	}

	return &Server{
		lis:      lis,
		post:     opts.Post,
		log:      opts.Logger.With("socket", lis.Name()),
		reqs:     reqs,
		done:     make(chan struct{}),
		clients:  make(set.Set[*Client]),
		nextName: 1,
	}, nil
}

// Serve publishes the compositor's globals and starts accepting
// clients.
func (s *Server) Serve(comp *compositor.Compositor) {
	s.comp = comp

	s.addGlobal(compositorInterface, compositorVersion, bindCompositor)
	s.addGlobal(shmInterface, shmVersion, bindShm)
	s.addGlobal(seatInterface, seatVersion, bindSeat)
	s.addGlobal(shellInterface, shellVersion, bindShell)
	comp.OnMonitor(func(m *compositor.Monitor) {
		s.addGlobal(outputInterface, outputVersion, func(c *Client, id, version uint32) error {
			return bindOutput(c, id, version, m)
		})
	})

	go s.listen()
}

func (s *Server) listen() {
	for {
		conn, err := s.lis.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return
			}
			s.log.Error("accept", "err", err)
			continue
		}

		ok := s.post(func() error {
			s.addClient(conn)
			return nil
		})
		if !ok {
			conn.Close()
			return
		}
	}
}

func (s *Server) addClient(conn *wire.Conn) {
	if s.closed {
		conn.Close()
		return
	}

	c := newClient(s, conn)
	s.clients.Add(c)
	go c.listen()
}

func (s *Server) removeClient(c *Client) {
	if !s.clients.Has(c) {
		return
	}
	s.clients.Remove(c)
	c.destroy()
}

// Compositor returns the compositor that the server serves.
func (s *Server) Compositor() *compositor.Compositor {
	return s.comp
}

// Name returns the value clients should use for $WAYLAND_DISPLAY.
func (s *Server) Name() string {
	return s.lis.Name()
}

// Clients returns the number of connected clients.
func (s *Server) Clients() int {
	return len(s.clients)
}

// Acquire reports whether events may be sent. Every Acquire that
// returns true must be paired with a Release.
func (s *Server) Acquire() bool {
	return !s.closed
}

// Release flushes the events queued since Acquire.
func (s *Server) Release() {
	s.Flush()
}

func (s *Server) NextSerial() uint32 {
	s.serial++
	return s.serial
}

// Flush sends every queued event to its client. Clients that cannot be
// written to are disconnected.
func (s *Server) Flush() {
	for c := range s.clients {
		c.flush()
	}
}

// Close stops accepting clients and disconnects every client. It may
// be called from any goroutine.
func (s *Server) Close() error {
	var err error
	s.close.Do(func() {
		close(s.done)
		err = s.lis.Close()

		ok := s.post(func() error {
			s.shutdown()
			return nil
		})
		if !ok {
			s.closed = true
		}
	})
	return err
}

func (s *Server) shutdown() {
	s.closed = true
	for c := range s.clients {
		s.removeClient(c)
	}
}

// requestOp returns the definition of a request, if the interface has
// one with the given opcode.
func (s *Server) requestOp(iface string, op uint16) (protocol.Op, bool) {
	ops := s.reqs[iface]
	if int(op) >= len(ops) {
		return protocol.Op{}, false
	}
	return ops[op], true
}

type global struct {
	name    uint32
	iface   string
	version uint32
	bind    func(c *Client, id, version uint32) error
}

func (s *Server) addGlobal(iface string, version uint32, bind func(c *Client, id, version uint32) error) {
	g := global{
		name:    s.nextName,
		iface:   iface,
		version: version,
		bind:    bind,
	}
	s.nextName++
	s.globals = append(s.globals, &g)

	for c := range s.clients {
		for _, r := range c.registries {
			r.Global(g.name, g.iface, g.version)
		}
	}
	s.Flush()
}

func (s *Server) global(name uint32) (*global, bool) {
	for _, g := range s.globals {
		if g.name == name {
			return g, true
		}
	}
	return nil, false
}

// Error is a protocol error. It is sent to the client as a
// wl_display.error event, after which the client is disconnected.
type Error struct {
	Object wire.Object
	Code   uint32
	Msg    string
}

func protocolError(obj wire.Object, code uint32, format string, args ...any) *Error {
	return &Error{Object: obj, Code: code, Msg: fmt.Sprintf(format, args...)}
}

func (err *Error) Error() string {
	return fmt.Sprintf("%v: error %v: %v", err.Object, err.Code, err.Msg)
}
