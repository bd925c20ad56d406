package ipc

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"sync"

	"deedles.dev/kms/compositor"
	"deedles.dev/kms/internal/logger"
	"deedles.dev/kms/object"
	"github.com/charmbracelet/log"
	"golang.org/x/sys/unix"
)

// Server answers requests on the control socket. Requests are executed
// on the compositor's goroutine through post.
type Server struct {
	path string
	lis  net.Listener
	comp *compositor.Compositor
	post func(func() error) bool
	log  *log.Logger

	wg    sync.WaitGroup
	m     sync.Mutex
	conns map[net.Conn]struct{}
	close sync.Once
}

// Listen creates the socket at path, replacing a stale one, and starts
// serving requests for comp.
func Listen(path string, comp *compositor.Compositor, post func(func() error) bool) (*Server, error) {
	err := os.MkdirAll(filepath.Dir(path), 0700)
	if err != nil {
		return nil, fmt.Errorf("create socket directory: %w", err)
	}
	err = os.Remove(path)
	if (err != nil) && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("remove stale socket: %w", err)
	}

	lis, err := net.Listen("unix", path)
	if err != nil {
		return nil, fmt.Errorf("listen: %w", err)
	}
	err = os.Chmod(path, 0600)
	if err != nil {
		lis.Close()
		return nil, fmt.Errorf("set socket permissions: %w", err)
	}

	s := Server{
		path:  path,
		lis:   lis,
		comp:  comp,
		post:  post,
		log:   logger.With("ipc", path),
		conns: make(map[net.Conn]struct{}),
	}
	s.wg.Add(1)
	go s.accept()

	s.log.Info("listening")
	return &s, nil
}

// Path returns the path of the socket.
func (s *Server) Path() string {
	return s.path
}

// Close stops the server, disconnects every client, and removes the
// socket.
func (s *Server) Close() error {
	var err error
	s.close.Do(func() {
		err = s.lis.Close()

		s.m.Lock()
		for c := range s.conns {
			c.Close()
		}
		s.m.Unlock()

		s.wg.Wait()
		os.Remove(s.path)
	})
	return err
}

func (s *Server) accept() {
	defer s.wg.Done()

	for {
		c, err := s.lis.Accept()
		if err != nil {
			if !errors.Is(err, net.ErrClosed) {
				s.log.Error("accept", "err", err)
			}
			return
		}

		s.m.Lock()
		s.conns[c] = struct{}{}
		s.m.Unlock()

		s.wg.Add(1)
		go s.handle(c)
	}
}

func (s *Server) handle(c net.Conn) {
	defer s.wg.Done()
	defer func() {
		s.m.Lock()
		delete(s.conns, c)
		s.m.Unlock()
		c.Close()
	}()

	r := bufio.NewScanner(c)
	enc := json.NewEncoder(c)
	for r.Scan() {
		var req Request
		err := json.Unmarshal(r.Bytes(), &req)
		if err != nil {
			enc.Encode(Response{Error: fmt.Sprintf("invalid request: %v", err)})
			continue
		}

		rsp, ok := s.run(req)
		if !ok {
			return
		}
		err = enc.Encode(rsp)
		if err != nil {
			s.log.Debug("write response", "err", err)
			return
		}
	}
}

// run executes req on the compositor's goroutine and waits for the
// result. It returns false if that goroutine has stopped.
func (s *Server) run(req Request) (Response, bool) {
	done := make(chan Response, 1)
	ok := s.post(func() error {
		done <- Exec(s.comp, req)
		return nil
	})
	if !ok {
		return Response{}, false
	}
	return <-done, true
}

// Exec carries out req against comp. It must be called on the
// compositor's goroutine.
func Exec(comp *compositor.Compositor, req Request) Response {
	if req.Cmd == CmdList {
		return list(comp)
	}

	h, err := object.ParseHandle(req.Handle)
	if err != nil {
		return Response{Error: err.Error()}
	}

	switch req.Cmd {
	case CmdCall:
		args := make([]object.Value, 0, len(req.Args))
		for _, raw := range req.Args {
			v, err := ParseValue(raw)
			if err != nil {
				return Response{Error: err.Error()}
			}
			args = append(args, v)
		}
		return Response{Ret: comp.Call(h, req.Name, args...)}

	case CmdGet:
		v, err := comp.Attr(h, req.Name)
		if err != nil {
			return errorResponse(err)
		}
		return Response{Value: v.Any()}

	case CmdSet:
		v, err := ParseValue(req.Value)
		if err != nil {
			return Response{Error: err.Error()}
		}
		err = comp.SetAttr(h, req.Name, v)
		if err != nil {
			return errorResponse(err)
		}
		return Response{}

	default:
		return Response{Error: fmt.Sprintf("unknown command %q", req.Cmd)}
	}
}

// errorResponse reports err along with the negated errno it wraps, if
// any.
func errorResponse(err error) Response {
	rsp := Response{Error: err.Error()}
	var errno unix.Errno
	switch {
	case errors.As(err, &errno):
		rsp.Ret = -int(errno)
	case errors.Is(err, object.ErrStaleHandle):
		rsp.Ret = -int(unix.ENOENT)
	}
	return rsp
}

func list(comp *compositor.Compositor) Response {
	var rsp Response
	for h, s := range comp.ShellSurfaces() {
		x, y, w, ht := s.Geometry()
		info := Surface{
			Handle:  h.String(),
			X:       x,
			Y:       y,
			Width:   w,
			Height:  ht,
			Visible: s.Visible(),
			Z:       s.Z(),
		}
		if m := s.Monitor(); m != nil {
			info.Monitor = m.Name()
		}
		rsp.Surfaces = append(rsp.Surfaces, info)
	}
	return rsp
}
