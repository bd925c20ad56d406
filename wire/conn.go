package wire

import (
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"deedles.dev/kms/internal/set"
	"golang.org/x/sys/unix"
)

// maxFDs is the most file descriptors that a single read will accept.
const maxFDs = 28

func xdgRuntimeDir() string {
	dir, ok := os.LookupEnv("XDG_RUNTIME_DIR")
	if ok {
		return dir
	}
	return fmt.Sprintf("/var/run/user/%v", os.Getuid())
}

// SocketPath determines the path to the Wayland Unix domain socket
// based on the contents of the $WAYLAND_DISPLAY environment variable.
// It does not attempt to determine if the value corresponds to an
// actual socket.
func SocketPath() string {
	v, ok := os.LookupEnv("WAYLAND_DISPLAY")
	if !ok {
		v = "wayland-0"
	}
	if filepath.IsAbs(v) {
		return v
	}

	return filepath.Join(xdgRuntimeDir(), v)
}

// NewSocketPath attempts to generate a valid path for opening a new
// socket to listen on.
func NewSocketPath() (string, error) {
	dir := xdgRuntimeDir()
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", err
	}

	names := make(set.Set[int], len(entries))
	for _, ent := range entries {
		after, ok := strings.CutPrefix(ent.Name(), "wayland-")
		if !ok {
			continue
		}
		after = strings.TrimSuffix(after, ".lock")
		n, err := strconv.ParseInt(after, 10, 0)
		if err != nil {
			continue
		}
		names.Add(int(n))
	}

	var num int
	for names.Has(num) {
		num++
	}

	return filepath.Join(dir, fmt.Sprintf("wayland-%v", num)), nil
}

// Listener is a Wayland server socket. A lock file next to the socket
// keeps two servers from claiming the same name.
type Listener struct {
	*net.UnixListener
	path string
	lock *os.File
}

// Listen opens a server socket at path. If path is empty, the first
// free wayland-N name in $XDG_RUNTIME_DIR is used. A relative path is
// resolved against $XDG_RUNTIME_DIR.
func Listen(path string) (*Listener, error) {
	if path == "" {
		p, err := NewSocketPath()
		if err != nil {
			return nil, fmt.Errorf("find socket path: %w", err)
		}
		path = p
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(xdgRuntimeDir(), path)
	}

	lock, err := os.OpenFile(path+".lock", os.O_CREATE|os.O_RDWR|unix.O_CLOEXEC, 0660)
	if err != nil {
		return nil, fmt.Errorf("open lock file: %w", err)
	}
	err = unix.Flock(int(lock.Fd()), unix.LOCK_EX|unix.LOCK_NB)
	if err != nil {
		lock.Close()
		return nil, fmt.Errorf("lock %v: %w", path, err)
	}

	// Holding the lock means any socket left at path is stale.
	os.Remove(path)

	lis, err := net.ListenUnix("unix", &net.UnixAddr{Name: path, Net: "unix"})
	if err != nil {
		lock.Close()
		os.Remove(lock.Name())
		return nil, err
	}

	return &Listener{UnixListener: lis, path: path, lock: lock}, nil
}

// Path returns the filesystem path of the socket.
func (lis *Listener) Path() string {
	return lis.path
}

// Name returns the value that clients should use for
// $WAYLAND_DISPLAY.
func (lis *Listener) Name() string {
	return filepath.Base(lis.path)
}

// Accept waits for the next client and wraps its connection.
func (lis *Listener) Accept() (*Conn, error) {
	c, err := lis.AcceptUnix()
	if err != nil {
		return nil, err
	}
	return NewConn(c), nil
}

// Close closes the socket and removes it and its lock file.
func (lis *Listener) Close() error {
	err := lis.UnixListener.Close()
	os.Remove(lis.lock.Name())
	return errors.Join(err, lis.lock.Close())
}

// Conn represents a low-level Wayland connection. Reads and writes may
// happen concurrently with each other, but not with themselves.
type Conn struct {
	conn *net.UnixConn
	buf  []byte
	oob  []byte

	m   sync.Mutex
	fds []int
}

// NewConn creates a new Conn that wraps c. After this is called, use
// the provided Close method to close c instead of calling its own
// Close method.
func NewConn(c *net.UnixConn) *Conn {
	return &Conn{
		conn: c,
		oob:  make([]byte, unix.CmsgSpace(maxFDs*4)),
	}
}

// Close closes the underlying connection along with any received file
// descriptors that no message claimed.
func (c *Conn) Close() error {
	c.m.Lock()
	fds := c.fds
	c.fds = nil
	c.m.Unlock()

	for _, fd := range fds {
		unix.Close(fd)
	}
	return c.conn.Close()
}

// Credentials returns the process credentials of the peer.
func (c *Conn) Credentials() (*unix.Ucred, error) {
	sc, err := c.conn.SyscallConn()
	if err != nil {
		return nil, err
	}

	var cred *unix.Ucred
	cerr := sc.Control(func(fd uintptr) {
		cred, err = unix.GetsockoptUcred(int(fd), unix.SOL_SOCKET, unix.SO_PEERCRED)
	})
	return cred, errors.Join(cerr, err)
}

// fill reads whatever is available from the socket onto the end of
// the buffer.
func (c *Conn) fill() error {
	var chunk [4096]byte
	n, oobn, _, _, err := c.conn.ReadMsgUnix(chunk[:], c.oob)
	if oobn > 0 {
		ferr := c.readFDs(c.oob[:oobn])
		if ferr != nil {
			return ferr
		}
	}
	if err != nil {
		return err
	}
	c.buf = append(c.buf, chunk[:n]...)
	if (n == 0) && (oobn == 0) {
		return io.EOF
	}
	return nil
}

// want reads from the socket until at least size bytes are buffered.
func (c *Conn) want(size int) error {
	for len(c.buf) < size {
		err := c.fill()
		if err != nil {
			if errors.Is(err, io.EOF) && (len(c.buf) > 0) {
				return io.ErrUnexpectedEOF
			}
			return err
		}
	}
	return nil
}

// next consumes the next size bytes of the buffer.
func (c *Conn) next(size int) ([]byte, error) {
	err := c.want(size)
	if err != nil {
		return nil, err
	}

	data := make([]byte, size)
	copy(data, c.buf)
	c.buf = c.buf[:copy(c.buf, c.buf[size:])]
	return data, nil
}

func (c *Conn) peek(size int) ([]byte, error) {
	err := c.want(size)
	if err != nil {
		return nil, err
	}
	return c.buf[:size], nil
}

func (c *Conn) readFDs(data []byte) error {
	cmsgs, err := unix.ParseSocketControlMessage(data)
	if err != nil {
		return fmt.Errorf("parse socket control messages: %w", err)
	}

	c.m.Lock()
	defer c.m.Unlock()

	for _, cmsg := range cmsgs {
		fds, err := unix.ParseUnixRights(&cmsg)
		if err != nil {
			if errors.Is(err, unix.EINVAL) {
				continue
			}
			return fmt.Errorf("parse unix control message: %w", err)
		}
		for _, fd := range fds {
			unix.CloseOnExec(fd)
		}
		c.fds = append(c.fds, fds...)
	}
	return nil
}

// popFD removes the oldest received file descriptor from the queue.
func (c *Conn) popFD() (int, bool) {
	c.m.Lock()
	defer c.m.Unlock()

	if len(c.fds) == 0 {
		return -1, false
	}
	fd := c.fds[0]
	c.fds = c.fds[1:]
	return fd, true
}

// Dial opens a connection to the Wayland socket based on the current
// environment. It follows the procedure outlined at
// https://wayland-book.com/protocol-design/wire-protocol.html#transports
func Dial() (*Conn, error) {
	if v, ok := os.LookupEnv("WAYLAND_SOCKET"); ok {
		fd, err := strconv.ParseInt(v, 10, 0)
		if err != nil {
			return nil, fmt.Errorf("parse WAYLAND_SOCKET fd: %w", err)
		}
		file := os.NewFile(uintptr(fd), "WAYLAND_SOCKET")
		defer file.Close()

		c, err := net.FileConn(file)
		if err != nil {
			return nil, fmt.Errorf("open WAYLAND_SOCKET connection: %w", err)
		}
		uc, ok := c.(*net.UnixConn)
		if !ok {
			c.Close()
			return nil, fmt.Errorf("WAYLAND_SOCKET is not a Unix socket: %w", unix.ENOTSOCK)
		}
		return NewConn(uc), nil
	}

	s, err := net.Dial("unix", SocketPath())
	if err != nil {
		return nil, err
	}
	return NewConn(s.(*net.UnixConn)), nil
}
