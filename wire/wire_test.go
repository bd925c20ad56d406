package wire

import (
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"deedles.dev/kms/internal/bin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

type testObject uint32

func (obj testObject) ID() uint32 { return uint32(obj) }

func (obj testObject) MethodName(op uint16) string {
	return fmt.Sprintf("method%v", op)
}

func (obj testObject) String() string {
	return fmt.Sprintf("test@%v", uint32(obj))
}

func socketpair(t *testing.T) (*Conn, *Conn) {
	fds, err := unix.Socketpair(unix.AF_UNIX, unix.SOCK_STREAM|unix.SOCK_CLOEXEC, 0)
	require.NoError(t, err)

	conn := func(fd int) *Conn {
		f := os.NewFile(uintptr(fd), "socketpair")
		defer f.Close()
		c, err := net.FileConn(f)
		require.NoError(t, err)
		return NewConn(c.(*net.UnixConn))
	}

	a, b := conn(fds[0]), conn(fds[1])
	t.Cleanup(func() {
		a.Close()
		b.Close()
	})
	return a, b
}

func TestRoundTrip(t *testing.T) {
	a, b := socketpair(t)

	mb := NewMessage(testObject(7), 3)
	mb.WriteInt(-42)
	mb.WriteUint(42)
	mb.WriteFixed(FixedFloat(1.5))
	mb.WriteString("wl_compositor")
	mb.WriteString("")
	mb.WriteArray([]byte{1, 2, 3})
	mb.WriteNewID(NewID{Interface: "wl_shm", Version: 1, ID: 9})
	mb.WriteObject(testObject(5))
	mb.WriteObject(nil)
	require.NoError(t, mb.Build(a))

	msg, err := ReadMessage(b)
	require.NoError(t, err)
	assert.Equal(t, uint32(7), msg.Sender())
	assert.Equal(t, uint16(3), msg.Op())
	assert.Zero(t, msg.Size()%4)

	assert.Equal(t, int32(-42), msg.ReadInt())
	assert.Equal(t, uint32(42), msg.ReadUint())
	assert.Equal(t, 1.5, msg.ReadFixed().Float())
	assert.Equal(t, "wl_compositor", msg.ReadString())
	assert.Equal(t, "", msg.ReadString())
	assert.Equal(t, []byte{1, 2, 3}, msg.ReadArray())
	assert.Equal(t, NewID{Interface: "wl_shm", Version: 1, ID: 9}, msg.ReadNewID())
	assert.Equal(t, uint32(5), msg.ReadUint())
	assert.Equal(t, uint32(0), msg.ReadUint())
	require.NoError(t, msg.Err())

	assert.Equal(t, `test@7.method3(-42, 42, 1.5, "wl_compositor", "", array[3], "wl_shm", 1, 9, 5, 0)`, msg.Debug(testObject(7)))
}

func TestNullString(t *testing.T) {
	a, b := socketpair(t)

	mb := NewMessage(testObject(1), 0)
	mb.WriteUint(0)
	require.NoError(t, mb.Build(a))

	msg, err := ReadMessage(b)
	require.NoError(t, err)
	assert.Equal(t, "", msg.ReadString())
	assert.NoError(t, msg.Err())
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name  string
		build func(*MessageBuilder)
		read  func(*MessageBuffer)
	}{
		{
			name:  "Short",
			build: func(mb *MessageBuilder) { mb.WriteUint(1) },
			read: func(msg *MessageBuffer) {
				msg.ReadUint()
				msg.ReadUint()
			},
		},
		{
			name:  "Trailing",
			build: func(mb *MessageBuilder) { mb.WriteUint(1); mb.WriteUint(2) },
			read:  func(msg *MessageBuffer) { msg.ReadUint() },
		},
		{
			name:  "StringTooLong",
			build: func(mb *MessageBuilder) { mb.WriteUint(100) },
			read:  func(msg *MessageBuffer) { msg.ReadString() },
		},
		{
			name:  "Unterminated",
			build: func(mb *MessageBuilder) { mb.WriteUint(4); mb.WriteUint(0x41414141) },
			read:  func(msg *MessageBuffer) { msg.ReadString() },
		},
		{
			name:  "MissingFile",
			build: func(mb *MessageBuilder) {},
			read:  func(msg *MessageBuffer) { msg.ReadFile() },
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			a, b := socketpair(t)

			mb := NewMessage(testObject(1), 0)
			test.build(mb)
			require.NoError(t, mb.Build(a))

			msg, err := ReadMessage(b)
			require.NoError(t, err)
			test.read(msg)
			assert.Error(t, msg.Err())
		})
	}
}

func TestFilePassing(t *testing.T) {
	a, b := socketpair(t)

	f, err := os.CreateTemp(t.TempDir(), "shm")
	require.NoError(t, err)
	defer f.Close()
	_, err = f.WriteString("pixels")
	require.NoError(t, err)

	mb := NewMessage(testObject(4), 0)
	mb.WriteFile(f)
	mb.WriteInt(6)
	require.NoError(t, mb.Build(a))

	msg, err := ReadMessage(b)
	require.NoError(t, err)
	file := msg.ReadFile()
	size := msg.ReadInt()
	require.NoError(t, msg.Err())
	require.NotNil(t, file)
	defer file.Close()

	buf := make([]byte, size)
	_, err = file.ReadAt(buf, 0)
	require.NoError(t, err)
	assert.Equal(t, "pixels", string(buf))
}

func TestFraming(t *testing.T) {
	a, b := socketpair(t)

	raw := func(sender uint32, op uint16, args ...uint32) []byte {
		mb := NewMessage(testObject(sender), op)
		for _, arg := range args {
			mb.WriteUint(arg)
		}
		length := uint32(headerSize + mb.data.Len())
		s, so := bin.Bytes(sender), bin.Bytes(length<<16|uint32(op))
		data := append(s[:], so[:]...)
		return append(data, mb.data.Bytes()...)
	}

	first := raw(2, 1, 10, 20)
	second := raw(3, 4, 30)
	stream := append(first, second...)

	_, err := a.conn.Write(stream[:5])
	require.NoError(t, err)
	go a.conn.Write(stream[5:])

	msg, err := ReadMessage(b)
	require.NoError(t, err)
	assert.Equal(t, uint32(2), msg.Sender())
	assert.Equal(t, uint16(1), msg.Op())
	assert.Equal(t, uint32(10), msg.ReadUint())
	assert.Equal(t, uint32(20), msg.ReadUint())
	require.NoError(t, msg.Err())

	msg, err = ReadMessage(b)
	require.NoError(t, err)
	assert.Equal(t, uint32(3), msg.Sender())
	assert.Equal(t, uint32(30), msg.ReadUint())
	require.NoError(t, msg.Err())
}

func TestEOF(t *testing.T) {
	a, b := socketpair(t)
	require.NoError(t, a.Close())

	_, err := ReadMessage(b)
	assert.ErrorIs(t, err, io.EOF)
}

func TestCloseWhileReading(t *testing.T) {
	a, _ := socketpair(t)

	done := make(chan error, 1)
	go func() {
		_, err := ReadMessage(a)
		done <- err
	}()

	time.Sleep(50 * time.Millisecond)
	require.NoError(t, a.Close())

	select {
	case err := <-done:
		assert.ErrorIs(t, err, net.ErrClosed)
	case <-time.After(5 * time.Second):
		t.Fatal("read did not return")
	}
}

func TestMessageTooLarge(t *testing.T) {
	a, _ := socketpair(t)

	mb := NewMessage(testObject(1), 0)
	mb.WriteArray(make([]byte, MaxMessageSize))
	assert.Error(t, mb.Build(a))
}

func TestFixed(t *testing.T) {
	tests := []struct {
		name  string
		fixed Fixed
		float float64
		i     int
		frac  int
		str   string
	}{
		{name: "Int", fixed: FixedInt(3), float: 3, i: 3, frac: 0, str: "3"},
		{name: "NegativeInt", fixed: FixedInt(-2), float: -2, i: -2, frac: 0, str: "-2"},
		{name: "Quarter", fixed: FixedFloat(0.25), float: 0.25, i: 0, frac: 64, str: "0.25"},
		{name: "NegativeHalf", fixed: FixedFloat(-1.5), float: -1.5, i: -2, frac: 128, str: "-1.5"},
		{name: "Rounded", fixed: FixedFloat(1.0 / 3), float: 85.0 / 256, i: 0, frac: 85, str: "0.33203125"},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			assert.Equal(t, test.float, test.fixed.Float())
			assert.Equal(t, test.i, test.fixed.Int())
			assert.Equal(t, test.frac, test.fixed.Frac())
			assert.Equal(t, test.str, test.fixed.String())
		})
	}
}

func TestListen(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_RUNTIME_DIR", dir)

	lis, err := Listen("")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "wayland-0"), lis.Path())
	assert.Equal(t, "wayland-0", lis.Name())

	_, err = Listen("wayland-0")
	assert.ErrorIs(t, err, unix.EWOULDBLOCK, "the name is locked")

	next, err := Listen("")
	require.NoError(t, err)
	assert.Equal(t, "wayland-1", next.Name())
	require.NoError(t, next.Close())

	t.Setenv("WAYLAND_DISPLAY", lis.Name())
	c, err := Dial()
	require.NoError(t, err)
	defer c.Close()

	s, err := lis.Accept()
	require.NoError(t, err)
	defer s.Close()

	cred, err := s.Credentials()
	require.NoError(t, err)
	assert.Equal(t, int32(os.Getpid()), cred.Pid)

	require.NoError(t, lis.Close())
	assert.NoFileExists(t, lis.Path())
	assert.NoFileExists(t, lis.Path()+".lock")
}
