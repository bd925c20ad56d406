package wire

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"deedles.dev/kms/internal/bin"
)

// MessageBuffer holds message data that has been read from the socket
// but not yet decoded. File descriptors are claimed from the
// connection in the order that they were received, so messages must
// be decoded in the order that they were read.
type MessageBuffer struct {
	sender uint32
	op     uint16
	size   uint16
	data   bytes.Reader
	conn   *Conn
	err    error
	args   []any
}

// ReadMessage reads one complete message from the socket.
func ReadMessage(c *Conn) (*MessageBuffer, error) {
	header, err := c.peek(headerSize)
	if err != nil {
		return nil, fmt.Errorf("read message header: %w", err)
	}
	so := bin.Uint32At(header, 4)
	size := so >> 16
	if size < headerSize {
		return nil, fmt.Errorf("message size %v is smaller than its header", size)
	}

	data, err := c.next(int(size))
	if err != nil {
		return nil, fmt.Errorf("read message body: %w", err)
	}

	mb := MessageBuffer{
		sender: bin.Uint32At(data, 0),
		op:     uint16(so & 0xFFFF),
		size:   uint16(size),
		conn:   c,
	}
	mb.data.Reset(data[headerSize:])
	return &mb, nil
}

// Sender is the object ID of the sender of the message.
func (r *MessageBuffer) Sender() uint32 {
	return r.sender
}

// Op is the opcode of the message.
func (r *MessageBuffer) Op() uint16 {
	return r.op
}

// Size is the total size of the message, including the 8 byte header.
func (r *MessageBuffer) Size() uint16 {
	return r.size
}

// Err returns the first error encountered while decoding. Running out
// of data or leaving some unread are both errors, so Err should be
// called once every argument has been read.
func (r *MessageBuffer) Err() error {
	if errors.Is(r.err, io.EOF) {
		return io.ErrUnexpectedEOF
	}
	if (r.err == nil) && (r.data.Len() > 0) {
		return fmt.Errorf("%v trailing bytes in message", r.data.Len())
	}
	return r.err
}

func (r *MessageBuffer) ReadInt() (v int32) {
	if r.err != nil {
		return
	}

	v, r.err = bin.Read[int32](&r.data)
	r.args = append(r.args, v)
	return v
}

func (r *MessageBuffer) ReadUint() (v uint32) {
	if r.err != nil {
		return
	}

	v, r.err = bin.Read[uint32](&r.data)
	r.args = append(r.args, v)
	return v
}

func (r *MessageBuffer) ReadNewID() NewID {
	return NewID{
		Interface: r.ReadString(),
		Version:   r.ReadUint(),
		ID:        r.ReadUint(),
	}
}

func (r *MessageBuffer) ReadFixed() (v Fixed) {
	if r.err != nil {
		return
	}

	v, r.err = bin.Read[Fixed](&r.data)
	r.args = append(r.args, v)
	return v
}

// ReadString reads a string argument. A null string decodes as "".
func (r *MessageBuffer) ReadString() string {
	if r.err != nil {
		return ""
	}

	length, err := bin.Read[uint32](&r.data)
	if err != nil {
		r.err = err
		return ""
	}
	if length == 0 {
		r.args = append(r.args, nil)
		return ""
	}

	buf, ok := r.bytes(length)
	if !ok {
		return ""
	}
	if buf[length-1] != 0 {
		r.err = errors.New("string is not null-terminated")
		return ""
	}

	v := string(buf[:length-1])
	r.args = append(r.args, v)
	return v
}

func (r *MessageBuffer) ReadArray() []byte {
	if r.err != nil {
		return nil
	}

	length, err := bin.Read[uint32](&r.data)
	if err != nil {
		r.err = err
		return nil
	}

	buf, ok := r.bytes(length)
	if !ok {
		return nil
	}
	r.args = append(r.args, buf)
	return buf
}

// bytes reads length bytes followed by padding to a 32-bit boundary.
func (r *MessageBuffer) bytes(length uint32) ([]byte, bool) {
	if int64(length) > int64(r.data.Len()) {
		r.err = io.ErrUnexpectedEOF
		return nil, false
	}

	buf := make([]byte, length+padding(length))
	_, r.err = io.ReadFull(&r.data, buf)
	if r.err != nil {
		return nil, false
	}
	return buf[:length], true
}

// ReadFile claims the next file descriptor received on the
// connection. The caller owns the returned file.
func (r *MessageBuffer) ReadFile() *os.File {
	if r.err != nil {
		return nil
	}

	fd, ok := r.conn.popFD()
	if !ok {
		r.err = errors.New("no more file descriptors")
		return nil
	}

	f := os.NewFile(uintptr(fd), "")
	r.args = append(r.args, f)
	return f
}

// Debug formats the decoded message as it would be called on sender.
func (r *MessageBuffer) Debug(sender Object) string {
	method := strconv.FormatUint(uint64(r.op), 10)
	if sender != nil {
		method = sender.MethodName(r.op)
	}
	return fmt.Sprintf("%v.%v(%v)", sender, method, formatArgs(r.args))
}

func formatArgs(args []any) string {
	strs := make([]string, 0, len(args))
	for _, arg := range args {
		switch arg := arg.(type) {
		case nil:
			strs = append(strs, "nil")
		case string:
			strs = append(strs, strconv.Quote(arg))
		case *os.File:
			strs = append(strs, fmt.Sprintf("fd %v", arg.Fd()))
		case []byte:
			strs = append(strs, fmt.Sprintf("array[%v]", len(arg)))
		default:
			strs = append(strs, fmt.Sprint(arg))
		}
	}
	return strings.Join(strs, ", ")
}
