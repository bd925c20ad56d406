// Package wire implements the Wayland wire protocol: message framing,
// argument encoding, and file descriptor passing over a Unix domain
// socket.
package wire

// Object represents a Wayland protocol object.
type Object interface {
	// ID is the object's protocol ID. Zero means that the object has
	// not been assigned one.
	ID() uint32

	// MethodName returns the name of the request with the given
	// opcode. It is used only for tracing.
	MethodName(op uint16) string
}

// NewID is an untyped new_id argument, as used by wl_registry.bind.
type NewID struct {
	Interface string
	Version   uint32
	ID        uint32
}

// headerSize is the size of a message header: the sender ID followed
// by the size and opcode packed into one word.
const headerSize = 8

// MaxMessageSize is the largest message that the size field of the
// header can describe.
const MaxMessageSize = 1<<16 - 1

func padding(n uint32) uint32 {
	return (4 - n%4) % 4
}
