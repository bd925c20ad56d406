// Package buffer describes pixel storage and copies between it.
//
// A Buffer is one of a closed set of variants: Raw memory, an Image
// decoded from a file, or Shared memory owned by someone else, such as
// a client's shm pool. Variants outside of this package are built on
// top of Raw or Shared.
package buffer

import (
	"errors"
	"fmt"
)

// ErrStride is returned when a stride is too small for the width.
var ErrStride = errors.New("stride smaller than row")

// Buffer is pixel storage of some width, height, stride, and format.
// Data may return nil, meaning the pixels are not accessible right now.
type Buffer interface {
	Data() []byte
	Width() int
	Height() int
	Stride() int
	Format() Format
	BPP() int

	// BeginAccess and EndAccess bracket reads and writes of Data.
	BeginAccess()
	EndAccess()

	isBuffer()
}

// Raw is a buffer over a plain byte slice.
type Raw struct {
	data   []byte
	width  int
	height int
	stride int
	format Format
}

// NewRaw allocates a zeroed, tightly packed buffer.
func NewRaw(width, height int, format Format) *Raw {
	stride := width * format.BPP()
	return &Raw{
		data:   make([]byte, stride*height),
		width:  width,
		height: height,
		stride: stride,
		format: format,
	}
}

// Wrap returns a buffer over existing memory, such as a mapping.
func Wrap(data []byte, width, height, stride int, format Format) (*Raw, error) {
	if err := check(len(data), width, height, stride, format); err != nil {
		return nil, err
	}
	return &Raw{
		data:   data,
		width:  width,
		height: height,
		stride: stride,
		format: format,
	}, nil
}

func check(size, width, height, stride int, format Format) error {
	if width < 0 || height < 0 {
		return fmt.Errorf("negative size %vx%v", width, height)
	}
	if format.BPP() == 0 {
		return fmt.Errorf("unsupported format %v", format)
	}
	if stride < width*format.BPP() {
		return fmt.Errorf("stride %v for width %v: %w", stride, width, ErrStride)
	}
	if height > 0 && size < stride*(height-1)+width*format.BPP() {
		return fmt.Errorf("%v bytes is too small for %vx%v with stride %v", size, width, height, stride)
	}
	return nil
}

func (b *Raw) Data() []byte   { return b.data }
func (b *Raw) Width() int     { return b.width }
func (b *Raw) Height() int    { return b.height }
func (b *Raw) Stride() int    { return b.stride }
func (b *Raw) Format() Format { return b.format }
func (b *Raw) BPP() int       { return b.format.BPP() }
func (b *Raw) BeginAccess()   {}
func (b *Raw) EndAccess()     {}
func (b *Raw) isBuffer()      {}

// Clear zeroes every byte of the buffer.
func (b *Raw) Clear() {
	clear(b.data)
}

// Memory is memory owned elsewhere that may move while it is not
// locked.
type Memory interface {
	Bytes() []byte
	RLock()
	RUnlock()
}

// Shared is a buffer at an offset into Memory. Data is only valid
// between BeginAccess and EndAccess.
type Shared struct {
	mem    Memory
	offset int
	width  int
	height int
	stride int
	format Format
}

// NewShared describes a buffer inside mem, validating it against the
// memory's current size.
func NewShared(mem Memory, offset, width, height, stride int, format Format) (*Shared, error) {
	if offset < 0 {
		return nil, fmt.Errorf("negative offset %v", offset)
	}

	mem.RLock()
	size := len(mem.Bytes()) - offset
	mem.RUnlock()
	if err := check(size, width, height, stride, format); err != nil {
		return nil, err
	}

	return &Shared{
		mem:    mem,
		offset: offset,
		width:  width,
		height: height,
		stride: stride,
		format: format,
	}, nil
}

func (b *Shared) Data() []byte {
	data := b.mem.Bytes()
	end := b.offset + b.stride*b.height
	if end > len(data) {
		// The last row does not need its padding.
		end -= b.stride - b.width*b.BPP()
		if end > len(data) {
			return nil
		}
	}
	return data[b.offset:end]
}

func (b *Shared) Width() int     { return b.width }
func (b *Shared) Height() int    { return b.height }
func (b *Shared) Stride() int    { return b.stride }
func (b *Shared) Format() Format { return b.format }
func (b *Shared) BPP() int       { return b.format.BPP() }
func (b *Shared) BeginAccess()   { b.mem.RLock() }
func (b *Shared) EndAccess()     { b.mem.RUnlock() }
func (b *Shared) isBuffer()      {}
