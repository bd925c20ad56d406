package wl

import (
	"slices"

	"deedles.dev/kms/buffer"
	"deedles.dev/kms/shm"
	"deedles.dev/kms/wire"
)

// Shm is wl_shm.
type Shm struct {
	resource
}

func bindShm(c *Client, id, version uint32) error {
	s := Shm{resource: newResource(c, shmInterface, id, version)}
	err := c.add(&s)
	if err != nil {
		return err
	}

	for _, f := range buffer.Formats() {
		s.Format(f)
	}
	return nil
}

func (s *Shm) Delete() {}

func (s *Shm) Dispatch(msg *wire.MessageBuffer) error {
	switch msg.Op() {
	case shmCreatePool:
		id := msg.ReadUint()
		file := msg.ReadFile()
		size := msg.ReadInt()
		if err := msg.Err(); err != nil {
			if file != nil {
				file.Close()
			}
			return err
		}

		pool, err := shm.NewPool(file, int(size))
		if err != nil {
			return protocolError(s, shmErrorInvalidFD, "create pool: %v", err)
		}
		return s.owner.add(&ShmPool{
			resource: newResource(s.owner, shmPoolInterface, id, 1),
			pool:     pool,
		})

	case shmRelease:
		if err := msg.Err(); err != nil {
			return err
		}
		s.owner.remove(s.id)
		return nil

	default:
		return s.unknownOp(msg.Op())
	}
}

func (s *Shm) Format(f buffer.Format) {
	mb := event(s, shmFormat, "format", f)
	mb.WriteUint(uint32(f))
	s.send(mb)
}

// ShmPool is wl_shm_pool. The client's pool object and every buffer
// created from it each hold a reference to the mapping.
type ShmPool struct {
	resource
	pool *shm.Pool
}

func (p *ShmPool) Delete() {
	p.pool.Unref()
}

func (p *ShmPool) Dispatch(msg *wire.MessageBuffer) error {
	switch msg.Op() {
	case shmPoolCreateBuffer:
		id := msg.ReadUint()
		offset := msg.ReadInt()
		width := msg.ReadInt()
		height := msg.ReadInt()
		stride := msg.ReadInt()
		format := buffer.Format(msg.ReadUint())
		if err := msg.Err(); err != nil {
			return err
		}

		if !slices.Contains(buffer.Formats(), format) {
			return protocolError(p, shmErrorInvalidFormat, "unsupported format %v", format)
		}
		if (width <= 0) || (height <= 0) {
			return protocolError(p, shmErrorInvalidStride, "invalid size %vx%v", width, height)
		}

		buf, err := buffer.NewShared(p.pool, int(offset), int(width), int(height), int(stride), format)
		if err != nil {
			return protocolError(p, shmErrorInvalidStride, "%v", err)
		}

		b := Buffer{
			resource: newResource(p.owner, bufferInterface, id, 1),
			buf:      buf,
			pool:     p.pool,
		}
		err = p.owner.add(&b)
		if err != nil {
			return err
		}
		p.pool.Ref()
		return nil

	case shmPoolDestroy:
		if err := msg.Err(); err != nil {
			return err
		}
		p.owner.remove(p.id)
		return nil

	case shmPoolResize:
		size := msg.ReadInt()
		if err := msg.Err(); err != nil {
			return err
		}

		err := p.pool.Resize(int(size))
		if err != nil {
			return protocolError(p, shmErrorInvalidStride, "%v", err)
		}
		return nil

	default:
		return p.unknownOp(msg.Op())
	}
}

// Buffer is wl_buffer, backed by a region of a shm pool.
type Buffer struct {
	resource
	buf  *buffer.Shared
	pool *shm.Pool
}

func (b *Buffer) Delete() {
	if b.pool == nil {
		return
	}
	b.pool.Unref()
	b.pool = nil
}

func (b *Buffer) Dispatch(msg *wire.MessageBuffer) error {
	switch msg.Op() {
	case bufferDestroy:
		if err := msg.Err(); err != nil {
			return err
		}
		b.owner.remove(b.id)
		return nil

	default:
		return b.unknownOp(msg.Op())
	}
}

func (b *Buffer) destroyed() bool {
	return b.pool == nil
}

func (b *Buffer) Buffer() buffer.Buffer {
	return b.buf
}

// Release tells the client that the compositor is done reading the
// buffer.
func (b *Buffer) Release() {
	if b.destroyed() {
		return
	}

	b.send(event(b, bufferRelease, "release"))
}
