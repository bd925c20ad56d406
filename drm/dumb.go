package drm

import (
	"errors"

	"deedles.dev/kms/buffer"
)

// Dumb is a CPU-mapped buffer object suitable for scanout and cursor
// planes.
type Dumb struct {
	*buffer.Raw

	Handle uint32
	Pitch  uint32
	Size   uint64

	destroy func() error
}

// NewDumb wraps mapped memory as a dumb buffer. destroy is called once
// by Destroy to unmap and free the object.
func NewDumb(data []byte, width, height int, handle, pitch uint32, destroy func() error) (*Dumb, error) {
	raw, err := buffer.Wrap(data, width, height, int(pitch), buffer.XRGB8888)
	if err != nil {
		return nil, err
	}
	return &Dumb{
		Raw:     raw,
		Handle:  handle,
		Pitch:   pitch,
		Size:    uint64(len(data)),
		destroy: destroy,
	}, nil
}

// AsFormat reinterprets the buffer's pixels as format f, which must
// have the same bytes per pixel. Cursor planes use ARGB8888.
func (d *Dumb) AsFormat(f buffer.Format) error {
	raw, err := buffer.Wrap(d.Data(), d.Width(), d.Height(), d.Stride(), f)
	if err != nil {
		return err
	}
	d.Raw = raw
	return nil
}

func (d *Dumb) Destroy() error {
	if d.destroy == nil {
		return errors.New("dumb buffer already destroyed")
	}
	err := d.destroy()
	d.destroy = nil
	return err
}
