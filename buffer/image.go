package buffer

import (
	"fmt"
	"image"
	_ "image/png"
	"os"

	"deedles.dev/kms/shm/shmimage"
	"deedles.dev/ximage/format"
	"golang.org/x/image/draw"
)

// Image is a buffer holding a decoded image file.
type Image struct {
	Raw
	Path string
}

// LoadImage decodes a PNG, or any other registered format, into an
// ARGB8888 buffer.
func LoadImage(path string) (*Image, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	defer file.Close()

	img, _, err := image.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("decode %q: %w", path, err)
	}

	buf := FromImage(img)
	buf.Path = path
	return buf, nil
}

// FromImage converts img into an ARGB8888 buffer.
func FromImage(img image.Image) *Image {
	b := img.Bounds()
	buf := Image{Raw: *NewRaw(b.Dx(), b.Dy(), ARGB8888)}
	draw.Draw(View(&buf), image.Rect(0, 0, b.Dx(), b.Dy()), img, b.Min, draw.Src)
	return &buf
}

// View returns an image that reads and writes the buffer's pixels in
// place. Formats other than ARGB8888 and XRGB8888 are not supported and
// yield nil. Opaque formats read with full alpha regardless of the
// padding byte.
func View(b Buffer) draw.Image {
	d := data(b)
	if d == nil {
		return nil
	}
	rect := image.Rect(0, 0, b.Width(), b.Height())

	switch b.Format() {
	case ARGB8888:
		if b.Stride() == b.Width()*4 {
			return &format.Image{Format: format.ARGB8888, Rect: rect, Pix: d}
		}
		return &shmimage.ARGB8888{Pix: d, Stride: b.Stride(), Rect: rect}
	case XRGB8888:
		return &shmimage.XRGB8888{ARGB8888: shmimage.ARGB8888{Pix: d, Stride: b.Stride(), Rect: rect}}
	}
	return nil
}
