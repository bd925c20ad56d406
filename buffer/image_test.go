package buffer

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"deedles.dev/kms/shm/shmimage"
	"deedles.dev/ximage/format"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadImage(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 3, 2))
	src.Set(2, 1, color.NRGBA{R: 0xFF, A: 0xFF})

	path := filepath.Join(t.TempDir(), "img.png")
	file, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(file, src))
	require.NoError(t, file.Close())

	img, err := LoadImage(path)
	require.NoError(t, err)
	assert.Equal(t, path, img.Path)
	assert.Equal(t, 3, img.Width())
	assert.Equal(t, 2, img.Height())
	assert.Equal(t, 12, img.Stride())

	r, g, b, a := View(img).At(2, 1).RGBA()
	assert.Equal(t, []uint32{0xFFFF, 0, 0, 0xFFFF}, []uint32{r, g, b, a})
	_, _, _, a = View(img).At(0, 0).RGBA()
	assert.Zero(t, a)
}

func TestLoadImageMissing(t *testing.T) {
	_, err := LoadImage(filepath.Join(t.TempDir(), "nope.png"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestViewOpaque(t *testing.T) {
	b := NewRaw(1, 1, XRGB8888)
	_, _, _, a := View(b).At(0, 0).RGBA()
	assert.Equal(t, uint32(0xFFFF), a)

	assert.Nil(t, View(NewRaw(1, 1, RGBA8888)))
}

func TestViewStride(t *testing.T) {
	packed := NewRaw(2, 2, ARGB8888)
	assert.IsType(t, &format.Image{}, View(packed))

	padded, err := Wrap(make([]byte, 16+8), 2, 2, 16, ARGB8888)
	require.NoError(t, err)
	v := View(padded)
	assert.IsType(t, &shmimage.ARGB8888{}, v)

	v.Set(1, 1, color.White)
	_, _, _, a := v.At(1, 1).RGBA()
	assert.Equal(t, uint32(0xFFFF), a)
}
