package soft

import (
	"image"
	"testing"

	"deedles.dev/kms/buffer"
	"deedles.dev/kms/drm/drmtest"
	"deedles.dev/kms/gbm"
	"deedles.dev/kms/render"
	"deedles.dev/kms/shm/shmimage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	red        = shmimage.ARGB8888Color(0xFFFF0000)
	background = shmimage.ARGB8888Color(0xFF33334C)
)

func solid(w, h int, f buffer.Format, c shmimage.ARGB8888Color) *buffer.Raw {
	raw := buffer.NewRaw(w, h, f)
	img := buffer.View(raw)
	for y := range h {
		for x := range w {
			img.Set(x, y, c)
		}
	}
	return raw
}

func pixel(t *testing.T, b buffer.Buffer, x, y int) shmimage.ARGB8888Color {
	t.Helper()
	c, ok := buffer.View(b).At(x, y).(shmimage.ARGB8888Color)
	require.True(t, ok)
	return c | 0xFF000000
}

func frame(t *testing.T, width, height uint32, draw func(render.Output)) buffer.Buffer {
	t.Helper()

	dev := drmtest.New()
	alloc, out, err := New(dev).NewTarget(width, height)
	require.NoError(t, err)
	back := alloc.(*gbm.DumbAllocator).Back()

	require.NoError(t, out.Begin())
	draw(out)
	require.NoError(t, out.End())
	return back
}

func TestClear(t *testing.T) {
	back := frame(t, 4, 4, func(render.Output) {})
	assert.Equal(t, background, pixel(t, back, 0, 0))
	assert.Equal(t, background, pixel(t, back, 3, 3))
}

func TestDraw(t *testing.T) {
	b := New(drmtest.New())
	tex, err := b.Upload(nil, solid(2, 2, buffer.ARGB8888, red))
	require.NoError(t, err)
	assert.Equal(t, image.Pt(2, 2), tex.Size())

	back := frame(t, 4, 4, func(out render.Output) {
		out.Draw(tex, image.Rect(1, 1, 3, 3))
	})
	assert.Equal(t, background, pixel(t, back, 0, 0))
	assert.Equal(t, red, pixel(t, back, 1, 1))
	assert.Equal(t, red, pixel(t, back, 2, 2))
	assert.Equal(t, background, pixel(t, back, 3, 3))
}

func TestDrawScaled(t *testing.T) {
	b := New(drmtest.New())
	tex, err := b.Upload(nil, solid(2, 2, buffer.XRGB8888, red&0x00FFFFFF))
	require.NoError(t, err)

	back := frame(t, 4, 4, func(out render.Output) {
		out.Draw(tex, image.Rect(0, 0, 4, 4))
	})
	for y := range 4 {
		for x := range 4 {
			assert.Equal(t, red, pixel(t, back, x, y), "(%v, %v)", x, y)
		}
	}
}

func TestUploadReuse(t *testing.T) {
	b := New(drmtest.New())
	src := solid(2, 2, buffer.ARGB8888, red)

	tex, err := b.Upload(nil, src)
	require.NoError(t, err)
	again, err := b.Upload(tex, src)
	require.NoError(t, err)
	assert.Same(t, tex, again)

	bigger, err := b.Upload(again, solid(3, 3, buffer.ARGB8888, red))
	require.NoError(t, err)
	assert.NotSame(t, tex, bigger)
	assert.Equal(t, image.Pt(3, 3), bigger.Size())
}

func TestUploadFormat(t *testing.T) {
	b := New(drmtest.New())
	_, err := b.Upload(nil, buffer.NewRaw(1, 1, buffer.RGBA8888))
	assert.ErrorIs(t, err, render.ErrFormat)
}
