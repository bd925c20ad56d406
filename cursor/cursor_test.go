package cursor

import (
	"image"
	"image/color"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"testing"

	"deedles.dev/kms/buffer"
	"deedles.dev/kms/compositor"
	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rgba(b buffer.Buffer, x, y int) color.RGBA {
	r, g, bl, a := buffer.View(b).At(x, y).RGBA()
	return color.RGBA{R: uint8(r >> 8), G: uint8(g >> 8), B: uint8(bl >> 8), A: uint8(a >> 8)}
}

var (
	black = color.RGBA{A: 0xFF}
	white = color.RGBA{R: 0xFF, G: 0xFF, B: 0xFF, A: 0xFF}
	red   = color.RGBA{R: 0xFF, A: 0xFF}
	clear = color.RGBA{}
)

func TestArrow(t *testing.T) {
	a := Arrow()
	assert.Equal(t, compositor.CursorSize, a.Width())
	assert.Equal(t, compositor.CursorSize, a.Height())

	assert.Equal(t, black, rgba(a, Hotspot.X, Hotspot.Y), "the tip is the hotspot")
	assert.Equal(t, white, rgba(a, 2, 3))
	assert.Equal(t, clear, rgba(a, 0, 0))
	assert.Equal(t, clear, rgba(a, 40, 40))
}

func TestPlace(t *testing.T) {
	tests := []struct {
		name string
		hot  image.Point
		want image.Point
	}{
		{name: "AtHotspot", hot: image.Pt(1, 1), want: image.Pt(3, 3)},
		{name: "Shifted", hot: image.Pt(3, 3), want: image.Pt(1, 1)},
		{name: "Origin", hot: image.Pt(0, 0), want: image.Pt(4, 4)},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			img := image.NewRGBA(image.Rect(0, 0, 8, 8))
			img.Set(3, 3, red)

			raw := Place(img, test.hot)
			assert.Equal(t, red, rgba(raw, test.want.X, test.want.Y))
			assert.Equal(t, clear, rgba(raw, test.want.X+1, test.want.Y))
		})
	}
}

func TestLoadImage(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	img.Set(1, 1, red)

	path := filepath.Join(t.TempDir(), "cursor.png")
	file, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(file, img))
	require.NoError(t, file.Close())

	cur := Load(Options{Image: path, Logger: log.New(io.Discard)})
	assert.Equal(t, red, rgba(cur, 1, 1))
	assert.Equal(t, clear, rgba(cur, 2, 2))
}

func TestLoadFallback(t *testing.T) {
	t.Setenv("XCURSOR_PATH", t.TempDir())
	t.Setenv("XDG_DATA_HOME", t.TempDir())
	if _, _, err := LoadTheme("no-such-theme", 24); err == nil {
		t.Skip("found a cursor theme anyway")
	}

	cur := Load(Options{
		Image:  filepath.Join(t.TempDir(), "missing.png"),
		Theme:  "no-such-theme",
		Size:   24,
		Logger: log.New(io.Discard),
	})
	assert.Equal(t, Arrow().Data(), cur.(*buffer.Raw).Data())
}
