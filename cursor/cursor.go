// Package cursor loads the image that the compositor shows when no
// client has set a cursor.
package cursor

import (
	"errors"
	"fmt"
	"image"

	"deedles.dev/kms/buffer"
	"deedles.dev/kms/compositor"
	"deedles.dev/kms/internal/logger"
	"deedles.dev/ximage/xcursor"
	"github.com/charmbracelet/log"
	"golang.org/x/image/draw"
)

// Hotspot is where the compositor expects the tip of the default
// cursor to be. Every image returned by this package is shifted to put
// its hotspot there.
var Hotspot = image.Pt(1, 1)

// Name is the theme cursor that is used.
const Name = "left_ptr"

// Options select the default cursor.
type Options struct {
	// Image is a path to an image file. If it is set and can be
	// loaded, the theme is not consulted.
	Image string

	// Theme is an Xcursor theme name. An empty name is the default
	// theme.
	Theme string
	Size  int

	Logger *log.Logger
}

// Load returns the default cursor. It tries the image file, then the
// theme, and finally falls back to a built-in arrow, so it always
// returns a usable buffer.
func Load(opts Options) buffer.Buffer {
	l := opts.Logger
	if l == nil {
		l = logger.Logger
	}

	if opts.Image != "" {
		img, err := buffer.LoadImage(opts.Image)
		if err == nil {
			l.Info("loaded cursor image", "path", opts.Image)
			return Place(buffer.View(img), Hotspot)
		}
		l.Warn("load cursor image", "path", opts.Image, "err", err)
	}

	img, hot, err := LoadTheme(opts.Theme, opts.Size)
	if err == nil {
		l.Info("loaded cursor theme", "theme", opts.Theme, "size", opts.Size)
		return Place(img, hot)
	}
	l.Warn("load cursor theme", "theme", opts.Theme, "err", err)

	return Arrow()
}

// ErrNoCursor is returned by LoadTheme if the theme has no usable
// cursor.
var ErrNoCursor = errors.New("theme has no " + Name + " cursor")

// LoadTheme loads the closest size of the default cursor from an
// Xcursor theme.
func LoadTheme(theme string, size int) (image.Image, image.Point, error) {
	t, err := xcursor.LoadTheme(theme)
	if err != nil {
		return nil, image.Point{}, fmt.Errorf("load theme: %w", err)
	}

	c, ok := t.Cursors[Name]
	if !ok {
		return nil, image.Point{}, ErrNoCursor
	}
	frames := c.Images[c.BestSize(size)]
	if len(frames) == 0 {
		return nil, image.Point{}, ErrNoCursor
	}

	frame := frames[0]
	pix := frame.Image
	raw, err := buffer.Wrap(pix.Pix, pix.Rect.Dx(), pix.Rect.Dy(), pix.Stride(), buffer.ARGB8888)
	if err != nil {
		return nil, image.Point{}, fmt.Errorf("%v: %w", Name, err)
	}
	return buffer.View(raw), frame.Hot, nil
}

// Place copies img into a cursor-sized buffer, moving it so that hot
// ends up at Hotspot. Anything that falls outside of the buffer is
// cut off.
func Place(img image.Image, hot image.Point) *buffer.Raw {
	raw := buffer.NewRaw(compositor.CursorSize, compositor.CursorSize, buffer.ARGB8888)
	dst := buffer.View(raw)
	sp := img.Bounds().Min.Add(hot).Sub(Hotspot)
	draw.Draw(dst, dst.Bounds(), img, sp, draw.Src)
	return raw
}

// arrow is drawn with '#' as the outline and '.' as the fill. Its tip
// is at Hotspot.
var arrow = []string{
	"",
	" #",
	" ##",
	" #.#",
	" #..#",
	" #...#",
	" #....#",
	" #.....#",
	" #......#",
	" #.......#",
	" #........#",
	" #.........#",
	" #......#####",
	" #...#..#",
	" #..# #..#",
	" #.#  #..#",
	" ##    #..#",
	" #     #..#",
	"        ##",
}

// Arrow returns the built-in cursor.
func Arrow() *buffer.Raw {
	raw := buffer.NewRaw(compositor.CursorSize, compositor.CursorSize, buffer.ARGB8888)
	data := raw.Data()
	for y, row := range arrow {
		for x, c := range row {
			var px [4]byte // B, G, R, A
			switch c {
			case '#':
				px = [4]byte{0, 0, 0, 0xFF}
			case '.':
				px = [4]byte{0xFF, 0xFF, 0xFF, 0xFF}
			default:
				continue
			}
			copy(data[y*raw.Stride()+x*4:], px[:])
		}
	}
	return raw
}
