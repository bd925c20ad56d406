package buffer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// filled returns a buffer whose every byte records its own row and
// column, with stride padding set to 0xEE.
func filled(t *testing.T, w, h, pad int, seed byte) *Raw {
	t.Helper()

	stride := w*4 + pad
	data := make([]byte, stride*h)
	for i := range data {
		data[i] = 0xEE
	}
	for y := 0; y < h; y++ {
		for x := 0; x < w*4; x++ {
			data[y*stride+x] = seed + byte(y*31+x)
		}
	}
	b, err := Wrap(data, w, h, stride, ARGB8888)
	require.NoError(t, err)
	return b
}

func TestBlitCopiesOverlap(t *testing.T) {
	tests := []struct {
		name       string
		dw, dh, dp int
		sw, sh, sp int
	}{
		{name: "same size", dw: 4, dh: 4, sw: 4, sh: 4},
		{name: "src larger", dw: 2, dh: 3, sw: 5, sh: 6},
		{name: "dst larger", dw: 6, dh: 5, sw: 3, sh: 2},
		{name: "padded strides", dw: 3, dh: 3, dp: 8, sw: 4, sh: 2, sp: 12},
		{name: "empty src", dw: 3, dh: 3, sw: 0, sh: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dst := filled(t, tt.dw, tt.dh, tt.dp, 0)
			src := filled(t, tt.sw, tt.sh, tt.sp, 100)
			before := append([]byte(nil), dst.Data()...)

			Blit(dst, src)

			row := min(tt.dw, tt.sw) * 4
			rows := min(tt.dh, tt.sh)
			for y := 0; y < tt.dh; y++ {
				for x := 0; x < dst.Stride(); x++ {
					i := y*dst.Stride() + x
					if y < rows && x < row {
						assert.Equal(t, src.Data()[y*src.Stride()+x], dst.Data()[i], "copied byte (%v, %v)", x, y)
						continue
					}
					assert.Equal(t, before[i], dst.Data()[i], "untouched byte (%v, %v)", x, y)
				}
			}
		})
	}
}

type unavailable struct{ Raw }

func (unavailable) Data() []byte { return nil }

func TestBlitUnavailable(t *testing.T) {
	dst := NewRaw(2, 2, ARGB8888)
	src := &unavailable{Raw: *filled(t, 2, 2, 0, 1)}

	Blit(dst, src)
	assert.Equal(t, make([]byte, 16), dst.Data())

	Blit(nil, dst)
	Blit(dst, nil)
}

// BlitAt offsets by x rows and y columns.
func TestBlitAtAxes(t *testing.T) {
	dst := NewRaw(4, 4, ARGB8888)
	src := filled(t, 1, 1, 0, 9)

	BlitAt(dst, src, 1, 2)

	for i, b := range dst.Data() {
		row, col := i/dst.Stride(), (i%dst.Stride())/4
		if row == 1 && col == 2 {
			assert.NotZero(t, b, "byte %v", i)
			continue
		}
		assert.Zero(t, b, "byte %v", i)
	}
}

func TestBlitAtClips(t *testing.T) {
	tests := []struct {
		name       string
		x, y       int
		rows, cols int
	}{
		{name: "origin", x: 0, y: 0, rows: 3, cols: 3},
		{name: "clipped right", x: 0, y: 2, rows: 3, cols: 2},
		{name: "clipped bottom", x: 3, y: 0, rows: 1, cols: 3},
		{name: "outside", x: 4, y: 0, rows: 0, cols: 0},
		{name: "negative", x: -1, y: 0, rows: 0, cols: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dst := NewRaw(4, 4, ARGB8888)
			src := NewRaw(3, 3, ARGB8888)
			for i := range src.Data() {
				src.Data()[i] = 0xFF
			}

			BlitAt(dst, src, tt.x, tt.y)

			var rows, cols int
			for r := 0; r < 4; r++ {
				n := 0
				for c := 0; c < 4; c++ {
					if dst.Data()[r*dst.Stride()+c*4] != 0 {
						n++
					}
				}
				if n > 0 {
					rows++
					cols = n
				}
			}
			assert.Equal(t, tt.rows, rows)
			assert.Equal(t, tt.cols, cols)
		})
	}
}

func TestWrapValidates(t *testing.T) {
	_, err := Wrap(make([]byte, 64), 4, 4, 8, ARGB8888)
	assert.ErrorIs(t, err, ErrStride)

	_, err = Wrap(make([]byte, 60), 4, 4, 16, ARGB8888)
	assert.Error(t, err)

	_, err = Wrap(make([]byte, 64), 4, 4, 16, Format(0x1234))
	assert.Error(t, err)

	b, err := Wrap(make([]byte, 16*3+16), 4, 4, 16, XRGB8888)
	require.NoError(t, err)
	assert.Equal(t, 4, b.BPP())
}

type memory struct{ data []byte }

func (m *memory) Bytes() []byte { return m.data }
func (m *memory) RLock()        {}
func (m *memory) RUnlock()      {}

func TestSharedShrunk(t *testing.T) {
	mem := &memory{data: make([]byte, 64)}
	b, err := NewShared(mem, 0, 4, 4, 16, ARGB8888)
	require.NoError(t, err)
	assert.Len(t, b.Data(), 64)

	mem.data = mem.data[:32]
	assert.Nil(t, b.Data(), "memory no longer covers the buffer")
}
