package compositor

import (
	"math"
	"testing"

	"deedles.dev/kms/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

func TestNewShellSurface(t *testing.T) {
	c, _ := newTestCompositor(t, nil)
	s, ss, _ := newShell(t, c, nil, 3, 30, 20)

	assert.Equal(t, RoleShell, s.Role())
	assert.Equal(t, ss, s.Parent())
	assert.True(t, ss.Visible())
	x, y, w, h := ss.Geometry()
	assert.Equal(t, [4]int32{10, 10, 30, 20}, [4]int32{x, y, w, h})
	assert.Equal(t, c.Cursor().Monitor(), ss.Monitor())
	assert.Equal(t, []*ShellSurface{ss}, ss.Monitor().Surfaces())
	assert.True(t, ss.Type().Is(WaylandObjectType))

	got, err := c.ShellSurface(ss.Handle())
	require.NoError(t, err)
	assert.Equal(t, ss, got)
}

func TestShellSetters(t *testing.T) {
	c, _ := newTestCompositor(t, nil)
	_, ss, res := newShell(t, c, nil, 3, 30, 20)

	assert.Zero(t, ss.SetWidth(100))
	assert.Zero(t, ss.SetHeight(50))
	assert.Zero(t, ss.SetWidthAndHeight(640, 480))
	assert.Zero(t, ss.SetPos(5, 6))
	assert.Equal(t, [][2]int32{{100, 20}, {100, 50}, {640, 480}}, res.configures)

	x, y, w, h := ss.Geometry()
	assert.Equal(t, [4]int32{5, 6, 640, 480}, [4]int32{x, y, w, h})

	ss.SetResource(nil)
	assert.Equal(t, errno(unix.EINVAL), ss.SetWidth(1))
	assert.Equal(t, errno(unix.EINVAL), ss.SetHeight(1))
	assert.Equal(t, errno(unix.EINVAL), ss.SetWidthAndHeight(1, 1))
	assert.Len(t, res.configures, 3)
}

func TestShellFunctions(t *testing.T) {
	c, _ := newTestCompositor(t, nil)
	_, ss, res := newShell(t, c, nil, 3, 30, 20)

	obj := object.ObjValue(ss)
	name := func(n string) object.Value { return object.StringValue(n) }
	i := func(v int64) object.Value { return object.IntValue(v) }
	none := object.Value{}

	tests := []struct {
		name  string
		fn    string
		stack []object.Value
		ret   int
		size  [2]int32
	}{
		{name: "SetWidth", fn: "setwidth", stack: []object.Value{obj, name("setwidth"), i(200), none}, size: [2]int32{200, 20}},
		{name: "SetHeight", fn: "setheight", stack: []object.Value{obj, name("setheight"), i(100), none}, size: [2]int32{200, 100}},
		{name: "SetBoth", fn: "setwidthheight", stack: []object.Value{obj, name("setwidthheight"), i(320), i(240), none}, size: [2]int32{320, 240}},
		{name: "NotAnObject", fn: "setwidth", stack: []object.Value{i(1), name("setwidth"), i(10), none}, ret: errno(unix.EINVAL)},
		{name: "WrongObject", fn: "setwidth", stack: []object.Value{object.ObjValue(c), name("setwidth"), i(10), none}, ret: errno(unix.EINVAL)},
		{name: "NotAnInt", fn: "setwidth", stack: []object.Value{obj, name("setwidth"), object.BoolValue(true), none}, ret: errno(unix.EINVAL)},
		{name: "Missing", fn: "setwidthheight", stack: []object.Value{obj, name("setwidthheight"), i(10), none}, ret: errno(unix.EINVAL)},
		{name: "TooMany", fn: "setwidth", stack: []object.Value{obj, name("setwidth"), i(10), i(20), none}, ret: errno(unix.E2BIG)},
		{name: "TooLarge", fn: "setheight", stack: []object.Value{obj, name("setheight"), i(math.MaxInt32 + 1), none}, ret: errno(unix.EINVAL)},
		{name: "MaxInt32", fn: "setheight", stack: []object.Value{obj, name("setheight"), i(math.MaxInt32), none}, size: [2]int32{320, math.MaxInt32}},
		{name: "Empty", fn: "setwidth", stack: nil, ret: errno(unix.EINVAL)},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			f, ok := ShellSurfaceType.Function(test.fn)
			require.True(t, ok)

			configures := len(res.configures)
			assert.Equal(t, test.ret, f.Call(test.stack))
			if test.ret != 0 {
				assert.Len(t, res.configures, configures, "failed calls do not configure")
				return
			}
			assert.Equal(t, test.size, res.configures[len(res.configures)-1])
		})
	}
}

func TestCompositorCall(t *testing.T) {
	c, _ := newTestCompositor(t, nil)
	_, ss, res := newShell(t, c, nil, 3, 30, 20)
	h := ss.Handle()

	assert.Zero(t, c.Call(h, "setwidthheight", object.IntValue(64), object.IntValue(48)))
	assert.Equal(t, [2]int32{64, 48}, res.configures[0])
	assert.Zero(t, c.Call(h, "setpos", object.IntValue(-5), object.IntValue(7)))
	x, y, _, _ := ss.Geometry()
	assert.Equal(t, [2]int32{-5, 7}, [2]int32{x, y})

	assert.Equal(t, errno(unix.E2BIG), c.Call(h, "setwidth", object.IntValue(1), object.IntValue(2)))
	assert.Equal(t, errno(unix.ENOSYS), c.Call(h, "explode"))
	assert.Equal(t, errno(unix.ENOENT), c.Call(h+1, "setwidth", object.IntValue(1)))

	ss.Destroy()
	assert.Equal(t, errno(unix.ENOENT), c.Call(h, "setwidth", object.IntValue(1)))
}

func TestShellAttributes(t *testing.T) {
	c, _ := newTestCompositor(t, nil)
	_, ss, _ := newShell(t, c, nil, 3, 30, 20)
	h := ss.Handle()

	v, err := c.Attr(h, "visible")
	require.NoError(t, err)
	assert.Equal(t, object.BoolValue(true), v)

	require.NoError(t, c.SetAttr(h, "visible", object.BoolValue(false)))
	assert.False(t, ss.Visible())
	assert.ErrorIs(t, c.SetAttr(h, "visible", object.IntValue(1)), unix.EINVAL)

	require.NoError(t, c.SetAttr(h, "z", object.IntValue(-3)))
	v, err = c.Attr(h, "z")
	require.NoError(t, err)
	assert.Equal(t, object.IntValue(-3), v)
	assert.ErrorIs(t, c.SetAttr(h, "z", object.IntValue(math.MaxInt64)), unix.EINVAL)
	assert.ErrorIs(t, c.SetAttr(h, "z", object.StringValue("top")), unix.EINVAL)

	_, err = c.Attr(h, "color")
	assert.ErrorIs(t, err, unix.ENOENT)
	_, err = c.Attr(0, "z")
	assert.ErrorIs(t, err, object.ErrStaleHandle)
}

func TestDrawOrder(t *testing.T) {
	c, _ := newTestCompositor(t, nil)
	_, a, _ := newShell(t, c, nil, 1, 10, 10)
	_, b, _ := newShell(t, c, nil, 2, 10, 10)
	_, hidden, _ := newShell(t, c, nil, 3, 10, 10)
	_, top, _ := newShell(t, c, nil, 4, 10, 10)

	hidden.SetVisible(false)
	top.SetZ(5)
	a.SetZ(1)

	m := c.Cursor().Monitor()
	assert.Equal(t, []*ShellSurface{b, a, top}, m.drawOrder())
	assert.Equal(t, []*ShellSurface{a, b, hidden, top}, m.Surfaces(), "surfaces keep insertion order")
}

func TestShellCmp(t *testing.T) {
	c, _ := newTestCompositor(t, nil)
	_, a, _ := newShell(t, c, nil, 1, 10, 10)
	_, b, _ := newShell(t, c, nil, 2, 10, 10)

	assert.Zero(t, a.Cmp(a))
	assert.Negative(t, a.Cmp(b))
	assert.Positive(t, b.Cmp(a))
	assert.Equal(t, uint64(1001), a.Hash())

	b.SetResource(nil)
	assert.Positive(t, a.Cmp(b))
	assert.Zero(t, b.Hash())
}
