package compositor

import (
	"testing"

	"deedles.dev/kms/buffer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

func TestCommit(t *testing.T) {
	c, _ := newTestCompositor(t, nil)
	s := c.NewSurface(&fakeResource{id: 3})
	defer s.Destroy()

	a := newFakeBuffer(64, 64)
	s.Attach(a, 0, 0)
	require.NoError(t, s.Commit())
	w, h := s.Size()
	assert.Equal(t, [2]int{64, 64}, [2]int{w, h})
	assert.Equal(t, 1, a.released)
	require.NotNil(t, s.Texture())

	b := newFakeBuffer(32, 32)
	s.Attach(b, 3, 4)
	assert.Equal(t, Attached, s.Pending())
	w, h = s.Size()
	assert.Equal(t, [2]int{64, 64}, [2]int{w, h}, "attach alone changes nothing")
	assert.Zero(t, b.released)

	require.NoError(t, s.Commit())
	w, h = s.Size()
	assert.Equal(t, [2]int{32, 32}, [2]int{w, h})
	x, y := s.Offset()
	assert.Equal(t, [2]int32{3, 4}, [2]int32{x, y})
	assert.Zero(t, s.Pending())
	assert.Equal(t, 1, b.released)
	assert.Equal(t, 1, a.released)
}

func TestCommitWithoutAttach(t *testing.T) {
	c, _ := newTestCompositor(t, nil)
	s := c.NewSurface(&fakeResource{id: 3})
	defer s.Destroy()

	s.Attach(newFakeBuffer(16, 16), 1, 2)
	require.NoError(t, s.Commit())

	s.Damage(0, 0, 8, 8)
	assert.Equal(t, Damaged, s.Pending())
	require.NoError(t, s.Commit())
	assert.Zero(t, s.Pending())

	w, h := s.Size()
	assert.Equal(t, [2]int{16, 16}, [2]int{w, h})
	x, y := s.Offset()
	assert.Equal(t, [2]int32{1, 2}, [2]int32{x, y})

	require.NoError(t, s.Commit())
	assert.Zero(t, s.Pending())
}

func TestCommitDetach(t *testing.T) {
	c, _ := newTestCompositor(t, nil)
	s, ss, _ := newShell(t, c, nil, 3, 20, 10)
	defer ss.Destroy()

	s.Attach(nil, 0, 0)
	require.NoError(t, s.Commit())
	assert.Nil(t, s.Texture())
	_, _, w, h := ss.Geometry()
	assert.Zero(t, w)
	assert.Zero(t, h)
}

func TestCommitUnsupportedFormat(t *testing.T) {
	c, _ := newTestCompositor(t, nil)
	s := c.NewSurface(&fakeResource{id: 3})
	defer s.Destroy()

	buf := &fakeBuffer{buf: buffer.NewRaw(4, 4, buffer.RGBA8888)}
	s.Attach(buf, 0, 0)
	assert.Error(t, s.Commit())
	assert.Zero(t, s.Pending())
	assert.Equal(t, 1, buf.released, "the buffer is released even if it could not be used")
}

func TestFrameCallback(t *testing.T) {
	c, _ := newTestCompositor(t, nil)
	s := c.NewSurface(&fakeResource{id: 3})
	defer s.Destroy()

	var cb fakeCallback
	s.Frame(&cb)
	require.NoError(t, s.Commit())
	assert.Zero(t, cb.done, "no content was committed")

	s.Attach(newFakeBuffer(4, 4), 0, 0)
	require.NoError(t, s.Commit())
	assert.Equal(t, 1, cb.done)

	s.Attach(newFakeBuffer(4, 4), 0, 0)
	require.NoError(t, s.Commit())
	assert.Equal(t, 1, cb.done, "callbacks are one-shot")
}

func TestFrameCallbacksAccumulate(t *testing.T) {
	c, _ := newTestCompositor(t, nil)
	s := c.NewSurface(&fakeResource{id: 3})
	defer s.Destroy()

	var first, second fakeCallback
	s.Frame(&first)
	s.Frame(&second)
	s.Attach(newFakeBuffer(4, 4), 0, 0)
	require.NoError(t, s.Commit())
	assert.Equal(t, 1, first.done, "an earlier callback is not dropped by a later one")
	assert.Equal(t, 1, second.done)

	s.Attach(newFakeBuffer(4, 4), 0, 0)
	require.NoError(t, s.Commit())
	assert.Equal(t, 1, first.done)
	assert.Equal(t, 1, second.done)
}

func TestCommitUpdatesShell(t *testing.T) {
	c, _ := newTestCompositor(t, nil)
	s, ss, _ := newShell(t, c, nil, 3, 0, 0)
	defer ss.Destroy()

	_, _, w, h := ss.Geometry()
	assert.Zero(t, w)
	assert.Zero(t, h)

	s.Attach(newFakeBuffer(40, 30), 0, 0)
	require.NoError(t, s.Commit())
	x, y, w, h := ss.Geometry()
	assert.Equal(t, [4]int32{10, 10, 40, 30}, [4]int32{x, y, w, h})
	assert.True(t, ss.NeedsRedraw())
}

func TestSetRole(t *testing.T) {
	tests := []struct {
		name  string
		roles []Role
		errs  []bool
		final Role
	}{
		{name: "Once", roles: []Role{RoleShell}, errs: []bool{false}, final: RoleShell},
		{name: "Idempotent", roles: []Role{RoleShell, RoleShell}, errs: []bool{false, false}, final: RoleShell},
		{name: "Conflict", roles: []Role{RoleShell, RolePointer}, errs: []bool{false, true}, final: RoleShell},
		{name: "ConflictThenSame", roles: []Role{RolePointer, RoleShell, RolePointer}, errs: []bool{false, true, false}, final: RolePointer},
		{name: "Clear", roles: []Role{RolePointer, RoleNone}, errs: []bool{false, true}, final: RolePointer},
	}

	c, _ := newTestCompositor(t, nil)
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			s := c.NewSurface(&fakeResource{id: 3})
			defer s.Destroy()

			for i, role := range test.roles {
				err := s.SetRole(role)
				if test.errs[i] {
					assert.Error(t, err, "role %v", role)
					continue
				}
				assert.NoError(t, err, "role %v", role)
			}
			assert.Equal(t, test.final, s.Role())
		})
	}
}

func TestRoleConflictErrno(t *testing.T) {
	c, _ := newTestCompositor(t, nil)
	s := c.NewSurface(&fakeResource{id: 3})
	defer s.Destroy()

	require.NoError(t, s.SetRole(RolePointer))
	_, err := c.NewShellSurface(&fakeShellResource{}, s)
	assert.ErrorIs(t, err, ErrRoleConflict)
	assert.ErrorIs(t, err, unix.EEXIST)
	assert.Equal(t, int32(1), s.Refs(), "a failed shell surface keeps no reference")
}

func TestSurfaceDestroy(t *testing.T) {
	c, _ := newTestCompositor(t, nil)
	client := new(fakeClient)
	s, ss, _ := newShell(t, c, client, 3, 50, 50)
	defer ss.Destroy()

	cur := c.Cursor()
	require.NoError(t, cur.SetPosition(20, 20))
	require.Equal(t, ss, cur.Active())
	require.Equal(t, ss, c.Focus())
	m := cur.Monitor()
	require.Contains(t, m.Surfaces(), ss)

	s.Destroy()
	assert.NotContains(t, m.Surfaces(), ss)
	assert.Nil(t, cur.Active())
	assert.Nil(t, c.Focus())
	assert.Nil(t, s.Resource())
	assert.Equal(t, int32(1), s.Refs(), "the shell surface still holds a reference")

	assert.Equal(t, errno(unix.EINVAL), ss.SetWidth(10))
}

func TestShellSurfaceDestroy(t *testing.T) {
	c, _ := newTestCompositor(t, nil)
	s, ss, _ := newShell(t, c, nil, 3, 50, 50)
	defer s.Destroy()

	h := ss.Handle()
	require.Equal(t, int32(2), s.Refs())
	require.Equal(t, ss, s.Parent())

	ss.Destroy()
	assert.Equal(t, int32(1), s.Refs())
	assert.Nil(t, s.Parent())
	assert.Nil(t, ss.Surface())
	_, err := c.ShellSurface(h)
	assert.Error(t, err)
	assert.Empty(t, c.Cursor().Monitor().Surfaces())

	ss.Destroy()
}

func TestInputRegion(t *testing.T) {
	c, _ := newTestCompositor(t, nil)
	s := c.NewSurface(&fakeResource{id: 3})
	defer s.Destroy()

	assert.True(t, s.accepts(100, 100), "no region accepts everything")

	r := NewRegion(nil)
	r.Add(0, 0, 10, 10)
	s.SetInputRegion(r)
	r.Add(10, 10, 10, 10)

	assert.True(t, s.accepts(5, 5))
	assert.False(t, s.accepts(15, 15), "the region is copied when it is set")

	s.SetInputRegion(nil)
	assert.True(t, s.accepts(15, 15))
}
