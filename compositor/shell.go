package compositor

import (
	"fmt"
	"iter"
	"math"

	"deedles.dev/kms/object"
	"golang.org/x/sys/unix"
)

// ShellSurfaceType describes shell surfaces to the command layer.
var ShellSurfaceType = object.NewType("shell_surface", WaylandObjectType)

func init() {
	ShellSurfaceType.Attributes = []object.Attribute{
		{
			Name: "visible",
			Kind: object.Bool,
			Get:  func(obj any) object.Value { return object.BoolValue(obj.(*ShellSurface).Visible()) },
			Set: func(obj any, v object.Value) error {
				if v.Kind != object.Bool {
					return fmt.Errorf("visible must be a bool, not %v: %w", v.Kind, unix.EINVAL)
				}
				obj.(*ShellSurface).SetVisible(v.Bool)
				return nil
			},
		},
		{
			Name: "z",
			Kind: object.Int,
			Get:  func(obj any) object.Value { return object.IntValue(int64(obj.(*ShellSurface).Z())) },
			Set: func(obj any, v object.Value) error {
				z, ok := int32Arg(v)
				if !ok {
					return fmt.Errorf("z must be a 32-bit int, not %v: %w", v, unix.EINVAL)
				}
				obj.(*ShellSurface).SetZ(z)
				return nil
			},
		},
	}

	ShellSurfaceType.Functions = []object.Function{
		shellFunc("setwidth", 1, func(s *ShellSurface, args []int32) int {
			return s.SetWidth(args[0])
		}),
		shellFunc("setheight", 1, func(s *ShellSurface, args []int32) int {
			return s.SetHeight(args[0])
		}),
		shellFunc("setwidthheight", 2, func(s *ShellSurface, args []int32) int {
			return s.SetWidthAndHeight(args[0], args[1])
		}),
		shellFunc("setpos", 2, func(s *ShellSurface, args []int32) int {
			return s.SetPos(args[0], args[1])
		}),
	}
}

func errno(err unix.Errno) int {
	return -int(err)
}

func int32Arg(v object.Value) (int32, bool) {
	if v.Kind != object.Int || v.Int > math.MaxInt32 || v.Int < math.MinInt32 {
		return 0, false
	}
	return int32(v.Int), true
}

func stackAt(stack []object.Value, i int) object.Value {
	if i >= len(stack) {
		return object.Value{}
	}
	return stack[i]
}

// shellFunc builds a function that takes n int arguments. The stack
// must hold the shell surface, the function name, exactly n ints, and
// then None.
func shellFunc(name string, n int, call func(s *ShellSurface, args []int32) int) object.Function {
	return object.Function{
		Name: name,
		Call: func(stack []object.Value) int {
			target := stackAt(stack, 0)
			if target.Kind != object.Obj {
				return errno(unix.EINVAL)
			}
			s, ok := target.Obj.(*ShellSurface)
			if !ok {
				return errno(unix.EINVAL)
			}

			args := make([]int32, n)
			for i := range args {
				v, ok := int32Arg(stackAt(stack, 2+i))
				if !ok {
					return errno(unix.EINVAL)
				}
				args[i] = v
			}
			if stackAt(stack, 2+n).Kind != object.None {
				return errno(unix.E2BIG)
			}

			return call(s, args)
		},
	}
}

// ShellSurface gives a surface a place on a monitor. It is the shell
// role's state: where the surface is drawn, how big, whether it is
// drawn, and in what order.
type ShellSurface struct {
	WaylandObject
	comp    *Compositor
	handle  object.Handle
	surface *Surface
	monitor *Monitor

	x, y          int32
	width, height int32
	visible       bool
	z             int32
	update        bool
}

// NewShellSurface gives surface the shell role and shows it on the
// cursor's monitor. The shell surface holds a reference to surface
// until it is destroyed.
func (c *Compositor) NewShellSurface(res ShellResource, surface *Surface) (*ShellSurface, error) {
	err := surface.SetRole(RoleShell)
	if err != nil {
		return nil, err
	}
	surface.Ref()

	s := ShellSurface{
		comp:    c,
		surface: surface,
		x:       10,
		y:       10,
		visible: true,
	}
	var r Resource
	if res != nil {
		r = res
	}
	s.initWayland(ShellSurfaceType, &s, r)

	w, h := surface.Size()
	s.width, s.height = int32(w), int32(h)

	surface.setParent(&s)
	s.handle = c.shells.Add(&s)
	if m := c.cursor.Monitor(); m != nil {
		s.monitor = m
		m.addSurface(&s)
	}

	return &s, nil
}

// Handle identifies the shell surface to the command layer.
func (s *ShellSurface) Handle() object.Handle {
	return s.handle
}

// Surface returns the surface that s shows. It is nil once s is
// destroyed.
func (s *ShellSurface) Surface() *Surface {
	s.RLock()
	defer s.RUnlock()
	return s.surface
}

func (s *ShellSurface) Monitor() *Monitor {
	return s.monitor
}

// surfaceResource returns the resource of the underlying surface, or
// nil if either is gone.
func (s *ShellSurface) surfaceResource() Resource {
	surface := s.Surface()
	if surface == nil {
		return nil
	}
	return surface.Resource()
}

func (s *ShellSurface) shellResource() ShellResource {
	r, _ := s.Resource().(ShellResource)
	return r
}

// Geometry returns where the surface is drawn.
func (s *ShellSurface) Geometry() (x, y, width, height int32) {
	s.RLock()
	defer s.RUnlock()
	return s.x, s.y, s.width, s.height
}

func (s *ShellSurface) Visible() bool {
	s.RLock()
	defer s.RUnlock()
	return s.visible
}

func (s *ShellSurface) SetVisible(v bool) {
	s.Lock()
	defer s.Unlock()
	s.visible = v
	s.update = true
}

func (s *ShellSurface) Z() int32 {
	s.RLock()
	defer s.RUnlock()
	return s.z
}

func (s *ShellSurface) SetZ(z int32) {
	s.Lock()
	defer s.Unlock()
	s.z = z
	s.update = true
}

// NeedsRedraw reports whether the surface changed since it was last
// drawn.
func (s *ShellSurface) NeedsRedraw() bool {
	s.RLock()
	defer s.RUnlock()
	return s.update
}

func (s *ShellSurface) clearUpdate() {
	s.Lock()
	defer s.Unlock()
	s.update = false
}

// committed is called when the underlying surface commits a buffer of
// the given size.
func (s *ShellSurface) committed(width, height int) {
	s.Lock()
	defer s.Unlock()
	s.width, s.height = int32(width), int32(height)
	s.update = true
}

// hit reports whether the point is inside the surface, edges included,
// and inside its input region. Empty surfaces are never hit.
func (s *ShellSurface) hit(px, py int32) bool {
	s.RLock()
	x, y, w, h := s.x, s.y, s.width, s.height
	visible, surface := s.visible, s.surface
	s.RUnlock()

	if !visible || surface == nil || w <= 0 || h <= 0 {
		return false
	}

	rx, ry := px-x, py-y
	if rx < 0 || ry < 0 || rx > w || ry > h {
		return false
	}
	return surface.accepts(int(rx), int(ry))
}

// live reports whether both the surface and its resource still exist.
func (s *ShellSurface) live() bool {
	return s.surfaceResource() != nil && s.shellResource() != nil
}

// SetPos moves the surface.
func (s *ShellSurface) SetPos(x, y int32) int {
	if s.Surface() == nil {
		return errno(unix.EINVAL)
	}

	s.Lock()
	defer s.Unlock()
	s.x, s.y = x, y
	s.update = true
	return 0
}

// SetWidth asks the client to resize the surface to the given width.
func (s *ShellSurface) SetWidth(width int32) int {
	if !s.live() {
		return errno(unix.EINVAL)
	}

	s.Lock()
	s.width = width
	height := s.height
	s.Unlock()

	s.shellResource().Configure(0, width, height)
	return 0
}

// SetHeight asks the client to resize the surface to the given height.
func (s *ShellSurface) SetHeight(height int32) int {
	if !s.live() {
		return errno(unix.EINVAL)
	}

	s.Lock()
	s.height = height
	width := s.width
	s.Unlock()

	s.shellResource().Configure(0, width, height)
	return 0
}

// SetWidthAndHeight asks the client to resize the surface.
func (s *ShellSurface) SetWidthAndHeight(width, height int32) int {
	if !s.live() {
		return errno(unix.EINVAL)
	}

	s.Lock()
	s.width, s.height = width, height
	s.Unlock()

	s.shellResource().Configure(0, width, height)
	return 0
}

// Hash is the resource's id.
func (s *ShellSurface) Hash() uint64 {
	res := s.Resource()
	if res == nil {
		return 0
	}
	return uint64(res.ID())
}

// Cmp orders shell surfaces by their resources. Shell surfaces without
// resources sort first.
func (s *ShellSurface) Cmp(other any) int {
	o, ok := other.(*ShellSurface)
	if !ok {
		return 1
	}

	a, b := s.Resource(), o.Resource()
	switch {
	case a == b:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}

	if a.ID() != b.ID() {
		if a.ID() < b.ID() {
			return -1
		}
		return 1
	}
	if s.UUID() < o.UUID() {
		return -1
	}
	return 1
}

// Destroy takes the surface off of its monitor and releases it. It is
// called when the shell surface's resource is destroyed.
func (s *ShellSurface) Destroy() {
	c := s.comp
	if !c.shells.Remove(s.handle) {
		return
	}

	for _, m := range c.monitors {
		m.removeSurface(s)
	}
	if c.cursor.Active() == s {
		c.cursor.forget()
	}
	c.focus.forget(s)

	s.SetResource(nil)
	s.Unref()
}

func (s *ShellSurface) Deinit() {
	s.Lock()
	surface := s.surface
	s.surface = nil
	s.Unlock()

	if surface != nil {
		surface.setParent(nil)
		surface.Unref()
	}
}

// ShellSurface looks up a shell surface by handle.
func (c *Compositor) ShellSurface(h object.Handle) (*ShellSurface, error) {
	return c.shells.Get(h)
}

// ShellSurfaces yields every live shell surface.
func (c *Compositor) ShellSurfaces() iter.Seq2[object.Handle, *ShellSurface] {
	return c.shells.All()
}

// Call runs the named function of a shell surface with args. It
// returns zero or a negated errno.
func (c *Compositor) Call(h object.Handle, name string, args ...object.Value) int {
	s, err := c.shells.Get(h)
	if err != nil {
		return errno(unix.ENOENT)
	}
	f, ok := ShellSurfaceType.Function(name)
	if !ok {
		return errno(unix.ENOSYS)
	}

	stack := make([]object.Value, 0, len(args)+3)
	stack = append(stack, object.ObjValue(s), object.StringValue(name))
	stack = append(stack, args...)
	stack = append(stack, object.Value{})
	return f.Call(stack)
}

// Attr reads the named attribute of a shell surface.
func (c *Compositor) Attr(h object.Handle, name string) (object.Value, error) {
	s, err := c.shells.Get(h)
	if err != nil {
		return object.Value{}, err
	}
	a, ok := ShellSurfaceType.Attribute(name)
	if !ok {
		return object.Value{}, fmt.Errorf("no attribute %q: %w", name, unix.ENOENT)
	}
	return a.Get(s), nil
}

// SetAttr writes the named attribute of a shell surface.
func (c *Compositor) SetAttr(h object.Handle, name string, v object.Value) error {
	s, err := c.shells.Get(h)
	if err != nil {
		return err
	}
	a, ok := ShellSurfaceType.Attribute(name)
	if !ok {
		return fmt.Errorf("no attribute %q: %w", name, unix.ENOENT)
	}
	return a.Set(s, v)
}
