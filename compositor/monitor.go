package compositor

import (
	"errors"
	"fmt"
	"image"
	"math"
	"slices"

	"deedles.dev/kms/drm"
	"deedles.dev/kms/gbm"
	"deedles.dev/kms/internal/set"
	"deedles.dev/kms/object"
	"deedles.dev/kms/render"
	"github.com/charmbracelet/log"
	"golang.org/x/sys/unix"
)

// ErrNoMode is returned for connectors that report no modes.
var ErrNoMode = fmt.Errorf("connector has no modes: %w", unix.ENOENT)

var errNotConnected = errors.New("connector is not connected")

var MonitorType = object.NewType("monitor", nil)

// State is a stage of a monitor's life. Monitors move forward through
// the states in order and stop at either Connected or Disconnected.
type State uint8

const (
	Discovered State = iota
	ModeSelected
	CrtcReserved
	Connected
	Disconnected
)

func (s State) String() string {
	switch s {
	case Discovered:
		return "discovered"
	case ModeSelected:
		return "mode selected"
	case CrtcReserved:
		return "crtc reserved"
	case Connected:
		return "connected"
	case Disconnected:
		return "disconnected"
	}
	return fmt.Sprintf("State(%d)", uint8(s))
}

// Mode is one of the modes that a monitor supports. ID is its index in
// the connector's mode list.
type Mode struct {
	ID int
	drm.ModeInfo
}

// Flags for wl_output.mode.
const (
	outputModeCurrent   = 0x1
	outputModePreferred = 0x2
)

// Monitor is a connector and, once connected, the CRTC and swapchain
// that drive it.
type Monitor struct {
	object.Object
	comp *Compositor
	log  *log.Logger

	id        int
	connector uint32
	name      string
	state     State
	modes     []Mode
	mode      int
	crtc      uint32
	mmWidth   uint32
	mmHeight  uint32
	subpixel  uint32

	saved   *drm.Crtc
	swap    *gbm.Surface
	out     render.Output
	modeset bool

	surfaces set.Ordered[*ShellSurface]
	outputs  set.Ordered[Output]
}

func newMonitor(c *Compositor, id int, connector uint32) *Monitor {
	m := Monitor{
		comp:      c,
		id:        id,
		connector: connector,
	}
	m.Init(MonitorType, &m)
	m.log = c.log.With("monitor", id, "connector", connector)
	return &m
}

// probe moves the monitor from Discovered to either Connected or
// Disconnected.
func (m *Monitor) probe(res *drm.Resources) error {
	err := m.connect(res)
	if err != nil {
		m.setState(Disconnected)
	}
	return err
}

func (m *Monitor) connect(res *drm.Resources) error {
	conn, err := m.comp.dev.Connector(m.connector)
	if err != nil {
		return fmt.Errorf("get connector: %w", err)
	}

	m.name = conn.Name()
	m.mmWidth, m.mmHeight = conn.MMWidth, conn.MMHeight
	m.subpixel = conn.Subpixel
	m.log = m.log.With("name", m.name)

	if conn.Connection != drm.Connected {
		return errNotConnected
	}
	if len(conn.Modes) == 0 {
		return ErrNoMode
	}

	m.modes = make([]Mode, 0, len(conn.Modes))
	for i, mode := range conn.Modes {
		m.modes = append(m.modes, Mode{ID: i, ModeInfo: mode})
	}
	m.mode = 0
	m.setState(ModeSelected)

	crtc, err := m.reserveCRTC(conn, res)
	if err != nil {
		return err
	}
	m.crtc = crtc
	m.log = m.log.With("crtc", crtc)
	m.setState(CrtcReserved)

	m.setState(Connected)
	for _, f := range m.comp.outputs {
		f(m)
	}
	return nil
}

func (m *Monitor) setState(s State) {
	m.Lock()
	defer m.Unlock()
	m.state = s
}

func (m *Monitor) State() State {
	m.RLock()
	defer m.RUnlock()
	return m.state
}

func (m *Monitor) ID() int           { return m.id }
func (m *Monitor) Name() string      { return m.name }
func (m *Monitor) Connector() uint32 { return m.connector }
func (m *Monitor) CRTC() uint32      { return m.crtc }

// PhysicalSize returns the size of the display in millimeters.
func (m *Monitor) PhysicalSize() (width, height uint32) {
	return m.mmWidth, m.mmHeight
}

func (m *Monitor) Modes() []Mode {
	return slices.Clone(m.modes)
}

// Mode returns the selected mode. It is the zero Mode if the monitor
// never got as far as selecting one.
func (m *Monitor) Mode() Mode {
	if m.mode >= len(m.modes) {
		return Mode{}
	}
	return m.modes[m.mode]
}

// Size is the size of the selected mode in pixels.
func (m *Monitor) Size() (width, height int) {
	mode := m.Mode()
	return int(mode.Hdisplay), int(mode.Vdisplay)
}

// SetMode selects a different mode. It must be called before the
// monitor's framebuffer is populated.
func (m *Monitor) SetMode(id int) error {
	if id < 0 || id >= len(m.modes) {
		return fmt.Errorf("mode %v of %v: %w", id, len(m.modes), unix.EINVAL)
	}
	if m.swap != nil {
		return fmt.Errorf("set mode on running monitor: %w", unix.EBUSY)
	}

	m.mode = id
	for out := range m.outputs.All() {
		m.sendMode(out, m.modes[id])
		out.Done()
	}
	return nil
}

// Hash combines the CRTC with the device's file descriptor.
func (m *Monitor) Hash() uint64 {
	return math.MaxUint64 / (uint64(m.crtc)*uint64(m.comp.dev.Fd()) + 1)
}

// Cmp orders monitors by id and then by device.
func (m *Monitor) Cmp(other any) int {
	o, ok := other.(*Monitor)
	if !ok {
		return 1
	}
	if m.id != o.id {
		return m.id - o.id
	}
	return m.comp.dev.Fd() - o.comp.dev.Fd()
}

// PopulateFB creates the monitor's render target and swapchain, saves
// the CRTC's configuration for teardown, and draws the first frame,
// which modesets the CRTC and starts the repaint loop.
func (m *Monitor) PopulateFB() error {
	if m.State() != Connected {
		return fmt.Errorf("populate %v monitor: %w", m.State(), unix.ENODEV)
	}
	if m.swap != nil {
		return nil
	}

	c := m.comp
	w, h := m.Size()
	alloc, out, err := c.renderer.NewTarget(uint32(w), uint32(h))
	if err != nil {
		return fmt.Errorf("create render target: %w", err)
	}

	saved, err := c.dev.Crtc(m.crtc)
	if err != nil {
		out.Destroy()
		alloc.Destroy()
		return fmt.Errorf("save crtc: %w", err)
	}

	m.saved = saved
	m.out = out
	m.swap = gbm.NewSurface(c.dev, alloc, uint32(w), uint32(h))

	if b, ok := c.renderer.(interface{ BindWaylandDisplay() error }); ok {
		err := b.BindWaylandDisplay()
		if err != nil {
			m.log.Debug("clients will not share buffers with the renderer", "err", err)
		}
	}

	m.log.Info("framebuffer populated", "size", image.Pt(w, h), "renderer", c.renderer.Name())
	return m.Redraw()
}

// Redraw renders a frame and queues it for display. It does nothing if
// the monitor has no framebuffer or a flip is still pending. The first
// redraw modesets the CRTC.
func (m *Monitor) Redraw() error {
	if m.swap == nil || m.swap.Busy() {
		return nil
	}

	err := m.render()
	if err != nil {
		return err
	}

	fb, err := m.swap.Lock()
	if err != nil {
		return err
	}

	if !m.modeset {
		mode := m.Mode().ModeInfo
		err := m.comp.dev.SetCrtc(m.crtc, fb, 0, 0, []uint32{m.connector}, &mode)
		if err != nil {
			return errors.Join(fmt.Errorf("set crtc: %w", err), m.swap.Abandon())
		}
		m.modeset = true

		err = m.swap.Release()
		if err != nil {
			return fmt.Errorf("release modeset buffer: %w", err)
		}
		return m.Redraw()
	}

	err = m.swap.Flip(m.crtc, uint64(m.crtc))
	if err != nil {
		return errors.Join(fmt.Errorf("page flip: %w", err), m.swap.Abandon())
	}
	return nil
}

func (m *Monitor) render() error {
	err := m.out.Begin()
	if err != nil {
		return fmt.Errorf("begin frame: %w", err)
	}

	for _, s := range m.drawOrder() {
		tex := s.surface.Texture()
		if tex == nil {
			continue
		}

		x, y, w, h := s.Geometry()
		ox, oy := s.surface.Offset()
		x, y = x+ox, y+oy
		m.out.Draw(tex, image.Rect(int(x), int(y), int(x+w), int(y+h)))
		s.clearUpdate()
	}

	err = m.out.End()
	if err != nil {
		return fmt.Errorf("end frame: %w", err)
	}
	return nil
}

// drawOrder returns the visible surfaces from bottom to top. Surfaces
// with equal z are drawn in the order they were added.
func (m *Monitor) drawOrder() []*ShellSurface {
	m.RLock()
	surfaces := slices.Collect(m.surfaces.All())
	m.RUnlock()

	surfaces = slices.DeleteFunc(surfaces, func(s *ShellSurface) bool {
		return !s.Visible() || s.Surface() == nil
	})
	slices.SortStableFunc(surfaces, func(a, b *ShellSurface) int {
		return int(a.Z()) - int(b.Z())
	})
	return surfaces
}

// flipped is called when the pending page flip completes.
func (m *Monitor) flipped() {
	if m.swap == nil {
		return
	}

	err := m.swap.Release()
	if err != nil {
		m.log.Warn("release displayed buffer", "err", err)
	}

	err = m.Redraw()
	if err != nil {
		m.log.Error("redraw", "err", err)
	}
}

// Surfaces returns the shell surfaces shown on the monitor in the
// order that they were added.
func (m *Monitor) Surfaces() []*ShellSurface {
	m.RLock()
	defer m.RUnlock()
	return slices.Collect(m.surfaces.All())
}

func (m *Monitor) addSurface(s *ShellSurface) {
	m.Lock()
	defer m.Unlock()
	m.surfaces.Add(s)
}

func (m *Monitor) removeSurface(s *ShellSurface) {
	m.Lock()
	defer m.Unlock()
	m.surfaces.Remove(s)
}

// Bind describes the monitor to a newly bound output: its geometry,
// every mode, and then done.
func (m *Monitor) Bind(out Output) {
	out.Geometry(0, 0, int32(m.mmWidth), int32(m.mmHeight), 0, "unknown", "unknown", 0)
	for _, mode := range m.modes {
		m.sendMode(out, mode)
	}
	out.Done()

	m.Lock()
	defer m.Unlock()
	m.outputs.Add(out)
}

// Unbind stops sending updates to out.
func (m *Monitor) Unbind(out Output) {
	m.Lock()
	defer m.Unlock()
	m.outputs.Remove(out)
}

func (m *Monitor) sendMode(out Output, mode Mode) {
	var flags uint32
	if mode.ID == m.mode {
		flags |= outputModeCurrent
	}
	if mode.Preferred() {
		flags |= outputModePreferred
	}
	out.Mode(flags, int32(mode.Hdisplay), int32(mode.Vdisplay), int32(mode.Vrefresh*1000))
}

// teardown restores the CRTC to the configuration it had before the
// monitor took it over and frees the swapchain.
func (m *Monitor) teardown() error {
	var errs []error
	if m.saved != nil {
		var mode *drm.ModeInfo
		if m.saved.ModeValid {
			mode = &m.saved.Mode
		}
		err := m.comp.dev.SetCrtc(m.saved.ID, m.saved.FB, m.saved.X, m.saved.Y, []uint32{m.connector}, mode)
		if err != nil {
			errs = append(errs, fmt.Errorf("restore crtc %v: %w", m.saved.ID, err))
		}
		m.saved = nil
	}

	if m.out != nil {
		m.out.Destroy()
		m.out = nil
	}
	if m.swap != nil {
		errs = append(errs, m.swap.Destroy())
		m.swap = nil
	}

	m.Lock()
	m.surfaces.Clear()
	m.outputs.Clear()
	m.Unlock()

	m.Unref()
	return errors.Join(errs...)
}

func (m *Monitor) Deinit() {
	m.log.Debug("monitor released")
}
