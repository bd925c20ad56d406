// Package compositor is the core of the compositor: monitors and their
// repaint loops, the cursor, surfaces and their commit protocol, and
// shell surfaces with their command tables.
//
// Everything hangs off of a Compositor, which is created once at
// startup and passed to the protocol layer. None of it is safe for
// concurrent use except where noted; it is all driven from the single
// event loop goroutine.
package compositor

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"deedles.dev/kms/buffer"
	"deedles.dev/kms/drm"
	"deedles.dev/kms/internal/logger"
	"deedles.dev/kms/object"
	"deedles.dev/kms/render"
	"github.com/charmbracelet/log"
)

// Options configure a Compositor.
type Options struct {
	Device   drm.Device
	Renderer render.Backend

	// Cursor is the default cursor image. If nil, the cursor is blank
	// until a client sets one.
	Cursor buffer.Buffer

	// Display is the protocol display that events are sent through. If
	// nil, events are sent without any synchronization.
	Display Display

	Logger *log.Logger
}

// Compositor owns the monitors of one device and everything displayed
// on them.
type Compositor struct {
	dev      drm.Device
	renderer render.Backend
	display  Display
	log      *log.Logger
	start    time.Time

	monitors []*Monitor
	cursor   *Cursor
	focus    focus
	shells   object.Pool[*ShellSurface]
	outputs  []func(*Monitor)

	cleanups []func()
	closed   bool
}

// New enumerates the connectors of the device, reserving a CRTC for
// each connected one, and creates the cursor. It does not modeset;
// that happens in Start.
func New(opts Options) (*Compositor, error) {
	if opts.Device == nil {
		return nil, errors.New("no device")
	}
	if opts.Renderer == nil {
		return nil, errors.New("no renderer")
	}

	c := Compositor{
		dev:      opts.Device,
		renderer: opts.Renderer,
		display:  opts.Display,
		log:      opts.Logger,
		start:    time.Now(),
	}
	if c.display == nil {
		c.display = new(nopDisplay)
	}
	if c.log == nil {
		c.log = logger.Logger
	}
	c.focus.comp = &c

	err := c.enumerate()
	if err != nil {
		return nil, err
	}

	c.cursor, err = newCursor(&c, opts.Cursor)
	if err != nil {
		c.teardownMonitors()
		return nil, fmt.Errorf("create cursor: %w", err)
	}

	return &c, nil
}

func (c *Compositor) enumerate() error {
	res, err := c.dev.Resources()
	if err != nil {
		return fmt.Errorf("get resources: %w", err)
	}

	for i, id := range res.Connectors {
		m := newMonitor(c, i, id)
		c.monitors = append(c.monitors, m)

		err := m.probe(res)
		if err != nil {
			m.log.Warn("monitor disconnected", "err", err)
			continue
		}
		m.log.Info("monitor connected", "mode", m.Mode())
	}

	return nil
}

// Start populates the framebuffers of every connected monitor, which
// modesets them and begins their repaint loops, and shows the cursor.
// A monitor that fails to start is logged and left dark.
func (c *Compositor) Start() error {
	for _, m := range c.monitors {
		if m.State() != Connected {
			continue
		}

		err := m.PopulateFB()
		if err != nil {
			m.log.Error("populate framebuffer", "err", err)
		}
	}

	return c.cursor.Redraw()
}

// OnCleanup registers f to be called by Close. Callbacks run in the
// reverse of the order they were registered in.
func (c *Compositor) OnCleanup(f func()) {
	c.cleanups = append(c.cleanups, f)
}

// Close runs the registered cleanups, restores every monitor's
// original CRTC configuration, and releases the cursor.
func (c *Compositor) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true

	for _, f := range slices.Backward(c.cleanups) {
		f()
	}
	c.cleanups = nil

	for _, s := range c.shells.All() {
		s.Destroy()
	}

	err := c.cursor.destroy()
	return errors.Join(err, c.teardownMonitors())
}

func (c *Compositor) teardownMonitors() error {
	var errs []error
	for _, m := range c.monitors {
		errs = append(errs, m.teardown())
	}
	c.monitors = nil
	return errors.Join(errs...)
}

// Device returns the device that the compositor drives.
func (c *Compositor) Device() drm.Device {
	return c.dev
}

// Renderer returns the renderer that surfaces are uploaded with.
func (c *Compositor) Renderer() render.Backend {
	return c.renderer
}

// Monitors returns every monitor, connected or not, in connector
// order.
func (c *Compositor) Monitors() []*Monitor {
	return slices.Clone(c.monitors)
}

// Monitor returns the monitor driving crtc.
func (c *Compositor) Monitor(crtc uint32) (*Monitor, bool) {
	i := slices.IndexFunc(c.monitors, func(m *Monitor) bool {
		return m.State() == Connected && m.crtc == crtc
	})
	if i < 0 {
		return nil, false
	}
	return c.monitors[i], true
}

// OnMonitor registers f to be called with every connected monitor,
// both those that already exist and any that are created later. The
// protocol layer uses it to publish outputs.
func (c *Compositor) OnMonitor(f func(*Monitor)) {
	c.outputs = append(c.outputs, f)
	for _, m := range c.monitors {
		if m.State() == Connected {
			f(m)
		}
	}
}

func (c *Compositor) Cursor() *Cursor {
	return c.cursor
}

// HandleFlip handles a page flip completion. The event's user data is
// the CRTC that flipped. Completions for monitors that are gone are
// dropped.
func (c *Compositor) HandleFlip(ev drm.Event) {
	if ev.Type != drm.EventFlipComplete {
		return
	}

	m, ok := c.Monitor(uint32(ev.UserData))
	if !ok {
		c.log.Debug("dropped flip for unknown crtc", "crtc", ev.UserData)
		return
	}
	m.flipped()
}

// ProcessDeviceEvents reads pending events from the device and handles
// them. It blocks if there are none.
func (c *Compositor) ProcessDeviceEvents() error {
	events, err := c.dev.ReadEvents()
	if err != nil {
		return fmt.Errorf("read device events: %w", err)
	}
	for _, ev := range events {
		c.HandleFlip(ev)
	}
	return nil
}

// WatchDevice waits for device events and passes them to post until
// ctx is canceled or post returns false. It is meant to be run in its
// own goroutine with post handing the events to the event loop, which
// then calls HandleFlip.
func WatchDevice(ctx context.Context, dev drm.Device, post func(drm.Event) bool) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		ready, err := dev.Wait(100)
		if err != nil {
			return fmt.Errorf("wait for device: %w", err)
		}
		if !ready {
			continue
		}

		events, err := dev.ReadEvents()
		if err != nil {
			return fmt.Errorf("read device events: %w", err)
		}
		for _, ev := range events {
			if !post(ev) {
				return nil
			}
		}
	}
}

// Now returns the compositor's clock in milliseconds, the way protocol
// timestamps are given.
func (c *Compositor) Now() uint32 {
	return uint32(time.Since(c.start).Milliseconds())
}
