// Package input reads pointer events from evdev devices.
package input

import (
	"context"
	"errors"
	"fmt"
	"math"
	"slices"
	"strings"
	"sync"

	"deedles.dev/kms/internal/logger"
	"deedles.dev/kms/pointer"
	"github.com/charmbracelet/log"
	evdev "github.com/gvalkov/golang-evdev"
)

// Kind is the kind of an Event.
type Kind int

const (
	Motion Kind = iota
	Button
)

// Event is a pointer event ready to be applied to the cursor.
type Event struct {
	Kind   Kind
	DX, DY int32
	Button pointer.Button
	State  pointer.ButtonState
}

func (ev Event) String() string {
	switch ev.Kind {
	case Motion:
		return fmt.Sprintf("motion %v,%v", ev.DX, ev.DY)
	case Button:
		return fmt.Sprintf("button %v %v", ev.Button, ev.State)
	}
	return "unknown"
}

// Translator turns raw evdev events into Events. Relative motion is
// collected until the end of each report and scaled by Speed, with the
// fractional part carried over to the next report.
type Translator struct {
	Speed float64

	dx, dy   int32
	fx, fy   float64
	reported bool
}

// Feed processes one evdev event, returning any Events that it
// completes.
func (t *Translator) Feed(ev evdev.InputEvent) []Event {
	switch ev.Type {
	case evdev.EV_REL:
		switch ev.Code {
		case evdev.REL_X:
			t.dx += ev.Value
			t.reported = true
		case evdev.REL_Y:
			t.dy += ev.Value
			t.reported = true
		}
		return nil

	case evdev.EV_KEY:
		if (ev.Code < evdev.BTN_LEFT) || (ev.Code > evdev.BTN_TASK) {
			return nil
		}
		// 2 is autorepeat.
		if (ev.Value != 0) && (ev.Value != 1) {
			return nil
		}
		return []Event{{
			Kind:   Button,
			Button: pointer.Button(ev.Code),
			State:  pointer.ButtonState(ev.Value),
		}}

	case evdev.EV_SYN:
		if (ev.Code != evdev.SYN_REPORT) || !t.reported {
			return nil
		}
		return t.flush()
	}

	return nil
}

func (t *Translator) flush() []Event {
	speed := t.Speed
	if speed <= 0 {
		speed = 1
	}

	x := float64(t.dx)*speed + t.fx
	y := float64(t.dy)*speed + t.fy
	ix, iy := math.Trunc(x), math.Trunc(y)
	t.fx, t.fy = x-ix, y-iy
	t.dx, t.dy = 0, 0
	t.reported = false

	if (ix == 0) && (iy == 0) {
		return nil
	}
	return []Event{{Kind: Motion, DX: int32(ix), DY: int32(iy)}}
}

// Device is an open evdev pointer.
type Device struct {
	dev     *evdev.InputDevice
	grabbed bool
	log     *log.Logger

	close    sync.Once
	closeErr error
}

// Open opens the evdev node at path. If path is empty, the first
// device that looks like a mouse is used. If grab is true, the device's
// events are not delivered to anything else while it is open.
func Open(path string, grab bool) (*Device, error) {
	var dev *evdev.InputDevice
	var err error
	if path == "" {
		dev, err = find()
	} else {
		dev, err = evdev.Open(path)
	}
	if err != nil {
		return nil, err
	}

	d := Device{
		dev: dev,
		log: logger.Logger.With("input", dev.Fn),
	}
	if grab {
		err := dev.Grab()
		if err != nil {
			dev.File.Close()
			return nil, fmt.Errorf("grab %v: %w", dev.Fn, err)
		}
		d.grabbed = true
	}

	d.log.Info("opened pointer", "name", dev.Name, "grabbed", d.grabbed)
	return &d, nil
}

// ignoredDevices are names of devices that report pointer capabilities
// but are not pointers.
var ignoredDevices = []string{
	"virtual console",
	"system console",
	"power button",
	"sleep button",
	"video bus",
	"lid switch",
}

func isPointer(dev *evdev.InputDevice) bool {
	name := strings.ToLower(dev.Name)
	for _, ignored := range ignoredDevices {
		if strings.Contains(name, ignored) {
			return false
		}
	}

	rel := dev.CapabilitiesFlat[evdev.EV_REL]
	keys := dev.CapabilitiesFlat[evdev.EV_KEY]
	return slices.Contains(rel, evdev.REL_X) &&
		slices.Contains(rel, evdev.REL_Y) &&
		slices.Contains(keys, evdev.BTN_LEFT)
}

func find() (*evdev.InputDevice, error) {
	devs, err := evdev.ListInputDevices("/dev/input/event*")
	if err != nil {
		return nil, fmt.Errorf("list input devices: %w", err)
	}

	var found *evdev.InputDevice
	for _, dev := range devs {
		if (found == nil) && isPointer(dev) {
			found = dev
			continue
		}
		dev.File.Close()
	}
	if found == nil {
		return nil, errors.New("no pointer device found")
	}
	return found, nil
}

// Name returns the device's name.
func (d *Device) Name() string {
	return d.dev.Name
}

// Path returns the device node.
func (d *Device) Path() string {
	return d.dev.Fn
}

// Close releases the device. It is safe to call more than once.
func (d *Device) Close() error {
	d.close.Do(func() {
		if d.grabbed {
			d.dev.Release()
		}
		d.closeErr = d.dev.File.Close()
	})
	return d.closeErr
}

// Run reads events from the device and passes them through t to post
// until ctx is canceled, the device fails, or post returns false. The
// device is closed when Run returns.
func (d *Device) Run(ctx context.Context, t *Translator, post func(Event) bool) error {
	stop := context.AfterFunc(ctx, func() { d.Close() })
	defer stop()
	defer d.Close()

	for {
		evs, err := d.dev.Read()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("read %v: %w", d.dev.Fn, err)
		}

		for _, raw := range evs {
			for _, ev := range t.Feed(raw) {
				d.log.Debug("input", "event", ev)
				if !post(ev) {
					return nil
				}
			}
		}
	}
}
