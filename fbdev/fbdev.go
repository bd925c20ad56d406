// Package fbdev owns a graphics card: its DRM file descriptor and the
// GBM and EGL state created from it on first use.
package fbdev

import (
	"errors"
	"fmt"
	"math"

	"deedles.dev/kms/drm"
	"deedles.dev/kms/egl"
	"deedles.dev/kms/gbm"
	"deedles.dev/kms/internal/logger"
	"deedles.dev/kms/object"
	"golang.org/x/sys/unix"
)

// ErrNoDumbBuffer is returned by Open when the card cannot allocate
// dumb buffers.
var ErrNoDumbBuffer = fmt.Errorf("no dumb buffer support: %w", unix.EOPNOTSUPP)

var Type = object.NewType("fb_device", nil)

type Device struct {
	object.Object
	drm.Device

	gbm *gbm.Device
	egl *egl.Display
}

// Open opens the DRM node at path.
func Open(path string) (*Device, error) {
	card, err := drm.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %v: %w", path, err)
	}

	d, err := New(card)
	if err != nil {
		return nil, fmt.Errorf("open %v: %w", path, err)
	}
	return d, nil
}

// New takes ownership of dev. If dev lacks the dumb buffer capability
// it is closed and ErrNoDumbBuffer is returned.
func New(dev drm.Device) (*Device, error) {
	v, err := dev.Cap(drm.CapDumbBuffer)
	if err != nil || v == 0 {
		dev.Close()
		return nil, errors.Join(ErrNoDumbBuffer, err)
	}

	d := Device{Device: dev}
	d.Init(Type, &d)
	return &d, nil
}

// GBM returns the GBM device for the card, creating it on first use.
func (d *Device) GBM() (*gbm.Device, error) {
	d.Lock()
	defer d.Unlock()
	return d.gbmLocked()
}

func (d *Device) gbmLocked() (*gbm.Device, error) {
	if d.gbm != nil {
		return d.gbm, nil
	}

	dev, err := gbm.CreateDevice(d.Fd())
	if err != nil {
		return nil, fmt.Errorf("create gbm device: %w", err)
	}
	d.gbm = dev
	return dev, nil
}

// EGL returns the EGL display for the card, bringing it up on first
// use. A failed bring-up leaves no state behind and may be retried.
func (d *Device) EGL() (*egl.Display, error) {
	d.Lock()
	defer d.Unlock()

	if d.egl != nil {
		return d.egl, nil
	}

	g, err := d.gbmLocked()
	if err != nil {
		return nil, err
	}

	disp, err := egl.Open(g.Ptr(), gbm.FormatXRGB8888)
	if err != nil {
		return nil, fmt.Errorf("egl bring-up: %w", err)
	}
	d.egl = disp
	return disp, nil
}

func (d *Device) Hash() uint64 {
	fd := d.Fd()
	if fd <= 0 {
		return math.MaxUint64
	}
	return math.MaxUint64 / uint64(fd)
}

func (d *Device) Cmp(other any) int {
	o, ok := other.(*Device)
	if !ok {
		return -1
	}
	return d.Fd() - o.Fd()
}

// Close drops the caller's reference. The card is closed when the last
// reference goes away.
func (d *Device) Close() error {
	d.Unref()
	return nil
}

func (d *Device) Deinit() {
	if d.egl != nil {
		d.egl.Terminate()
		d.egl = nil
	}
	if d.gbm != nil {
		d.gbm.Destroy()
		d.gbm = nil
	}
	if err := d.Device.Close(); err != nil {
		logger.Warn("close device", "fd", d.Fd(), "err", err)
	}
}
