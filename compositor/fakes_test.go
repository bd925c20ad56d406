package compositor

import (
	"fmt"
	"io"
	"testing"

	"deedles.dev/kms/buffer"
	"deedles.dev/kms/drm"
	"deedles.dev/kms/drm/drmtest"
	"deedles.dev/kms/pointer"
	"deedles.dev/kms/render/soft"
	"deedles.dev/kms/wire"
	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/require"
)

type fakeClient struct {
	pointer  fakePointer
	keyboard fakeKeyboard
}

func (c *fakeClient) Pointers() []Pointer   { return []Pointer{&c.pointer} }
func (c *fakeClient) Keyboards() []Keyboard { return []Keyboard{&c.keyboard} }

type fakePointer struct {
	events []string
}

func (p *fakePointer) Enter(serial uint32, surface Resource, x, y wire.Fixed) {
	p.events = append(p.events, fmt.Sprintf("enter %v %v,%v", surface.ID(), x.Int(), y.Int()))
}

func (p *fakePointer) Leave(serial uint32, surface Resource) {
	p.events = append(p.events, fmt.Sprintf("leave %v", surface.ID()))
}

func (p *fakePointer) Motion(time uint32, x, y wire.Fixed) {
	p.events = append(p.events, fmt.Sprintf("motion %v,%v", x.Int(), y.Int()))
}

func (p *fakePointer) Button(serial, time uint32, button pointer.Button, state pointer.ButtonState) {
	p.events = append(p.events, fmt.Sprintf("button %v %v", button, state))
}

type fakeKeyboard struct {
	events []string
}

func (k *fakeKeyboard) Enter(serial uint32, surface Resource, keys []byte) {
	k.events = append(k.events, fmt.Sprintf("enter %v", surface.ID()))
}

func (k *fakeKeyboard) Leave(serial uint32, surface Resource) {
	k.events = append(k.events, fmt.Sprintf("leave %v", surface.ID()))
}

type fakeResource struct {
	id     uint32
	client *fakeClient
}

func (r *fakeResource) ID() uint32 { return r.id }

func (r *fakeResource) Client() Client {
	if r.client == nil {
		return nil
	}
	return r.client
}

type fakeShellResource struct {
	fakeResource
	configures [][2]int32
}

func (r *fakeShellResource) Configure(edges uint32, width, height int32) {
	r.configures = append(r.configures, [2]int32{width, height})
}

type fakeBuffer struct {
	buf      buffer.Buffer
	released int
}

func newFakeBuffer(w, h int) *fakeBuffer {
	return &fakeBuffer{buf: buffer.NewRaw(w, h, buffer.ARGB8888)}
}

func (b *fakeBuffer) Buffer() buffer.Buffer { return b.buf }
func (b *fakeBuffer) Release()              { b.released++ }

type fakeCallback struct {
	done int
}

func (cb *fakeCallback) Done(ms uint32) { cb.done++ }

type fakeOutput struct {
	geometry [2]int32
	modes    []string
	done     int
}

func (o *fakeOutput) Geometry(x, y, physWidth, physHeight, subpixel int32, make, model string, transform int32) {
	o.geometry = [2]int32{physWidth, physHeight}
}

func (o *fakeOutput) Mode(flags uint32, width, height, refresh int32) {
	o.modes = append(o.modes, fmt.Sprintf("%vx%v@%v/%v", width, height, refresh, flags))
}

func (o *fakeOutput) Done() { o.done++ }

// singleOutput sets up one 800x600 connector driven by CRTC 20.
func singleOutput(dev *drmtest.Device) {
	dev.AddCrtc(20)
	dev.AddEncoder(10, 20, 0b1)
	dev.AddConnector(drm.Connector{
		ID:        30,
		EncoderID: 10,
		Encoders:  []uint32{10},
		Modes:     []drm.ModeInfo{drm.NewMode(800, 600, 60)},
		MMWidth:   300,
		MMHeight:  200,
	})
}

func newTestCompositor(t *testing.T, setup func(*drmtest.Device)) (*Compositor, *drmtest.Device) {
	t.Helper()

	dev := drmtest.New()
	if setup == nil {
		setup = singleOutput
	}
	setup(dev)

	c, err := New(Options{
		Device:   dev,
		Renderer: soft.New(dev),
		Cursor:   buffer.NewRaw(8, 8, buffer.ARGB8888),
		Logger:   log.New(io.Discard),
	})
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c, dev
}

// newShell creates a shell surface with a committed w by h buffer.
func newShell(t *testing.T, c *Compositor, client *fakeClient, id uint32, w, h int) (*Surface, *ShellSurface, *fakeShellResource) {
	t.Helper()

	s := c.NewSurface(&fakeResource{id: id, client: client})
	if w > 0 && h > 0 {
		s.Attach(newFakeBuffer(w, h), 0, 0)
		require.NoError(t, s.Commit())
	}

	res := &fakeShellResource{fakeResource: fakeResource{id: id + 1000, client: client}}
	ss, err := c.NewShellSurface(res, s)
	require.NoError(t, err)
	return s, ss, res
}
