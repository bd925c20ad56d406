package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"deedles.dev/kms/compositor"
	"deedles.dev/kms/cursor"
	"deedles.dev/kms/drm"
	"deedles.dev/kms/fbdev"
	"deedles.dev/kms/internal/config"
	"deedles.dev/kms/internal/input"
	"deedles.dev/kms/internal/ipc"
	"deedles.dev/kms/internal/logger"
	"deedles.dev/kms/internal/loop"
	"deedles.dev/kms/render"
	"deedles.dev/kms/render/gles"
	"deedles.dev/kms/render/soft"
	wl "deedles.dev/kms/server"
	"deedles.dev/kms/wire"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the compositor",
	Long: `Take over the DRM device, light up every connected monitor, and accept
Wayland clients until interrupted. The previous contents of each
monitor are restored on exit.`,
	Args: cobra.NoArgs,
	RunE: runCompositor,
}

func init() {
	runCmd.Flags().String("device", "", "DRM device node")
	runCmd.Flags().String("renderer", "", "render backend, gles or software")
	runCmd.Flags().String("socket", "", "Wayland socket name")
	runCmd.Flags().String("pointer", "", "evdev pointer device")

	viper.BindPFlag("device.path", runCmd.Flags().Lookup("device"))
	viper.BindPFlag("render.backend", runCmd.Flags().Lookup("renderer"))
	viper.BindPFlag("wayland.socket", runCmd.Flags().Lookup("socket"))
	viper.BindPFlag("input.pointer", runCmd.Flags().Lookup("pointer"))
}

// event is something for the loop to do. Every event is handled on the
// loop's goroutine, which is the only one that touches the compositor.
type event interface {
	handle(a *app) error
}

// flipEvent is a page flip completion read from the device.
type flipEvent drm.Event

func (ev flipEvent) handle(a *app) error {
	a.comp.HandleFlip(drm.Event(ev))
	return nil
}

// inputEvent is pointer input.
type inputEvent input.Event

func (ev inputEvent) handle(a *app) error {
	cur := a.comp.Cursor()
	switch ev.Kind {
	case input.Motion:
		return cur.AddPosition(ev.DX, ev.DY)
	case input.Button:
		cur.SetButtonState(a.comp.Now(), ev.Button, ev.State)
	}
	return nil
}

// task is work posted by the Wayland and IPC servers.
type task func() error

func (t task) handle(*app) error {
	return t()
}

type app struct {
	log  *log.Logger
	loop *loop.Loop[event]
	comp *compositor.Compositor
	srv  *wl.Server
}

func (a *app) post(f func() error) bool {
	return a.loop.Post(task(f))
}

func newBackend(name string, dev *fbdev.Device, l *log.Logger) render.Backend {
	if name == "gles" {
		b, err := gles.New(dev)
		if err == nil {
			return b
		}
		l.Warn("falling back to software rendering", "err", err)
	}
	return soft.New(dev)
}

func runCompositor(cmd *cobra.Command, args []string) error {
	// EGL contexts are current per thread. Everything from creating the
	// backend to running the loop has to stay on this one.
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	cfg := config.Get()
	l := logger.Logger

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dev, err := fbdev.Open(cfg.Device.Path)
	if err != nil {
		return err
	}
	defer dev.Close()

	backend := newBackend(cfg.Render.Backend, dev, l)
	defer backend.Destroy()

	lis, err := wire.Listen(cfg.Wayland.Socket)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}

	a := app{log: l}
	a.loop = loop.New(func(ev event) error { return ev.handle(&a) })

	a.srv, err = wl.NewServer(lis, wl.Options{Post: a.post, Logger: l})
	if err != nil {
		lis.Close()
		return err
	}
	defer a.srv.Close()

	a.comp, err = compositor.New(compositor.Options{
		Device:   dev,
		Renderer: backend,
		Cursor: cursor.Load(cursor.Options{
			Image:  cfg.Cursor.Image,
			Theme:  cfg.Cursor.Theme,
			Size:   cfg.Cursor.Size,
			Logger: l,
		}),
		Display: a.srv,
		Logger:  l,
	})
	if err != nil {
		return fmt.Errorf("create compositor: %w", err)
	}
	defer a.comp.Close()

	err = a.comp.Start()
	if err != nil {
		return fmt.Errorf("start compositor: %w", err)
	}
	a.srv.Serve(a.comp)

	ctrl, err := ipc.Listen(cfg.IPC.Socket, a.comp, a.post)
	if err != nil {
		l.Warn("no control socket", "err", err)
	} else {
		defer ctrl.Close()
	}

	a.loop.OnIdle(func() error {
		a.srv.Flush()
		return nil
	})
	a.loop.OnError(func(err error) {
		l.Error("handle events", "err", err)
	})

	go func() {
		err := compositor.WatchDevice(ctx, dev, func(ev drm.Event) bool {
			return a.loop.Post(flipEvent(ev))
		})
		if (err != nil) && !errors.Is(err, context.Canceled) {
			l.Error("watch device", "err", err)
			a.loop.Stop()
		}
	}()

	ptr, err := input.Open(cfg.Input.Pointer, cfg.Input.Grab)
	if err != nil {
		l.Warn("no pointer input", "err", err)
	} else {
		go func() {
			t := input.Translator{Speed: cfg.Input.Speed}
			err := ptr.Run(ctx, &t, func(ev input.Event) bool {
				return a.loop.Post(inputEvent(ev))
			})
			if (err != nil) && !errors.Is(err, context.Canceled) {
				l.Error("pointer input", "err", err)
			}
		}()
	}

	os.Setenv("WAYLAND_DISPLAY", a.srv.Name())
	l.Info("running", "display", a.srv.Name(), "renderer", backend.Name(), "monitors", len(a.comp.Monitors()))

	err = a.loop.Run(ctx)
	a.loop.Stop()
	if errors.Is(err, context.Canceled) {
		l.Info("shutting down")
		return nil
	}
	return err
}
