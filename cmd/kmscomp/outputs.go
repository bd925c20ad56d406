package main

import (
	"fmt"
	"io"

	"deedles.dev/kms/compositor"
	"deedles.dev/kms/fbdev"
	"deedles.dev/kms/internal/config"
	"deedles.dev/kms/render/soft"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

var outputsCmd = &cobra.Command{
	Use:   "outputs",
	Short: "List the device's connectors without modesetting",
	Args:  cobra.NoArgs,
	RunE:  listOutputs,
}

func listOutputs(cmd *cobra.Command, args []string) error {
	cfg := config.Get()

	dev, err := fbdev.Open(cfg.Device.Path)
	if err != nil {
		return err
	}
	defer dev.Close()

	comp, err := compositor.New(compositor.Options{
		Device:   dev,
		Renderer: soft.New(dev),
		Logger:   log.New(io.Discard),
	})
	if err != nil {
		return err
	}
	defer comp.Close()

	w := cmd.OutOrStdout()
	fmt.Fprintln(w, titleStyle.Render(cfg.Device.Path))
	for _, m := range comp.Monitors() {
		printMonitor(w, m)
	}
	return nil
}

func printMonitor(w io.Writer, m *compositor.Monitor) {
	state := errorStyle.Render(m.State().String())
	if m.State() == compositor.Connected {
		state = okStyle.Render(m.State().String())
	}
	fmt.Fprintf(w, "%v (connector %v): %v\n", m.Name(), m.Connector(), state)
	if m.State() != compositor.Connected {
		return
	}

	mw, mh := m.PhysicalSize()
	fmt.Fprintf(w, "  crtc %v, %vx%v mm\n", m.CRTC(), mw, mh)

	current := m.Mode()
	for _, mode := range m.Modes() {
		line := fmt.Sprintf("  %v: %v", mode.ID, mode.ModeInfo)
		if mode.Preferred() {
			line += " preferred"
		}
		if mode.ID == current.ID {
			fmt.Fprintln(w, okStyle.Render(line+" current"))
			continue
		}
		fmt.Fprintln(w, dimStyle.Render(line))
	}
}
