package main

import (
	"fmt"
	"time"

	"github.com/ThomasT75/uinput"
	"github.com/spf13/cobra"
)

var (
	injectSize  int32
	injectSteps int
	injectClick bool
)

var injectCmd = &cobra.Command{
	Use:   "inject",
	Short: "Move a virtual mouse in a square",
	Long: `Create a virtual mouse with uinput and move it around a square,
optionally clicking at each corner. The compositor picks it up like any
other pointer, which exercises the whole input path on a live seat.
Requires write access to /dev/uinput.`,
	Args: cobra.NoArgs,
	RunE: inject,
}

func init() {
	injectCmd.Flags().Int32Var(&injectSize, "size", 200, "side of the square in pixels")
	injectCmd.Flags().IntVar(&injectSteps, "steps", 20, "moves per side")
	injectCmd.Flags().BoolVar(&injectClick, "click", false, "click at every corner")
}

func inject(cmd *cobra.Command, args []string) error {
	if injectSteps <= 0 {
		return fmt.Errorf("steps must be positive, got %v", injectSteps)
	}

	mouse, err := uinput.CreateMouse("/dev/uinput", []byte("kmscomp virtual mouse"))
	if err != nil {
		return fmt.Errorf("create virtual mouse: %w", err)
	}
	defer mouse.Close()

	// Give the compositor a chance to notice the new device.
	time.Sleep(time.Second)

	step := injectSize / int32(injectSteps)
	sides := [][2]int32{{step, 0}, {0, step}, {-step, 0}, {0, -step}}
	for _, side := range sides {
		for range injectSteps {
			err := mouse.Move(side[0], side[1])
			if err != nil {
				return fmt.Errorf("move: %w", err)
			}
			time.Sleep(10 * time.Millisecond)
		}

		if injectClick {
			err := mouse.LeftPress()
			if err != nil {
				return fmt.Errorf("press: %w", err)
			}
			time.Sleep(50 * time.Millisecond)
			err = mouse.LeftRelease()
			if err != nil {
				return fmt.Errorf("release: %w", err)
			}
		}
	}

	fmt.Fprintln(cmd.OutOrStdout(), okStyle.Render("done"))
	return nil
}
