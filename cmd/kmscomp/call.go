package main

import (
	"fmt"

	"deedles.dev/kms/internal/config"
	"deedles.dev/kms/internal/ipc"
	"github.com/spf13/cobra"
)

var callCmd = &cobra.Command{
	Use:   "call [list | <handle> <function> [args...] | <handle> get <attr> | <handle> set <attr> <value>]",
	Short: "Control a running compositor",
	Example: `  kmscomp call list
  kmscomp call 4294967297 setwidthheight 640 480
  kmscomp call 4294967297 set visible false`,
	Args: cobra.MinimumNArgs(1),
	RunE: call,
}

func parseCall(args []string) (ipc.Request, error) {
	if args[0] == ipc.CmdList {
		if len(args) != 1 {
			return ipc.Request{}, fmt.Errorf("list takes no arguments")
		}
		return ipc.Request{Cmd: ipc.CmdList}, nil
	}

	if len(args) < 2 {
		return ipc.Request{}, fmt.Errorf("missing function name")
	}
	handle, name, rest := args[0], args[1], args[2:]

	switch name {
	case ipc.CmdGet:
		if len(rest) != 1 {
			return ipc.Request{}, fmt.Errorf("get takes an attribute name")
		}
		return ipc.Request{Cmd: ipc.CmdGet, Handle: handle, Name: rest[0]}, nil

	case ipc.CmdSet:
		if len(rest) != 2 {
			return ipc.Request{}, fmt.Errorf("set takes an attribute name and a value")
		}
		return ipc.Request{Cmd: ipc.CmdSet, Handle: handle, Name: rest[0], Value: ipc.ParseArg(rest[1])}, nil

	default:
		req := ipc.Request{Cmd: ipc.CmdCall, Handle: handle, Name: name}
		for _, arg := range rest {
			req.Args = append(req.Args, ipc.ParseArg(arg))
		}
		return req, nil
	}
}

func call(cmd *cobra.Command, args []string) error {
	req, err := parseCall(args)
	if err != nil {
		return err
	}

	c, err := ipc.Dial(config.Get().IPC.Socket)
	if err != nil {
		return err
	}
	defer c.Close()

	rsp, err := c.Do(req)
	if err != nil {
		return err
	}
	if err := ipc.Check(rsp); err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	switch req.Cmd {
	case ipc.CmdList:
		for _, s := range rsp.Surfaces {
			line := fmt.Sprintf("%v: %vx%v at %v,%v z=%v on %v", s.Handle, s.Width, s.Height, s.X, s.Y, s.Z, s.Monitor)
			if !s.Visible {
				fmt.Fprintln(w, dimStyle.Render(line+" hidden"))
				continue
			}
			fmt.Fprintln(w, line)
		}
	case ipc.CmdGet:
		fmt.Fprintln(w, rsp.Value)
	default:
		fmt.Fprintln(w, okStyle.Render("ok"))
	}
	return nil
}
