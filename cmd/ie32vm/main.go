// Command ie32vm is the VM's CLI surface (spec §6): `run <image>` executes
// headless to completion or fatal fault, `debug <image>` launches the
// interactive terminal debugger.
//
// License: GPLv3 or later
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/ie32vm/ie32vm/internal/debugger"
	"github.com/ie32vm/ie32vm/internal/ports/beeper"
	"github.com/ie32vm/ie32vm/internal/ports/vga"
	"github.com/ie32vm/ie32vm/internal/vm"
)

func main() {
	if len(os.Args) < 3 {
		usage()
		os.Exit(1)
	}

	mode := os.Args[1]
	path := os.Args[2]

	switch mode {
	case "run":
		os.Exit(runHeadless(path))
	case "debug":
		os.Exit(runDebugger(path))
	default:
		usage()
		os.Exit(1)
	}
}

func usage() {
	fmt.Println("Usage: ie32vm run <image>   | ie32vm debug <image>")
}

func runHeadless(path string) int {
	c := vm.NewCPU()
	if err := c.LoadImageFile(path, 0); err != nil {
		slog.Error("failed to load program image", "path", path, "error", err)
		return 1
	}

	if _, err := c.Ports.Register(c, vga.New(), nil); err != nil {
		slog.Error("failed to register VGA port", "error", err)
		return 1
	}
	if _, err := c.Ports.Register(c, beeper.New(), nil); err != nil {
		slog.Error("failed to register beeper port", "error", err)
		return 1
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := c.Run(ctx); err != nil {
		slog.Error("execution halted abnormally", "error", err)
		return 1
	}
	return 0
}

func runDebugger(path string) int {
	image, err := os.ReadFile(path)
	if err != nil {
		slog.Error("failed to read program image", "path", path, "error", err)
		return 1
	}
	d := debugger.New(path, image, 0, os.Stdout, os.Stdin)
	d.SetPortRegistrar(func(c *vm.CPU) error {
		if _, err := c.Ports.Register(c, vga.New(), nil); err != nil {
			return err
		}
		_, err := c.Ports.Register(c, beeper.New(), nil)
		return err
	})
	if err := d.Run(int(os.Stdin.Fd())); err != nil {
		slog.Error("debugger exited abnormally", "error", err)
		return 1
	}
	return 0
}
