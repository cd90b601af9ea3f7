// Package debugger implements an interactive terminal front-end for the
// VM: a raw-mode register display, single-stepping, Lua-scripted
// conditional breakpoints and a clipboard state-export command.
//
// Grounded on the original Rust Debugger/DebugState (debug.rs) and the
// teacher's debug_cpu_ie32.go/terminal_io.go terminal idiom.
//
// License: GPLv3 or later
package debugger

import (
	"fmt"
	"io"

	lua "github.com/yuin/gopher-lua"
	"golang.design/x/clipboard"
	"golang.org/x/term"

	"github.com/ie32vm/ie32vm/internal/vm"
)

// State mirrors the original Debugger's state machine: Executing and
// Continue both run freely (the two behave identically) until a
// breakpoint condition holds, Pause holds at the current instruction,
// Step executes one instruction then returns to Pause, Reset reloads
// the image, Abort quits.
type State int

const (
	StateExecuting State = iota
	StatePause
	StateStep
	StateContinue
	StateReset
	StateAbort
)

// Breakpoint is a conditional breakpoint: when IP reaches Addr, Expr is
// evaluated as a Lua expression with the register file bound as
// globals (A, B, ..., IP, SP, ...); a true result pauses execution.
type Breakpoint struct {
	Addr uint32
	Expr string
}

// Debugger drives a *vm.CPU interactively over a raw terminal.
type Debugger struct {
	cpu         *vm.CPU
	imagePath   string
	image       []byte
	base        uint32
	state       State
	breakpoints []Breakpoint
	L           *lua.LState

	out  io.Writer
	in   io.Reader
	keys chan byte

	// registerPorts, if set, is called once per (re)load so the
	// debugger can drive the same peripherals as headless Run — kept
	// as an injected hook rather than an import so this package stays
	// independent of any specific port implementation.
	registerPorts func(*vm.CPU) error
}

// New constructs a Debugger for the program image at path, loaded at base.
func New(path string, image []byte, base uint32, out io.Writer, in io.Reader) *Debugger {
	return &Debugger{
		imagePath: path,
		image:     image,
		base:      base,
		state:     StatePause,
		L:         lua.NewState(),
		out:       out,
		in:        in,
	}
}

// SetPortRegistrar installs the hook used to register peripherals on
// every (re)load, including Reset.
func (d *Debugger) SetPortRegistrar(fn func(*vm.CPU) error) {
	d.registerPorts = fn
}

// AddBreakpoint registers a conditional breakpoint.
func (d *Debugger) AddBreakpoint(addr uint32, luaExpr string) {
	d.breakpoints = append(d.breakpoints, Breakpoint{Addr: addr, Expr: luaExpr})
}

// startKeyReader launches the single background goroutine that turns
// blocking terminal reads into a channel pollKey can select on without
// blocking, mirroring the original's non-blocking event::poll.
func (d *Debugger) startKeyReader() {
	d.keys = make(chan byte, 1)
	go func() {
		buf := make([]byte, 1)
		for {
			n, err := d.in.Read(buf)
			if err != nil {
				return
			}
			if n > 0 {
				d.keys <- buf[0]
			}
		}
	}()
}

func (d *Debugger) pollKey() (byte, bool) {
	select {
	case b := <-d.keys:
		return b, true
	default:
		return 0, false
	}
}

func (d *Debugger) reload() error {
	d.cpu = vm.NewCPU()
	if err := d.cpu.Load(d.image, d.base); err != nil {
		return err
	}
	if d.registerPorts != nil {
		return d.registerPorts(d.cpu)
	}
	return nil
}

// Run enters the interactive loop: raw terminal mode, register display,
// keypress polling, stepping the CPU according to the current State.
// It restores terminal state and tears down CPU ports before returning.
func (d *Debugger) Run(fd int) error {
	if err := d.reload(); err != nil {
		return err
	}
	defer d.cpu.TeardownPorts()

	oldState, err := term.MakeRaw(fd)
	if err != nil {
		return err
	}
	defer term.Restore(fd, oldState)
	d.startKeyReader()

	fmt.Fprint(d.out, "\x1b[2J\x1b[H\x1b[?25l")
	defer fmt.Fprint(d.out, "\x1b[?25h")

	for {
		halted, err := d.tick()
		if err != nil {
			return err
		}
		if halted || d.state == StateAbort {
			return nil
		}
	}
}

// tick renders the current frame, processes one pending keypress, and
// advances the CPU according to the resulting state. It returns
// halted=true once FLAGS.HALT is set.
func (d *Debugger) tick() (halted bool, err error) {
	d.render()

	if key, ok := d.pollKey(); ok {
		d.applyKey(key)
	}

	switch d.state {
	case StateReset:
		if err := d.reload(); err != nil {
			return false, err
		}
		d.state = StatePause
		return false, nil
	case StateAbort, StatePause:
		return false, nil
	case StateStep:
		h, err := d.cpu.Step()
		d.state = StatePause
		return h, err
	case StateContinue, StateExecuting:
		if d.hitBreakpoint() {
			d.state = StatePause
			return false, nil
		}
		return d.cpu.Step()
	}
	return false, nil
}

func (d *Debugger) applyKey(key byte) {
	switch key {
	case '1':
		d.state = StateExecuting
	case '2':
		d.state = StatePause
	case '3':
		d.state = StateStep
	case '4':
		d.state = StateContinue
	case '5':
		d.state = StateReset
	case 3: // Ctrl+C
		d.state = StateAbort
	case 'e':
		d.exportToClipboard()
	}
}

// hitBreakpoint evaluates every registered breakpoint whose address
// matches the current IP; the first Lua expression that evaluates
// truthy pauses execution.
func (d *Debugger) hitBreakpoint() bool {
	ip := d.cpu.Reg[vm.RegIP]
	for _, bp := range d.breakpoints {
		if bp.Addr != ip {
			continue
		}
		if d.evalCondition(bp.Expr) {
			return true
		}
	}
	return false
}

func (d *Debugger) evalCondition(expr string) bool {
	for i := 0; i < vm.NumRegisters; i++ {
		d.L.SetGlobal(vm.RegisterName(i), lua.LNumber(d.cpu.Reg[i]))
	}
	if err := d.L.DoString("__cond = (" + expr + ")"); err != nil {
		fmt.Fprintf(d.out, "\r\nbreakpoint expr error: %v\r\n", err)
		return false
	}
	return lua.LVAsBool(d.L.GetGlobal("__cond"))
}

func (d *Debugger) exportToClipboard() {
	var sb []byte
	for i := 0; i < vm.NumRegisters; i++ {
		sb = append(sb, fmt.Sprintf("%-6s 0x%08X\n", vm.RegisterName(i), d.cpu.Reg[i])...)
	}
	if err := clipboard.Init(); err != nil {
		fmt.Fprintf(d.out, "\r\nclipboard unavailable: %v\r\n", err)
		return
	}
	clipboard.Write(clipboard.FmtText, sb)
}

func (d *Debugger) render() {
	fmt.Fprint(d.out, "\x1b[H")
	for i := 0; i < vm.NumRegisters; i++ {
		fmt.Fprintf(d.out, "%-6s: %-12d (0x%08X)\x1b[K\r\n", vm.RegisterName(i), d.cpu.Reg[i], d.cpu.Reg[i])
	}
	next, _ := d.cpu.Mem.ReadByte(d.cpu.Reg[vm.RegIP])
	fmt.Fprintf(d.out, "Next   : %s\x1b[K\r\n", vm.OpcodeName(next))
	fmt.Fprintf(d.out, "State  : %s\x1b[K\r\n\r\n", d.state)
	fmt.Fprint(d.out, "[1] Execute  [2] Pause  [3] Step  [4] Continue  [5] Reset  [Ctrl+C] Abort  [e] Export\x1b[K\r\n")
}

func (s State) String() string {
	switch s {
	case StateExecuting:
		return "executing"
	case StatePause:
		return "pause"
	case StateStep:
		return "step"
	case StateContinue:
		return "continue"
	case StateReset:
		return "reset"
	case StateAbort:
		return "abort"
	default:
		return "?"
	}
}
