package vm

import (
	"context"
	"log/slog"
	"sync"
)

// CPU is the fetch/decode/execute interpreter: registers, memory, the
// port table and the hardware-interrupt latch, all owned by a single
// execution thread (Run never yields cooperatively; it runs to HALT).
type CPU struct {
	Reg [NumRegisters]uint32
	Mem *Memory
	Ports *PortTable

	log *slog.Logger

	// hwMu guards the single-slot hardware-interrupt latch. A peripheral
	// thread installs a routine here; the CPU thread consumes it between
	// instructions. The routine observes CPU state only when invoked, not
	// when latched.
	hwMu      sync.Mutex
	hwPending func(*CPU)
}

// NewCPU constructs a CPU with zeroed registers and memory, ready for a
// program to be loaded and ports to be registered.
func NewCPU(opts ...Option) *CPU {
	c := &CPU{
		Mem:   NewMemory(),
		Ports: NewPortTable(),
		log:   defaultLogger,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Load copies a program image into memory at base and sets IP to base
// unless the caller overrides it afterwards.
func (c *CPU) Load(image []byte, base uint32) error {
	if err := c.Mem.Load(image, base); err != nil {
		return err
	}
	c.Reg[RegIP] = base
	return nil
}

// InstallHardwareInterrupt is the Port ABI's asynchronous-injection hook:
// a peripheral thread calls this to latch a routine that will mutate CPU
// state exactly once, the next time the fetch loop checks between
// instructions. A new routine overwrites an unconsumed prior one.
func (c *CPU) InstallHardwareInterrupt(fn func(*CPU)) {
	c.hwMu.Lock()
	c.hwPending = fn
	c.hwMu.Unlock()
}

func (c *CPU) takeHardwareInterrupt() func(*CPU) {
	c.hwMu.Lock()
	fn := c.hwPending
	c.hwPending = nil
	c.hwMu.Unlock()
	return fn
}

// halted reports whether FLAGS.HALT is set.
func (c *CPU) halted() bool { return c.Reg[RegFLAGS]&FlagHalt != 0 }

// Run executes the fetch/decode/execute loop until HALT is set, the
// context is cancelled, or a fatal Fault occurs. On any exit it tears
// down every registered port exactly once.
func (c *CPU) Run(ctx context.Context) error {
	defer c.teardownPorts()

	for !c.halted() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if c.Reg[RegFLAGS]&FlagInterrupt == 0 {
			if fn := c.takeHardwareInterrupt(); fn != nil {
				fn(c)
			}
		}

		pc := c.Reg[RegIP]
		op, err := c.fetchByte()
		if err != nil {
			return err
		}
		entry := &opcodeTable[op]
		if entry.Handler == nil {
			return c.faultf(FaultInvalidOpcode, "invalid opcode byte 0x%02x at IP=0x%08x", op, pc)
		}
		if err := entry.Handler(c); err != nil {
			return err
		}
	}
	return nil
}

// Step executes exactly one instruction (servicing at most one latched
// hardware interrupt first) and reports whether FLAGS.HALT became set.
// It does not tear down ports — callers driving Step in a loop (the
// debugger) must call TeardownPorts themselves once done.
func (c *CPU) Step() (halted bool, err error) {
	if c.halted() {
		return true, nil
	}
	if c.Reg[RegFLAGS]&FlagInterrupt == 0 {
		if fn := c.takeHardwareInterrupt(); fn != nil {
			fn(c)
		}
	}
	pc := c.Reg[RegIP]
	op, err := c.fetchByte()
	if err != nil {
		return false, err
	}
	entry := &opcodeTable[op]
	if entry.Handler == nil {
		return false, c.faultf(FaultInvalidOpcode, "invalid opcode byte 0x%02x at IP=0x%08x", op, pc)
	}
	if err := entry.Handler(c); err != nil {
		return false, err
	}
	return c.halted(), nil
}

// TeardownPorts invokes Deinit on every registered port exactly once. Run
// calls this automatically on exit; callers driving Step directly (the
// debugger) must call it themselves.
func (c *CPU) TeardownPorts() { c.teardownPorts() }

func (c *CPU) teardownPorts() {
	for _, err := range c.Ports.teardown() {
		c.log.Warn("port teardown failed", "error", err)
	}
}

// ---- fetch primitives: IP-advancing byte/short/long consumers ----

func (c *CPU) fetchByte() (byte, error) {
	b, err := c.Mem.ReadByte(c.Reg[RegIP])
	if err != nil {
		return 0, c.faultf(FaultOutOfBounds, "%v", err)
	}
	c.Reg[RegIP]++
	return b, nil
}

func (c *CPU) fetchShort() (uint16, error) {
	lo, err := c.fetchByte()
	if err != nil {
		return 0, err
	}
	hi, err := c.fetchByte()
	if err != nil {
		return 0, err
	}
	return uint16(lo) | uint16(hi)<<8, nil
}

func (c *CPU) fetchLong() (uint32, error) {
	var v uint32
	for i := uint32(0); i < 4; i++ {
		b, err := c.fetchByte()
		if err != nil {
			return 0, err
		}
		v |= uint32(b) << (8 * i)
	}
	return v, nil
}

func (c *CPU) fetchWidth(w Width) (uint32, error) {
	switch w {
	case WidthByte:
		b, err := c.fetchByte()
		return uint32(b), err
	case WidthShort:
		s, err := c.fetchShort()
		return uint32(s), err
	default:
		return c.fetchLong()
	}
}

// ---- memory access wrapped into Faults ----

func (c *CPU) readMemWidth(addr uint32, w Width) (uint32, error) {
	v, err := c.Mem.ReadWidth(addr, w)
	if err != nil {
		return 0, c.faultf(FaultOutOfBounds, "%v", err)
	}
	return v, nil
}

func (c *CPU) writeMemWidth(addr uint32, v uint32, w Width) error {
	if err := c.Mem.WriteWidth(addr, v, w); err != nil {
		return c.faultf(FaultOutOfBounds, "%v", err)
	}
	return nil
}
