// Package vga implements the reference VGA text-mode peripheral (spec
// §4.5): an 80×25, 16-color text-mode display addressed by a
// length-prefixed instruction stream over the vm.Port byte contract.
//
// License: GPLv3 or later
package vga

import (
	"sync"

	"github.com/ie32vm/ie32vm/internal/vm"
)

// VRAMSize is the size of the addressable video memory.
const VRAMSize = 64 * 1024

// Text-mode geometry: each cell is 2 bytes (character, attribute).
const (
	Columns  = 80
	Rows     = 25
	CellSize = 2
)

// Port instruction opcodes, length-prefixed per spec §4.5: HLT (1+0),
// DRAW (1+0), WRITE_BYTE (1+3), WRITE_SHORT (1+4), WRITE_LONG (1+6).
const (
	opHLT        byte = 0
	opDraw       byte = 1
	opWriteByte  byte = 2
	opWriteShort byte = 3
	opWriteLong  byte = 4
)

func operandLen(op byte) int {
	switch op {
	case opWriteByte:
		return 3
	case opWriteShort:
		return 4
	case opWriteLong:
		return 6
	default:
		return 0
	}
}

// Palette is the standard 16-color VGA text-mode palette, shared by
// every backend (RGB, no alpha).
var Palette = [16][3]byte{
	{0x00, 0x00, 0x00}, {0x00, 0x00, 0xAA}, {0x00, 0xAA, 0x00}, {0x00, 0xAA, 0xAA},
	{0xAA, 0x00, 0x00}, {0xAA, 0x00, 0xAA}, {0xAA, 0x55, 0x00}, {0xAA, 0xAA, 0xAA},
	{0x55, 0x55, 0x55}, {0x55, 0x55, 0xFF}, {0x55, 0xFF, 0x55}, {0x55, 0xFF, 0xFF},
	{0xFF, 0x55, 0x55}, {0xFF, 0x55, 0xFF}, {0xFF, 0xFF, 0x55}, {0xFF, 0xFF, 0xFF},
}

// VGA is the vm.Port implementation. Command parsing and the VRAM
// buffer are backend-independent; backend_ebiten.go (!headless) owns the
// Ebiten window and keyboard capture, backend_headless.go is a frame
// counter only.
type VGA struct {
	mu   sync.Mutex
	vram [VRAMSize]byte

	pendingOp  byte
	pendingBuf []byte
	pendingLen int
	inCommand  bool

	backend vgaBackend
}

type vgaBackend interface {
	start(v *VGA, cpu *vm.CPU) error
	draw(snapshot []byte)
	stop() error
}

// New constructs an unstarted VGA port.
func New() *VGA { return &VGA{} }

func (v *VGA) Init(cpu *vm.CPU, cfg any) error {
	backend, err := newBackend()
	if err != nil {
		return err
	}
	v.backend = backend
	return backend.start(v, cpu)
}

// Write feeds one byte of the framed instruction stream. A fully
// assembled instruction is applied to VRAM (WRITE_*) or forwarded to
// the backend (DRAW) immediately; HLT is accepted but has no effect
// beyond what the CPU's own teardown already does.
func (v *VGA) Write(b byte) {
	v.mu.Lock()
	if !v.inCommand {
		v.pendingOp = b
		v.pendingLen = operandLen(b)
		v.pendingBuf = v.pendingBuf[:0]
		if v.pendingLen == 0 {
			v.applyLocked(b, nil)
			v.mu.Unlock()
			return
		}
		v.inCommand = true
		v.mu.Unlock()
		return
	}
	v.pendingBuf = append(v.pendingBuf, b)
	if len(v.pendingBuf) == v.pendingLen {
		op, buf := v.pendingOp, v.pendingBuf
		v.inCommand = false
		v.applyLocked(op, buf)
	}
	v.mu.Unlock()
}

// applyLocked must be called with mu held.
func (v *VGA) applyLocked(op byte, buf []byte) {
	switch op {
	case opHLT:
		// no VRAM effect; the CPU's own Deinit call tears the backend down.
	case opDraw:
		snapshot := make([]byte, VRAMSize)
		copy(snapshot, v.vram[:])
		v.backend.draw(snapshot)
	case opWriteByte:
		addr := le16(buf[0], buf[1])
		v.vram[addr] = buf[2]
	case opWriteShort:
		addr := le16(buf[0], buf[1])
		v.vram[addr] = buf[2]
		v.vram[addr+1] = buf[3] // addr+1 wraps mod VRAMSize, never panics
	case opWriteLong:
		addr := le16(buf[0], buf[1])
		for i := 0; i < 4; i++ {
			v.vram[addr+uint16(i)] = buf[2+i] // wraps mod VRAMSize, never panics
		}
	}
}

func le16(lo, hi byte) uint16 { return uint16(lo) | uint16(hi)<<8 }

// Read is unused by VGA; nothing is ever IN'd from this port.
func (v *VGA) Read() byte { return 0 }

func (v *VGA) Deinit() error {
	if v.backend == nil {
		return nil
	}
	return v.backend.stop()
}
