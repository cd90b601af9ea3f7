// Package beeper implements a minimal square-wave tone generator
// exercising the vm.Port contract over a byte-stream command framing:
// SET_FREQ_LO and SET_FREQ_HI (each followed by one byte of the 16-bit
// frequency; the high byte completes it), NOTE_ON, NOTE_OFF.
//
// License: GPLv3 or later
package beeper

import (
	"sync"

	"github.com/ie32vm/ie32vm/internal/vm"
)

// Command bytes recognized by Write. Everything else is ignored.
const (
	CmdSetFreqLo byte = 0x01 // low byte of a pending 16-bit frequency
	CmdSetFreqHi byte = 0x02 // high byte; completes the pending SET_FREQ
	CmdNoteOn    byte = 0x03
	CmdNoteOff   byte = 0x04
)

const sampleRate = 44100

// Beeper is a vm.Port backed by a single square-wave oscillator. The
// command parsing here is backend-independent; backend_oto.go (!headless)
// and backend_headless.go supply the actual audio sink.
type Beeper struct {
	mu         sync.Mutex
	freqLo     byte
	pendingCmd byte // CmdSetFreqLo/CmdSetFreqHi awaiting its operand byte, or 0
	freqHz     uint16
	playing    bool
	phase      float64
	backend    beeperBackend
}

// beeperBackend is satisfied by the build-tagged playback implementation.
type beeperBackend interface {
	start(b *Beeper) error
	stop() error
}

// New constructs an unstarted Beeper port.
func New() *Beeper {
	return &Beeper{}
}

func (b *Beeper) Init(cpu *vm.CPU, cfg any) error {
	backend, err := newBackend()
	if err != nil {
		return err
	}
	b.backend = backend
	return backend.start(b)
}

// Write implements the command framing: CmdSetFreqLo/CmdSetFreqHi select
// which byte of freqHz the following Write latches; CmdNoteOn/CmdNoteOff
// take effect immediately and carry no operand.
func (b *Beeper) Write(v byte) {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.pendingCmd {
	case CmdSetFreqLo:
		b.freqLo = v
		b.pendingCmd = 0
		return
	case CmdSetFreqHi:
		b.freqHz = uint16(b.freqLo) | uint16(v)<<8
		b.pendingCmd = 0
		return
	}

	switch v {
	case CmdNoteOn:
		b.playing = true
	case CmdNoteOff:
		b.playing = false
	case CmdSetFreqLo, CmdSetFreqHi:
		b.pendingCmd = v
	}
}

// Read is unused by Beeper; nothing is ever IN'd from this port.
func (b *Beeper) Read() byte { return 0 }

func (b *Beeper) Deinit() error {
	if b.backend == nil {
		return nil
	}
	return b.backend.stop()
}

// nextSample advances the oscillator phase by one sample period and
// returns the current square-wave amplitude, or 0 if silent.
func (b *Beeper) nextSample() float32 {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.playing || b.freqHz == 0 {
		return 0
	}
	b.phase += float64(b.freqHz) / sampleRate
	if b.phase >= 1 {
		b.phase -= float64(int(b.phase))
	}
	if b.phase < 0.5 {
		return 0.2
	}
	return -0.2
}
