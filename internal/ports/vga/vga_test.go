//go:build headless

package vga

import (
	"testing"

	"github.com/ie32vm/ie32vm/internal/vm"
)

func TestWriteByteInstructionFraming(t *testing.T) {
	v := New()
	if err := v.Init(vm.NewCPU(), nil); err != nil {
		t.Fatal(err)
	}
	defer v.Deinit()

	// WRITE_BYTE(addr16=0x0010, v=0x41): opcode + 3 operand bytes.
	for _, b := range []byte{opWriteByte, 0x10, 0x00, 0x41} {
		v.Write(b)
	}
	if v.vram[0x10] != 0x41 {
		t.Errorf("vram[0x10] = %#x, want 0x41", v.vram[0x10])
	}
}

func TestWriteLongInstructionFraming(t *testing.T) {
	v := New()
	if err := v.Init(vm.NewCPU(), nil); err != nil {
		t.Fatal(err)
	}
	defer v.Deinit()

	for _, b := range []byte{opWriteLong, 0x00, 0x00, 0xDE, 0xAD, 0xBE, 0xEF} {
		v.Write(b)
	}
	want := []byte{0xDE, 0xAD, 0xBE, 0xEF}
	for i, w := range want {
		if v.vram[i] != w {
			t.Errorf("vram[%d] = %#x, want %#x", i, v.vram[i], w)
		}
	}
}

func TestDrawAdvancesHeadlessFrameCounter(t *testing.T) {
	v := New()
	if err := v.Init(vm.NewCPU(), nil); err != nil {
		t.Fatal(err)
	}
	defer v.Deinit()

	hb := v.backend.(*headlessBackend)
	v.Write(opDraw)
	if hb.frames.Load() != 1 {
		t.Errorf("frames = %d, want 1", hb.frames.Load())
	}
}
