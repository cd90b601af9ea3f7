package beeper

import "testing"

func TestSetFreqLatchesOnHighByte(t *testing.T) {
	b := New()
	b.Write(CmdSetFreqLo)
	b.Write(0x50) // low byte
	b.Write(CmdSetFreqHi)
	b.Write(0x01) // high byte -> 0x0150 = 336
	if b.freqHz != 0x0150 {
		t.Errorf("freqHz = %#x, want 0x150", b.freqHz)
	}
}

func TestNoteOffSilencesOscillator(t *testing.T) {
	b := New()
	b.Write(CmdSetFreqLo)
	b.Write(0x00)
	b.Write(CmdSetFreqHi)
	b.Write(0x01) // 256 Hz
	b.Write(CmdNoteOn)
	if b.nextSample() == 0 {
		t.Fatalf("expected nonzero sample while playing")
	}
	b.Write(CmdNoteOff)
	if s := b.nextSample(); s != 0 {
		t.Errorf("nextSample() = %v after NOTE_OFF, want 0", s)
	}
}

func TestZeroFrequencyIsSilent(t *testing.T) {
	b := New()
	b.Write(CmdNoteOn)
	if s := b.nextSample(); s != 0 {
		t.Errorf("nextSample() = %v with freq=0, want 0", s)
	}
}
