package vm

import (
	"context"
	"testing"
)

func le32(v uint32) []byte {
	return []byte{byte(v), byte(v >> 8), byte(v >> 16), byte(v >> 24)}
}

func mustRun(t *testing.T, c *CPU) {
	t.Helper()
	if err := c.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
}

// scenario 1: HLT only.
func TestScenarioHaltOnly(t *testing.T) {
	c := NewCPU()
	if err := c.Load([]byte{OpHLT}, 0); err != nil {
		t.Fatal(err)
	}
	mustRun(t, c)
	if c.Reg[RegIP] != 1 {
		t.Errorf("IP = %d, want 1", c.Reg[RegIP])
	}
	if c.Reg[RegFLAGS]&FlagHalt == 0 {
		t.Errorf("FLAGS.HALT not set")
	}
}

// scenario 2: immediate MOV + HLT.
func TestScenarioImmediateMov(t *testing.T) {
	prog := []byte{MovOpcode(AddrReg, AddrImm, WidthLong), byte(RegA)}
	prog = append(prog, le32(42)...)
	prog = append(prog, OpHLT)

	c := NewCPU()
	if err := c.Load(prog, 0); err != nil {
		t.Fatal(err)
	}
	mustRun(t, c)
	if c.Reg[RegA] != 42 {
		t.Errorf("A = %d, want 42", c.Reg[RegA])
	}
	if c.Reg[RegIP] != 7 {
		t.Errorf("IP = %d, want 7", c.Reg[RegIP])
	}
}

// scenario 3: add wrap sets carry.
func TestScenarioAddWrap(t *testing.T) {
	prog := []byte{ArithOpcode(ArithAdd, AddrImm, WidthByte), 100, OpHLT}
	c := NewCPU()
	c.Reg[RegA] = 156
	if err := c.Load(prog, 0); err != nil {
		t.Fatal(err)
	}
	mustRun(t, c)
	if c.Reg[RegA] != 0 {
		t.Errorf("A = %d, want 0", c.Reg[RegA])
	}
	if c.Reg[RegFLAGS]&FlagCarry == 0 {
		t.Errorf("CARRY not set")
	}
}

// scenario 4: unsigned divide.
func TestScenarioUnsignedDivide(t *testing.T) {
	prog := []byte{ArithOpcode(ArithDiv, AddrImm, WidthByte), 2, OpHLT}
	c := NewCPU()
	c.Reg[RegA] = 9
	if err := c.Load(prog, 0); err != nil {
		t.Fatal(err)
	}
	mustRun(t, c)
	if c.Reg[RegA] != 4 || c.Reg[RegB] != 1 {
		t.Errorf("A,B = %d,%d, want 4,1", c.Reg[RegA], c.Reg[RegB])
	}
}

// scenario 5: call/return leaves IP after CALL's operand and SP unchanged.
func TestScenarioCallReturn(t *testing.T) {
	prog := make([]byte, 101)
	prog[0] = OpCall
	copy(prog[1:5], le32(100))
	prog[5] = OpHLT
	prog[100] = OpRet

	c := NewCPU()
	c.Reg[RegSP] = 0x2000
	initialSP := c.Reg[RegSP]
	if err := c.Load(prog, 0); err != nil {
		t.Fatal(err)
	}
	mustRun(t, c)
	if c.Reg[RegIP] != 6 {
		t.Errorf("IP = %d, want 6", c.Reg[RegIP])
	}
	if c.Reg[RegSP] != initialSP {
		t.Errorf("SP = %#x, want %#x", c.Reg[RegSP], initialSP)
	}
}

// scenario 6: software interrupt round trip via IRET.
func TestScenarioSoftwareInterrupt(t *testing.T) {
	movB := MovOpcode(AddrReg, AddrImm, WidthByte)
	prog := []byte{
		OpInt, 0x00, // INT 0
		OpHLT,
		movB, byte(RegA), 10,
		movB, byte(RegB), 15,
		OpIret,
	}
	const idtBase = 0x1000
	c := NewCPU()
	c.Reg[RegIDT] = idtBase
	c.Reg[RegSP] = 0x2000
	if err := c.Mem.WriteLong(idtBase, 3); err != nil { // ISR for IRQ 0 starts at offset 3
		t.Fatal(err)
	}
	if err := c.Load(prog, 0); err != nil {
		t.Fatal(err)
	}
	mustRun(t, c)
	if c.Reg[RegIP] != 3 {
		t.Errorf("IP = %d, want 3", c.Reg[RegIP])
	}
	if c.Reg[RegA] != 10 || c.Reg[RegB] != 15 {
		t.Errorf("A,B = %d,%d, want 10,15", c.Reg[RegA], c.Reg[RegB])
	}
	if c.Reg[RegFLAGS]&FlagInterrupt != 0 {
		t.Errorf("FLAGS.INTERRUPT still set")
	}
}

// INT while already in an ISR is discarded but still consumes its operand byte.
func TestInterruptDiscardedWhileInISR(t *testing.T) {
	prog := []byte{OpInt, 0x00, OpHLT}
	c := NewCPU()
	c.Reg[RegFLAGS] |= FlagInterrupt
	c.Reg[RegSP] = 0x2000
	initialSP := c.Reg[RegSP]
	if err := c.Load(prog, 0); err != nil {
		t.Fatal(err)
	}
	mustRun(t, c)
	if c.Reg[RegIP] != 3 {
		t.Errorf("IP = %d, want 3", c.Reg[RegIP])
	}
	if c.Reg[RegSP] != initialSP {
		t.Errorf("SP changed: %#x != %#x", c.Reg[RegSP], initialSP)
	}
}
