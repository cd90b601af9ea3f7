package vm

import (
	"context"
	"testing"
)

func runProgram(t *testing.T, c *CPU, prog []byte) {
	t.Helper()
	if err := c.Load(prog, 0); err != nil {
		t.Fatal(err)
	}
	if err := c.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
}

// MOV of an immediate into a register zero-extends the value at every
// width. Other source/destination shapes are not covered here.
func TestMovImmToRegZeroExtendsAllWidths(t *testing.T) {
	for _, dst := range dstModes {
		if dst != AddrReg {
			continue // TestMovRegToMem covers one absolute-address destination
		}
		for _, w := range widths {
			c := NewCPU()
			op := MovOpcode(dst, AddrImm, w)
			var imm []byte
			switch w {
			case WidthByte:
				imm = []byte{0xAB}
			case WidthShort:
				imm = []byte{0xCD, 0xAB}
			case WidthLong:
				imm = le32(0xDEADBEEF)
			}
			prog := append([]byte{op, byte(RegC)}, imm...)
			prog = append(prog, OpHLT)
			runProgram(t, c, prog)

			want := uint32(0)
			for i, b := range imm {
				want |= uint32(b) << (8 * uint(i))
			}
			if c.Reg[RegC] != want {
				t.Errorf("width %v: C = %#x, want %#x", w, c.Reg[RegC], want)
			}
		}
	}
}

func TestMovRegToMem(t *testing.T) {
	c := NewCPU()
	c.Reg[RegC] = 0x1234
	op := MovOpcode(AddrAbs, AddrReg, WidthLong)
	prog := append([]byte{op}, le32(0x5000)...)
	prog = append(prog, byte(RegC))
	prog = append(prog, OpHLT)
	runProgram(t, c, prog)
	v, err := c.Mem.ReadLong(0x5000)
	if err != nil {
		t.Fatal(err)
	}
	if v != 0x1234 {
		t.Errorf("mem[0x5000] = %#x, want 0x1234", v)
	}
}

// ADD/SUB: after = (before op operand) mod 2^w; CARRY reflects overflow/borrow.
func TestAddSubWrapAndCarry(t *testing.T) {
	cases := []struct {
		op      ArithOp
		w       Width
		before  uint32
		operand uint32
		want    uint32
		carry   bool
	}{
		{ArithAdd, WidthByte, 250, 10, 4, true},
		{ArithAdd, WidthByte, 10, 10, 20, false},
		{ArithSub, WidthByte, 5, 10, 251, true},
		{ArithSub, WidthByte, 10, 5, 5, false},
		{ArithAdd, WidthLong, 0xFFFFFFFF, 1, 0, true},
	}
	for _, tc := range cases {
		c := NewCPU()
		c.Reg[RegA] = tc.before
		op := ArithOpcode(tc.op, AddrImm, tc.w)
		var imm []byte
		switch tc.w {
		case WidthByte:
			imm = []byte{byte(tc.operand)}
		case WidthLong:
			imm = le32(tc.operand)
		}
		prog := append([]byte{op}, imm...)
		prog = append(prog, OpHLT)
		runProgram(t, c, prog)
		if c.Reg[RegA] != tc.want {
			t.Errorf("%v %v: A = %#x, want %#x", tc.op, tc.w, c.Reg[RegA], tc.want)
		}
		if (c.Reg[RegFLAGS]&FlagCarry != 0) != tc.carry {
			t.Errorf("%v %v: carry = %v, want %v", tc.op, tc.w, c.Reg[RegFLAGS]&FlagCarry != 0, tc.carry)
		}
	}
}

// ADC/SBB fold in the incoming carry bit.
func TestAdcSbbCarryIn(t *testing.T) {
	c := NewCPU()
	c.Reg[RegA] = 0xFE
	c.Reg[RegFLAGS] |= FlagCarry
	prog := []byte{ArithOpcode(ArithAdc, AddrImm, WidthByte), 1, OpHLT}
	runProgram(t, c, prog)
	if c.Reg[RegA] != 0 {
		t.Errorf("ADC: A = %#x, want 0", c.Reg[RegA])
	}
	if c.Reg[RegFLAGS]&FlagCarry == 0 {
		t.Errorf("ADC: carry should still be set (0xFE+1+1 overflows byte)")
	}

	c2 := NewCPU()
	c2.Reg[RegA] = 5
	c2.Reg[RegFLAGS] |= FlagCarry
	prog2 := []byte{ArithOpcode(ArithSbb, AddrImm, WidthByte), 3, OpHLT}
	runProgram(t, c2, prog2)
	if c2.Reg[RegA] != 1 {
		t.Errorf("SBB: A = %d, want 1", c2.Reg[RegA])
	}
	if c2.Reg[RegFLAGS]&FlagCarry != 0 {
		t.Errorf("SBB: carry should be clear")
	}
}

// PUSH then POP of the same width restores the register and leaves SP unchanged.
func TestPushPopRoundTrip(t *testing.T) {
	for _, w := range widths {
		c := NewCPU()
		c.Reg[RegSP] = 0x4000
		c.Reg[RegC] = 0x11223344 & uint32(widthMax(w))
		initialSP := c.Reg[RegSP]

		pushOp := PushOpcode(AddrReg, w)
		popOp := PopOpcode(AddrReg, w)
		prog := []byte{pushOp, byte(RegC), popOp, byte(RegD), OpHLT}
		runProgram(t, c, prog)

		if c.Reg[RegD] != c.Reg[RegC] {
			t.Errorf("width %v: D = %#x, want %#x", w, c.Reg[RegD], c.Reg[RegC])
		}
		if c.Reg[RegSP] != initialSP {
			t.Errorf("width %v: SP = %#x, want %#x", w, c.Reg[RegSP], initialSP)
		}
	}
}

// CMP writes 1 to A iff operands are bit-equal at the operand width, and
// never touches FLAGS.
func TestCmpEquality(t *testing.T) {
	c := NewCPU()
	c.Reg[RegA] = 7
	c.Reg[RegFLAGS] |= FlagCarry
	prog := []byte{CmpOpcode(AddrImm, WidthByte), 7, OpHLT}
	runProgram(t, c, prog)
	if c.Reg[RegA] != 1 {
		t.Errorf("A = %d, want 1", c.Reg[RegA])
	}
	if c.Reg[RegFLAGS]&FlagCarry == 0 {
		t.Errorf("CMP must not clear CARRY")
	}

	c2 := NewCPU()
	c2.Reg[RegA] = 7
	prog2 := []byte{CmpOpcode(AddrImm, WidthByte), 8, OpHLT}
	runProgram(t, c2, prog2)
	if c2.Reg[RegA] != 0 {
		t.Errorf("A = %d, want 0", c2.Reg[RegA])
	}
}

// Conditional jumps compare A and B, not FLAGS.
func TestConditionalJumpComparesAB(t *testing.T) {
	c := NewCPU()
	c.Reg[RegA] = 5
	c.Reg[RegB] = 5
	// JE to address 20 if taken, else falls through to HLT at address 5.
	prog := make([]byte, 25)
	jeOpcodeIdx := 0
	prog[jeOpcodeIdx] = opcodeByName("JE")
	copy(prog[1:5], le32(20))
	prog[5] = OpHLT // not taken path would land here, but JE is 5 bytes so fallthrough is addr 5
	prog[20] = OpHLT
	runProgram(t, c, prog)
	if c.Reg[RegIP] != 21 {
		t.Errorf("IP = %d, want 21 (jump taken to 20, HLT consumes 1 byte)", c.Reg[RegIP])
	}
}

// MUL and IMUL compute the same truncated bit pattern: two's-complement
// wraparound makes the unsigned and signed products identical mod 2^w.
func TestMulImulAgreeOnTruncatedProduct(t *testing.T) {
	for _, op := range []ArithOp{ArithMul, ArithImul} {
		c := NewCPU()
		c.Reg[RegA] = 200
		prog := []byte{ArithOpcode(op, AddrImm, WidthByte), 3, OpHLT}
		runProgram(t, c, prog)
		if c.Reg[RegA] != 88 {
			t.Errorf("%v: A = %d, want 88", op, c.Reg[RegA])
		}
	}
}

// IDIV sign-extends both operands before dividing; quotient and remainder
// truncate back to width, so a negative result is stored as its
// two's-complement bit pattern at that width.
func TestIdivSignedTruncatesNegativeResult(t *testing.T) {
	c := NewCPU()
	c.Reg[RegA] = 0xF6 // -10 as a signed byte
	prog := []byte{ArithOpcode(ArithIdiv, AddrImm, WidthByte), 3, OpHLT}
	runProgram(t, c, prog)
	if c.Reg[RegA] != 0xFD { // -3
		t.Errorf("A = %#x, want 0xFD (-3)", c.Reg[RegA])
	}
	if c.Reg[RegB] != 0xFF { // -1
		t.Errorf("B = %#x, want 0xFF (-1)", c.Reg[RegB])
	}
}

// Every member of the shift/rotate family against the same operand: SHL
// and SAL coincide, SHR is logical, SAR sign-extends, ROL/ROR wrap the
// vacated bits back in from the other end.
func TestShiftRotateFamily(t *testing.T) {
	cases := []struct {
		op   ShiftOp
		want uint32
	}{
		{ShiftShl, 0x02},
		{ShiftSal, 0x02},
		{ShiftShr, 0x40},
		{ShiftSar, 0xC0},
		{ShiftRol, 0x03},
		{ShiftRor, 0xC0},
	}
	for _, tc := range cases {
		c := NewCPU()
		c.Reg[RegA] = 0x81
		prog := []byte{ShiftOpcode(tc.op, AddrImm, WidthByte), 1, OpHLT}
		runProgram(t, c, prog)
		if c.Reg[RegA] != tc.want {
			t.Errorf("%v: A = %#x, want %#x", tc.op, c.Reg[RegA], tc.want)
		}
	}
}

func opcodeByName(name string) byte {
	for i := 0; i < 256; i++ {
		if opcodeTable[i].Name == name {
			return byte(i)
		}
	}
	panic("opcode not found: " + name)
}
