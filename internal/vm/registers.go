package vm

// Width is an instruction operand width in bytes.
type Width uint8

const (
	WidthByte  Width = 1
	WidthShort Width = 2
	WidthLong  Width = 4
)

func (w Width) String() string {
	switch w {
	case WidthByte:
		return "b"
	case WidthShort:
		return "s"
	case WidthLong:
		return "l"
	default:
		return "?"
	}
}

// NumRegisters is the size of the register file.
const NumRegisters = 16

// Register indices. The low eight are general purpose, with A and B
// carrying implicit architectural roles (implicit arithmetic/compare LHS
// and RHS respectively). Indices 8-12 are the five named control
// registers, contiguous after the eight general-purpose slots; indices
// 13-15 (I, J, K) are general purpose again.
const (
	RegA = iota
	RegB
	RegC
	RegD
	RegE
	RegF
	RegG
	RegH
	RegIP
	RegSP
	RegBP
	RegIDT
	RegFLAGS
	RegI
	RegJ
	RegK
)

var regNames = [NumRegisters]string{
	"A", "B", "C", "D", "E", "F", "G", "H",
	"IP", "SP", "BP", "IDT", "FLAGS", "I", "J", "K",
}

// RegisterName returns the mnemonic for a register index, or "?" if out of range.
func RegisterName(idx int) string {
	if idx < 0 || idx >= NumRegisters {
		return "?"
	}
	return regNames[idx]
}

// FLAGS bits.
const (
	FlagHalt      uint32 = 1 << 0
	FlagCarry     uint32 = 1 << 1
	FlagInterrupt uint32 = 1 << 2
)

// checkRegIndex validates a decoded register index per the invariant that
// register indices must be < NumRegisters.
func (c *CPU) checkRegIndex(idx byte) (int, error) {
	if int(idx) >= NumRegisters {
		return 0, c.faultf(FaultInvalidRegister, "invalid register index %d", idx)
	}
	return int(idx), nil
}
