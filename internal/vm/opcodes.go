package vm

// OpHandler executes one instruction. It is invoked with IP already
// advanced past the opcode byte; the handler is responsible for
// consuming exactly the operand bytes its opcode declares, even on
// early-exit branches (e.g. INT while already in an ISR).
type OpHandler func(*CPU) error

type opcodeEntry struct {
	Name    string
	Handler OpHandler
}

// opcodeTable is the dense byte-indexed dispatch table (spec §4.2): a
// closed enumeration from opcode byte to handler. It is built once, in a
// fixed order, by the registerXxx functions below, so that opcode byte
// assignment is deterministic and reproducible across builds.
var opcodeTable [256]opcodeEntry

var nextOpcode int

// reg assigns the next free opcode byte to name/h and returns it. Panics
// if the table overflows 256 entries, which would indicate a defect in
// the family tables below, not a runtime condition.
func reg(name string, h OpHandler) byte {
	if nextOpcode >= 256 {
		panic("vm: opcode table overflow")
	}
	op := byte(nextOpcode)
	opcodeTable[op] = opcodeEntry{Name: name, Handler: h}
	nextOpcode++
	return op
}

func init() {
	registerMisc()
	registerControl()
	registerIO()
	registerMov()
	registerArith()
	registerLogic()
	registerShift()
	registerCompare()
	registerUnary()
	registerStack()
}

// OpcodeName returns the mnemonic registered for an opcode byte, or ""
// for an unassigned byte.
func OpcodeName(op byte) string { return opcodeTable[op].Name }

// OpcodeByName returns the opcode byte registered under name and true,
// or false if none matches. Used by the assembler to resolve mnemonics
// (the conditional jumps) that have no dedicated exported byte constant,
// since every jcc shares one handler shape parameterized by name only.
func OpcodeByName(name string) (byte, bool) {
	for op, entry := range opcodeTable {
		if entry.Name == name {
			return byte(op), true
		}
	}
	return 0, false
}

var widths = [3]Width{WidthByte, WidthShort, WidthLong}
