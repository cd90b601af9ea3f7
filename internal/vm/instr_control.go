package vm

// Named opcode bytes used directly by the assembler and by tests that
// build raw program images (spec §8 scenarios 5 and 6).
var (
	OpJmpAbs byte
	OpJmpReg byte
	OpCall   byte
	OpRet    byte
)

type jumpCond struct {
	name   string
	taken  func(a, b uint32) bool
}

func registerControl() {
	conds := []jumpCond{
		{"JE", func(a, b uint32) bool { return a == b }},
		{"JNE", func(a, b uint32) bool { return a != b }},
		{"JG", func(a, b uint32) bool { return a > b }},
		{"JGE", func(a, b uint32) bool { return a >= b }},
		{"JL", func(a, b uint32) bool { return a < b }},
		{"JLE", func(a, b uint32) bool { return a <= b }},
		{"JSG", func(a, b uint32) bool { return int32(a) > int32(b) }},
		{"JSGE", func(a, b uint32) bool { return int32(a) >= int32(b) }},
		{"JSL", func(a, b uint32) bool { return int32(a) < int32(b) }},
		{"JSLE", func(a, b uint32) bool { return int32(a) <= int32(b) }},
	}

	OpJmpAbs = reg("JMP", opJmpAbs)
	OpJmpReg = reg("JMP.r", opJmpReg)
	for _, jc := range conds {
		jc := jc
		reg(jc.name, func(c *CPU) error { return opJcc(c, jc.taken) })
	}
	OpCall = reg("CALL", opCall)
	OpRet = reg("RET", opRet)
	registerInterrupt()
}

func opJmpAbs(c *CPU) error {
	target, err := c.fetchLong()
	if err != nil {
		return err
	}
	c.Reg[RegIP] = target
	return nil
}

func opJmpReg(c *CPU) error {
	b, err := c.fetchByte()
	if err != nil {
		return err
	}
	idx, err := c.checkRegIndex(b)
	if err != nil {
		return err
	}
	c.Reg[RegIP] = c.Reg[idx]
	return nil
}

// opJcc compares implicit registers A and B (spec §9: jump compares use
// registers, not a flags ABI) and jumps to the 4-byte absolute target if
// taken returns true for (A, B).
func opJcc(c *CPU, taken func(a, b uint32) bool) error {
	target, err := c.fetchLong()
	if err != nil {
		return err
	}
	if taken(c.Reg[RegA], c.Reg[RegB]) {
		c.Reg[RegIP] = target
	}
	return nil
}

// opCall pushes the return IP — the address immediately after the
// 4-byte target operand — then jumps to target.
func opCall(c *CPU) error {
	target, err := c.fetchLong()
	if err != nil {
		return err
	}
	ret := c.Reg[RegIP]
	if err := c.push(ret, WidthLong); err != nil {
		return err
	}
	c.Reg[RegIP] = target
	return nil
}

func opRet(c *CPU) error {
	ret, err := c.pop(WidthLong)
	if err != nil {
		return err
	}
	c.Reg[RegIP] = ret
	return nil
}
