package vm

// OpInt and OpIret are stable opcode bytes used directly by the
// assembler and tests building raw software-interrupt sequences.
var (
	OpInt  byte
	OpIret byte
)

func registerInterrupt() {
	OpInt = reg("INT", opInt)
	OpIret = reg("IRET", opIret)
}

// opInt implements spec §4.4. The IRQ operand byte is always consumed,
// even when the interrupt is discarded because FLAGS.INTERRUPT is
// already set — this is a deliberate simplification (no queueing), and
// is specified even though it departs from what the original reference
// implementation's early-return path does.
func opInt(c *CPU) error {
	irq, err := c.fetchByte()
	if err != nil {
		return err
	}
	if c.Reg[RegFLAGS]&FlagInterrupt != 0 {
		return nil
	}
	if err := c.push(c.Reg[RegIP], WidthLong); err != nil {
		return err
	}
	c.Reg[RegFLAGS] |= FlagInterrupt
	entry := c.Reg[RegIDT] + 4*uint32(irq)
	target, err := c.readMemWidth(entry, WidthLong)
	if err != nil {
		return err
	}
	c.Reg[RegIP] = target
	return nil
}

func opIret(c *CPU) error {
	c.Reg[RegFLAGS] &^= FlagInterrupt
	ret, err := c.pop(WidthLong)
	if err != nil {
		return err
	}
	c.Reg[RegIP] = ret
	return nil
}
