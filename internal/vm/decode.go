package vm

// AddrMode is an operand addressing mode. No prefix bytes or mod/rm
// encoding exist in this ISA — each addressing-mode combination gets its
// own opcode, and the opcode table's entry records which modes its
// operand bytes use.
type AddrMode uint8

const (
	AddrImm      AddrMode = iota // immediate literal, width bytes follow
	AddrReg                      // 1-byte register index
	AddrAbs                      // 4-byte absolute address
	AddrMem                      // 4-byte IP-relative address
	AddrIndirect                 // 1-byte register index, used as address
)

// operandRef is a resolved, storable operand location: either a register
// or a memory address. It is the common shape addressable operands
// (everything but Imm) decode into.
type operandRef struct {
	isReg bool
	reg   int
	addr  uint32
}

// decodeRef consumes the operand bytes for mode and returns the location
// they name. Imm has no storable location and is handled separately by
// callers that need a value (decodeValue).
func decodeRef(c *CPU, mode AddrMode) (operandRef, error) {
	switch mode {
	case AddrReg:
		b, err := c.fetchByte()
		if err != nil {
			return operandRef{}, err
		}
		idx, err := c.checkRegIndex(b)
		if err != nil {
			return operandRef{}, err
		}
		return operandRef{isReg: true, reg: idx}, nil
	case AddrAbs:
		addr, err := c.fetchLong()
		if err != nil {
			return operandRef{}, err
		}
		return operandRef{addr: addr}, nil
	case AddrMem:
		off, err := c.fetchLong()
		if err != nil {
			return operandRef{}, err
		}
		// effective = operand + IP after this operand has been decoded
		return operandRef{addr: off + c.Reg[RegIP]}, nil
	case AddrIndirect:
		b, err := c.fetchByte()
		if err != nil {
			return operandRef{}, err
		}
		idx, err := c.checkRegIndex(b)
		if err != nil {
			return operandRef{}, err
		}
		return operandRef{addr: c.Reg[idx]}, nil
	default:
		return operandRef{}, c.faultf(FaultInvalidOpcode, "mode %d has no addressable location", mode)
	}
}

func (r operandRef) load(c *CPU, w Width) (uint32, error) {
	if r.isReg {
		return c.Reg[r.reg], nil
	}
	return c.readMemWidth(r.addr, w)
}

func (r operandRef) store(c *CPU, v uint32, w Width) error {
	if r.isReg {
		// register destinations zero-extend to 32 bits
		c.Reg[r.reg] = zeroExtend(v, w)
		return nil
	}
	return c.writeMemWidth(r.addr, v, w)
}

func zeroExtend(v uint32, w Width) uint32 {
	switch w {
	case WidthByte:
		return uint32(uint8(v))
	case WidthShort:
		return uint32(uint16(v))
	default:
		return v
	}
}

func signExtend(v uint32, w Width) int32 {
	switch w {
	case WidthByte:
		return int32(int8(v))
	case WidthShort:
		return int32(int16(v))
	default:
		return int32(v)
	}
}

// decodeValue consumes the operand bytes for mode (which may be AddrImm)
// and returns the loaded value, zero-extended to 32 bits.
func decodeValue(c *CPU, mode AddrMode, w Width) (uint32, error) {
	if mode == AddrImm {
		return c.fetchWidth(w)
	}
	ref, err := decodeRef(c, mode)
	if err != nil {
		return 0, err
	}
	return ref.load(c, w)
}

// truncate masks v to the given width's bit pattern (no sign handling).
func truncate(v uint64, w Width) uint32 {
	switch w {
	case WidthByte:
		return uint32(v & 0xFF)
	case WidthShort:
		return uint32(v & 0xFFFF)
	default:
		return uint32(v)
	}
}

func widthMax(w Width) uint64 {
	switch w {
	case WidthByte:
		return 0xFF
	case WidthShort:
		return 0xFFFF
	default:
		return 0xFFFFFFFF
	}
}
