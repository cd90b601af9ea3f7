package vm

// ArithOp names one arithmetic opcode family member.
type ArithOp int

const (
	ArithAdd ArithOp = iota
	ArithSub
	ArithMul
	ArithDiv
	ArithAdc
	ArithSbb
	ArithImul
	ArithIdiv
)

func (op ArithOp) String() string {
	return [...]string{"ADD", "SUB", "MUL", "DIV", "ADC", "SBB", "IMUL", "IDIV"}[op]
}

var arithOps = []ArithOp{ArithAdd, ArithSub, ArithMul, ArithDiv, ArithAdc, ArithSbb, ArithImul, ArithIdiv}
var srcModesForAlu = []AddrMode{AddrImm, AddrReg}

var arithOpcode = map[ArithOp]map[AddrMode]map[Width]byte{}

// ArithOpcode returns the opcode byte for op with the given source mode
// (Imm or Reg) and width.
func ArithOpcode(op ArithOp, mode AddrMode, w Width) byte { return arithOpcode[op][mode][w] }

func registerArith() {
	for _, op := range arithOps {
		arithOpcode[op] = map[AddrMode]map[Width]byte{}
		for _, mode := range srcModesForAlu {
			arithOpcode[op][mode] = map[Width]byte{}
			for _, w := range widths {
				op, mode, w := op, mode, w
				name := op.String() + "." + mode.moniker() + "." + w.String()
				arithOpcode[op][mode][w] = reg(name, func(c *CPU) error {
					return opArith(c, op, mode, w)
				})
			}
		}
	}
}

// opArith implements the Arith family: A is the implicit LHS and
// (for DIV/IDIV) destination of the quotient; B receives the remainder.
// ADD/SUB/ADC/SBB update CARRY; multiplication wraps; division by zero
// is fatal.
func opArith(c *CPU, op ArithOp, mode AddrMode, w Width) error {
	src, err := decodeValue(c, mode, w)
	if err != nil {
		return err
	}
	before := uint64(truncate(uint64(c.Reg[RegA]), w))
	s := uint64(truncate(uint64(src), w))
	max := widthMax(w)

	switch op {
	case ArithAdd:
		sum := before + s
		c.setA(truncate(sum, w), w)
		c.setCarry(sum > max)

	case ArithSub:
		diff := before - s
		borrow := before < s
		c.setA(truncate(diff, w), w)
		c.setCarry(borrow)

	case ArithAdc:
		carryIn := uint64(0)
		if c.Reg[RegFLAGS]&FlagCarry != 0 {
			carryIn = 1
		}
		sum := before + s + carryIn
		c.setA(truncate(sum, w), w)
		c.setCarry(sum > max)

	case ArithSbb:
		carryIn := uint64(0)
		if c.Reg[RegFLAGS]&FlagCarry != 0 {
			carryIn = 1
		}
		borrow := before < s+carryIn
		diff := before - s - carryIn
		c.setA(truncate(diff, w), w)
		c.setCarry(borrow)

	case ArithMul, ArithImul:
		prod := before * s
		c.setA(truncate(prod, w), w)

	case ArithDiv:
		if s == 0 {
			return c.fault(FaultDivideByZero, "DIV by zero")
		}
		c.setA(truncate(before/s, w), w)
		c.Reg[RegB] = zeroExtend(truncate(before%s, w), w)

	case ArithIdiv:
		if s == 0 {
			return c.fault(FaultDivideByZero, "IDIV by zero")
		}
		sa := int64(signExtend(uint32(before), w))
		sb := int64(signExtend(uint32(s), w))
		q := sa / sb
		r := sa % sb
		c.setA(truncate(uint64(q), w), w)
		c.Reg[RegB] = zeroExtend(truncate(uint64(r), w), w)
	}
	return nil
}

func (c *CPU) setA(v uint32, w Width) { c.Reg[RegA] = zeroExtend(v, w) }

func (c *CPU) setCarry(set bool) {
	if set {
		c.Reg[RegFLAGS] |= FlagCarry
	} else {
		c.Reg[RegFLAGS] &^= FlagCarry
	}
}
