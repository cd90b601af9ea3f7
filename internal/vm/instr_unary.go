package vm

// UnaryOp names one unary opcode family member.
type UnaryOp int

const (
	UnaryNeg UnaryOp = iota
	UnaryNot
	UnaryInc
	UnaryDec
)

func (op UnaryOp) String() string { return [...]string{"NEG", "NOT", "INC", "DEC"}[op] }

var unaryOps = []UnaryOp{UnaryNeg, UnaryNot, UnaryInc, UnaryDec}
var unaryOpcode = map[UnaryOp]map[Width]byte{}

// UnaryOpcode returns the opcode byte for op at the given width.
func UnaryOpcode(op UnaryOp, w Width) byte { return unaryOpcode[op][w] }

func registerUnary() {
	for _, op := range unaryOps {
		unaryOpcode[op] = map[Width]byte{}
		for _, w := range widths {
			op, w := op, w
			unaryOpcode[op][w] = reg(op.String()+"."+w.String(), func(c *CPU) error {
				return opUnary(c, op, w)
			})
		}
	}
}

// opUnary operates in place on the named register, wrapping at the
// operand width.
func opUnary(c *CPU, op UnaryOp, w Width) error {
	ref, err := decodeRef(c, AddrReg)
	if err != nil {
		return err
	}
	v := uint64(truncate(uint64(c.Reg[ref.reg]), w))
	var result uint32
	switch op {
	case UnaryNeg:
		result = truncate(uint64(-int64(v)), w)
	case UnaryNot:
		result = truncate(^v, w)
	case UnaryInc:
		result = truncate(v+1, w)
	case UnaryDec:
		result = truncate(v-1, w)
	}
	return ref.store(c, result, w)
}
