package vm

// LogicOp names one logic opcode family member.
type LogicOp int

const (
	LogicAnd LogicOp = iota
	LogicOr
	LogicXor
)

func (op LogicOp) String() string { return [...]string{"AND", "OR", "XOR"}[op] }

var logicOps = []LogicOp{LogicAnd, LogicOr, LogicXor}
var logicOpcode = map[LogicOp]map[AddrMode]map[Width]byte{}

// LogicOpcode returns the opcode byte for op with the given source mode
// (Imm or Reg) and width.
func LogicOpcode(op LogicOp, mode AddrMode, w Width) byte { return logicOpcode[op][mode][w] }

func registerLogic() {
	for _, op := range logicOps {
		logicOpcode[op] = map[AddrMode]map[Width]byte{}
		for _, mode := range srcModesForAlu {
			logicOpcode[op][mode] = map[Width]byte{}
			for _, w := range widths {
				op, mode, w := op, mode, w
				name := op.String() + "." + mode.moniker() + "." + w.String()
				logicOpcode[op][mode][w] = reg(name, func(c *CPU) error {
					return opLogic(c, op, mode, w)
				})
			}
		}
	}
}

// opLogic implements AND/OR/XOR with the implicit A register, zero-extended.
func opLogic(c *CPU, op LogicOp, mode AddrMode, w Width) error {
	src, err := decodeValue(c, mode, w)
	if err != nil {
		return err
	}
	a := truncate(uint64(c.Reg[RegA]), w)
	s := truncate(uint64(src), w)
	var result uint32
	switch op {
	case LogicAnd:
		result = a & s
	case LogicOr:
		result = a | s
	case LogicXor:
		result = a ^ s
	}
	c.setA(result, w)
	return nil
}
