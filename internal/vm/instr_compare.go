package vm

var cmpOpcode = map[AddrMode]map[Width]byte{}

// CmpOpcode returns the opcode byte for CMP with the given source mode
// (Imm or Reg) and width.
func CmpOpcode(mode AddrMode, w Width) byte { return cmpOpcode[mode][w] }

func registerCompare() {
	for _, mode := range srcModesForAlu {
		cmpOpcode[mode] = map[Width]byte{}
		for _, w := range widths {
			mode, w := mode, w
			cmpOpcode[mode][w] = reg("CMP."+mode.moniker()+"."+w.String(), func(c *CPU) error {
				return opCmp(c, mode, w)
			})
		}
	}
}

// opCmp writes 1 to A on bit-equality at the operand width, 0 otherwise.
// It does not touch FLAGS.
func opCmp(c *CPU, mode AddrMode, w Width) error {
	src, err := decodeValue(c, mode, w)
	if err != nil {
		return err
	}
	a := truncate(uint64(c.Reg[RegA]), w)
	s := truncate(uint64(src), w)
	if a == s {
		c.Reg[RegA] = 1
	} else {
		c.Reg[RegA] = 0
	}
	return nil
}
