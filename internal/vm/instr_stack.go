package vm

// push decrements SP by the operand width, then stores: the discipline
// fixed by spec §3. Over/underflow is unchecked beyond ordinary memory
// bounds checking.
func (c *CPU) push(v uint32, w Width) error {
	c.Reg[RegSP] -= uint32(w)
	return c.writeMemWidth(c.Reg[RegSP], v, w)
}

// pop reads at SP, then increments SP by the operand width.
func (c *CPU) pop(w Width) (uint32, error) {
	v, err := c.readMemWidth(c.Reg[RegSP], w)
	if err != nil {
		return 0, err
	}
	c.Reg[RegSP] += uint32(w)
	return v, nil
}

var pushOpcode = map[AddrMode]map[Width]byte{}
var popOpcode = map[AddrMode]map[Width]byte{}

// PushOpcode returns the registered opcode byte for PUSH with the given
// source addressing mode (Imm, Reg or Mem) and width.
func PushOpcode(mode AddrMode, w Width) byte { return pushOpcode[mode][w] }

// PopOpcode returns the registered opcode byte for POP with the given
// destination addressing mode (Reg or Mem) and width.
func PopOpcode(mode AddrMode, w Width) byte { return popOpcode[mode][w] }

func registerStack() {
	for _, mode := range []AddrMode{AddrImm, AddrReg, AddrMem} {
		pushOpcode[mode] = map[Width]byte{}
		for _, w := range widths {
			mode, w := mode, w
			pushOpcode[mode][w] = reg("PUSH."+mode.moniker()+"."+w.String(), func(c *CPU) error {
				v, err := decodeValue(c, mode, w)
				if err != nil {
					return err
				}
				return c.push(v, w)
			})
		}
	}
	for _, mode := range []AddrMode{AddrReg, AddrMem} {
		popOpcode[mode] = map[Width]byte{}
		for _, w := range widths {
			mode, w := mode, w
			popOpcode[mode][w] = reg("POP."+mode.moniker()+"."+w.String(), func(c *CPU) error {
				ref, err := decodeRef(c, mode)
				if err != nil {
					return err
				}
				v, err := c.pop(w)
				if err != nil {
					return err
				}
				return ref.store(c, v, w)
			})
		}
	}
}
