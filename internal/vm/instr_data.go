package vm

// movOpcode[dst][src][width] is the dense lookup the assembler uses
// to find the byte for a given MOV shape; dstModes excludes Imm (an
// immediate cannot be a destination), srcModes includes it.
var movOpcode = map[AddrMode]map[AddrMode]map[Width]byte{}

// MovOpcode returns the registered opcode byte for MOV dst, src, width.
func MovOpcode(dst, src AddrMode, w Width) byte { return movOpcode[dst][src][w] }

var dstModes = []AddrMode{AddrReg, AddrAbs, AddrMem, AddrIndirect}
var srcModesForMov = []AddrMode{AddrReg, AddrAbs, AddrMem, AddrIndirect, AddrImm}

func registerMov() {
	for _, dst := range dstModes {
		movOpcode[dst] = map[AddrMode]map[Width]byte{}
		for _, src := range srcModesForMov {
			movOpcode[dst][src] = map[Width]byte{}
			for _, w := range widths {
				dst, src, w := dst, src, w
				name := "MOV." + dst.moniker() + "." + src.moniker() + "." + w.String()
				movOpcode[dst][src][w] = reg(name, func(c *CPU) error {
					return opMov(c, dst, src, w)
				})
			}
		}
	}
}

// opMov decodes the destination operand first, then the source operand,
// then stores — matching the byte order spec's worked example uses
// (dst-reg byte, then the 4-byte immediate). Register destinations
// zero-extend to 32 bits.
func opMov(c *CPU, dst, src AddrMode, w Width) error {
	dstRef, err := decodeRef(c, dst)
	if err != nil {
		return err
	}
	v, err := decodeValue(c, src, w)
	if err != nil {
		return err
	}
	return dstRef.store(c, v, w)
}

func (m AddrMode) moniker() string {
	switch m {
	case AddrImm:
		return "imm"
	case AddrReg:
		return "reg"
	case AddrAbs:
		return "abs"
	case AddrMem:
		return "mem"
	case AddrIndirect:
		return "ind"
	default:
		return "?"
	}
}
