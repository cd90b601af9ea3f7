package vm

var inOpcode = map[Width]byte{}
var outOpcode = map[AddrMode]map[Width]byte{}

// InOpcode returns the opcode byte for IN at the given width.
func InOpcode(w Width) byte { return inOpcode[w] }

// OutOpcode returns the opcode byte for OUT with the given source mode
// (Reg or Imm) and width.
func OutOpcode(mode AddrMode, w Width) byte { return outOpcode[mode][w] }

func registerIO() {
	for _, w := range widths {
		w := w
		inOpcode[w] = reg("IN."+w.String(), func(c *CPU) error { return opIn(c, w) })
	}
	for _, mode := range []AddrMode{AddrReg, AddrImm} {
		outOpcode[mode] = map[Width]byte{}
		for _, w := range widths {
			mode, w := mode, w
			outOpcode[mode][w] = reg("OUT."+mode.moniker()+"."+w.String(), func(c *CPU) error {
				return opOut(c, mode, w)
			})
		}
	}
}

// opIn reads one port-index byte and one destination-register byte, then
// pulls w bytes from the port, little-endian, zero-extended into the
// destination register. Wider-than-byte IN is the CPU serializing
// individual byte transfers — the port itself only ever sees bytes.
func opIn(c *CPU, w Width) error {
	portIdx, err := c.fetchByte()
	if err != nil {
		return err
	}
	dst, err := decodeRef(c, AddrReg)
	if err != nil {
		return err
	}
	port, err := c.Ports.get(c, portIdx)
	if err != nil {
		return err
	}
	var v uint32
	for i := Width(0); i < w; i++ {
		v |= uint32(port.Read()) << (8 * uint(i))
	}
	return dst.store(c, v, w)
}

// opOut reads one port-index byte and a source value (register or
// immediate, per mode), then writes w bytes to the port, little-endian.
func opOut(c *CPU, mode AddrMode, w Width) error {
	portIdx, err := c.fetchByte()
	if err != nil {
		return err
	}
	v, err := decodeValue(c, mode, w)
	if err != nil {
		return err
	}
	port, err := c.Ports.get(c, portIdx)
	if err != nil {
		return err
	}
	for i := uint(0); i < uint(w); i++ {
		port.Write(byte(v >> (8 * i)))
	}
	return nil
}
