package vm

import "os"

// LoadImageFile reads a raw program image file and loads it into the CPU
// at base (spec §4.6, §6: a raw little-endian byte stream, no header, no
// relocation).
func (c *CPU) LoadImageFile(path string, base uint32) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return c.Load(data, base)
}
