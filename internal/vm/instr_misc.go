package vm

import (
	"context"
	"log/slog"
)

// OpHLT, OpNOP, OpCLC and OpSYS are stable opcode bytes referenced
// directly by the assembler and tests (spec §8 scenario 1: image [OpHLT]).
var (
	OpHLT byte
	OpNOP byte
	OpCLC byte
	OpSYS byte
)

func registerMisc() {
	OpHLT = reg("HLT", opHLT)
	OpNOP = reg("NOP", opNOP)
	OpCLC = reg("CLC", opCLC)
	OpSYS = reg("SYS", opSYS)
}

// opHLT sets FLAGS.HALT; the fetch loop sees this on its next iteration
// and tears down every registered port exactly once.
func opHLT(c *CPU) error {
	c.Reg[RegFLAGS] |= FlagHalt
	c.log.Debug("HLT", "ip", c.Reg[RegIP])
	return nil
}

func opNOP(c *CPU) error { return nil }

func opCLC(c *CPU) error {
	c.Reg[RegFLAGS] &^= FlagCarry
	return nil
}

// opSYS dispatches a 1-byte syscall index to the host-provided callback
// table (logging, register/memory dump, string print — SPEC_FULL §4.10).
func opSYS(c *CPU) error {
	idx, err := c.fetchByte()
	if err != nil {
		return err
	}
	fn, ok := syscallTable[idx]
	if !ok {
		c.log.Warn("unknown syscall index, ignored", "index", idx)
		return nil
	}
	fn(c)
	return nil
}

var syscallTable = map[byte]func(*CPU){
	0: sysLogMem,
	1: sysLogReg,
	2: sysPrintStr,
	3: sysPrintReg,
}

func sysLogMem(c *CPU) {
	start, end := c.Reg[RegA], c.Reg[RegB]
	if start > end {
		c.log.Warn("SYS_LOG_MEM: invalid range", "start", start, "end", end)
		return
	}
	n := end - start
	const maxDump = 4096
	if n > maxDump {
		n = maxDump
	}
	buf := make([]byte, 0, n)
	for i := uint32(0); i < n; i++ {
		b, err := c.Mem.ReadByte(start + i)
		if err != nil {
			break
		}
		buf = append(buf, b)
	}
	c.log.Info("SYS_LOG_MEM", "start", start, "end", end, "bytes", buf)
}

func sysLogReg(c *CPU) {
	attrs := make([]any, 0, NumRegisters*2)
	for i := 0; i < NumRegisters; i++ {
		attrs = append(attrs, RegisterName(i), c.Reg[i])
	}
	c.log.Info("SYS_LOG_REG", attrs...)
}

func sysPrintStr(c *CPU) {
	addr := c.Reg[RegA]
	var sb []byte
	for i := uint32(0); i < 65536; i++ {
		b, err := c.Mem.ReadByte(addr + i)
		if err != nil || b == 0 {
			break
		}
		sb = append(sb, b)
	}
	c.log.Info("SYS_PRINT_STR", "text", string(sb))
}

func sysPrintReg(c *CPU) {
	c.log.Log(context.Background(), slog.LevelInfo, "SYS_PRINT_REG", "A", c.Reg[RegA])
}
