// Package asm is a small two-pass assembler for the VM's instruction
// set, producing the raw little-endian byte images vm.CPU.Load expects.
//
// Grounded on the teacher's assembler/ie32asm.go (two-pass label table,
// .byte/.word/.long/.ascii directives, register mnemonics, bracketed
// indirect-addressing syntax), generalized from that assembler's own
// fixed-opcode dialect to this VM's addressing-mode-encoded-in-opcode
// scheme — so every encode* function in instructions.go resolves its
// opcode byte through the vm package's registered lookup functions
// rather than a hardcoded table. Unlike the teacher, there is no .org
// directive: Assemble always links a single flat image starting at the
// base passed to New, matching vm.CPU.Load's own single-segment model.
//
// License: GPLv3 or later
package asm

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ie32vm/ie32vm/internal/vm"
)

var registerNames = map[string]int{
	"A": vm.RegA, "B": vm.RegB, "C": vm.RegC, "D": vm.RegD,
	"E": vm.RegE, "F": vm.RegF, "G": vm.RegG, "H": vm.RegH,
	"IP": vm.RegIP, "SP": vm.RegSP, "BP": vm.RegBP, "IDT": vm.RegIDT,
	"FLAGS": vm.RegFLAGS, "I": vm.RegI, "J": vm.RegJ, "K": vm.RegK,
}

// Operand is a parsed source operand. Label resolution happens in pass 2.
type Operand struct {
	Mode     vm.AddrMode
	Reg      byte
	Imm      uint32
	Label    string
	HasLabel bool
}

// Assembler performs the two-pass assembly. Instruction sizes are
// syntax-determined (an operand's addressing mode never depends on a
// label's resolved value), so pass 1 can compute every label's address
// without resolving any other label first.
type Assembler struct {
	base   uint32
	lines  []sourceLine
	labels map[string]uint32
}

type sourceLine struct {
	num  int
	text string
}

// New constructs an Assembler that will link the program to start at base.
func New(base uint32) *Assembler {
	return &Assembler{base: base, labels: map[string]uint32{}}
}

// Assemble runs both passes over src and returns the linked image.
func (a *Assembler) Assemble(src string) ([]byte, error) {
	a.lines = nil
	for i, raw := range strings.Split(src, "\n") {
		line := stripComment(raw)
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		a.lines = append(a.lines, sourceLine{num: i + 1, text: line})
	}

	if err := a.collectLabels(); err != nil {
		return nil, err
	}
	return a.emit()
}

func stripComment(line string) string {
	if i := strings.Index(line, ";"); i >= 0 {
		return line[:i]
	}
	return line
}

// collectLabels is pass 1: walk every line, accumulating the byte
// offset, and record each "name:" label's resolved address.
func (a *Assembler) collectLabels() error {
	offset := uint32(0)
	for _, l := range a.lines {
		text := l.text
		for strings.HasSuffix(strings.SplitN(text, " ", 2)[0], ":") {
			label := strings.TrimSuffix(strings.Fields(text)[0], ":")
			a.labels[label] = a.base + offset
			text = strings.TrimSpace(strings.TrimPrefix(text, strings.Fields(text)[0]))
			if text == "" {
				break
			}
		}
		if text == "" {
			continue
		}
		n, err := a.sizeOf(text, l.num)
		if err != nil {
			return err
		}
		offset += n
	}
	return nil
}

// emit is pass 2: re-walk every line, this time resolving labels and
// writing bytes.
func (a *Assembler) emit() ([]byte, error) {
	var out []byte
	for _, l := range a.lines {
		text := l.text
		for strings.HasSuffix(strings.SplitN(text, " ", 2)[0], ":") {
			text = strings.TrimSpace(strings.TrimPrefix(text, strings.Fields(text)[0]))
			if text == "" {
				break
			}
		}
		if text == "" {
			continue
		}
		b, err := a.encode(text, l.num)
		if err != nil {
			return nil, err
		}
		out = append(out, b...)
	}
	return out, nil
}

func (a *Assembler) resolve(op Operand, lineNum int) (uint32, error) {
	if !op.HasLabel {
		return op.Imm, nil
	}
	v, ok := a.labels[op.Label]
	if !ok {
		return 0, fmt.Errorf("line %d: undefined label %q", lineNum, op.Label)
	}
	return v, nil
}

func parseOperand(s string) (Operand, error) {
	s = strings.TrimSpace(s)
	switch {
	case strings.HasPrefix(s, "#"):
		v, err := strconv.ParseUint(strings.TrimPrefix(s, "#"), 0, 32)
		if err != nil {
			return Operand{}, fmt.Errorf("invalid immediate %q: %w", s, err)
		}
		return Operand{Mode: vm.AddrImm, Imm: uint32(v)}, nil
	case strings.HasPrefix(s, "[") && strings.HasSuffix(s, "]"):
		reg := strings.ToUpper(strings.TrimSpace(s[1 : len(s)-1]))
		idx, ok := registerNames[reg]
		if !ok {
			return Operand{}, fmt.Errorf("unknown register %q in indirect operand", reg)
		}
		return Operand{Mode: vm.AddrIndirect, Reg: byte(idx)}, nil
	default:
		if idx, ok := registerNames[strings.ToUpper(s)]; ok {
			return Operand{Mode: vm.AddrReg, Reg: byte(idx)}, nil
		}
		if v, err := strconv.ParseUint(s, 0, 32); err == nil {
			return Operand{Mode: vm.AddrAbs, Imm: uint32(v)}, nil
		}
		return Operand{Mode: vm.AddrAbs, HasLabel: true, Label: s}, nil
	}
}
