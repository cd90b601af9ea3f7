package asm

import (
	"fmt"
	"strings"

	"github.com/ie32vm/ie32vm/internal/vm"
)

// parseLine splits "MNEMONIC.width op1, op2" into its parts. width
// defaults to Long when the instruction family takes one but the
// source omits the suffix.
func parseLine(text string) (mnemonic string, w vm.Width, operands []Operand, err error) {
	fields := strings.SplitN(text, " ", 2)
	head := fields[0]
	w = vm.WidthLong
	if dot := strings.Index(head, "."); dot >= 0 {
		suffix := head[dot+1:]
		head = head[:dot]
		switch strings.ToUpper(suffix) {
		case "B":
			w = vm.WidthByte
		case "S":
			w = vm.WidthShort
		case "L":
			w = vm.WidthLong
		default:
			return "", 0, nil, fmt.Errorf("unknown width suffix %q", suffix)
		}
	}
	mnemonic = strings.ToUpper(head)

	var rest string
	if len(fields) > 1 {
		rest = fields[1]
	}
	for _, part := range strings.Split(rest, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		op, perr := parseOperand(part)
		if perr != nil {
			return "", 0, nil, perr
		}
		operands = append(operands, op)
	}
	return mnemonic, w, operands, nil
}

var arithMnemonics = map[string]vm.ArithOp{
	"ADD": vm.ArithAdd, "SUB": vm.ArithSub, "MUL": vm.ArithMul, "DIV": vm.ArithDiv,
	"ADC": vm.ArithAdc, "SBB": vm.ArithSbb, "IMUL": vm.ArithImul, "IDIV": vm.ArithIdiv,
}
var logicMnemonics = map[string]vm.LogicOp{
	"AND": vm.LogicAnd, "OR": vm.LogicOr, "XOR": vm.LogicXor,
}
var shiftMnemonics = map[string]vm.ShiftOp{
	"SHL": vm.ShiftShl, "SHR": vm.ShiftShr, "SAL": vm.ShiftSal,
	"SAR": vm.ShiftSar, "ROL": vm.ShiftRol, "ROR": vm.ShiftRor,
}
var unaryMnemonics = map[string]vm.UnaryOp{
	"NEG": vm.UnaryNeg, "NOT": vm.UnaryNot, "INC": vm.UnaryInc, "DEC": vm.UnaryDec,
}
func isIn[V any](mnemonic string, table map[string]V) bool {
	_, ok := table[mnemonic]
	return ok
}

var jccMnemonics = map[string]bool{
	"JE": true, "JNE": true, "JG": true, "JGE": true, "JL": true, "JLE": true,
	"JSG": true, "JSGE": true, "JSL": true, "JSLE": true,
}

// instrLength reports how many bytes mnemonic/width/operands occupy,
// independent of any label's resolved value.
func instrLength(mnemonic string, w vm.Width, ops []Operand) (int, error) {
	b, err := buildOpcode(mnemonic, w, ops, nil)
	if err != nil {
		return 0, err
	}
	return len(b), nil
}

func firstWord(text string) string {
	return strings.ToUpper(strings.SplitN(text, " ", 2)[0])
}

func (a *Assembler) sizeOf(text string, lineNum int) (uint32, error) {
	if d, ok := directiveSize(firstWord(text), text); ok {
		return d, nil
	}
	mnemonic, w, ops, err := parseLine(text)
	if err != nil {
		return 0, fmt.Errorf("line %d: %w", lineNum, err)
	}
	n, err := instrLength(mnemonic, w, ops)
	if err != nil {
		return 0, fmt.Errorf("line %d: %w", lineNum, err)
	}
	return uint32(n), nil
}

func (a *Assembler) encode(text string, lineNum int) ([]byte, error) {
	if b, ok, err := a.directiveBytes(firstWord(text), text, lineNum); ok {
		return b, err
	}
	mnemonic, w, ops, err := parseLine(text)
	if err != nil {
		return nil, fmt.Errorf("line %d: %w", lineNum, err)
	}
	b, err := buildOpcode(mnemonic, w, ops, func(op Operand) (uint32, error) {
		return a.resolve(op, lineNum)
	})
	if err != nil {
		return nil, fmt.Errorf("line %d: %w", lineNum, err)
	}
	return b, nil
}

// resolveFn resolves a label operand to its address during pass 2; it
// is nil during pass 1, where only instruction length matters and
// label-valued operands are treated as zero-filled placeholders of the
// correct width.
type resolveFn func(Operand) (uint32, error)

func le(v uint32, n int) []byte {
	b := make([]byte, n)
	for i := 0; i < n; i++ {
		b[i] = byte(v >> (8 * uint(i)))
	}
	return b
}

func valueOf(op Operand, resolve resolveFn) (uint32, error) {
	if resolve == nil {
		return 0, nil
	}
	return resolve(op)
}

// buildOpcode assembles the full instruction (opcode byte + operand
// bytes) for one line. When resolve is nil (pass 1, length-only), label
// operands resolve to 0 — the resulting byte slice's length is what
// pass 1 needs and is identical regardless of the label's real value.
func buildOpcode(mnemonic string, w vm.Width, ops []Operand, resolve resolveFn) ([]byte, error) {
	switch {
	case mnemonic == "MOV":
		if len(ops) != 2 {
			return nil, fmt.Errorf("MOV needs 2 operands")
		}
		dst, src := ops[0], ops[1]
		op := vm.MovOpcode(dst.Mode, src.Mode, w)
		out := []byte{op}
		out = append(out, operandEncoding(dst, w, resolve)...)
		out = append(out, operandEncoding(src, w, resolve)...)
		return out, nil

	case isIn(mnemonic, arithMnemonics):
		aop := arithMnemonics[mnemonic]
		return encodeAluLike(vm.ArithOpcode(aop, mustSrcMode(ops), w), ops, w, resolve)

	case isIn(mnemonic, logicMnemonics):
		lop := logicMnemonics[mnemonic]
		return encodeAluLike(vm.LogicOpcode(lop, mustSrcMode(ops), w), ops, w, resolve)

	case mnemonic == "CMP":
		return encodeAluLike(vm.CmpOpcode(mustSrcMode(ops), w), ops, w, resolve)

	case isIn(mnemonic, shiftMnemonics):
		sop := shiftMnemonics[mnemonic]
		if len(ops) != 1 {
			return nil, fmt.Errorf("%s needs 1 operand", mnemonic)
		}
		op := vm.ShiftOpcode(sop, ops[0].Mode, w)
		out := append([]byte{op}, operandEncoding(ops[0], vm.WidthByte, resolve)...)
		return out, nil

	case isIn(mnemonic, unaryMnemonics):
		uop := unaryMnemonics[mnemonic]
		if len(ops) != 1 || ops[0].Mode != vm.AddrReg {
			return nil, fmt.Errorf("%s needs 1 register operand", mnemonic)
		}
		return []byte{vm.UnaryOpcode(uop, w), ops[0].Reg}, nil

	case mnemonic == "PUSH":
		if len(ops) != 1 {
			return nil, fmt.Errorf("PUSH needs 1 operand")
		}
		op := vm.PushOpcode(ops[0].Mode, w)
		return append([]byte{op}, operandEncoding(ops[0], w, resolve)...), nil

	case mnemonic == "POP":
		if len(ops) != 1 || ops[0].Mode != vm.AddrReg {
			return nil, fmt.Errorf("POP needs 1 register operand")
		}
		return []byte{vm.PopOpcode(vm.AddrReg, w), ops[0].Reg}, nil

	case jccMnemonics[mnemonic]:
		if len(ops) != 1 {
			return nil, fmt.Errorf("%s needs 1 target operand", mnemonic)
		}
		op, ok := vm.OpcodeByName(mnemonic)
		if !ok {
			return nil, fmt.Errorf("opcode %q is not registered", mnemonic)
		}
		target, err := valueOf(ops[0], resolve)
		if err != nil {
			return nil, err
		}
		return append([]byte{op}, le(target, 4)...), nil

	case mnemonic == "JMP":
		if len(ops) != 1 {
			return nil, fmt.Errorf("JMP needs 1 operand")
		}
		if ops[0].Mode == vm.AddrReg {
			return []byte{vm.OpJmpReg, ops[0].Reg}, nil
		}
		target, err := valueOf(ops[0], resolve)
		if err != nil {
			return nil, err
		}
		return append([]byte{vm.OpJmpAbs}, le(target, 4)...), nil

	case mnemonic == "CALL":
		if len(ops) != 1 {
			return nil, fmt.Errorf("CALL needs 1 operand")
		}
		target, err := valueOf(ops[0], resolve)
		if err != nil {
			return nil, err
		}
		return append([]byte{vm.OpCall}, le(target, 4)...), nil

	case mnemonic == "RET":
		return []byte{vm.OpRet}, nil
	case mnemonic == "HLT":
		return []byte{vm.OpHLT}, nil
	case mnemonic == "NOP":
		return []byte{vm.OpNOP}, nil
	case mnemonic == "CLC":
		return []byte{vm.OpCLC}, nil
	case mnemonic == "IRET":
		return []byte{vm.OpIret}, nil

	case mnemonic == "INT":
		if len(ops) != 1 {
			return nil, fmt.Errorf("INT needs 1 operand")
		}
		v, err := valueOf(ops[0], resolve)
		if err != nil {
			return nil, err
		}
		return []byte{vm.OpInt, byte(v)}, nil

	case mnemonic == "SYS":
		if len(ops) != 1 {
			return nil, fmt.Errorf("SYS needs 1 operand")
		}
		v, err := valueOf(ops[0], resolve)
		if err != nil {
			return nil, err
		}
		return []byte{vm.OpSYS, byte(v)}, nil

	case mnemonic == "IN":
		if len(ops) != 2 || ops[1].Mode != vm.AddrReg {
			return nil, fmt.Errorf("IN needs port, register")
		}
		port, err := valueOf(ops[0], resolve)
		if err != nil {
			return nil, err
		}
		return []byte{vm.InOpcode(w), byte(port), ops[1].Reg}, nil

	case mnemonic == "OUT":
		if len(ops) != 2 {
			return nil, fmt.Errorf("OUT needs port, src")
		}
		port, err := valueOf(ops[0], resolve)
		if err != nil {
			return nil, err
		}
		op := vm.OutOpcode(ops[1].Mode, w)
		return append([]byte{op, byte(port)}, operandEncoding(ops[1], w, resolve)...), nil
	}
	return nil, fmt.Errorf("unknown mnemonic %q", mnemonic)
}

// encodeAluLike emits the Arith/Logic/Cmp family's shared shape: an
// opcode byte already selected for the operand's mode and width,
// followed by the operand's own bytes. A is always the implicit LHS.
func encodeAluLike(opcode byte, ops []Operand, w vm.Width, resolve resolveFn) ([]byte, error) {
	if len(ops) != 1 {
		return nil, fmt.Errorf("expected exactly 1 operand, got %d", len(ops))
	}
	if ops[0].Mode != vm.AddrImm && ops[0].Mode != vm.AddrReg {
		return nil, fmt.Errorf("operand must be an immediate or register")
	}
	return append([]byte{opcode}, operandEncoding(ops[0], w, resolve)...), nil
}

func mustSrcMode(ops []Operand) vm.AddrMode {
	if len(ops) != 1 {
		return vm.AddrImm
	}
	return ops[0].Mode
}

// operandEncoding returns the bytes an already-chosen addressing mode
// contributes: a register index, an absolute/IP-relative 4-byte
// address, or a width-sized immediate. AddrMem is never produced by
// parseOperand (see DESIGN.md); only Imm/Reg/Abs/Indirect appear here.
func operandEncoding(op Operand, w vm.Width, resolve resolveFn) []byte {
	switch op.Mode {
	case vm.AddrImm:
		v, _ := valueOf(op, resolve)
		return le(v, int(w))
	case vm.AddrReg, vm.AddrIndirect:
		return []byte{op.Reg}
	case vm.AddrAbs:
		v, _ := valueOf(op, resolve)
		return le(v, 4)
	default:
		return nil
	}
}

func directiveSize(mnemonic, text string) (uint32, bool) {
	switch mnemonic {
	case ".BYTE":
		return 1, true
	case ".WORD":
		return 2, true
	case ".LONG":
		return 4, true
	case ".ASCII":
		start := strings.Index(text, "\"")
		end := strings.LastIndex(text, "\"")
		if start < 0 || end <= start {
			return 0, true
		}
		return uint32(len(text[start+1 : end])), true
	}
	return 0, false
}

func (a *Assembler) directiveBytes(mnemonic, text string, lineNum int) ([]byte, bool, error) {
	fields := strings.SplitN(text, " ", 2)
	var arg string
	if len(fields) > 1 {
		arg = strings.TrimSpace(fields[1])
	}
	switch mnemonic {
	case ".BYTE":
		v, err := a.resolveArg(arg, lineNum)
		if err != nil {
			return nil, true, err
		}
		return []byte{byte(v)}, true, nil
	case ".WORD":
		v, err := a.resolveArg(arg, lineNum)
		if err != nil {
			return nil, true, err
		}
		return le(v, 2), true, nil
	case ".LONG":
		v, err := a.resolveArg(arg, lineNum)
		if err != nil {
			return nil, true, err
		}
		return le(v, 4), true, nil
	case ".ASCII":
		start := strings.Index(text, "\"")
		end := strings.LastIndex(text, "\"")
		if start < 0 || end <= start {
			return nil, true, fmt.Errorf("line %d: malformed .ascii", lineNum)
		}
		return []byte(text[start+1 : end]), true, nil
	}
	return nil, false, nil
}

func (a *Assembler) resolveArg(s string, lineNum int) (uint32, error) {
	op, err := parseOperand(s)
	if err != nil {
		return 0, fmt.Errorf("line %d: %w", lineNum, err)
	}
	return a.resolve(op, lineNum)
}
