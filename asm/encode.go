package asm

// encode.go implements the six fixed-layout instruction encoders described
// in spec.md section 4.4, dispatched by family tag the way the teacher's
// asm.go dispatches generateCode by addressing mode.

// operandMode names the operand-shape-driven addressing mode for the
// 3std family.
type operandMode byte

const (
	mode3addr     operandMode = 0x00 // Rd, Rs1, Rs2
	mode2addr     operandMode = 0x01 // Rd, Rs  (or single-operand bit-manip)
	modeImmediate operandMode = 0x02 // Rd, #imm
	modeIndirect  operandMode = 0x03 // Rd, [MAR]   (MOV only)
)

// encodeThreeStd encodes a 3std instruction: four bytes,
// [opcode] [mode:2|dst:4|pad:2] [srcA:4|srcB:4] [pad 0x00]. The branch
// structure mirrors the reference encode_3std function: MOV's
// memory-indirect form and the fixed bit-manip set are special-cased
// first, then operand count alone picks 3-address / 2-address /
// single-operand shape.
func encodeThreeStd(file string, line int, mnemonic string, opcode byte, operands []string, syms *SymbolTable) ([]byte, error) {
	if mnemonic == "MOV" && len(operands) == 2 && isIndirectMAR(operands[1]) {
		rd, err := parseRegister(file, line, operands[0])
		if err != nil {
			return nil, err
		}
		byte2 := byte(modeIndirect)<<6 | byte(rd)<<2
		return []byte{opcode, byte2, 0x00, 0x00}, nil
	}

	if bitManipOps[mnemonic] {
		if len(operands) != 1 {
			return nil, errAt(file, line, kindOperandCount, "%s takes exactly one register operand", mnemonic)
		}
		rd, err := parseRegister(file, line, operands[0])
		if err != nil {
			return nil, err
		}
		byte2 := byte(mode2addr)<<6 | byte(rd)<<2
		byte3 := byte(rd) << 4
		return []byte{opcode, byte2, byte3, 0x00}, nil
	}

	switch len(operands) {
	case 3:
		rd, err := parseRegister(file, line, operands[0])
		if err != nil {
			return nil, err
		}
		rs1, err := parseRegister(file, line, operands[1])
		if err != nil {
			return nil, err
		}
		rs2, err := parseRegister(file, line, operands[2])
		if err != nil {
			return nil, err
		}
		byte2 := byte(mode3addr)<<6 | byte(rd)<<2
		byte3 := byte(rs1)<<4 | byte(rs2)
		return []byte{opcode, byte2, byte3, 0x00}, nil

	case 2:
		rd, err := parseRegister(file, line, operands[0])
		if err != nil {
			return nil, err
		}
		second := operands[1]

		if isRegisterOperand(second) {
			rs, err := parseRegister(file, line, second)
			if err != nil {
				return nil, err
			}
			byte2 := byte(mode2addr)<<6 | byte(rd)<<2
			byte3 := byte(rd)<<4 | byte(rs)
			return []byte{opcode, byte2, byte3, 0x00}, nil
		}

		imm, err := evalImmediate(file, line, second, syms)
		if err != nil {
			return nil, err
		}
		byte2 := byte(modeImmediate)<<6 | byte(rd)<<2
		return []byte{opcode, byte2, byte(imm & 0xFF), 0x00}, nil

	case 1:
		// A bare single-operand form for a non-bit-manip mnemonic
		// (e.g. "CMP Rd"): mode 01, source and destination both Rd.
		rd, err := parseRegister(file, line, operands[0])
		if err != nil {
			return nil, err
		}
		byte2 := byte(mode2addr)<<6 | byte(rd)<<2
		byte3 := byte(rd)<<4 | byte(rd)
		return []byte{opcode, byte2, byte3, 0x00}, nil

	default:
		return nil, errAt(file, line, kindOperandCount, "%s: unexpected operand count (%d)", mnemonic, len(operands))
	}
}

// encodeTwoReg encodes a 2reg instruction: [opcode] [Rn << 2].
func encodeTwoReg(file string, line int, mnemonic string, opcode byte, operands []string) ([]byte, error) {
	if len(operands) != 1 {
		return nil, errAt(file, line, kindOperandCount, "%s takes exactly one register operand", mnemonic)
	}
	rn, err := parseRegister(file, line, operands[0])
	if err != nil {
		return nil, err
	}
	return []byte{opcode, byte(rn) << 2}, nil
}

// encodeTwoNoReg encodes a 2noreg instruction: [opcode] [0x00].
func encodeTwoNoReg(file string, line int, mnemonic string, opcode byte, operands []string) ([]byte, error) {
	if len(operands) != 0 {
		return nil, errAt(file, line, kindOperandCount, "%s takes no operands", mnemonic)
	}
	return []byte{opcode, 0x00}, nil
}

// encodeLMAR encodes the lmar family: [opcode] [addr_hi] [addr_lo].
func encodeLMAR(file string, line int, mnemonic string, opcode byte, operands []string, syms *SymbolTable) ([]byte, error) {
	if len(operands) != 1 {
		return nil, errAt(file, line, kindOperandCount, "%s takes exactly one address operand", mnemonic)
	}
	addr, err := EvalExpr(operands[0], file, line, syms)
	if err != nil {
		return nil, err
	}
	if addr < 0 || addr > 0xFFFF {
		return nil, errAt(file, line, kindAddressRange, "address %d out of range for %s", addr, mnemonic)
	}
	return []byte{opcode, byte((addr >> 8) & 0xFF), byte(addr & 0xFF)}, nil
}

// encodeCmp4 encodes the cmp4 family (ALE, SLE, SJN):
// [opcode] [Rs1<<4|Rs2] [Rd<<4] [Rjmp<<4].
func encodeCmp4(file string, line int, mnemonic string, opcode byte, operands []string) ([]byte, error) {
	if len(operands) != 4 {
		return nil, errAt(file, line, kindOperandCount, "%s takes exactly four register operands", mnemonic)
	}
	regs := make([]int, 4)
	for i, o := range operands {
		r, err := parseRegister(file, line, o)
		if err != nil {
			return nil, err
		}
		regs[i] = r
	}
	rs1, rs2, rd, rjmp := regs[0], regs[1], regs[2], regs[3]
	return []byte{
		opcode,
		byte(rs1)<<4 | byte(rs2),
		byte(rd) << 4,
		byte(rjmp) << 4,
	}, nil
}

// encodeDjn4 encodes the djn4 family (DJN Rs, Rjmp):
// [opcode] [Rs<<4] [Rs<<4] [Rjmp<<4].
func encodeDjn4(file string, line int, mnemonic string, opcode byte, operands []string) ([]byte, error) {
	if len(operands) != 2 {
		return nil, errAt(file, line, kindOperandCount, "%s takes exactly two register operands", mnemonic)
	}
	rs, err := parseRegister(file, line, operands[0])
	if err != nil {
		return nil, err
	}
	rjmp, err := parseRegister(file, line, operands[1])
	if err != nil {
		return nil, err
	}
	return []byte{opcode, byte(rs) << 4, byte(rs) << 4, byte(rjmp) << 4}, nil
}

// encodeInstruction dispatches to the family encoder for mnemonic.
func encodeInstruction(file string, line int, mnemonic string, operands []string, syms *SymbolTable) ([]byte, error) {
	entry, ok := lookupOpcode(mnemonic)
	if !ok {
		return nil, errAt(file, line, kindUnknownMnemonic, "unknown mnemonic %q", mnemonic)
	}
	switch entry.fam {
	case family3std:
		return encodeThreeStd(file, line, mnemonic, entry.opcode, operands, syms)
	case family2reg:
		return encodeTwoReg(file, line, mnemonic, entry.opcode, operands)
	case family2noreg:
		return encodeTwoNoReg(file, line, mnemonic, entry.opcode, operands)
	case familyLMAR:
		return encodeLMAR(file, line, mnemonic, entry.opcode, operands, syms)
	case familyCmp4:
		return encodeCmp4(file, line, mnemonic, entry.opcode, operands)
	case familyDjn4:
		return encodeDjn4(file, line, mnemonic, entry.opcode, operands)
	default:
		return nil, errAt(file, line, kindUnknownMnemonic, "unhandled encoding family for %q", mnemonic)
	}
}

// isIndirectMAR reports whether an operand is the literal "[MAR]" form,
// ignoring surrounding whitespace and case.
func isIndirectMAR(s string) bool {
	t := trimSpaceASCII(s)
	if len(t) != 5 {
		return false
	}
	if t[0] != '[' || t[4] != ']' {
		return false
	}
	return (t[1] == 'M' || t[1] == 'm') && (t[2] == 'A' || t[2] == 'a') && (t[3] == 'R' || t[3] == 'r')
}

// evalImmediate evaluates an immediate operand, stripping an optional
// leading '#'.
func evalImmediate(file string, line int, s string, syms *SymbolTable) (int, error) {
	t := trimSpaceASCII(s)
	if len(t) > 0 && t[0] == '#' {
		t = t[1:]
	}
	return EvalExpr(t, file, line, syms)
}

// instructionSize returns the static byte-count Pass 1 uses for an
// instruction mnemonic, per spec.md section 4.3's sizing table (corrected
// for the 3std 4-byte layout; see DESIGN.md).
func instructionSize(mnemonic string) (int, bool) {
	entry, ok := lookupOpcode(mnemonic)
	if !ok {
		return 0, false
	}
	switch entry.fam {
	case family3std:
		return 4, true
	case family2reg, family2noreg:
		return 2, true
	case familyLMAR:
		return 3, true
	case familyCmp4, familyDjn4:
		return 4, true
	default:
		return 0, false
	}
}
