package asm

// isa.go is the static mnemonic -> (opcode, family) table, ported
// directly from the reference implementation's OPCODES dict (see
// original_source/tools/tmept_asm.py) and regrouped around the six
// family constants the way the teacher's cpu/instructions.go groups
// 6502 opcodes around addressing Mode.
type family byte

const (
	family3std family = iota
	family2reg
	family2noreg
	familyLMAR
	familyCmp4
	familyDjn4
)

// opcodeEntry is one row of the static mnemonic -> (opcode, family) table.
type opcodeEntry struct {
	opcode byte
	fam    family
}

// opcodes is the full static mnemonic -> (opcode, family) table. Values
// match the reference OPCODES dict byte-for-byte, including its
// non-contiguous branch-opcode block (JNE/JGE/JLE sit at 0x38-0x3A, well
// past the rest of the branch family) and its stack-opcode block
// (PUSH/POP/CALL at 0x3B-0x3D) -- spec.md section 4.4 explicitly makes no
// promise of packing by family.
var opcodes = map[string]opcodeEntry{
	// Arithmetic / logic
	"ADD": {0x00, family3std},
	"ADC": {0x01, family3std},
	"SUB": {0x02, family3std},
	"SBC": {0x03, family3std},
	"AND": {0x04, family3std},
	"OR":  {0x05, family3std},
	"NOR": {0x06, family3std},
	"NAD": {0x07, family3std},
	"XOR": {0x08, family3std},
	"CMP": {0x09, family3std},
	// Shift / rotate
	"ROL": {0x0A, family3std},
	"SOL": {0x0B, family3std},
	"SZL": {0x0C, family3std},
	"RIL": {0x0D, family3std},
	"ROR": {0x0E, family3std},
	"SOR": {0x0F, family3std},
	"SZR": {0x10, family3std},
	"RIR": {0x11, family3std},
	// Bit manipulation (single-operand: dst = f(dst))
	"INV": {0x12, family3std},
	"INH": {0x13, family3std},
	"INL": {0x14, family3std},
	"INE": {0x15, family3std},
	"INO": {0x16, family3std},
	"IEH": {0x17, family3std},
	"IOH": {0x18, family3std},
	"IEL": {0x19, family3std},
	"IOL": {0x1A, family3std},
	"IFB": {0x1B, family3std},
	"ILB": {0x1C, family3std},
	"REV": {0x1D, family3std},
	"RVL": {0x1E, family3std},
	"RVH": {0x1F, family3std},
	"RVE": {0x20, family3std},
	"RVO": {0x21, family3std},
	"RLE": {0x22, family3std},
	"RHE": {0x23, family3std},
	"RLO": {0x24, family3std},
	"RHO": {0x25, family3std},
	// Branches (register-indirect)
	"JMP": {0x26, family2reg},
	"JMZ": {0x27, family2reg},
	"JMN": {0x28, family2reg},
	"JMG": {0x29, family2reg},
	"JMO": {0x2A, family2reg},
	"JIE": {0x2B, family2reg},
	"JIO": {0x2C, family2reg},
	"JNE": {0x38, family2reg},
	"JGE": {0x39, family2reg},
	"JLE": {0x3A, family2reg},
	// Data movement
	"MOV":  {0x2D, family3std}, // also handles MOV Rd,[MAR]
	"LMAR": {0x2E, familyLMAR},
	"SMAR": {0x2F, family2reg},
	"LOAD": {0x30, family2reg},
	"STOR": {0x31, family2reg},
	"IMAR": {0x32, family2noreg},
	"DMAR": {0x33, family2noreg},
	// Compound
	"ALE": {0x34, familyCmp4},
	"DJN": {0x35, familyDjn4},
	"SLE": {0x36, familyCmp4},
	"SJN": {0x37, familyCmp4},
	// Stack
	"PUSH": {0x3B, family2reg},
	"POP":  {0x3C, family2reg},
	"CALL": {0x3D, family2reg},
	"RET":  {0x3E, family2noreg},
}

// bitManipOps is the fixed set of single-operand 3std mnemonics that
// operate in place on one register (mode 01, source == destination),
// ported verbatim from the reference SINGLE_OPERAND set.
var bitManipOps = map[string]bool{
	"INV": true, "INH": true, "INL": true, "INE": true, "INO": true,
	"IEH": true, "IOH": true, "IEL": true, "IOL": true, "IFB": true,
	"ILB": true, "REV": true, "RVL": true, "RVH": true, "RVE": true,
	"RVO": true, "RLE": true, "RHE": true, "RLO": true, "RHO": true,
}

// lookupOpcode returns the opcode byte and family for a mnemonic, or
// ok == false if the mnemonic is unknown.
func lookupOpcode(mnemonic string) (opcodeEntry, bool) {
	e, ok := opcodes[mnemonic]
	return e, ok
}

// parseRegister parses a register token of the form R<n> or r<n>,
// 0 <= n <= 15.
func parseRegister(file string, line int, s string) (int, error) {
	t := trimSpaceASCII(s)
	if len(t) < 2 || (t[0] != 'R' && t[0] != 'r') {
		return 0, errAt(file, line, kindOperandSyntax, "invalid register operand %q", s)
	}
	for i := 1; i < len(t); i++ {
		if !decimal(t[i]) {
			return 0, errAt(file, line, kindOperandSyntax, "invalid register operand %q", s)
		}
	}
	n := 0
	for i := 1; i < len(t); i++ {
		n = n*10 + int(t[i]-'0')
	}
	if n > 15 {
		return 0, errAt(file, line, kindRegisterRange, "register %q out of range (R0..R15)", s)
	}
	return n, nil
}

// isRegisterOperand reports whether s matches the register syntax [Rr]<digits>.
func isRegisterOperand(s string) bool {
	t := trimSpaceASCII(s)
	if len(t) < 2 || (t[0] != 'R' && t[0] != 'r') {
		return false
	}
	for i := 1; i < len(t); i++ {
		if !decimal(t[i]) {
			return false
		}
	}
	return true
}

func trimSpaceASCII(s string) string {
	i, j := 0, len(s)
	for i < j && whitespace(s[i]) {
		i++
	}
	for j > i && whitespace(s[j-1]) {
		j--
	}
	return s[i:j]
}
