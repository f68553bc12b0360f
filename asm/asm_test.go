package asm

import (
	"fmt"
	"strings"
	"testing"
)

// assembleString runs the full pipeline against an in-memory source,
// the same role the teacher's assemble() helper gives bytes.NewReader:
// exercising Assemble's stages without touching the filesystem.
func assembleString(code string, predefines map[string]interface{}) (*Result, error) {
	files := map[string]string{"test.tme": code}
	read := func(path string) (string, error) {
		s, ok := files[path]
		if !ok {
			return "", fmt.Errorf("no such file %q", path)
		}
		return s, nil
	}
	lines, syms, ppWarnings, err := preprocessWith(read, "test.tme", predefines)
	if err != nil {
		return nil, err
	}
	p1, err := RunPass1(lines, syms)
	if err != nil {
		return nil, err
	}
	res, err := RunPass2(p1, syms)
	if err != nil {
		return nil, err
	}
	res.Warnings = append(ppWarnings, res.Warnings...)
	return res, nil
}

// checkImage asserts that assembling code produces exactly expectedHex
// (space-separated upper-case byte pairs, as rendered by byteString) as
// its flat image. Only suitable for sources whose highest written
// address is small, since the image is zero-padded from 0.
func checkImage(t *testing.T, code string, expectedHex string) {
	t.Helper()
	res, err := assembleString(code, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	img := BuildImage(res.Memory)
	if got := byteString(img); got != expectedHex {
		t.Errorf("image doesn't match expected\n got: %s\n exp: %s", got, expectedHex)
	}
}

func checkError(t *testing.T, code string, wantKind string) {
	t.Helper()
	_, err := assembleString(code, nil)
	if err == nil {
		t.Fatalf("expected error on %q, got none", code)
	}
	ae, ok := err.(*AsmError)
	if !ok {
		t.Fatalf("expected *AsmError, got %T: %v", err, err)
	}
	if ae.Kind != wantKind {
		t.Errorf("expected error kind %s, got %s (%v)", wantKind, ae.Kind, err)
	}
}

func TestThreeAddress(t *testing.T) {
	checkImage(t, ".org 0\nADD R1, R2, R3", "00 04 23 00")
}

func TestTwoAddressRegister(t *testing.T) {
	checkImage(t, ".org 0\nADD R5, R6", "00 54 56 00")
}

func TestTwoAddressImmediate(t *testing.T) {
	checkImage(t, ".org 0\nADD R2, #0x11", "00 88 11 00")
}

func TestTwoReg(t *testing.T) {
	checkImage(t, ".org 0\nJMP R15", "26 3C")
}

func TestLMAR(t *testing.T) {
	checkImage(t, ".org 0\nLMAR 0x1234", "2E 12 34")
}

func TestDjn4(t *testing.T) {
	checkImage(t, ".org 0\nDJN R1, R5", "35 10 10 50")
}

func TestCmp4Family(t *testing.T) {
	checkImage(t, ".org 0\nALE R1, R2, R3, R4", "34 12 30 40")
}

func TestBitManipSingleOperand(t *testing.T) {
	// INV R3: mode2addr, dst=3, srcA=3, srcB=0 -> byte2 = 01<<6 | 3<<2 = 0x4C, byte3 = 3<<4 = 0x30
	checkImage(t, ".org 0\nINV R3", "12 4C 30 00")
}

func TestMovIndirectMAR(t *testing.T) {
	// MOV R3, [MAR]: mode=11, dst=3 -> byte2 = 11<<6 | 3<<2 = 0xCC, byte3 = 0x00
	checkImage(t, ".org 0\nMOV R3, [MAR]", "2D CC 00 00")
}

func TestForwardLabelThroughLMAR(t *testing.T) {
	// LMAR target (3 bytes @0) ; RET (2 bytes @3) ; target: ADD R1,#0 (4 bytes @5)
	checkImage(t, ".org 0\nLMAR target\nRET\ntarget: ADD R1,#0",
		"2E 00 05 3E 00 00 84 00 00")
}

func TestByteDirective(t *testing.T) {
	checkImage(t, ".org 0\n.byte 1, 2, 0xFF", "01 02 FF")
}

func TestWordDirectiveLittleEndian(t *testing.T) {
	checkImage(t, ".org 0\n.word 0x1234", "34 12")
}

func TestConstantAssignmentSugar(t *testing.T) {
	checkImage(t, "COUNT = 7\n.org 0\nADD R1, #COUNT", "00 84 07 00")
}

func TestMacroExpansion(t *testing.T) {
	src := strings.Join([]string{
		".macro DOUBLEADD \\r, \\v",
		"ADD \\r, #\\v",
		"ADD \\r, #\\v",
		".endm",
		".org 0",
		"DOUBLEADD R1, 2",
	}, "\n")
	checkImage(t, src, "00 84 02 00 00 84 02 00")
}

func TestLoadaddrExpansion(t *testing.T) {
	// XOR R1,R1,R1 ; ADD R1,#lo(0x10) ; __LOADADDR_HI__ R1,0x10 (0 bytes, no warning since <= 0xFF)
	checkImage(t, ".org 0\nLOADADDR R1, 0x10", "08 04 11 00 00 84 10 00")
}

func TestResetVecImageSize(t *testing.T) {
	res, err := assembleString(".resetvec 0x0200\n", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	img := BuildImage(res.Memory)
	if len(img) != 65534 {
		t.Fatalf("expected 65534-byte image, got %d", len(img))
	}
	if img[0xFFFC] != 0x00 || img[0xFFFD] != 0x02 {
		t.Errorf("reset vector bytes wrong: %02X %02X", img[0xFFFC], img[0xFFFD])
	}
	for i, b := range img {
		if i == 0xFFFC || i == 0xFFFD {
			continue
		}
		if b != 0 {
			t.Fatalf("expected zero at %d, got %02X", i, b)
		}
	}
}

func TestResetVecDoesNotAdvanceLC(t *testing.T) {
	res, err := assembleString(".org 0\n.resetvec 0x0200\nADD R1,#1", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := map[int]byte{0: 0x00, 1: 0x84, 2: 0x01, 3: 0x00, 0xFFFC: 0x00, 0xFFFD: 0x02}
	for addr, b := range want {
		if res.Memory[addr] != b {
			t.Errorf("memory[%#x] = %#02x, want %#02x", addr, res.Memory[addr], b)
		}
	}
	if len(res.Memory) != len(want) {
		t.Errorf("expected exactly %d written addresses, got %d", len(want), len(res.Memory))
	}
}

func TestNoResetVecWrittenWithoutDirective(t *testing.T) {
	res, err := assembleString(".org 0\nADD R1,#1", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_, hasLo := res.Memory[0xFFFC]
	_, hasHi := res.Memory[0xFFFD]
	if hasLo || hasHi {
		t.Fatalf("expected no reset vector bytes written")
	}
}

func TestUnknownMnemonic(t *testing.T) {
	checkError(t, "FROB R1", kindUnknownMnemonic)
}

func TestDuplicateLabel(t *testing.T) {
	checkError(t, "foo: ADD R1,#1\nfoo: ADD R2,#2", kindDuplicateLabel)
}

func TestUndefinedSymbol(t *testing.T) {
	checkError(t, "ADD R1, #missing", kindUndefinedSymbol)
}

func TestPredefineOverridesEqu(t *testing.T) {
	res, err := assembleString(".org 0\n.equ LIMIT, 5\nADD R1, #LIMIT", map[string]interface{}{"LIMIT": 9})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Memory[2] != 9 {
		t.Errorf("expected predefine 9 to win, got %d", res.Memory[2])
	}
}

func TestLabelCannotShadowPredefine(t *testing.T) {
	_, err := assembleString("LIMIT: ADD R1,#1", map[string]interface{}{"LIMIT": 3})
	if err == nil {
		t.Fatal("expected label-shadows-predefine error")
	}
	ae, ok := err.(*AsmError)
	if !ok || ae.Kind != kindLabelShadowsPredef {
		t.Errorf("got %v, want kind %s", err, kindLabelShadowsPredef)
	}
}

func TestByteOutOfRange(t *testing.T) {
	checkError(t, ".byte 300", kindValueRange)
}

func TestRegisterOutOfRange(t *testing.T) {
	checkError(t, "ADD R20, R1, R2", kindRegisterRange)
}

func TestMacroArityMismatch(t *testing.T) {
	src := strings.Join([]string{
		".macro ADDTWO \\r, \\v",
		"ADD \\r, #\\v",
		".endm",
		"ADDTWO R1",
	}, "\n")
	checkError(t, src, kindMacroArity)
}

func TestStrayEndm(t *testing.T) {
	checkError(t, ".endm", kindStrayEndm)
}

func TestUnterminatedMacro(t *testing.T) {
	src := strings.Join([]string{
		".macro FOO \\r",
		"ADD \\r, #1",
	}, "\n")
	checkError(t, src, kindUnterminatedMacro)
}

func TestNestedMacroRejected(t *testing.T) {
	src := strings.Join([]string{
		".macro OUTER \\r",
		".macro INNER \\r",
		"ADD \\r, #1",
		".endm",
		".endm",
	}, "\n")
	checkError(t, src, kindNestedMacro)
}
