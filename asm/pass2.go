package asm

// pass2.go re-resolves deferred `.equ`s and then encodes every located
// line into the sparse memory map, mirroring the teacher's generateCode
// stage (there: per-segment byte emission into a flat buffer; here:
// per-line byte emission into a sparse address->byte map, since `.org`
// may jump anywhere in a 64K space).

// Result is the outcome of assembling one translation unit.
type Result struct {
	Memory       map[int]byte
	HasResetVec  bool
	ResetVecAddr int
	Listing      *Listing
	Warnings     []Warning
}

// RunPass2 re-evaluates deferred `.equ`s in source order, then dispatches
// every located line to its directive handler or instruction encoder.
func RunPass2(p1 *pass1Result, syms *SymbolTable) (*Result, error) {
	// Re-resolve any .equ that Pass 1 couldn't evaluate yet (forward
	// reference to a label bound later in the same pass).
	for _, l := range p1.located {
		if l.line.Mnemonic != ".EQU" || len(l.line.Operands) != 2 {
			continue
		}
		name := trimSpaceASCII(l.line.Operands[0])
		if syms.IsPredefined(name) {
			continue
		}
		if _, exists := syms.values[name]; exists {
			continue
		}
		v, err := EvalExpr(l.line.Operands[1], l.line.File, l.line.Line, syms)
		if err != nil {
			return nil, err
		}
		if err := syms.DefineEqu(l.line.File, l.line.Line, name, v); err != nil {
			return nil, err
		}
	}

	res := &Result{Memory: make(map[int]byte), Listing: newListing()}

	for _, l := range p1.located {
		sl := l.line
		lc := l.addr

		switch sl.Mnemonic {
		case "":
			continue

		case ".ORG":
			v, err := EvalExpr(sl.Operands[0], sl.File, sl.Line, syms)
			if err != nil {
				return nil, err
			}
			_ = v
			continue

		case ".EQU":
			continue
		}

		if isDirective(sl.Mnemonic) {
			dr, err := encodeDirective(sl, syms)
			if err != nil {
				return nil, err
			}
			if dr.warning != "" {
				res.Warnings = append(res.Warnings, Warning{File: sl.File, Line: sl.Line, Msg: dr.warning})
			}
			if dr.hasResetVec {
				res.HasResetVec = true
				res.ResetVecAddr = dr.resetVecAddr
				res.Memory[0xFFFC] = byte(dr.resetVecAddr & 0xFF)
				res.Memory[0xFFFD] = byte((dr.resetVecAddr >> 8) & 0xFF)
				continue
			}
			writeBytes(res.Memory, lc, dr.bytes)
			if len(dr.bytes) > 0 {
				res.Listing.add(sl.File, sl.Line, lc, dr.bytes)
			}
			continue
		}

		bytes, err := encodeInstruction(sl.File, sl.Line, sl.Mnemonic, sl.Operands, syms)
		if err != nil {
			return nil, err
		}
		writeBytes(res.Memory, lc, bytes)
		res.Listing.add(sl.File, sl.Line, lc, bytes)
	}

	return res, nil
}

func writeBytes(mem map[int]byte, addr int, bytes []byte) {
	for i, b := range bytes {
		mem[addr+i] = b
	}
}
