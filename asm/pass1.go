package asm

// pass1.go walks the preprocessed line stream once, binding labels and
// computing a static per-line address, mirroring the teacher's
// assignAddresses stage in asm.go (there: walk segments summing
// instruction/data lengths; here: walk sourceLines summing family/
// directive sizes).

// located pairs a source line with the address Pass 1 assigned it.
type located struct {
	line sourceLine
	addr int
}

// pass1Result is what Pass 1 hands to Pass 2: the located line stream.
// The symbol table is updated in place (labels bound, eagerly-resolvable
// .equ's bound, everything else deferred) and passed to Pass 2 separately.
type pass1Result struct {
	located []located
}

// RunPass1 walks lines, binding labels to the location counter and
// recording each line's address (pure-label lines included). Directive/instruction
// byte sizes are computed statically per spec.md section 4.3 --- never by
// encoding, since operands may still be unresolvable.
func RunPass1(lines []sourceLine, syms *SymbolTable) (*pass1Result, error) {
	lc := 0
	var out []located

	for _, sl := range lines {
		if sl.Label != "" {
			if err := syms.DefineLabel(sl.File, sl.Line, sl.Label, lc); err != nil {
				return nil, err
			}
		}
		if sl.Mnemonic == "" {
			// A pure-label (or blank) line still carries an address for
			// the listing, the same way .org/.equ do below.
			out = append(out, located{line: sl, addr: lc})
			continue
		}

		switch sl.Mnemonic {
		case ".ORG":
			if len(sl.Operands) != 1 {
				return nil, errAt(sl.File, sl.Line, kindOperandCount, ".org takes exactly one operand")
			}
			if v, err := EvalExpr(sl.Operands[0], sl.File, sl.Line, syms); err == nil {
				lc = v & 0xFFFF
			}
			// Forward-reference failures are accepted silently here;
			// Pass 2 re-evaluates and raises the error if it persists.
			out = append(out, located{line: sl, addr: lc})
			continue

		case ".EQU":
			if len(sl.Operands) == 2 {
				name := trimSpaceASCII(sl.Operands[0])
				if v, err := EvalExpr(sl.Operands[1], sl.File, sl.Line, syms); err == nil {
					if err := syms.DefineEqu(sl.File, sl.Line, name, v); err != nil {
						return nil, err
					}
				}
			}
			out = append(out, located{line: sl, addr: lc})
			continue
		}

		size := 0
		if isDirective(sl.Mnemonic) {
			size = directiveSize(sl)
		} else if n, ok := instructionSize(sl.Mnemonic); ok {
			size = n
		}
		// Unknown mnemonics contribute 0 bytes in Pass 1; Pass 2 raises
		// UnknownMnemonic.

		out = append(out, located{line: sl, addr: lc})
		lc += size
	}

	return &pass1Result{located: out}, nil
}
