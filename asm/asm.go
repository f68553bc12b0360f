package asm

// Package-level orchestration tying the pipeline stages together,
// grounded on the teacher's assembler.Assemble() staged pipeline in
// asm.go (there: parse -> evaluateExpressions -> assignAddresses ->
// resolveLabels -> evaluateExpressions -> generateCode; here:
// Preprocess -> RunPass1 -> RunPass2; BuildImage is left to the caller).

// Options configures one assembly run.
type Options struct {
	// Predefines seeds the symbol table before preprocessing begins.
	// Values are int (frozen integer predefine) or string (frozen raw
	// text, evaluated lazily at each reference; see symtab.go).
	Predefines map[string]interface{}

	// NoResetVecWarning suppresses the "no reset vector defined"
	// warning when the source never emits a .resetvec.
	NoResetVecWarning bool
}

// Assemble runs the full pipeline against the named source file and
// everything it includes, returning the encoded memory image, any
// warnings, and the listing.
func Assemble(path string, opts Options) (*Result, error) {
	lines, syms, ppWarnings, err := Preprocess(path, opts.Predefines)
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
	_, hasLo := res.Memory[0xFFFC]
	_, hasHi := res.Memory[0xFFFD]
	if (!hasLo || !hasHi) && !opts.NoResetVecWarning {
		res.Warnings = append(res.Warnings, Warning{
			Msg: "no reset vector defined at 0xFFFC/0xFFFD; use .resetvec <addr> or write to 0xFFFC/0xFFFD explicitly",
		})
	}
	return res, nil
}
