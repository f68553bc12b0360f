package asm

import "strings"

// preprocessor carries the state that must survive across lines and
// across file boundaries: the macro table, the include stack, the
// symbol table being eagerly seeded, and (while inside a `.macro` body)
// the macro currently being captured. This mirrors the teacher's
// single assembler struct threading state through parse(); here the
// state is split out because TMEPT's preprocessing is its own stage
// ahead of Pass 1.
type preprocessor struct {
	read     fileReader
	macros   map[string]*macroDef
	syms     *SymbolTable
	stack    *includeStack
	warnings []Warning

	capturing *macroDef // non-nil while between .macro and .endm
}

// Preprocess reads path and every file it (transitively) includes,
// expands macros and built-ins, and returns the flat sequence of parsed
// source lines plus the symbol table seeded by eagerly-resolved .equ's
// and by predefines.
func Preprocess(path string, predefines map[string]interface{}) ([]sourceLine, *SymbolTable, []Warning, error) {
	return preprocessWith(osReadFile, path, predefines)
}

func preprocessWith(read fileReader, path string, predefines map[string]interface{}) ([]sourceLine, *SymbolTable, []Warning, error) {
	p := &preprocessor{
		read:   read,
		macros: make(map[string]*macroDef),
		syms:   NewSymbolTable(predefines),
		stack:  newIncludeStack(),
	}
	if err := p.stack.push("", 0, path); err != nil {
		return nil, nil, nil, err
	}
	lines, err := p.processFile(path)
	if err != nil {
		return nil, nil, nil, err
	}
	if p.capturing != nil {
		return nil, nil, nil, errAt(p.capturing.file, p.capturing.line, kindUnterminatedMacro,
			"macro %q has no matching .endm", p.capturing.name)
	}
	return lines, p.syms, p.warnings, nil
}

func (p *preprocessor) processFile(path string) ([]sourceLine, error) {
	text, err := p.read(path)
	if err != nil {
		return nil, errAt(path, 0, kindIncludeNotFound, "cannot open %q: %v", path, err)
	}

	var out []sourceLine
	rawLines := splitSourceLines(text)
	for i, raw := range rawLines {
		lineNo := i + 1
		stripped := newFstring(path, lineNo, raw).stripTrailingComment().str

		if p.capturing != nil {
			done, err := p.feedMacroBody(path, lineNo, stripped)
			if err != nil {
				return nil, err
			}
			if done {
				continue
			}
			continue
		}

		trimmed := trimSpaceASCII(stripped)
		if trimmed == "" {
			continue
		}

		if included, handled, err := p.tryInclude(path, lineNo, stripped); err != nil {
			return nil, err
		} else if handled {
			out = append(out, included...)
			continue
		}

		if handled, err := p.tryMacroStart(path, lineNo, stripped); err != nil {
			return nil, err
		} else if handled {
			continue
		}

		if isEndm(stripped) {
			return nil, errAt(path, lineNo, kindStrayEndm, ".endm without matching .macro")
		}

		expanded, err := p.processLine(path, lineNo, stripped)
		if err != nil {
			return nil, err
		}
		out = append(out, expanded...)
	}
	return out, nil
}

// tryInclude recognizes `.include "path"` and, if matched, recursively
// preprocesses the target file and returns its output lines spliced in
// place.
func (p *preprocessor) tryInclude(file string, lineNo int, stripped string) ([]sourceLine, bool, error) {
	sl, err := tokenizeLine(file, lineNo, stripped)
	if err != nil {
		return nil, false, nil
	}
	if sl.Mnemonic != ".INCLUDE" {
		return nil, false, nil
	}
	if len(sl.Operands) != 1 {
		return nil, true, errAt(file, lineNo, kindOperandSyntax, ".include requires a single quoted path")
	}
	target := resolveIncludePath(file, sl.Operands[0])
	if err := p.stack.push(file, lineNo, target); err != nil {
		return nil, true, err
	}
	defer p.stack.pop()
	lines, err := p.processFile(target)
	if err != nil {
		return nil, true, err
	}
	return lines, true, nil
}

func (p *preprocessor) tryMacroStart(file string, lineNo int, stripped string) (bool, error) {
	sl, err := tokenizeLine(file, lineNo, stripped)
	if err != nil {
		return false, nil
	}
	if sl.Mnemonic != ".MACRO" {
		return false, nil
	}
	name, params, err := parseMacroHeader(file, lineNo, sl.Operands)
	if err != nil {
		return true, err
	}
	p.capturing = &macroDef{name: name, params: params, file: file, line: lineNo}
	return true, nil
}

func isEndm(stripped string) bool {
	return strings.EqualFold(trimSpaceASCII(stripped), ".endm")
}

// feedMacroBody appends one line to the macro currently being captured,
// or, on `.endm`, commits it to the macro table.
func (p *preprocessor) feedMacroBody(file string, lineNo int, stripped string) (done bool, err error) {
	trimmed := trimSpaceASCII(stripped)
	if trimmed == "" {
		return false, nil
	}
	if strings.EqualFold(trimmed, ".endm") {
		p.macros[p.capturing.name] = p.capturing
		p.capturing = nil
		return true, nil
	}
	if len(trimmed) >= 6 && strings.EqualFold(trimmed[:6], ".macro") {
		return false, errAt(file, lineNo, kindNestedMacro, "nested .macro inside %q", p.capturing.name)
	}
	p.capturing.body = append(p.capturing.body, stripped)
	return false, nil
}

// processLine applies constant-assignment rewrite, eager .equ capture,
// tokenization, macro invocation, and built-in expansion to one
// non-directive-control line.
func (p *preprocessor) processLine(file string, lineNo int, stripped string) ([]sourceLine, error) {
	stripped = rewriteConstantAssignment(stripped)

	sl, err := tokenizeLine(file, lineNo, stripped)
	if err != nil {
		return nil, err
	}
	if sl.Mnemonic == "" {
		return []sourceLine{sl}, nil
	}

	if sl.Mnemonic == ".EQU" && len(sl.Operands) == 2 {
		name := trimSpaceASCII(sl.Operands[0])
		if v, err := EvalExpr(sl.Operands[1], file, lineNo, p.syms); err == nil {
			_ = p.syms.DefineEqu(file, lineNo, name, v)
		}
		return []sourceLine{sl}, nil
	}

	if def, ok := p.macros[sl.Mnemonic]; ok {
		bodyLines, err := expandMacroBody(def, sl.Operands)
		if err != nil {
			return nil, err
		}
		var out []sourceLine
		firstLabelAttached := sl.Label == ""
		for _, bl := range bodyLines {
			expanded, err := p.processLine(file, lineNo, bl)
			if err != nil {
				return nil, err
			}
			if !firstLabelAttached {
				for j := range expanded {
					if expanded[j].Mnemonic != "" {
						expanded[j].Label = sl.Label
						firstLabelAttached = true
						break
					}
				}
			}
			out = append(out, expanded...)
		}
		return out, nil
	}

	return expandBuiltins(file, lineNo, sl)
}

// rewriteConstantAssignment rewrites `NAME = expr` into `.equ NAME, expr`,
// per spec.md section 4.2 step 4. It only fires when the line starts with
// a bare identifier (no label colon, no leading dot) followed by a single
// `=` that is not part of a multi-character operator.
func rewriteConstantAssignment(stripped string) string {
	f := newFstring("", 0, stripped).consumeWhitespace()
	if !f.startsWith(identStartChar) {
		return stripped
	}
	name, remain := f.consumeWhile(identChar)
	remain = remain.consumeWhitespace()
	if !remain.startsWithChar('=') || remain.startsWithString("==") {
		return stripped
	}
	expr := remain.consume(1)
	return ".equ " + name.str + ", " + expr.str
}

// splitSourceLines splits source text on LF, tolerating CRLF.
func splitSourceLines(text string) []string {
	raw := strings.Split(text, "\n")
	for i, l := range raw {
		raw[i] = strings.TrimSuffix(l, "\r")
	}
	if len(raw) > 0 && raw[len(raw)-1] == "" {
		raw = raw[:len(raw)-1]
	}
	return raw
}
