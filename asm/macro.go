package asm

import "strings"

// macroDef is a captured `.macro NAME [params] ... .endm` body, per
// spec.md section 4.2 step 3.
type macroDef struct {
	name   string
	params []string
	body   []string // raw, comment-stripped lines, not yet tokenized
	file   string
	line   int
}

// parseMacroHeader parses a `.macro NAME [params]` line into a name and
// parameter list. Parameters are comma/whitespace separated and each may
// carry an optional leading backslash (two accepted stylistic
// conventions, per spec.md section 4.2 step 3).
func parseMacroHeader(file string, line int, operands []string) (name string, params []string, err error) {
	fields := strings.FieldsFunc(strings.Join(operands, ","), func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t'
	})
	if len(fields) == 0 {
		return "", nil, errAt(file, line, kindOperandSyntax, ".macro requires a name")
	}
	name = strings.ToUpper(fields[0])
	for _, p := range fields[1:] {
		p = strings.TrimPrefix(p, "\\")
		if p != "" {
			params = append(params, p)
		}
	}
	return name, params, nil
}

// expandMacroBody substitutes args for params in each body line of a
// macro invocation: first `\param` literal substitution, then bare
// whole-word substitution, per spec.md section 9's two-stage rule. Word
// boundaries are defined over identifier characters so substitution never
// fires inside a longer identifier.
func expandMacroBody(def *macroDef, args []string) ([]string, error) {
	if len(args) != len(def.params) {
		return nil, errAt(def.file, def.line, kindMacroArity,
			"macro %q expects %d argument(s), got %d", def.name, len(def.params), len(args))
	}
	out := make([]string, len(def.body))
	for i, body := range def.body {
		line := body
		for j, param := range def.params {
			line = strings.ReplaceAll(line, "\\"+param, args[j])
		}
		for j, param := range def.params {
			line = substituteWholeWord(line, param, args[j])
		}
		out[i] = line
	}
	return out, nil
}

// substituteWholeWord replaces every whole-word occurrence of name in s
// with value, where a "word" is a maximal run of identChar bytes.
func substituteWholeWord(s, name, value string) string {
	var b strings.Builder
	i := 0
	for i < len(s) {
		if identStartChar(s[i]) || decimal(s[i]) {
			j := i
			for j < len(s) && identChar(s[j]) {
				j++
			}
			word := s[i:j]
			if word == name {
				b.WriteString(value)
			} else {
				b.WriteString(word)
			}
			i = j
			continue
		}
		b.WriteByte(s[i])
		i++
	}
	return b.String()
}

// expandBuiltins rewrites the three always-on pseudo-instructions
// (LOADADDR, JMP_L, CALL_L) described in spec.md section 4.2 step 8 into
// their constituent real instructions. It is applied after user-macro
// expansion so a user macro that itself emits LOADADDR still expands
// fully.
func expandBuiltins(file string, line int, sl sourceLine) ([]sourceLine, error) {
	switch sl.Mnemonic {
	case "LOADADDR":
		if len(sl.Operands) != 2 {
			return nil, errAt(file, line, kindOperandCount, "LOADADDR takes 2 operands, got %d", len(sl.Operands))
		}
		reg, expr := sl.Operands[0], sl.Operands[1]
		return []sourceLine{
			{File: file, Line: line, Label: sl.Label, Mnemonic: "XOR", Operands: []string{reg, reg, reg}},
			{File: file, Line: line, Mnemonic: "ADD", Operands: []string{reg, "#lo(" + expr + ")"}},
			{File: file, Line: line, Mnemonic: "__LOADADDR_HI__", Operands: []string{reg, expr}},
		}, nil

	case "JMP_L":
		if len(sl.Operands) != 2 {
			return nil, errAt(file, line, kindOperandCount, "JMP_L takes 2 operands, got %d", len(sl.Operands))
		}
		reg, tgt := sl.Operands[0], sl.Operands[1]
		expanded, err := expandBuiltins(file, line, sourceLine{File: file, Line: line, Label: sl.Label, Mnemonic: "LOADADDR", Operands: []string{reg, tgt}})
		if err != nil {
			return nil, err
		}
		expanded = append(expanded, sourceLine{File: file, Line: line, Mnemonic: "JMP", Operands: []string{reg}})
		return expanded, nil

	case "CALL_L":
		if len(sl.Operands) != 2 {
			return nil, errAt(file, line, kindOperandCount, "CALL_L takes 2 operands, got %d", len(sl.Operands))
		}
		reg, tgt := sl.Operands[0], sl.Operands[1]
		expanded, err := expandBuiltins(file, line, sourceLine{File: file, Line: line, Label: sl.Label, Mnemonic: "LOADADDR", Operands: []string{reg, tgt}})
		if err != nil {
			return nil, err
		}
		expanded = append(expanded, sourceLine{File: file, Line: line, Mnemonic: "CALL", Operands: []string{reg}})
		return expanded, nil

	default:
		return []sourceLine{sl}, nil
	}
}
