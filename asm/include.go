package asm

import (
	"os"
	"path/filepath"
)

// fileReader abstracts source file access so tests can substitute an
// in-memory reader without touching the filesystem, the same role the
// teacher's assembler takes an io.Reader/file-open callback for in
// asm.go's AssembleFile wrapper.
type fileReader func(path string) (string, error)

func osReadFile(path string) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// resolveIncludePath resolves a `.include "path"` operand relative to the
// directory of the including file, per spec.md section 4.2 step 2.
func resolveIncludePath(includingFile, quoted string) string {
	path := unquote(quoted)
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Clean(filepath.Join(filepath.Dir(includingFile), path))
}

func unquote(s string) string {
	t := trimSpaceASCII(s)
	if len(t) >= 2 && t[0] == '"' && t[len(t)-1] == '"' {
		return t[1 : len(t)-1]
	}
	return t
}

// includeStack tracks the canonical paths of files currently being
// preprocessed, the only piece of state with a lifetime longer than a
// single line (spec.md section 5); it is the mechanism for cycle
// detection and is push/pop-disciplined around recursive processing.
type includeStack struct {
	paths []string
	seen  map[string]bool
}

func newIncludeStack() *includeStack {
	return &includeStack{seen: make(map[string]bool)}
}

func (s *includeStack) push(originFile string, originLine int, path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	if s.seen[abs] {
		return errAt(originFile, originLine, kindCircularInclude, "circular include of %q", path)
	}
	s.seen[abs] = true
	s.paths = append(s.paths, abs)
	return nil
}

func (s *includeStack) pop() {
	n := len(s.paths)
	if n == 0 {
		return
	}
	delete(s.seen, s.paths[n-1])
	s.paths = s.paths[:n-1]
}
