// Command tmasm assembles TMEPT source into a raw binary image.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/tmept/tmasm/asm"
)

// defineList collects repeated -D flags into predefine bindings, grounded
// on the retro command's fileList/cellSizeBits custom flag.Value pattern:
// a flag.Value that accumulates into a map rather than overwriting a
// scalar.
type defineList struct {
	values map[string]interface{}
}

func (d *defineList) String() string { return "" }

func (d *defineList) Set(s string) error {
	name, val, hasVal := strings.Cut(s, "=")
	name = strings.TrimSpace(name)
	if name == "" {
		return errors.Errorf("invalid -D argument %q: empty name", s)
	}
	if d.values == nil {
		d.values = make(map[string]interface{})
	}
	if !hasVal {
		d.values[name] = 1
		return nil
	}
	if n, ok := parsePredefineInt(val); ok {
		d.values[name] = n
		return nil
	}
	d.values[name] = val
	return nil
}

// parsePredefineInt parses a -D value as an integer, honoring the same
// 0x/0b/0o/decimal prefixes as the expression evaluator.
func parsePredefineInt(s string) (int, bool) {
	base := 10
	switch {
	case strings.HasPrefix(s, "0x"), strings.HasPrefix(s, "0X"):
		s, base = s[2:], 16
	case strings.HasPrefix(s, "0b"), strings.HasPrefix(s, "0B"):
		s, base = s[2:], 2
	case strings.HasPrefix(s, "0o"), strings.HasPrefix(s, "0O"):
		s, base = s[2:], 8
	case strings.HasPrefix(s, "$"):
		s, base = s[1:], 16
	}
	n, err := strconv.ParseInt(s, base, 64)
	if err != nil {
		return 0, false
	}
	return int(n), true
}

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("tmasm", flag.ContinueOnError)
	outPath := fs.String("o", "", "output binary path (default: input basename + .bin)")
	listPath := fs.String("l", "", "optional listing file path")
	noResetVec := fs.Bool("no-reset-vec", false, "suppress the \"no reset vector defined\" warning")
	var defines defineList
	fs.Var(&defines, "D", "predefine NAME[=VALUE] (repeatable)")

	if err := fs.Parse(args); err != nil {
		return 1
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: tmasm [-o out.bin] [-l listing] [-D NAME[=VALUE]]... [--no-reset-vec] source.tme")
		return 1
	}
	srcPath := fs.Arg(0)

	out := *outPath
	if out == "" {
		base := filepath.Base(srcPath)
		ext := filepath.Ext(base)
		out = strings.TrimSuffix(base, ext) + ".bin"
	}

	result, err := asm.Assemble(srcPath, asm.Options{
		Predefines:        defines.values,
		NoResetVecWarning: *noResetVec,
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	image := asm.BuildImage(result.Memory)
	if err := os.WriteFile(out, image, 0o644); err != nil {
		fmt.Fprintln(os.Stderr, errors.Wrap(err, "writing output image"))
		return 1
	}

	if *listPath != "" {
		if err := os.WriteFile(*listPath, []byte(result.Listing.String()), 0o644); err != nil {
			fmt.Fprintln(os.Stderr, errors.Wrap(err, "writing listing"))
			return 1
		}
	}

	for _, w := range result.Warnings {
		fmt.Fprintln(os.Stderr, w.String())
	}
	return 0
}
