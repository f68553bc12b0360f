package asm

import (
	"fmt"
	"sort"
	"strings"
)

// ListingRecord is one emitted line's address and encoded bytes, adapted
// from the teacher's sourcemap.go SourceLine (there: maps a PC range
// back to a source file/line for the debugger; here: the reverse
// direction, used to render a human-readable assembly listing).
type ListingRecord struct {
	File  string
	Line  int
	Addr  int
	Bytes []byte
}

// Listing collects ListingRecords in address order, grounded on
// sourcemap.go's SourceMap (there: binary-searched by PC via
// sort.Search; here: sorted once at render time since records arrive in
// source, not address, order).
type Listing struct {
	records []ListingRecord
}

func newListing() *Listing {
	return &Listing{}
}

func (l *Listing) add(file string, line, addr int, bytes []byte) {
	b := make([]byte, len(bytes))
	copy(b, bytes)
	l.records = append(l.records, ListingRecord{File: file, Line: line, Addr: addr, Bytes: b})
}

// Sorted returns the listing records ordered by address.
func (l *Listing) Sorted() []ListingRecord {
	out := make([]ListingRecord, len(l.records))
	copy(out, l.records)
	sort.Slice(out, func(i, j int) bool { return out[i].Addr < out[j].Addr })
	return out
}

// String renders the listing as "ADDR  HEXBYTES  file:line" rows.
func (l *Listing) String() string {
	var b strings.Builder
	for _, r := range l.Sorted() {
		fmt.Fprintf(&b, "%04X  %-12s  %s:%d\n", r.Addr, byteString(r.Bytes), r.File, r.Line)
	}
	return b.String()
}

func byteString(b []byte) string {
	var s strings.Builder
	for i, v := range b {
		if i > 0 {
			s.WriteByte(' ')
		}
		fmt.Fprintf(&s, "%02X", v)
	}
	return s.String()
}
