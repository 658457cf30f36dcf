// Package minify implements component M: it strips everything outside
// the eight primitive characters from the emitted program (§4.6).
package minify

import (
	"fmt"
	"strings"

	"byteflow/pkg/emit"
)

const alphabet = "><+-[].,"

// Program renders the buffer's instructions as the minified output:
// only the eight primitive characters, no whitespace, no comments.
func Program(buf *emit.Buffer) string {
	return string(buf.Bytes())
}

// Text strips any character outside the eight-character alphabet from
// an arbitrary string. Because it only ever removes characters already
// foreign to the alphabet, running it twice yields the same result as
// running it once: Text(Text(x)) == Text(x) (§8 "Idempotence of
// minification").
func Text(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if strings.ContainsRune(alphabet, r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Dump renders the buffer with one instruction per line, annotated with
// its source line and any debug comment the emitter attached — the
// non-minified form §4.6 allows for debugging, which M is responsible
// for removing to produce the final program.
func Dump(buf *emit.Buffer) string {
	var b strings.Builder
	for _, in := range buf.Instrs {
		if in.Comment != "" {
			fmt.Fprintf(&b, "%c # line %d: %s\n", in.Op, in.Line, in.Comment)
		} else {
			fmt.Fprintf(&b, "%c # line %d\n", in.Op, in.Line)
		}
	}
	return b.String()
}
