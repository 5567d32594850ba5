// Package textnorm cleans transcript and script text before it is shown to
// users or handed to the adaptation layer
// Pipeline order
// 1 UTF-8 repair drop invalid bytes
// 2 Unicode NFKC normalization
// 3 Remove zero-width and format chars
// 4 Collapse runs of spaces and tabs, cap blank lines at one, trim
// Casing is left alone, transcripts keep their original register
package textnorm

import (
	"strings"
	"sync"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// pool of fresh transformer chains
var chainPool = sync.Pool{
	New: func() any {
		return transform.Chain(
			norm.NFKC,
			runes.Remove(runes.In(unicode.Cf)), // strip format chars ZWJ ZWNJ FEFF etc
		)
	},
}

// Clean returns the normalized form of s following the pipeline above
func Clean(s string) string {
	if s == "" {
		return ""
	}

	// 1 repair UTF-8 drop invalid bytes
	s = strings.ToValidUTF8(s, "")

	// 2-3 transform via pooled chain then reset and return it
	tr := chainPool.Get().(transform.Transformer)
	ns, _, _ := transform.String(tr, s)
	tr.Reset()
	chainPool.Put(tr)

	// 4 collapse whitespace, newlines survive as paragraph structure
	return collapse(ns)
}

func collapse(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	space := false
	newlines := 0
	for _, r := range s {
		switch {
		case r == '\r':
			// CRLF folds into the LF handling below
		case r == '\n':
			if newlines < 2 {
				newlines++
			}
			space = false
		case unicode.IsSpace(r):
			space = true
		default:
			if newlines > 0 {
				for i := 0; i < newlines; i++ {
					b.WriteByte('\n')
				}
				newlines = 0
				space = false
			}
			if space && b.Len() > 0 {
				b.WriteByte(' ')
			}
			space = false
			b.WriteRune(r)
		}
	}
	return strings.TrimSpace(b.String())
}
