// Package normalize cleans free text that ends up in stored messages and API
// output, and folds identifiers for comparison
//
// Text pipeline
// 1 drop control bytes and invalid UTF-8
// 2 Unicode NFC
// 3 remove format characters (zero widths, BOM)
// 4 collapse blank space inside lines, keep single line breaks
//
// Key pipeline
// 1 NFKC
// 2 case folding
// 3 width folding
package normalize

import (
	"strings"
	"sync"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
	"golang.org/x/text/width"
)

// transformer chains are stateful, so each call takes its own
var (
	textPool = sync.Pool{New: func() any {
		return transform.Chain(norm.NFC, runes.Remove(runes.In(unicode.Cf)))
	}}
	keyPool = sync.Pool{New: func() any {
		return transform.Chain(norm.NFKC, cases.Fold(), width.Fold, runes.Remove(runes.In(unicode.Cf)))
	}}
)

// Text returns s cleaned for storage and display
func Text(s string) string {
	if s == "" {
		return ""
	}
	s = strings.ToValidUTF8(Sanitize(s), "")
	s = apply(&textPool, s)
	return collapseSpaces(s)
}

// Key folds an identifier so that case and width variants compare equal
func Key(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	return apply(&keyPool, strings.ToValidUTF8(s, ""))
}

// Equal reports whether two identifiers fold to the same key
func Equal(a, b string) bool { return Key(a) == Key(b) }

func apply(p *sync.Pool, s string) string {
	tr := p.Get().(transform.Transformer)
	out, _, err := transform.String(tr, s)
	tr.Reset()
	p.Put(tr)
	if err != nil {
		return s
	}
	return out
}

// collapseSpaces turns runs of blank space inside a line into one ASCII
// space, trims each line, and keeps at most one empty line in a row
func collapseSpaces(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")

	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	blank := false
	for _, ln := range lines {
		ln = strings.Join(strings.FieldsFunc(ln, unicode.IsSpace), " ")
		if ln == "" {
			if blank || len(out) == 0 {
				continue
			}
			blank = true
			out = append(out, "")
			continue
		}
		blank = false
		out = append(out, ln)
	}
	for len(out) > 0 && out[len(out)-1] == "" {
		out = out[:len(out)-1]
	}
	return strings.Join(out, "\n")
}
