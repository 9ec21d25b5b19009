package citations

import (
	"fmt"
	"strings"
)

// Rewrite substitutes every recognized citation marker in text with the
// [N] form of its reference, preserving all surrounding text verbatim.
// It applies the same matching rules as Parse, so given refs produced by
// Parse on the same text no recognized marker survives and nothing else
// is touched. Multi-ID markers collapse to concatenated numbers ([2][3]).
func Rewrite(text string, refs []SourceReference) string {
	if text == "" || len(refs) == 0 {
		return text
	}
	numbers := make(map[string]int, len(refs))
	for _, r := range refs {
		numbers[r.key()] = r.ID
	}

	spans := matchSpans(text)
	if len(spans) == 0 {
		return text
	}

	var b strings.Builder
	b.Grow(len(text))
	last := 0
	for _, sp := range spans {
		repl, ok := marker(sp, numbers)
		if !ok {
			continue
		}
		b.WriteString(text[last:sp.start])
		b.WriteString(repl)
		last = sp.end
	}
	b.WriteString(text[last:])
	return b.String()
}

// marker renders the [N] replacement for one claimed span. A span whose
// references are not all present in the numbering map is left alone.
func marker(sp span, numbers map[string]int) (string, bool) {
	var b strings.Builder
	for _, rd := range sp.refs {
		n, ok := numbers[rd.key]
		if !ok {
			return "", false
		}
		fmt.Fprintf(&b, "[%d]", n)
	}
	return b.String(), true
}
