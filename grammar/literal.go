package grammar

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Literal matches an exact string. Partial prefixes are accepted
// incrementally; the walker stays alive across chunk boundaries until the
// target is complete or the input diverges.
type Literal struct {
	Text     string
	CaseFold bool
}

func (m *Literal) Optional() bool { return false }

func (m *Literal) NewWalker() Walker { return &literalWalker{m: m} }

type literalWalker struct {
	m *Literal

	// n is the byte offset of matched target text; raw preserves the
	// original casing of the consumed input.
	n         int
	raw       string
	remainder string
}

func (w *literalWalker) complete() bool { return w.n >= len(w.m.Text) }

func (w *literalWalker) Accepted() bool { return w.complete() }

func (w *literalWalker) Consume(chunk string) []Walker {
	if chunk == "" {
		return []Walker{w}
	}
	if w.complete() {
		return []Walker{&literalWalker{m: w.m, n: w.n, raw: w.raw, remainder: chunk}}
	}

	n := w.n
	raw := w.raw
	i := 0
	for i < len(chunk) && n < len(w.m.Text) {
		cr, cs := utf8.DecodeRuneInString(chunk[i:])
		tr, ts := utf8.DecodeRuneInString(w.m.Text[n:])
		if w.m.CaseFold {
			cr, tr = unicode.ToLower(cr), unicode.ToLower(tr)
		}
		if cr != tr {
			break
		}
		raw += chunk[i : i+cs]
		i += cs
		n += ts
	}

	if i == 0 {
		// first offered character already diverges: no match
		return nil
	}
	return []Walker{&literalWalker{m: w.m, n: n, raw: raw, remainder: chunk[i:]}}
}

func (w *literalWalker) Remainder() string { return w.remainder }
func (w *literalWalker) Raw() string       { return w.raw }

func (w *literalWalker) Value() (any, error) { return w.raw, nil }

func (w *literalWalker) Continuations() Continuations {
	var c Continuations
	if w.complete() {
		return c
	}
	rest := w.m.Text[w.n:]
	c.addLiteral(rest)
	if w.m.CaseFold {
		if lower := strings.ToLower(rest); lower != rest {
			c.addLiteral(lower)
		}
		if upper := strings.ToUpper(rest); upper != rest {
			c.addLiteral(upper)
		}
	}
	return c
}

func (w *literalWalker) Signature() string {
	return "lit:" + w.raw + ":" + w.m.Text[w.n:]
}
