package grammar

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Charset matches a run of characters against whitelist/blacklist/graylist
// rules with length bounds. The run is always the longest valid prefix of
// the offered input; a character violating the rules stays unconsumed.
type Charset struct {
	// White lists the allowed characters. Empty allows any character not
	// blacklisted.
	White string

	// Black lists forbidden characters. Black wins over White and Gray.
	Black string

	// Gray lists characters that are allowed but may also terminate the
	// run when they follow other accepted characters.
	Gray string

	// Min is the minimum run length for the run to be accepted.
	Min int

	// Max is the maximum run length. Zero or negative means unbounded.
	Max int

	CaseFold bool
}

func (m *Charset) Optional() bool { return m.Min <= 0 }

func (m *Charset) NewWalker() Walker { return &charsetWalker{m: m} }

func (m *Charset) contains(set string, r rune) bool {
	if m.CaseFold {
		return strings.ContainsRune(strings.ToLower(set), unicode.ToLower(r))
	}
	return strings.ContainsRune(set, r)
}

func (m *Charset) allows(r rune) bool {
	if m.contains(m.Black, r) {
		return false
	}
	if m.White == "" {
		return true
	}
	return m.contains(m.White, r) || m.contains(m.Gray, r)
}

type charsetWalker struct {
	m         *Charset
	raw       string
	remainder string

	// terminated is set when a graylist character closed the run; no
	// further characters may join it.
	terminated bool
}

func (w *charsetWalker) count() int { return utf8.RuneCountInString(w.raw) }

func (w *charsetWalker) Accepted() bool {
	return w.count() >= w.m.Min
}

func (w *charsetWalker) Consume(chunk string) []Walker {
	if chunk == "" {
		return []Walker{w}
	}
	if w.terminated {
		if !w.Accepted() {
			return nil
		}
		return []Walker{&charsetWalker{m: w.m, raw: w.raw, remainder: chunk, terminated: true}}
	}

	var out []Walker
	count := w.count()
	var b strings.Builder
	i := 0
	for i < len(chunk) {
		if w.m.Max > 0 && count >= w.m.Max {
			break
		}
		r, size := utf8.DecodeRuneInString(chunk[i:])
		if !w.m.allows(r) {
			break
		}
		if count > 0 && w.m.contains(w.m.Gray, r) {
			// a graylist character adjacent to accepted characters
			// may close the run here
			stop := &charsetWalker{m: w.m, raw: w.raw + b.String(), remainder: chunk[i:], terminated: true}
			if stop.Accepted() {
				out = append(out, stop)
			}
		}
		b.WriteString(chunk[i : i+size])
		count++
		i += size
	}

	next := &charsetWalker{m: w.m, raw: w.raw + b.String(), remainder: chunk[i:]}
	if i == len(chunk) || i > 0 || next.Accepted() {
		out = append(out, next)
	}
	return out
}

func (w *charsetWalker) Remainder() string { return w.remainder }
func (w *charsetWalker) Raw() string       { return w.raw }

func (w *charsetWalker) Value() (any, error) { return w.raw, nil }

func (w *charsetWalker) Continuations() Continuations {
	var c Continuations
	if w.terminated || (w.m.Max > 0 && w.count() >= w.m.Max) {
		return c
	}
	if w.m.White == "" {
		c.Any = true
		return c
	}
	for _, r := range w.m.White + w.m.Gray {
		if w.m.contains(w.m.Black, r) {
			continue
		}
		c.Runes = append(c.Runes, r)
		if w.m.CaseFold {
			if u := unicode.ToUpper(r); u != r {
				c.Runes = append(c.Runes, u)
			}
			if l := unicode.ToLower(r); l != r {
				c.Runes = append(c.Runes, l)
			}
		}
	}
	return c
}

func (w *charsetWalker) Signature() string {
	return fmt.Sprintf("cs:%t:%s", w.terminated, w.raw)
}
