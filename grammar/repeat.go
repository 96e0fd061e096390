package grammar

import (
	"fmt"
	"slices"
	"strings"
)

// Repeat matches its element matcher between Min and Max times, with an
// optional separator between elements. Separators do not count toward the
// loop counter, and a completed separator commits the walker to another
// element.
type Repeat struct {
	Item Matcher
	Sep  Matcher // may be nil

	Min int
	Max int // -1 means unbounded
}

func (m *Repeat) Optional() bool { return m.Min <= 0 }

func (m *Repeat) NewWalker() Walker { return &repeatWalker{m: m} }

type repeatWalker struct {
	m     *Repeat
	count int  // completed elements
	inSep bool // the active sub-walker is a separator

	// afterSep is set between a completed separator and the element it
	// promises.
	afterSep bool

	sub       Walker
	history   []Walker // completed elements, separators excluded
	raw       string
	remainder string
}

func (w *repeatWalker) clone() *repeatWalker {
	n := *w
	n.history = slices.Clone(w.history)
	n.remainder = ""
	return &n
}

func (w *repeatWalker) roomForElement() bool {
	return w.m.Max < 0 || w.count < w.m.Max
}

func (w *repeatWalker) Accepted() bool {
	if w.sub == nil {
		return !w.afterSep && w.count >= w.m.Min
	}
	if w.inSep {
		return false
	}
	return w.sub.Accepted() && w.count+1 >= w.m.Min
}

func (w *repeatWalker) Consume(chunk string) []Walker {
	if chunk == "" {
		return []Walker{w}
	}
	if w.sub != nil {
		return w.offer(w.sub, w.inSep, chunk)
	}

	var out []Walker
	if w.roomForElement() && (w.count == 0 || w.afterSep || w.m.Sep == nil) {
		out = append(out, w.offer(w.m.Item.NewWalker(), false, chunk)...)
	}
	if w.m.Sep != nil && w.count >= 1 && !w.afterSep && w.roomForElement() {
		out = append(out, w.offer(w.m.Sep.NewWalker(), true, chunk)...)
	}
	return out
}

func (w *repeatWalker) offer(sub Walker, inSep bool, chunk string) []Walker {
	var out []Walker
	for _, s := range sub.Consume(chunk) {
		rem := s.Remainder()
		if s.Accepted() && (inSep || s.Raw() != "") {
			pop := w.clone()
			pop.sub = nil
			pop.raw += s.Raw()
			if inSep {
				pop.afterSep = true
			} else {
				pop.count++
				pop.afterSep = false
				pop.history = append(pop.history, s)
			}
			if rem != "" {
				out = append(out, pop.Consume(rem)...)
			} else {
				out = append(out, pop)
				cont := w.clone()
				cont.sub = s
				cont.inSep = inSep
				out = append(out, cont)
			}
			continue
		}
		next := w.clone()
		next.sub = s
		next.inSep = inSep
		next.remainder = rem
		out = append(out, next)
	}
	return out
}

func (w *repeatWalker) Remainder() string { return w.remainder }

func (w *repeatWalker) Raw() string {
	if w.sub != nil {
		return w.raw + w.sub.Raw()
	}
	return w.raw
}

// Value yields the list of element values, separators excluded.
func (w *repeatWalker) Value() (any, error) {
	items := make([]any, 0, len(w.history)+1)
	for _, h := range w.history {
		v, err := h.Value()
		if err != nil {
			return nil, err
		}
		items = append(items, v)
	}
	if w.sub != nil && !w.inSep && w.sub.Accepted() {
		v, err := w.sub.Value()
		if err != nil {
			return nil, err
		}
		items = append(items, v)
	}
	return items, nil
}

func (w *repeatWalker) Continuations() Continuations {
	var c Continuations
	if w.sub != nil {
		c.merge(w.sub.Continuations())
		if !w.inSep && w.sub.Accepted() {
			after := w.clone()
			after.sub = nil
			after.count++
			after.afterSep = false
			c.merge(after.Continuations())
		}
		return c
	}
	if w.roomForElement() && (w.count == 0 || w.afterSep || w.m.Sep == nil) {
		c.merge(w.m.Item.NewWalker().Continuations())
	}
	if w.m.Sep != nil && w.count >= 1 && !w.afterSep && w.roomForElement() {
		c.merge(w.m.Sep.NewWalker().Continuations())
	}
	return c
}

func (w *repeatWalker) Signature() string {
	var b strings.Builder
	fmt.Fprintf(&b, "rep:%d:%t:%t:%s", w.count, w.afterSep, w.inSep, w.raw)
	if w.sub != nil {
		b.WriteString("|")
		b.WriteString(w.sub.Signature())
	}
	return b.String()
}
