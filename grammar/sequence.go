package grammar

import (
	"fmt"
	"slices"
	"strings"
)

// Sequence runs its sub-matchers strictly in order. A chunk that completes
// one sub-matcher flows into the next within the same Consume call.
type Sequence struct {
	Items []Matcher

	// IsOptional permits acceptance with zero sub-matchers executed.
	IsOptional bool
}

func (m *Sequence) Optional() bool {
	if m.IsOptional {
		return true
	}
	for _, item := range m.Items {
		if !item.Optional() {
			return false
		}
	}
	return true
}

func (m *Sequence) NewWalker() Walker { return &sequenceWalker{m: m} }

type sequenceWalker struct {
	m   *Sequence
	idx int
	sub Walker

	// history holds one entry per passed item; skipped optional items
	// record nil so values stay positional.
	history   []Walker
	raw       string // raw text of completed items
	remainder string
}

func (w *sequenceWalker) clone() *sequenceWalker {
	n := *w
	n.history = slices.Clone(w.history)
	n.remainder = ""
	return &n
}

func (w *sequenceWalker) Accepted() bool {
	rest := w.idx
	if w.sub != nil {
		if !w.sub.Accepted() {
			return false
		}
		rest = w.idx + 1
	}
	for _, item := range w.m.Items[rest:] {
		if !item.Optional() {
			return false
		}
	}
	return true
}

func (w *sequenceWalker) Consume(chunk string) []Walker {
	if chunk == "" {
		return []Walker{w}
	}

	var out []Walker
	if w.idx >= len(w.m.Items) {
		done := w.clone()
		done.remainder = chunk
		return []Walker{done}
	}

	if w.sub == nil {
		if w.m.Items[w.idx].Optional() {
			skip := w.clone()
			skip.idx++
			skip.history = append(skip.history, nil)
			out = append(out, skip.Consume(chunk)...)
		}
		out = append(out, w.offer(w.m.Items[w.idx].NewWalker(), chunk)...)
		return out
	}
	return w.offer(w.sub, chunk)
}

// offer feeds chunk to the active item's walker and lifts every successor
// back into sequence walkers, popping completed items and re-offering any
// unconsumed remainder to the items that follow.
func (w *sequenceWalker) offer(sub Walker, chunk string) []Walker {
	var out []Walker
	for _, s := range sub.Consume(chunk) {
		rem := s.Remainder()
		if s.Accepted() {
			pop := w.clone()
			pop.history = append(pop.history, s)
			pop.raw += s.Raw()
			pop.sub = nil
			pop.idx = w.idx + 1
			if rem != "" {
				out = append(out, pop.Consume(rem)...)
			} else {
				out = append(out, pop)
				cont := w.clone()
				cont.sub = s
				out = append(out, cont)
			}
			continue
		}
		next := w.clone()
		next.sub = s
		next.remainder = rem
		out = append(out, next)
	}
	return out
}

func (w *sequenceWalker) Remainder() string { return w.remainder }

func (w *sequenceWalker) Raw() string {
	if w.sub != nil {
		return w.raw + w.sub.Raw()
	}
	return w.raw
}

// Value yields one entry per item: completed item values in order, nil for
// skipped optional items and items never reached.
func (w *sequenceWalker) Value() (any, error) {
	children := make([]any, len(w.m.Items))
	for i, h := range w.history {
		if h == nil {
			continue
		}
		v, err := h.Value()
		if err != nil {
			return nil, err
		}
		children[i] = v
	}
	if w.sub != nil && w.sub.Accepted() && w.idx < len(w.m.Items) {
		v, err := w.sub.Value()
		if err != nil {
			return nil, err
		}
		children[w.idx] = v
	}
	return children, nil
}

func (w *sequenceWalker) Continuations() Continuations {
	var c Continuations
	start := w.idx
	if w.sub != nil {
		c.merge(w.sub.Continuations())
		if !w.sub.Accepted() {
			return c
		}
		start = w.idx + 1
	}
	for _, item := range w.m.Items[start:] {
		c.merge(item.NewWalker().Continuations())
		if !item.Optional() {
			break
		}
	}
	return c
}

func (w *sequenceWalker) Signature() string {
	var b strings.Builder
	fmt.Fprintf(&b, "seq:%d:%s", w.idx, w.raw)
	if w.sub != nil {
		b.WriteString("|")
		b.WriteString(w.sub.Signature())
	}
	return b.String()
}
