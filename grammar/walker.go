package grammar

import (
	"fmt"
	"slices"
	"strings"
)

// graphWalker is one hypothesis about where we are in a Graph. It is either
// idle at a state, or inside a transition with an active sub-walker for the
// transition's matcher. Walkers never mutate in place: Consume returns
// fresh walkers so the engine can explore many hypotheses that share a
// common ancestor.
type graphWalker struct {
	g     *Graph
	state StateID

	// target is the destination of the active transition; meaningful
	// only while sub is non-nil.
	target StateID
	sub    Walker

	history   []Walker // completed transition walkers, in order
	raw       string   // raw text of completed transitions
	remainder string
}

func (w *graphWalker) clone() *graphWalker {
	n := *w
	n.history = slices.Clone(w.history)
	n.remainder = ""
	return &n
}

func (w *graphWalker) Accepted() bool {
	return w.sub == nil && w.g.isEnd(w.state)
}

func (w *graphWalker) Consume(chunk string) []Walker {
	if chunk == "" {
		return []Walker{w}
	}
	return w.consume(chunk, make(map[StateID]bool))
}

func (w *graphWalker) consume(chunk string, visited map[StateID]bool) []Walker {
	if w.sub != nil {
		var out []Walker
		for _, s := range w.sub.Consume(chunk) {
			out = append(out, w.afterSub(s)...)
		}
		return out
	}

	var out []Walker
	if w.g.isEnd(w.state) {
		// the structure can stop here; surface the unconsumed tail so
		// the engine can heal the token down to the consumed prefix
		done := w.clone()
		done.remainder = chunk
		out = append(out, done)
	}
	if visited[w.state] {
		return out
	}
	visited[w.state] = true

	for _, t := range w.g.transitions[w.state] {
		if t.Matcher.Optional() {
			skip := w.clone()
			skip.state = t.Target
			out = append(out, skip.consume(chunk, visited)...)
		}
		for _, s := range t.Matcher.NewWalker().Consume(chunk) {
			entered := w.clone()
			entered.target = t.Target
			out = append(out, entered.afterSub(s)...)
		}
	}

	if len(out) == 0 {
		// nothing here can consume the chunk; keep the hypothesis
		// visible for healing when a prefix was consumed upstream
		stuck := w.clone()
		stuck.remainder = chunk
		out = append(out, stuck)
	}
	return out
}

// afterSub lifts a successor of the active transition's walker back into
// graph walkers: popping completed transitions, re-offering remainders to
// the target state, and keeping in-progress branches alive.
func (w *graphWalker) afterSub(s Walker) []Walker {
	var out []Walker
	rem := s.Remainder()
	if s.Accepted() && s.Raw() == "" && rem != "" {
		// zero-length match that consumed nothing; the optional-skip
		// branch already covers this path
		return nil
	}
	if s.Accepted() {
		pop := w.clone()
		pop.state = w.target
		pop.sub = nil
		pop.history = append(pop.history, s)
		pop.raw += s.Raw()
		if rem != "" {
			out = append(out, pop.consume(rem, make(map[StateID]bool))...)
		} else {
			out = append(out, pop)
			cont := w.clone()
			cont.sub = s
			out = append(out, cont)
		}
		return out
	}
	next := w.clone()
	next.sub = s
	next.remainder = rem
	out = append(out, next)
	return out
}

func (w *graphWalker) Remainder() string { return w.remainder }

func (w *graphWalker) Raw() string {
	if w.sub != nil {
		return w.raw + w.sub.Raw()
	}
	return w.raw
}

func (w *graphWalker) Value() (any, error) {
	children := make([]any, 0, len(w.history))
	for _, h := range w.history {
		v, err := h.Value()
		if err != nil {
			return nil, err
		}
		children = append(children, v)
	}
	if w.g.reduce != nil {
		return w.g.reduce(children, w.Raw())
	}
	if len(children) == 1 {
		return children[0], nil
	}
	if len(children) == 0 {
		return w.Raw(), nil
	}
	return children, nil
}

func (w *graphWalker) Continuations() Continuations {
	var c Continuations
	if w.sub != nil {
		c.merge(w.sub.Continuations())
		if w.sub.Accepted() {
			c.merge(w.g.continuationsFrom(w.target, make(map[StateID]bool)))
		}
		return c
	}
	return w.g.continuationsFrom(w.state, make(map[StateID]bool))
}

func (g *Graph) continuationsFrom(s StateID, visited map[StateID]bool) Continuations {
	var c Continuations
	if visited[s] {
		return c
	}
	visited[s] = true
	for _, t := range g.transitions[s] {
		c.merge(t.Matcher.NewWalker().Continuations())
		if t.Matcher.Optional() {
			c.merge(g.continuationsFrom(t.Target, visited))
		}
	}
	return c
}

func (w *graphWalker) Signature() string {
	var b strings.Builder
	fmt.Fprintf(&b, "g%s:%d:%s", w.g.name, w.state, w.raw)
	if w.sub != nil {
		fmt.Fprintf(&b, ">%d|%s", w.target, w.sub.Signature())
	}
	return b.String()
}
