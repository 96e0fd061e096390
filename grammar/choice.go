package grammar

import "fmt"

// Choice accepts if any one of its sub-matchers accepts. Every alternative
// that survives the input becomes its own walker branch; ranking among
// branches is the path resolver's job, not the grammar's.
type Choice struct {
	Items []Matcher
}

func (m *Choice) Optional() bool {
	for _, item := range m.Items {
		if item.Optional() {
			return true
		}
	}
	return false
}

func (m *Choice) NewWalker() Walker { return &choiceWalker{m: m, branch: -1} }

type choiceWalker struct {
	m         *Choice
	branch    int // -1 until input selects branches
	sub       Walker
	remainder string
}

func (w *choiceWalker) Accepted() bool {
	return w.sub != nil && w.sub.Accepted()
}

func (w *choiceWalker) Consume(chunk string) []Walker {
	if chunk == "" {
		return []Walker{w}
	}
	var out []Walker
	if w.sub == nil {
		for i, item := range w.m.Items {
			for _, s := range item.NewWalker().Consume(chunk) {
				out = append(out, &choiceWalker{m: w.m, branch: i, sub: s, remainder: s.Remainder()})
			}
		}
		return out
	}
	for _, s := range w.sub.Consume(chunk) {
		out = append(out, &choiceWalker{m: w.m, branch: w.branch, sub: s, remainder: s.Remainder()})
	}
	return out
}

func (w *choiceWalker) Remainder() string { return w.remainder }

func (w *choiceWalker) Raw() string {
	if w.sub == nil {
		return ""
	}
	return w.sub.Raw()
}

func (w *choiceWalker) Value() (any, error) {
	if w.sub == nil {
		return nil, nil
	}
	return w.sub.Value()
}

func (w *choiceWalker) Continuations() Continuations {
	var c Continuations
	if w.sub != nil {
		return w.sub.Continuations()
	}
	for _, item := range w.m.Items {
		c.merge(item.NewWalker().Continuations())
	}
	return c
}

func (w *choiceWalker) Signature() string {
	sig := fmt.Sprintf("ch:%d", w.branch)
	if w.sub != nil {
		sig += "|" + w.sub.Signature()
	}
	return sig
}
