package grammar

import (
	"slices"
	"testing"
)

func TestLiteralWhole(t *testing.T) {
	m := &Literal{Text: "true"}
	got := acceptedOf(settle(m, "true"))
	if len(got) != 1 {
		t.Fatalf("accepted walkers = %d, want 1", len(got))
	}
	if got[0].Raw() != "true" {
		t.Errorf("raw = %q, want %q", got[0].Raw(), "true")
	}
}

func TestLiteralAcrossChunks(t *testing.T) {
	m := &Literal{Text: "true"}

	succs := m.NewWalker().Consume("tr")
	if len(succs) != 1 {
		t.Fatalf("successors = %d, want 1", len(succs))
	}
	if succs[0].Accepted() {
		t.Error("partial literal must not be accepted")
	}

	succs = succs[0].Consume("ue")
	if len(succs) != 1 || !succs[0].Accepted() {
		t.Fatal("completing chunk should yield one accepted walker")
	}
}

func TestLiteralDivergence(t *testing.T) {
	m := &Literal{Text: "true"}
	if succs := m.NewWalker().Consume("x"); len(succs) != 0 {
		t.Errorf("diverging first character should kill the walker, got %d successors", len(succs))
	}

	// divergence after a consumed prefix keeps the walker alive with the
	// unconsumed tail, so the consumed prefix can still be healed
	succs := m.NewWalker().Consume("trX")
	if len(succs) != 1 {
		t.Fatalf("successors = %d, want 1", len(succs))
	}
	w := succs[0]
	if w.Raw() != "tr" || w.Remainder() != "X" || w.Accepted() {
		t.Errorf("raw=%q remainder=%q accepted=%t, want tr/X/false", w.Raw(), w.Remainder(), w.Accepted())
	}
}

func TestLiteralCaseFold(t *testing.T) {
	m := &Literal{Text: "null", CaseFold: true}
	got := acceptedOf(settle(m, "NULL"))
	if len(got) != 1 {
		t.Fatal("case-folded literal should accept upper-case input")
	}
	if got[0].Raw() != "NULL" {
		t.Errorf("raw = %q, original casing should be preserved", got[0].Raw())
	}
}

func TestLiteralContinuations(t *testing.T) {
	m := &Literal{Text: "false"}
	w := m.NewWalker().Consume("fa")[0]
	c := w.Continuations()
	if !slices.Contains(c.Literals, "lse") {
		t.Errorf("continuations = %+v, want the remaining text %q", c, "lse")
	}

	done := w.Consume("lse")[0]
	if c := done.Continuations(); !c.Empty() {
		t.Errorf("completed literal continuations = %+v, want empty", c)
	}
}
