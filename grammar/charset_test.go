package grammar

import (
	"testing"
)

// settle feeds chunks through a set of walkers, keeping only walkers that
// consumed everything they were offered.
func settle(m Matcher, chunks ...string) []Walker {
	live := []Walker{m.NewWalker()}
	for _, chunk := range chunks {
		var next []Walker
		for _, w := range live {
			for _, s := range w.Consume(chunk) {
				if s.Remainder() == "" {
					next = append(next, s)
				}
			}
		}
		live = next
	}
	return live
}

func acceptedOf(walkers []Walker) []Walker {
	var out []Walker
	for _, w := range walkers {
		if w.Accepted() {
			out = append(out, w)
		}
	}
	return out
}

func TestCharsetRun(t *testing.T) {
	digits := &Charset{White: "0123456789", Min: 1}

	got := acceptedOf(settle(digits, "123"))
	if len(got) == 0 {
		t.Fatal("expected an accepted walker")
	}
	if raw := got[0].Raw(); raw != "123" {
		t.Errorf("raw = %q, want %q", raw, "123")
	}

	// same input split at every boundary
	chunked := acceptedOf(settle(digits, "1", "2", "3"))
	if len(chunked) == 0 {
		t.Fatal("expected an accepted walker for chunked input")
	}
	if raw := chunked[0].Raw(); raw != "123" {
		t.Errorf("chunked raw = %q, want %q", raw, "123")
	}
}

func TestCharsetLongestPrefix(t *testing.T) {
	digits := &Charset{White: "0123456789", Min: 1}

	succs := digits.NewWalker().Consume("12a")
	if len(succs) != 1 {
		t.Fatalf("successors = %d, want 1", len(succs))
	}
	w := succs[0]
	if w.Raw() != "12" || w.Remainder() != "a" {
		t.Errorf("raw=%q remainder=%q, want raw=12 remainder=a", w.Raw(), w.Remainder())
	}
	if !w.Accepted() {
		t.Error("walker with satisfied minimum should be accepted")
	}
}

func TestCharsetMin(t *testing.T) {
	m := &Charset{White: "ab", Min: 3}
	live := settle(m, "ab")
	if len(acceptedOf(live)) != 0 {
		t.Error("run below minimum must not be accepted")
	}
	if len(acceptedOf(settle(m, "aba"))) == 0 {
		t.Error("run at minimum must be accepted")
	}
}

func TestCharsetMax(t *testing.T) {
	m := &Charset{White: "x", Min: 1, Max: 2}
	succs := m.NewWalker().Consume("xxx")
	for _, s := range succs {
		if s.Remainder() != "x" {
			t.Errorf("remainder = %q, want %q", s.Remainder(), "x")
		}
		if s.Raw() != "xx" {
			t.Errorf("raw = %q, want %q", s.Raw(), "xx")
		}
	}
}

func TestCharsetBlacklist(t *testing.T) {
	m := &Charset{Black: "\"\\", Min: 1}
	succs := m.NewWalker().Consume(`ab"cd`)
	if len(succs) != 1 {
		t.Fatalf("successors = %d, want 1", len(succs))
	}
	if succs[0].Raw() != "ab" {
		t.Errorf("raw = %q, want %q", succs[0].Raw(), "ab")
	}
}

func TestCharsetGrayTermination(t *testing.T) {
	m := &Charset{White: "ab", Gray: "-", Min: 1}
	succs := m.NewWalker().Consume("a-b")

	var sawStop, sawFull bool
	for _, s := range succs {
		switch {
		case s.Raw() == "a" && s.Remainder() == "-b":
			sawStop = true
		case s.Raw() == "a-b" && s.Remainder() == "":
			sawFull = true
		}
	}
	if !sawStop {
		t.Error("missing branch that stops the run at the graylist character")
	}
	if !sawFull {
		t.Error("missing branch that includes the graylist character")
	}
}

func TestCharsetCaseFold(t *testing.T) {
	m := &Charset{White: "abc", Min: 1, CaseFold: true}
	got := acceptedOf(settle(m, "AbC"))
	if len(got) == 0 {
		t.Fatal("expected case-folded input to be accepted")
	}
	if got[0].Raw() != "AbC" {
		t.Errorf("raw = %q, original casing should be preserved", got[0].Raw())
	}
}

func TestCharsetContinuations(t *testing.T) {
	free := &Charset{Black: "\"", Min: 1}
	if c := free.NewWalker().Continuations(); !c.Any {
		t.Error("blacklist-only charset should continue with any character")
	}

	bounded := &Charset{White: "ab", Min: 1, Max: 1}
	w := bounded.NewWalker().Consume("a")[0]
	if c := w.Continuations(); !c.Empty() {
		t.Errorf("continuations after max length = %+v, want empty", c)
	}
}
