package grammar

import (
	"testing"
)

func TestScanFindsPattern(t *testing.T) {
	m := &Scan{Until: &Literal{Text: "```"}}

	var found bool
	for _, w := range acceptedOf(settle(m, "some preamble ```")) {
		if w.Raw() == "some preamble ```" {
			found = true
			v, err := w.Value()
			if err != nil {
				t.Fatal(err)
			}
			if v != "```" {
				t.Errorf("value = %v, want the pattern only", v)
			}
		}
	}
	if !found {
		t.Fatal("scan never found the pattern")
	}
}

func TestScanPatternAtStart(t *testing.T) {
	m := &Scan{Until: &Literal{Text: "{"}}
	got := acceptedOf(settle(m, "{"))
	if len(got) == 0 {
		t.Fatal("pattern with no preamble should be accepted")
	}
	if got[0].Raw() != "{" {
		t.Errorf("raw = %q, want %q", got[0].Raw(), "{")
	}
}

func TestScanAcrossChunks(t *testing.T) {
	m := &Scan{Until: &Literal{Text: "```"}}
	got := acceptedOf(settle(m, "abc`", "``"))
	if len(got) == 0 {
		t.Fatal("pattern split across chunks should be accepted")
	}
	var ok bool
	for _, w := range got {
		if w.Raw() == "abc```" {
			ok = true
		}
	}
	if !ok {
		t.Error("no accepted walker consumed the full input")
	}
}

func TestScanInterruptedPattern(t *testing.T) {
	// "``x" starts the pattern and then diverges; lenient mode folds the
	// false start back into the buffer and finds the real pattern later
	m := &Scan{Until: &Literal{Text: "```"}}
	got := acceptedOf(settle(m, "a``", "x```"))
	var ok bool
	for _, w := range got {
		if w.Raw() == "a``x```" {
			ok = true
		}
	}
	if !ok {
		t.Fatal("lenient scan should recover from an interrupted pattern")
	}
}

func TestScanStrictInterrupted(t *testing.T) {
	m := &Scan{Until: &Literal{Text: "```"}, Strict: true}

	// the branch that started matching at "``" dies on "x"; the buffer-all
	// branch still finds the later pattern
	got := acceptedOf(settle(m, "a``", "x```"))
	var ok bool
	for _, w := range got {
		if w.Raw() == "a``x```" {
			ok = true
		}
	}
	if !ok {
		t.Fatal("strict scan should still accept via the buffered branch")
	}
}

func TestScanMinBuffer(t *testing.T) {
	m := &Scan{Until: &Literal{Text: "ab"}, MinBuffer: 2}
	got := acceptedOf(settle(m, "abab"))
	if len(got) == 0 {
		t.Fatal("expected the pattern to start after the buffer minimum")
	}
	for _, w := range got {
		if w.Raw() != "abab" {
			t.Errorf("raw = %q, want %q", w.Raw(), "abab")
		}
	}
}

func TestScanContinuations(t *testing.T) {
	m := &Scan{Until: &Literal{Text: "```"}}
	if c := m.NewWalker().Continuations(); !c.Any {
		t.Error("scanning walker should continue with any character")
	}
}
