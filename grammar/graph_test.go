package grammar

import (
	"errors"
	"strings"
	"testing"
)

func sealed(t *testing.T, g *Graph) *Graph {
	t.Helper()
	if err := g.Seal(); err != nil {
		t.Fatal(err)
	}
	return g
}

// boolGraph is `true | false` with a reduce to a Go bool.
func boolGraph(t *testing.T) *Graph {
	g := NewGraph("bool")
	a := g.AddState()
	b := g.AddState()
	g.SetStart(a)
	g.AddEnd(b)
	g.AddTransition(a, &Literal{Text: "true"}, b)
	g.AddTransition(a, &Literal{Text: "false"}, b)
	g.WithReduce(func(_ []any, raw string) (any, error) {
		return raw == "true", nil
	})
	return sealed(t, g)
}

func TestGraphWalk(t *testing.T) {
	g := boolGraph(t)

	got := firstValue(t, settle(g, "true"))
	if got != true {
		t.Errorf("value = %v, want true", got)
	}
	got = firstValue(t, settle(g, "fa", "lse"))
	if got != false {
		t.Errorf("value = %v, want false", got)
	}
}

func TestGraphEndStateRemainder(t *testing.T) {
	g := boolGraph(t)

	// input past the accept state stays unconsumed so the engine can
	// heal the token down to the consumed prefix
	var sawDone bool
	for _, w := range g.NewWalker().Consume("trueX") {
		if w.Accepted() && w.Remainder() == "X" && w.Raw() == "true" {
			sawDone = true
		}
	}
	if !sawDone {
		t.Error("accept state should surface the unconsumed tail")
	}
}

func TestGraphStuckWalker(t *testing.T) {
	g := boolGraph(t)

	// "tr" consumes, then only the "u" of "uZ" can follow: the hypothesis
	// survives with the unconsumable tail attached instead of vanishing
	live := settle(g, "tr")
	if len(live) == 0 {
		t.Fatal("prefix of a valid literal should keep the walker alive")
	}
	var sawStuck bool
	for _, w := range live {
		for _, s := range w.Consume("uZ") {
			if !s.Accepted() && s.Remainder() == "Z" && s.Raw() == "tru" {
				sawStuck = true
			}
		}
	}
	if !sawStuck {
		t.Error("expected a stuck walker carrying the unconsumed tail")
	}

	// zero progress kills the hypothesis outright
	for _, w := range live {
		if succs := w.Consume("ab"); len(succs) != 0 {
			t.Errorf("diverging input should kill the walker, got %d successors", len(succs))
		}
	}
}

func TestGraphOptionalTransitionSkip(t *testing.T) {
	g := NewGraph("padded")
	a := g.AddState()
	b := g.AddState()
	c := g.AddState()
	g.SetStart(a)
	g.AddEnd(c)
	g.AddTransition(a, &Charset{White: " ", Min: 0}, b)
	g.AddTransition(b, &Literal{Text: "x"}, c)
	sealed(t, g)

	if got := acceptedOf(settle(g, "x")); len(got) == 0 {
		t.Error("optional transition should be skippable")
	}
	if got := acceptedOf(settle(g, "  x")); len(got) == 0 {
		t.Error("optional transition should match when present")
	}
}

func TestGraphNesting(t *testing.T) {
	inner := boolGraph(t)

	g := NewGraph("list")
	a := g.AddState()
	b := g.AddState()
	g.SetStart(a)
	g.AddEnd(b)
	g.AddTransition(a, &Repeat{Item: inner, Sep: &Literal{Text: ","}, Min: 1, Max: -1}, b)
	sealed(t, g)

	got := firstValue(t, settle(g, "true,false,true"))
	list, ok := got.([]any)
	if !ok || len(list) != 3 {
		t.Fatalf("value = %#v, want three booleans", got)
	}
	if list[0] != true || list[1] != false || list[2] != true {
		t.Errorf("values = %v", list)
	}
}

func TestSealValidation(t *testing.T) {
	t.Run("no states", func(t *testing.T) {
		err := NewGraph("empty").Seal()
		if err == nil || !strings.Contains(err.Error(), "no states") {
			t.Errorf("err = %v", err)
		}
		var ce *ConfigurationError
		if !errors.As(err, &ce) {
			t.Errorf("err type = %T, want ConfigurationError", err)
		}
	})

	t.Run("undefined target", func(t *testing.T) {
		g := NewGraph("bad")
		a := g.AddState()
		g.SetStart(a)
		g.AddEnd(a)
		g.AddTransition(a, &Literal{Text: "x"}, StateID(7))
		if err := g.Seal(); err == nil {
			t.Error("expected an error for an undefined target state")
		}
	})

	t.Run("no end states", func(t *testing.T) {
		g := NewGraph("bad")
		g.SetStart(g.AddState())
		if err := g.Seal(); err == nil {
			t.Error("expected an error for a graph with no end states")
		}
	})

	t.Run("empty literal", func(t *testing.T) {
		g := NewGraph("bad")
		a := g.AddState()
		g.SetStart(a)
		g.AddEnd(a)
		g.AddTransition(a, &Literal{}, a)
		if err := g.Seal(); err == nil {
			t.Error("expected an error for an empty literal")
		}
	})

	t.Run("nil matcher", func(t *testing.T) {
		g := NewGraph("bad")
		a := g.AddState()
		g.SetStart(a)
		g.AddEnd(a)
		g.AddTransition(a, nil, a)
		if err := g.Seal(); err == nil {
			t.Error("expected an error for a nil matcher")
		}
	})

	t.Run("nested composite", func(t *testing.T) {
		g := NewGraph("bad")
		a := g.AddState()
		g.SetStart(a)
		g.AddEnd(a)
		g.AddTransition(a, &Sequence{Items: []Matcher{&Literal{}}}, a)
		if err := g.Seal(); err == nil {
			t.Error("expected validation to descend into composites")
		}
	})
}

func TestUnsealedPanics(t *testing.T) {
	g := NewGraph("unsealed")
	a := g.AddState()
	g.SetStart(a)
	g.AddEnd(a)

	defer func() {
		if recover() == nil {
			t.Error("NewWalker on an unsealed graph should panic")
		}
	}()
	g.NewWalker()
}
