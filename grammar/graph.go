package grammar

import (
	"fmt"
	"sort"
)

// StateID identifies a state within a Graph.
type StateID int

// Transition carries a matcher from one state to another. A transition's
// matcher may itself be a nested *Graph, which is how grammars compose
// hierarchically.
type Transition struct {
	Matcher Matcher
	Target  StateID
}

// ReduceFunc maps the values of a graph's completed transitions (plus the
// raw consumed text) to the graph's semantic value.
type ReduceFunc func(children []any, raw string) (any, error)

// Graph is a directed state graph: nodes are states, edges carry matchers.
// It is built once, sealed, and then shared read-only by any number of
// walkers. A sealed *Graph implements Matcher, so graphs nest inside the
// transitions of other graphs.
type Graph struct {
	name        string
	numStates   int
	start       StateID
	ends        map[StateID]struct{}
	transitions map[StateID][]Transition
	reduce      ReduceFunc

	sealed bool

	// emptyOK is computed at seal time: an end state is reachable from
	// the start through optional transitions alone.
	emptyOK bool
}

func NewGraph(name string) *Graph {
	return &Graph{
		name:        name,
		ends:        make(map[StateID]struct{}),
		transitions: make(map[StateID][]Transition),
	}
}

func (g *Graph) Name() string { return g.name }

// AddState allocates a new state.
func (g *Graph) AddState() StateID {
	s := StateID(g.numStates)
	g.numStates++
	return s
}

func (g *Graph) SetStart(s StateID) { g.start = s }

func (g *Graph) AddEnd(s StateID) { g.ends[s] = struct{}{} }

func (g *Graph) AddTransition(from StateID, m Matcher, to StateID) {
	g.transitions[from] = append(g.transitions[from], Transition{Matcher: m, Target: to})
}

// WithReduce attaches the value reduction hook. Must be called before Seal.
func (g *Graph) WithReduce(fn ReduceFunc) *Graph {
	g.reduce = fn
	return g
}

// Seal validates the graph and freezes it. All malformed-graph conditions
// surface here, before any generation begins.
func (g *Graph) Seal() error {
	if g.sealed {
		return nil
	}
	if g.numStates == 0 {
		return configErrorf("graph %q has no states", g.name)
	}
	if !g.valid(g.start) {
		return configErrorf("graph %q: start state %d undefined", g.name, g.start)
	}
	if len(g.ends) == 0 {
		return configErrorf("graph %q has no end states", g.name)
	}
	for s := range g.ends {
		if !g.valid(s) {
			return configErrorf("graph %q: end state %d undefined", g.name, s)
		}
	}
	// mark sealed before descending so recursive grammars terminate
	g.sealed = true
	for from, ts := range g.transitions {
		if !g.valid(from) {
			return configErrorf("graph %q: transition from undefined state %d", g.name, from)
		}
		for _, t := range ts {
			if !g.valid(t.Target) {
				return configErrorf("graph %q: transition from %d to undefined state %d", g.name, from, t.Target)
			}
			if err := g.sealMatcher(t.Matcher); err != nil {
				return err
			}
		}
	}
	g.emptyOK = g.epsilonAccepting(g.start, map[StateID]bool{})
	return nil
}

// sealMatcher validates a transition matcher, descending into composites so
// nested graphs are sealed wherever they sit.
func (g *Graph) sealMatcher(m Matcher) error {
	switch m := m.(type) {
	case nil:
		return configErrorf("graph %q: transition has no matcher", g.name)
	case *Literal:
		if m.Text == "" {
			return configErrorf("graph %q: empty literal", g.name)
		}
	case *Graph:
		return m.Seal()
	case *Sequence:
		for _, item := range m.Items {
			if err := g.sealMatcher(item); err != nil {
				return err
			}
		}
	case *Choice:
		if len(m.Items) == 0 {
			return configErrorf("graph %q: choice with no alternatives", g.name)
		}
		for _, item := range m.Items {
			if err := g.sealMatcher(item); err != nil {
				return err
			}
		}
	case *Repeat:
		if err := g.sealMatcher(m.Item); err != nil {
			return err
		}
		if m.Sep != nil {
			return g.sealMatcher(m.Sep)
		}
	case *Scan:
		return g.sealMatcher(m.Until)
	case *Delimited:
		if m.Start == "" || m.End == "" {
			return configErrorf("graph %q: delimited without delimiters", g.name)
		}
		return g.sealMatcher(m.Inner)
	}
	return nil
}

func (g *Graph) valid(s StateID) bool { return s >= 0 && int(s) < g.numStates }

func (g *Graph) isEnd(s StateID) bool {
	_, ok := g.ends[s]
	return ok
}

func (g *Graph) epsilonAccepting(s StateID, visited map[StateID]bool) bool {
	if g.isEnd(s) {
		return true
	}
	if visited[s] {
		return false
	}
	visited[s] = true
	for _, t := range g.transitions[s] {
		if t.Matcher.Optional() && g.epsilonAccepting(t.Target, visited) {
			return true
		}
	}
	return false
}

// Transitions returns the outgoing transitions of a state.
func (g *Graph) Transitions(s StateID) []Transition { return g.transitions[s] }

// States returns all state ids in order. End states are marked in Ends.
func (g *Graph) States() []StateID {
	out := make([]StateID, g.numStates)
	for i := range out {
		out[i] = StateID(i)
	}
	return out
}

// Ends returns the accepting states in ascending order.
func (g *Graph) Ends() []StateID {
	out := make([]StateID, 0, len(g.ends))
	for s := range g.ends {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (g *Graph) Start() StateID { return g.start }

// Optional reports whether the graph accepts empty input.
func (g *Graph) Optional() bool {
	g.mustBeSealed()
	return g.emptyOK
}

// NewWalker returns a walker at the graph's start state. The graph must be
// sealed.
func (g *Graph) NewWalker() Walker {
	g.mustBeSealed()
	return &graphWalker{g: g, state: g.start}
}

func (g *Graph) mustBeSealed() {
	if !g.sealed {
		panic(fmt.Sprintf("grammar: graph %q used before Seal", g.name))
	}
}
