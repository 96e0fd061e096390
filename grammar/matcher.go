// Package grammar implements the state-machine core for grammar-constrained
// generation: terminal matchers, composite matchers, and the sealed state
// graph that walkers traverse while consuming model output one token at a
// time.
package grammar

// Matcher is one rule in a grammar: a literal, a character class, or a
// composition of other matchers. Matchers are immutable once built; all
// matching progress lives in Walkers.
type Matcher interface {
	// NewWalker returns a fresh cursor positioned before any input.
	NewWalker() Walker

	// Optional reports whether the matcher can complete on zero input.
	Optional() bool
}

// Walker is an immutable cursor over a Matcher. Consume never mutates the
// receiver; it returns zero or more successor walkers, one per surviving
// hypothesis. An empty result means the hypothesis is dead.
type Walker interface {
	Consume(chunk string) []Walker

	// Accepted reports whether the walker is at a valid stopping point.
	Accepted() bool

	// Remainder returns input the walker could not consume during the
	// most recent Consume. A non-empty remainder on a live walker is the
	// raw material for token healing.
	Remainder() string

	// Raw returns the exact text consumed so far.
	Raw() string

	// Value returns the reconstructed semantic value for the text
	// consumed so far.
	Value() (any, error)

	// Continuations describes what the walker can accept next. It may
	// overapproximate, it must never miss a valid continuation.
	Continuations() Continuations

	// Signature identifies the hypothesis for deduplication. Two walkers
	// with equal signatures are interchangeable.
	Signature() string
}

// Continuations is the hint set used to select candidate tokens before
// validation. Hints narrow the search; walkers remain the authority on
// whether a token is actually consumable.
type Continuations struct {
	// Any means any character can continue the match, e.g. a free text
	// scan ahead of a delimiter.
	Any bool

	// Literals are exact strings that continue the match.
	Literals []string

	// Runes are single characters that continue the match.
	Runes []rune
}

func (c *Continuations) addLiteral(s string) {
	if s != "" {
		c.Literals = append(c.Literals, s)
	}
}

func (c *Continuations) merge(o Continuations) {
	c.Any = c.Any || o.Any
	c.Literals = append(c.Literals, o.Literals...)
	c.Runes = append(c.Runes, o.Runes...)
}

// Empty reports whether no continuation is possible.
func (c Continuations) Empty() bool {
	return !c.Any && len(c.Literals) == 0 && len(c.Runes) == 0
}
