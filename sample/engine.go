package sample

import (
	"fmt"
	"hash/fnv"
	"log/slog"
	"math"
	"reflect"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/proxy-structuring/pse/envconfig"
	"github.com/proxy-structuring/pse/grammar"
	"github.com/proxy-structuring/pse/model"
)

// maxForcedSteps bounds one fast-forward pass.
const maxForcedSteps = 4096

// Engine drives one constrained generation: it owns the live hypothesis
// set, computes token masks, advances on sampled tokens, and reconstructs
// the final value. An Engine is not safe for concurrent use.
type Engine struct {
	session string
	graph   *grammar.Graph
	vocab   *model.Vocabulary
	index   *vocabIndex
	logger  *slog.Logger

	maxWalkers   int
	maxResamples int
	maskParallel int
	fastForward  bool
	cache        *maskCache

	walkers    []grammar.Walker
	text       strings.Builder
	healStreak int
	finished   bool

	// proc decomposes forced text into tokens, built on first use.
	proc *model.LongestMatch
}

type Option func(*Engine)

func WithLogger(l *slog.Logger) Option { return func(e *Engine) { e.logger = l } }

func WithMaxWalkers(n int) Option { return func(e *Engine) { e.maxWalkers = n } }

func WithMaxResamples(n int) Option { return func(e *Engine) { e.maxResamples = n } }

func WithMaskParallel(n int) Option { return func(e *Engine) { e.maskParallel = n } }

func WithoutFastForward() Option { return func(e *Engine) { e.fastForward = false } }

// NewEngine binds a sealed grammar to a vocabulary. Defaults come from the
// environment; options override.
func NewEngine(g *grammar.Graph, vocab *model.Vocabulary, opts ...Option) (*Engine, error) {
	if g == nil {
		return nil, fmt.Errorf("sample: nil grammar")
	}
	if vocab == nil || vocab.Size() == 0 {
		return nil, fmt.Errorf("sample: empty vocabulary")
	}

	e := &Engine{
		session:      uuid.New().String(),
		graph:        g,
		vocab:        vocab,
		index:        newVocabIndex(vocab),
		logger:       slog.Default(),
		maxWalkers:   envconfig.MaxWalkers,
		maxResamples: envconfig.MaxResamples,
		maskParallel: envconfig.MaskParallel,
		fastForward:  !envconfig.NoFastForward,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.cache = newMaskCache(envconfig.MaskCache)
	e.logger = e.logger.With("session", e.session)
	e.Reset()
	return e, nil
}

// Session returns the engine's generation id.
func (e *Engine) Session() string { return e.session }

// Reset rewinds the engine to the grammar's start.
func (e *Engine) Reset() {
	e.walkers = []grammar.Walker{e.graph.NewWalker()}
	e.text.Reset()
	e.healStreak = 0
	e.finished = false
}

// Text returns everything consumed so far, healed prefixes and forced text
// included.
func (e *Engine) Text() string { return e.text.String() }

// Complete reports whether generation could stop here: some hypothesis is
// at an accept state.
func (e *Engine) Complete() bool {
	if e.finished {
		return true
	}
	for _, w := range e.walkers {
		if w.Accepted() {
			return true
		}
	}
	return false
}

// Finished reports whether the engine saw EOS.
func (e *Engine) Finished() bool { return e.finished }

// StepResult describes one Advance.
type StepResult struct {
	Token int32

	// Text is the token's decoded text.
	Text string

	// Consumed is what actually entered the grammar. It is a strict
	// prefix of Text when the token was healed.
	Consumed string

	Healed bool

	// Forced is text appended by fast-forward after the token.
	Forced string
}

// Advance feeds one sampled token into the grammar. Tokens that cannot be
// consumed whole are healed down to their longest consumable prefix. A
// token with no consumable prefix at all is ErrHealingExhausted; too many
// consecutive healed tokens stop the generation with ErrResampleLimit.
func (e *Engine) Advance(id int32) (*StepResult, error) {
	if e.finished {
		return nil, ErrNoValidContinuation
	}
	if e.vocab.Is(id, model.SpecialEOS) {
		if !e.Complete() {
			return nil, ErrHealingExhausted
		}
		e.finished = true
		e.logger.Debug("eos accepted", "text", e.text.Len())
		return &StepResult{Token: id}, nil
	}

	text := e.vocab.Decode(id)
	if text == "" {
		return nil, ErrHealingExhausted
	}

	res := &StepResult{Token: id, Text: text}
	full, partial, consumed := e.offer(text)
	switch {
	case len(full) > 0:
		e.walkers = full
		e.healStreak = 0
		res.Consumed = text
	case consumed > 0:
		e.healStreak++
		if e.healStreak > e.maxResamples {
			return nil, ErrResampleLimit
		}
		e.walkers = partial
		res.Consumed = text[:consumed]
		res.Healed = true
		e.logger.Debug("token healed", "token", id, "text", text, "consumed", res.Consumed, "streak", e.healStreak)
	default:
		return nil, ErrHealingExhausted
	}

	if e.fastForward {
		res.Forced = e.forceForward()
	}
	e.text.WriteString(res.Consumed + res.Forced)
	return res, nil
}

// offer feeds text to every live hypothesis. full holds successors that
// consumed everything; partial holds the successors sharing the longest
// consumed prefix, whose length is returned.
func (e *Engine) offer(text string) (full, partial []grammar.Walker, maxConsumed int) {
	for _, w := range e.walkers {
		for _, s := range w.Consume(text) {
			rem := s.Remainder()
			if rem == "" {
				full = append(full, s)
				continue
			}
			c := len(text) - len(rem)
			if c <= 0 {
				continue
			}
			switch {
			case c > maxConsumed:
				maxConsumed = c
				partial = append(partial[:0], s)
			case c == maxConsumed:
				partial = append(partial, s)
			}
		}
	}
	return e.dedupe(full), e.dedupe(partial), maxConsumed
}

// dedupe drops hypotheses with identical signatures and caps the set.
func (e *Engine) dedupe(walkers []grammar.Walker) []grammar.Walker {
	seen := make(map[string]bool, len(walkers))
	out := walkers[:0]
	for _, w := range walkers {
		sig := w.Signature()
		if seen[sig] {
			continue
		}
		seen[sig] = true
		out = append(out, w)
	}
	if len(out) > e.maxWalkers {
		e.logger.Warn("hypothesis set capped", "walkers", len(out), "max", e.maxWalkers)
		out = out[:e.maxWalkers]
	}
	return out
}

// hints merges the continuation hints of every live hypothesis.
func (e *Engine) hints() grammar.Continuations {
	var c grammar.Continuations
	for _, w := range e.walkers {
		h := w.Continuations()
		c.Any = c.Any || h.Any
		c.Literals = append(c.Literals, h.Literals...)
		c.Runes = append(c.Runes, h.Runes...)
	}
	return c
}

// ValidTokens returns the ids of vocabulary tokens the grammar can consume
// whole at this point. EOS is handled separately by MaskLogits.
func (e *Engine) ValidTokens() ([]int32, error) {
	if e.finished {
		return nil, nil
	}

	key := e.cacheKey()
	if ids, ok := e.cache.get(key); ok {
		return ids, nil
	}

	candidates := e.candidates()
	valid, err := e.validate(candidates)
	if err != nil {
		return nil, err
	}
	e.cache.put(key, valid)
	return valid, nil
}

// candidates narrows the vocabulary using continuation hints. The result
// may overapproximate; validate decides.
func (e *Engine) candidates() []int32 {
	hints := e.hints()
	if hints.Empty() {
		return nil
	}
	if hints.Any {
		return e.index.all()
	}

	set := make(map[int32]struct{})
	for _, lit := range hints.Literals {
		for _, id := range e.index.prefixesOf(lit) {
			set[id] = struct{}{}
		}
		r, _ := utf8.DecodeRuneInString(lit)
		for _, id := range e.index.startingWith(r) {
			set[id] = struct{}{}
		}
	}
	for _, r := range hints.Runes {
		for _, id := range e.index.startingWith(r) {
			set[id] = struct{}{}
		}
	}

	out := make([]int32, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	slices.Sort(out)
	return out
}

// validate keeps the candidates some hypothesis consumes whole. Walkers
// are immutable, so validation shards safely across goroutines.
func (e *Engine) validate(candidates []int32) ([]int32, error) {
	if len(candidates) == 0 {
		return nil, nil
	}

	shards := e.maskParallel
	if shards <= 1 || len(candidates) < 2*shards {
		return e.validateShard(candidates), nil
	}

	results := make([][]int32, shards)
	var g errgroup.Group
	chunk := (len(candidates) + shards - 1) / shards
	for i := 0; i < shards; i++ {
		i := i
		lo := i * chunk
		hi := min(lo+chunk, len(candidates))
		if lo >= hi {
			break
		}
		g.Go(func() error {
			results[i] = e.validateShard(candidates[lo:hi])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var out []int32
	for _, r := range results {
		out = append(out, r...)
	}
	return out, nil
}

func (e *Engine) validateShard(candidates []int32) []int32 {
	var out []int32
	for _, id := range candidates {
		text := e.vocab.Decode(id)
		if e.consumable(text) {
			out = append(out, id)
		}
	}
	return out
}

func (e *Engine) consumable(text string) bool {
	for _, w := range e.walkers {
		for _, s := range w.Consume(text) {
			if s.Remainder() == "" {
				return true
			}
		}
	}
	return false
}

// MaskLogits sets the logits of invalid tokens to -Inf in place. EOS stays
// valid only when some hypothesis is at an accept state.
func (e *Engine) MaskLogits(logits []float32) error {
	if len(logits) != e.vocab.Size() {
		return fmt.Errorf("sample: %d logits for %d tokens", len(logits), e.vocab.Size())
	}
	valid, err := e.ValidTokens()
	if err != nil {
		return err
	}

	allowed := make(map[int32]struct{}, len(valid))
	for _, id := range valid {
		allowed[id] = struct{}{}
	}
	if e.Complete() {
		for _, id := range e.vocab.EOS {
			allowed[id] = struct{}{}
		}
	}
	if len(allowed) == 0 {
		return ErrNoValidContinuation
	}

	ninf := float32(math.Inf(-1))
	for i := range logits {
		if _, ok := allowed[int32(i)]; !ok {
			logits[i] = ninf
		}
	}
	return nil
}

// FastForward commits text while the grammar admits exactly one
// continuation, independent of any sampled token. It returns the forced
// text and a greedy token decomposition of it; the decomposition is nil
// when the vocabulary cannot express the text exactly.
func (e *Engine) FastForward() (string, []int32) {
	if e.finished {
		return "", nil
	}
	forced := e.forceForward()
	if forced == "" {
		return "", nil
	}
	e.text.WriteString(forced)

	if e.proc == nil {
		e.proc = model.NewLongestMatch(e.vocab)
	}
	ids, err := e.proc.Encode(forced)
	if err != nil {
		return forced, nil
	}
	return forced, ids
}

// forceForward advances the hypotheses while the grammar admits exactly
// one continuation and returns the forced text. Each forced step is
// validated by consuming it; a step no hypothesis survives is rolled back
// by never committing it.
func (e *Engine) forceForward() string {
	var sb strings.Builder
	for i := 0; i < maxForcedSteps; i++ {
		if e.Complete() {
			break
		}
		hints := e.hints()
		if hints.Any || hints.Empty() {
			break
		}
		lcp := forcedPrefix(hints)
		if lcp == "" {
			break
		}

		var full []grammar.Walker
		for _, w := range e.walkers {
			for _, s := range w.Consume(lcp) {
				if s.Remainder() == "" {
					full = append(full, s)
				}
			}
		}
		if len(full) == 0 {
			break
		}
		e.walkers = e.dedupe(full)
		sb.WriteString(lcp)
	}
	if sb.Len() > 0 {
		e.logger.Debug("fast-forward", "forced", sb.String())
	}
	return sb.String()
}

// forcedPrefix returns the longest prefix shared by every continuation
// hint. Every valid next text begins with one of the hints, so it begins
// with this prefix too.
func forcedPrefix(c grammar.Continuations) string {
	var all []string
	all = append(all, c.Literals...)
	for _, r := range c.Runes {
		all = append(all, string(r))
	}
	if len(all) == 0 {
		return ""
	}
	lcp := all[0]
	for _, s := range all[1:] {
		n := 0
		for n < len(lcp) && n < len(s) && lcp[n] == s[n] {
			n++
		}
		lcp = lcp[:n]
		if lcp == "" {
			break
		}
	}
	return lcp
}

// Resolve ranks candidate tokens against the live hypothesis set and
// returns the winning class: accept-state tokens beat the rest, clean
// consumption beats healed, then score, then length. Exact ties all
// survive. Scores come from the static vocabulary; ResolveScored takes the
// step's own distribution instead.
func (e *Engine) Resolve(candidates []int32) ([]int32, error) {
	return e.resolveWith(candidates, e.vocab.Score)
}

// ResolveScored ranks candidates like Resolve but scores each token from
// the given per-id slice, typically the step's masked logits.
func (e *Engine) ResolveScored(candidates []int32, scores []float32) ([]int32, error) {
	return e.resolveWith(candidates, func(id int32) float32 {
		if int(id) >= len(scores) {
			return 0
		}
		return scores[id]
	})
}

func (e *Engine) resolveWith(candidates []int32, score func(int32) float32) ([]int32, error) {
	var deltas []delta
	for _, id := range candidates {
		text := e.vocab.Decode(id)
		if text == "" {
			continue
		}
		var full, partial bool
		var accept bool
		for _, w := range e.walkers {
			for _, s := range w.Consume(text) {
				rem := s.Remainder()
				if rem == "" {
					full = true
					accept = accept || s.Accepted()
				} else if len(text)-len(rem) > 0 {
					partial = true
				}
			}
		}
		if !full && !partial {
			continue
		}
		deltas = append(deltas, delta{
			id:     id,
			text:   text,
			score:  score(id),
			healed: !full,
			accept: accept && full,
		})
	}

	best := resolve(deltas)
	if len(best) == 0 {
		return nil, ErrNoValidContinuation
	}
	out := make([]int32, len(best))
	for i, d := range best {
		out[i] = d.id
	}
	return out, nil
}

// FinalValue reconstructs the generated value. All accepted hypotheses
// must agree; disagreement is ErrAmbiguousResult and Candidates lists the
// alternatives.
func (e *Engine) FinalValue() (any, error) {
	values, err := e.Candidates()
	if err != nil {
		return nil, err
	}
	if len(values) > 1 {
		return nil, ErrAmbiguousResult
	}
	return values[0], nil
}

// Candidates returns the distinct values of every accepted hypothesis.
func (e *Engine) Candidates() ([]any, error) {
	var values []any
	var lastErr error
	for _, w := range e.walkers {
		if !w.Accepted() {
			continue
		}
		v, err := w.Value()
		if err != nil {
			lastErr = err
			continue
		}
		if !slices.ContainsFunc(values, func(o any) bool { return reflect.DeepEqual(o, v) }) {
			values = append(values, v)
		}
	}
	if len(values) == 0 {
		if lastErr != nil {
			return nil, lastErr
		}
		return nil, ErrIncomplete
	}
	return values, nil
}

func (e *Engine) cacheKey() uint64 {
	sigs := make([]string, len(e.walkers))
	for i, w := range e.walkers {
		sigs[i] = w.Signature()
	}
	slices.Sort(sigs)
	h := fnv.New64a()
	for _, s := range sigs {
		h.Write([]byte(s))
		h.Write([]byte{0})
	}
	return h.Sum64()
}
