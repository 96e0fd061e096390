// Package sample drives grammar-constrained token acceptance: it maintains
// the set of live grammar hypotheses, computes which vocabulary tokens may
// come next, masks logits, advances on sampled tokens with healing, and
// reconstructs the final value.
package sample

import "errors"

var (
	// ErrNoValidContinuation is returned when the generation as a whole
	// cannot proceed: every candidate token is masked out or no
	// hypothesis is alive.
	ErrNoValidContinuation = errors.New("sample: no valid continuation")

	// ErrHealingExhausted is returned for a token that matches no
	// transition exactly and has no consumable prefix either, so not
	// even healing can place it.
	ErrHealingExhausted = errors.New("sample: healing exhausted")

	// ErrResampleLimit is returned when too many consecutive tokens
	// required healing; see WithMaxResamples.
	ErrResampleLimit = errors.New("sample: resample limit reached")

	// ErrIncomplete is returned when a final value is requested before
	// any hypothesis reached an accept state.
	ErrIncomplete = errors.New("sample: generation incomplete")

	// ErrAmbiguousResult is returned when accepted hypotheses disagree on
	// the reconstructed value. Candidates lists the alternatives.
	ErrAmbiguousResult = errors.New("sample: ambiguous terminal state")
)
