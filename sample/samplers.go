package sample

import (
	"errors"
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat/sampleuv"
)

// Sampler picks a token id from masked logits. Masked-out positions carry
// -Inf and are never picked.
type Sampler struct {
	src         rand.Source
	topK        int
	topP        float64
	minP        float64
	temperature float64
}

// NewSampler clamps the parameters the way callers expect: temperature 0
// means greedy, seed -1 means a shared global source.
func NewSampler(temperature float64, topK int, topP, minP float64, seed int64) Sampler {
	var src rand.Source
	if seed != -1 {
		src = rand.NewSource(uint64(seed))
	}
	if temperature < 0 {
		temperature = 0
	}
	if topP < 0 {
		topP = 0
	}
	if topP >= 1 {
		topP = 1
	}
	if minP < 0 {
		minP = 0
	}
	if minP >= 1 {
		minP = 1
	}
	return Sampler{
		src:         src,
		topK:        topK,
		topP:        topP,
		minP:        minP,
		temperature: temperature,
	}
}

func (s Sampler) Sample(logits []float32) (int32, error) {
	if len(logits) == 0 {
		return -1, errors.New("sample: no logits")
	}

	tokens := make([]token, 0, len(logits))
	for i, l := range logits {
		if math.IsInf(float64(l), -1) {
			continue
		}
		tokens = append(tokens, token{id: int32(i), value: float64(l)})
	}
	if len(tokens) == 0 {
		return -1, ErrNoValidContinuation
	}

	if s.temperature == 0 {
		return greedy(tokens), nil
	}

	tokens = TopK(s.topK).Apply(tokens)
	tokens = Temperature(s.temperature).Apply(tokens)
	tokens = softmax(tokens)
	tokens = TopP(s.topP).Apply(tokens)
	tokens = MinP(s.minP).Apply(tokens)

	weights := make([]float64, len(tokens))
	for i, t := range tokens {
		weights[i] = t.value
	}
	idx, ok := sampleuv.NewWeighted(weights, s.src).Take()
	if !ok {
		return -1, errors.New("sample: weights sum to zero, check model output")
	}
	return tokens[idx].id, nil
}

func greedy(tokens []token) int32 {
	values := make([]float64, len(tokens))
	for i, t := range tokens {
		values[i] = t.value
	}
	return tokens[floats.MaxIdx(values)].id
}
