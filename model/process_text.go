package model

import (
	"fmt"
	"strings"
)

// TextProcessor converts between text and token ids.
type TextProcessor interface {
	Encode(s string) ([]int32, error)
	Decode([]int32) (string, error)
	Is(int32, Special) bool
}

// LongestMatch is a greedy reference tokenizer: at every position it emits
// the longest vocabulary entry that prefixes the remaining input. It exists
// for tests and the CLI; production token streams come from the real model
// tokenizer and are consumed as-is.
type LongestMatch struct {
	vocab *Vocabulary

	// maxLen bounds the candidate window, in bytes.
	maxLen int
}

func NewLongestMatch(vocab *Vocabulary) *LongestMatch {
	var maxLen int
	for _, v := range vocab.Values {
		maxLen = max(maxLen, len(v))
	}
	return &LongestMatch{vocab: vocab, maxLen: maxLen}
}

func (p *LongestMatch) Encode(s string) ([]int32, error) {
	var ids []int32
	for len(s) > 0 {
		n := min(p.maxLen, len(s))
		id := int32(-1)
		for ; n > 0; n-- {
			if id = p.vocab.Encode(s[:n]); id >= 0 {
				break
			}
		}
		if id < 0 {
			return nil, fmt.Errorf("model: no token matches %q", s)
		}
		ids = append(ids, id)
		s = s[n:]
	}
	return ids, nil
}

func (p *LongestMatch) Decode(ids []int32) (string, error) {
	var sb strings.Builder
	for _, id := range ids {
		if id < 0 || int(id) >= p.vocab.Size() {
			return "", fmt.Errorf("model: token id %d out of range", id)
		}
		sb.WriteString(p.vocab.Decode(id))
	}
	return sb.String(), nil
}

func (p *LongestMatch) Is(id int32, special Special) bool {
	return p.vocab.Is(id, special)
}
