package model

import (
	"slices"
	"sync"
)

type Special int32

const (
	SpecialBOS Special = iota
	SpecialEOS
)

const (
	TOKEN_TYPE_NORMAL = iota + 1
	TOKEN_TYPE_UNKNOWN
	TOKEN_TYPE_CONTROL
	TOKEN_TYPE_USER_DEFINED
	TOKEN_TYPE_UNUSED
	TOKEN_TYPE_BYTE
)

// Vocabulary is the model's token table: the decoded text of every token,
// its type, and its score. Token ids are indices into Values.
type Vocabulary struct {
	Values []string
	Types  []int32
	Scores []float32

	BOS, EOS []int32

	specialOnce sync.Once
	special     []string

	valuesOnce sync.Once
	values     map[string]int32
}

// Is reports whether id is one of the named special tokens.
func (v *Vocabulary) Is(id int32, special Special) bool {
	switch special {
	case SpecialBOS:
		return slices.Contains(v.BOS, id)
	case SpecialEOS:
		return slices.Contains(v.EOS, id)
	default:
		return false
	}
}

// Encode returns the id of the token whose decoded text is s, or -1.
func (v *Vocabulary) Encode(s string) int32 {
	v.valuesOnce.Do(func() {
		v.values = make(map[string]int32, len(v.Values))
		for i, value := range v.Values {
			v.values[value] = int32(i)
		}
	})

	if id, ok := v.values[s]; ok {
		return id
	}

	return -1
}

// Decode returns the text of a token id. Out-of-range ids decode to "".
func (v *Vocabulary) Decode(id int32) string {
	if id < 0 || int(id) >= len(v.Values) {
		return ""
	}
	return v.Values[id]
}

// Score returns the token's score, or 0 when scores are absent.
func (v *Vocabulary) Score(id int32) float32 {
	if id < 0 || int(id) >= len(v.Scores) {
		return 0
	}
	return v.Scores[id]
}

// Size returns the number of tokens.
func (v *Vocabulary) Size() int {
	return len(v.Values)
}

// Special reports whether id is a control or user-defined token. Special
// tokens never carry grammar text.
func (v *Vocabulary) Special(id int32) bool {
	if id < 0 || int(id) >= len(v.Types) {
		return false
	}
	return v.Types[id] == TOKEN_TYPE_CONTROL || v.Types[id] == TOKEN_TYPE_USER_DEFINED
}

func (v *Vocabulary) SpecialVocabulary() []string {
	v.specialOnce.Do(func() {
		for i := range v.Values {
			if v.Special(int32(i)) {
				v.special = append(v.special, v.Values[i])
			}
		}
	})

	return v.special
}
