package sample

import (
	"sync"
	"unicode/utf8"

	"github.com/emirpasic/gods/v2/maps/treemap"

	"github.com/proxy-structuring/pse/model"
)

// vocabIndex answers "which tokens could begin here" questions against the
// continuation hints. It is built lazily on first use and then read-only.
type vocabIndex struct {
	vocab *model.Vocabulary

	once sync.Once

	// byText maps token text to the ids sharing it, ordered so literal
	// prefixes can be probed cheaply.
	byText *treemap.Map[string, []int32]

	// byFirst buckets token ids by their first rune.
	byFirst map[rune][]int32

	// textual lists every id with non-empty text, special tokens
	// excluded.
	textual []int32
}

func newVocabIndex(vocab *model.Vocabulary) *vocabIndex {
	return &vocabIndex{vocab: vocab}
}

func (x *vocabIndex) build() {
	x.once.Do(func() {
		x.byText = treemap.New[string, []int32]()
		x.byFirst = make(map[rune][]int32)
		for i, text := range x.vocab.Values {
			id := int32(i)
			if text == "" || x.vocab.Special(id) {
				continue
			}
			ids, _ := x.byText.Get(text)
			x.byText.Put(text, append(ids, id))
			r, _ := utf8.DecodeRuneInString(text)
			x.byFirst[r] = append(x.byFirst[r], id)
			x.textual = append(x.textual, id)
		}
	})
}

// all returns every textual token id.
func (x *vocabIndex) all() []int32 {
	x.build()
	return x.textual
}

// exact returns the ids whose text is exactly s.
func (x *vocabIndex) exact(s string) []int32 {
	x.build()
	ids, _ := x.byText.Get(s)
	return ids
}

// prefixesOf returns the ids of tokens whose text is a non-empty prefix of
// s, longest first.
func (x *vocabIndex) prefixesOf(s string) []int32 {
	x.build()
	var out []int32
	for n := len(s); n > 0; n-- {
		if ids, ok := x.byText.Get(s[:n]); ok {
			out = append(out, ids...)
		}
	}
	return out
}

// startingWith returns the ids of tokens whose first rune is r.
func (x *vocabIndex) startingWith(r rune) []int32 {
	x.build()
	return x.byFirst[r]
}
