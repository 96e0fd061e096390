package sample

import (
	"math"

	"github.com/emirpasic/gods/v2/queues/priorityqueue"
	"gonum.org/v1/gonum/floats"
)

// token pairs a vocabulary id with its logit, or its probability once
// softmax has run.
type token struct {
	id    int32
	value float64
}

type Transform interface {
	Apply([]token) []token
}

// softmax rewrites logits into probabilities, shifted by the max logit to
// avoid overflow.
func softmax(ts []token) []token {
	logits := make([]float64, len(ts))
	for i, t := range ts {
		logits[i] = t.value
	}
	m := floats.Max(logits)
	for i := range logits {
		logits[i] = math.Exp(logits[i] - m)
	}
	sum := floats.Sum(logits)
	floats.Scale(1/sum, logits)
	for i := range ts {
		ts[i].value = logits[i]
	}
	return ts
}

type Temperature float64

func (t Temperature) Apply(ts []token) []token {
	if t == 1 {
		return ts
	}
	temp := math.Max(float64(t), 1e-7)
	for i := range ts {
		ts[i].value /= temp
	}
	return ts
}

// TopK keeps the k highest logits, sorted descending.
type TopK int

func (k TopK) Apply(ts []token) []token {
	n := int(k)
	if n <= 0 || n > len(ts) {
		n = len(ts)
	}
	pq := priorityqueue.NewWith(func(a, b token) int {
		switch {
		case a.value > b.value:
			return -1
		case a.value < b.value:
			return 1
		default:
			return 0
		}
	})
	for _, t := range ts {
		pq.Enqueue(t)
	}
	out := make([]token, 0, n)
	for i := 0; i < n; i++ {
		t, ok := pq.Dequeue()
		if !ok {
			break
		}
		out = append(out, t)
	}
	return out
}

// TopP keeps the smallest prefix of the probability-sorted tokens whose
// cumulative mass exceeds p. Requires softmax output sorted descending.
type TopP float64

func (p TopP) Apply(ts []token) []token {
	if p <= 0 || p >= 1 {
		return ts
	}
	var sum float64
	for i, t := range ts {
		sum += t.value
		if sum > float64(p) {
			return ts[:i+1]
		}
	}
	return ts
}

// MinP drops tokens whose probability is below p times the best one.
type MinP float64

func (p MinP) Apply(ts []token) []token {
	if p <= 0 || p >= 1 {
		return ts
	}
	var maxProb float64
	for _, t := range ts {
		maxProb = math.Max(maxProb, t.value)
	}
	threshold := maxProb * float64(p)

	out := ts[:0]
	for _, t := range ts {
		if t.value >= threshold {
			out = append(out, t)
		}
	}
	return out
}
