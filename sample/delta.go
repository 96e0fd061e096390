package sample

// delta is the outcome of offering one candidate token to the live
// hypothesis set.
type delta struct {
	id   int32
	text string

	// score is the vocabulary score of the token.
	score float32

	// healed means only a prefix of the token was consumable.
	healed bool

	// accept means some hypothesis reaches an accept state after the
	// token.
	accept bool
}

// compare orders two deltas. The ordering is strict and total up to exact
// ties: reaching an accept state beats not reaching one, clean consumption
// beats healed, then higher score, then longer token text. Returns >0 when
// d wins, <0 when o wins, 0 on an exact tie.
func (d delta) compare(o delta) int {
	if d.accept != o.accept {
		if d.accept {
			return 1
		}
		return -1
	}
	if d.healed != o.healed {
		if o.healed {
			return 1
		}
		return -1
	}
	if d.score != o.score {
		if d.score > o.score {
			return 1
		}
		return -1
	}
	if len(d.text) != len(o.text) {
		if len(d.text) > len(o.text) {
			return 1
		}
		return -1
	}
	return 0
}

// resolve keeps the winning equivalence class: every delta that exactly
// ties the best one. The caller decides what an ambiguous class means.
func resolve(deltas []delta) []delta {
	if len(deltas) == 0 {
		return nil
	}
	best := []delta{deltas[0]}
	for _, d := range deltas[1:] {
		switch d.compare(best[0]) {
		case 1:
			best = best[:0]
			best = append(best, d)
		case 0:
			best = append(best, d)
		}
	}
	return best
}
