package grammar

// Scan consumes arbitrary text until its nested matcher begins to match.
// Characters ahead of the pattern are buffered unconditionally and excluded
// from the reconstructed value. Used for "skip the preamble until ```json"
// style delimiters.
type Scan struct {
	// Until is the pattern that ends the free-text run.
	Until Matcher

	// MinBuffer is the minimum number of buffered characters before the
	// pattern may start.
	MinBuffer int

	// Strict rejects the whole scan when a started pattern match is
	// interrupted. When false the partial match is folded back into the
	// buffer and scanning resumes.
	Strict bool
}

func (m *Scan) Optional() bool { return false }

func (m *Scan) NewWalker() Walker { return &scanWalker{m: m} }

type scanWalker struct {
	m         *Scan
	buffer    string
	sub       Walker // non-nil once the pattern has started
	remainder string
}

func (w *scanWalker) Accepted() bool {
	return w.sub != nil && w.sub.Accepted()
}

func (w *scanWalker) Consume(chunk string) []Walker {
	if chunk == "" {
		return []Walker{w}
	}
	if w.sub != nil {
		return w.continuePattern(chunk)
	}
	return w.scan(chunk)
}

// scan branches on every position of chunk: the pattern may start there, or
// the character joins the buffer.
func (w *scanWalker) scan(chunk string) []Walker {
	var out []Walker
	for i := range chunk {
		if len(w.buffer)+i < w.m.MinBuffer {
			continue
		}
		sub := w.m.Until.NewWalker()
		for _, s := range sub.Consume(chunk[i:]) {
			if s.Raw() == "" {
				continue
			}
			if !s.Accepted() && s.Remainder() != "" {
				// pattern started and was interrupted within
				// this same chunk
				if w.m.Strict {
					continue
				}
				resumed := &scanWalker{m: w.m, buffer: w.buffer + chunk[:i] + s.Raw()}
				out = append(out, resumed.Consume(s.Remainder())...)
				continue
			}
			out = append(out, &scanWalker{m: w.m, buffer: w.buffer + chunk[:i], sub: s, remainder: s.Remainder()})
		}
	}
	// the branch where everything goes into the buffer
	out = append(out, &scanWalker{m: w.m, buffer: w.buffer + chunk})
	return out
}

func (w *scanWalker) continuePattern(chunk string) []Walker {
	var out []Walker
	succs := w.sub.Consume(chunk)
	if len(succs) == 0 {
		if !w.m.Strict {
			resumed := &scanWalker{m: w.m, buffer: w.buffer + w.sub.Raw()}
			out = append(out, resumed.Consume(chunk)...)
		}
		return out
	}
	for _, s := range succs {
		if !s.Accepted() && s.Remainder() != "" {
			if w.m.Strict {
				continue
			}
			resumed := &scanWalker{m: w.m, buffer: w.buffer + s.Raw()}
			out = append(out, resumed.Consume(s.Remainder())...)
			continue
		}
		out = append(out, &scanWalker{m: w.m, buffer: w.buffer, sub: s, remainder: s.Remainder()})
	}
	return out
}

func (w *scanWalker) Remainder() string { return w.remainder }

func (w *scanWalker) Raw() string {
	if w.sub == nil {
		return w.buffer
	}
	return w.buffer + w.sub.Raw()
}

// Value discards the buffered preamble and yields the pattern's value.
func (w *scanWalker) Value() (any, error) {
	if w.sub == nil {
		return nil, nil
	}
	return w.sub.Value()
}

func (w *scanWalker) Continuations() Continuations {
	var c Continuations
	if w.sub == nil || !w.m.Strict {
		c.Any = true
	}
	if w.sub != nil {
		c.merge(w.sub.Continuations())
	} else {
		c.merge(w.m.Until.NewWalker().Continuations())
	}
	return c
}

func (w *scanWalker) Signature() string {
	sig := "scan:" + w.buffer
	if w.sub != nil {
		sig += "|" + w.sub.Signature()
	}
	return sig
}
