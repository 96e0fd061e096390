package grammar

// Delimited wraps an inner matcher between a start and end delimiter,
// tolerating free text ahead of the start delimiter. The delimiters and the
// preamble are stripped from the reconstructed value.
type Delimited struct {
	Start string
	End   string
	Inner Matcher

	// MinBuffer is forwarded to the preamble scanner.
	MinBuffer int

	// Strict rejects an interrupted start delimiter instead of folding
	// it back into the preamble.
	Strict bool

	// IsOptional allows the whole wrapped structure to be skipped.
	IsOptional bool
}

func (m *Delimited) Optional() bool { return m.IsOptional }

func (m *Delimited) NewWalker() Walker {
	seq := &Sequence{Items: []Matcher{
		&Scan{Until: &Literal{Text: m.Start}, MinBuffer: m.MinBuffer, Strict: m.Strict},
		m.Inner,
		&Literal{Text: m.End},
	}}
	return &delimitedWalker{m: m, seq: seq.NewWalker()}
}

type delimitedWalker struct {
	m   *Delimited
	seq Walker
}

func (w *delimitedWalker) Accepted() bool { return w.seq.Accepted() }

func (w *delimitedWalker) Consume(chunk string) []Walker {
	succs := w.seq.Consume(chunk)
	out := make([]Walker, 0, len(succs))
	for _, s := range succs {
		out = append(out, &delimitedWalker{m: w.m, seq: s})
	}
	return out
}

func (w *delimitedWalker) Remainder() string { return w.seq.Remainder() }
func (w *delimitedWalker) Raw() string       { return w.seq.Raw() }

// Value yields the inner matcher's value only; delimiters and preamble are
// stripped.
func (w *delimitedWalker) Value() (any, error) {
	v, err := w.seq.Value()
	if err != nil {
		return nil, err
	}
	children, ok := v.([]any)
	if !ok || len(children) != 3 {
		return nil, nil
	}
	return children[1], nil
}

func (w *delimitedWalker) Continuations() Continuations {
	return w.seq.Continuations()
}

func (w *delimitedWalker) Signature() string {
	return "del|" + w.seq.Signature()
}
