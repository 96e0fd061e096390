package grammar

import (
	"encoding/json"
	"fmt"
	"strconv"
	"sync"

	"github.com/proxy-structuring/pse/grammar/jsonschema"
)

// FromSchemaBytes compiles a JSON schema document into a sealed Graph.
func FromSchemaBytes(buf []byte) (*Graph, error) {
	var s jsonschema.Schema
	if err := json.Unmarshal(buf, &s); err != nil {
		return nil, configErrorf("invalid schema: %v", err)
	}
	if s.Name == "" {
		s.Name = "root"
	}
	return FromSchema(&s)
}

// FromSchema compiles a decoded JSON schema into a sealed Graph. Malformed
// or unsupported schemas fail here, before any generation begins.
func FromSchema(s *jsonschema.Schema) (*Graph, error) {
	m, err := compileSchema(s)
	if err != nil {
		return nil, err
	}
	if g, ok := m.(*Graph); ok {
		return g, nil
	}
	return wrap(s.Name, m, nil)
}

// member is a compiled object member: one key/value pair.
type member struct {
	name  string
	value any
}

// ws matches optional JSON whitespace.
func ws() Matcher {
	return &Charset{White: " \t\n\r", Min: 0, Max: -1}
}

// wrap builds a sealed two-state graph around a single matcher.
func wrap(name string, m Matcher, reduce ReduceFunc) (*Graph, error) {
	g := NewGraph(name)
	a := g.AddState()
	b := g.AddState()
	g.SetStart(a)
	g.AddEnd(b)
	g.AddTransition(a, m, b)
	g.WithReduce(reduce)
	if err := g.Seal(); err != nil {
		return nil, err
	}
	return g, nil
}

func compileSchema(s *jsonschema.Schema) (Matcher, error) {
	if s.Pattern != "" {
		return nil, configErrorf("%s: pattern %q is not supported", s.Name, s.Pattern)
	}
	if len(s.Enum) > 0 {
		return compileEnum(s)
	}

	switch typ := s.EffectiveType(); typ {
	case "object":
		return compileObject(s)
	case "array":
		return compileArray(s)
	case "string":
		return compileString(s)
	case "integer":
		return compileInteger(s)
	case "number":
		return compileNumber(s)
	case "boolean":
		return compileBoolean()
	case "null":
		return compileNull()
	case "value":
		return compileValue()
	default:
		return nil, configErrorf("%s: unsupported type %q", s.Name, typ)
	}
}

func compileEnum(s *jsonschema.Schema) (Matcher, error) {
	items := make([]Matcher, 0, len(s.Enum))
	for _, e := range s.Enum {
		if len(e) == 0 {
			return nil, configErrorf("%s: empty enum value", s.Name)
		}
		items = append(items, &Literal{Text: string(e)})
	}
	return wrap("enum", &Choice{Items: items}, func(_ []any, raw string) (any, error) {
		var v any
		if err := json.Unmarshal([]byte(raw), &v); err != nil {
			return nil, fmt.Errorf("enum value %q: %w", raw, err)
		}
		return v, nil
	})
}

func compileString(s *jsonschema.Schema) (Matcher, error) {
	normal := &Charset{Black: "\"\\", Min: 1, Max: -1}
	escape := &Choice{Items: []Matcher{
		&Sequence{Items: []Matcher{
			&Literal{Text: `\`},
			&Charset{White: `"\/bfnrt`, Min: 1, Max: 1},
		}},
		&Sequence{Items: []Matcher{
			&Literal{Text: `\u`},
			&Charset{White: "0123456789abcdefABCDEF", Min: 4, Max: 4},
		}},
	}}

	var contents Matcher
	if s.MinLength > 0 || s.MaxLength > 0 {
		// per-character repetition so the length bounds hold
		max := s.MaxLength
		if max <= 0 {
			max = -1
		}
		one := &Charset{Black: "\"\\", Min: 1, Max: 1}
		contents = &Repeat{Item: &Choice{Items: []Matcher{one, escape}}, Min: s.MinLength, Max: max}
	} else {
		contents = &Repeat{Item: &Choice{Items: []Matcher{normal, escape}}, Min: 0, Max: -1}
	}

	seq := &Sequence{Items: []Matcher{
		&Literal{Text: `"`},
		contents,
		&Literal{Text: `"`},
	}}
	return wrap("string", seq, func(_ []any, raw string) (any, error) {
		var v string
		if err := json.Unmarshal([]byte(raw), &v); err != nil {
			return nil, fmt.Errorf("string %q: %w", raw, err)
		}
		return v, nil
	})
}

func compileInteger(s *jsonschema.Schema) (Matcher, error) {
	seq := &Sequence{Items: []Matcher{
		&Charset{White: "-", Min: 0, Max: 1},
		&Charset{White: "0123456789", Min: 1, Max: -1},
	}}
	min, max := s.Minimum, s.Maximum
	return wrap("integer", seq, func(_ []any, raw string) (any, error) {
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("integer %q: %w", raw, err)
		}
		if err := checkBounds(float64(v), min, max); err != nil {
			return nil, err
		}
		return v, nil
	})
}

func compileNumber(s *jsonschema.Schema) (Matcher, error) {
	digits := func() Matcher { return &Charset{White: "0123456789", Min: 1, Max: -1} }
	seq := &Sequence{Items: []Matcher{
		&Charset{White: "-", Min: 0, Max: 1},
		digits(),
		&Sequence{Items: []Matcher{&Literal{Text: "."}, digits()}, IsOptional: true},
		&Sequence{Items: []Matcher{
			&Charset{White: "eE", Min: 1, Max: 1},
			&Charset{White: "+-", Min: 0, Max: 1},
			digits(),
		}, IsOptional: true},
	}}
	min, max := s.Minimum, s.Maximum
	return wrap("number", seq, func(_ []any, raw string) (any, error) {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("number %q: %w", raw, err)
		}
		if err := checkBounds(v, min, max); err != nil {
			return nil, err
		}
		return v, nil
	})
}

// checkBounds applies schema numeric bounds. Each bound is checked on its
// own; nil means the schema did not set it.
func checkBounds(v float64, min, max *float64) error {
	if min != nil && v < *min {
		return fmt.Errorf("value %v below minimum %v", v, *min)
	}
	if max != nil && v > *max {
		return fmt.Errorf("value %v above maximum %v", v, *max)
	}
	return nil
}

func compileBoolean() (Matcher, error) {
	choice := &Choice{Items: []Matcher{
		&Literal{Text: "true"},
		&Literal{Text: "false"},
	}}
	return wrap("boolean", choice, func(_ []any, raw string) (any, error) {
		return raw == "true", nil
	})
}

func compileNull() (Matcher, error) {
	return wrap("null", &Literal{Text: "null"}, func(_ []any, _ string) (any, error) {
		return nil, nil
	})
}

// epsilon is the zero-length matcher used for skippable transitions.
func epsilon() Matcher { return &Sequence{IsOptional: true} }

func compileObject(s *jsonschema.Schema) (Matcher, error) {
	if len(s.Properties) == 0 {
		return compileAnyObject()
	}

	g := NewGraph("object")
	open := g.AddState()
	g.SetStart(open)

	// One state per (property index, emitted-any-member) pair. A member
	// edge carries its leading comma only when a member precedes it.
	n := len(s.Properties)
	states := make(map[[2]int]StateID, 2*(n+1))
	ensure := func(i, emitted int) StateID {
		k := [2]int{i, emitted}
		if st, ok := states[k]; ok {
			return st
		}
		st := g.AddState()
		states[k] = st
		return st
	}

	g.AddTransition(open, &Literal{Text: "{"}, ensure(0, 0))

	for i, p := range s.Properties {
		value, err := compileSchema(p)
		if err != nil {
			return nil, err
		}
		for _, emitted := range []int{0, 1} {
			// (0,1) is unreachable: no member precedes the first slot
			if i == 0 && emitted == 1 {
				continue
			}
			from := ensure(i, emitted)
			m, err := memberMatcher(p.Name, value, emitted == 1)
			if err != nil {
				return nil, err
			}
			g.AddTransition(from, m, ensure(i+1, 1))
			if !s.IsRequired(p.Name) {
				g.AddTransition(from, epsilon(), ensure(i+1, emitted))
			}
		}
	}

	end := g.AddState()
	g.AddEnd(end)
	closing := &Sequence{Items: []Matcher{ws(), &Literal{Text: "}"}}}
	for _, emitted := range []int{0, 1} {
		if from, ok := states[[2]int{n, emitted}]; ok {
			g.AddTransition(from, closing, end)
		}
	}

	g.WithReduce(func(children []any, _ string) (any, error) {
		out := make(map[string]any, n)
		for _, c := range children {
			if m, ok := c.(member); ok {
				out[m.name] = m.value
			}
		}
		return out, nil
	})
	if err := g.Seal(); err != nil {
		return nil, err
	}
	return g, nil
}

// memberMatcher matches one `"name": value` member, with a leading comma
// when another member precedes it.
func memberMatcher(name string, value Matcher, comma bool) (Matcher, error) {
	items := []Matcher{}
	if comma {
		items = append(items, ws(), &Literal{Text: ","})
	}
	items = append(items,
		ws(),
		&Literal{Text: strconv.Quote(name)},
		ws(),
		&Literal{Text: ":"},
		ws(),
		value,
	)
	seq := &Sequence{Items: items}
	return wrap("member", seq, func(children []any, _ string) (any, error) {
		parts, ok := children[0].([]any)
		if !ok || len(parts) == 0 {
			return nil, fmt.Errorf("member %q: malformed parts", name)
		}
		return member{name: name, value: parts[len(parts)-1]}, nil
	})
}

func compileArray(s *jsonschema.Schema) (Matcher, error) {
	if len(s.PrefixItems) > 0 {
		return compileTuple(s)
	}

	var elem Matcher
	var err error
	if s.Items != nil && s.Items.EffectiveType() != "value" {
		elem, err = compileSchema(s.Items)
	} else {
		elem, err = compileValue()
	}
	if err != nil {
		return nil, err
	}

	max := s.MaxItems
	if max <= 0 {
		max = -1
	}
	g := arrayGraph(elem, s.MinItems, max)
	if err := g.Seal(); err != nil {
		return nil, err
	}
	return g, nil
}

// arrayGraph builds `[ elem (, elem)* ]` with repetition bounds. The graph
// is left unsealed so elem may reference a grammar still under construction.
func arrayGraph(elem Matcher, min, max int) *Graph {
	item := NewGraph("item")
	ia := item.AddState()
	ib := item.AddState()
	item.SetStart(ia)
	item.AddEnd(ib)
	item.AddTransition(ia, &Sequence{Items: []Matcher{ws(), elem}}, ib)
	item.WithReduce(func(children []any, _ string) (any, error) {
		parts := children[0].([]any)
		return parts[1], nil
	})

	seq := &Sequence{Items: []Matcher{
		&Literal{Text: "["},
		&Repeat{
			Item: item,
			Sep:  &Sequence{Items: []Matcher{ws(), &Literal{Text: ","}}},
			Min:  min,
			Max:  max,
		},
		ws(),
		&Literal{Text: "]"},
	}}

	g := NewGraph("array")
	a := g.AddState()
	b := g.AddState()
	g.SetStart(a)
	g.AddEnd(b)
	g.AddTransition(a, seq, b)
	g.WithReduce(func(children []any, _ string) (any, error) {
		parts := children[0].([]any)
		if parts[1] == nil {
			return []any{}, nil
		}
		list, ok := parts[1].([]any)
		if !ok {
			return nil, fmt.Errorf("array: malformed items")
		}
		return list, nil
	})
	return g
}

// valueOnce builds the shared recursive grammar for arbitrary JSON values.
// Sealed graphs are read-only, so one instance serves every schema that
// leaves a position untyped.
var valueOnce = sync.OnceValues(buildValueGraph)

func compileValue() (Matcher, error) {
	return valueOnce()
}

func buildValueGraph() (*Graph, error) {
	value := NewGraph("value")
	a := value.AddState()
	b := value.AddState()
	value.SetStart(a)
	value.AddEnd(b)

	str, err := compileString(&jsonschema.Schema{})
	if err != nil {
		return nil, err
	}
	num, err := compileNumber(&jsonschema.Schema{})
	if err != nil {
		return nil, err
	}
	boolean, err := compileBoolean()
	if err != nil {
		return nil, err
	}
	null, err := compileNull()
	if err != nil {
		return nil, err
	}

	// object and array close the cycle back to value; they stay unsealed
	// until the value graph seals the whole structure
	choice := &Choice{Items: []Matcher{
		str,
		num,
		boolean,
		null,
		anyObjectGraph(value),
		arrayGraph(value, 0, -1),
	}}
	value.AddTransition(a, choice, b)
	if err := value.Seal(); err != nil {
		return nil, err
	}
	return value, nil
}

// compileAnyObject handles object schemas with no declared properties:
// arbitrary string keys mapped to arbitrary values.
func compileAnyObject() (Matcher, error) {
	value, err := compileValue()
	if err != nil {
		return nil, err
	}
	g := anyObjectGraph(value)
	if err := g.Seal(); err != nil {
		return nil, err
	}
	return g, nil
}

// anyObjectGraph builds `{ "key": value (, "key": value)* }` for arbitrary
// keys. Left unsealed, like arrayGraph.
func anyObjectGraph(value Matcher) *Graph {
	key, err := compileString(&jsonschema.Schema{})
	if err != nil {
		// the empty string schema always compiles
		panic(err)
	}

	pair := NewGraph("member")
	pa := pair.AddState()
	pb := pair.AddState()
	pair.SetStart(pa)
	pair.AddEnd(pb)
	pair.AddTransition(pa, &Sequence{Items: []Matcher{
		ws(),
		key,
		ws(),
		&Literal{Text: ":"},
		ws(),
		value,
	}}, pb)
	pair.WithReduce(func(children []any, _ string) (any, error) {
		parts := children[0].([]any)
		name, ok := parts[1].(string)
		if !ok {
			return nil, fmt.Errorf("object member: malformed key")
		}
		return member{name: name, value: parts[5]}, nil
	})

	seq := &Sequence{Items: []Matcher{
		&Literal{Text: "{"},
		&Repeat{
			Item: pair,
			Sep:  &Sequence{Items: []Matcher{ws(), &Literal{Text: ","}}},
			Min:  0,
			Max:  -1,
		},
		ws(),
		&Literal{Text: "}"},
	}}

	g := NewGraph("object")
	a := g.AddState()
	b := g.AddState()
	g.SetStart(a)
	g.AddEnd(b)
	g.AddTransition(a, seq, b)
	g.WithReduce(func(children []any, _ string) (any, error) {
		parts := children[0].([]any)
		out := map[string]any{}
		if parts[1] == nil {
			return out, nil
		}
		members, ok := parts[1].([]any)
		if !ok {
			return nil, fmt.Errorf("object: malformed members")
		}
		for _, c := range members {
			if m, ok := c.(member); ok {
				out[m.name] = m.value
			}
		}
		return out, nil
	})
	return g
}

// compileTuple handles prefixItems: a fixed head of typed positions, plus
// unbounded extra items when Items is set.
func compileTuple(s *jsonschema.Schema) (Matcher, error) {
	items := []Matcher{&Literal{Text: "["}}
	for i, p := range s.PrefixItems {
		elem, err := compileSchema(p)
		if err != nil {
			return nil, err
		}
		if i > 0 {
			items = append(items, ws(), &Literal{Text: ","})
		}
		items = append(items, ws(), elem)
	}
	if s.Items != nil {
		extra, err := compileSchema(s.Items)
		if err != nil {
			return nil, err
		}
		rest, err := wrap("item", &Sequence{Items: []Matcher{&Literal{Text: ","}, ws(), extra}}, func(children []any, _ string) (any, error) {
			parts := children[0].([]any)
			return parts[2], nil
		})
		if err != nil {
			return nil, err
		}
		items = append(items, &Repeat{Item: rest, Min: 0, Max: -1})
	}
	items = append(items, ws(), &Literal{Text: "]"})

	head := len(s.PrefixItems)
	extras := s.Items != nil
	return wrap("tuple", &Sequence{Items: items}, func(children []any, _ string) (any, error) {
		parts := children[0].([]any)
		out := make([]any, 0, head)
		// layout: "[", ws elem, (ws "," ws elem)*, rest?, ws "]"
		for i := 0; i < head; i++ {
			out = append(out, parts[2+4*i])
		}
		if extras {
			if list, ok := parts[4*head-1].([]any); ok {
				out = append(out, list...)
			}
		}
		return out, nil
	})
}
