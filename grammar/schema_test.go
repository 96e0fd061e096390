package grammar

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func compile(t *testing.T, schema string) *Graph {
	t.Helper()
	g, err := FromSchemaBytes([]byte(schema))
	if err != nil {
		t.Fatal(err)
	}
	return g
}

// parse feeds input rune by rune and returns the first accepted value, so
// every test also exercises chunk boundaries inside multi-byte structures.
func parse(t *testing.T, g *Graph, input string) any {
	t.Helper()
	chunks := make([]string, 0, len(input))
	for _, r := range input {
		chunks = append(chunks, string(r))
	}
	return firstValue(t, settle(g, chunks...))
}

func rejects(t *testing.T, g *Graph, input string) {
	t.Helper()
	for _, w := range acceptedOf(settle(g, input)) {
		if _, err := w.Value(); err == nil {
			t.Errorf("%q should not produce a value", input)
		}
	}
}

func TestSchemaScalars(t *testing.T) {
	for _, tt := range []struct {
		name   string
		schema string
		input  string
		want   any
	}{
		{"string", `{"type":"string"}`, `"hello"`, "hello"},
		{"string escape", `{"type":"string"}`, `"a\nb\"c"`, "a\nb\"c"},
		{"string unicode escape", `{"type":"string"}`, `"é"`, "é"},
		{"empty string", `{"type":"string"}`, `""`, ""},
		{"integer", `{"type":"integer"}`, `42`, int64(42)},
		{"negative integer", `{"type":"integer"}`, `-7`, int64(-7)},
		{"number", `{"type":"number"}`, `3.25`, 3.25},
		{"number exponent", `{"type":"number"}`, `1e3`, 1000.0},
		{"true", `{"type":"boolean"}`, `true`, true},
		{"false", `{"type":"boolean"}`, `false`, false},
		{"null", `{"type":"null"}`, `null`, nil},
	} {
		t.Run(tt.name, func(t *testing.T) {
			got := parse(t, compile(t, tt.schema), tt.input)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("value mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestSchemaStringBounds(t *testing.T) {
	g := compile(t, `{"type":"string","minLength":2,"maxLength":3}`)
	if got := parse(t, g, `"ab"`); got != "ab" {
		t.Errorf("value = %v", got)
	}
	if got := acceptedOf(settle(g, `"a"`)); len(got) != 0 {
		t.Error("string below minLength accepted")
	}
	if got := acceptedOf(settle(g, `"abcd"`)); len(got) != 0 {
		t.Error("string above maxLength accepted")
	}
}

func TestSchemaNumericBounds(t *testing.T) {
	g := compile(t, `{"type":"number","minimum":1,"maximum":10}`)
	if got := parse(t, g, `5.5`); got != 5.5 {
		t.Errorf("value = %v", got)
	}
	rejects(t, g, `11`)
}

func TestSchemaSingleSidedBounds(t *testing.T) {
	// only maximum: negative values stay valid
	g := compile(t, `{"type":"integer","maximum":10}`)
	if got := parse(t, g, `-5`); got != int64(-5) {
		t.Errorf("value = %v", got)
	}
	rejects(t, g, `11`)

	// minimum of zero is a real bound, not an absent one
	g = compile(t, `{"type":"integer","minimum":0}`)
	if got := parse(t, g, `3`); got != int64(3) {
		t.Errorf("value = %v", got)
	}
	rejects(t, g, `-5`)

	g = compile(t, `{"type":"number","maximum":0}`)
	if got := parse(t, g, `-1.5`); got != -1.5 {
		t.Errorf("value = %v", got)
	}
	rejects(t, g, `0.5`)
}

func TestSchemaEnum(t *testing.T) {
	g := compile(t, `{"enum":["red","green",7]}`)
	if got := parse(t, g, `"red"`); got != "red" {
		t.Errorf("value = %v", got)
	}
	if got := parse(t, g, `7`); got != 7.0 {
		t.Errorf("value = %v", got)
	}
	if got := acceptedOf(settle(g, `"blue"`)); len(got) != 0 {
		t.Error("value outside the enum accepted")
	}
}

func TestSchemaObject(t *testing.T) {
	g := compile(t, `{
		"type": "object",
		"properties": {
			"name": {"type": "string"},
			"age": {"type": "integer"}
		},
		"required": ["name", "age"]
	}`)

	got := parse(t, g, `{"name": "alice", "age": 30}`)
	want := map[string]any{"name": "alice", "age": int64(30)}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("value mismatch (-want +got):\n%s", diff)
	}

	if got := acceptedOf(settle(g, `{"name": "alice"}`)); len(got) != 0 {
		t.Error("object missing a required property accepted")
	}
	if got := acceptedOf(settle(g, `{"age": 30, "name": "alice"}`)); len(got) != 0 {
		t.Error("out-of-order properties accepted")
	}
}

func TestSchemaOptionalProperty(t *testing.T) {
	g := compile(t, `{
		"type": "object",
		"properties": {
			"name": {"type": "string"},
			"age": {"type": "integer"}
		},
		"required": ["name"]
	}`)

	got := parse(t, g, `{"name": "bob"}`)
	want := map[string]any{"name": "bob"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("value mismatch (-want +got):\n%s", diff)
	}

	got = parse(t, g, `{"name": "bob", "age": 2}`)
	want = map[string]any{"name": "bob", "age": int64(2)}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("value mismatch (-want +got):\n%s", diff)
	}
}

func TestSchemaObjectWhitespace(t *testing.T) {
	g := compile(t, `{
		"type": "object",
		"properties": {
			"name": {"type": "string"},
			"age": {"type": "integer"}
		},
		"required": ["name", "age"]
	}`)

	// whitespace on either side of the member separator
	got := parse(t, g, "{ \"name\": \"alice\" ,\n\t\"age\": 30 }")
	want := map[string]any{"name": "alice", "age": int64(30)}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("value mismatch (-want +got):\n%s", diff)
	}
}

func TestSchemaAllOptionalObject(t *testing.T) {
	g := compile(t, `{
		"type": "object",
		"properties": {"a": {"type": "integer"}}
	}`)

	got := parse(t, g, `{}`)
	if diff := cmp.Diff(map[string]any{}, got); diff != "" {
		t.Errorf("empty object mismatch (-want +got):\n%s", diff)
	}
}

func TestSchemaArray(t *testing.T) {
	g := compile(t, `{"type":"array","items":{"type":"integer"},"minItems":2,"maxItems":3}`)

	got := parse(t, g, `[1, 2]`)
	want := []any{int64(1), int64(2)}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("value mismatch (-want +got):\n%s", diff)
	}

	if got := acceptedOf(settle(g, `[1]`)); len(got) != 0 {
		t.Error("array below minItems accepted")
	}
	if got := acceptedOf(settle(g, `[1, 2, 3, 4]`)); len(got) != 0 {
		t.Error("array above maxItems accepted")
	}
}

func TestSchemaEmptyArray(t *testing.T) {
	g := compile(t, `{"type":"array","items":{"type":"integer"}}`)
	got := parse(t, g, `[]`)
	if diff := cmp.Diff([]any{}, got); diff != "" {
		t.Errorf("empty array mismatch (-want +got):\n%s", diff)
	}
}

func TestSchemaTuple(t *testing.T) {
	g := compile(t, `{"prefixItems":[{"type":"integer"},{"type":"string"}]}`)
	got := parse(t, g, `[1, "a"]`)
	want := []any{int64(1), "a"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("value mismatch (-want +got):\n%s", diff)
	}
}

func TestSchemaNested(t *testing.T) {
	g := compile(t, `{
		"type": "object",
		"properties": {
			"user": {
				"type": "object",
				"properties": {"id": {"type": "integer"}},
				"required": ["id"]
			},
			"tags": {"type": "array", "items": {"type": "string"}}
		},
		"required": ["user", "tags"]
	}`)

	got := parse(t, g, `{"user": {"id": 7}, "tags": ["a", "b"]}`)
	want := map[string]any{
		"user": map[string]any{"id": int64(7)},
		"tags": []any{"a", "b"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("value mismatch (-want +got):\n%s", diff)
	}
}

func TestSchemaAnyValue(t *testing.T) {
	g := compile(t, `{}`)
	got := parse(t, g, `{"k": [1, "x", null]}`)
	want := map[string]any{"k": []any{1.0, "x", nil}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("value mismatch (-want +got):\n%s", diff)
	}
}

func TestSchemaAnyObject(t *testing.T) {
	g := compile(t, `{"type":"object"}`)
	got := parse(t, g, `{"a": 1, "b": true}`)
	want := map[string]any{"a": 1.0, "b": true}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("value mismatch (-want +got):\n%s", diff)
	}
}

func TestSchemaPatternRejected(t *testing.T) {
	_, err := FromSchemaBytes([]byte(`{"type":"string","pattern":"^a+$"}`))
	if err == nil {
		t.Fatal("pattern should be rejected at compile time")
	}
	var ce *ConfigurationError
	if !errors.As(err, &ce) {
		t.Errorf("err type = %T, want ConfigurationError", err)
	}
}

func TestSchemaInvalidJSON(t *testing.T) {
	if _, err := FromSchemaBytes([]byte(`{`)); err == nil {
		t.Fatal("malformed schema should fail to compile")
	}
}

func TestSchemaChunkingDeterminism(t *testing.T) {
	g := compile(t, `{
		"type": "object",
		"properties": {"n": {"type": "integer"}},
		"required": ["n"]
	}`)
	input := `{"n": 123}`

	whole := firstValue(t, settle(g, input))
	split := firstValue(t, settle(g, input[:3], input[3:7], input[7:]))
	perRune := parse(t, g, input)

	if diff := cmp.Diff(whole, split); diff != "" {
		t.Errorf("split feeding diverged:\n%s", diff)
	}
	if diff := cmp.Diff(whole, perRune); diff != "" {
		t.Errorf("per-rune feeding diverged:\n%s", diff)
	}
}
