package grammar

import (
	"reflect"
	"strings"

	"github.com/proxy-structuring/pse/grammar/jsonschema"
)

// SchemaFor builds a schema from a Go type, ready for FromSchema. Pointer
// and omitempty fields become optional properties.
func SchemaFor[T any]() (*jsonschema.Schema, error) {
	s, err := SchemaForType(reflect.TypeOf((*T)(nil)).Elem())
	if err != nil {
		return nil, err
	}
	s.Name = "root"
	return s, nil
}

// SchemaForType is SchemaFor for a reflect.Type obtained at runtime.
func SchemaForType(t reflect.Type) (*jsonschema.Schema, error) {
	switch t.Kind() {
	case reflect.Pointer:
		return SchemaForType(t.Elem())
	case reflect.String:
		return &jsonschema.Schema{Type: "string"}, nil
	case reflect.Bool:
		return &jsonschema.Schema{Type: "boolean"}, nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return &jsonschema.Schema{Type: "integer"}, nil
	case reflect.Float32, reflect.Float64:
		return &jsonschema.Schema{Type: "number"}, nil
	case reflect.Interface:
		return &jsonschema.Schema{}, nil
	case reflect.Map:
		if t.Key().Kind() != reflect.String {
			return nil, configErrorf("map key type %s is not a string", t.Key())
		}
		return &jsonschema.Schema{Type: "object"}, nil
	case reflect.Slice:
		items, err := SchemaForType(t.Elem())
		if err != nil {
			return nil, err
		}
		return &jsonschema.Schema{Type: "array", Items: items}, nil
	case reflect.Array:
		items, err := SchemaForType(t.Elem())
		if err != nil {
			return nil, err
		}
		return &jsonschema.Schema{
			Type:     "array",
			Items:    items,
			MinItems: t.Len(),
			MaxItems: t.Len(),
		}, nil
	case reflect.Struct:
		s := &jsonschema.Schema{Type: "object"}
		if err := structFields(t, s); err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, configErrorf("unsupported type %s", t)
	}
}

func structFields(t reflect.Type, s *jsonschema.Schema) error {
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if f.Anonymous && f.Type.Kind() == reflect.Struct {
			if err := structFields(f.Type, s); err != nil {
				return err
			}
			continue
		}
		if !f.IsExported() {
			continue
		}

		name := f.Name
		optional := f.Type.Kind() == reflect.Pointer
		if tag, ok := f.Tag.Lookup("json"); ok {
			parts := strings.Split(tag, ",")
			if parts[0] == "-" {
				continue
			}
			if parts[0] != "" {
				name = parts[0]
			}
			for _, opt := range parts[1:] {
				if opt == "omitempty" {
					optional = true
				}
			}
		}

		prop, err := SchemaForType(f.Type)
		if err != nil {
			return err
		}
		prop.Name = name
		s.Properties = append(s.Properties, prop)
		if !optional {
			s.Required = append(s.Required, name)
		}
	}
	return nil
}
