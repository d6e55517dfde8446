package openapi

import (
	"encoding/json"
	"reflect"
	"strings"
	"time"

	"github.com/getkin/kin-openapi/openapi3"
)

// TypeMapping is an OpenAPI type/format pair.
type TypeMapping struct {
	Type   string // OpenAPI type: string, integer, number, boolean, object, array
	Format string // OpenAPI format: int32, int64, double, date-time, etc.
}

var (
	timeType = reflect.TypeOf(time.Time{})
	rawType  = reflect.TypeOf(json.RawMessage{})
)

// MapGoType converts a Go type to an OpenAPI type mapping. Pointers are
// unwrapped; unknown kinds fall back to {"string", ""}.
func MapGoType(t reflect.Type) TypeMapping {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	switch {
	case t == timeType:
		return TypeMapping{"string", "date-time"}
	case t == rawType:
		return TypeMapping{"object", ""}
	}

	switch t.Kind() {
	case reflect.Bool:
		return TypeMapping{"boolean", ""}
	case reflect.Int8, reflect.Int16, reflect.Int32, reflect.Uint8, reflect.Uint16, reflect.Uint32:
		return TypeMapping{"integer", "int32"}
	case reflect.Int, reflect.Int64, reflect.Uint, reflect.Uint64:
		return TypeMapping{"integer", "int64"}
	case reflect.Float32:
		return TypeMapping{"number", "float"}
	case reflect.Float64:
		return TypeMapping{"number", "double"}
	case reflect.Slice, reflect.Array:
		return TypeMapping{"array", ""}
	case reflect.Map, reflect.Struct, reflect.Interface:
		return TypeMapping{"object", ""}
	default:
		return TypeMapping{"string", ""}
	}
}

// SchemaOf builds an object schema from v's exported, JSON-visible fields.
// Pointer fields are nullable.
func SchemaOf(v interface{}) *openapi3.SchemaRef {
	t := reflect.TypeOf(v)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return &openapi3.SchemaRef{Value: structSchema(t)}
}

func structSchema(t reflect.Type) *openapi3.Schema {
	props := openapi3.Schemas{}
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		name, skip := jsonName(f)
		if skip {
			continue
		}
		s := fieldSchema(f.Type)
		if f.Type.Kind() == reflect.Pointer {
			s.Nullable = true
		}
		props[name] = &openapi3.SchemaRef{Value: s}
	}
	return &openapi3.Schema{
		Type:       &openapi3.Types{"object"},
		Properties: props,
	}
}

func fieldSchema(t reflect.Type) *openapi3.Schema {
	m := MapGoType(t)
	s := &openapi3.Schema{Type: &openapi3.Types{m.Type}}
	if m.Format != "" {
		s.Format = m.Format
	}
	if m.Type == "array" {
		s.Items = &openapi3.SchemaRef{Value: fieldSchema(t.Elem())}
	}
	return s
}

func jsonName(f reflect.StructField) (string, bool) {
	tag := f.Tag.Get("json")
	if tag == "-" {
		return "", true
	}
	name, _, _ := strings.Cut(tag, ",")
	if name == "" {
		name = f.Name
	}
	return name, false
}
