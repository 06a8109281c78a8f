package rows

import (
	"fmt"
	"reflect"

	"github.com/go-viper/mapstructure/v2"

	"github.com/mesh-intelligence/tablekit/pkg/types"
)

// rowTag is the struct tag read when converting object-like rows.
const rowTag = "db"

// Get reads key from a row-like value. It accepts types.Row, *types.Row
// and map[string]any; anything else reports a missing key.
func Get(r any, key string) (any, bool) {
	switch row := r.(type) {
	case types.Row:
		return row.Get(key)
	case *types.Row:
		if row == nil {
			return nil, false
		}
		return row.Get(key)
	case map[string]any:
		v, ok := row[key]
		return v, ok
	default:
		return nil, false
	}
}

// Has reports whether key is present in a row-like value. It never panics.
func Has(r any, key string) bool {
	_, ok := Get(r, key)
	return ok
}

// Set writes key on a mutable row-like value (*types.Row or a non-nil
// map[string]any).
func Set(r any, key string, value any) error {
	switch row := r.(type) {
	case *types.Row:
		if row == nil {
			return fmt.Errorf("set %q on nil row: %w", key, types.ErrInvalidData)
		}
		row.Set(key, value)
		return nil
	case map[string]any:
		if row == nil {
			return fmt.Errorf("set %q on nil map: %w", key, types.ErrInvalidData)
		}
		row[key] = value
		return nil
	default:
		return fmt.Errorf("set %q on %T: %w", key, r, types.ErrInvalidData)
	}
}

// IsRow reports whether v is row-like.
func IsRow(v any) bool {
	switch v.(type) {
	case types.Row, *types.Row, map[string]any:
		return true
	}
	return false
}

// IsRecord reports whether v can be converted with FromValue: a row-like
// value or a struct (or pointer to one).
func IsRecord(v any) bool {
	if IsRow(v) {
		return true
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Pointer && !rv.IsNil() {
		rv = rv.Elem()
	}
	return rv.Kind() == reflect.Struct
}

// FromValue converts a map-like or object-like value into the canonical
// row. Structs are read through their `db` tags; untagged exported fields
// use the field name. The result never shares storage with v.
func FromValue(v any) (types.Row, error) {
	switch row := v.(type) {
	case types.Row:
		return row.Clone(), nil
	case *types.Row:
		if row == nil {
			return types.Row{}, nil
		}
		return row.Clone(), nil
	case map[string]any:
		return types.RowFromMap(row), nil
	case nil:
		return types.Row{}, fmt.Errorf("convert nil: %w", types.ErrInvalidData)
	}

	m := make(map[string]any)
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName: rowTag,
		Result:  &m,
	})
	if err != nil {
		return types.Row{}, fmt.Errorf("building row decoder: %w", err)
	}
	if err := dec.Decode(v); err != nil {
		return types.Row{}, fmt.Errorf("converting %T to row: %w", v, types.ErrInvalidData)
	}
	return types.RowFromMap(m), nil
}

// Decode fills the struct pointed to by out from row, the reverse of
// FromValue. Nested relation values are decoded when out declares
// matching fields.
func Decode(row types.Row, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          rowTag,
		Result:           out,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return fmt.Errorf("building struct decoder: %w", err)
	}
	if err := dec.Decode(toPlain(row)); err != nil {
		return fmt.Errorf("decoding row into %T: %w", out, err)
	}
	return nil
}

// toPlain turns rows into maps recursively so mapstructure can walk them.
func toPlain(v any) any {
	switch t := v.(type) {
	case types.Row:
		m := make(map[string]any, t.Len())
		for _, k := range t.Keys() {
			val, _ := t.Get(k)
			m[k] = toPlain(val)
		}
		return m
	case []types.Row:
		out := make([]any, len(t))
		for i, r := range t {
			out[i] = toPlain(r)
		}
		return out
	default:
		return v
	}
}
