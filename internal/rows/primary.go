package rows

import (
	"fmt"
	"reflect"
)

// ExtractPrimaryValues collects the primary key values to constrain a
// query with. input may be a single row, a collection of rows, or empty;
// explicit is a scalar or list supplied by the caller.
//
// An empty input returns explicit unchanged. A row holding pk contributes
// its value (scalar or list). A collection contributes the values of its
// leading row elements; the scan stops at the first element that is not
// row-like. Whenever something matched, the result is the deduplicated
// union of the row values and explicit as a []any. When nothing matched,
// explicit is returned as given.
func ExtractPrimaryValues(input any, explicit any, pk string) any {
	found, ok := extract(input, pk)
	if !ok {
		return explicit
	}
	return union(found, ListOf(explicit))
}

func extract(input any, pk string) ([]any, bool) {
	if isEmpty(input) {
		return nil, false
	}
	if IsRow(input) {
		v, ok := Get(input, pk)
		if !ok {
			return nil, false
		}
		return ListOf(v), true
	}

	elems, ok := elements(input)
	if !ok {
		return nil, false
	}
	var found []any
	matched := false
	for _, el := range elems {
		if !IsRow(el) {
			break
		}
		vals, ok := extract(el, pk)
		if !ok {
			continue
		}
		matched = true
		found = append(found, vals...)
	}
	return found, matched
}

// ListOf coerces v into a list: nil is empty, slices are spread (except
// []byte), anything else becomes a one-element list.
func ListOf(v any) []any {
	if v == nil {
		return nil
	}
	if l, ok := v.([]any); ok {
		return l
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice || rv.Type().Elem().Kind() == reflect.Uint8 {
		return []any{v}
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out
}

// IsList reports whether v is a list of values (any slice except []byte).
func IsList(v any) bool {
	if v == nil {
		return false
	}
	rv := reflect.ValueOf(v)
	return rv.Kind() == reflect.Slice && rv.Type().Elem().Kind() != reflect.Uint8
}

// elements spreads a collection of rows into its members.
func elements(v any) ([]any, bool) {
	if !IsList(v) {
		return nil, false
	}
	return ListOf(v), true
}

func isEmpty(v any) bool {
	if v == nil {
		return true
	}
	if IsRow(v) {
		return rowLen(v) == 0
	}
	if IsList(v) {
		return reflect.ValueOf(v).Len() == 0
	}
	return false
}

// union concatenates the lists and drops repeats of the same typed value.
func union(lists ...[]any) []any {
	seen := make(map[string]bool)
	out := []any{}
	for _, l := range lists {
		for _, v := range l {
			key := fmt.Sprintf("%T:%v", v, v)
			if seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, v)
		}
	}
	return out
}
