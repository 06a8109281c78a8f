package types

import (
	"bytes"
	"encoding/json"
	"slices"
)

// Row is one record: an ordered mapping from column name to value.
// Values are scalars, nested Rows, []Row (has-many results) or []any
// (lists of scalars). The zero value is an empty row ready for use.
// Copies of a Row share storage; use Clone before mutating a row you
// do not own.
type Row struct {
	keys   []string
	values map[string]any
}

// NewRow builds a row from alternating key/value arguments.
// A trailing key without a value is stored as nil.
func NewRow(kv ...any) Row {
	var r Row
	for i := 0; i < len(kv); i += 2 {
		key, _ := kv[i].(string)
		var val any
		if i+1 < len(kv) {
			val = kv[i+1]
		}
		r.Set(key, val)
	}
	return r
}

// RowFromMap copies m into a row. Map iteration order is not stable, so
// keys are sorted to keep the result deterministic.
func RowFromMap(m map[string]any) Row {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	var r Row
	for _, k := range keys {
		r.Set(k, m[k])
	}
	return r
}

// Get returns the value stored under key and whether it exists.
func (r Row) Get(key string) (any, bool) {
	if r.values == nil {
		return nil, false
	}
	v, ok := r.values[key]
	return v, ok
}

// Has reports whether key is present, even with a nil value.
func (r Row) Has(key string) bool {
	_, ok := r.Get(key)
	return ok
}

// Set stores value under key. An existing key keeps its position.
func (r *Row) Set(key string, value any) {
	if r.values == nil {
		r.values = make(map[string]any)
	}
	if _, ok := r.values[key]; !ok {
		r.keys = append(r.keys, key)
	}
	r.values[key] = value
}

// Delete removes key. Missing keys are ignored.
func (r *Row) Delete(key string) {
	if _, ok := r.values[key]; !ok {
		return
	}
	delete(r.values, key)
	r.keys = slices.DeleteFunc(r.keys, func(k string) bool { return k == key })
}

// Keys returns the column names in insertion order.
func (r Row) Keys() []string {
	return slices.Clone(r.keys)
}

// Len returns the number of columns.
func (r Row) Len() int {
	return len(r.keys)
}

// Clone returns an independent copy. Nested Rows and []Row values are
// cloned as well; other values are shared.
func (r Row) Clone() Row {
	var c Row
	for _, k := range r.keys {
		c.Set(k, cloneValue(r.values[k]))
	}
	return c
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case Row:
		return t.Clone()
	case []Row:
		out := make([]Row, len(t))
		for i, r := range t {
			out[i] = r.Clone()
		}
		return out
	}
	return v
}

// Map returns the row as a plain map. Key order is lost.
func (r Row) Map() map[string]any {
	m := make(map[string]any, len(r.keys))
	for _, k := range r.keys {
		m[k] = r.values[k]
	}
	return m
}

// Values returns the values in key order.
func (r Row) Values() []any {
	vals := make([]any, len(r.keys))
	for i, k := range r.keys {
		vals[i] = r.values[k]
	}
	return vals
}

// MarshalJSON writes the row as a JSON object in key order.
func (r Row) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range r.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		vb, err := json.Marshal(r.values[k])
		if err != nil {
			return nil, err
		}
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads a JSON object keeping the document's key order.
// Nested objects become Rows and arrays of objects become []Row.
func (r *Row) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	v, err := decodeValue(dec)
	if err != nil {
		return err
	}
	row, ok := v.(Row)
	if !ok {
		return ErrInvalidData
	}
	*r = row
	return nil
}

func decodeValue(dec *json.Decoder) (any, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			var row Row
			for dec.More() {
				kt, err := dec.Token()
				if err != nil {
					return nil, err
				}
				key, _ := kt.(string)
				val, err := decodeValue(dec)
				if err != nil {
					return nil, err
				}
				row.Set(key, val)
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return row, nil
		case '[':
			var items []any
			for dec.More() {
				val, err := decodeValue(dec)
				if err != nil {
					return nil, err
				}
				items = append(items, val)
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return rowsOrList(items), nil
		}
		return nil, ErrInvalidData
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return i, nil
		}
		return t.Float64()
	default:
		return t, nil
	}
}

// rowsOrList returns []Row when every item is a Row, otherwise the list.
func rowsOrList(items []any) any {
	if len(items) == 0 {
		return []any{}
	}
	out := make([]Row, 0, len(items))
	for _, it := range items {
		row, ok := it.(Row)
		if !ok {
			return items
		}
		out = append(out, row)
	}
	return out
}
