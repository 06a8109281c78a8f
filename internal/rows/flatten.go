package rows

import "github.com/mesh-intelligence/tablekit/pkg/types"

// Flatten post-processes a fetch result.
//
// A sequence with exactly one composite element is replaced by that
// element; rows are never collapsed, since their keys name relations.
// Every composite value nested in a row is flattened in turn. With
// full set, a nested value that held at most one element before flattening
// is merged into its parent row instead of staying under its relation key;
// merged keys overwrite colliding parent keys. Empty structures are
// returned as they are.
func Flatten(v any, full bool) any {
	switch t := v.(type) {
	case types.Row:
		return flattenRow(t, full)
	case map[string]any:
		return flattenRow(types.RowFromMap(t), full)
	case []types.Row:
		if len(t) == 1 {
			return flattenRow(t[0], full)
		}
		out := make([]types.Row, len(t))
		for i, r := range t {
			out[i] = flattenRow(r, full)
		}
		return out
	case []any:
		if len(t) == 1 && IsComposite(t[0]) {
			return Flatten(t[0], full)
		}
		out := make([]any, len(t))
		for i, el := range t {
			if IsComposite(el) {
				out[i] = Flatten(el, full)
			} else {
				out[i] = el
			}
		}
		return out
	default:
		return v
	}
}

func flattenRow(r types.Row, full bool) types.Row {
	var out types.Row
	var merges []types.Row
	for _, k := range r.Keys() {
		val, _ := r.Get(k)
		if !IsComposite(val) {
			out.Set(k, val)
			continue
		}
		before := count(val)
		flat := Flatten(val, full)
		if full && before <= 1 {
			if fr, ok := flat.(types.Row); ok {
				merges = append(merges, fr)
				continue
			}
			if count(flat) == 0 {
				continue
			}
		}
		out.Set(k, flat)
	}
	for _, m := range merges {
		for _, k := range m.Keys() {
			val, _ := m.Get(k)
			out.Set(k, val)
		}
	}
	return out
}

// IsComposite reports whether v is a row or a sequence.
func IsComposite(v any) bool {
	switch v.(type) {
	case types.Row, map[string]any, []types.Row, []any:
		return true
	}
	return false
}

// count is the element count of a composite value.
func count(v any) int {
	switch t := v.(type) {
	case types.Row:
		return t.Len()
	case map[string]any:
		return len(t)
	case []types.Row:
		return len(t)
	case []any:
		return len(t)
	}
	return 0
}

func rowLen(v any) int {
	switch t := v.(type) {
	case types.Row:
		return t.Len()
	case *types.Row:
		if t == nil {
			return 0
		}
		return t.Len()
	case map[string]any:
		return len(t)
	}
	return 0
}
