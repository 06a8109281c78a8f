package rows

import (
	"slices"

	"github.com/mesh-intelligence/tablekit/pkg/types"
)

// FilterWritable returns a copy of row without the protected fields and,
// when allowed is non-nil, without any field outside the whitelist. Key
// order of the remaining fields is preserved; row itself is not modified.
func FilterWritable(row types.Row, protected, allowed []string) types.Row {
	var out types.Row
	for _, k := range row.Keys() {
		if slices.Contains(protected, k) {
			continue
		}
		if allowed != nil && !slices.Contains(allowed, k) {
			continue
		}
		v, _ := row.Get(k)
		out.Set(k, v)
	}
	return out
}
