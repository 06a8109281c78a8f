package record

import "github.com/mesh-intelligence/tablekit/pkg/types"

// GetResult is the outcome of a fetch.
type GetResult struct {
	// Rows holds the fetched rows with included relations attached.
	Rows []types.Row
	// Single is true for a scalar primary value; Data is then a row or nil.
	Single bool
	// Data is the caller-facing result: a types.Row, []types.Row, nil, or
	// the flattened shape when flatten mode was requested.
	Data    any
	Aborted bool
}

// First returns the first fetched row.
func (r *GetResult) First() (types.Row, bool) {
	if r == nil || len(r.Rows) == 0 {
		return types.Row{}, false
	}
	return r.Rows[0], true
}

// WriteResult is the outcome of an update or delete.
type WriteResult struct {
	Table     string
	Affected  int64
	Aborted   bool
	Relations []RelationResult
}

// RelationResult is the cascade outcome of one included relation.
type RelationResult struct {
	Name    string
	Table   string
	Skipped bool
	Result  *WriteResult
}

// Totals returns the affected row counts keyed by the engine's table and
// by each cascaded relation name. Skipped relations are absent.
func (r *WriteResult) Totals() map[string]int64 {
	out := map[string]int64{r.Table: r.Affected}
	for _, rel := range r.Relations {
		if rel.Skipped || rel.Result == nil {
			continue
		}
		out[rel.Name] = rel.Result.Affected
	}
	return out
}

// Relation returns the cascade outcome recorded for name.
func (r *WriteResult) Relation(name string) (RelationResult, bool) {
	for _, rel := range r.Relations {
		if rel.Name == name {
			return rel, true
		}
	}
	return RelationResult{}, false
}

// record merges one cascade outcome into r. Cascades over several rows
// hit the same relation repeatedly; their counts add up and the relation
// stays skipped only if every row skipped it.
func (r *WriteResult) record(rel RelationResult) {
	for i := range r.Relations {
		cur := &r.Relations[i]
		if cur.Name != rel.Name {
			continue
		}
		if rel.Skipped {
			return
		}
		cur.Skipped = false
		if cur.Result == nil {
			cur.Result = rel.Result
			return
		}
		cur.Result.merge(rel.Result)
		return
	}
	r.Relations = append(r.Relations, rel)
}

func (r *WriteResult) merge(other *WriteResult) {
	if other == nil {
		return
	}
	r.Affected += other.Affected
	r.Aborted = r.Aborted || other.Aborted
	for _, rel := range other.Relations {
		r.record(rel)
	}
}

// InsertResult holds one id per inserted row, in input order. A row
// cancelled by a hook leaves a nil id.
type InsertResult struct {
	IDs     []any
	Aborted bool
}

// ID returns the first inserted id.
func (r *InsertResult) ID() any {
	if r == nil || len(r.IDs) == 0 {
		return nil
	}
	return r.IDs[0]
}
