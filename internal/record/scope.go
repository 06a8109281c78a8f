package record

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/mesh-intelligence/tablekit/internal/rows"
	"github.com/mesh-intelligence/tablekit/pkg/types"
)

// Scope is the per-call state of one verb: the included relations and
// the flatten mode. Build one with Engine.With or Engine.Flatten and run
// a single verb on it.
type Scope struct {
	engine  *Engine
	include []include
	flatten bool
	full    bool
	err     error
}

// include is one selected relation and the dotted paths to forward to
// its engine.
type include struct {
	name   string
	nested []string
}

// With adds relations to the scope. An undeclared name fails the scope
// with ErrUndefinedRelationship; every verb then returns that error
// before touching the database.
func (s *Scope) With(names ...string) *Scope {
	for _, name := range names {
		if s.err != nil {
			return s
		}
		if err := s.engine.validate(name); err != nil {
			s.err = err
			return s
		}
		head, rest, _ := strings.Cut(name, ".")
		s.add(head, rest)
	}
	return s
}

// Flatten turns on flattening of fetch results. With full, single nested
// rows are merged into their parents.
func (s *Scope) Flatten(full bool) *Scope {
	s.flatten = true
	s.full = full
	return s
}

// Err returns the first relation selection error.
func (s *Scope) Err() error {
	return s.err
}

// Relations returns the included relation names in selection order.
func (s *Scope) Relations() []string {
	out := make([]string, len(s.include))
	for i, inc := range s.include {
		out[i] = inc.name
	}
	return out
}

func (s *Scope) add(name, nested string) {
	i := slices.IndexFunc(s.include, func(inc include) bool { return inc.name == name })
	if i < 0 {
		s.include = append(s.include, include{name: name})
		i = len(s.include) - 1
	}
	if nested != "" && !slices.Contains(s.include[i].nested, nested) {
		s.include[i].nested = append(s.include[i].nested, nested)
	}
}

// validate checks a possibly dotted relation path. Nested segments are
// checked on the related engines, which are created but never queried.
func (e *Engine) validate(path string) error {
	head, rest, nested := strings.Cut(path, ".")
	if _, ok := e.Relation(head); !ok {
		return fmt.Errorf("%q on %s: %w", head, e.Table(), types.ErrUndefinedRelationship)
	}
	if !nested {
		return nil
	}
	related, err := e.Related(head)
	if err != nil {
		return err
	}
	return related.validate(rest)
}

// Get fetches by primary value. A scalar selects one row, a list selects
// every matching row and nil selects by the filters already set on the
// driver. Included relations are attached to each row under the relation
// name.
func (s *Scope) Get(ctx context.Context, primary any) (*GetResult, error) {
	e := s.engine
	defer e.reset()
	if s.err != nil {
		return nil, s.err
	}

	ev, aborted, err := e.hooks.trigger(ctx, BeforeGet, Event{Table: e.Table(), Primary: primary})
	if err != nil {
		return nil, err
	}
	if aborted {
		e.aborted(BeforeGet)
		return &GetResult{Aborted: true}, nil
	}
	primary = ev.Primary

	res := &GetResult{Single: primary != nil && !rows.IsList(primary)}
	e.where(primary)
	if res.Single {
		row, ok, err := e.db.FetchOne(ctx, e.Table())
		e.executed()
		if err != nil {
			return nil, err
		}
		if ok {
			res.Rows = []types.Row{row}
		}
	} else {
		res.Rows, err = e.db.FetchMany(ctx, e.Table())
		e.executed()
		if err != nil {
			return nil, err
		}
	}
	if res.Rows == nil {
		res.Rows = []types.Row{}
	}

	for i := range res.Rows {
		if err := s.cascade(ctx, actionGet, &res.Rows[i], nil); err != nil {
			return nil, err
		}
	}

	switch {
	case !res.Single:
		res.Data = res.Rows
	case len(res.Rows) > 0:
		res.Data = res.Rows[0]
	}
	if s.flatten {
		res.Data = rows.Flatten(res.Data, s.full)
	}
	e.reset()

	ev, _, err = e.hooks.trigger(ctx, AfterGet, Event{Table: e.Table(), Primary: primary, Result: res})
	if err != nil {
		return nil, err
	}
	if out, ok := ev.Result.(*GetResult); ok && out != nil {
		res = out
	}
	return res, nil
}

// Insert writes one record or every record of a list, each through its
// own hook chain. Related payloads are stripped, not cascaded.
func (s *Scope) Insert(ctx context.Context, data any) (*InsertResult, error) {
	e := s.engine
	defer e.reset()
	if s.err != nil {
		return nil, s.err
	}

	res := &InsertResult{}
	items := []any{data}
	if !rows.IsRecord(data) && rows.IsList(data) {
		items = rows.ListOf(data)
	}
	for _, item := range items {
		if item == nil {
			continue
		}
		id, aborted, err := e.insert(ctx, item)
		if err != nil {
			return nil, err
		}
		res.Aborted = res.Aborted || aborted
		res.IDs = append(res.IDs, id)
	}
	return res, nil
}

func (e *Engine) insert(ctx context.Context, data any) (any, bool, error) {
	defer e.reset()
	row, err := rows.FromValue(data)
	if err != nil {
		return nil, false, fmt.Errorf("inserting into %s: %w", e.Table(), err)
	}

	ev, aborted, err := e.hooks.trigger(ctx, BeforeInsert, Event{Table: e.Table(), Row: row})
	if err != nil {
		return nil, false, err
	}
	if aborted {
		e.aborted(BeforeInsert)
		return nil, true, nil
	}

	payload, err := e.writable(ctx, ev.Row)
	if err != nil {
		return nil, false, err
	}
	var generated string
	if e.model.IDStrategy == types.IDUUID && !payload.Has(e.PrimaryKey()) {
		if generated, err = e.newID(); err != nil {
			return nil, false, fmt.Errorf("generating id for %s: %w", e.Table(), err)
		}
		payload.Set(e.PrimaryKey(), generated)
	}

	id, err := e.db.Insert(ctx, e.Table(), e.PrimaryKey(), payload)
	e.executed()
	if err != nil {
		return nil, false, err
	}
	if generated != "" {
		id = generated
	} else if e.model.IDStrategy == types.IDUUID {
		id, _ = payload.Get(e.PrimaryKey())
	}
	e.reset()

	if _, _, err := e.hooks.trigger(ctx, AfterInsert, Event{Table: e.Table(), Row: payload, Result: id}); err != nil {
		return nil, false, err
	}
	return id, false, nil
}

// Update writes data to the rows selected by its primary key value and
// by primary. Included relations are updated with the composite value
// stored under their name in data; relations without one are skipped.
// Columns outside the writable set are dropped; when nothing local is
// left the local statement is skipped but the cascade still runs.
func (s *Scope) Update(ctx context.Context, data, primary any) (*WriteResult, error) {
	e := s.engine
	defer e.reset()
	if s.err != nil {
		return nil, s.err
	}
	row, err := rows.FromValue(data)
	if err != nil {
		return nil, fmt.Errorf("updating %s: %w", e.Table(), err)
	}

	ev, aborted, err := e.hooks.trigger(ctx, BeforeUpdate, Event{Table: e.Table(), Row: row, Primary: primary})
	if err != nil {
		return nil, err
	}
	res := &WriteResult{Table: e.Table()}
	if aborted {
		e.aborted(BeforeUpdate)
		res.Aborted = true
		return res, nil
	}
	row = ev.Row
	primary = rows.ExtractPrimaryValues(row, ev.Primary, e.PrimaryKey())

	if err := s.checkKeys(actionUpdate, row); err != nil {
		return nil, err
	}
	payload, err := e.writable(ctx, row)
	if err != nil {
		return nil, err
	}
	if payload.Len() > 0 {
		e.where(primary)
		e.db.Set(payload)
		n, err := e.db.Update(ctx, e.Table())
		e.executed()
		if err != nil {
			return nil, err
		}
		res.Affected = n
	}

	if err := s.cascade(ctx, actionUpdate, &row, res); err != nil {
		return nil, err
	}
	e.reset()

	ev, _, err = e.hooks.trigger(ctx, AfterUpdate, Event{Table: e.Table(), Row: payload, Primary: primary, Result: res})
	if err != nil {
		return nil, err
	}
	if out, ok := ev.Result.(*WriteResult); ok && out != nil {
		res = out
	}
	return res, nil
}

// Delete removes rows. target is a primary value, a list of them, a
// record or a list of records, or nil to delete by the filters already
// set on the driver. With relations included and no records given, the
// targets are fetched first so their local key values are known.
func (s *Scope) Delete(ctx context.Context, target any) (*WriteResult, error) {
	e := s.engine
	defer e.reset()
	if s.err != nil {
		return nil, s.err
	}
	primary, targets, err := e.targets(target)
	if err != nil {
		return nil, err
	}

	ev, aborted, err := e.hooks.trigger(ctx, BeforeDelete, Event{Table: e.Table(), Primary: primary})
	if err != nil {
		return nil, err
	}
	res := &WriteResult{Table: e.Table()}
	if aborted {
		e.aborted(BeforeDelete)
		res.Aborted = true
		return res, nil
	}
	primary = ev.Primary

	if len(s.include) > 0 && targets == nil {
		e.where(primary)
		targets, err = e.db.FetchMany(ctx, e.Table())
		e.executed()
		if err != nil {
			return nil, err
		}
		primary = rows.ExtractPrimaryValues(targets, nil, e.PrimaryKey())
	}
	for _, t := range targets {
		if err := s.checkKeys(actionDelete, t); err != nil {
			return nil, err
		}
	}

	if targets == nil || len(targets) > 0 {
		e.where(primary)
		n, err := e.db.Delete(ctx, e.Table())
		e.executed()
		if err != nil {
			return nil, err
		}
		res.Affected = n
	}

	for i := range targets {
		if err := s.cascade(ctx, actionDelete, &targets[i], res); err != nil {
			return nil, err
		}
	}
	e.reset()

	ev, _, err = e.hooks.trigger(ctx, AfterDelete, Event{Table: e.Table(), Primary: primary, Result: res})
	if err != nil {
		return nil, err
	}
	if out, ok := ev.Result.(*WriteResult); ok && out != nil {
		res = out
	}
	return res, nil
}

// targets splits a delete target into primary values and, when records
// were given, the records themselves.
func (e *Engine) targets(target any) (any, []types.Row, error) {
	var records []types.Row
	switch {
	case target == nil:
		return nil, nil, nil
	case rows.IsRecord(target):
		row, err := rows.FromValue(target)
		if err != nil {
			return nil, nil, err
		}
		records = []types.Row{row}
	case rows.IsList(target):
		items := rows.ListOf(target)
		if len(items) == 0 || !rows.IsRecord(items[0]) {
			return target, nil, nil
		}
		for _, item := range items {
			row, err := rows.FromValue(item)
			if err != nil {
				return nil, nil, fmt.Errorf("deleting from %s: %w", e.Table(), err)
			}
			records = append(records, row)
		}
	default:
		return target, nil, nil
	}
	return rows.ExtractPrimaryValues(records, nil, e.PrimaryKey()), records, nil
}
