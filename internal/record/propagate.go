package record

import (
	"context"
	"fmt"

	"github.com/mesh-intelligence/tablekit/internal/rows"
	"github.com/mesh-intelligence/tablekit/internal/sqlbuilder"
	"github.com/mesh-intelligence/tablekit/pkg/types"
)

// action is a verb that cascades to related engines.
type action int

const (
	actionGet action = iota
	actionUpdate
	actionDelete
)

func (a action) String() string {
	switch a {
	case actionGet:
		return "get"
	case actionUpdate:
		return "update"
	case actionDelete:
		return "delete"
	}
	return fmt.Sprintf("action(%d)", int(a))
}

// cascade runs act on every included relation of row, in selection
// order. Get attaches the related rows to row; update and delete record
// their outcome in res.
func (s *Scope) cascade(ctx context.Context, act action, row *types.Row, res *WriteResult) error {
	e := s.engine
	switch act {
	case actionGet, actionUpdate, actionDelete:
	default:
		return fmt.Errorf("%s: %v: %w", e.Table(), act, types.ErrInvalidAction)
	}

	for _, inc := range s.include {
		spec, _ := e.Relation(inc.name)

		var payloads []types.Row
		if act == actionUpdate {
			var ok bool
			if payloads, ok = relationPayloads(*row, spec.Name); !ok {
				e.logger.Debug("relation skipped", "engine", e.name, "relation", spec.Name, "action", act.String())
				res.record(RelationResult{Name: spec.Name, Table: spec.Table, Skipped: true})
				continue
			}
		}

		related, err := e.Related(spec.Name)
		if err != nil {
			return err
		}
		if e.audit {
			related.SetAudit(true)
			related.TakeAudit()
		}
		conds, err := relationFilter(e.Table(), spec, related.PrimaryKey(), *row)
		if err != nil {
			return err
		}
		e.logger.Debug("cascade", "engine", e.name, "relation", spec.Name, "action", act.String(),
			"filter", sqlbuilder.All(conds...).String())

		switch act {
		case actionGet:
			for _, c := range conds {
				related.db.Where(c)
			}
			sub, err := related.With(inc.nested...).Get(ctx, nil)
			e.pull(related)
			if err != nil {
				return fmt.Errorf("%s.%s: %w", e.Table(), spec.Name, err)
			}
			if !sub.Aborted {
				row.Set(spec.Name, sub.Rows)
			}
		case actionUpdate:
			for _, p := range payloads {
				for _, c := range conds {
					related.db.Where(c)
				}
				sub, err := related.With(inc.nested...).Update(ctx, p, nil)
				e.pull(related)
				if err != nil {
					return fmt.Errorf("%s.%s: %w", e.Table(), spec.Name, err)
				}
				res.record(RelationResult{Name: spec.Name, Table: related.Table(), Result: sub})
			}
		case actionDelete:
			for _, c := range conds {
				related.db.Where(c)
			}
			sub, err := related.With(inc.nested...).Delete(ctx, nil)
			e.pull(related)
			if err != nil {
				return fmt.Errorf("%s.%s: %w", e.Table(), spec.Name, err)
			}
			res.record(RelationResult{Name: spec.Name, Table: related.Table(), Result: sub})
		}
	}
	return nil
}

// relationFilter builds the conditions scoping the related table to row:
// one condition per local key, ANDed by the driver, each an OR over that
// key's foreign columns. An empty foreign list means foreignPK. Every
// local key is checked before any condition is built.
func relationFilter(table string, spec RelationSpec, foreignPK string, row types.Row) ([]sqlbuilder.Condition, error) {
	if err := keysPresent(table, spec, row); err != nil {
		return nil, err
	}

	conds := make([]sqlbuilder.Condition, 0, len(spec.Keys))
	for _, kp := range spec.Keys {
		val, _ := row.Get(kp.Local)
		foreign := kp.Foreign
		if len(foreign) == 0 {
			foreign = []string{foreignPK}
		}
		group := make([]sqlbuilder.Condition, 0, len(foreign))
		for _, col := range foreign {
			if rows.IsList(val) {
				group = append(group, sqlbuilder.In(col, rows.ListOf(val)))
			} else {
				group = append(group, sqlbuilder.Eq(col, val))
			}
		}
		conds = append(conds, sqlbuilder.Any(group...))
	}
	return conds, nil
}

func keysPresent(table string, spec RelationSpec, row types.Row) error {
	for _, kp := range spec.Keys {
		if !row.Has(kp.Local) {
			return fmt.Errorf("%s.%s: column %q: %w", table, spec.Name, kp.Local, types.ErrRelationKeyMissing)
		}
	}
	return nil
}

// checkKeys verifies that row carries every local key act will need to
// cascade, so a missing key fails the verb before its local statement.
// Update only checks the relations that have a payload in row.
func (s *Scope) checkKeys(act action, row types.Row) error {
	e := s.engine
	for _, inc := range s.include {
		spec, _ := e.Relation(inc.name)
		if act == actionUpdate {
			if _, ok := relationPayloads(row, spec.Name); !ok {
				continue
			}
		}
		if err := keysPresent(e.Table(), spec, row); err != nil {
			return err
		}
	}
	return nil
}

// relationPayloads returns the update payloads stored under name: one
// for a nested record, one per record for a list of them. ok is false
// when row holds nothing to cascade.
func relationPayloads(row types.Row, name string) ([]types.Row, bool) {
	v, ok := row.Get(name)
	if !ok || !rows.IsComposite(v) {
		return nil, false
	}
	if rows.IsRow(v) {
		p, err := rows.FromValue(v)
		if err != nil {
			return nil, false
		}
		return []types.Row{p}, true
	}
	var out []types.Row
	for _, item := range rows.ListOf(v) {
		if !rows.IsRow(item) {
			continue
		}
		p, err := rows.FromValue(item)
		if err != nil {
			continue
		}
		out = append(out, p)
	}
	return out, len(out) > 0
}
