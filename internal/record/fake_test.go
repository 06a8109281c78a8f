package record

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/tablekit/internal/sqlbuilder"
	"github.com/mesh-intelligence/tablekit/pkg/types"
)

// fakeStore is an in-memory set of tables shared by fake drivers.
type fakeStore struct {
	tables  map[string][]types.Row
	columns map[string][]string
	nextID  int64
	log     []string
	fail    map[string]error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		tables:  make(map[string][]types.Row),
		columns: make(map[string][]string),
		fail:    make(map[string]error),
	}
}

// failOn makes every op ("fetch", "insert", "update", "delete") on table
// return err without running. A nil err clears the failure.
func (s *fakeStore) failOn(table, op string, err error) {
	if err == nil {
		delete(s.fail, table+":"+op)
		return
	}
	s.fail[table+":"+op] = err
}

func (s *fakeStore) failure(table, op string) error {
	return s.fail[table+":"+op]
}

func (s *fakeStore) seed(table string, rs ...types.Row) {
	s.tables[table] = append(s.tables[table], rs...)
}

func (s *fakeStore) driver() *fakeDriver {
	return &fakeDriver{store: s}
}

type fakeClause struct {
	logic string
	cond  sqlbuilder.Condition
}

// fakeDriver evaluates filters against the store and records every call.
type fakeDriver struct {
	store   *fakeStore
	where   []fakeClause
	set     types.Row
	last    string
	sets    int
	updates int
	fetches int
	resets  int
}

func (d *fakeDriver) Where(c sqlbuilder.Condition) {
	d.where = append(d.where, fakeClause{logic: sqlbuilder.OpAll, cond: c})
}

func (d *fakeDriver) OrWhere(c sqlbuilder.Condition) {
	d.where = append(d.where, fakeClause{logic: sqlbuilder.OpAny, cond: c})
}

func (d *fakeDriver) FetchOne(ctx context.Context, table string) (types.Row, bool, error) {
	d.fetches++
	if err := d.store.failure(table, "fetch"); err != nil {
		return types.Row{}, false, err
	}
	d.exec("SELECT * FROM " + table + d.whereString() + " LIMIT 1")
	matched := d.matching(table)
	d.Reset()
	if len(matched) == 0 {
		return types.Row{}, false, nil
	}
	return d.store.tables[table][matched[0]].Clone(), true, nil
}

func (d *fakeDriver) FetchMany(ctx context.Context, table string) ([]types.Row, error) {
	d.fetches++
	if err := d.store.failure(table, "fetch"); err != nil {
		return nil, err
	}
	d.exec("SELECT * FROM " + table + d.whereString())
	out := []types.Row{}
	for _, i := range d.matching(table) {
		out = append(out, d.store.tables[table][i].Clone())
	}
	d.Reset()
	return out, nil
}

func (d *fakeDriver) Insert(ctx context.Context, table, pk string, row types.Row) (any, error) {
	if err := d.store.failure(table, "insert"); err != nil {
		return nil, err
	}
	d.exec("INSERT INTO " + table + " (" + strings.Join(row.Keys(), ", ") + ")")
	d.Reset()
	d.store.nextID++
	stored := row.Clone()
	if !stored.Has(pk) {
		stored.Set(pk, d.store.nextID)
	}
	d.store.tables[table] = append(d.store.tables[table], stored)
	return d.store.nextID, nil
}

func (d *fakeDriver) Set(row types.Row) {
	d.sets++
	for _, k := range row.Keys() {
		v, _ := row.Get(k)
		d.set.Set(k, v)
	}
}

func (d *fakeDriver) Update(ctx context.Context, table string) (int64, error) {
	d.updates++
	if err := d.store.failure(table, "update"); err != nil {
		return 0, err
	}
	d.exec("UPDATE " + table + " SET " + strings.Join(d.set.Keys(), ", ") + d.whereString())
	matched := d.matching(table)
	for _, i := range matched {
		for _, k := range d.set.Keys() {
			v, _ := d.set.Get(k)
			d.store.tables[table][i].Set(k, v)
		}
	}
	d.Reset()
	return int64(len(matched)), nil
}

func (d *fakeDriver) Delete(ctx context.Context, table string) (int64, error) {
	if err := d.store.failure(table, "delete"); err != nil {
		return 0, err
	}
	d.exec("DELETE FROM " + table + d.whereString())
	matched := d.matching(table)
	var keep []types.Row
	for i, r := range d.store.tables[table] {
		if !slices.Contains(matched, i) {
			keep = append(keep, r)
		}
	}
	d.store.tables[table] = keep
	d.Reset()
	return int64(len(matched)), nil
}

func (d *fakeDriver) Reset() {
	d.resets++
	d.where = nil
	d.set = types.Row{}
}

func (d *fakeDriver) ListColumns(ctx context.Context, table string) ([]string, error) {
	cols, ok := d.store.columns[table]
	if !ok {
		return nil, types.ErrTableNotFound
	}
	return cols, nil
}

func (d *fakeDriver) ColumnMetadata(ctx context.Context, table string) ([]types.ColumnInfo, error) {
	cols, err := d.ListColumns(ctx, table)
	if err != nil {
		return nil, err
	}
	out := make([]types.ColumnInfo, len(cols))
	for i, c := range cols {
		out[i] = types.ColumnInfo{Name: c, Type: "TEXT", Nullable: true}
	}
	return out, nil
}

func (d *fakeDriver) LastQuery() string { return d.last }

func (d *fakeDriver) exec(q string) {
	d.last = q
	d.store.log = append(d.store.log, q)
}

func (d *fakeDriver) whereString() string {
	if len(d.where) == 0 {
		return ""
	}
	var sb strings.Builder
	sb.WriteString(" WHERE ")
	for i, c := range d.where {
		if i > 0 {
			sb.WriteString(" " + c.logic + " ")
		}
		sb.WriteString(c.cond.String())
	}
	return sb.String()
}

// matching returns the indexes of the rows of table passing the filter,
// evaluated left to right.
func (d *fakeDriver) matching(table string) []int {
	var out []int
	for i, row := range d.store.tables[table] {
		ok := true
		for j, c := range d.where {
			m := match(row, c.cond)
			switch {
			case j == 0:
				ok = m
			case c.logic == sqlbuilder.OpAny:
				ok = ok || m
			default:
				ok = ok && m
			}
		}
		if ok {
			out = append(out, i)
		}
	}
	return out
}

func match(row types.Row, c sqlbuilder.Condition) bool {
	switch c.Op() {
	case sqlbuilder.OpEq:
		v, ok := row.Get(c.Column())
		return ok && same(v, c.Value())
	case sqlbuilder.OpIn:
		v, ok := row.Get(c.Column())
		return ok && slices.ContainsFunc(c.Values(), func(x any) bool { return same(v, x) })
	case sqlbuilder.OpAny:
		return slices.ContainsFunc(c.Children(), func(ch sqlbuilder.Condition) bool { return match(row, ch) })
	case sqlbuilder.OpAll:
		for _, ch := range c.Children() {
			if !match(row, ch) {
				return false
			}
		}
		return true
	}
	return false
}

func same(a, b any) bool {
	return fmt.Sprint(a) == fmt.Sprint(b)
}

func jsonOf(t *testing.T, v any) string {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return string(b)
}
