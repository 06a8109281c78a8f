package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/mesh-intelligence/tablekit/internal/record"
	"github.com/mesh-intelligence/tablekit/internal/schema"
	"github.com/mesh-intelligence/tablekit/internal/sqlbuilder"
	"github.com/mesh-intelligence/tablekit/pkg/types"
)

// registry opens the database and builds the engine registry from the
// schema file on first use.
func (a *app) registry() (*record.Registry, error) {
	if a.reg != nil {
		return a.reg, nil
	}
	var models []types.Model
	if a.cfg.Schema != "" {
		var err error
		if models, err = schema.Load(a.cfg.Schema); err != nil {
			return nil, err
		}
	}

	db, dialect, err := sqlbuilder.Open(a.cfg)
	if err != nil {
		if errors.Is(err, types.ErrDriverEmpty) || errors.Is(err, types.ErrDriverUnknown) || errors.Is(err, types.ErrDSNEmpty) {
			return nil, err
		}
		return nil, sysError(err)
	}
	a.db = db

	reg := record.NewRegistry(func() record.Driver { return sqlbuilder.New(db, dialect) },
		record.WithLogger(a.logger), record.WithAudit(a.cfg.Audit))
	reg.RegisterHook("touch", touch)
	if models, err = withImplicit(models); err != nil {
		return nil, err
	}
	if err := reg.Register(models...); err != nil {
		return nil, err
	}
	a.reg = reg
	return reg, nil
}

// withImplicit appends a default model for every relation target the
// schema does not declare, so relations to plain tables need no entry.
func withImplicit(models []types.Model) ([]types.Model, error) {
	known := make(map[string]bool)
	for _, m := range models {
		nm, err := record.NormalizeModel(m)
		if err != nil {
			return nil, err
		}
		known[nm.Name] = true
		known["table:"+nm.Table] = true
	}
	out := append([]types.Model(nil), models...)
	for _, m := range models {
		nm, _ := record.NormalizeModel(m)
		for _, decl := range nm.Relations {
			spec := record.ResolveRelation(nm.Table, nm.PrimaryKey, decl.Name, decl)
			if known[spec.Model] || known["table:"+spec.Table] {
				continue
			}
			known[spec.Model] = true
			known["table:"+spec.Table] = true
			out = append(out, types.Model{Name: spec.Model, Table: spec.Table, IntrospectFields: true})
		}
	}
	return out, nil
}

// engine returns the engine for table. A table missing from the schema
// gets an engine with default settings whose writable columns are read
// from the database.
func (a *app) engine(table string) (*record.Engine, error) {
	reg, err := a.registry()
	if err != nil {
		return nil, err
	}
	e, err := reg.Table(table)
	if errors.Is(err, types.ErrTableNotFound) {
		if err := reg.Register(types.Model{Table: table, IntrospectFields: true}); err != nil {
			return nil, err
		}
		e, err = reg.Table(table)
	}
	return e, err
}

// touch stamps updated_at on insert and update payloads.
func touch(ctx context.Context, ev record.Event) (record.Event, error) {
	ev.Row.Set("updated_at", time.Now().UTC().Format(time.RFC3339))
	return ev, nil
}

// parseKeys turns primary key arguments into a nil, scalar or list value.
// Integers are passed as int64.
func parseKeys(args []string) any {
	switch len(args) {
	case 0:
		return nil
	case 1:
		return parseKey(args[0])
	}
	keys := make([]any, len(args))
	for i, arg := range args {
		keys[i] = parseKey(arg)
	}
	return keys
}

func parseKey(s string) any {
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n
	}
	return s
}

// parseRows decodes a JSON object or array of objects.
func parseRows(data string) (any, error) {
	data = strings.TrimSpace(data)
	if strings.HasPrefix(data, "[") {
		var rs []types.Row
		if err := json.Unmarshal([]byte(data), &rs); err != nil {
			return nil, fmt.Errorf("parse rows: %w", err)
		}
		return rs, nil
	}
	var row types.Row
	if err := json.Unmarshal([]byte(data), &row); err != nil {
		return nil, fmt.Errorf("parse row: %w", err)
	}
	return row, nil
}

func writeJSON(w io.Writer, v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal output: %w", err)
	}
	_, err = fmt.Fprintln(w, string(out))
	return err
}

// writeAudit prints the engine's captured statements when auditing.
func writeAudit(w io.Writer, e *record.Engine) error {
	if !e.Auditing() {
		return nil
	}
	return writeJSON(w, e.TakeAudit())
}

// totals is the JSON shape of an update or delete outcome.
func totals(res *record.WriteResult) map[string]any {
	out := map[string]any{}
	for k, v := range res.Totals() {
		out[k] = v
	}
	for _, rel := range res.Relations {
		if rel.Skipped {
			out[rel.Name] = false
		}
	}
	if res.Aborted {
		out["aborted"] = true
	}
	return out
}
