package record

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/google/uuid"

	"github.com/mesh-intelligence/tablekit/internal/rows"
	"github.com/mesh-intelligence/tablekit/internal/sqlbuilder"
	"github.com/mesh-intelligence/tablekit/pkg/types"
)

// Engine runs the record verbs for one table.
type Engine struct {
	name      string
	path      string
	model     types.Model
	db        Driver
	hooks     *Hooks
	relations []RelationSpec
	related   map[string]*Engine
	fields    []string
	audit     bool
	log       *AuditLog
	logger    *slog.Logger
	newID     func() (string, error)

	registry  *Registry
	factories map[string]func() (*Engine, error)
	hookFuncs map[string]Hook
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger for statements, cascades and aborts.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithName sets the engine's name, used as its audit log key. It
// defaults to the table name.
func WithName(name string) Option {
	return func(e *Engine) { e.name = name }
}

// WithAudit turns statement capture on from the start.
func WithAudit(on bool) Option {
	return func(e *Engine) { e.audit = on }
}

// WithRelated binds the engine factory of the relation called name.
func WithRelated(name string, open func() (*Engine, error)) Option {
	return func(e *Engine) {
		if e.factories == nil {
			e.factories = make(map[string]func() (*Engine, error))
		}
		e.factories[name] = open
	}
}

// WithHookFuncs supplies the named handlers the model's hook bindings
// refer to.
func WithHookFuncs(funcs map[string]Hook) Option {
	return func(e *Engine) { e.hookFuncs = funcs }
}

func withRegistry(r *Registry, path string) Option {
	return func(e *Engine) {
		e.registry = r
		e.path = path
	}
}

// New creates an engine for model over db.
func New(model types.Model, db Driver, opts ...Option) (*Engine, error) {
	m, err := NormalizeModel(model)
	if err != nil {
		return nil, err
	}
	if db == nil {
		return nil, fmt.Errorf("%s: no driver: %w", m.Table, types.ErrInvalidModel)
	}

	e := &Engine{
		name:    m.Table,
		model:   m,
		db:      db,
		hooks:   &Hooks{},
		related: make(map[string]*Engine),
		logger:  slog.Default(),
		newID:   newUUID,
	}
	if m.Fields != nil {
		e.fields = slices.Clone(m.Fields)
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.path == "" {
		e.path = e.name
	}
	e.log = newAuditLog(e.name)

	if err := e.hooks.bind(m.Hooks, e.hookFuncs); err != nil {
		return nil, fmt.Errorf("%s: %w", m.Table, err)
	}
	for _, decl := range m.Relations {
		spec := ResolveRelation(m.Table, m.PrimaryKey, decl.Name, decl)
		spec.open = e.factories[decl.Name]
		if spec.open == nil && e.registry != nil {
			spec.open = e.registry.opener(spec, e.path)
		}
		e.relations = append(e.relations, spec)
	}
	return e, nil
}

func newUUID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// Name returns the engine's name.
func (e *Engine) Name() string { return e.name }

// Table returns the table the engine works on.
func (e *Engine) Table() string { return e.model.Table }

// PrimaryKey returns the primary key column.
func (e *Engine) PrimaryKey() string { return e.model.PrimaryKey }

// Model returns the normalized model declaration.
func (e *Engine) Model() types.Model { return e.model }

// DB returns the driver. Filters set on it before a verb constrain that
// verb and are cleared when it returns.
func (e *Engine) DB() Driver { return e.db }

// Hooks returns the engine's hook registry.
func (e *Engine) Hooks() *Hooks { return e.hooks }

// Relations returns the resolved relations in declaration order.
func (e *Engine) Relations() []RelationSpec {
	return slices.Clone(e.relations)
}

// Relation returns the resolved relation called name.
func (e *Engine) Relation(name string) (RelationSpec, bool) {
	for _, r := range e.relations {
		if r.Name == name {
			return r, true
		}
	}
	return RelationSpec{}, false
}

// Related returns the engine behind the relation called name, creating
// it on first use.
func (e *Engine) Related(name string) (*Engine, error) {
	if re, ok := e.related[name]; ok {
		return re, nil
	}
	spec, ok := e.Relation(name)
	if !ok {
		return nil, fmt.Errorf("%s.%s: %w", e.Table(), name, types.ErrUndefinedRelationship)
	}
	if spec.open == nil {
		return nil, fmt.Errorf("%s.%s: %s: %w", e.Table(), name, spec.Model, types.ErrModelNotFound)
	}
	re, err := spec.open()
	if err != nil {
		return nil, fmt.Errorf("%s.%s: %w", e.Table(), name, err)
	}
	e.related[name] = re
	return re, nil
}

// Fields returns the column whitelist, nil when every field is writable.
func (e *Engine) Fields() []string {
	return slices.Clone(e.fields)
}

// RefreshFields replaces the whitelist with the table's current columns.
func (e *Engine) RefreshFields(ctx context.Context) error {
	cols, err := e.db.ListColumns(ctx, e.Table())
	if err != nil {
		return fmt.Errorf("refreshing fields of %s: %w", e.Table(), err)
	}
	e.fields = cols
	return nil
}

// Columns returns the table's column metadata.
func (e *Engine) Columns(ctx context.Context) ([]types.ColumnInfo, error) {
	return e.db.ColumnMetadata(ctx, e.Table())
}

// SetAudit turns statement capture on or off. Related engines pick the
// flag up when a cascade reaches them.
func (e *Engine) SetAudit(on bool) { e.audit = on }

// Auditing reports whether statement capture is on.
func (e *Engine) Auditing() bool { return e.audit }

// TakeAudit returns the captured log and starts a new one.
func (e *Engine) TakeAudit() *AuditLog {
	l := e.log
	e.log = newAuditLog(e.name)
	return l
}

// With starts a call scope including the named relations. Dotted names
// reach relations of related engines.
func (e *Engine) With(names ...string) *Scope {
	return e.scope().With(names...)
}

// Flatten starts a call scope whose fetch results are flattened.
func (e *Engine) Flatten(full bool) *Scope {
	return e.scope().Flatten(full)
}

// Get fetches rows by primary value. See Scope.Get.
func (e *Engine) Get(ctx context.Context, primary any) (*GetResult, error) {
	return e.scope().Get(ctx, primary)
}

// Insert writes one row or a list of rows. See Scope.Insert.
func (e *Engine) Insert(ctx context.Context, data any) (*InsertResult, error) {
	return e.scope().Insert(ctx, data)
}

// Update writes data to the rows selected by primary. See Scope.Update.
func (e *Engine) Update(ctx context.Context, data, primary any) (*WriteResult, error) {
	return e.scope().Update(ctx, data, primary)
}

// Delete removes the rows selected by target. See Scope.Delete.
func (e *Engine) Delete(ctx context.Context, target any) (*WriteResult, error) {
	return e.scope().Delete(ctx, target)
}

func (e *Engine) scope() *Scope {
	return &Scope{engine: e}
}

// where constrains the next statement to the given primary values.
func (e *Engine) where(primary any) {
	if primary == nil {
		return
	}
	pk := e.PrimaryKey()
	if !rows.IsList(primary) {
		e.db.Where(sqlbuilder.Eq(pk, primary))
		return
	}
	vals := rows.ListOf(primary)
	if len(vals) == 1 {
		e.db.Where(sqlbuilder.Eq(pk, vals[0]))
		return
	}
	e.db.Where(sqlbuilder.In(pk, vals))
}

// writable filters a payload down to the columns the engine may write.
// Relation payloads never reach the local statement.
func (e *Engine) writable(ctx context.Context, row types.Row) (types.Row, error) {
	if e.model.IntrospectFields && e.fields == nil {
		if err := e.RefreshFields(ctx); err != nil {
			return types.Row{}, err
		}
	}
	out := rows.FilterWritable(row, e.model.Protected, e.fields)
	for _, spec := range e.relations {
		if v, ok := out.Get(spec.Name); ok && rows.IsComposite(v) {
			out.Delete(spec.Name)
		}
	}
	return out, nil
}

// executed logs the statement the driver just ran and captures it when
// auditing.
func (e *Engine) executed() {
	q := e.db.LastQuery()
	e.logger.Debug("statement", "engine", e.name, "sql", q)
	if e.audit {
		e.log.add(q)
	}
}

// pull nests a related engine's captured statements into this log.
func (e *Engine) pull(related *Engine) {
	if !e.audit || related == e {
		return
	}
	e.log.nest(related.TakeAudit())
}

func (e *Engine) reset() {
	e.db.Reset()
}

func (e *Engine) aborted(p Point) {
	e.logger.Info("verb aborted by hook", "engine", e.name, "point", p.String())
}
