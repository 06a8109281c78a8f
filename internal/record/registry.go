package record

import (
	"fmt"
	"slices"

	"github.com/mesh-intelligence/tablekit/pkg/types"
)

// Registry holds the model declarations and named hooks of one engine
// graph, and creates engines on demand. Related engines are cached by
// model and relation path, so a relation back to an already open table
// gets an engine of its own.
type Registry struct {
	connect func() Driver
	opts    []Option
	models  map[string]types.Model
	tables  map[string]string
	hooks   map[string]Hook
	engines map[string]*Engine
}

// NewRegistry creates a registry. connect returns a fresh driver for
// every engine; opts apply to every engine the registry creates.
func NewRegistry(connect func() Driver, opts ...Option) *Registry {
	return &Registry{
		connect: connect,
		opts:    opts,
		models:  make(map[string]types.Model),
		tables:  make(map[string]string),
		hooks:   make(map[string]Hook),
		engines: make(map[string]*Engine),
	}
}

// Register adds model declarations, filling their defaults.
func (r *Registry) Register(models ...types.Model) error {
	for _, m := range models {
		nm, err := NormalizeModel(m)
		if err != nil {
			return err
		}
		if _, ok := r.models[nm.Name]; ok {
			return fmt.Errorf("model %q registered twice: %w", nm.Name, types.ErrInvalidModel)
		}
		r.models[nm.Name] = nm
		if _, ok := r.tables[nm.Table]; !ok {
			r.tables[nm.Table] = nm.Name
		}
	}
	return nil
}

// RegisterHook names a handler so model declarations can bind it.
// Register hooks before the engines that use them are created.
func (r *Registry) RegisterHook(name string, fn Hook) {
	r.hooks[name] = fn
}

// Model returns the registered model called name.
func (r *Registry) Model(name string) (types.Model, bool) {
	m, ok := r.models[name]
	return m, ok
}

// Tables returns the registered table names, sorted.
func (r *Registry) Tables() []string {
	out := make([]string, 0, len(r.tables))
	for t := range r.tables {
		out = append(out, t)
	}
	slices.Sort(out)
	return out
}

// Engine returns the engine for model under alias, creating it on first
// use. An empty alias uses the model's table name.
func (r *Registry) Engine(model, alias string) (*Engine, error) {
	m, ok := r.models[model]
	if !ok {
		return nil, fmt.Errorf("%q: %w", model, types.ErrModelNotFound)
	}
	if alias == "" {
		alias = m.Table
	}
	return r.engine(m, alias, alias)
}

// Table returns the engine of the model registered for table.
func (r *Registry) Table(table string) (*Engine, error) {
	name, ok := r.tables[table]
	if !ok {
		return nil, fmt.Errorf("%q: %w", table, types.ErrTableNotFound)
	}
	return r.Engine(name, table)
}

func (r *Registry) engine(m types.Model, alias, path string) (*Engine, error) {
	key := m.Name + "@" + path
	if e, ok := r.engines[key]; ok {
		return e, nil
	}
	opts := append(slices.Clone(r.opts), WithName(alias), WithHookFuncs(r.hooks), withRegistry(r, path))
	e, err := New(m, r.connect(), opts...)
	if err != nil {
		return nil, err
	}
	r.engines[key] = e
	return e, nil
}

// opener binds a relation of the engine at parent to its related model.
// A relation whose model is not registered falls back to the model
// registered for its table.
func (r *Registry) opener(spec RelationSpec, parent string) func() (*Engine, error) {
	return func() (*Engine, error) {
		m, ok := r.models[spec.Model]
		if !ok {
			name, found := r.tables[spec.Table]
			if !found {
				return nil, fmt.Errorf("%q: %w", spec.Model, types.ErrModelNotFound)
			}
			m = r.models[name]
		}
		return r.engine(m, spec.Name, parent+"."+spec.Name)
	}
}
