package types

// ID strategies for inserts.
const (
	IDAuto = ""     // the database assigns ids (last insert id)
	IDUUID = "uuid" // a UUID v7 is generated when the row has no primary key
)

// Hook point names as they appear in schema declarations.
const (
	HookBeforeGet    = "before_get"
	HookAfterGet     = "after_get"
	HookBeforeInsert = "before_insert"
	HookAfterInsert  = "after_insert"
	HookBeforeUpdate = "before_update"
	HookAfterUpdate  = "after_update"
	HookBeforeDelete = "before_delete"
	HookAfterDelete  = "after_delete"
)

// Model declares one table's engine: its table, keys, writable fields,
// relations and hook bindings.
type Model struct {
	// Name identifies the model in the registry (e.g. "customer_model").
	// Defaults to the singular table name plus "_model".
	Name string `json:"model" yaml:"model"`
	// Table defaults to the plural of Name without a _m/_model suffix.
	Table      string `json:"table" yaml:"table"`
	PrimaryKey string `json:"primary_key" yaml:"primary_key"`
	// Protected fields are stripped from every insert/update payload.
	Protected []string `json:"protected" yaml:"protected"`
	// Fields is the optional column whitelist. Nil writes every field.
	Fields []string `json:"fields" yaml:"fields"`
	// IntrospectFields fills Fields from the database on first use.
	IntrospectFields bool       `json:"introspect_fields" yaml:"introspect_fields"`
	IDStrategy       string     `json:"id" yaml:"id"`
	Relations        []Relation `json:"relations" yaml:"relations"`
	// Hooks binds hook point names to registered hook names, in order.
	Hooks map[string][]string `json:"hooks" yaml:"hooks"`
}

// Relation returns the declared relation with the given name.
func (m Model) Relation(name string) (Relation, bool) {
	for _, r := range m.Relations {
		if r.Name == name {
			return r, true
		}
	}
	return Relation{}, false
}

// ColumnInfo describes one table column as reported by the database.
type ColumnInfo struct {
	Name       string  `json:"name"`
	Type       string  `json:"type"`
	Nullable   bool    `json:"nullable"`
	Default    *string `json:"default,omitempty"`
	PrimaryKey bool    `json:"primary_key"`
}
