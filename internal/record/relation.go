package record

import (
	"fmt"
	"strings"

	"github.com/jinzhu/inflection"

	"github.com/mesh-intelligence/tablekit/pkg/types"
)

// RelationSpec is a fully defaulted relation. Foreign columns may still
// be empty; they then match the related engine's primary key.
type RelationSpec struct {
	Name  string
	Table string
	Model string
	Keys  types.KeyMap

	open func() (*Engine, error)
}

// ResolveRelation fills the defaults of a declared relation named name on
// ownerTable. Table defaults to name, Model to the singular table plus
// "_model", and Keys to ownerPK → singular(ownerTable)+"_id". A key pair
// without a local column is bound to ownerPK.
func ResolveRelation(ownerTable, ownerPK, name string, decl types.Relation) RelationSpec {
	spec := RelationSpec{Name: name, Table: decl.Table, Model: decl.Model}
	if spec.Table == "" {
		spec.Table = name
	}
	if spec.Model == "" {
		spec.Model = inflection.Singular(spec.Table) + "_model"
	}
	if len(decl.Keys) == 0 {
		spec.Keys = types.KeyMap{{
			Local:   ownerPK,
			Foreign: []string{inflection.Singular(ownerTable) + "_id"},
		}}
		return spec
	}
	spec.Keys = make(types.KeyMap, 0, len(decl.Keys))
	for _, kp := range decl.Keys {
		pair := types.KeyPair{Local: kp.Local, Foreign: append([]string(nil), kp.Foreign...)}
		if pair.Local == "" {
			pair.Local = ownerPK
		}
		spec.Keys = append(spec.Keys, pair)
	}
	return spec
}

// NormalizeModel fills the defaults of a model declaration: the table
// from the model name, the model name from the table, and the "id"
// primary key. Relation names must be present and unique.
func NormalizeModel(m types.Model) (types.Model, error) {
	if m.Name == "" && m.Table == "" {
		return m, fmt.Errorf("model without name or table: %w", types.ErrInvalidModel)
	}
	if m.Table == "" {
		m.Table = TableFor(m.Name)
	}
	if m.Name == "" {
		m.Name = inflection.Singular(m.Table) + "_model"
	}
	if m.PrimaryKey == "" {
		m.PrimaryKey = "id"
	}
	seen := make(map[string]bool, len(m.Relations))
	for _, r := range m.Relations {
		if r.Name == "" {
			return m, fmt.Errorf("%s: relation without name: %w", m.Table, types.ErrInvalidModel)
		}
		if strings.Contains(r.Name, ".") {
			return m, fmt.Errorf("%s: relation name %q contains a dot: %w", m.Table, r.Name, types.ErrInvalidModel)
		}
		if seen[r.Name] {
			return m, fmt.Errorf("%s: duplicate relation %q: %w", m.Table, r.Name, types.ErrInvalidModel)
		}
		seen[r.Name] = true
	}
	return m, nil
}

// TableFor guesses a table name from a model name: "order_model" and
// "order_m" both give "orders".
func TableFor(model string) string {
	base := model
	for _, suffix := range []string{"_model", "_m"} {
		if trimmed, ok := strings.CutSuffix(base, suffix); ok && trimmed != "" {
			base = trimmed
			break
		}
	}
	return inflection.Plural(base)
}
