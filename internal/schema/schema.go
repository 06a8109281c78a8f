// Package schema loads table declarations from YAML.
//
// A schema file lists tables in order under "tables". Each table may name
// its model, primary key, protected and writable fields, id strategy,
// relations and hook bindings:
//
//	tables:
//	  customers:
//	    model: customer_model
//	    protected: [id]
//	    fields: auto
//	    relations:
//	      orders: { related_keys: [customer_id] }
//	      profile: { related_keys: { id: null } }
//	    hooks:
//	      before_update: [touch]
//
// related_keys takes a column, a list of columns (matched against the
// owner's primary key) or an ordered mapping from local column to a
// foreign column, a list of them, or null for the related primary key.
package schema

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/tablekit/pkg/types"
)

// ErrInvalidSchema reports a malformed schema document.
var ErrInvalidSchema = errors.New("invalid schema")

// fieldsAuto asks for the writable fields to be read from the database.
const fieldsAuto = "auto"

// Load reads the schema file at path.
func Load(path string) ([]types.Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading schema: %w", err)
	}
	models, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return models, nil
}

// Parse decodes a schema document into models, in document order.
func Parse(data []byte) ([]types.Model, error) {
	var doc struct {
		Tables tableList `yaml:"tables"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return doc.Tables, nil
}

type tableList []types.Model

func (l *tableList) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return invalid(node, "tables must be a mapping")
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		name := node.Content[i].Value
		var decl table
		if err := node.Content[i+1].Decode(&decl); err != nil {
			return err
		}
		m := types.Model{
			Name:             decl.Model,
			Table:            name,
			PrimaryKey:       decl.PrimaryKey,
			Protected:        decl.Protected,
			Fields:           decl.Fields.names,
			IntrospectFields: decl.Fields.auto,
			IDStrategy:       decl.ID,
			Relations:        decl.Relations,
		}
		if len(decl.Hooks) > 0 {
			m.Hooks = make(map[string][]string, len(decl.Hooks))
			for point, names := range decl.Hooks {
				m.Hooks[point] = names
			}
		}
		switch m.IDStrategy {
		case types.IDAuto, types.IDUUID:
		default:
			return invalid(node.Content[i+1], fmt.Sprintf("table %s: unknown id strategy %q", name, m.IDStrategy))
		}
		*l = append(*l, m)
	}
	return nil
}

type table struct {
	Model      string                `yaml:"model"`
	PrimaryKey string                `yaml:"primary_key"`
	Protected  stringList            `yaml:"protected"`
	Fields     fields                `yaml:"fields"`
	ID         string                `yaml:"id"`
	Relations  relationList          `yaml:"relations"`
	Hooks      map[string]stringList `yaml:"hooks"`
}

// stringList accepts a single string or a list of strings.
type stringList []string

func (s *stringList) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		if node.ShortTag() == "!!null" {
			return nil
		}
		*s = stringList{node.Value}
		return nil
	case yaml.SequenceNode:
		var out []string
		if err := node.Decode(&out); err != nil {
			return err
		}
		*s = out
		return nil
	}
	return invalid(node, "expected a string or a list of strings")
}

// fields is either a column whitelist or "auto".
type fields struct {
	names []string
	auto  bool
}

func (f *fields) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode && node.Value == fieldsAuto {
		f.auto = true
		return nil
	}
	var names stringList
	if err := node.Decode(&names); err != nil {
		return err
	}
	f.names = names
	if f.names == nil {
		f.names = []string{}
	}
	return nil
}

// relationList accepts a list of relation names or a mapping from
// relation name to its options.
type relationList []types.Relation

func (l *relationList) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.SequenceNode:
		for _, item := range node.Content {
			if item.Kind != yaml.ScalarNode {
				return invalid(item, "relation list entries must be names")
			}
			*l = append(*l, types.Relation{Name: item.Value})
		}
		return nil
	case yaml.MappingNode:
		for i := 0; i+1 < len(node.Content); i += 2 {
			rel := types.Relation{Name: node.Content[i].Value}
			opts := node.Content[i+1]
			if opts.Kind == yaml.MappingNode {
				var decl struct {
					Table string `yaml:"table"`
					Model string `yaml:"model"`
					Keys  keyMap `yaml:"related_keys"`
				}
				if err := opts.Decode(&decl); err != nil {
					return err
				}
				rel.Table, rel.Model, rel.Keys = decl.Table, decl.Model, types.KeyMap(decl.Keys)
			} else if opts.ShortTag() != "!!null" {
				return invalid(opts, fmt.Sprintf("relation %s: options must be a mapping", rel.Name))
			}
			*l = append(*l, rel)
		}
		return nil
	}
	return invalid(node, "relations must be a list or a mapping")
}

// keyMap decodes the related_keys forms, keeping mapping order.
type keyMap types.KeyMap

func (k *keyMap) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode, yaml.SequenceNode:
		var foreign stringList
		if err := node.Decode(&foreign); err != nil {
			return err
		}
		if len(foreign) > 0 {
			*k = keyMap(types.OwnerKeys(foreign...))
		}
		return nil
	case yaml.MappingNode:
		for i := 0; i+1 < len(node.Content); i += 2 {
			var foreign stringList
			if err := node.Content[i+1].Decode(&foreign); err != nil {
				return err
			}
			*k = append(*k, types.KeyPair{Local: node.Content[i].Value, Foreign: foreign})
		}
		return nil
	}
	return invalid(node, "related_keys must be a column, a list or a mapping")
}

func invalid(node *yaml.Node, msg string) error {
	return fmt.Errorf("line %d: %s: %w", node.Line, msg, ErrInvalidSchema)
}
