package types

// KeyPair maps one local column to the foreign columns it may match.
// An empty Local stands for the owning table's primary key; an empty
// Foreign stands for the related table's primary key.
type KeyPair struct {
	Local   string   `json:"local" yaml:"local"`
	Foreign []string `json:"foreign" yaml:"foreign"`
}

// KeyMap is the ordered local → foreign column mapping of a relation.
type KeyMap []KeyPair

// Relation is a declared, possibly partial, relation to another table.
// Zero fields are filled in when the relation is resolved.
type Relation struct {
	Name  string `json:"name" yaml:"name"`
	Table string `json:"table,omitempty" yaml:"table,omitempty"`
	Model string `json:"model,omitempty" yaml:"model,omitempty"`
	Keys  KeyMap `json:"related_keys,omitempty" yaml:"related_keys,omitempty"`
}

// OwnerKeys returns a KeyMap matching the owner's primary key against
// the given foreign columns, the shorthand form `related_keys: [col]`.
func OwnerKeys(foreign ...string) KeyMap {
	return KeyMap{{Foreign: foreign}}
}

// Keys builds a KeyMap from local/foreign pairs. A foreign value of ""
// maps the local column to the related table's primary key.
func Keys(localForeign ...string) KeyMap {
	var km KeyMap
	for i := 0; i < len(localForeign); i += 2 {
		pair := KeyPair{Local: localForeign[i]}
		if i+1 < len(localForeign) && localForeign[i+1] != "" {
			pair.Foreign = []string{localForeign[i+1]}
		}
		km = append(km, pair)
	}
	return km
}
