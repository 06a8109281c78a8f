package schema

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/tablekit/pkg/types"
)

func TestLoad(t *testing.T) {
	models, err := Load(filepath.Join("testdata", "shop.yaml"))
	require.NoError(t, err)
	require.Len(t, models, 4)

	names := make([]string, len(models))
	for i, m := range models {
		names[i] = m.Table
	}
	assert.Equal(t, []string{"customers", "orders", "items", "notes"}, names, "document order is kept")

	customers := models[0]
	assert.Equal(t, "customer_model", customers.Name)
	assert.Equal(t, []string{"id"}, customers.Protected)
	assert.Equal(t, []string{"id", "name", "email"}, customers.Fields)
	assert.False(t, customers.IntrospectFields)
	assert.Equal(t, map[string][]string{
		types.HookBeforeUpdate: {"touch"},
		types.HookAfterGet:     {"stamp"},
	}, customers.Hooks)

	require.Len(t, customers.Relations, 3)
	assert.Equal(t, types.Relation{Name: "orders", Keys: types.OwnerKeys("customer_id")}, customers.Relations[0])
	assert.Equal(t, types.Relation{Name: "profile", Keys: types.KeyMap{{Local: "id"}}}, customers.Relations[1])
	assert.Equal(t, types.Relation{
		Name:  "referrals",
		Table: "customers",
		Model: "customer_model",
		Keys: types.KeyMap{
			{Local: "id", Foreign: []string{"referred_by", "invited_by"}},
			{Local: "region", Foreign: []string{"region_code"}},
		},
	}, customers.Relations[2])

	orders := models[1]
	assert.True(t, orders.IntrospectFields)
	assert.Nil(t, orders.Fields)
	assert.Equal(t, []types.Relation{{Name: "items"}}, orders.Relations)

	assert.Equal(t, "item_id", models[2].PrimaryKey)
	assert.Equal(t, types.IDUUID, models[3].IDStrategy)
}

func TestParseRelationForms(t *testing.T) {
	models, err := Parse([]byte(`
tables:
  customers:
    relations:
      orders:
      invoices: { related_keys: customer_ref }
`))
	require.NoError(t, err)
	require.Len(t, models, 1)
	assert.Equal(t, []types.Relation{
		{Name: "orders"},
		{Name: "invoices", Keys: types.OwnerKeys("customer_ref")},
	}, models[0].Relations)
}

func TestParseErrors(t *testing.T) {
	tests := map[string]string{
		"tables not a mapping":  "tables: [a, b]",
		"relation options":      "tables:\n  a:\n    relations:\n      b: 3\n",
		"relation list entries": "tables:\n  a:\n    relations:\n      - {b: c}\n",
		"related keys shape":    "tables:\n  a:\n    relations:\n      b: { related_keys: [[x]] }\n",
		"id strategy":           "tables:\n  a:\n    id: serial\n",
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(doc))
			assert.Error(t, err)
		})
	}

	t.Run("sentinel", func(t *testing.T) {
		_, err := Parse([]byte("tables: [a]"))
		assert.ErrorIs(t, err, ErrInvalidSchema)
	})
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
