package record

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/tablekit/pkg/types"
)

func assertAuditGolden(t *testing.T, name string, log *AuditLog) {
	t.Helper()
	out, err := json.MarshalIndent(log, "", "  ")
	require.NoError(t, err)
	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, out)
}

func TestAuditNestsCascades(t *testing.T) {
	ctx := context.Background()
	_, reg := shop(t)
	e := customers(t, reg)
	e.SetAudit(true)

	_, err := e.With("orders").Get(ctx, 7)
	require.NoError(t, err)
	log := e.TakeAudit()
	assert.Equal(t, []string{"SELECT * FROM customers WHERE id = 7 LIMIT 1"}, log.Statements())
	assertAuditGolden(t, "get_cascade", log)

	_, err = e.With("orders.items").Get(ctx, 8)
	require.NoError(t, err)
	assertAuditGolden(t, "get_nested_cascade", e.TakeAudit())

	orders, err := e.Related("orders")
	require.NoError(t, err)
	assert.True(t, orders.Auditing(), "auditing spreads to cascaded engines")
	assert.Zero(t, orders.TakeAudit().Len(), "cascade logs are pulled into the parent")
}

func TestAuditWrites(t *testing.T) {
	ctx := context.Background()
	_, reg := shop(t)
	e := customers(t, reg)
	e.SetAudit(true)

	_, err := e.With("orders", "profile").Update(ctx,
		types.NewRow("id", 7, "name", "anna", "profile", types.NewRow("bio", "new")), nil)
	require.NoError(t, err)
	_, err = e.With("orders").Delete(ctx, 8)
	require.NoError(t, err)
	assertAuditGolden(t, "writes", e.TakeAudit())
}

func TestAuditOff(t *testing.T) {
	_, reg := shop(t)
	e := customers(t, reg)
	_, err := e.With("orders").Get(context.Background(), 7)
	require.NoError(t, err)
	assert.Zero(t, e.TakeAudit().Len())
}

func TestAuditLogJSON(t *testing.T) {
	log := newAuditLog("customers")
	log.add("SELECT 1")
	child := newAuditLog("orders")
	child.add("SELECT 2")
	log.nest(child)
	log.nest(newAuditLog("empty"))

	out, err := json.Marshal(log)
	require.NoError(t, err)
	assert.Equal(t, `{"customers":["SELECT 1",{"orders":["SELECT 2"]}]}`, string(out))
}

func TestAuditNestsOnlyCascadeStatements(t *testing.T) {
	ctx := context.Background()
	_, reg := shop(t)
	e := customers(t, reg)
	orders, err := e.Related("orders")
	require.NoError(t, err)
	orders.SetAudit(true)
	_, err = orders.Get(ctx, 3)
	require.NoError(t, err)

	e.SetAudit(true)
	_, err = e.With("orders").Get(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t,
		`{"customers":["SELECT * FROM customers WHERE id = 7 LIMIT 1",{"orders":["SELECT * FROM orders WHERE customer_id = 7"]}]}`,
		jsonOf(t, e.TakeAudit()))
}
