package db

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/darcoto/mymoney2/pkg/model"
)

func TestSeedIdempotent(t *testing.T) {
	conn, err := Open(filepath.Join(t.TempDir(), "seed.db"))
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, Seed(conn, "BGN"))

	account, err := NewAccountStore(conn).GetByID(model.ManualAccountID)
	require.NoError(t, err)
	assert.Equal(t, "BGN", account.Currency)

	categories, err := NewCategoryStore(conn).GetAll()
	require.NoError(t, err)
	assert.NotEmpty(t, categories)

	ruleCount, err := NewRuleStore(conn).Count()
	require.NoError(t, err)
	assert.Greater(t, ruleCount, 0)

	// A second run must not duplicate anything.
	require.NoError(t, Seed(conn, "BGN"))

	categoriesAgain, err := NewCategoryStore(conn).GetAll()
	require.NoError(t, err)
	assert.Len(t, categoriesAgain, len(categories))

	ruleCountAgain, err := NewRuleStore(conn).Count()
	require.NoError(t, err)
	assert.Equal(t, ruleCount, ruleCountAgain)
}

func TestSeedPreservesUserRuleEdits(t *testing.T) {
	conn, err := Open(filepath.Join(t.TempDir(), "seed.db"))
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, Seed(conn, "BGN"))

	rules := NewRuleStore(conn)
	all, err := rules.GetAll()
	require.NoError(t, err)
	require.NotEmpty(t, all)

	// Delete every seeded rule; a reseed must not bring them back.
	for _, r := range all {
		require.NoError(t, rules.Delete(r.ID))
	}
	// Leave one user rule so the table is non-empty.
	groceries, err := NewCategoryStore(conn).GetByName("Groceries")
	require.NoError(t, err)
	_, err = rules.Create(model.Rule{Pattern: "MY SHOP", CategoryID: groceries.ID, Priority: 1, Active: true})
	require.NoError(t, err)

	require.NoError(t, Seed(conn, "BGN"))

	count, err := rules.Count()
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}
