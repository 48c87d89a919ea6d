package db

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/darcoto/mymoney2/pkg/model"
)

func TestRuleOrdering(t *testing.T) {
	conn := newTestDB(t)
	store := NewRuleStore(conn)
	categoryID := mustCreateCategory(t, conn, "Groceries")

	// Insert out of priority order; ties must keep insertion order.
	_, err := store.Create(model.Rule{Pattern: "LOW", CategoryID: categoryID, Priority: 1, Active: true})
	require.NoError(t, err)
	_, err = store.Create(model.Rule{Pattern: "HIGH", CategoryID: categoryID, Priority: 10, Active: true})
	require.NoError(t, err)
	_, err = store.Create(model.Rule{Pattern: "TIE_FIRST", CategoryID: categoryID, Priority: 5, Active: true})
	require.NoError(t, err)
	_, err = store.Create(model.Rule{Pattern: "TIE_SECOND", CategoryID: categoryID, Priority: 5, Active: true})
	require.NoError(t, err)

	rules, err := store.GetAll()
	require.NoError(t, err)
	require.Len(t, rules, 4)

	patterns := make([]string, len(rules))
	for i, r := range rules {
		patterns[i] = r.Pattern
	}
	assert.Equal(t, []string{"HIGH", "TIE_FIRST", "TIE_SECOND", "LOW"}, patterns)
}

func TestRuleSetActiveAndDelete(t *testing.T) {
	conn := newTestDB(t)
	store := NewRuleStore(conn)
	categoryID := mustCreateCategory(t, conn, "Dining")

	id, err := store.Create(model.Rule{Pattern: "PIZZA", CategoryID: categoryID, Priority: 1, Active: true})
	require.NoError(t, err)

	require.NoError(t, store.SetActive(id, false))
	rules, err := store.GetAll()
	require.NoError(t, err)
	require.Len(t, rules, 1)
	assert.False(t, rules[0].Active)

	require.NoError(t, store.Delete(id))
	assert.ErrorIs(t, store.Delete(id), ErrNotFound)
}

func TestRuleRequiresExistingCategory(t *testing.T) {
	conn := newTestDB(t)
	store := NewRuleStore(conn)

	_, err := store.Create(model.Rule{Pattern: "X", CategoryID: 9999, Priority: 1, Active: true})
	assert.Error(t, err)
}
