package db

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpsertOutcomes(t *testing.T) {
	conn := newTestDB(t)
	store := NewTransactionStore(conn)

	tx := testTransaction("DSK_1")

	outcome, err := store.Upsert(tx)
	require.NoError(t, err)
	assert.Equal(t, UpsertInserted, outcome)

	outcome, err = store.Upsert(tx)
	require.NoError(t, err)
	assert.Equal(t, UpsertUnchanged, outcome)

	tx.Description = "Card purchase SHOP SOFIA"
	outcome, err = store.Upsert(tx)
	require.NoError(t, err)
	assert.Equal(t, UpsertUpdated, outcome)

	got, err := store.GetByID("DSK_1")
	require.NoError(t, err)
	assert.Equal(t, "Card purchase SHOP SOFIA", got.Description)
}

func TestUpsertValidation(t *testing.T) {
	conn := newTestDB(t)
	store := NewTransactionStore(conn)

	tx := testTransaction("")
	_, err := store.Upsert(tx)
	assert.Error(t, err, "empty id must be rejected")

	tx = testTransaction("X")
	tx.AccountID = ""
	_, err = store.Upsert(tx)
	assert.Error(t, err, "empty account id must be rejected")
}

func TestUpsertPreservesLocalFields(t *testing.T) {
	conn := newTestDB(t)
	store := NewTransactionStore(conn)
	categoryID := mustCreateCategory(t, conn, "Groceries")

	tx := testTransaction("DSK_1")
	_, err := store.Upsert(tx)
	require.NoError(t, err)

	require.NoError(t, store.UpdateCategory("DSK_1", &categoryID))
	notes := "split with roommate"
	require.NoError(t, store.UpdateNotes("DSK_1", &notes))

	// Re-ingestion with changed remote fields must not clobber the local ones.
	tx.Description = "updated by re-import"
	tx.Amount = -30.00
	outcome, err := store.Upsert(tx)
	require.NoError(t, err)
	assert.Equal(t, UpsertUpdated, outcome)

	got, err := store.GetByID("DSK_1")
	require.NoError(t, err)
	assert.Equal(t, "updated by re-import", got.Description)
	assert.Equal(t, -30.00, got.Amount)
	require.NotNil(t, got.CategoryID)
	assert.Equal(t, categoryID, *got.CategoryID)
	require.NotNil(t, got.Notes)
	assert.Equal(t, notes, *got.Notes)
}

func TestUpdateCategoryUnknownID(t *testing.T) {
	conn := newTestDB(t)
	store := NewTransactionStore(conn)

	err := store.UpdateCategory("missing", nil)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetTransactionsFilters(t *testing.T) {
	conn := newTestDB(t)
	store := NewTransactionStore(conn)
	categoryID := mustCreateCategory(t, conn, "Dining")

	dates := []string{"2024-01-10", "2024-02-10", "2024-03-10"}
	for i, d := range dates {
		tx := testTransaction(string(rune('A' + i)))
		tx.TransactionDate = d
		tx.BookingDate = d
		_, err := store.Upsert(tx)
		require.NoError(t, err)
	}
	require.NoError(t, store.UpdateCategory("A", &categoryID))

	uncategorized, err := store.GetTransactions(TransactionFilter{Uncategorized: true})
	require.NoError(t, err)
	assert.Len(t, uncategorized, 2)

	byCategory, err := store.GetTransactions(TransactionFilter{CategoryID: &categoryID})
	require.NoError(t, err)
	require.Len(t, byCategory, 1)
	assert.Equal(t, "A", byCategory[0].ID)

	ranged, err := store.GetTransactions(TransactionFilter{FromDate: "2024-02-01", ToDate: "2024-02-28"})
	require.NoError(t, err)
	require.Len(t, ranged, 1)
	assert.Equal(t, "B", ranged[0].ID)

	limited, err := store.GetTransactions(TransactionFilter{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}

func TestGetCategoryByCounterparty(t *testing.T) {
	conn := newTestDB(t)
	store := NewTransactionStore(conn)
	groceries := mustCreateCategory(t, conn, "Groceries")
	dining := mustCreateCategory(t, conn, "Dining")

	older := testTransaction("OLD")
	older.TransactionDate = "2024-01-01"
	older.CounterpartyName = "KAUFLAND SOFIA"
	_, err := store.Upsert(older)
	require.NoError(t, err)
	require.NoError(t, store.UpdateCategory("OLD", &dining))

	newer := testTransaction("NEW")
	newer.TransactionDate = "2024-02-01"
	newer.CounterpartyName = "KAUFLAND SOFIA"
	_, err = store.Upsert(newer)
	require.NoError(t, err)
	require.NoError(t, store.UpdateCategory("NEW", &groceries))

	got, err := store.GetCategoryByCounterparty("KAUFLAND SOFIA")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, groceries, *got, "most recent categorization wins")

	got, err = store.GetCategoryByCounterparty("UNSEEN SHOP")
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = store.GetCategoryByCounterparty("")
	require.NoError(t, err)
	assert.Nil(t, got, "empty counterparty never matches")
}

func TestCounts(t *testing.T) {
	conn := newTestDB(t)
	store := NewTransactionStore(conn)
	categoryID := mustCreateCategory(t, conn, "Transport")

	for _, id := range []string{"A", "B", "C"} {
		_, err := store.Upsert(testTransaction(id))
		require.NoError(t, err)
	}
	require.NoError(t, store.UpdateCategory("A", &categoryID))

	total, err := store.Count()
	require.NoError(t, err)
	assert.Equal(t, 3, total)

	uncategorized, err := store.CountUncategorized()
	require.NoError(t, err)
	assert.Equal(t, 2, uncategorized)
}
