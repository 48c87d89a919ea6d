package db

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/darcoto/mymoney2/pkg/model"
)

// newTestDB opens a fresh database in a temp dir with the manual account
// present, so transaction rows have a valid foreign key target.
func newTestDB(t *testing.T) *Connection {
	t.Helper()

	conn, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	_, err = conn.Exec(
		"INSERT INTO accounts (id, display_name, currency, balance) VALUES (?, ?, ?, 0)",
		model.ManualAccountID, "Manual", "BGN",
	)
	require.NoError(t, err)
	return conn
}

// mustCreateCategory inserts a root expense category and returns its id.
func mustCreateCategory(t *testing.T, conn *Connection, name string) int64 {
	t.Helper()
	id, err := NewCategoryStore(conn).Create(model.Category{
		Name: name,
		Type: model.CategoryTypeExpense,
	})
	require.NoError(t, err)
	return id
}

// testTransaction builds a minimal valid transaction.
func testTransaction(id string) model.Transaction {
	return model.Transaction{
		ID:              id,
		AccountID:       model.ManualAccountID,
		TransactionDate: "2024-03-15",
		BookingDate:     "2024-03-15",
		Amount:          -28.98,
		Currency:        "BGN",
		Description:     "Card purchase SHOP",
	}
}
