package db

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/darcoto/mymoney2/pkg/model"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// UpsertOutcome describes what an upsert did to a transaction row.
type UpsertOutcome int

const (
	// UpsertInserted means the id was unknown and a new row was written.
	UpsertInserted UpsertOutcome = iota
	// UpsertUpdated means the row existed and mutable fields changed.
	UpsertUpdated
	// UpsertUnchanged means the row existed with identical mutable fields.
	UpsertUnchanged
)

// TransactionStore manages canonical transaction rows.
type TransactionStore struct {
	conn *Connection
}

// NewTransactionStore creates a new TransactionStore.
func NewTransactionStore(conn *Connection) *TransactionStore {
	return &TransactionStore{conn: conn}
}

// TransactionFilter narrows GetTransactions results. Zero values mean
// "no constraint".
type TransactionFilter struct {
	AccountID     string
	CategoryID    *int64
	Uncategorized bool
	FromDate      string // YYYY-MM-DD inclusive
	ToDate        string // YYYY-MM-DD inclusive
	Limit         int
}

// Upsert inserts or merges a transaction using the store's connection.
func (s *TransactionStore) Upsert(t model.Transaction) (UpsertOutcome, error) {
	return s.UpsertIn(s.conn, t)
}

// UpsertIn inserts or merges a transaction within the given Queryable,
// which may be an open *sql.Tx owned by the batch importer.
//
// Merge semantics: if the id is unknown the full record is inserted. If the
// id exists, only the remote-origin mutable fields (dates, amount, currency,
// original amount/currency, description, counterparty, country, raw source)
// are overwritten; the locally assigned category_id and notes are never
// touched. Identical mutable fields make the upsert a no-op.
func (s *TransactionStore) UpsertIn(q Queryable, t model.Transaction) (UpsertOutcome, error) {
	if t.ID == "" {
		return 0, fmt.Errorf("transaction id cannot be empty")
	}
	if t.AccountID == "" {
		return 0, fmt.Errorf("transaction %s: account id cannot be empty", t.ID)
	}

	var existing model.Transaction
	err := q.QueryRow(`
		SELECT transaction_date, booking_date, amount, currency,
		       original_amount, original_currency, description,
		       counterparty_name, country_code, raw_source
		FROM transactions WHERE id = ?`, t.ID,
	).Scan(
		&existing.TransactionDate, &existing.BookingDate, &existing.Amount,
		&existing.Currency, &existing.OriginalAmount, &existing.OriginalCurrency,
		&existing.Description, &existing.CounterpartyName,
		&existing.CountryCode, &existing.RawSource,
	)

	switch {
	case err == sql.ErrNoRows:
		_, err := q.Exec(`
			INSERT INTO transactions (
				id, account_id, transaction_date, booking_date, amount,
				currency, original_amount, original_currency, description,
				counterparty_name, category_id, notes, country_code, raw_source
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			t.ID, t.AccountID, t.TransactionDate, t.BookingDate, t.Amount,
			t.Currency, t.OriginalAmount, t.OriginalCurrency, t.Description,
			t.CounterpartyName, t.CategoryID, t.Notes, t.CountryCode, t.RawSource,
		)
		if err != nil {
			return 0, fmt.Errorf("failed to insert transaction %s: %w", t.ID, err)
		}
		return UpsertInserted, nil

	case err != nil:
		return 0, fmt.Errorf("failed to look up transaction %s: %w", t.ID, err)
	}

	if mutableFieldsEqual(existing, t) {
		return UpsertUnchanged, nil
	}

	_, err = q.Exec(`
		UPDATE transactions SET
			transaction_date = ?, booking_date = ?, amount = ?, currency = ?,
			original_amount = ?, original_currency = ?, description = ?,
			counterparty_name = ?, country_code = ?, raw_source = ?
		WHERE id = ?`,
		t.TransactionDate, t.BookingDate, t.Amount, t.Currency,
		t.OriginalAmount, t.OriginalCurrency, t.Description,
		t.CounterpartyName, t.CountryCode, t.RawSource, t.ID,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to update transaction %s: %w", t.ID, err)
	}
	return UpsertUpdated, nil
}

// mutableFieldsEqual compares the remote-origin fields that an upsert merges.
func mutableFieldsEqual(a, b model.Transaction) bool {
	return a.TransactionDate == b.TransactionDate &&
		a.BookingDate == b.BookingDate &&
		a.Amount == b.Amount &&
		a.Currency == b.Currency &&
		ptrFloatEqual(a.OriginalAmount, b.OriginalAmount) &&
		ptrStringEqual(a.OriginalCurrency, b.OriginalCurrency) &&
		a.Description == b.Description &&
		a.CounterpartyName == b.CounterpartyName &&
		ptrStringEqual(a.CountryCode, b.CountryCode) &&
		a.RawSource == b.RawSource
}

func ptrFloatEqual(a, b *float64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func ptrStringEqual(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// GetByID retrieves a single transaction.
func (s *TransactionStore) GetByID(id string) (*model.Transaction, error) {
	row := s.conn.QueryRow(selectTransaction+" WHERE id = ?", id)
	t, err := scanTransaction(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction %s: %w", id, err)
	}
	return t, nil
}

const selectTransaction = `
	SELECT id, account_id, transaction_date, booking_date, amount, currency,
	       original_amount, original_currency, description, counterparty_name,
	       category_id, notes, country_code, raw_source
	FROM transactions`

// rowScanner abstracts *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanTransaction(r rowScanner) (*model.Transaction, error) {
	var t model.Transaction
	var rawSource sql.NullString
	err := r.Scan(
		&t.ID, &t.AccountID, &t.TransactionDate, &t.BookingDate, &t.Amount,
		&t.Currency, &t.OriginalAmount, &t.OriginalCurrency, &t.Description,
		&t.CounterpartyName, &t.CategoryID, &t.Notes, &t.CountryCode, &rawSource,
	)
	if err != nil {
		return nil, err
	}
	t.RawSource = rawSource.String
	return &t, nil
}

// GetTransactions returns transactions matching the filter, newest first.
// An uncategorized filter can return an effectively unbounded result set;
// callers iterate row by row where that matters.
func (s *TransactionStore) GetTransactions(filter TransactionFilter) ([]model.Transaction, error) {
	query := selectTransaction + " WHERE 1=1"
	var args []interface{}

	if filter.AccountID != "" {
		query += " AND account_id = ?"
		args = append(args, filter.AccountID)
	}
	if filter.CategoryID != nil {
		query += " AND category_id = ?"
		args = append(args, *filter.CategoryID)
	}
	if filter.Uncategorized {
		query += " AND category_id IS NULL"
	}
	if filter.FromDate != "" {
		query += " AND transaction_date >= ?"
		args = append(args, filter.FromDate)
	}
	if filter.ToDate != "" {
		query += " AND transaction_date <= ?"
		args = append(args, filter.ToDate)
	}
	query += " ORDER BY transaction_date DESC, id"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := s.conn.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer rows.Close()

	var result []model.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		result = append(result, *t)
	}
	return result, rows.Err()
}

// UpdateCategory sets or clears a transaction's category.
func (s *TransactionStore) UpdateCategory(id string, categoryID *int64) error {
	res, err := s.conn.Exec("UPDATE transactions SET category_id = ? WHERE id = ?", categoryID, id)
	if err != nil {
		return fmt.Errorf("failed to update category for %s: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateNotes sets or clears a transaction's notes.
func (s *TransactionStore) UpdateNotes(id string, notes *string) error {
	res, err := s.conn.Exec("UPDATE transactions SET notes = ? WHERE id = ?", notes, id)
	if err != nil {
		return fmt.Errorf("failed to update notes for %s: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// GetCategoryByCounterparty returns the category of the most recent
// transaction with the given counterparty that already has one. This seeds
// auto-categorization from a single manual assignment. Returns nil when the
// counterparty is unknown, uncategorized so far, or empty.
func (s *TransactionStore) GetCategoryByCounterparty(name string) (*int64, error) {
	if name == "" {
		return nil, nil
	}

	var categoryID int64
	err := s.conn.QueryRow(`
		SELECT category_id FROM transactions
		WHERE counterparty_name = ? AND category_id IS NOT NULL
		ORDER BY transaction_date DESC, created_at DESC
		LIMIT 1`, name,
	).Scan(&categoryID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up counterparty category: %w", err)
	}
	return &categoryID, nil
}

// Count returns the total number of stored transactions.
func (s *TransactionStore) Count() (int, error) {
	var n int
	if err := s.conn.QueryRow("SELECT COUNT(*) FROM transactions").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count transactions: %w", err)
	}
	return n, nil
}

// CountUncategorized returns the number of transactions with no category.
func (s *TransactionStore) CountUncategorized() (int, error) {
	var n int
	if err := s.conn.QueryRow("SELECT COUNT(*) FROM transactions WHERE category_id IS NULL").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count uncategorized transactions: %w", err)
	}
	return n, nil
}
