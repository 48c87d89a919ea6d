package db

import (
	"database/sql"
	"fmt"

	"github.com/darcoto/mymoney2/pkg/model"
)

// AccountStore manages account rows.
type AccountStore struct {
	conn *Connection
}

// NewAccountStore creates a new AccountStore.
func NewAccountStore(conn *Connection) *AccountStore {
	return &AccountStore{conn: conn}
}

// Upsert inserts or replaces an account. Remote sync owns every account
// field, so a plain conflict overwrite is correct here (unlike the
// transaction upsert, which merges).
func (s *AccountStore) Upsert(a model.Account) error {
	if a.ID == "" {
		return fmt.Errorf("account id cannot be empty")
	}

	_, err := s.conn.Exec(`
		INSERT INTO accounts (id, display_name, institution_id, institution_name,
		                      iban, currency, balance, last_synced_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			display_name = excluded.display_name,
			institution_id = excluded.institution_id,
			institution_name = excluded.institution_name,
			iban = excluded.iban,
			currency = excluded.currency,
			balance = excluded.balance,
			last_synced_at = excluded.last_synced_at`,
		a.ID, a.DisplayName, a.InstitutionID, a.InstitutionName,
		a.IBAN, a.Currency, a.Balance, a.LastSyncedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert account %s: %w", a.ID, err)
	}
	return nil
}

const selectAccount = `
	SELECT id, display_name, institution_id, institution_name, iban,
	       currency, balance, last_synced_at
	FROM accounts`

func scanAccount(r rowScanner) (*model.Account, error) {
	var a model.Account
	err := r.Scan(
		&a.ID, &a.DisplayName, &a.InstitutionID, &a.InstitutionName,
		&a.IBAN, &a.Currency, &a.Balance, &a.LastSyncedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// GetByID retrieves a single account.
func (s *AccountStore) GetByID(id string) (*model.Account, error) {
	row := s.conn.QueryRow(selectAccount+" WHERE id = ?", id)
	a, err := scanAccount(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account %s: %w", id, err)
	}
	return a, nil
}

// GetAll returns every account, manual account included.
func (s *AccountStore) GetAll() ([]model.Account, error) {
	rows, err := s.conn.Query(selectAccount + " ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("failed to query accounts: %w", err)
	}
	defer rows.Close()

	var result []model.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		result = append(result, *a)
	}
	return result, rows.Err()
}
