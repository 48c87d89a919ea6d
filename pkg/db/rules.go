package db

import (
	"fmt"

	"github.com/darcoto/mymoney2/pkg/model"
)

// RuleStore manages categorization rules.
type RuleStore struct {
	conn *Connection
}

// NewRuleStore creates a new RuleStore.
func NewRuleStore(conn *Connection) *RuleStore {
	return &RuleStore{conn: conn}
}

// Create inserts a rule and returns its id.
func (s *RuleStore) Create(r model.Rule) (int64, error) {
	if r.Pattern == "" {
		return 0, fmt.Errorf("rule pattern cannot be empty")
	}

	res, err := s.conn.Exec(`
		INSERT INTO categorization_rules (pattern, category_id, priority, active)
		VALUES (?, ?, ?, ?)`,
		r.Pattern, r.CategoryID, r.Priority, r.Active,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to create rule %q: %w", r.Pattern, err)
	}
	return res.LastInsertId()
}

// GetAll returns every rule ordered by priority descending, ties broken by
// creation order (id ascending). The categorization engine relies on this
// ordering for deterministic matching.
func (s *RuleStore) GetAll() ([]model.Rule, error) {
	rows, err := s.conn.Query(`
		SELECT id, pattern, category_id, priority, active
		FROM categorization_rules
		ORDER BY priority DESC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query rules: %w", err)
	}
	defer rows.Close()

	var result []model.Rule
	for rows.Next() {
		var r model.Rule
		if err := rows.Scan(&r.ID, &r.Pattern, &r.CategoryID, &r.Priority, &r.Active); err != nil {
			return nil, fmt.Errorf("failed to scan rule: %w", err)
		}
		result = append(result, r)
	}
	return result, rows.Err()
}

// SetActive toggles a rule without deleting it.
func (s *RuleStore) SetActive(id int64, active bool) error {
	res, err := s.conn.Exec("UPDATE categorization_rules SET active = ? WHERE id = ?", active, id)
	if err != nil {
		return fmt.Errorf("failed to update rule %d: %w", id, err)
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

// Delete removes a rule.
func (s *RuleStore) Delete(id int64) error {
	res, err := s.conn.Exec("DELETE FROM categorization_rules WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete rule %d: %w", id, err)
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

// Count returns the number of stored rules.
func (s *RuleStore) Count() (int, error) {
	var n int
	if err := s.conn.QueryRow("SELECT COUNT(*) FROM categorization_rules").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count rules: %w", err)
	}
	return n, nil
}
