package db

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/darcoto/mymoney2/pkg/model"
)

// RequisitionStore mirrors remote requisitions locally so terminal (expired,
// rejected) bank links remain visible for user cleanup between syncs.
type RequisitionStore struct {
	conn *Connection
}

// NewRequisitionStore creates a new RequisitionStore.
func NewRequisitionStore(conn *Connection) *RequisitionStore {
	return &RequisitionStore{conn: conn}
}

// Upsert inserts or replaces a requisition mirror row.
func (s *RequisitionStore) Upsert(r model.Requisition) error {
	if r.ID == "" {
		return fmt.Errorf("requisition id cannot be empty")
	}

	accounts, err := json.Marshal(r.AccountIDs)
	if err != nil {
		return fmt.Errorf("failed to encode account ids: %w", err)
	}

	_, err = s.conn.Exec(`
		INSERT INTO requisitions (id, institution_id, status, account_ids)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			institution_id = excluded.institution_id,
			status = excluded.status,
			account_ids = excluded.account_ids`,
		r.ID, r.InstitutionID, string(r.Status), string(accounts),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert requisition %s: %w", r.ID, err)
	}
	return nil
}

// GetByID retrieves a single mirrored requisition.
func (s *RequisitionStore) GetByID(id string) (*model.Requisition, error) {
	row := s.conn.QueryRow(
		"SELECT id, institution_id, status, account_ids FROM requisitions WHERE id = ?", id)
	r, err := scanRequisition(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get requisition %s: %w", id, err)
	}
	return r, nil
}

// GetAll returns every mirrored requisition.
func (s *RequisitionStore) GetAll() ([]model.Requisition, error) {
	rows, err := s.conn.Query(
		"SELECT id, institution_id, status, account_ids FROM requisitions ORDER BY created_at")
	if err != nil {
		return nil, fmt.Errorf("failed to query requisitions: %w", err)
	}
	defer rows.Close()

	var result []model.Requisition
	for rows.Next() {
		r, err := scanRequisition(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan requisition: %w", err)
		}
		result = append(result, *r)
	}
	return result, rows.Err()
}

func scanRequisition(r rowScanner) (*model.Requisition, error) {
	var req model.Requisition
	var status, accounts string
	if err := r.Scan(&req.ID, &req.InstitutionID, &status, &accounts); err != nil {
		return nil, err
	}
	req.Status = model.RequisitionStatus(status)
	if err := json.Unmarshal([]byte(accounts), &req.AccountIDs); err != nil {
		return nil, fmt.Errorf("failed to decode account ids for %s: %w", req.ID, err)
	}
	return &req, nil
}

// Delete removes a mirrored requisition (after remote deletion).
func (s *RequisitionStore) Delete(id string) error {
	res, err := s.conn.Exec("DELETE FROM requisitions WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete requisition %s: %w", id, err)
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
