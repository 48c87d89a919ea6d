package db

import (
	"database/sql"
	"fmt"

	"github.com/darcoto/mymoney2/pkg/model"
)

// TokenStore persists the remote API token as a singleton row. The stored
// token is the sole source of truth for the token lifecycle; every remote
// call path resolves a valid token through it.
type TokenStore struct {
	conn *Connection
}

// NewTokenStore creates a new TokenStore.
func NewTokenStore(conn *Connection) *TokenStore {
	return &TokenStore{conn: conn}
}

// Get returns the stored token, or nil when none has been saved yet.
func (s *TokenStore) Get() (*model.SyncToken, error) {
	var t model.SyncToken
	err := s.conn.QueryRow(`
		SELECT access_token, refresh_token, expires_at
		FROM sync_token WHERE id = 1`,
	).Scan(&t.AccessToken, &t.RefreshToken, &t.ExpiresAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load sync token: %w", err)
	}
	return &t, nil
}

// Save replaces the singleton token wholesale.
func (s *TokenStore) Save(t model.SyncToken) error {
	_, err := s.conn.Exec(`
		INSERT INTO sync_token (id, access_token, refresh_token, expires_at)
		VALUES (1, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			access_token = excluded.access_token,
			refresh_token = excluded.refresh_token,
			expires_at = excluded.expires_at`,
		t.AccessToken, t.RefreshToken, t.ExpiresAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save sync token: %w", err)
	}
	return nil
}
