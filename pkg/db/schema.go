// Package db provides the SQLite persistence layer: accounts, transactions,
// categories, categorization rules, the sync token singleton and mirrored
// requisitions.
package db

// Schema defines the SQL statements to create database tables.
const Schema = `
-- Accounts: remote bank accounts plus the reserved manual/cash account
CREATE TABLE IF NOT EXISTS accounts (
    id TEXT PRIMARY KEY,
    display_name TEXT NOT NULL,
    institution_id TEXT,
    institution_name TEXT,
    iban TEXT,
    currency TEXT NOT NULL,
    balance REAL NOT NULL DEFAULT 0,
    last_synced_at TIMESTAMP
);

-- Categories: two-level tree, globally unique names
CREATE TABLE IF NOT EXISTS categories (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    name TEXT NOT NULL UNIQUE,
    type TEXT NOT NULL CHECK (type IN ('income', 'expense', 'transfer')),
    color TEXT NOT NULL DEFAULT '',
    icon TEXT NOT NULL DEFAULT '',
    parent_id INTEGER REFERENCES categories(id) ON DELETE SET NULL
);

-- Canonical transactions
-- category_id and notes are locally assigned; upserts never overwrite them
CREATE TABLE IF NOT EXISTS transactions (
    id TEXT PRIMARY KEY,
    account_id TEXT NOT NULL REFERENCES accounts(id),
    transaction_date TEXT NOT NULL,    -- YYYY-MM-DD
    booking_date TEXT NOT NULL,        -- YYYY-MM-DD
    amount REAL NOT NULL,              -- signed, accounting currency
    currency TEXT NOT NULL,
    original_amount REAL,
    original_currency TEXT,
    description TEXT NOT NULL DEFAULT '',
    counterparty_name TEXT NOT NULL DEFAULT '',
    category_id INTEGER REFERENCES categories(id) ON DELETE SET NULL,
    notes TEXT,
    country_code TEXT,
    raw_source TEXT,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_transactions_account
    ON transactions(account_id, transaction_date);

CREATE INDEX IF NOT EXISTS idx_transactions_counterparty
    ON transactions(counterparty_name);

CREATE INDEX IF NOT EXISTS idx_transactions_category
    ON transactions(category_id);

-- Categorization rules: |-separated literal substrings, higher priority first
CREATE TABLE IF NOT EXISTS categorization_rules (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    pattern TEXT NOT NULL,
    category_id INTEGER NOT NULL REFERENCES categories(id) ON DELETE CASCADE,
    priority INTEGER NOT NULL DEFAULT 0,
    active INTEGER NOT NULL DEFAULT 1
);

-- Remote API token, singleton row
CREATE TABLE IF NOT EXISTS sync_token (
    id INTEGER PRIMARY KEY CHECK (id = 1),
    access_token TEXT NOT NULL,
    refresh_token TEXT NOT NULL DEFAULT '',
    expires_at TIMESTAMP NOT NULL
);

-- Requisitions mirrored from the remote API so terminal links are visible
CREATE TABLE IF NOT EXISTS requisitions (
    id TEXT PRIMARY KEY,
    institution_id TEXT NOT NULL,
    status TEXT NOT NULL,
    account_ids TEXT NOT NULL DEFAULT '[]', -- JSON array
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);
`

// InitializeSchema initializes the database schema.
// It creates all tables if they don't exist.
func InitializeSchema(conn *Connection) error {
	if _, err := conn.Exec(Schema); err != nil {
		return err
	}
	return nil
}
