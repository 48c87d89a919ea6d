// Package model defines the canonical domain types shared across the
// ingestion, categorization and sync pipeline.
package model

import "time"

// ManualAccountID is the reserved account for cash and hand-entered
// transactions. It has no remote counterpart and is never synced.
const ManualAccountID = "manual"

// Transaction is the canonical, format-independent transaction record that
// every source (bank XML export, CSV export, remote API) converges to.
//
// ID is deterministic from immutable source fields, so re-ingesting the same
// source data produces the same ID and the upsert becomes a no-op.
// CategoryID and Notes are locally assigned and are never overwritten by an
// upsert; the remaining fields track the source of truth and are merged on
// re-ingestion.
type Transaction struct {
	ID               string   `json:"id"`
	AccountID        string   `json:"accountId"`
	TransactionDate  string   `json:"transactionDate"` // YYYY-MM-DD
	BookingDate      string   `json:"bookingDate"`     // YYYY-MM-DD
	Amount           float64  `json:"amount"`          // signed, accounting currency
	Currency         string   `json:"currency"`
	OriginalAmount   *float64 `json:"originalAmount,omitempty"`
	OriginalCurrency *string  `json:"originalCurrency,omitempty"`
	Description      string   `json:"description"`
	CounterpartyName string   `json:"counterpartyName"`
	CategoryID       *int64   `json:"categoryId,omitempty"`
	Notes            *string  `json:"notes,omitempty"`
	CountryCode      *string  `json:"countryCode,omitempty"`
	RawSource        string   `json:"rawSource,omitempty"` // opaque provenance blob
}

// Account represents a bank account, remote or manual.
type Account struct {
	ID              string     `json:"id"`
	DisplayName     string     `json:"displayName"`
	InstitutionID   *string    `json:"institutionId,omitempty"`
	InstitutionName *string    `json:"institutionName,omitempty"`
	IBAN            *string    `json:"iban,omitempty"`
	Currency        string     `json:"currency"`
	Balance         float64    `json:"balance"`
	LastSyncedAt    *time.Time `json:"lastSyncedAt,omitempty"`
}

// CategoryType classifies a category's flow direction.
type CategoryType string

const (
	CategoryTypeIncome   CategoryType = "income"
	CategoryTypeExpense  CategoryType = "expense"
	CategoryTypeTransfer CategoryType = "transfer"
)

// Category is a node in the two-level category tree. Root categories may
// have children; deeper nesting is not modeled.
type Category struct {
	ID       int64        `json:"id"`
	Name     string       `json:"name"` // globally unique
	Type     CategoryType `json:"type"`
	Color    string       `json:"color"`
	Icon     string       `json:"icon"`
	ParentID *int64       `json:"parentId,omitempty"`
}

// Rule is a categorization rule. Pattern holds one or more |-separated
// literal substrings matched case-insensitively against transaction text.
// Higher priority rules are evaluated first.
type Rule struct {
	ID         int64  `json:"id"`
	Pattern    string `json:"pattern"`
	CategoryID int64  `json:"categoryId"`
	Priority   int    `json:"priority"`
	Active     bool   `json:"active"`
}

// RequisitionStatus is the remote API's bank-link consent state.
type RequisitionStatus string

const (
	RequisitionCreated          RequisitionStatus = "CR" // created
	RequisitionGivingConsent    RequisitionStatus = "GA" // access granted
	RequisitionSelectedAccounts RequisitionStatus = "SA" // accounts selected
	RequisitionLinked           RequisitionStatus = "LN" // linked, syncable
	RequisitionAwaitingApproval RequisitionStatus = "UA" // awaiting user approval
	RequisitionExpired          RequisitionStatus = "EX" // terminal
	RequisitionRejected         RequisitionStatus = "RJ" // terminal
)

// Requisition represents a user's consent grant to access one institution's
// account data. Only linked (LN) requisitions are eligible sync sources.
type Requisition struct {
	ID            string            `json:"id"`
	InstitutionID string            `json:"institutionId"`
	Status        RequisitionStatus `json:"status"`
	AccountIDs    []string          `json:"accountIds"`
}

// Syncable reports whether the requisition's linked accounts can be synced.
func (r Requisition) Syncable() bool {
	return r.Status == RequisitionLinked && len(r.AccountIDs) > 0
}

// Terminal reports whether the requisition is dead and needs user cleanup.
func (r Requisition) Terminal() bool {
	return r.Status == RequisitionExpired || r.Status == RequisitionRejected
}

// SyncToken is the persisted singleton remote API token.
type SyncToken struct {
	AccessToken  string    `json:"accessToken"`
	RefreshToken string    `json:"refreshToken"`
	ExpiresAt    time.Time `json:"expiresAt"`
}
