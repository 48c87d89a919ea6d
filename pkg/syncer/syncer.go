// Package syncer orchestrates pulling remote bank data into local storage.
package syncer

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/darcoto/mymoney2/pkg/categorize"
	"github.com/darcoto/mymoney2/pkg/currency"
	"github.com/darcoto/mymoney2/pkg/db"
	"github.com/darcoto/mymoney2/pkg/gocardless"
	"github.com/darcoto/mymoney2/pkg/model"
	"github.com/darcoto/mymoney2/pkg/statement"
)

// Syncer pulls accounts and booked transactions from the remote API and
// reconciles them into the local database.
type Syncer struct {
	client       *gocardless.Client
	accounts     *db.AccountStore
	transactions *db.TransactionStore
	requisitions *db.RequisitionStore
	converter    *currency.Converter
	engine       *categorize.Engine
	lookbackDays int
	log          zerolog.Logger
}

// New creates a Syncer. lookbackDays bounds how far back transaction
// fetches reach; zero applies the 90-day default.
func New(
	client *gocardless.Client,
	accounts *db.AccountStore,
	transactions *db.TransactionStore,
	requisitions *db.RequisitionStore,
	converter *currency.Converter,
	engine *categorize.Engine,
	lookbackDays int,
	log zerolog.Logger,
) *Syncer {
	if lookbackDays <= 0 {
		lookbackDays = 90
	}
	return &Syncer{
		client:       client,
		accounts:     accounts,
		transactions: transactions,
		requisitions: requisitions,
		converter:    converter,
		engine:       engine,
		lookbackDays: lookbackDays,
		log:          log,
	}
}

// AccountResult reports the outcome of syncing one remote account. Err is
// non-nil when this account failed; other accounts proceed regardless.
type AccountResult struct {
	AccountID string `json:"accountId"`
	Imported  int    `json:"imported"`
	Err       error  `json:"-"`
}

// SyncAllAccounts lists requisitions from the remote API, mirrors them
// locally, and syncs every account behind a linked requisition. Requisitions
// in other states are skipped without error; expired and rejected ones are
// logged so the user knows to relink. One failing account does not stop the
// rest.
func (s *Syncer) SyncAllAccounts(ctx context.Context) ([]AccountResult, error) {
	requisitions, err := s.client.ListRequisitions(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list requisitions: %w", err)
	}

	var results []AccountResult
	for _, req := range requisitions {
		if err := s.requisitions.Upsert(req); err != nil {
			return results, fmt.Errorf("failed to store requisition %s: %w", req.ID, err)
		}

		if !req.Syncable() {
			if req.Terminal() {
				s.log.Warn().Str("requisition", req.ID).Str("status", string(req.Status)).
					Msg("requisition no longer valid, relink the bank")
			} else {
				s.log.Debug().Str("requisition", req.ID).Str("status", string(req.Status)).
					Msg("requisition not linked yet, skipping")
			}
			continue
		}

		for _, accountID := range req.AccountIDs {
			result := AccountResult{AccountID: accountID}
			result.Imported, result.Err = s.syncAccount(ctx, accountID, req.InstitutionID)
			if result.Err != nil {
				s.log.Error().Str("account", accountID).Err(result.Err).
					Msg("account sync failed, continuing with remaining accounts")
			}
			results = append(results, result)
		}
	}
	return results, nil
}

// syncAccount refreshes one account's metadata and imports its recent
// booked transactions.
func (s *Syncer) syncAccount(ctx context.Context, accountID, institutionID string) (int, error) {
	if err := s.syncAccountDetails(ctx, accountID, institutionID); err != nil {
		return 0, err
	}
	return s.SyncAccountTransactions(ctx, accountID)
}

func (s *Syncer) syncAccountDetails(ctx context.Context, accountID, institutionID string) error {
	details, err := s.client.GetAccountDetails(ctx, accountID)
	if err != nil {
		return fmt.Errorf("failed to get account details: %w", err)
	}

	balances, err := s.client.GetAccountBalances(ctx, accountID)
	if err != nil {
		return fmt.Errorf("failed to get account balances: %w", err)
	}
	balance, balanceCurrency := pickBalance(balances, details.Currency)

	// Balances are stored in the accounting currency like everything else.
	normalized, _, _ := s.converter.Normalize(balance, balanceCurrency)

	name := details.Name
	if name == "" {
		name = details.Product
	}
	if name == "" {
		name = details.IBAN
	}
	if name == "" {
		name = accountID
	}

	now := time.Now().UTC()
	account := model.Account{
		ID:           accountID,
		DisplayName:  name,
		Currency:     s.converter.AccountingCurrency(),
		Balance:      normalized,
		LastSyncedAt: &now,
	}
	if institutionID != "" {
		account.InstitutionID = &institutionID
	}
	if details.IBAN != "" {
		iban := details.IBAN
		account.IBAN = &iban
	}

	if err := s.accounts.Upsert(account); err != nil {
		return err
	}
	return nil
}

// pickBalance chooses the balance entry to persist. interimAvailable
// reflects settled plus pending and is the most useful figure; fall back to
// whatever the institution reports first.
func pickBalance(balances []gocardless.Balance, currencyHint string) (float64, string) {
	if len(balances) == 0 {
		return 0, currencyHint
	}
	chosen := balances[0]
	for _, b := range balances {
		if b.BalanceType == "interimAvailable" {
			chosen = b
			break
		}
	}
	amount, err := strconv.ParseFloat(chosen.BalanceAmount.Amount, 64)
	if err != nil {
		return 0, currencyHint
	}
	cur := chosen.BalanceAmount.Currency
	if cur == "" {
		cur = currencyHint
	}
	return amount, cur
}

// SyncAccountTransactions fetches booked transactions from the lookback
// window, normalizes them to the canonical form and accounting currency,
// rule-categorizes new ones, and upserts each. The returned count covers
// inserts only; records already present with identical source fields are
// skipped silently, which makes repeated syncs idempotent.
//
// Only rule matching runs here. The counterparty fallback stays out of the
// automated sync path so a miscategorized counterparty does not silently
// propagate across every sync.
func (s *Syncer) SyncAccountTransactions(ctx context.Context, accountID string) (int, error) {
	account, err := s.accounts.GetByID(accountID)
	if err != nil {
		return 0, fmt.Errorf("unknown account %s: %w", accountID, err)
	}

	dateFrom := time.Now().UTC().AddDate(0, 0, -s.lookbackDays).Format("2006-01-02")
	booked, err := s.client.GetAccountTransactions(ctx, accountID, dateFrom)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch transactions: %w", err)
	}

	imported := 0
	for _, bt := range booked {
		t := statement.FromRemote(bt, accountID, account.Currency)
		s.converter.NormalizeTransaction(&t)

		categoryID, err := s.engine.Categorize(t.Description, t.CounterpartyName)
		if err != nil {
			return imported, err
		}
		t.CategoryID = categoryID

		outcome, err := s.transactions.Upsert(t)
		if err != nil {
			return imported, fmt.Errorf("failed to store transaction %s: %w", t.ID, err)
		}
		if outcome == db.UpsertInserted {
			imported++
		}
	}

	s.log.Info().Str("account", accountID).Int("fetched", len(booked)).Int("imported", imported).
		Msg("account transactions synced")
	return imported, nil
}
