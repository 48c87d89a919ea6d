// Package categorize assigns spending categories to transactions using
// rule matching with a counterparty-history fallback.
package categorize

import (
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"github.com/darcoto/mymoney2/pkg/db"
	"github.com/darcoto/mymoney2/pkg/model"
)

// Engine evaluates categorization rules against transaction text.
type Engine struct {
	rules        *db.RuleStore
	transactions *db.TransactionStore
	log          zerolog.Logger
}

// NewEngine creates a categorization engine.
func NewEngine(rules *db.RuleStore, transactions *db.TransactionStore, log zerolog.Logger) *Engine {
	return &Engine{rules: rules, transactions: transactions, log: log}
}

// Categorize matches the active rules against the transaction text and
// returns the winning rule's category, or nil when nothing matches.
//
// Rules are evaluated by priority descending; equal priorities keep
// creation order. The haystack is the uppercased description plus
// counterparty. A rule's pattern is one or more |-separated literal
// substrings; the first non-empty alternative found in the haystack wins.
func (e *Engine) Categorize(description, counterpartyName string) (*int64, error) {
	rules, err := e.rules.GetAll()
	if err != nil {
		return nil, fmt.Errorf("failed to load rules: %w", err)
	}
	return matchRules(rules, description, counterpartyName), nil
}

// matchRules is the pure matching core, shared with the bulk path so rules
// load once per batch.
func matchRules(rules []model.Rule, description, counterpartyName string) *int64 {
	active := make([]model.Rule, 0, len(rules))
	for _, r := range rules {
		if r.Active {
			active = append(active, r)
		}
	}
	// The store already orders by priority; keep the guarantee locally so
	// the engine does not depend on it. Stable sort preserves creation
	// order for equal priorities.
	sort.SliceStable(active, func(i, j int) bool {
		return active[i].Priority > active[j].Priority
	})

	haystack := strings.ToUpper(description + " " + counterpartyName)

	for _, rule := range active {
		for _, alt := range strings.Split(rule.Pattern, "|") {
			needle := strings.ToUpper(strings.TrimSpace(alt))
			if needle == "" {
				continue
			}
			if strings.Contains(haystack, needle) {
				id := rule.CategoryID
				return &id
			}
		}
	}
	return nil
}

// FallbackByCounterparty reuses the category of the most recent already
// categorized transaction with the same counterparty. One manual
// categorization thereby seeds future automatic ones. Callers invoke this
// after Categorize returns nil; the remote sync path deliberately does not.
func (e *Engine) FallbackByCounterparty(counterpartyName string) (*int64, error) {
	return e.transactions.GetCategoryByCounterparty(counterpartyName)
}

// BulkResult reports the apply-to-all-uncategorized outcome.
type BulkResult struct {
	TotalUncategorized int `json:"totalUncategorized"`
	Categorized        int `json:"categorizedCount"`
}

// ApplyToAllUncategorized loads every transaction without a category,
// applies rule matching and then the counterparty fallback to each, and
// persists the ones that resolve. Processing is read-then-write per record
// because the fallback needs a history lookup per row.
func (e *Engine) ApplyToAllUncategorized() (BulkResult, error) {
	pending, err := e.transactions.GetTransactions(db.TransactionFilter{Uncategorized: true})
	if err != nil {
		return BulkResult{}, fmt.Errorf("failed to load uncategorized transactions: %w", err)
	}

	rules, err := e.rules.GetAll()
	if err != nil {
		return BulkResult{}, fmt.Errorf("failed to load rules: %w", err)
	}

	result := BulkResult{TotalUncategorized: len(pending)}
	for _, t := range pending {
		categoryID := matchRules(rules, t.Description, t.CounterpartyName)
		if categoryID == nil {
			categoryID, err = e.transactions.GetCategoryByCounterparty(t.CounterpartyName)
			if err != nil {
				return result, err
			}
		}
		if categoryID == nil {
			continue
		}

		if err := e.transactions.UpdateCategory(t.ID, categoryID); err != nil {
			return result, fmt.Errorf("failed to categorize %s: %w", t.ID, err)
		}
		result.Categorized++
	}

	e.log.Info().Int("total", result.TotalUncategorized).Int("categorized", result.Categorized).
		Msg("bulk categorization finished")
	return result, nil
}
