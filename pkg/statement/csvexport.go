package statement

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/darcoto/mymoney2/pkg/model"
	"github.com/darcoto/mymoney2/pkg/txid"
)

// csvPrefix tags ids generated from the delimited export.
const csvPrefix = "CSV"

// ErrMissingColumns is returned when the header row lacks a date or an
// amount column; nothing is processed in that case.
var ErrMissingColumns = errors.New("export is missing a date or amount column")

// CSVRow is one raw row from the delimited export, with the logical fields
// resolved through the header alias table. Raw keeps the original row
// verbatim; it is the identity-hash input for this format.
type CSVRow struct {
	Raw         []string `json:"raw"`
	Date        string   `json:"date"`
	Amount      string   `json:"amount"`
	Currency    string   `json:"currency"`
	Description string   `json:"description"`
	Status      string   `json:"status"`
}

// columnAliases maps each logical field to candidate header names, matched
// case-insensitively by substring. Exports come with English or Bulgarian
// headers depending on the user's locale.
var columnAliases = map[string][]string{
	"date":        {"completed date", "value date", "booking date", "date", "дата"},
	"amount":      {"amount", "сума"},
	"currency":    {"currency", "валута"},
	"description": {"description", "reason", "основание", "описание"},
	"status":      {"state", "status", "статус"},
}

// completedStatuses are the status values that mark a settled row.
// Anything else present in the status column means the row is skipped.
var completedStatuses = map[string]struct{}{
	"completed": {},
	"complete":  {},
	"executed":  {},
	"settled":   {},
}

// counterpartyPrefixes are leading phrases stripped from descriptions when
// extracting a counterparty, best effort.
var counterpartyPrefixes = []string{
	"payment to ",
	"payment from ",
	"transfer to ",
	"transfer from ",
	"card payment to ",
	"превод към ",
	"превод от ",
	"плащане към ",
	"плащане от ",
}

// csvDateLayouts are the date formats observed across export variants.
var csvDateLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
	"02.01.2006",
	"02/01/2006",
}

// CSVNormalizer parses the delimited-text bank export.
type CSVNormalizer struct {
	log zerolog.Logger
}

// NewCSVNormalizer creates a delimited export normalizer.
func NewCSVNormalizer(log zerolog.Logger) *CSVNormalizer {
	return &CSVNormalizer{log: log}
}

// columnIndex holds resolved header positions; -1 means the column is absent.
type columnIndex struct {
	date, amount, currency, description, status int
}

// Parse reads the export, resolves columns from the header row and returns
// the raw rows. A header without both a date and an amount column rejects
// the whole input up front.
func (n *CSVNormalizer) Parse(r io.Reader) ([]CSVRow, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read delimited export: %w", err)
	}
	if len(records) < 1 {
		return nil, fmt.Errorf("delimited export is empty")
	}

	cols := resolveColumns(records[0])
	if cols.date < 0 || cols.amount < 0 {
		return nil, ErrMissingColumns
	}

	rows := make([]CSVRow, 0, len(records)-1)
	for _, record := range records[1:] {
		if isEmptyRecord(record) {
			continue
		}
		rows = append(rows, CSVRow{
			Raw:         record,
			Date:        fieldAt(record, cols.date),
			Amount:      fieldAt(record, cols.amount),
			Currency:    fieldAt(record, cols.currency),
			Description: fieldAt(record, cols.description),
			Status:      fieldAt(record, cols.status),
		})
	}
	return rows, nil
}

// ToCanonical converts raw rows into canonical transactions for the given
// account. Rows that are not settled, have a zero amount or an unparseable
// date are dropped and counted. currencyHint applies to rows without their
// own currency column.
func (n *CSVNormalizer) ToCanonical(rows []CSVRow, accountID, currencyHint string) ([]model.Transaction, ParseStats) {
	var stats ParseStats
	result := make([]model.Transaction, 0, len(rows))

	for _, row := range rows {
		t, ok := n.toCanonicalOne(row, accountID, currencyHint)
		if !ok {
			stats.Skipped++
			continue
		}
		stats.Parsed++
		result = append(result, t)
	}
	return result, stats
}

func (n *CSVNormalizer) toCanonicalOne(row CSVRow, accountID, currencyHint string) (model.Transaction, bool) {
	if row.Status != "" && !isCompleted(row.Status) {
		return model.Transaction{}, false
	}

	date, err := parseCSVDate(row.Date)
	if err != nil {
		n.log.Warn().Str("date", row.Date).Strs("row", row.Raw).
			Msg("skipping row with unparseable date")
		return model.Transaction{}, false
	}

	amount, err := parseAmount(row.Amount)
	if err != nil {
		n.log.Warn().Str("amount", row.Amount).Str("date", date).
			Msg("skipping row with unparseable amount")
		return model.Transaction{}, false
	}
	if amount == 0 {
		return model.Transaction{}, false
	}

	currency := strings.ToUpper(strings.TrimSpace(row.Currency))
	if currency == "" {
		currency = currencyHint
	}

	description := strings.TrimSpace(row.Description)
	raw, _ := json.Marshal(row)

	return model.Transaction{
		ID:               txid.Generate(csvPrefix, strings.Join(row.Raw, "|")),
		AccountID:        accountID,
		TransactionDate:  date,
		BookingDate:      date,
		Amount:           amount,
		Currency:         currency,
		Description:      description,
		CounterpartyName: extractCounterparty(description),
		RawSource:        string(raw),
	}, true
}

// resolveColumns discovers header positions via case-insensitive substring
// matching over the alias table. The first header that matches an alias
// wins; earlier aliases take precedence over later ones.
func resolveColumns(header []string) columnIndex {
	cols := columnIndex{date: -1, amount: -1, currency: -1, description: -1, status: -1}

	find := func(field string) int {
		for _, alias := range columnAliases[field] {
			for i, h := range header {
				if strings.Contains(strings.ToLower(strings.TrimSpace(h)), alias) {
					return i
				}
			}
		}
		return -1
	}

	cols.date = find("date")
	cols.amount = find("amount")
	cols.currency = find("currency")
	cols.description = find("description")
	cols.status = find("status")
	return cols
}

// extractCounterparty strips a known leading phrase from the description.
// Returns empty when no pattern matches; counterparty extraction is best
// effort for this format.
func extractCounterparty(description string) string {
	lower := strings.ToLower(description)
	for _, prefix := range counterpartyPrefixes {
		if strings.HasPrefix(lower, prefix) {
			return strings.TrimSpace(description[len(prefix):])
		}
	}
	return ""
}

func isCompleted(status string) bool {
	_, ok := completedStatuses[strings.ToLower(strings.TrimSpace(status))]
	return ok
}

func parseCSVDate(s string) (string, error) {
	s = strings.TrimSpace(s)
	for _, layout := range csvDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("2006-01-02"), nil
		}
	}
	return "", fmt.Errorf("unrecognized date %q", s)
}

func fieldAt(record []string, idx int) string {
	if idx < 0 || idx >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[idx])
}

func isEmptyRecord(record []string) bool {
	for _, f := range record {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
