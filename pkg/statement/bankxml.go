package statement

import (
	"encoding/json"
	"encoding/xml"
	"fmt"
	"html"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/darcoto/mymoney2/pkg/model"
	"github.com/darcoto/mymoney2/pkg/txid"
)

// bankXMLPrefix tags ids generated from the XML bank export.
const bankXMLPrefix = "DSK"

// XMLMovement is one raw account movement from the XML bank export.
type XMLMovement struct {
	ValueDate        string `json:"valueDate"`
	Reason           string `json:"reason"`
	Amount           string `json:"amount"`
	MovementType     string `json:"movementType"`
	OppositeSideName string `json:"oppositeSideName"`
}

// xmlMovementElem maps the export's element names. Reason is captured as
// inner XML because exports embed markup (line breaks, entities) in it.
type xmlMovementElem struct {
	ValueDate        string `xml:"ValueDate"`
	Amount           string `xml:"Amount"`
	MovementType     string `xml:"MovementType"`
	OppositeSideName string `xml:"OppositeSideName"`
	Reason           struct {
		Inner string `xml:",innerxml"`
	} `xml:"Reason"`
}

// xmlDocument accepts both root shapes the export produces: a container
// with one or many AccountMovement children, or a bare AccountMovement as
// the root element. Either way the result is coerced to a list.
type xmlDocument struct {
	XMLName   xml.Name
	Movements []xmlMovementElem `xml:"AccountMovement"`
	xmlMovementElem
}

// XMLNormalizer parses the structured XML bank export.
type XMLNormalizer struct {
	log zerolog.Logger
}

// NewXMLNormalizer creates an XML export normalizer.
func NewXMLNormalizer(log zerolog.Logger) *XMLNormalizer {
	return &XMLNormalizer{log: log}
}

// Parse extracts the raw movements from an XML export document.
func (n *XMLNormalizer) Parse(data []byte) ([]XMLMovement, error) {
	var doc xmlDocument
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse XML export: %w", err)
	}

	elems := doc.Movements
	if len(elems) == 0 {
		// Root element may itself be a single movement.
		if doc.ValueDate == "" && doc.Amount == "" {
			return nil, fmt.Errorf("XML export contains no account movements")
		}
		elems = []xmlMovementElem{doc.xmlMovementElem}
	}

	movements := make([]XMLMovement, 0, len(elems))
	for _, e := range elems {
		movements = append(movements, XMLMovement{
			ValueDate:        strings.TrimSpace(e.ValueDate),
			Reason:           cleanReason(e.Reason.Inner),
			Amount:           strings.TrimSpace(e.Amount),
			MovementType:     strings.TrimSpace(e.MovementType),
			OppositeSideName: strings.TrimSpace(e.OppositeSideName),
		})
	}
	return movements, nil
}

// ToCanonical converts parsed movements into canonical transactions for the
// given account. Amounts stay in the export's currency (currencyHint); the
// currency normalizer runs as a later pipeline stage. Movements with
// unparseable dates or zero amounts are dropped and counted in stats.
func (n *XMLNormalizer) ToCanonical(movements []XMLMovement, accountID, currencyHint string) ([]model.Transaction, ParseStats) {
	var stats ParseStats
	result := make([]model.Transaction, 0, len(movements))

	for _, m := range movements {
		t, ok := n.toCanonicalOne(m, accountID, currencyHint)
		if !ok {
			stats.Skipped++
			continue
		}
		stats.Parsed++
		result = append(result, t)
	}
	return result, stats
}

func (n *XMLNormalizer) toCanonicalOne(m XMLMovement, accountID, currencyHint string) (model.Transaction, bool) {
	date, err := parseDottedDate(m.ValueDate)
	if err != nil {
		n.log.Warn().Str("valueDate", m.ValueDate).Str("reason", m.Reason).
			Msg("skipping movement with unparseable date")
		return model.Transaction{}, false
	}

	amount, err := parseAmount(m.Amount)
	if err != nil {
		n.log.Warn().Str("amount", m.Amount).Str("date", date).
			Msg("skipping movement with unparseable amount")
		return model.Transaction{}, false
	}
	if amount == 0 {
		return model.Transaction{}, false
	}

	// Debit means money out; the export carries unsigned amounts.
	if strings.EqualFold(m.MovementType, "Debit") {
		amount = -amount
	}

	raw, _ := json.Marshal(m)
	return model.Transaction{
		ID: txid.Generate(bankXMLPrefix,
			date, m.Reason, formatAmount(amount), m.OppositeSideName),
		AccountID:        accountID,
		TransactionDate:  date,
		BookingDate:      date,
		Amount:           amount,
		Currency:         currencyHint,
		Description:      m.Reason,
		CounterpartyName: m.OppositeSideName,
		RawSource:        string(raw),
	}, true
}

var (
	markupTags = regexp.MustCompile(`<[^>]*>`)
	whitespace = regexp.MustCompile(`\s+`)
)

// cleanReason strips embedded markup from a free-text reason field:
// HTML tags removed, entities decoded, whitespace collapsed.
func cleanReason(s string) string {
	s = html.UnescapeString(s)
	s = markupTags.ReplaceAllString(s, " ")
	s = whitespace.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// parseDottedDate converts the export's DD.MM.YYYY value date to YYYY-MM-DD.
func parseDottedDate(s string) (string, error) {
	t, err := time.Parse("02.01.2006", strings.TrimSpace(s))
	if err != nil {
		return "", err
	}
	return t.Format("2006-01-02"), nil
}
