// Package currency normalizes source amounts into the accounting currency.
package currency

import (
	_ "embed"
	"fmt"
	"math"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/text/currency"
	"gopkg.in/yaml.v3"

	"github.com/darcoto/mymoney2/pkg/model"
)

//go:embed rates.yaml
var embeddedRates []byte

// rateTable is the YAML structure of the embedded rate file.
type rateTable struct {
	Rates map[string]float64 `yaml:"rates"`
}

// Converter converts amounts from any source currency into the accounting
// currency using a static rate table. Conversion is best effort: unknown
// currencies pass through unconverted with a logged warning rather than
// blocking import.
type Converter struct {
	accounting string
	rates      map[string]float64
	log        zerolog.Logger
}

// NewConverter creates a converter targeting the given accounting currency,
// using the embedded rate table.
func NewConverter(accountingCurrency string, log zerolog.Logger) (*Converter, error) {
	var table rateTable
	if err := yaml.Unmarshal(embeddedRates, &table); err != nil {
		return nil, fmt.Errorf("failed to parse embedded rate table: %w", err)
	}

	rates := make(map[string]float64, len(table.Rates))
	for code, rate := range table.Rates {
		if rate <= 0 {
			return nil, fmt.Errorf("rate for %s must be positive, got %f", code, rate)
		}
		rates[strings.ToUpper(code)] = rate
	}

	return &Converter{
		accounting: strings.ToUpper(accountingCurrency),
		rates:      rates,
		log:        log,
	}, nil
}

// AccountingCurrency returns the target currency code.
func (c *Converter) AccountingCurrency() string {
	return c.accounting
}

// Normalize converts amount from sourceCurrency into the accounting
// currency, rounded to 2 decimal places. The pre-conversion amount and
// currency are returned for audit display whenever a conversion (or an
// unconverted pass-through of a foreign amount) happened; both are nil when
// the source already is the accounting currency.
func (c *Converter) Normalize(amount float64, sourceCurrency string) (float64, *float64, *string) {
	code := strings.ToUpper(strings.TrimSpace(sourceCurrency))
	if code == "" || code == c.accounting {
		return round2(amount), nil, nil
	}

	rate, ok := c.rates[code]
	if !ok {
		// Distinguish a real but unsupported currency from a garbage code;
		// either way the amount passes through unconverted.
		if _, err := currency.ParseISO(code); err != nil {
			c.log.Warn().Str("currency", code).Float64("amount", amount).
				Msg("unrecognized currency code, amount left unconverted")
		} else {
			c.log.Warn().Str("currency", code).Float64("amount", amount).
				Msg("no exchange rate for currency, amount left unconverted")
		}
		orig := amount
		return round2(amount), &orig, &code
	}

	orig := amount
	converted := round2(amount / rate)
	return converted, &orig, &code
}

// NormalizeTransaction rewrites a canonical transaction in place so its
// amount is in the accounting currency, preserving the pre-conversion
// amount and currency for audit display.
func (c *Converter) NormalizeTransaction(t *model.Transaction) {
	amount, orig, origCurrency := c.Normalize(t.Amount, t.Currency)
	t.Amount = amount
	t.Currency = c.accounting
	if orig != nil {
		t.OriginalAmount = orig
		t.OriginalCurrency = origCurrency
	}
}

// round2 rounds to 2 decimal places.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
