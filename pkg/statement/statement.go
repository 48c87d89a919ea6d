// Package statement converts format-specific bank export records into
// canonical transactions. One normalizer exists per supported source: the
// structured XML bank export, the delimited CSV export, and the remote API
// payload.
//
// Shared edge-case policy: rows with unparseable dates or zero amounts are
// dropped and counted, malformed rows are skipped with a warning, and a
// parse never aborts because of a single bad row. Up-front structural
// problems (missing required columns) reject the whole input instead.
package statement

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseStats counts what a parse kept and dropped, for user-facing
// reporting and log output.
type ParseStats struct {
	Parsed  int
	Skipped int
}

// parseAmount parses an exported amount that may use a decimal comma and
// thousand separators. After commas become dots, more than one dot means
// all but the last are thousands separators.
func parseAmount(raw string) (float64, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, fmt.Errorf("empty amount")
	}

	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, ",", ".")

	if n := strings.Count(s, "."); n > 1 {
		last := strings.LastIndex(s, ".")
		s = strings.ReplaceAll(s[:last], ".", "") + s[last:]
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", raw, err)
	}
	return v, nil
}

// formatAmount renders an amount the way the identity generator expects it:
// a plain two-decimal string.
func formatAmount(v float64) string {
	return fmt.Sprintf("%.2f", v)
}
