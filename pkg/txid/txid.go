// Package txid generates deterministic transaction identifiers.
//
// Identity is a content hash over the immutable source fields of a
// transaction, so re-ingesting identical source data yields the identical
// id and the storage upsert becomes a no-op. Any change to an input field
// changes the id.
package txid

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// hexLen is the number of hash characters kept in the id.
const hexLen = 16

// Generate builds an id of the form "<PREFIX>_<16 uppercase hex chars>"
// from a deterministic ordered concatenation of the given fields.
//
// Callers pass the immutable fields of the source record: for statement
// rows that is date, description, the two-decimal amount string and the
// counterparty; for delimited exports it is the entire raw row.
func Generate(prefix string, fields ...string) string {
	input := strings.Join(fields, "|")
	sum := sha256.Sum256([]byte(input))
	digest := hex.EncodeToString(sum[:])
	return strings.ToUpper(prefix) + "_" + strings.ToUpper(digest[:hexLen])
}
