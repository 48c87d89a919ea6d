package txid

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerateDeterministic(t *testing.T) {
	a := Generate("DSK", "2024-03-15", "Card purchase SHOP", "-28.98", "SHOP EOOD")
	b := Generate("DSK", "2024-03-15", "Card purchase SHOP", "-28.98", "SHOP EOOD")
	assert.Equal(t, a, b, "same fields must produce the same id")
}

func TestGenerateFieldSensitivity(t *testing.T) {
	base := Generate("CSV", "2024-01-01", "COFFEE", "-3.50")

	tests := []struct {
		name   string
		fields []string
	}{
		{"different date", []string{"2024-01-02", "COFFEE", "-3.50"}},
		{"different description", []string{"2024-01-01", "COFFEE BAR", "-3.50"}},
		{"different amount", []string{"2024-01-01", "COFFEE", "-3.51"}},
		{"extra field", []string{"2024-01-01", "COFFEE", "-3.50", ""}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotEqual(t, base, Generate("CSV", tt.fields...))
		})
	}
}

func TestGenerateFormat(t *testing.T) {
	id := Generate("gc", "acct", "2024-05-01", "12.00")

	assert.True(t, strings.HasPrefix(id, "GC_"), "prefix must be uppercased: %s", id)
	hash := strings.TrimPrefix(id, "GC_")
	assert.Len(t, hash, 16)
	for _, c := range hash {
		ok := (c >= '0' && c <= '9') || (c >= 'A' && c <= 'F')
		assert.True(t, ok, "hash must be uppercase hex, got %q in %s", c, id)
	}
}

func TestGenerateFieldBoundaries(t *testing.T) {
	// Joining must not let adjacent fields collide.
	a := Generate("X", "ab", "c")
	b := Generate("X", "a", "bc")
	assert.NotEqual(t, a, b)
}
