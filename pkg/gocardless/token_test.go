package gocardless

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/darcoto/mymoney2/pkg/model"
)

func TestDecide(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		token    *model.SyncToken
		expected Action
	}{
		{"no token", nil, ActionCreate},
		{"empty access token", &model.SyncToken{RefreshToken: "r"}, ActionCreate},
		{
			"valid far from expiry",
			&model.SyncToken{AccessToken: "a", ExpiresAt: now.Add(24 * time.Hour)},
			ActionReuse,
		},
		{
			"six minutes left",
			&model.SyncToken{AccessToken: "a", RefreshToken: "r", ExpiresAt: now.Add(6 * time.Minute)},
			ActionReuse,
		},
		{
			"four minutes left",
			&model.SyncToken{AccessToken: "a", RefreshToken: "r", ExpiresAt: now.Add(4 * time.Minute)},
			ActionRefresh,
		},
		{
			"already expired with refresh",
			&model.SyncToken{AccessToken: "a", RefreshToken: "r", ExpiresAt: now.Add(-time.Hour)},
			ActionRefresh,
		},
		{
			"stale without refresh",
			&model.SyncToken{AccessToken: "a", ExpiresAt: now.Add(time.Minute)},
			ActionCreate,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Decide(tt.token, now))
		})
	}
}

func TestActionString(t *testing.T) {
	assert.Equal(t, "reuse", ActionReuse.String())
	assert.Equal(t, "refresh", ActionRefresh.String())
	assert.Equal(t, "create", ActionCreate.String())
}
