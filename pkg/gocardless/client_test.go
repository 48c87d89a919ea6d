package gocardless

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/darcoto/mymoney2/pkg/logger"
	"github.com/darcoto/mymoney2/pkg/model"
)

// memTokenStore is an in-memory TokenStore for client tests.
type memTokenStore struct {
	token *model.SyncToken
	saves int
}

func (m *memTokenStore) Get() (*model.SyncToken, error) { return m.token, nil }

func (m *memTokenStore) Save(t model.SyncToken) error {
	m.token = &t
	m.saves++
	return nil
}

func newTestClient(t *testing.T, handler http.Handler, tokens TokenStore) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return NewClient(ClientConfig{
		APIURL:    server.URL,
		SecretID:  "id",
		SecretKey: "key",
	}, tokens, logger.Nop())
}

func validToken() *model.SyncToken {
	return &model.SyncToken{
		AccessToken: "valid-token",
		ExpiresAt:   time.Now().Add(time.Hour),
	}
}

func TestEnsureTokenCreates(t *testing.T) {
	var gotBody map[string]string
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v2/token/new/", r.URL.Path)
		require.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		json.NewEncoder(w).Encode(tokenResponse{
			Access: "new-access", AccessExpires: 86400, Refresh: "new-refresh",
		})
	})

	tokens := &memTokenStore{}
	client := newTestClient(t, handler, tokens)

	access, err := client.EnsureToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "new-access", access)
	assert.Equal(t, map[string]string{"secret_id": "id", "secret_key": "key"}, gotBody)

	// The new token pair is persisted.
	require.NotNil(t, tokens.token)
	assert.Equal(t, "new-refresh", tokens.token.RefreshToken)
	assert.True(t, tokens.token.ExpiresAt.After(time.Now().Add(23*time.Hour)))
}

func TestEnsureTokenReusesValid(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatalf("no request expected, got %s %s", r.Method, r.URL.Path)
	})

	tokens := &memTokenStore{token: validToken()}
	client := newTestClient(t, handler, tokens)

	access, err := client.EnsureToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "valid-token", access)
	assert.Equal(t, 0, tokens.saves)
}

func TestEnsureTokenRefreshesStale(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v2/token/refresh/", r.URL.Path)
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "old-refresh", body["refresh"])
		json.NewEncoder(w).Encode(tokenResponse{Access: "refreshed", AccessExpires: 86400})
	})

	tokens := &memTokenStore{token: &model.SyncToken{
		AccessToken:  "stale",
		RefreshToken: "old-refresh",
		ExpiresAt:    time.Now().Add(time.Minute),
	}}
	client := newTestClient(t, handler, tokens)

	access, err := client.EnsureToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "refreshed", access)
	assert.Equal(t, "old-refresh", tokens.token.RefreshToken, "refresh token survives a refresh")
}

func TestEnsureTokenRefreshFailureFallsBackToCreate(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v2/token/refresh/":
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(ErrorResponse{Summary: "Invalid token"})
		case "/api/v2/token/new/":
			json.NewEncoder(w).Encode(tokenResponse{
				Access: "fresh", AccessExpires: 86400, Refresh: "fresh-refresh",
			})
		default:
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
	})

	tokens := &memTokenStore{token: &model.SyncToken{
		AccessToken:  "stale",
		RefreshToken: "dead-refresh",
		ExpiresAt:    time.Now().Add(-time.Hour),
	}}
	client := newTestClient(t, handler, tokens)

	access, err := client.EnsureToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "fresh", access)
	assert.Equal(t, "fresh-refresh", tokens.token.RefreshToken)
}

func TestListRequisitionsPaginates(t *testing.T) {
	pageSize := 100
	total := 150
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v2/requisitions/", r.URL.Path)
		require.Equal(t, "Bearer valid-token", r.Header.Get("Authorization"))

		offset := 0
		fmt.Sscanf(r.URL.Query().Get("offset"), "%d", &offset)

		var page requisitionList
		page.Count = total
		for i := offset; i < total && i < offset+pageSize; i++ {
			page.Results = append(page.Results, requisitionPayload{
				ID: fmt.Sprintf("req-%d", i), InstitutionID: "BANK", Status: "LN",
				Accounts: []string{"acct"},
			})
		}
		json.NewEncoder(w).Encode(page)
	})

	client := newTestClient(t, handler, &memTokenStore{token: validToken()})

	all, err := client.ListRequisitions(context.Background())
	require.NoError(t, err)
	assert.Len(t, all, total)
	assert.Equal(t, "req-0", all[0].ID)
	assert.Equal(t, model.RequisitionLinked, all[0].Status)
	assert.Equal(t, "req-149", all[total-1].ID)
}

func TestCreateRequisitionSendsReference(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "BANK_XX", body["institution_id"])
		assert.Equal(t, "https://example.com/done", body["redirect"])
		assert.NotEmpty(t, body["reference"])

		json.NewEncoder(w).Encode(requisitionPayload{
			ID: "req-1", Link: "https://consent.example.com/req-1",
		})
	})

	client := newTestClient(t, handler, &memTokenStore{token: validToken()})

	created, err := client.CreateRequisition(context.Background(), "BANK_XX", "https://example.com/done")
	require.NoError(t, err)
	assert.Equal(t, "req-1", created.ID)
	assert.Equal(t, "https://consent.example.com/req-1", created.Link)
}

func TestGetAccountTransactionsSendsDateFrom(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v2/accounts/acct-1/transactions/", r.URL.Path)
		require.Equal(t, "2024-01-01", r.URL.Query().Get("date_from"))

		var resp transactionsResponse
		resp.Transactions.Booked = []BookedTransaction{
			{TransactionID: "t1", BookingDate: "2024-01-05",
				TransactionAmount: AmountValue{Amount: "-5.00", Currency: "EUR"}},
		}
		resp.Transactions.Pending = []BookedTransaction{
			{TransactionID: "pending", BookingDate: "2024-01-06"},
		}
		json.NewEncoder(w).Encode(resp)
	})

	client := newTestClient(t, handler, &memTokenStore{token: validToken()})

	booked, err := client.GetAccountTransactions(context.Background(), "acct-1", "2024-01-01")
	require.NoError(t, err)
	require.Len(t, booked, 1, "pending transactions are ignored")
	assert.Equal(t, "t1", booked[0].TransactionID)
}

func TestParseErrorBodies(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		contains string
	}{
		{"summary and detail", 429, `{"summary":"Rate limit","detail":"Try later"}`, "Rate limit - Try later"},
		{"summary only", 400, `{"summary":"Bad request"}`, "Bad request"},
		{"non-json body", 502, `upstream down`, "status 502"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			})
			client := newTestClient(t, handler, &memTokenStore{token: validToken()})

			_, err := client.GetAccountDetails(context.Background(), "acct-1")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.contains)
		})
	}
}
