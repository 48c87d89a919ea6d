package gocardless

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/darcoto/mymoney2/pkg/model"
)

// TokenStore persists the singleton API token. Implemented by db.TokenStore.
type TokenStore interface {
	Get() (*model.SyncToken, error)
	Save(model.SyncToken) error
}

// ClientConfig represents the configuration for the API client.
type ClientConfig struct {
	APIURL    string
	SecretID  string
	SecretKey string
	Timeout   time.Duration // Default: 30 seconds
}

// Client is a bank account data API client. Every call path resolves a
// valid access token through the persisted token and the Decide state
// machine before issuing the request.
type Client struct {
	httpClient *http.Client
	baseURL    string
	secretID   string
	secretKey  string
	tokens     TokenStore
	log        zerolog.Logger
}

// NewClient creates a new API client.
func NewClient(config ClientConfig, tokens TokenStore, log zerolog.Logger) *Client {
	timeout := config.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL:   config.APIURL,
		secretID:  config.SecretID,
		secretKey: config.SecretKey,
		tokens:    tokens,
		log:       log,
	}
}

// EnsureToken resolves a valid access token: reuse the stored one, refresh
// it near expiry, or run a full credential exchange. Refresh failure falls
// back to credential exchange; the result is persisted either way.
func (c *Client) EnsureToken(ctx context.Context) (string, error) {
	token, err := c.tokens.Get()
	if err != nil {
		return "", err
	}

	action := Decide(token, time.Now())
	c.log.Debug().Stringer("action", action).Msg("resolved token action")

	switch action {
	case ActionReuse:
		return token.AccessToken, nil

	case ActionRefresh:
		refreshed, err := c.refreshToken(ctx, token.RefreshToken)
		if err == nil {
			if err := c.tokens.Save(*refreshed); err != nil {
				return "", err
			}
			return refreshed.AccessToken, nil
		}
		c.log.Warn().Err(err).Msg("token refresh failed, falling back to credential exchange")
	}

	created, err := c.createToken(ctx)
	if err != nil {
		return "", err
	}
	if err := c.tokens.Save(*created); err != nil {
		return "", err
	}
	return created.AccessToken, nil
}

// createToken exchanges the secret credentials for a fresh token pair.
func (c *Client) createToken(ctx context.Context) (*model.SyncToken, error) {
	body := map[string]string{
		"secret_id":  c.secretID,
		"secret_key": c.secretKey,
	}

	var resp tokenResponse
	if err := c.doJSON(ctx, http.MethodPost, "/api/v2/token/new/", nil, body, "", &resp); err != nil {
		return nil, fmt.Errorf("credential exchange failed: %w", err)
	}

	return &model.SyncToken{
		AccessToken:  resp.Access,
		RefreshToken: resp.Refresh,
		ExpiresAt:    time.Now().Add(time.Duration(resp.AccessExpires) * time.Second),
	}, nil
}

// refreshToken mints a new access token; the refresh token stays the same.
func (c *Client) refreshToken(ctx context.Context, refresh string) (*model.SyncToken, error) {
	body := map[string]string{"refresh": refresh}

	var resp tokenResponse
	if err := c.doJSON(ctx, http.MethodPost, "/api/v2/token/refresh/", nil, body, "", &resp); err != nil {
		return nil, err
	}

	return &model.SyncToken{
		AccessToken:  resp.Access,
		RefreshToken: refresh,
		ExpiresAt:    time.Now().Add(time.Duration(resp.AccessExpires) * time.Second),
	}, nil
}

// ListRequisitions lists every requisition, following pagination.
func (c *Client) ListRequisitions(ctx context.Context) ([]model.Requisition, error) {
	token, err := c.EnsureToken(ctx)
	if err != nil {
		return nil, err
	}

	var all []model.Requisition
	offset := 0
	limit := 100

	for {
		query := url.Values{}
		query.Set("limit", fmt.Sprintf("%d", limit))
		query.Set("offset", fmt.Sprintf("%d", offset))

		var page requisitionList
		if err := c.doJSON(ctx, http.MethodGet, "/api/v2/requisitions/", query, nil, token, &page); err != nil {
			return nil, fmt.Errorf("failed to list requisitions (offset=%d): %w", offset, err)
		}

		for _, r := range page.Results {
			all = append(all, model.Requisition{
				ID:            r.ID,
				InstitutionID: r.InstitutionID,
				Status:        model.RequisitionStatus(r.Status),
				AccountIDs:    r.Accounts,
			})
		}

		if len(page.Results) < limit {
			break
		}
		offset += limit
	}

	return all, nil
}

// CreateRequisition starts a new bank link for the institution and returns
// the consent URL the user must visit.
func (c *Client) CreateRequisition(ctx context.Context, institutionID, redirectURL string) (*CreatedRequisition, error) {
	token, err := c.EnsureToken(ctx)
	if err != nil {
		return nil, err
	}

	body := map[string]string{
		"institution_id": institutionID,
		"redirect":       redirectURL,
		"reference":      uuid.NewString(),
	}

	var resp requisitionPayload
	if err := c.doJSON(ctx, http.MethodPost, "/api/v2/requisitions/", nil, body, token, &resp); err != nil {
		return nil, fmt.Errorf("failed to create requisition: %w", err)
	}

	return &CreatedRequisition{ID: resp.ID, Link: resp.Link}, nil
}

// GetRequisition fetches a single requisition's current state.
func (c *Client) GetRequisition(ctx context.Context, id string) (*model.Requisition, error) {
	token, err := c.EnsureToken(ctx)
	if err != nil {
		return nil, err
	}

	var resp requisitionPayload
	path := fmt.Sprintf("/api/v2/requisitions/%s/", id)
	if err := c.doJSON(ctx, http.MethodGet, path, nil, nil, token, &resp); err != nil {
		return nil, fmt.Errorf("failed to get requisition %s: %w", id, err)
	}

	return &model.Requisition{
		ID:            resp.ID,
		InstitutionID: resp.InstitutionID,
		Status:        model.RequisitionStatus(resp.Status),
		AccountIDs:    resp.Accounts,
	}, nil
}

// DeleteRequisition revokes a bank link.
func (c *Client) DeleteRequisition(ctx context.Context, id string) error {
	token, err := c.EnsureToken(ctx)
	if err != nil {
		return err
	}

	path := fmt.Sprintf("/api/v2/requisitions/%s/", id)
	if err := c.doJSON(ctx, http.MethodDelete, path, nil, nil, token, nil); err != nil {
		return fmt.Errorf("failed to delete requisition %s: %w", id, err)
	}
	return nil
}

// GetAccountDetails fetches details of a linked account.
func (c *Client) GetAccountDetails(ctx context.Context, accountID string) (*AccountDetails, error) {
	token, err := c.EnsureToken(ctx)
	if err != nil {
		return nil, err
	}

	var resp accountDetailsResponse
	path := fmt.Sprintf("/api/v2/accounts/%s/details/", accountID)
	if err := c.doJSON(ctx, http.MethodGet, path, nil, nil, token, &resp); err != nil {
		return nil, fmt.Errorf("failed to get account details for %s: %w", accountID, err)
	}
	return &resp.Account, nil
}

// GetAccountBalances fetches the balance entries of a linked account.
func (c *Client) GetAccountBalances(ctx context.Context, accountID string) ([]Balance, error) {
	token, err := c.EnsureToken(ctx)
	if err != nil {
		return nil, err
	}

	var resp balancesResponse
	path := fmt.Sprintf("/api/v2/accounts/%s/balances/", accountID)
	if err := c.doJSON(ctx, http.MethodGet, path, nil, nil, token, &resp); err != nil {
		return nil, fmt.Errorf("failed to get balances for %s: %w", accountID, err)
	}
	return resp.Balances, nil
}

// GetAccountTransactions fetches booked transactions from dateFrom
// (YYYY-MM-DD) to today. Pending transactions are ignored.
func (c *Client) GetAccountTransactions(ctx context.Context, accountID, dateFrom string) ([]BookedTransaction, error) {
	token, err := c.EnsureToken(ctx)
	if err != nil {
		return nil, err
	}

	query := url.Values{}
	if dateFrom != "" {
		query.Set("date_from", dateFrom)
	}

	var resp transactionsResponse
	path := fmt.Sprintf("/api/v2/accounts/%s/transactions/", accountID)
	if err := c.doJSON(ctx, http.MethodGet, path, query, nil, token, &resp); err != nil {
		return nil, fmt.Errorf("failed to get transactions for %s: %w", accountID, err)
	}
	return resp.Transactions.Booked, nil
}

// ListInstitutions lists the banks available in a country.
func (c *Client) ListInstitutions(ctx context.Context, country string) ([]Institution, error) {
	token, err := c.EnsureToken(ctx)
	if err != nil {
		return nil, err
	}

	query := url.Values{}
	query.Set("country", country)

	var resp []Institution
	if err := c.doJSON(ctx, http.MethodGet, "/api/v2/institutions/", query, nil, token, &resp); err != nil {
		return nil, fmt.Errorf("failed to list institutions for %s: %w", country, err)
	}
	return resp, nil
}

// doJSON issues one JSON request. A non-empty token becomes a bearer
// header; out may be nil when no response body is expected.
func (c *Client) doJSON(ctx context.Context, method, path string, query url.Values, body interface{}, token string, out interface{}) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", token))
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return c.parseError(resp)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// parseError parses an error response body.
func (c *Client) parseError(resp *http.Response) error {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("API error (status %d): failed to read error response", resp.StatusCode)
	}

	var errResp ErrorResponse
	if err := json.Unmarshal(body, &errResp); err != nil || errResp.Summary == "" {
		return fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(body))
	}

	if errResp.Detail != "" {
		return fmt.Errorf("API error: %s - %s", errResp.Summary, errResp.Detail)
	}
	return fmt.Errorf("API error: %s", errResp.Summary)
}
