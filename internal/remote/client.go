// Package remote implements the collaborator contracts the session layer
// synchronizes against: credential issuance and the per-user transaction and
// preference store, reached over HTTP with a bearer credential.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"bilancio/internal/core"
)

// Client talks to the bilancio API. Transport failures are reported as
// core.ErrNetwork; server status codes are mapped onto the shared error
// taxonomy so callers never inspect HTTP details.
type Client struct {
	base string
	hc   *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		base: strings.TrimRight(baseURL, "/"),
		hc:   &http.Client{Timeout: 15 * time.Second},
	}
}

// NewClientWithHTTP allows injecting a custom http.Client (tests, tracing).
func NewClientWithHTTP(baseURL string, hc *http.Client) *Client {
	return &Client{base: strings.TrimRight(baseURL, "/"), hc: hc}
}

var _ Service = (*Client)(nil)

func (c *Client) Login(ctx context.Context, email, password string) (core.Session, error) {
	var resp SessionResponse
	err := c.do(ctx, http.MethodPost, "/api/auth/login", "", LoginRequest{Email: email, Password: password}, &resp)
	if err != nil {
		return core.Session{}, err
	}
	return core.Session{User: resp.User.ToCore(), Token: resp.Token}, nil
}

func (c *Client) Register(ctx context.Context, username, email, password string) (core.Session, error) {
	var resp SessionResponse
	err := c.do(ctx, http.MethodPost, "/api/auth/register", "", RegisterRequest{Username: username, Email: email, Password: password}, &resp)
	if err != nil {
		return core.Session{}, err
	}
	return core.Session{User: resp.User.ToCore(), Token: resp.Token}, nil
}

func (c *Client) FetchTransactions(ctx context.Context, userID, credential string) ([]core.Transaction, error) {
	var wire []Transaction
	path := "/api/transactions?user_id=" + url.QueryEscape(userID)
	if err := c.do(ctx, http.MethodGet, path, credential, nil, &wire); err != nil {
		return nil, err
	}
	list := make([]core.Transaction, len(wire))
	for i, w := range wire {
		list[i] = w.ToCore()
	}
	return list, nil
}

func (c *Client) CreateTransaction(ctx context.Context, draft core.TransactionDraft, credential string) (core.Transaction, error) {
	var wire Transaction
	if err := c.do(ctx, http.MethodPost, "/api/transactions", credential, DraftToWire(draft), &wire); err != nil {
		return core.Transaction{}, err
	}
	return wire.ToCore(), nil
}

func (c *Client) UpdateTransaction(ctx context.Context, id string, patch core.TransactionPatch, credential string) (core.Transaction, error) {
	var wire Transaction
	path := "/api/transactions/" + url.PathEscape(id)
	if err := c.do(ctx, http.MethodPatch, path, credential, PatchToWire(patch), &wire); err != nil {
		return core.Transaction{}, err
	}
	return wire.ToCore(), nil
}

func (c *Client) DeleteTransaction(ctx context.Context, id, credential string) error {
	path := "/api/transactions/" + url.PathEscape(id)
	return c.do(ctx, http.MethodDelete, path, credential, nil, nil)
}

func (c *Client) FetchPreferences(ctx context.Context, userID, credential string) (core.Preferences, error) {
	var wire Preferences
	path := "/api/user/preferences?user_id=" + url.QueryEscape(userID)
	if err := c.do(ctx, http.MethodGet, path, credential, nil, &wire); err != nil {
		return core.Preferences{}, err
	}
	return wire.ToCore(), nil
}

func (c *Client) UpdatePreferences(ctx context.Context, userID string, prefs core.Preferences, credential string) (core.Preferences, error) {
	var wire Preferences
	path := "/api/user/preferences?user_id=" + url.QueryEscape(userID)
	if err := c.do(ctx, http.MethodPut, path, credential, PreferencesToWire(prefs), &wire); err != nil {
		return core.Preferences{}, err
	}
	return wire.ToCore(), nil
}

func (c *Client) do(ctx context.Context, method, path, credential string, body, out any) error {
	var rdr io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		rdr = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, rdr)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if credential != "" {
		req.Header.Set("Authorization", "Bearer "+credential)
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", core.ErrNetwork, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return statusError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// statusError maps an error response onto the shared taxonomy, keeping the
// server's human-readable message when it sent one.
func statusError(resp *http.Response) error {
	msg := serverMessage(resp)
	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return fmt.Errorf("%w: %s", core.ErrUnauthorized, msg)
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%w: %s", core.ErrNotFound, msg)
	case resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusUnprocessableEntity:
		return core.NewValidationError(msg)
	case resp.StatusCode == http.StatusConflict:
		return fmt.Errorf("%w: %s", core.ErrAlreadyExists, msg)
	case resp.StatusCode >= 500:
		return fmt.Errorf("%w: %s", core.ErrServer, msg)
	default:
		return fmt.Errorf("%w: unexpected status %d: %s", core.ErrServer, resp.StatusCode, msg)
	}
}

func serverMessage(resp *http.Response) string {
	var er ErrorResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 4096)).Decode(&er); err == nil && er.Error != "" {
		return er.Error
	}
	return http.StatusText(resp.StatusCode)
}
