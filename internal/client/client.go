// Package client provides the HTTP client for the cuplog API.
//
// It maps the wire contract back onto the domain error taxonomy: 404
// responses become coffee.ErrNotFound, 4xx validation payloads become
// *coffee.ValidationError carrying the server's message, 5xx responses
// become *coffee.StorageError, and network failures become
// *coffee.TransportError. No retries happen at this level; retry policy,
// if any, belongs to the injected http.Client.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/mwalters/cuplog/internal/coffee"
)

// Client talks to a cuplog server.
type Client struct {
	baseURL string
	http    *http.Client
}

// New creates a client for the server at baseURL.
// A nil httpClient falls back to http.DefaultClient; timeouts are whatever
// that client enforces.
func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
	}
}

// FetchEntry retrieves one entry by id.
func (c *Client) FetchEntry(ctx context.Context, id string) (*coffee.Entry, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.entryURL(id), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	var entry coffee.Entry
	if err := c.do(req, &entry); err != nil {
		return nil, err
	}
	return &entry, nil
}

// SubmitPatch applies a sparse patch to one entry and returns the
// post-update entry. Absent patch fields are omitted from the payload
// entirely, never sent as explicit null.
func (c *Client) SubmitPatch(ctx context.Context, id string, patch *coffee.Patch) (*coffee.Entry, error) {
	body, err := json.Marshal(patch)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal patch: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, c.entryURL(id), bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	var entry coffee.Entry
	if err := c.do(req, &entry); err != nil {
		return nil, err
	}
	return &entry, nil
}

// CreateEntry logs a new entry and returns the stored record.
func (c *Client) CreateEntry(ctx context.Context, entry *coffee.Entry) (*coffee.Entry, error) {
	body, err := json.Marshal(entry)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal entry: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/entries", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	var stored coffee.Entry
	if err := c.do(req, &stored); err != nil {
		return nil, err
	}
	return &stored, nil
}

// ListEntries retrieves the most recent entries, newest first.
func (c *Client) ListEntries(ctx context.Context, limit int) ([]*coffee.Entry, error) {
	u := c.baseURL + "/api/entries"
	if limit > 0 {
		u += fmt.Sprintf("?limit=%d", limit)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	var entries []*coffee.Entry
	if err := c.do(req, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// entryURL builds the path for one entry. Ids are RFC3339 timestamps, so
// they must be path-escaped.
func (c *Client) entryURL(id string) string {
	return c.baseURL + "/api/entries/" + url.PathEscape(id)
}

// do executes the request and decodes the response into out, mapping
// failures onto the domain error taxonomy.
func (c *Client) do(req *http.Request, out interface{}) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return coffee.NewTransportError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return coffee.NewTransportError(fmt.Errorf("failed to decode response: %w", err))
		}
		return nil
	}

	message := serverMessage(resp.Body)

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return coffee.ErrNotFound
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		if message == "" {
			message = fmt.Sprintf("request rejected with status %d", resp.StatusCode)
		}
		return coffee.NewValidationError(message)
	default:
		if message == "" {
			message = fmt.Sprintf("status %d", resp.StatusCode)
		}
		return coffee.NewStorageError(errors.New(message))
	}
}

// serverMessage extracts the {"error": ...} payload, if any.
func serverMessage(body io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(body, 1<<16))
	if err != nil {
		return ""
	}

	var payload struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return ""
	}
	return payload.Error
}
