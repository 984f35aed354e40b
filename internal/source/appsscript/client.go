// Package appsscript talks to the Google Apps Script web app that fronts
// the dues spreadsheet. Reads are action=list requests scoped to one sheet
// tab; writes are form-encoded action=updateMonth posts.
package appsscript

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"iuran/internal/core"
	"iuran/internal/source"
)

// ErrNotConfigured is returned when no endpoint base URL was supplied.
var ErrNotConfigured = source.ErrNotConfigured

type Client struct {
	baseURL string
	apiKey  string
	httpc   *http.Client
}

var (
	_ source.RowSource   = (*Client)(nil)
	_ source.EntryWriter = (*Client)(nil)
)

// New creates a client for the given endpoint. The API key is optional and
// forwarded as a query parameter when present.
func New(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: strings.TrimSpace(baseURL),
		apiKey:  apiKey,
		httpc: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Configured reports whether a base URL was supplied.
func (c *Client) Configured() bool {
	return c.baseURL != ""
}

func (c *Client) requestURL(action, sheet string) (string, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return "", fmt.Errorf("parse endpoint url: %w", err)
	}
	q := u.Query()
	q.Set("action", action)
	q.Set("sheet", sheet)
	if c.apiKey != "" {
		q.Set("apiKey", c.apiKey)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// FetchRows lists the raw rows of the category's sheet tab. The endpoint
// answers either with a bare JSON array or with {"data": [...]}; any other
// shape is an error.
func (c *Client) FetchRows(ctx context.Context, category core.Category) ([]core.RawRow, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}
	reqURL, err := c.requestURL("list", category.Sheet)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build list request: %w", err)
	}
	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", category.Sheet, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("list %s: unexpected status %d", category.Sheet, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read list response: %w", err)
	}
	return decodeRows(body, category.Sheet)
}

// decodeRows accepts the two payload shapes the endpoint produces.
func decodeRows(body []byte, sheet string) ([]core.RawRow, error) {
	var rows []core.RawRow
	if err := json.Unmarshal(body, &rows); err == nil {
		return rows, nil
	}
	var wrapped struct {
		Data []core.RawRow `json:"data"`
	}
	if err := json.Unmarshal(body, &wrapped); err == nil && wrapped.Data != nil {
		return wrapped.Data, nil
	}
	return nil, fmt.Errorf("list %s: malformed response body", sheet)
}

// SubmitEntry posts one payment entry as a form-encoded updateMonth
// request. A non-success status is an error carrying the response body
// text when the endpoint supplies one. No automatic retry.
func (c *Client) SubmitEntry(ctx context.Context, entry source.Entry, category core.Category) error {
	if !c.Configured() {
		return ErrNotConfigured
	}
	if err := entry.Validate(); err != nil {
		return err
	}
	entry = entry.WithDefaults()

	reqURL, err := c.requestURL("updateMonth", category.Sheet)
	if err != nil {
		return err
	}

	form := url.Values{}
	form.Set("name", entry.Name)
	form.Set("npm", strings.TrimSpace(entry.PersonID))
	form.Set("month", entry.Month)
	form.Set("amount", strconv.FormatFloat(entry.Amount, 'f', -1, 64))
	form.Set("mode", entry.Mode)
	form.Set("note", entry.Note)
	form.Set("description", entry.Description)
	form.Set("categoryKey", category.Key)
	form.Set("sheet", category.Sheet)
	form.Set("updatedAt", time.Now().UTC().Format(time.RFC3339))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("build submit request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("submit to %s: %w", category.Sheet, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		msg := strings.TrimSpace(string(detail))
		if msg == "" {
			msg = fmt.Sprintf("unexpected status %d", resp.StatusCode)
		}
		return fmt.Errorf("submit to %s: %s", category.Sheet, msg)
	}
	return nil
}
