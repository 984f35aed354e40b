package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"iuran/internal/core"
	"iuran/internal/source"
)

const (
	defaultRecentLimit = 6
	maxRecentLimit     = 100
	maxBodyBytes       = 64 << 10
)

// parseCriteria reads filter criteria from query parameters. Empty values
// mean "no constraint" and are widened to the ALL sentinels downstream.
func parseCriteria(r *http.Request) core.Criteria {
	q := r.URL.Query()
	return core.Criteria{
		Query:  strings.TrimSpace(q.Get("query")),
		Status: core.Status(strings.ToUpper(strings.TrimSpace(q.Get("status")))),
		Month:  strings.TrimSpace(q.Get("month")),
	}
}

func parseLimit(r *http.Request) int {
	v := strings.TrimSpace(r.URL.Query().Get("limit"))
	if v == "" {
		return defaultRecentLimit
	}
	limit, err := strconv.Atoi(v)
	if err != nil || limit < 1 {
		return defaultRecentLimit
	}
	if limit > maxRecentLimit {
		return maxRecentLimit
	}
	return limit
}

type entryPayload struct {
	Name        string `json:"name"`
	PersonID    string `json:"personId"`
	NPM         string `json:"npm"`
	Month       string `json:"month"`
	Amount      any    `json:"amount"`
	Mode        string `json:"mode"`
	Note        string `json:"note"`
	Description string `json:"description"`
}

// parseEntry accepts a payment submission as a JSON body or an HTML form.
// The amount may be numeric or an "Rp"-formatted string; unlike row
// normalization, a malformed amount here is rejected rather than zeroed.
func parseEntry(r *http.Request) (source.Entry, error) {
	payload, err := decodeEntryPayload(r)
	if err != nil {
		return source.Entry{}, err
	}

	personID := payload.PersonID
	if personID == "" {
		personID = payload.NPM
	}

	var amount float64
	if payload.Amount != nil && payload.Amount != "" {
		amount, err = core.ParseAmountStrict(payload.Amount)
		if err != nil {
			return source.Entry{}, fmt.Errorf("invalid amount %q", fmt.Sprint(payload.Amount))
		}
	}

	return source.Entry{
		Name:        sanitizeInput(payload.Name),
		PersonID:    sanitizeInput(personID),
		Month:       sanitizeInput(payload.Month),
		Amount:      amount,
		Mode:        sanitizeInput(payload.Mode),
		Note:        sanitizeInput(payload.Note),
		Description: sanitizeInput(payload.Description),
	}, nil
}

func decodeEntryPayload(r *http.Request) (entryPayload, error) {
	var payload entryPayload

	if strings.Contains(r.Header.Get("Content-Type"), "application/json") {
		body := http.MaxBytesReader(nil, r.Body, maxBodyBytes)
		if err := json.NewDecoder(body).Decode(&payload); err != nil {
			return payload, fmt.Errorf("invalid JSON body: %w", err)
		}
		return payload, nil
	}

	if err := r.ParseForm(); err != nil {
		return payload, fmt.Errorf("invalid form body: %w", err)
	}
	payload.Name = r.Form.Get("name")
	payload.PersonID = r.Form.Get("personId")
	payload.NPM = r.Form.Get("npm")
	payload.Month = r.Form.Get("month")
	if v := strings.TrimSpace(r.Form.Get("amount")); v != "" {
		payload.Amount = v
	}
	payload.Mode = r.Form.Get("mode")
	payload.Note = r.Form.Get("note")
	payload.Description = r.Form.Get("description")
	return payload, nil
}

func parseCategoryKey(r *http.Request) (string, error) {
	if strings.Contains(r.Header.Get("Content-Type"), "application/json") {
		var payload struct {
			Key string `json:"key"`
		}
		body := http.MaxBytesReader(nil, r.Body, maxBodyBytes)
		if err := json.NewDecoder(body).Decode(&payload); err != nil {
			return "", fmt.Errorf("invalid JSON body: %w", err)
		}
		return strings.TrimSpace(payload.Key), nil
	}
	if err := r.ParseForm(); err != nil {
		return "", fmt.Errorf("invalid form body: %w", err)
	}
	return strings.TrimSpace(r.Form.Get("key")), nil
}

// sanitizeInput trims whitespace and removes control characters except
// tab, newline, and carriage return.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}
