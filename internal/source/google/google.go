// Package google reads and writes the dues spreadsheet directly through
// the Google Sheets API, as an alternative to the Apps Script endpoint.
// The first row of each sheet tab is the header; following rows become
// raw rows keyed by header cell.
package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"iuran/internal/core"
	"iuran/internal/source"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
}

var (
	_ source.RowSource   = (*Client)(nil)
	_ source.EntryWriter = (*Client)(nil)
)

// NewFromEnv creates a Sheets client from environment variables.
// Required: GOOGLE_SPREADSHEET_ID.
// Credentials: GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE,
// or GOOGLE_APPLICATION_CREDENTIALS.
func NewFromEnv(ctx context.Context) (*Client, error) {
	spreadsheetID := strings.TrimSpace(os.Getenv("GOOGLE_SPREADSHEET_ID"))
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}

	svc, err := newSheetsService(ctx)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}

	return &Client{svc: svc, spreadsheetID: spreadsheetID}, nil
}

func newSheetsService(ctx context.Context) (*gsheet.Service, error) {
	serviceAccountJSON := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"))
	serviceAccountFile := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"))
	if serviceAccountJSON == "" && serviceAccountFile == "" {
		serviceAccountFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var credentialsJSON []byte
	var err error
	switch {
	case serviceAccountJSON != "":
		credentialsJSON = []byte(serviceAccountJSON)
	case serviceAccountFile != "":
		credentialsJSON, err = os.ReadFile(serviceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return service, nil
}

// FetchRows reads the category's sheet tab and converts the grid into raw
// rows. Empty cells are omitted so bucket presence checks stay meaningful.
func (c *Client) FetchRows(ctx context.Context, category core.Category) ([]core.RawRow, error) {
	if c.svc == nil {
		return nil, errors.New("sheets service not initialized")
	}
	rng := fmt.Sprintf("%s!A:Z", category.Sheet)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rng, err)
	}
	rows := GridToRows(resp.Values)
	slog.DebugContext(ctx, "Read sheet grid", "sheet", category.Sheet, "rows", len(rows))
	return rows, nil
}

// GridToRows maps a header-plus-values grid into raw rows. The first grid
// row supplies the field names; blank header cells and blank values are
// skipped.
func GridToRows(grid [][]any) []core.RawRow {
	if len(grid) < 2 {
		return nil
	}
	header := make([]string, len(grid[0]))
	for i, cell := range grid[0] {
		header[i] = strings.TrimSpace(fmt.Sprint(cell))
	}

	rows := make([]core.RawRow, 0, len(grid)-1)
	for _, line := range grid[1:] {
		row := core.RawRow{}
		for i, cell := range line {
			if i >= len(header) || header[i] == "" {
				continue
			}
			switch v := cell.(type) {
			case string:
				if strings.TrimSpace(v) == "" {
					continue
				}
				row[header[i]] = v
			case float64:
				row[header[i]] = v
			default:
				s := strings.TrimSpace(fmt.Sprint(cell))
				if s == "" {
					continue
				}
				row[header[i]] = s
			}
		}
		if len(row) > 0 {
			rows = append(rows, row)
		}
	}
	return rows
}

// SubmitEntry appends the payment as a flat row at the bottom of the
// category's sheet tab.
func (c *Client) SubmitEntry(ctx context.Context, entry source.Entry, category core.Category) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}
	if err := entry.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}
	entry = entry.WithDefaults()

	rng := fmt.Sprintf("%s!A:G", category.Sheet)
	vr := &gsheet.ValueRange{Values: [][]any{{
		entry.Name,
		entry.PersonID,
		entry.Month,
		entry.Amount,
		entry.Note,
		entry.Description,
		time.Now().UTC().Format(time.RFC3339),
	}}}
	_, err := c.svc.Spreadsheets.Values.Append(c.spreadsheetID, rng, vr).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("append to sheet %s: %w", category.Sheet, err)
	}
	return nil
}
