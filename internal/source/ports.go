// Package source declares the ports for payment-row feeds and the
// adapters that implement them (Apps Script endpoint, Google Sheets,
// SQLite, bundled samples).
package source

import (
	"context"
	"errors"
	"strings"

	"iuran/internal/core"
)

// ErrNotSupported is returned by read-only sources for write operations.
var ErrNotSupported = errors.New("operation not supported by this source")

// ErrNotConfigured is returned by adapters that need remote configuration
// which was not supplied. Running without a remote is a supported mode,
// not a failure.
var ErrNotConfigured = errors.New("remote source not configured")

type (
	// RowSource fetches raw rows for one category's sheet.
	RowSource interface {
		FetchRows(ctx context.Context, category core.Category) ([]core.RawRow, error)
	}

	// EntryWriter records one new payment entry against a category's sheet.
	EntryWriter interface {
		SubmitEntry(ctx context.Context, entry Entry, category core.Category) error
	}
)

// Entry is one payment submission as entered by the user.
type Entry struct {
	Name     string
	PersonID string
	Month    string
	Amount   float64
	// Mode is the remote update mode; "add" accumulates onto the
	// existing bucket value.
	Mode        string
	Note        string
	Description string
}

// Validate checks the fields the remote endpoint requires.
func (e Entry) Validate() error {
	if strings.TrimSpace(e.Name) == "" {
		return core.ErrEmptyName
	}
	if e.Amount < 0 {
		return core.ErrInvalidAmount
	}
	if e.Month != "" && core.MonthNumber(e.Month) == 0 {
		return core.ErrInvalidMonth
	}
	return nil
}

// WithDefaults fills in the update mode.
func (e Entry) WithDefaults() Entry {
	if e.Mode == "" {
		e.Mode = "add"
	}
	return e
}
