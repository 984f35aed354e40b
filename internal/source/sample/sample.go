// Package sample provides the bundled example rows used when no remote
// source is configured or a fetch degrades.
package sample

import (
	"context"
	"sync"

	"iuran/internal/core"
	"iuran/internal/source"
)

// Rows returns the built-in sample row set: wide rows with one paid
// October bucket each, mirroring the shape of a real dues sheet.
func Rows() []core.RawRow {
	return []core.RawRow{
		{
			"Nama":    "Fajar Sodik Afendi",
			"NPM":     "257007111063",
			"Oktober": "Rp15.000,00",
		},
		{
			"Nama":    "Dian Orchita Marshelia",
			"NPM":     "257007111090",
			"Oktober": "Rp10.000,00",
		},
	}
}

// Store serves the sample rows and accepts submissions in memory. It backs
// the "sample" data backend and doubles as a test fake.
type Store struct {
	mu    sync.Mutex
	extra []core.RawRow
}

var (
	_ source.RowSource   = (*Store)(nil)
	_ source.EntryWriter = (*Store)(nil)
)

func New() *Store {
	return &Store{}
}

// FetchRows returns the bundled rows plus any entries submitted in this
// process, regardless of category.
func (s *Store) FetchRows(_ context.Context, _ core.Category) ([]core.RawRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows := Rows()
	rows = append(rows, s.extra...)
	return rows, nil
}

// SubmitEntry keeps the entry in memory as a flat row.
func (s *Store) SubmitEntry(_ context.Context, entry source.Entry, category core.Category) error {
	if err := entry.Validate(); err != nil {
		return err
	}
	entry = entry.WithDefaults()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.extra = append(s.extra, core.RawRow{
		"name":        entry.Name,
		"npm":         entry.PersonID,
		"month":       entry.Month,
		"amount":      entry.Amount,
		"description": entry.Description,
	})
	return nil
}
