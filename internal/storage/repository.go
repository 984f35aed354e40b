// Package storage backs the sqlite data backend: recorded payments live in
// a local database and are served back as flat raw rows.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"iuran/internal/core"
	"iuran/internal/source"

	_ "modernc.org/sqlite"
)

type SQLiteRepository struct {
	db *sql.DB
}

var (
	_ source.RowSource   = (*SQLiteRepository)(nil)
	_ source.EntryWriter = (*SQLiteRepository)(nil)
)

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// FetchRows implements source.RowSource: every stored payment for the
// category's sheet comes back as one flat raw row.
func (r *SQLiteRepository) FetchRows(ctx context.Context, category core.Category) ([]core.RawRow, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, person_id, month, amount, note, description, updated_at
		FROM payments
		WHERE sheet = ?
		ORDER BY id`, category.Sheet)
	if err != nil {
		return nil, fmt.Errorf("list payments for sheet %s: %w", category.Sheet, err)
	}
	defer rows.Close()

	var out []core.RawRow
	for rows.Next() {
		var id int64
		var amount float64
		var name, personID, month, note, desc, updated string
		if err := rows.Scan(&id, &name, &personID, &month, &amount, &note, &desc, &updated); err != nil {
			return nil, fmt.Errorf("scan payment row: %w", err)
		}
		out = append(out, core.RawRow{
			"id":          fmt.Sprintf("db-%d", id),
			"name":        name,
			"npm":         personID,
			"month":       month,
			"amount":      amount,
			"description": desc,
			"updatedAt":   updated,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate payment rows: %w", err)
	}
	return out, nil
}

// SubmitEntry implements source.EntryWriter.
func (r *SQLiteRepository) SubmitEntry(ctx context.Context, entry source.Entry, category core.Category) error {
	if err := entry.Validate(); err != nil {
		return err
	}
	entry = entry.WithDefaults()

	res, err := r.db.ExecContext(ctx, `
		INSERT INTO payments (name, person_id, month, amount, note, description, category_key, sheet, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.Name, entry.PersonID, entry.Month, entry.Amount, entry.Note,
		entry.Description, category.Key, category.Sheet,
		time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("insert payment: %w", err)
	}

	id, _ := res.LastInsertId()
	slog.InfoContext(ctx, "Payment saved to SQLite",
		"id", id,
		"name", entry.Name,
		"month", entry.Month,
		"amount", entry.Amount,
		"sheet", category.Sheet)
	return nil
}
