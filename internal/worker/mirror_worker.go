// Package worker mirrors payments recorded against local backends to the
// shared spreadsheet.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"iuran/internal/amqp"
	"iuran/internal/core"
	"iuran/internal/source"
)

// MirrorWorker consumes payment-recorded events and appends each payment
// to the spreadsheet of its category.
type MirrorWorker struct {
	writer  source.EntryWriter
	catalog *core.Catalog
}

func NewMirrorWorker(writer source.EntryWriter, catalog *core.Catalog) *MirrorWorker {
	return &MirrorWorker{
		writer:  writer,
		catalog: catalog,
	}
}

// HandleMessage processes a single payment-recorded message. Errors are
// returned so the consumer can requeue the delivery.
func (w *MirrorWorker) HandleMessage(ctx context.Context, msg *amqp.PaymentRecordedMessage) error {
	slog.InfoContext(ctx, "Processing payment recorded message",
		"name", msg.Name,
		"month", msg.Month,
		"category", msg.CategoryKey)

	category := w.catalog.Resolve(msg.CategoryKey)
	if msg.Sheet != "" && msg.Sheet != category.Sheet {
		// The message may carry a sheet the catalog does not know about,
		// e.g. after a category was reconfigured. Honor the message.
		category.Sheet = msg.Sheet
	}

	entry := source.Entry{
		Name:        msg.Name,
		PersonID:    msg.PersonID,
		Month:       msg.Month,
		Amount:      msg.Amount,
		Note:        msg.Note,
		Description: msg.Description,
	}.WithDefaults()

	if err := entry.Validate(); err != nil {
		// Invalid payloads will never succeed; surface the error so the
		// consumer rejects without requeue at the decode layer next time.
		return fmt.Errorf("invalid payment message: %w", err)
	}

	if err := w.writer.SubmitEntry(ctx, entry, category); err != nil {
		return fmt.Errorf("mirror payment to sheet %s: %w", category.Sheet, err)
	}

	slog.InfoContext(ctx, "Successfully mirrored payment",
		"name", msg.Name,
		"month", msg.Month,
		"sheet", category.Sheet,
		"lag", time.Since(msg.Timestamp).Round(time.Millisecond))

	return nil
}
