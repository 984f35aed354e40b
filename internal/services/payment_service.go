// Package services orchestrates the payment pipeline: fetching raw rows,
// normalizing them into payment records, and serving filtered views to
// the HTTP layer.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"iuran/internal/amqp"
	"iuran/internal/cache"
	"iuran/internal/core"
	"iuran/internal/source"
	"iuran/internal/source/sample"
)

const (
	snapshotCacheSize = 8
	snapshotCacheTTL  = 5 * time.Minute
)

// EventPublisher publishes payment-recorded events after a successful
// submit. The AMQP client satisfies it; a nil publisher disables events.
type EventPublisher interface {
	PublishPaymentRecorded(ctx context.Context, msg *amqp.PaymentRecordedMessage) error
}

// View is the read model served to handlers: the active category, the
// current records, and how the last refresh went.
type View struct {
	Category    core.Category
	Criteria    core.Criteria
	Degraded    bool
	Notice      string
	RefreshedAt time.Time
}

// PaymentService is the synchronization façade. It owns the working
// record collection for the active category and replaces it atomically on
// each refresh; readers never observe a partially updated collection.
type PaymentService struct {
	catalog    *core.Catalog
	rows       source.RowSource
	writer     source.EntryWriter
	fallback   source.RowSource
	publisher  EventPublisher
	normalizer *core.Normalizer
	snapshots  *cache.Snapshots

	// refreshGroup collapses overlapping refreshes of the same category
	// into a single fetch.
	refreshGroup singleflight.Group

	mu      sync.RWMutex
	view    View
	records []core.PaymentRecord
}

func NewPaymentService(catalog *core.Catalog, rows source.RowSource, writer source.EntryWriter, publisher EventPublisher) *PaymentService {
	s := &PaymentService{
		catalog:    catalog,
		rows:       rows,
		writer:     writer,
		fallback:   sample.New(),
		publisher:  publisher,
		normalizer: &core.Normalizer{},
		snapshots:  cache.NewSnapshots(snapshotCacheSize, snapshotCacheTTL),
	}
	s.view = View{
		Category: catalog.Resolve(""),
		Criteria: core.Criteria{Status: core.StatusAll, Month: core.MonthAll},
	}
	return s
}

type refreshResult struct {
	records  []core.PaymentRecord
	degraded bool
	notice   string
}

// Refresh fetches and normalizes rows for the active category and swaps
// the working collection in one step. Fetch failures degrade instead of
// erroring: a previously loaded collection is kept, otherwise the sample
// rows are served. Overlapping calls for the same category share one
// fetch.
func (s *PaymentService) Refresh(ctx context.Context) View {
	s.mu.RLock()
	category := s.view.Category
	s.mu.RUnlock()

	v, _, _ := s.refreshGroup.Do(category.Key, func() (any, error) {
		return s.fetch(ctx, category), nil
	})
	res := v.(refreshResult)

	s.mu.Lock()
	defer s.mu.Unlock()
	// The active category may have changed while the fetch was in flight;
	// a stale result must not clobber the newer view.
	if s.view.Category.Key != category.Key {
		return s.view
	}
	s.records = res.records
	s.view.Degraded = res.degraded
	s.view.Notice = res.notice
	s.view.RefreshedAt = time.Now()
	return s.view
}

func (s *PaymentService) fetch(ctx context.Context, category core.Category) refreshResult {
	rows, err := s.rows.FetchRows(ctx, category)
	if err == nil {
		records := s.normalizer.Normalize(rows, category)
		s.snapshots.Put(cache.Snapshot{
			CategoryKey: category.Key,
			Records:     records,
			FetchedAt:   time.Now(),
		})
		slog.InfoContext(ctx, "Refreshed payment records",
			"category", category.Key,
			"sheet", category.Sheet,
			"rows", len(rows),
			"records", len(records))
		return refreshResult{records: records}
	}

	if errors.Is(err, source.ErrNotConfigured) {
		slog.InfoContext(ctx, "No remote source configured, serving sample data",
			"category", category.Key)
		return refreshResult{
			records:  s.fallbackRecords(ctx, category),
			degraded: true,
			notice:   "remote source not configured; showing sample data",
		}
	}

	slog.WarnContext(ctx, "Fetch failed, degrading",
		"category", category.Key,
		"sheet", category.Sheet,
		"error", err)

	// Keep a previously loaded collection for this category over the
	// bundled samples.
	s.mu.RLock()
	prior := s.view.Category.Key == category.Key && len(s.records) > 0 && !s.view.Degraded
	kept := s.records
	s.mu.RUnlock()
	if prior {
		return refreshResult{
			records:  kept,
			degraded: true,
			notice:   "fetch failed; showing previously loaded records",
		}
	}

	return refreshResult{
		records:  s.fallbackRecords(ctx, category),
		degraded: true,
		notice:   "fetch failed; showing sample data",
	}
}

func (s *PaymentService) fallbackRecords(ctx context.Context, category core.Category) []core.PaymentRecord {
	rows, err := s.fallback.FetchRows(ctx, category)
	if err != nil {
		slog.ErrorContext(ctx, "Sample fallback failed", "error", err)
		return nil
	}
	return s.normalizer.Normalize(rows, category)
}

// SwitchCategory makes the given category active. A fresh cached snapshot
// is served without a fetch; otherwise the category is refreshed. Unknown
// keys resolve to the first configured category.
func (s *PaymentService) SwitchCategory(ctx context.Context, key string) View {
	category := s.catalog.Resolve(key)

	s.mu.Lock()
	s.view.Category = category
	if snap, ok := s.snapshots.Get(category.Key); ok {
		s.records = snap.Records
		s.view.Degraded = false
		s.view.Notice = ""
		s.view.RefreshedAt = snap.FetchedAt
		view := s.view
		s.mu.Unlock()
		slog.InfoContext(ctx, "Switched category from snapshot cache",
			"category", category.Key,
			"records", len(snap.Records))
		return view
	}
	s.mu.Unlock()

	return s.Refresh(ctx)
}

// SetCriteria updates the current filter criteria and returns the
// resulting view.
func (s *PaymentService) SetCriteria(criteria core.Criteria) View {
	if criteria.Status == "" {
		criteria.Status = core.StatusAll
	}
	if criteria.Month == "" {
		criteria.Month = core.MonthAll
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.view.Criteria = criteria
	return s.view
}

// Records returns the working collection filtered by the current
// criteria.
func (s *PaymentService) Records() []core.PaymentRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return core.Filter(s.records, s.view.Criteria)
}

// Summary reduces the current filtered view.
func (s *PaymentService) Summary() core.Summary {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return core.Summarize(core.Filter(s.records, s.view.Criteria))
}

// Recent returns the most recently updated records of the active
// category, unfiltered.
func (s *PaymentService) Recent(limit int) []core.PaymentRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return core.MostRecent(s.records, limit)
}

// CurrentView returns the active category and refresh status.
func (s *PaymentService) CurrentView() View {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.view
}

// Categories lists the configured categories in order.
func (s *PaymentService) Categories() []core.Category {
	return s.catalog.Categories()
}

// Submit records one payment entry against the active category. Failures
// are returned verbatim and leave the working collection untouched; there
// is no automatic retry. On success the category's cached snapshot is
// invalidated and, when a publisher is configured, a payment-recorded
// event goes out.
func (s *PaymentService) Submit(ctx context.Context, entry source.Entry) error {
	s.mu.RLock()
	category := s.view.Category
	s.mu.RUnlock()

	entry = entry.WithDefaults()
	if entry.Description == "" && entry.Month != "" {
		entry.Description = fmt.Sprintf("%s bulanan %s", category.Label, entry.Month)
	}
	if err := entry.Validate(); err != nil {
		return err
	}

	if err := s.writer.SubmitEntry(ctx, entry, category); err != nil {
		return fmt.Errorf("submit payment: %w", err)
	}

	s.snapshots.Invalidate(category.Key)

	if err := s.publishPaymentRecorded(ctx, entry, category); err != nil {
		slog.ErrorContext(ctx, "Failed to publish payment recorded event",
			"name", entry.Name,
			"category", category.Key,
			"error", err)
		// The payment is recorded; event delivery is best effort.
	}

	slog.InfoContext(ctx, "Payment submitted",
		"name", entry.Name,
		"month", entry.Month,
		"amount", entry.Amount,
		"category", category.Key)
	return nil
}

func (s *PaymentService) publishPaymentRecorded(ctx context.Context, entry source.Entry, category core.Category) error {
	if s.publisher == nil {
		return nil
	}
	return s.publisher.PublishPaymentRecorded(ctx, &amqp.PaymentRecordedMessage{
		Name:        entry.Name,
		PersonID:    entry.PersonID,
		Month:       entry.Month,
		Amount:      entry.Amount,
		Note:        entry.Note,
		Description: entry.Description,
		CategoryKey: category.Key,
		Sheet:       category.Sheet,
		Timestamp:   time.Now(),
	})
}
