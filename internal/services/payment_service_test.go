package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"iuran/internal/amqp"
	"iuran/internal/core"
	"iuran/internal/source"
)

type fakeSource struct {
	mu      sync.Mutex
	calls   int
	rows    []core.RawRow
	err     error
	block   chan struct{}
	started chan struct{}
}

func (f *fakeSource) FetchRows(_ context.Context, _ core.Category) ([]core.RawRow, error) {
	f.mu.Lock()
	f.calls++
	rows, err := f.rows, f.err
	f.mu.Unlock()
	if f.started != nil {
		f.started <- struct{}{}
	}
	if f.block != nil {
		<-f.block
	}
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (f *fakeSource) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeWriter struct {
	mu      sync.Mutex
	entries []source.Entry
	err     error
}

func (f *fakeWriter) SubmitEntry(_ context.Context, entry source.Entry, _ core.Category) error {
	if f.err != nil {
		return f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, entry)
	return nil
}

type fakePublisher struct {
	messages []*amqp.PaymentRecordedMessage
}

func (f *fakePublisher) PublishPaymentRecorded(_ context.Context, msg *amqp.PaymentRecordedMessage) error {
	f.messages = append(f.messages, msg)
	return nil
}

func newTestCatalog() *core.Catalog {
	return core.NewCatalog([]core.Category{
		{Key: "kas", Label: "Kas Kelas", Sheet: "Kas", MonthlyTarget: 15000},
		{Key: "listrik", Label: "Listrik", Sheet: "Listrik", MonthlyTarget: 10000},
	})
}

func flatRows() []core.RawRow {
	return []core.RawRow{
		{"name": "Fajar", "npm": "063", "month": "Oktober", "amount": "Rp15.000,00"},
		{"name": "Dian", "npm": "090", "month": "Oktober", "amount": "Rp10.000,00"},
	}
}

func TestRefresh_Success(t *testing.T) {
	src := &fakeSource{rows: flatRows()}
	svc := NewPaymentService(newTestCatalog(), src, &fakeWriter{}, nil)

	view := svc.Refresh(context.Background())

	if view.Degraded {
		t.Errorf("successful refresh must not be degraded, notice %q", view.Notice)
	}
	if view.Category.Key != "kas" {
		t.Errorf("active category = %q, want kas", view.Category.Key)
	}
	records := svc.Records()
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}
	if records[0].Status != core.StatusPaid {
		t.Errorf("first record status = %q, want PAID", records[0].Status)
	}
	if records[1].Status != core.StatusPartial {
		t.Errorf("second record status = %q, want PARTIAL", records[1].Status)
	}
}

func TestRefresh_FailureFallsBackToSample(t *testing.T) {
	src := &fakeSource{err: errors.New("connection refused")}
	svc := NewPaymentService(newTestCatalog(), src, &fakeWriter{}, nil)

	view := svc.Refresh(context.Background())

	if !view.Degraded {
		t.Error("failed refresh should be degraded")
	}
	if !strings.Contains(view.Notice, "sample") {
		t.Errorf("notice = %q, want mention of sample data", view.Notice)
	}
	if records := svc.Records(); len(records) != 2 {
		t.Errorf("got %d sample records, want 2", len(records))
	}
}

func TestRefresh_FailureKeepsPriorRecords(t *testing.T) {
	src := &fakeSource{rows: flatRows()}
	svc := NewPaymentService(newTestCatalog(), src, &fakeWriter{}, nil)

	if view := svc.Refresh(context.Background()); view.Degraded {
		t.Fatal("first refresh should succeed")
	}
	before := svc.Records()

	src.mu.Lock()
	src.err = errors.New("timeout")
	src.mu.Unlock()

	view := svc.Refresh(context.Background())
	if !view.Degraded {
		t.Error("second refresh should be degraded")
	}
	if !strings.Contains(view.Notice, "previously loaded") {
		t.Errorf("notice = %q, want mention of previously loaded records", view.Notice)
	}
	after := svc.Records()
	if len(after) != len(before) {
		t.Fatalf("prior records not kept: %d vs %d", len(after), len(before))
	}
	for i := range after {
		if after[i].ID != before[i].ID {
			t.Errorf("record %d changed: %q vs %q", i, after[i].ID, before[i].ID)
		}
	}
}

func TestRefresh_NotConfiguredIsInformational(t *testing.T) {
	src := &fakeSource{err: source.ErrNotConfigured}
	svc := NewPaymentService(newTestCatalog(), src, &fakeWriter{}, nil)

	view := svc.Refresh(context.Background())

	if !view.Degraded {
		t.Error("unconfigured source should serve degraded sample data")
	}
	if !strings.Contains(view.Notice, "not configured") {
		t.Errorf("notice = %q, want mention of missing configuration", view.Notice)
	}
}

func TestRefresh_OverlappingCallsShareOneFetch(t *testing.T) {
	src := &fakeSource{
		rows:    flatRows(),
		block:   make(chan struct{}),
		started: make(chan struct{}, 1),
	}
	svc := NewPaymentService(newTestCatalog(), src, &fakeWriter{}, nil)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		svc.Refresh(context.Background())
	}()
	<-src.started

	// These join the in-flight fetch instead of starting their own.
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			svc.Refresh(context.Background())
		}()
	}
	time.Sleep(20 * time.Millisecond)
	close(src.block)
	wg.Wait()

	if got := src.callCount(); got != 1 {
		t.Errorf("fetch count = %d, want 1", got)
	}
}

func TestSwitchCategory_ServesCachedSnapshot(t *testing.T) {
	src := &fakeSource{rows: flatRows()}
	svc := NewPaymentService(newTestCatalog(), src, &fakeWriter{}, nil)

	svc.Refresh(context.Background())
	svc.SwitchCategory(context.Background(), "listrik")
	if got := src.callCount(); got != 2 {
		t.Fatalf("fetch count after two categories = %d, want 2", got)
	}

	// Back to kas: the snapshot is fresh, no third fetch.
	view := svc.SwitchCategory(context.Background(), "kas")
	if got := src.callCount(); got != 2 {
		t.Errorf("fetch count after cached switch = %d, want 2", got)
	}
	if view.Category.Key != "kas" {
		t.Errorf("active category = %q, want kas", view.Category.Key)
	}
	if len(svc.Records()) != 2 {
		t.Errorf("cached switch should restore records")
	}
}

func TestSwitchCategory_UnknownKeyFallsBack(t *testing.T) {
	src := &fakeSource{rows: flatRows()}
	svc := NewPaymentService(newTestCatalog(), src, &fakeWriter{}, nil)

	view := svc.SwitchCategory(context.Background(), "tidak-ada")
	if view.Category.Key != "kas" {
		t.Errorf("active category = %q, want fallback kas", view.Category.Key)
	}
}

func TestSetCriteria_FiltersViews(t *testing.T) {
	src := &fakeSource{rows: flatRows()}
	svc := NewPaymentService(newTestCatalog(), src, &fakeWriter{}, nil)
	svc.Refresh(context.Background())

	svc.SetCriteria(core.Criteria{Status: core.StatusPaid})

	records := svc.Records()
	if len(records) != 1 || records[0].Name != "Fajar" {
		t.Fatalf("filtered records = %+v, want only Fajar", records)
	}
	summary := svc.Summary()
	if summary.CountPaid != 1 || summary.CountDue != 0 {
		t.Errorf("summary over filtered view = %+v", summary)
	}

	// Clearing criteria restores the full view.
	svc.SetCriteria(core.Criteria{})
	if len(svc.Records()) != 2 {
		t.Error("empty criteria should return all records")
	}
}

func TestRecent_IgnoresFilters(t *testing.T) {
	src := &fakeSource{rows: flatRows()}
	svc := NewPaymentService(newTestCatalog(), src, &fakeWriter{}, nil)
	svc.Refresh(context.Background())
	svc.SetCriteria(core.Criteria{Status: core.StatusPaid})

	if got := len(svc.Recent(10)); got != 2 {
		t.Errorf("Recent() = %d records, want 2 regardless of filters", got)
	}
	if got := len(svc.Recent(1)); got != 1 {
		t.Errorf("Recent(1) = %d records, want 1", got)
	}
}

func TestSubmit_Success(t *testing.T) {
	src := &fakeSource{rows: flatRows()}
	writer := &fakeWriter{}
	publisher := &fakePublisher{}
	svc := NewPaymentService(newTestCatalog(), src, writer, publisher)
	svc.Refresh(context.Background())

	err := svc.Submit(context.Background(), source.Entry{
		Name:     "Budi",
		PersonID: "101",
		Month:    "November",
		Amount:   15000,
	})
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	if len(writer.entries) != 1 {
		t.Fatalf("writer got %d entries, want 1", len(writer.entries))
	}
	entry := writer.entries[0]
	if entry.Mode != "add" {
		t.Errorf("mode = %q, want default add", entry.Mode)
	}
	if entry.Description != "Kas Kelas bulanan November" {
		t.Errorf("description = %q", entry.Description)
	}

	if len(publisher.messages) != 1 {
		t.Fatalf("publisher got %d messages, want 1", len(publisher.messages))
	}
	msg := publisher.messages[0]
	if msg.CategoryKey != "kas" || msg.Sheet != "Kas" || msg.Amount != 15000 {
		t.Errorf("unexpected message: %+v", msg)
	}

	// The stale snapshot must be gone so the next switch refetches.
	if _, ok := svc.snapshots.Get("kas"); ok {
		t.Error("snapshot should be invalidated after submit")
	}
}

func TestSubmit_WriterFailureLeavesRecords(t *testing.T) {
	src := &fakeSource{rows: flatRows()}
	writer := &fakeWriter{err: errors.New("sheet Kas is locked")}
	publisher := &fakePublisher{}
	svc := NewPaymentService(newTestCatalog(), src, writer, publisher)
	svc.Refresh(context.Background())

	err := svc.Submit(context.Background(), source.Entry{Name: "Budi", Amount: 5000, Month: "Mei"})
	if err == nil {
		t.Fatal("Submit() should fail when the writer fails")
	}
	if !strings.Contains(err.Error(), "sheet Kas is locked") {
		t.Errorf("error %q should carry the writer detail", err)
	}
	if len(publisher.messages) != 0 {
		t.Error("no event should be published on failure")
	}
	if len(svc.Records()) != 2 {
		t.Error("working records must be unchanged on failure")
	}
}

func TestSubmit_ValidationRejectsBeforeWriter(t *testing.T) {
	writer := &fakeWriter{}
	svc := NewPaymentService(newTestCatalog(), &fakeSource{}, writer, nil)

	err := svc.Submit(context.Background(), source.Entry{Name: "", Amount: 5000})
	if !errors.Is(err, core.ErrEmptyName) {
		t.Errorf("err = %v, want ErrEmptyName", err)
	}
	if len(writer.entries) != 0 {
		t.Error("invalid entry must not reach the writer")
	}
}
