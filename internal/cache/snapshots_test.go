package cache

import (
	"testing"
	"time"

	"iuran/internal/core"
)

func snap(key string, n int) Snapshot {
	records := make([]core.PaymentRecord, n)
	for i := range records {
		records[i] = core.PaymentRecord{ID: key, CategoryKey: key}
	}
	return Snapshot{CategoryKey: key, Records: records, FetchedAt: time.Now()}
}

func TestSnapshotsGetPut(t *testing.T) {
	c := NewSnapshots(4, time.Minute)

	if _, ok := c.Get("kas"); ok {
		t.Fatal("empty cache returned a snapshot")
	}
	c.Put(snap("kas", 3))
	got, ok := c.Get("kas")
	if !ok || len(got.Records) != 3 {
		t.Fatalf("got %v records, ok=%v", len(got.Records), ok)
	}
}

func TestSnapshotsSkipsDegraded(t *testing.T) {
	c := NewSnapshots(4, time.Minute)
	s := snap("kas", 1)
	s.Degraded = true
	c.Put(s)
	if _, ok := c.Get("kas"); ok {
		t.Fatal("degraded snapshot was cached")
	}
}

func TestSnapshotsTTL(t *testing.T) {
	c := NewSnapshots(4, 10*time.Millisecond)
	c.Put(snap("kas", 1))
	time.Sleep(20 * time.Millisecond)
	if _, ok := c.Get("kas"); ok {
		t.Fatal("expired snapshot served")
	}
	if c.Size() != 0 {
		t.Fatalf("size = %d after expiry read", c.Size())
	}
}

func TestSnapshotsEviction(t *testing.T) {
	c := NewSnapshots(2, time.Minute)
	c.Put(snap("a", 1))
	c.Put(snap("b", 1))
	c.Get("a") // a is now most recently used
	c.Put(snap("c", 1))

	if _, ok := c.Get("b"); ok {
		t.Fatal("least recently used entry survived eviction")
	}
	if _, ok := c.Get("a"); !ok {
		t.Fatal("recently used entry evicted")
	}
}

func TestSnapshotsInvalidate(t *testing.T) {
	c := NewSnapshots(4, time.Minute)
	c.Put(snap("kas", 1))
	c.Invalidate("kas")
	if _, ok := c.Get("kas"); ok {
		t.Fatal("invalidated snapshot served")
	}
}

func TestSnapshotsCleanExpired(t *testing.T) {
	c := NewSnapshots(4, 5*time.Millisecond)
	c.Put(snap("a", 1))
	c.Put(snap("b", 1))
	time.Sleep(10 * time.Millisecond)
	if removed := c.CleanExpired(); removed != 2 {
		t.Fatalf("removed %d, want 2", removed)
	}
}
