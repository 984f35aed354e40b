package core

import (
	"sort"
	"strconv"
	"strings"
	"time"
)

// MonthAll is the month criteria sentinel matching every record.
const MonthAll = "ALL"

// Criteria selects a subset of a record collection. All three predicates
// are conjunctive. Zero-value fields (or the ALL sentinels) match
// everything, so the zero Criteria is a passthrough.
type Criteria struct {
	// Query is matched case-insensitively as a substring of name,
	// person id, month, and category label.
	Query string
	// Status is one of the record statuses, or ALL/empty.
	Status Status
	// Month is "ALL"/empty or a numeric month "1".."12".
	Month string
}

// Filter returns the records matching the criteria, preserving input order.
func Filter(records []PaymentRecord, c Criteria) []PaymentRecord {
	query := strings.ToLower(strings.TrimSpace(c.Query))
	status := c.Status
	if status == "" {
		status = StatusAll
	}
	month := 0
	if c.Month != "" && c.Month != MonthAll {
		// Non-numeric month criteria match nothing rather than failing.
		month, _ = strconv.Atoi(c.Month)
		if month == 0 {
			return []PaymentRecord{}
		}
	}

	out := make([]PaymentRecord, 0, len(records))
	for _, r := range records {
		if query != "" && !matchesQuery(r, query) {
			continue
		}
		if status != StatusAll && r.Status != status {
			continue
		}
		if month != 0 && r.MonthNumber != month {
			continue
		}
		out = append(out, r)
	}
	return out
}

func matchesQuery(r PaymentRecord, query string) bool {
	for _, text := range []string{r.Name, r.PersonID, r.Month, r.CategoryLabel} {
		if strings.Contains(strings.ToLower(text), query) {
			return true
		}
	}
	return false
}

// Summarize reduces a collection to its aggregate totals: paid sum, due
// sum, and counts by paid vs. not-paid status. Order-independent and safe
// on empty input.
func Summarize(records []PaymentRecord) Summary {
	var s Summary
	for _, r := range records {
		s.TotalPaid += r.PaidAmount
		s.TotalDue += r.Remaining
		if r.Status == StatusPaid {
			s.CountPaid++
		} else {
			s.CountDue++
		}
	}
	return s
}

// MostRecent returns up to limit records ordered by UpdatedAt descending.
// Records without a usable timestamp sort as "now", putting them in front
// instead of breaking the ordering. The input is not modified.
func MostRecent(records []PaymentRecord, limit int) []PaymentRecord {
	if limit <= 0 {
		return []PaymentRecord{}
	}
	now := time.Now()
	sorted := make([]PaymentRecord, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool {
		return orderKey(sorted[i], now).After(orderKey(sorted[j], now))
	})
	if limit > len(sorted) {
		limit = len(sorted)
	}
	return sorted[:limit]
}

func orderKey(r PaymentRecord, now time.Time) time.Time {
	if r.UpdatedAt.IsZero() {
		return now
	}
	return r.UpdatedAt
}
