package core

import (
	"errors"
	"time"
)

// Status is the derived payment state of a single record. The values are
// stable identifiers and safe to persist in filter state or URLs.
type Status string

const (
	StatusPaid     Status = "PAID"
	StatusPartial  Status = "PARTIAL"
	StatusUnpaid   Status = "UNPAID"
	StatusRecorded Status = "RECORDED_NO_TARGET"

	// StatusAll is a filter sentinel, never set on a record.
	StatusAll Status = "ALL"
)

type (
	// Category is a named payment program (dues type) backed by one sheet
	// tab. The configured set is loaded once at startup and never mutated.
	Category struct {
		Key           string  `json:"key"`
		Label         string  `json:"label"`
		Sheet         string  `json:"sheet"`
		MonthlyTarget float64 `json:"monthlyTarget"`
	}

	// RawRow is one untyped row from a source feed. Values are strings,
	// numbers, or absent; the shape is not known in advance.
	RawRow map[string]any

	// PaymentRecord is the normalized canonical payment unit. Records are
	// produced fresh on every normalization pass; the working collection is
	// replaced wholesale, never patched.
	PaymentRecord struct {
		ID            string    `json:"id"`
		Name          string    `json:"name"`
		PersonID      string    `json:"personId"`
		Month         string    `json:"month"`
		MonthNumber   int       `json:"monthNumber,omitempty"`
		Description   string    `json:"description"`
		CategoryKey   string    `json:"categoryKey"`
		CategoryLabel string    `json:"categoryLabel"`
		PaidAmount    float64   `json:"paidAmount"`
		TargetAmount  float64   `json:"targetAmount"`
		Remaining     float64   `json:"remainingAmount"`
		Status        Status    `json:"status"`
		UpdatedAt     time.Time `json:"updatedAt"`
	}

	// Summary holds the aggregate totals over a record collection.
	Summary struct {
		TotalPaid float64 `json:"totalPaid"`
		TotalDue  float64 `json:"totalDue"`
		CountPaid int     `json:"countPaid"`
		CountDue  int     `json:"countDue"`
	}
)

var (
	ErrInvalidAmount = errors.New("invalid amount")
	ErrInvalidMonth  = errors.New("invalid month")
	ErrEmptyName     = errors.New("empty name")
)

// monthOrder lists the recognized month-bucket column names in calendar
// order. Wide rows carry one paid amount per bucket column.
var monthOrder = []string{
	"Januari", "Februari", "Maret", "April", "Mei", "Juni",
	"Juli", "Agustus", "September", "Oktober", "November", "Desember",
}

var monthNumbers = func() map[string]int {
	m := make(map[string]int, len(monthOrder))
	for i, name := range monthOrder {
		m[name] = i + 1
	}
	return m
}()

// MonthOrder returns the recognized bucket names in calendar order.
func MonthOrder() []string {
	out := make([]string, len(monthOrder))
	copy(out, monthOrder)
	return out
}

// MonthNumber maps a bucket name to its 1-12 index. Returns 0 when the
// name is not a recognized bucket.
func MonthNumber(name string) int {
	return monthNumbers[name]
}

// MonthName maps a 1-12 index to its bucket name, or "" when out of range.
func MonthName(n int) string {
	if n < 1 || n > len(monthOrder) {
		return ""
	}
	return monthOrder[n-1]
}

// IsValid reports whether s is one of the four record statuses.
func (s Status) IsValid() bool {
	switch s {
	case StatusPaid, StatusPartial, StatusUnpaid, StatusRecorded:
		return true
	default:
		return false
	}
}

// DeriveStatus computes the payment status from paid vs. target. Status is
// a pure function of the two amounts and is never set independently.
func DeriveStatus(paid, target float64) Status {
	if target > 0 {
		switch {
		case paid >= target:
			return StatusPaid
		case paid > 0:
			return StatusPartial
		default:
			return StatusUnpaid
		}
	}
	if paid > 0 {
		return StatusRecorded
	}
	return StatusUnpaid
}

// RemainingAmount computes max(target-paid, 0) when a target is set, else 0.
func RemainingAmount(paid, target float64) float64 {
	if target <= 0 {
		return 0
	}
	if rem := target - paid; rem > 0 {
		return rem
	}
	return 0
}

func (c Category) Validate() error {
	if c.Key == "" {
		return errors.New("empty category key")
	}
	if c.MonthlyTarget < 0 {
		return ErrInvalidAmount
	}
	return nil
}
