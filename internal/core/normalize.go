package core

import (
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// RowShape classifies a raw row before normalization.
type RowShape int

const (
	// ShapeFlat rows carry a single amount, optionally tagged with a month.
	ShapeFlat RowShape = iota
	// ShapeWide rows carry one paid amount per month-bucket column.
	ShapeWide
)

// defaultTargetFields is the candidate priority list scanned when resolving
// a row's target amount. Sheets name this column inconsistently, so the
// list is configurable on the Normalizer.
var defaultTargetFields = []string{
	"Target", "Nominal", "Jumlah", "Tarif", "Amount", "Standar",
	"target", "targetAmount",
}

// flatAmountFields are the aliases tried, in order, for the paid amount of
// a flat row.
var flatAmountFields = []string{"amount", "nominal", "jumlah", "Nominal", "Jumlah"}

// timestampFields are the aliases tried for a row's last-update timestamp.
var timestampFields = []string{"updatedAt", "Timestamp", "timestamp", "lastUpdate"}

// IDSource supplies unique identifiers for flat rows that carry none.
type IDSource interface {
	NewID() string
}

// UUIDSource generates RFC 4122 identifiers.
type UUIDSource struct{}

func (UUIDSource) NewID() string { return uuid.NewString() }

// Normalizer converts heterogeneous raw rows into uniform payment records.
// It is pure apart from the current-time fallback (injectable via Now) and
// the identifier source.
type Normalizer struct {
	// TargetFields overrides the candidate list for target resolution.
	TargetFields []string
	// IDs supplies ids for flat rows without one. Defaults to UUIDSource.
	IDs IDSource
	// Now supplies the normalization instant. Defaults to time.Now.
	Now func() time.Time
}

func (n *Normalizer) now() time.Time {
	if n.Now != nil {
		return n.Now()
	}
	return time.Now()
}

func (n *Normalizer) newID() string {
	if n.IDs != nil {
		return n.IDs.NewID()
	}
	return UUIDSource{}.NewID()
}

func (n *Normalizer) targetFields() []string {
	if len(n.TargetFields) > 0 {
		return n.TargetFields
	}
	return defaultTargetFields
}

// Classify decides the shape of a raw row: wide when any recognized
// month-bucket column is present, flat otherwise.
func Classify(row RawRow) RowShape {
	for _, name := range monthOrder {
		if _, ok := row[name]; ok {
			return ShapeWide
		}
	}
	return ShapeFlat
}

// Normalize converts raw rows into payment records under the given
// category. Wide rows expand into one record per present bucket; flat rows
// map to exactly one record. Unrecognized or missing fields degrade to
// defaults; Normalize never fails.
func (n *Normalizer) Normalize(rows []RawRow, category Category) []PaymentRecord {
	records := make([]PaymentRecord, 0, len(rows))
	for _, row := range rows {
		if Classify(row) == ShapeWide {
			records = append(records, n.expandWideRow(row, category)...)
		} else {
			records = append(records, n.normalizeFlatRow(row, category))
		}
	}
	return records
}

// resolveTarget scans the candidate fields in priority order and takes the
// first value that parses to a positive amount, falling back to the
// category's monthly target.
func (n *Normalizer) resolveTarget(row RawRow, category Category) float64 {
	for _, field := range n.targetFields() {
		v, ok := row[field]
		if !ok {
			continue
		}
		if parsed := ParseAmount(v); parsed > 0 {
			return parsed
		}
	}
	if category.MonthlyTarget > 0 {
		return category.MonthlyTarget
	}
	return 0
}

func (n *Normalizer) expandWideRow(row RawRow, category Category) []PaymentRecord {
	name := stringField(row, "Nama", "name", "nama")
	if name == "" {
		name = "-"
	}
	personID := stringField(row, "NPM", "npm", "id")
	baseDescription := stringField(row, "Deskripsi", "description")
	if baseDescription == "" {
		baseDescription = category.Label + " bulanan"
	}
	target := n.resolveTarget(row, category)
	updatedAt := n.rowTimestamp(row)

	var out []PaymentRecord
	for _, month := range monthOrder {
		raw, ok := row[month]
		if !ok {
			continue
		}
		paid := ParseAmount(raw)
		out = append(out, PaymentRecord{
			ID:            wideRecordID(personID, name, month, category.Key),
			Name:          name,
			PersonID:      personID,
			Month:         month,
			MonthNumber:   monthNumbers[month],
			Description:   strings.TrimSpace(baseDescription + " " + month),
			CategoryKey:   category.Key,
			CategoryLabel: category.Label,
			PaidAmount:    paid,
			TargetAmount:  target,
			Remaining:     RemainingAmount(paid, target),
			Status:        DeriveStatus(paid, target),
			UpdatedAt:     updatedAt,
		})
	}
	return out
}

func (n *Normalizer) normalizeFlatRow(row RawRow, category Category) PaymentRecord {
	var paid float64
	for _, field := range flatAmountFields {
		if v, ok := row[field]; ok {
			if parsed := ParseAmount(v); parsed != 0 {
				paid = parsed
				break
			}
		}
	}
	target := n.resolveTarget(row, category)

	id := stringField(row, "id")
	if id == "" {
		id = n.newID()
	}
	name := stringField(row, "name", "Nama", "nama")
	if name == "" {
		name = "-"
	}
	month := stringField(row, "month", "Bulan", "bulan")
	monthNumber := 0
	if v, ok := row["monthNumber"]; ok {
		monthNumber = int(ParseAmount(v))
	}
	if monthNumber == 0 && month != "" {
		monthNumber = monthNumbers[month]
	}
	description := stringField(row, "description", "Deskripsi")
	if description == "" {
		description = category.Label + " bulanan"
	}

	return PaymentRecord{
		ID:            id,
		Name:          name,
		PersonID:      stringField(row, "npm", "NPM"),
		Month:         month,
		MonthNumber:   monthNumber,
		Description:   description,
		CategoryKey:   category.Key,
		CategoryLabel: category.Label,
		PaidAmount:    paid,
		TargetAmount:  target,
		Remaining:     RemainingAmount(paid, target),
		Status:        DeriveStatus(paid, target),
		UpdatedAt:     n.rowTimestamp(row),
	}
}

// rowTimestamp reads the first recognized timestamp field. Missing or
// unparseable values fall back to the normalization instant, so stale rows
// never break ordering downstream.
func (n *Normalizer) rowTimestamp(row RawRow) time.Time {
	for _, field := range timestampFields {
		v, ok := row[field]
		if !ok {
			continue
		}
		s := strings.TrimSpace(toString(v))
		if s == "" {
			continue
		}
		for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"} {
			if t, err := time.Parse(layout, s); err == nil {
				return t
			}
		}
	}
	return n.now()
}

// wideRecordID derives a stable identifier from the person, bucket, and
// category so repeated normalization of the same data yields the same ids.
func wideRecordID(personID, name, month, categoryKey string) string {
	base := personID
	if base == "" {
		base = name
	}
	id := base + "-" + month + "-" + categoryKey
	return strings.Join(strings.Fields(id), "_")
}

func stringField(row RawRow, fields ...string) string {
	for _, f := range fields {
		if v, ok := row[f]; ok {
			if s := strings.TrimSpace(toString(v)); s != "" {
				return s
			}
		}
	}
	return ""
}

func toString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	default:
		return ""
	}
}
