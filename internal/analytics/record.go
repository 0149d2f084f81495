package analytics

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Category of a discarded item. Values outside the known set are kept as opaque labels.
type Category string

const (
	CategoryPlastic Category = "Plastic"
	CategoryPaper   Category = "Paper"
	CategoryMetal   Category = "Metal"
	CategoryGlass   Category = "Glass"
	CategoryOrganic Category = "Organic"
	CategoryOther   Category = "Other"
)

// Categories lists the known categories in form order.
var Categories = []Category{
	CategoryPlastic,
	CategoryPaper,
	CategoryMetal,
	CategoryGlass,
	CategoryOrganic,
	CategoryOther,
}

// Known reports whether c is one of the fixed categories.
func (c Category) Known() bool {
	for _, k := range Categories {
		if c == k {
			return true
		}
	}
	return false
}

// DateLayout is the canonical date-only layout used across the log.
const DateLayout = "2006-01-02"

var dateLayouts = []string{
	DateLayout,
	"2006-01-02 15:04:05",
	time.RFC3339,
	"2006/01/02",
	"01/02/2006",
}

var (
	ErrNegativeQuantity = errors.New("quantity must not be negative")
	ErrNegativeCost     = errors.New("cost must not be negative")
)

// RawRecord is a log row as handed over by storage: every field is text and may be empty.
type RawRecord struct {
	ItemName   string `json:"item_name"`
	Category   string `json:"category"`
	QuantityKg string `json:"quantity_kg"`
	Reason     string `json:"reason"`
	Date       string `json:"date"`
	Cost       string `json:"cost"`
	Location   string `json:"location"`
}

// Record is one normalized waste event. A zero Date means the raw date was
// missing or unparsable; such records stay out of every week-keyed view.
type Record struct {
	ItemName   string
	Category   Category
	QuantityKg float64
	Reason     string
	Date       time.Time
	Cost       decimal.Decimal
	Location   string
}

// Dated reports whether the record carries a valid date.
func (r Record) Dated() bool {
	return !r.Date.IsZero()
}

// Quantity returns QuantityKg as an exact decimal, so sums of values such as
// 0.1 and 0.2 compare equal to 0.3.
func (r Record) Quantity() decimal.Decimal {
	return decimal.NewFromFloat(r.QuantityKg)
}

// Week returns the bucket of a dated record.
func (r Record) Week() (Week, bool) {
	if !r.Dated() {
		return Week{}, false
	}
	return WeekOf(r.Date), true
}

// FieldError ties a validation failure to a row and field.
type FieldError struct {
	Row   int
	Field string
	Err   error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("row %d: %s: %v", e.Row, e.Field, e.Err)
}

func (e *FieldError) Unwrap() error { return e.Err }

// ValidationError collects the per-row failures of a batch.
type ValidationError struct {
	Fields []*FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Error())
	}
	return "invalid records: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() []error {
	errs := make([]error, 0, len(e.Fields))
	for _, f := range e.Fields {
		errs = append(errs, f)
	}
	return errs
}

// Normalize coerces a raw row into a Record. Unparsable numbers become zero and an
// unparsable date leaves Date zero; negative amounts are rejected, never clamped.
func Normalize(raw RawRecord) (Record, error) {
	rec := Record{
		ItemName: strings.TrimSpace(raw.ItemName),
		Category: Category(strings.TrimSpace(raw.Category)),
		Reason:   strings.TrimSpace(raw.Reason),
		Location: strings.TrimSpace(raw.Location),
		Date:     ParseDate(raw.Date),
	}

	rec.QuantityKg = parseQuantity(raw.QuantityKg)
	if rec.QuantityKg < 0 {
		return Record{}, &FieldError{Field: "quantity_kg", Err: ErrNegativeQuantity}
	}

	rec.Cost = parseCost(raw.Cost)
	if rec.Cost.IsNegative() {
		return Record{}, &FieldError{Field: "cost", Err: ErrNegativeCost}
	}

	return rec, nil
}

// NormalizeAll normalizes a batch. Rows violating the record contract are left out of
// the result and reported together in a *ValidationError; row numbers are 1-based.
func NormalizeAll(raws []RawRecord) ([]Record, error) {
	records := make([]Record, 0, len(raws))
	var verr ValidationError
	for i, raw := range raws {
		rec, err := Normalize(raw)
		if err != nil {
			var fe *FieldError
			if errors.As(err, &fe) {
				fe.Row = i + 1
				verr.Fields = append(verr.Fields, fe)
				continue
			}
			return nil, err
		}
		records = append(records, rec)
	}
	if len(verr.Fields) > 0 {
		return records, &verr
	}
	return records, nil
}

// ParseDate parses a calendar date and truncates it to midnight UTC.
// It returns the zero time when s is empty or matches no known layout.
func ParseDate(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return DateOnly(t)
		}
	}
	return time.Time{}
}

// DateOnly drops the time of day, keeping the calendar date as seen in t's location.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func parseQuantity(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

func parseCost(s string) decimal.Decimal {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "$")
	s = strings.ReplaceAll(s, ",", "")
	if s == "" {
		return decimal.Zero
	}
	v, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return v
}
