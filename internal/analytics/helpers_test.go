package analytics

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

// week1 is a Monday.
var week1 = time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC)

func weekDay(week, day int) time.Time {
	return week1.AddDate(0, 0, (week-1)*7+day)
}

func rec(item string, cat Category, qty float64, date time.Time) Record {
	return Record{ItemName: item, Category: cat, QuantityKg: qty, Date: date, Cost: decimal.Zero, Location: "Kitchen"}
}

func assertFloat(t *testing.T, got, want float64, label string) {
	t.Helper()
	if got != want {
		t.Errorf("%s: got %v, want %v", label, got, want)
	}
}
