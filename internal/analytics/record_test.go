package analytics

import (
	"errors"
	"testing"
	"time"
)

func TestNormalizeCoercesFields(t *testing.T) {
	rec, err := Normalize(RawRecord{
		ItemName:   "  Milk ",
		Category:   " Organic",
		QuantityKg: " 2.5 ",
		Reason:     "expired ",
		Date:       "2025-01-08",
		Cost:       "$1,204.50",
		Location:   " Kitchen ",
	})
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}

	if rec.ItemName != "Milk" || rec.Category != CategoryOrganic || rec.Reason != "expired" || rec.Location != "Kitchen" {
		t.Errorf("text fields not trimmed: %+v", rec)
	}
	if rec.QuantityKg != 2.5 {
		t.Errorf("QuantityKg = %v, want 2.5", rec.QuantityKg)
	}
	if rec.Cost.String() != "1204.5" {
		t.Errorf("Cost = %s, want 1204.5", rec.Cost)
	}
	want := time.Date(2025, 1, 8, 0, 0, 0, 0, time.UTC)
	if !rec.Date.Equal(want) {
		t.Errorf("Date = %v, want %v", rec.Date, want)
	}
}

func TestNormalizeDefaultsInvalidNumbers(t *testing.T) {
	cases := []RawRecord{
		{ItemName: "Bread"},
		{ItemName: "Bread", QuantityKg: "a lot", Cost: "free"},
		{ItemName: "Bread", QuantityKg: "NaN", Cost: ""},
	}
	for _, raw := range cases {
		rec, err := Normalize(raw)
		if err != nil {
			t.Fatalf("Normalize(%+v) failed: %v", raw, err)
		}
		if rec.QuantityKg != 0 {
			t.Errorf("Normalize(%+v).QuantityKg = %v, want 0", raw, rec.QuantityKg)
		}
		if !rec.Cost.IsZero() {
			t.Errorf("Normalize(%+v).Cost = %s, want 0", raw, rec.Cost)
		}
	}
}

func TestNormalizeInvalidDateKeepsRecord(t *testing.T) {
	rec, err := Normalize(RawRecord{ItemName: "Cans", Category: "Metal", QuantityKg: "3", Date: "last tuesday"})
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}
	if rec.Dated() {
		t.Errorf("record with unparsable date should be undated, got %v", rec.Date)
	}
	if _, ok := rec.Week(); ok {
		t.Error("undated record must not have a week")
	}
	if rec.QuantityKg != 3 {
		t.Errorf("QuantityKg = %v, want 3", rec.QuantityKg)
	}
}

func TestNormalizeDropsTimeOfDay(t *testing.T) {
	rec, err := Normalize(RawRecord{Date: "2025-01-08 17:45:00"})
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}
	if rec.Date.Hour() != 0 || rec.Date.Minute() != 0 || rec.Date.Day() != 8 {
		t.Errorf("Date = %v, want midnight of the 8th", rec.Date)
	}
}

func TestNormalizeKeepsUnknownCategoryAndEmptyName(t *testing.T) {
	rec, err := Normalize(RawRecord{ItemName: "   ", Category: "Textile", QuantityKg: "1"})
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}
	if rec.ItemName != "" {
		t.Errorf("ItemName = %q, want empty", rec.ItemName)
	}
	if rec.Category != "Textile" || rec.Category.Known() {
		t.Errorf("Category = %q, want opaque unknown label", rec.Category)
	}
}

func TestNormalizeRejectsNegatives(t *testing.T) {
	if _, err := Normalize(RawRecord{QuantityKg: "-1"}); !errors.Is(err, ErrNegativeQuantity) {
		t.Errorf("negative quantity: err = %v, want ErrNegativeQuantity", err)
	}
	if _, err := Normalize(RawRecord{Cost: "-0.01"}); !errors.Is(err, ErrNegativeCost) {
		t.Errorf("negative cost: err = %v, want ErrNegativeCost", err)
	}
}

func TestNormalizeAllReportsRows(t *testing.T) {
	raws := []RawRecord{
		{ItemName: "A", QuantityKg: "1"},
		{ItemName: "B", QuantityKg: "-2"},
		{ItemName: "C", QuantityKg: "3"},
		{ItemName: "D", Cost: "-4"},
	}
	records, err := NormalizeAll(raws)
	if len(records) != 2 {
		t.Fatalf("len(records) = %d, want 2", len(records))
	}

	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("err = %v, want *ValidationError", err)
	}
	if len(verr.Fields) != 2 || verr.Fields[0].Row != 2 || verr.Fields[1].Row != 4 {
		t.Errorf("unexpected field errors: %v", verr)
	}
	if !errors.Is(err, ErrNegativeQuantity) || !errors.Is(err, ErrNegativeCost) {
		t.Errorf("errors.Is should see both causes through %v", err)
	}
}

func TestNormalizeAllEmpty(t *testing.T) {
	records, err := NormalizeAll(nil)
	if err != nil {
		t.Fatalf("NormalizeAll(nil) failed: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("len(records) = %d, want 0", len(records))
	}
}
