package store

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"wastetracker/internal/models"

	"github.com/shopspring/decimal"
)

func TestReadCSVOriginalHeaders(t *testing.T) {
	in := "Item Name,Item Category,Quantity Wasted (kg),Reason,Date,Cost ($),Location\n" +
		"Milk,Organic,2.5,expired,2025-01-06,3.20,Kitchen\n" +
		",,,,,,\n" +
		"Bottle,Plastic,,,,,\n"

	raws, err := ReadCSV(strings.NewReader(in))
	if err != nil {
		t.Fatalf("ReadCSV failed: %v", err)
	}
	if len(raws) != 2 {
		t.Fatalf("got %d rows, want 2 (blank line skipped)", len(raws))
	}
	if raws[0].ItemName != "Milk" || raws[0].QuantityKg != "2.5" || raws[0].Cost != "3.20" || raws[0].Location != "Kitchen" {
		t.Errorf("row 1 = %+v", raws[0])
	}
	if raws[1].Date != "" || raws[1].QuantityKg != "" {
		t.Errorf("row 2 should carry empty optional fields: %+v", raws[1])
	}
}

func TestReadCSVAliasesAndOrder(t *testing.T) {
	in := "date,category,item_name,quantity_kg\n2025-01-06,Paper,Box,4\n"

	raws, err := ReadCSV(strings.NewReader(in))
	if err != nil {
		t.Fatalf("ReadCSV failed: %v", err)
	}
	if len(raws) != 1 || raws[0].ItemName != "Box" || raws[0].Category != "Paper" || raws[0].Date != "2025-01-06" {
		t.Errorf("raws = %+v", raws)
	}
}

func TestReadCSVMissingColumn(t *testing.T) {
	_, err := ReadCSV(strings.NewReader("Item Name,Reason\nMilk,expired\n"))
	if !errors.Is(err, ErrMissingColumn) {
		t.Errorf("error = %v, want ErrMissingColumn", err)
	}
}

func TestReadCSVEmptyInput(t *testing.T) {
	raws, err := ReadCSV(strings.NewReader(""))
	if err != nil || len(raws) != 0 {
		t.Errorf("ReadCSV(\"\") = %v, %v", raws, err)
	}
}

func TestWriteCSVReadsBack(t *testing.T) {
	entries := []models.WasteEntry{
		{ItemName: "Milk", Category: "Organic", QuantityKg: 2.5, Reason: "expired, sour", Date: day(2025, 1, 6), Cost: decimal.RequireFromString("3.2"), Location: "Kitchen"},
		{ItemName: "Can", Category: "Metal", QuantityKg: 1, Cost: decimal.Zero},
	}

	var buf bytes.Buffer
	if err := WriteCSV(&buf, entries); err != nil {
		t.Fatalf("WriteCSV failed: %v", err)
	}
	if !strings.HasPrefix(buf.String(), strings.Join(CSVHeader, ",")+"\n") {
		t.Errorf("unexpected header line: %q", buf.String())
	}

	raws, err := ReadCSV(&buf)
	if err != nil {
		t.Fatalf("ReadCSV failed: %v", err)
	}
	if len(raws) != 2 {
		t.Fatalf("got %d rows back", len(raws))
	}
	if raws[0].Reason != "expired, sour" || raws[0].Cost != "3.20" || raws[0].Date != "2025-01-06" {
		t.Errorf("row 1 = %+v", raws[0])
	}
	if raws[1].Date != "" {
		t.Errorf("undated entry exported a date: %q", raws[1].Date)
	}
}
