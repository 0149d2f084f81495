package reports

import (
	"context"
	"testing"

	"wastetracker/internal/analytics"

	"github.com/xuri/excelize/v2"
)

func TestWriteWorkbookSheets(t *testing.T) {
	r, err := NewService(seededLog(t)).Build(context.Background(), Query{})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	buf, err := WriteWorkbook(r)
	if err != nil {
		t.Fatalf("WriteWorkbook failed: %v", err)
	}

	f, err := excelize.OpenReader(buf)
	if err != nil {
		t.Fatalf("OpenReader failed: %v", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	want := []string{SheetSummary, SheetTopItems, SheetGrouped, SheetTrend, SheetShare, SheetRecurrence}
	if len(sheets) != len(want) {
		t.Fatalf("sheets = %v", sheets)
	}
	for i, name := range want {
		if sheets[i] != name {
			t.Errorf("sheet %d = %q, want %q", i, sheets[i], name)
		}
	}

	if id, _ := f.GetCellValue(SheetSummary, "B2"); id != r.RunID {
		t.Errorf("summary run id = %q, want %q", id, r.RunID)
	}
	if item, _ := f.GetCellValue(SheetTopItems, "B2"); item != "Milk" {
		t.Errorf("top item = %q, want Milk", item)
	}
	rows, _ := f.GetRows(SheetRecurrence)
	if len(rows) != 3 {
		t.Errorf("recurring flags sheet has %d rows, want header + 2", len(rows))
	}
}

func TestWriteWorkbookOutcomeMessages(t *testing.T) {
	r, err := NewService(seededLog(t)).Build(context.Background(), Query{Locations: []string{}})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	buf, err := WriteWorkbook(r)
	if err != nil {
		t.Fatalf("WriteWorkbook failed: %v", err)
	}
	f, err := excelize.OpenReader(buf)
	if err != nil {
		t.Fatalf("OpenReader failed: %v", err)
	}
	defer f.Close()

	cases := map[string]analytics.Outcome{
		SheetTrend:      analytics.OutcomeInsufficientData,
		SheetShare:      analytics.OutcomeNoCurrentWeekData,
		SheetRecurrence: analytics.OutcomeInsufficientHistory,
	}
	for sheet, outcome := range cases {
		if got, _ := f.GetCellValue(sheet, "A1"); got != OutcomeMessage(outcome) {
			t.Errorf("%s A1 = %q, want %q", sheet, got, OutcomeMessage(outcome))
		}
	}
}
