package reports

import (
	"bytes"
	"fmt"
	"strings"

	"wastetracker/internal/analytics"

	"github.com/xuri/excelize/v2"
)

const (
	SheetSummary    = "Summary"
	SheetTopItems   = "Top Items"
	SheetGrouped    = "Grouped"
	SheetTrend      = "Trend"
	SheetShare      = "Share Flags"
	SheetRecurrence = "Recurring Flags"
)

var outcomeMessages = map[analytics.Outcome]string{
	analytics.OutcomeInsufficientData:    "Not enough data to compute a trend.",
	analytics.OutcomeNoCurrentWeekData:   "No data for the current week.",
	analytics.OutcomeInsufficientHistory: "Need at least two weeks of data to compare.",
}

// OutcomeMessage is the text shown in place of a view that could not run.
func OutcomeMessage(o analytics.Outcome) string {
	if msg, ok := outcomeMessages[o]; ok {
		return msg
	}
	return string(o)
}

type sheetWriter struct {
	f    *excelize.File
	name string
	row  int
	bold int
	err  error
}

func (w *sheetWriter) header(cells ...any) {
	w.line(cells...)
	if w.err == nil {
		w.err = w.f.SetRowStyle(w.name, w.row, w.row, w.bold)
	}
}

func (w *sheetWriter) line(cells ...any) {
	if w.err != nil {
		return
	}
	w.row++
	cell, err := excelize.CoordinatesToCellName(1, w.row)
	if err != nil {
		w.err = err
		return
	}
	w.err = w.f.SetSheetRow(w.name, cell, &cells)
}

// WriteWorkbook renders a report as an XLSX workbook, one sheet per view.
func WriteWorkbook(r *Report) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}

	if err := f.SetSheetName("Sheet1", SheetSummary); err != nil {
		return nil, err
	}
	for _, name := range []string{SheetTopItems, SheetGrouped, SheetTrend, SheetShare, SheetRecurrence} {
		if _, err := f.NewSheet(name); err != nil {
			return nil, err
		}
	}

	sheets := []struct {
		name  string
		write func(*sheetWriter, *Report)
	}{
		{SheetSummary, writeSummary},
		{SheetTopItems, writeTopItems},
		{SheetGrouped, writeGrouped},
		{SheetTrend, writeTrend},
		{SheetShare, writeShare},
		{SheetRecurrence, writeRecurrence},
	}
	for _, s := range sheets {
		w := &sheetWriter{f: f, name: s.name, bold: bold}
		s.write(w, r)
		if w.err != nil {
			return nil, fmt.Errorf("sheet %s: %w", s.name, w.err)
		}
		if err := f.SetColWidth(s.name, "A", "G", 18); err != nil {
			return nil, err
		}
	}

	return f.WriteToBuffer()
}

func writeSummary(w *sheetWriter, r *Report) {
	cats := make([]string, len(r.Selection.Categories))
	for i, c := range r.Selection.Categories {
		cats[i] = string(c)
	}

	w.header("Field", "Value")
	w.line("Run ID", r.RunID)
	w.line("Generated at", r.GeneratedAt.UTC().Format("2006-01-02 15:04:05"))
	w.line("Categories", strings.Join(cats, ", "))
	w.line("Locations", strings.Join(r.Selection.Locations, ", "))
	w.line("Records", r.Records)
	w.line("Undated records", r.Undated)
	w.line("Total quantity (kg)", r.TotalQuantityKg)
	w.line("Total cost ($)", r.TotalCost.InexactFloat64())
}

func writeTopItems(w *sheetWriter, r *Report) {
	w.header("Rank", r.TopBy.String(), "Quantity (kg)")
	for i, row := range r.TopItems {
		w.line(i+1, row.Key, row.QuantityKg)
	}
}

func writeGrouped(w *sheetWriter, r *Report) {
	w.header("Category", "Reason", "Quantity (kg)", "Cost ($)", "Records")
	for _, row := range r.ByCategoryReason {
		w.line(string(row.Key.Category), row.Key.Reason, row.QuantityKg, row.Cost.InexactFloat64(), row.Records)
	}
}

func writeTrend(w *sheetWriter, r *Report) {
	if !r.Trend.Ready() {
		w.line(OutcomeMessage(r.Trend.Outcome))
		return
	}
	w.header("Week", string(r.Trend.Measure), "Moving average")
	for _, p := range r.Trend.Points {
		w.line(p.Week.String(), p.Value, p.MovingAverage)
	}
}

func writeShare(w *sheetWriter, r *Report) {
	if r.Share.Outcome != analytics.OutcomeOK {
		w.line(OutcomeMessage(r.Share.Outcome))
		return
	}
	w.header("Week", "Item", "Category", "Item (kg)", "Category (kg)", "Share (%)", "Recommendation")
	for _, fl := range r.Share.Flags {
		w.line(fl.Week.String(), fl.Item, string(fl.Category), fl.ItemKg, fl.CategoryKg, fl.SharePercent, fl.Recommendation)
	}
}

func writeRecurrence(w *sheetWriter, r *Report) {
	if r.Recurrence.Outcome != analytics.OutcomeOK {
		w.line(OutcomeMessage(r.Recurrence.Outcome))
		return
	}
	w.header("Item", "Previous week", "Current week", "Previous (kg)", "Current (kg)", "Recommendation")
	for _, fl := range r.Recurrence.Flags {
		w.line(fl.Item, fl.PreviousWeek.String(), fl.CurrentWeek.String(), fl.PreviousKg, fl.CurrentKg, fl.Recommendation)
	}
}
