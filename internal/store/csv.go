package store

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"wastetracker/internal/analytics"
	"wastetracker/internal/models"
)

// CSVHeader is the column set written on export and expected on import.
var CSVHeader = []string{
	"Item Name",
	"Item Category",
	"Quantity Wasted (kg)",
	"Reason",
	"Date",
	"Cost ($)",
	"Location",
}

var ErrMissingColumn = errors.New("missing required column")

type csvField int

const (
	colItem csvField = iota
	colCategory
	colQuantity
	colReason
	colDate
	colCost
	colLocation
)

// header aliases, compared lower-cased
var csvAliases = map[string]csvField{
	"item name":            colItem,
	"item_name":            colItem,
	"item":                 colItem,
	"item category":        colCategory,
	"category":             colCategory,
	"quantity wasted (kg)": colQuantity,
	"quantity_kg":          colQuantity,
	"quantity":             colQuantity,
	"reason":               colReason,
	"date":                 colDate,
	"cost ($)":             colCost,
	"cost":                 colCost,
	"location":             colLocation,
}

// columns maps a header row onto record fields.
type columns map[csvField]int

// mapHeader matches columns by name in any order. Item Name and Item Category
// are required; the rest default to empty.
func mapHeader(header []string) (columns, error) {
	cols := make(columns, len(csvAliases))
	for i, name := range header {
		key := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))
		if f, ok := csvAliases[key]; ok {
			if _, seen := cols[f]; !seen {
				cols[f] = i
			}
		}
	}
	for _, f := range []csvField{colItem, colCategory} {
		if _, ok := cols[f]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, CSVHeader[f])
		}
	}
	return cols, nil
}

func (cols columns) get(row []string, f csvField) string {
	i, ok := cols[f]
	if !ok || i >= len(row) {
		return ""
	}
	return row[i]
}

func (cols columns) raw(row []string) analytics.RawRecord {
	return analytics.RawRecord{
		ItemName:   cols.get(row, colItem),
		Category:   cols.get(row, colCategory),
		QuantityKg: cols.get(row, colQuantity),
		Reason:     cols.get(row, colReason),
		Date:       cols.get(row, colDate),
		Cost:       cols.get(row, colCost),
		Location:   cols.get(row, colLocation),
	}
}

// ReadCSV decodes a log export. Blank lines are skipped.
func ReadCSV(r io.Reader) ([]analytics.RawRecord, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return []analytics.RawRecord{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	cols, err := mapHeader(header)
	if err != nil {
		return nil, err
	}

	raws := make([]analytics.RawRecord, 0)
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv row %d: %w", len(raws)+1, err)
		}
		if blankRow(row) {
			continue
		}
		raws = append(raws, cols.raw(row))
	}
	return raws, nil
}

// WriteCSV encodes entries under CSVHeader. Undated entries get an empty Date cell.
func WriteCSV(w io.Writer, entries []models.WasteEntry) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return err
	}
	for _, e := range entries {
		date := ""
		if e.Date != nil {
			date = e.Date.Format(analytics.DateLayout)
		}
		row := []string{
			e.ItemName,
			e.Category,
			strconv.FormatFloat(e.QuantityKg, 'f', -1, 64),
			e.Reason,
			date,
			e.Cost.StringFixed(2),
			e.Location,
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func blankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
