package store

import (
	"errors"
	"fmt"
	"io"

	"wastetracker/internal/analytics"

	"github.com/xuri/excelize/v2"
)

var ErrNoSheet = errors.New("workbook has no sheets")

// ReadXLSX decodes the first sheet of a workbook laid out like the CSV export.
func ReadXLSX(r io.Reader) ([]analytics.RawRecord, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrNoSheet
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheets[0], err)
	}
	if len(rows) == 0 {
		return []analytics.RawRecord{}, nil
	}

	cols, err := mapHeader(rows[0])
	if err != nil {
		return nil, err
	}
	raws := make([]analytics.RawRecord, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if blankRow(row) {
			continue
		}
		raws = append(raws, cols.raw(row))
	}
	return raws, nil
}
