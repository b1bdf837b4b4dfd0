package export

import (
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/i474232898/bike-sharing-dashboard/internal/table"
)

// SheetName is the worksheet the merged table is written to.
const SheetName = "all_data"

// WriteXLSX writes t to a single-sheet workbook at path: a header row, then
// one row per table row. Dates are written as YYYY-MM-DD text.
func WriteXLSX(path string, t *table.Table) (err error) {
	f := excelize.NewFile()
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	if err := f.SetSheetName(f.GetSheetName(0), SheetName); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}
	sw, err := f.NewStreamWriter(SheetName)
	if err != nil {
		return fmt.Errorf("failed to open sheet writer: %w", err)
	}

	names := t.Names()
	header := make([]interface{}, len(names))
	for i, n := range names {
		header[i] = n
	}
	if err := sw.SetRow("A1", header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	cells := make([]interface{}, len(names))
	for i := 0; i < t.Len(); i++ {
		for j, v := range t.Row(i) {
			cells[j] = xlsxValue(v)
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := sw.SetRow(cell, cells); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}

	if err := sw.Flush(); err != nil {
		return fmt.Errorf("failed to flush sheet: %w", err)
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}
	return nil
}

func xlsxValue(v any) interface{} {
	if d, ok := v.(time.Time); ok {
		return d.Format(table.DateLayout)
	}
	return v
}
