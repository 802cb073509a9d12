package report

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

// DefaultPath is the report file written when none is configured
const DefaultPath = "pd.xlsx"

// DefaultSheet is the single sheet of the workbook
const DefaultSheet = "Sheet1"

// XLSXWriter writes records into a single-sheet workbook, starting at A1
type XLSXWriter struct {
	Path  string
	Sheet string
}

// NewXLSXWriter creates a writer for path (DefaultPath when empty)
func NewXLSXWriter(path string) *XLSXWriter {
	if path == "" {
		path = DefaultPath
	}
	return &XLSXWriter{Path: path, Sheet: DefaultSheet}
}

// Write implements Writer
func (w *XLSXWriter) Write(records [][]string) (err error) {
	f := excelize.NewFile()
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close workbook: %w", cerr)
		}
	}()

	sheet := w.Sheet
	if sheet == "" {
		sheet = DefaultSheet
	}
	if sheet != DefaultSheet {
		if err := f.SetSheetName(DefaultSheet, sheet); err != nil {
			return fmt.Errorf("rename sheet: %w", err)
		}
	}

	for r, rec := range records {
		for c, value := range rec {
			cell, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				return fmt.Errorf("cell name for row %d column %d: %w", r+1, c+1, err)
			}
			if err := f.SetCellStr(sheet, cell, value); err != nil {
				return fmt.Errorf("set cell %s: %w", cell, err)
			}
		}
	}

	if err := f.SaveAs(w.Path); err != nil {
		return fmt.Errorf("save %s: %w", w.Path, err)
	}
	return nil
}
