package report

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/paveg/salesframe/internal/table"
	"github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"
)

// maxSheetName is the longest sheet name Excel accepts
const maxSheetName = 31

// XLSXReporter writes all tables into one workbook, one sheet per table
type XLSXReporter struct {
	path string
	log  logrus.FieldLogger
}

// Write builds the workbook and saves it to the configured path
func (r *XLSXReporter) Write(ctx context.Context, tables []table.Named) error {
	f := excelize.NewFile()
	defer f.Close()

	for i, nt := range tables {
		if err := ctx.Err(); err != nil {
			return err
		}
		sheet := sheetName(nt.Name)
		if i == 0 {
			if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
				return fmt.Errorf("naming sheet %s: %w", sheet, err)
			}
		} else if _, err := f.NewSheet(sheet); err != nil {
			return fmt.Errorf("creating sheet %s: %w", sheet, err)
		}
		if err := writeSheet(f, sheet, nt.Table); err != nil {
			return fmt.Errorf("writing %s: %w", nt.Name, err)
		}
	}

	if err := os.MkdirAll(filepath.Dir(r.path), dirPerm); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	if err := f.SaveAs(r.path); err != nil {
		return fmt.Errorf("saving %s: %w", r.path, err)
	}
	r.log.WithFields(logrus.Fields{"file": r.path, "sheets": len(tables)}).Debug("workbook written")
	return nil
}

func sheetName(name string) string {
	if len(name) > maxSheetName {
		return name[:maxSheetName]
	}
	return name
}

// writeSheet writes the header into row 1 and the table rows below it.
// Numeric columns stay numeric in the sheet.
func writeSheet(f *excelize.File, sheet string, t *table.Table) error {
	cols := t.Columns()
	header := make([]any, len(cols))
	for j, c := range cols {
		header[j] = c
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}

	arrs := make([]arrow.Array, len(cols))
	for j, name := range cols {
		arrs[j], _ = t.Array(name)
	}
	defer func() {
		for _, a := range arrs {
			a.Release()
		}
	}()

	for i := range t.Len() {
		row := make([]any, len(cols))
		for j := range cols {
			row[j] = typedValue(arrs[j], i)
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}
	return nil
}
