package ingest

import (
	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/pulse/internal/model"
)

// XLSXOptions selects the worksheet to read.
type XLSXOptions struct {
	SheetIndex int    // default 0
	SheetName  string // if set, overrides SheetIndex
}

// ReadXLSX reads a worksheet from an .xlsx file into a Dataset using the
// same header and blank-row rules as ParseCSV.
func ReadXLSX(path string, opts XLSXOptions) (model.Dataset, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return model.Dataset{}, eris.Wrap(err, "xlsx: open file")
	}
	return sheetDataset(f, opts)
}

// ParseXLSX reads a worksheet from an in-memory .xlsx upload.
func ParseXLSX(data []byte, opts XLSXOptions) (model.Dataset, error) {
	f, err := xlsx.OpenBinary(data)
	if err != nil {
		return model.Dataset{}, eris.Wrap(err, "xlsx: open binary")
	}
	return sheetDataset(f, opts)
}

func sheetDataset(f *xlsx.File, opts XLSXOptions) (model.Dataset, error) {
	sheet, err := getSheet(f, opts)
	if err != nil {
		return model.Dataset{}, err
	}

	records := make([][]string, 0, len(sheet.Rows))
	for _, row := range sheet.Rows {
		if row == nil {
			continue
		}
		records = append(records, rowToStrings(row))
	}
	return buildDataset(records), nil
}

func getSheet(f *xlsx.File, opts XLSXOptions) (*xlsx.Sheet, error) {
	if opts.SheetName != "" {
		sheet, ok := f.Sheet[opts.SheetName]
		if !ok {
			return nil, eris.Errorf("xlsx: sheet %q not found", opts.SheetName)
		}
		return sheet, nil
	}

	if opts.SheetIndex >= len(f.Sheets) {
		return nil, eris.Errorf("xlsx: sheet index %d out of range (file has %d sheets)", opts.SheetIndex, len(f.Sheets))
	}

	return f.Sheets[opts.SheetIndex], nil
}

func rowToStrings(row *xlsx.Row) []string {
	cells := make([]string, len(row.Cells))
	for j, cell := range row.Cells {
		if cell == nil {
			continue
		}
		cells[j] = cell.String()
	}
	return cells
}
