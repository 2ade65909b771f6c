package catalog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ErrNoSheets is returned for a workbook with no sheets.
var ErrNoSheets = errors.New("workbook has no sheets")

// ErrNoRows is returned for a sheet with headers but no data rows, or no
// content at all.
var ErrNoRows = errors.New("no data rows found")

// ErrUnsupportedFormat is returned for file types the parser does not handle.
var ErrUnsupportedFormat = errors.New("unsupported file format")

// Sheet is the parsed first sheet of a workbook: the header row plus every
// non-empty data row keyed by header.
type Sheet struct {
	Headers []string
	Rows    []Row
}

// ParseSpreadsheet reads the first sheet of an .xlsx workbook, or a .csv file,
// selected by the filename extension.
func ParseSpreadsheet(r io.Reader, filename string) (*Sheet, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx":
		return parseXLSX(r)
	case ".csv":
		return parseCSV(r)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(filename))
	}
}

func parseXLSX(r io.Reader) (*Sheet, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("opening workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrNoSheets
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("reading sheet %q: %w", sheets[0], err)
	}

	return sheetFromCells(rows)
}

func parseCSV(r io.Reader) (*Sheet, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading csv: %w", err)
	}

	return sheetFromCells(records)
}

// sheetFromCells turns raw cell rows into a Sheet. The first row is the
// header; fully empty rows are skipped, short rows are padded. Blank header
// cells are dropped but the remaining headers keep their original cell
// positions, so a spacer column cannot shift data into the wrong field.
func sheetFromCells(cells [][]string) (*Sheet, error) {
	if len(cells) == 0 {
		return nil, ErrNoRows
	}

	headers := make([]string, 0, len(cells[0]))
	columns := make([]int, 0, len(cells[0]))
	for i, h := range cells[0] {
		if strings.TrimSpace(h) != "" {
			headers = append(headers, h)
			columns = append(columns, i)
		}
	}
	if len(headers) == 0 {
		return nil, ErrNoRows
	}

	sheet := &Sheet{Headers: headers}
	for _, cellRow := range cells[1:] {
		row := make(Row, len(headers))
		empty := true
		for i, h := range headers {
			var v string
			if c := columns[i]; c < len(cellRow) {
				v = cellRow[c]
			}
			if strings.TrimSpace(v) != "" {
				empty = false
			}
			row[h] = v
		}
		if empty {
			continue
		}
		sheet.Rows = append(sheet.Rows, row)
	}

	if len(sheet.Rows) == 0 {
		return nil, ErrNoRows
	}
	return sheet, nil
}
