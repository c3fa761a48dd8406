package sheet

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"fin-agents/internal/ratio"
)

// Columns is the exact width of an accepted statement table:
// label, prior period, current period.
const Columns = 3

// ErrUnsupportedType is returned for file extensions that cannot be read.
var ErrUnsupportedType = errors.New("unsupported file type (only XLSX and CSV allowed)")

// MalformedError reports an upload that could not be turned into a table.
type MalformedError struct {
	Reason string
	Err    error
}

func (e *MalformedError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed upload: %s: %v", e.Reason, e.Err)
	}
	return "malformed upload: " + e.Reason
}

func (e *MalformedError) Unwrap() error { return e.Err }

// Supported reports whether the filename has a readable extension.
func Supported(filename string) bool {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx", ".xlsm", ".csv":
		return true
	}
	return false
}

// Read parses an uploaded statement. The first non-blank row is treated as a
// header and dropped; columns are interpreted by position only.
func Read(filename string, r io.Reader) ([]ratio.RawLineItem, error) {
	var (
		rows [][]string
		err  error
	)
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx", ".xlsm":
		rows, err = readXLSX(r)
	case ".csv":
		rows, err = readCSV(r)
	default:
		return nil, &MalformedError{Reason: filename, Err: ErrUnsupportedType}
	}
	if err != nil {
		return nil, err
	}
	return toLineItems(rows)
}

func readXLSX(r io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, &MalformedError{Reason: "unreadable spreadsheet", Err: err}
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, &MalformedError{Reason: "workbook has no sheets"}
	}
	rows, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, &MalformedError{Reason: "failed to read sheet " + sheets[0], Err: err}
	}
	return rows, nil
}

func readCSV(r io.Reader) ([][]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, &MalformedError{Reason: "unreadable csv", Err: err}
	}
	return rows, nil
}

func toLineItems(rows [][]string) ([]ratio.RawLineItem, error) {
	var table [][]string
	width := 0
	for _, row := range rows {
		row = trimTrailingBlank(row)
		if len(row) == 0 {
			continue
		}
		if len(row) > width {
			width = len(row)
		}
		table = append(table, row)
	}
	if len(table) == 0 {
		return nil, &MalformedError{Reason: "file is empty"}
	}
	if width != Columns {
		return nil, &MalformedError{Reason: fmt.Sprintf("expected %d columns (label, prior, current), got %d", Columns, width)}
	}

	items := make([]ratio.RawLineItem, 0, len(table)-1)
	for _, row := range table[1:] {
		cells := make([]string, Columns)
		copy(cells, row)
		items = append(items, ratio.RawLineItem{
			Label:   strings.TrimSpace(cells[0]),
			Prior:   cells[1],
			Current: cells[2],
		})
	}
	return items, nil
}

func trimTrailingBlank(row []string) []string {
	end := len(row)
	for end > 0 && strings.TrimSpace(row[end-1]) == "" {
		end--
	}
	return row[:end]
}
