package excel

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

var (
	ErrNoSheet   = errors.New("workbook has no sheets")
	ErrEmptyFile = errors.New("spreadsheet is empty")
)

// Row is one data row. Number is the 1-based spreadsheet row, so the first data
// row under the header is row 2.
type Row struct {
	Number int
	Cells  []any
}

func (r Row) cell(i int) any {
	if i < 0 || i >= len(r.Cells) {
		return nil
	}
	return r.Cells[i]
}

// Table is a header plus data rows, addressed by column name.
type Table struct {
	Columns []string
	Rows    []Row

	index map[string]int
}

// NewTable indexes header names after trimming; the first of duplicate names wins.
func NewTable(columns []string, rows []Row) *Table {
	t := &Table{Columns: make([]string, len(columns)), Rows: rows, index: make(map[string]int, len(columns))}
	for i, c := range columns {
		name := strings.TrimSpace(c)
		t.Columns[i] = name
		if name == "" {
			continue
		}
		if _, dup := t.index[name]; !dup {
			t.index[name] = i
		}
	}
	return t
}

func (t *Table) HasColumn(name string) bool {
	_, ok := t.index[name]
	return ok
}

// Lookup returns def when the table has no such column at all, and also when
// the cell is blank.
func (t *Table) Lookup(row Row, column string, def any) any {
	i, ok := t.index[column]
	if !ok {
		return def
	}
	v := row.cell(i)
	if isBlank(v) {
		return def
	}
	return v
}

// ReadTable reads the first sheet of an xlsx workbook. Row 1 is the header.
// Number and date cells arrive as float64 (dates as Excel serials); text
// cells arrive as strings.
// Fully blank rows are dropped without renumbering the rest.
func ReadTable(r io.Reader) (*Table, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrNoSheet
	}

	rows, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}
	if len(rows) == 0 {
		return nil, ErrEmptyFile
	}

	data := make([]Row, 0, len(rows)-1)
	for i := 1; i < len(rows); i++ {
		cells := make([]any, len(rows[i]))
		blank := true
		for j, c := range rows[i] {
			cells[j] = c
			if strings.TrimSpace(c) == "" {
				continue
			}
			blank = false
			if n, ok := numericCell(f, sheets[0], j+1, i+1, c); ok {
				cells[j] = n
			}
		}
		if blank {
			continue
		}
		data = append(data, Row{Number: i + 1, Cells: cells})
	}

	return NewTable(rows[0], data), nil
}

// numericCell returns the value of a number or date cell as float64. Text
// cells stay strings even when they look like numbers.
func numericCell(f *excelize.File, sheet string, col, row int, raw string) (float64, bool) {
	name, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return 0, false
	}
	typ, err := f.GetCellType(sheet, name)
	if err != nil {
		return 0, false
	}
	switch typ {
	case excelize.CellTypeUnset, excelize.CellTypeNumber, excelize.CellTypeDate:
	default:
		return 0, false
	}
	n, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// ReadTableFile opens path and reads it with ReadTable.
func ReadTableFile(path string) (*Table, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return ReadTable(file)
}
