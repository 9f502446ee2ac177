package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/bobby-s-dev/weather-forecaster/internal/models"
)

const (
	ColMinTemp       = "MinTemp"
	ColMaxTemp       = "MaxTemp"
	ColWindGustDir   = "WindGustDir"
	ColWindGustSpeed = "WindGustSpeed"
	ColHumidity      = "Humidity"
	ColPressure      = "Pressure"
	ColTemp          = "Temp"
	ColRainTomorrow  = "RainTomorrow"
)

// RequiredColumns are projected out of every historical source; anything
// else in the source is ignored.
var RequiredColumns = []string{
	ColMinTemp,
	ColMaxTemp,
	ColWindGustDir,
	ColWindGustSpeed,
	ColHumidity,
	ColPressure,
	ColTemp,
	ColRainTomorrow,
}

var missingMarkers = map[string]struct{}{
	"":     {},
	"NA":   {},
	"N/A":  {},
	"NaN":  {},
	"nan":  {},
	"null": {},
	"NULL": {},
	"None": {},
	"#N/A": {},
}

// IsMissing reports whether a raw cell value counts as absent.
func IsMissing(value string) bool {
	_, ok := missingMarkers[strings.TrimSpace(value)]
	return ok
}

// Table is a raw historical record table restricted to RequiredColumns.
// Cells are kept as strings until a dataset is built from them.
type Table struct {
	columns []string
	index   map[string]int
	rows    [][]string
}

// NewTable projects rows laid out by header onto RequiredColumns. Rows shorter
// than the header are padded with missing cells.
func NewTable(header []string, rows [][]string) (*Table, error) {
	position := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))
		if _, dup := position[name]; !dup {
			position[name] = i
		}
	}

	var absent []string
	for _, col := range RequiredColumns {
		if _, ok := position[col]; !ok {
			absent = append(absent, col)
		}
	}
	if len(absent) > 0 {
		return nil, models.NewDataError("load", "missing required columns: %s", strings.Join(absent, ", "))
	}

	t := newEmptyTable()
	for _, raw := range rows {
		row := make([]string, len(RequiredColumns))
		for i, col := range RequiredColumns {
			if p := position[col]; p < len(raw) {
				row[i] = strings.TrimSpace(raw[p])
			}
		}
		t.rows = append(t.rows, row)
	}
	return t, nil
}

func newEmptyTable() *Table {
	index := make(map[string]int, len(RequiredColumns))
	for i, col := range RequiredColumns {
		index[col] = i
	}
	return &Table{
		columns: append([]string(nil), RequiredColumns...),
		index:   index,
	}
}

// ReadCSV parses a header-first CSV stream into a Table.
func ReadCSV(r io.Reader) (*Table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, models.NewDataError("load", "historical data is empty")
		}
		return nil, &models.DataError{Stage: "load", Err: fmt.Errorf("read header: %w", err)}
	}

	var rows [][]string
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, &models.DataError{Stage: "load", Err: fmt.Errorf("read row %d: %w", len(rows)+1, err)}
		}
		rows = append(rows, record)
	}

	return NewTable(header, rows)
}

func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.rows)
}

func (t *Table) Columns() []string {
	return append([]string(nil), t.columns...)
}

// Row returns a copy of row i.
func (t *Table) Row(i int) []string {
	return append([]string(nil), t.rows[i]...)
}

// Column returns the raw values of the named column in row order.
func (t *Table) Column(name string) ([]string, error) {
	p, ok := t.index[name]
	if !ok {
		return nil, models.NewDataError("prepare", "unknown column %q", name)
	}
	values := make([]string, len(t.rows))
	for i, row := range t.rows {
		values[i] = row[p]
	}
	return values, nil
}

// Clean drops every row with a missing cell, then every duplicate row,
// keeping the first occurrence. Numeric cells are compared by value, so
// "20" and "20.0" are the same. An empty result is a DataError.
func Clean(t *Table) (*Table, error) {
	if t == nil {
		return nil, models.NewDataError("clean", "no historical table")
	}

	out := newEmptyTable()
	seen := make(map[string]struct{}, len(t.rows))

	for _, row := range t.rows {
		if hasMissing(row) {
			continue
		}
		key := t.dedupKey(row)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out.rows = append(out.rows, append([]string(nil), row...))
	}

	if len(out.rows) == 0 {
		return nil, models.NewDataError("clean", "historical table is empty after cleaning (%d rows read)", len(t.rows))
	}
	return out, nil
}

// categoricalColumns are compared as text; every other column by value.
var categoricalColumns = map[string]struct{}{
	ColWindGustDir:  {},
	ColRainTomorrow: {},
}

func (t *Table) dedupKey(row []string) string {
	parts := make([]string, len(row))
	for i, cell := range row {
		cell = strings.TrimSpace(cell)
		if _, text := categoricalColumns[t.columns[i]]; !text {
			if v, err := strconv.ParseFloat(cell, 64); err == nil {
				cell = strconv.FormatFloat(v, 'g', -1, 64)
			}
		}
		parts[i] = cell
	}
	return strings.Join(parts, "\x1f")
}

func hasMissing(row []string) bool {
	for _, cell := range row {
		if IsMissing(cell) {
			return true
		}
	}
	return false
}
