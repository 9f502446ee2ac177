package dataset

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"regexp"
	"strings"

	sq "github.com/Masterminds/squirrel"
	_ "modernc.org/sqlite"

	"github.com/bobby-s-dev/weather-forecaster/internal/models"
)

const sqliteScheme = "sqlite://"

var identifierExpr = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Source yields the raw historical table.
type Source interface {
	Load(ctx context.Context) (*Table, error)
}

// FileSource reads a CSV file from disk.
type FileSource struct {
	Path string
}

func (s FileSource) Load(ctx context.Context) (*Table, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, &models.DataError{Stage: "load", Err: fmt.Errorf("open %s: %w", s.Path, err)}
	}
	defer f.Close()

	return ReadCSV(f)
}

// SQLiteSource reads RequiredColumns from a table in a sqlite database.
type SQLiteSource struct {
	Path  string
	Table string
}

func (s SQLiteSource) Load(ctx context.Context) (*Table, error) {
	if !identifierExpr.MatchString(s.Table) {
		return nil, models.NewDataError("load", "invalid sqlite table name %q", s.Table)
	}

	db, err := sql.Open("sqlite", s.Path)
	if err != nil {
		return nil, &models.DataError{Stage: "load", Err: fmt.Errorf("open sqlite %s: %w", s.Path, err)}
	}
	defer db.Close()

	query, args, err := sq.Select(RequiredColumns...).From(s.Table).OrderBy("rowid").ToSql()
	if err != nil {
		return nil, &models.DataError{Stage: "load", Err: fmt.Errorf("build query: %w", err)}
	}

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, &models.DataError{Stage: "load", Err: fmt.Errorf("query %s: %w", s.Table, err)}
	}
	defer rows.Close()

	var raw [][]string
	for rows.Next() {
		cells := make([]sql.NullString, len(RequiredColumns))
		dest := make([]interface{}, len(cells))
		for i := range cells {
			dest[i] = &cells[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, &models.DataError{Stage: "load", Err: fmt.Errorf("scan row: %w", err)}
		}

		row := make([]string, len(cells))
		for i, cell := range cells {
			if cell.Valid {
				row[i] = cell.String
			}
		}
		raw = append(raw, row)
	}
	if err := rows.Err(); err != nil {
		return nil, &models.DataError{Stage: "load", Err: fmt.Errorf("rows iteration: %w", err)}
	}

	return NewTable(RequiredColumns, raw)
}

// OpenSource resolves a location string: "sqlite://<path>#<table>" selects a
// sqlite table, anything else is treated as a CSV path.
func OpenSource(location string) (Source, error) {
	location = strings.TrimSpace(location)
	if location == "" {
		return nil, models.NewDataError("load", "historical data location is empty")
	}

	if !strings.HasPrefix(location, sqliteScheme) {
		return FileSource{Path: location}, nil
	}

	rest := strings.TrimPrefix(location, sqliteScheme)
	path, table, found := strings.Cut(rest, "#")
	if !found || path == "" || table == "" {
		return nil, models.NewDataError("load", "sqlite location must look like sqlite://path#table, got %q", location)
	}
	return SQLiteSource{Path: path, Table: table}, nil
}
