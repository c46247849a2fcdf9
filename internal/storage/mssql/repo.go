// Package mssql implements the record sink on Microsoft SQL Server via
// database/sql.
//
// Note on driver registration: this package intentionally does NOT blank
// import a SQL Server driver. The application registers the "sqlserver"
// driver (cmd/scrape blank-imports github.com/microsoft/go-mssqldb), which
// keeps this package testable without pulling the driver into every build.
package mssql

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"scrape/internal/storage"
)

// Repo implements storage.Repository for SQL Server.
type Repo struct {
	db *sql.DB
}

func init() {
	storage.Register("mssql", New)
}

func New(ctx context.Context, cfg storage.Config) (storage.Repository, error) {
	db, err := sql.Open("sqlserver", cfg.DSN)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Repo{db: db}, nil
}

func (r *Repo) Close() { _ = r.db.Close() }

func (r *Repo) EnsureTable(ctx context.Context, table string, columns []string) error {
	ddl, err := buildCreateSQL(table, columns)
	if err != nil {
		return err
	}
	if _, err := r.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("create table %s: %w", table, err)
	}
	return nil
}

// SQL Server has a hard limit of 2100 parameters per request. We stay
// comfortably below that.
const maxInsertParams = 2000

func (r *Repo) InsertRows(ctx context.Context, table string, columns []string, rows [][]any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	per := rowsPerInsert(len(columns))
	var total int64
	for start := 0; start < len(rows); start += per {
		end := start + per
		if end > len(rows) {
			end = len(rows)
		}

		stmt, args, err := buildInsertSQL(table, columns, rows[start:end])
		if err != nil {
			return total, err
		}
		res, err := r.db.ExecContext(ctx, stmt, args...)
		if err != nil {
			return total, fmt.Errorf("insert into %s: %w", table, err)
		}
		n, _ := res.RowsAffected()
		total += n
	}
	return total, nil
}

// rowsPerInsert returns how many rows fit in one statement without
// exceeding the parameter limit, at least 1.
func rowsPerInsert(columns int) int {
	if columns <= 0 {
		return 1
	}
	n := maxInsertParams / columns
	if n < 1 {
		n = 1
	}
	return n
}

// buildCreateSQL guards creation with OBJECT_ID since SQL Server has no
// CREATE TABLE IF NOT EXISTS.
func buildCreateSQL(table string, columns []string) (string, error) {
	if table == "" || len(columns) == 0 {
		return "", fmt.Errorf("mssql: table and columns are required")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "IF OBJECT_ID(N'%s', N'U') IS NULL CREATE TABLE ", strings.ReplaceAll(table, "'", "''"))
	b.WriteString(ident(table))
	b.WriteString(" (")
	for i, c := range columns {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(ident(c))
		b.WriteString(" NVARCHAR(MAX)")
	}
	b.WriteString(")")
	return b.String(), nil
}

func buildInsertSQL(table string, columns []string, rows [][]any) (string, []any, error) {
	var b strings.Builder
	b.WriteString("INSERT INTO ")
	b.WriteString(ident(table))
	b.WriteString(" (")
	for i, c := range columns {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(ident(c))
	}
	b.WriteString(") VALUES ")

	args := make([]any, 0, len(rows)*len(columns))
	p := 1
	for i, row := range rows {
		if len(row) != len(columns) {
			return "", nil, fmt.Errorf("mssql: row %d has %d values, want %d", i, len(row), len(columns))
		}
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString("(")
		for j := range row {
			if j > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(&b, "@p%d", p)
			p++
		}
		b.WriteString(")")
		args = append(args, row...)
	}

	return b.String(), args, nil
}

// ident brackets an identifier, escaping embedded closing brackets.
func ident(s string) string {
	return "[" + strings.ReplaceAll(s, "]", "]]") + "]"
}

var _ storage.Repository = (*Repo)(nil)
