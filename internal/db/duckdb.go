// Package db keeps an in-memory DuckDB copy of the loaded collection for
// ad-hoc SQL. Nothing is written to disk.
package db

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/marcboeker/go-duckdb"

	"github.com/joeblew999/geophoto/internal/gallery"
	"github.com/joeblew999/geophoto/internal/richtext"
)

const schema = `CREATE OR REPLACE TABLE images (
	id            INTEGER,
	document_id   VARCHAR,
	location_name VARCHAR,
	description   VARCHAR,
	type          VARCHAR,
	lat           DOUBLE,
	lng           DOUBLE,
	thumbnail_url VARCHAR,
	small_url     VARCHAR,
	medium_url    VARCHAR,
	large_url     VARCHAR,
	position      INTEGER
)`

// sandbox disables external access and extension loading, then locks the
// configuration.
var sandbox = []string{
	"SET autoinstall_known_extensions = false",
	"SET autoload_known_extensions = false",
	"SET enable_external_access = false",
	"SET lock_configuration = true",
}

// Open opens a private in-memory database with external access disabled.
func Open() (*sql.DB, error) {
	conn, err := sql.Open("duckdb", "")
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}
	// Each connection to "" is its own database; pin to one.
	conn.SetMaxOpenConns(1)

	for _, stmt := range sandbox {
		if _, err := conn.Exec(stmt); err != nil {
			conn.Close()
			return nil, fmt.Errorf("duckdb %q: %w", stmt, err)
		}
	}
	return conn, nil
}

// LoadImages replaces the images table with the collection. position keeps
// the collection order.
func LoadImages(ctx context.Context, conn *sql.DB, images []gallery.Image) error {
	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create images table: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO images VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, img := range images {
		if _, err := stmt.ExecContext(ctx,
			img.ID, img.DocumentID, img.LocationName, richtext.Plain(img.Description), img.Type,
			img.Coordinates.Lat, img.Coordinates.Lng,
			img.Variants.Thumbnail, img.Variants.Small, img.Variants.Medium, img.Variants.Large,
			i,
		); err != nil {
			return fmt.Errorf("insert image %d: %w", img.ID, err)
		}
	}

	return tx.Commit()
}

// Tables lists the table names.
func Tables(ctx context.Context, conn *sql.DB) ([]string, error) {
	rows, err := conn.QueryContext(ctx, "SHOW TABLES")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tables := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		tables = append(tables, name)
	}
	return tables, rows.Err()
}

// Result is a generic query result.
type Result struct {
	Columns []string
	Rows    []map[string]any
}

// Query runs a statement and collects every row.
func Query(ctx context.Context, conn *sql.DB, query string, args ...any) (*Result, error) {
	rows, err := conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	res := &Result{Columns: columns, Rows: []map[string]any{}}
	for rows.Next() {
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		row := make(map[string]any, len(columns))
		for i, col := range columns {
			row[col] = values[i]
		}
		res.Rows = append(res.Rows, row)
	}
	return res, rows.Err()
}
