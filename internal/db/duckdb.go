// Package db mirrors the station table into DuckDB for ad-hoc SQL.
package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"unicode"

	_ "github.com/marcboeker/go-duckdb"

	"github.com/joeblew999/plat-stations/internal/station"
)

// StationsTable is the table LoadStations writes.
const StationsTable = "stations"

// ErrNotReadOnly is returned by Query for statements that could modify data.
var ErrNotReadOnly = errors.New("only read-only statements are allowed")

var readOnlyPrefixes = []string{"SELECT", "WITH", "SHOW", "DESCRIBE", "SUMMARIZE"}

// writeKeywords may not appear anywhere in a query, so a read-only prefix
// cannot hide a data-modifying statement (WITH ... DELETE).
var writeKeywords = map[string]bool{
	"INSERT": true, "UPDATE": true, "DELETE": true, "MERGE": true, "TRUNCATE": true,
	"CREATE": true, "DROP": true, "ALTER": true,
	"COPY": true, "EXPORT": true, "IMPORT": true, "ATTACH": true, "DETACH": true,
	"INSTALL": true, "LOAD": true, "SET": true, "RESET": true, "PRAGMA": true,
	"CALL": true, "VACUUM": true, "CHECKPOINT": true, "USE": true,
}

// Config holds database configuration. An empty DataDir opens an in-memory
// database.
type Config struct {
	DataDir    string
	DBName     string
	Extensions []string
}

// Store is an open DuckDB database.
type Store struct {
	db     *sql.DB
	path   string
	loaded map[string]bool
}

// Result is the outcome of a query.
type Result struct {
	Columns []string         `json:"columns" doc:"Column names"`
	Rows    []map[string]any `json:"rows" doc:"Query results"`
}

// Open creates or opens the database and loads the configured extensions.
// Extensions that fail to install are skipped.
func Open(cfg Config) (*Store, error) {
	path := ""
	if cfg.DataDir != "" {
		duckdbDir := filepath.Join(cfg.DataDir, "duckdb")
		if err := os.MkdirAll(duckdbDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create duckdb directory: %w", err)
		}
		name := cfg.DBName
		if name == "" {
			name = StationsTable
		}
		path = filepath.Join(duckdbDir, name+".duckdb")
	}

	conn, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("opening duckdb: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("opening duckdb: %w", err)
	}

	s := &Store{db: conn, path: path, loaded: make(map[string]bool)}
	for _, ext := range cfg.Extensions {
		if _, err := conn.Exec(fmt.Sprintf("INSTALL %s; LOAD %s;", ext, ext)); err != nil {
			continue
		}
		s.loaded[ext] = true
	}

	// No file, network or extension access from queries from here on, and
	// the setting cannot be turned back on.
	if _, err := conn.Exec("SET enable_external_access = false; SET lock_configuration = true;"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("restricting duckdb: %w", err)
	}
	return s, nil
}

// DB returns the underlying connection pool.
func (s *Store) DB() *sql.DB { return s.db }

// Path returns the database file, or "" for an in-memory database.
func (s *Store) Path() string { return s.path }

// Loaded reports whether an extension was loaded by Open.
func (s *Store) Loaded(ext string) bool { return s.loaded[ext] }

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// LoadStations replaces the stations table with table. With the spatial
// extension loaded a geom point column is added.
func (s *Store) LoadStations(ctx context.Context, table station.Table) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `CREATE OR REPLACE TABLE `+StationsTable+` (
		id VARCHAR,
		type VARCHAR,
		latitude DOUBLE,
		longitude DOUBLE,
		village VARCHAR,
		subdistrict VARCHAR,
		regency VARCHAR,
		province VARCHAR
	)`); err != nil {
		return fmt.Errorf("creating stations table: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO `+StationsTable+` VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for _, r := range table {
		if _, err := stmt.ExecContext(ctx, r.ID, r.Type, r.Latitude, r.Longitude,
			r.Village, r.Subdistrict, r.Regency, r.Province); err != nil {
			return fmt.Errorf("inserting station %s: %w", r.ID, err)
		}
	}

	if s.loaded["spatial"] {
		if _, err := tx.ExecContext(ctx, `ALTER TABLE `+StationsTable+` ADD COLUMN geom GEOMETRY`); err != nil {
			return fmt.Errorf("adding geom column: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `UPDATE `+StationsTable+` SET geom = ST_Point(longitude, latitude)`); err != nil {
			return fmt.Errorf("filling geom column: %w", err)
		}
	}
	return tx.Commit()
}

// Count returns the number of rows in the stations table.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM `+StationsTable).Scan(&n)
	return n, err
}

// Tables lists the tables of the database.
func (s *Store) Tables(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "SHOW TABLES")
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

// Query runs a single read-only statement. It runs in a transaction that is
// always rolled back, so nothing it does outlives the call.
func (s *Store) Query(ctx context.Context, query string, args ...any) (*Result, error) {
	if err := CheckReadOnly(query); err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	rows, err := tx.QueryContext(ctx, query, args...)
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
		valuePtrs := make([]any, len(columns))
		for i := range values {
			valuePtrs[i] = &values[i]
		}
		if err := rows.Scan(valuePtrs...); err != nil {
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

// CheckReadOnly accepts one statement starting with a read-only keyword and
// containing no write keyword outside string literals and quoted names.
// Semicolons inside string literals are not recognised.
func CheckReadOnly(query string) error {
	q := strings.TrimSpace(query)
	q = strings.TrimSuffix(q, ";")
	if q == "" || strings.Contains(q, ";") {
		return ErrNotReadOnly
	}

	words := keywords(q)
	if len(words) == 0 || !slices.Contains(readOnlyPrefixes, words[0]) {
		return ErrNotReadOnly
	}
	for _, w := range words {
		if writeKeywords[w] {
			return ErrNotReadOnly
		}
	}
	return nil
}

// keywords returns the upper-cased bare words of q, skipping quoted text.
func keywords(q string) []string {
	var (
		words []string
		word  strings.Builder
		quote rune
	)
	flush := func() {
		if word.Len() > 0 {
			words = append(words, strings.ToUpper(word.String()))
			word.Reset()
		}
	}
	for _, r := range q {
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
			}
		case r == '\'' || r == '"':
			flush()
			quote = r
		case r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r):
			word.WriteRune(r)
		default:
			flush()
		}
	}
	flush()
	return words
}
