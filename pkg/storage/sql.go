package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	_ "github.com/lib/pq"  // PostgreSQL driver
	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/livetemplate/stepdoc"
	"github.com/livetemplate/stepdoc/pkg/export"
)

// DefaultTable is the table documents are stored in when none is configured.
const DefaultTable = "documents"

var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// dialect hides the placeholder syntax differences between drivers.
type dialect struct {
	driver string
	// placeholder returns the n-th (1-based) bind parameter.
	placeholder func(n int) string
}

var (
	sqliteDialect = dialect{
		driver:      "sqlite",
		placeholder: func(int) string { return "?" },
	}
	postgresDialect = dialect{
		driver:      "postgres",
		placeholder: func(n int) string { return fmt.Sprintf("$%d", n) },
	}
)

// SQLAdapter stores each document as one row holding its JSON export.
type SQLAdapter struct {
	db      *sql.DB
	table   string
	dialect dialect
	newID   stepdoc.IDFunc
	now     func() time.Time
}

// SQLOption configures an SQLAdapter.
type SQLOption func(*SQLAdapter)

// WithTable overrides the table name.
func WithTable(table string) SQLOption {
	return func(a *SQLAdapter) { a.table = table }
}

// WithIDs sets the generator for new record ids.
func WithIDs(ids stepdoc.IDFunc) SQLOption {
	return func(a *SQLAdapter) { a.newID = ids }
}

// WithClock overrides the clock used for record timestamps.
func WithClock(now func() time.Time) SQLOption {
	return func(a *SQLAdapter) { a.now = now }
}

// OpenSQLite opens (or creates) a SQLite database file.
func OpenSQLite(ctx context.Context, path string, opts ...SQLOption) (*SQLAdapter, error) {
	if path == "" {
		path = "./stepdoc.db"
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite storage: failed to open database: %w", err)
	}
	// SQLite allows a single writer.
	db.SetMaxOpenConns(1)
	return newSQLAdapter(ctx, db, sqliteDialect, opts)
}

// OpenPostgres connects to PostgreSQL using dsn.
func OpenPostgres(ctx context.Context, dsn string, opts ...SQLOption) (*SQLAdapter, error) {
	if dsn == "" {
		return nil, errors.New("postgres storage: dsn is required")
	}
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres storage: failed to open database: %w", err)
	}
	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)
	return newSQLAdapter(ctx, db, postgresDialect, opts)
}

func newSQLAdapter(ctx context.Context, db *sql.DB, d dialect, opts []SQLOption) (*SQLAdapter, error) {
	a := &SQLAdapter{
		db:      db,
		table:   DefaultTable,
		dialect: d,
		newID:   stepdoc.UUIDs,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}

	if !identifierPattern.MatchString(a.table) {
		db.Close()
		return nil, fmt.Errorf("%s storage: invalid table name %q", d.driver, a.table)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("%s storage: failed to connect: %w", d.driver, err)
	}

	if err := a.migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return a, nil
}

func (a *SQLAdapter) migrate(ctx context.Context) error {
	query := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	id TEXT PRIMARY KEY,
	title TEXT NOT NULL,
	body TEXT NOT NULL,
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL
)`, a.table)
	if _, err := a.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("%s storage: failed to create table %s: %w", a.dialect.driver, a.table, err)
	}
	return nil
}

// q rewrites "?" bind parameters to the dialect's syntax.
func (a *SQLAdapter) q(query string) string {
	if a.dialect.driver == sqliteDialect.driver {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString(a.dialect.placeholder(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Save implements stepdoc.Adapter.
func (a *SQLAdapter) Save(ctx context.Context, id string, doc stepdoc.Document) (stepdoc.Record, error) {
	now := a.now().UTC()
	if id == "" {
		id = a.newID()
	}

	body, err := export.JSON(doc, now)
	if err != nil {
		return stepdoc.Record{}, &stepdoc.IOError{Op: "save", Err: err}
	}

	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return stepdoc.Record{}, &stepdoc.IOError{Op: "save", Err: err}
	}
	defer tx.Rollback()

	rec := stepdoc.Record{ID: id, Title: doc.Title, UpdatedAt: now}

	var created string
	err = tx.QueryRowContext(ctx,
		a.q(fmt.Sprintf("SELECT created_at FROM %s WHERE id = ?", a.table)), id,
	).Scan(&created)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		rec.CreatedAt = now
		_, err = tx.ExecContext(ctx,
			a.q(fmt.Sprintf("INSERT INTO %s (id, title, body, created_at, updated_at) VALUES (?, ?, ?, ?, ?)", a.table)),
			id, doc.Title, body, formatTime(now), formatTime(now))
	case err == nil:
		if rec.CreatedAt, err = parseTime(created); err != nil {
			return stepdoc.Record{}, &stepdoc.IOError{Op: "save", Err: err}
		}
		_, err = tx.ExecContext(ctx,
			a.q(fmt.Sprintf("UPDATE %s SET title = ?, body = ?, updated_at = ? WHERE id = ?", a.table)),
			doc.Title, body, formatTime(now), id)
	}
	if err != nil {
		return stepdoc.Record{}, &stepdoc.IOError{Op: "save", Err: err}
	}

	if err := tx.Commit(); err != nil {
		return stepdoc.Record{}, &stepdoc.IOError{Op: "save", Err: err}
	}
	return rec, nil
}

// Load implements stepdoc.Adapter.
func (a *SQLAdapter) Load(ctx context.Context, id string) (stepdoc.Document, error) {
	var body string
	err := a.db.QueryRowContext(ctx,
		a.q(fmt.Sprintf("SELECT body FROM %s WHERE id = ?", a.table)), id,
	).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return stepdoc.Document{}, &stepdoc.NotFoundError{Kind: "document", ID: id}
	}
	if err != nil {
		return stepdoc.Document{}, &stepdoc.IOError{Op: "load", Err: err}
	}

	doc, err := export.ImportJSON([]byte(body))
	if err != nil {
		return stepdoc.Document{}, &stepdoc.IOError{Op: "load", Err: err}
	}
	return doc, nil
}

// List implements stepdoc.Adapter.
func (a *SQLAdapter) List(ctx context.Context) ([]stepdoc.Record, error) {
	rows, err := a.db.QueryContext(ctx,
		fmt.Sprintf("SELECT id, title, created_at, updated_at FROM %s ORDER BY updated_at DESC, id", a.table))
	if err != nil {
		return nil, &stepdoc.IOError{Op: "list", Err: err}
	}
	defer rows.Close()

	records := []stepdoc.Record{}
	for rows.Next() {
		var rec stepdoc.Record
		var created, updated string
		if err := rows.Scan(&rec.ID, &rec.Title, &created, &updated); err != nil {
			return nil, &stepdoc.IOError{Op: "list", Err: err}
		}
		if rec.CreatedAt, err = parseTime(created); err != nil {
			return nil, &stepdoc.IOError{Op: "list", Err: err}
		}
		if rec.UpdatedAt, err = parseTime(updated); err != nil {
			return nil, &stepdoc.IOError{Op: "list", Err: err}
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, &stepdoc.IOError{Op: "list", Err: err}
	}
	return records, nil
}

// Delete implements stepdoc.Adapter.
func (a *SQLAdapter) Delete(ctx context.Context, id string) error {
	result, err := a.db.ExecContext(ctx, a.q(fmt.Sprintf("DELETE FROM %s WHERE id = ?", a.table)), id)
	if err != nil {
		return &stepdoc.IOError{Op: "delete", Err: err}
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return &stepdoc.IOError{Op: "delete", Err: err}
	}
	if affected == 0 {
		return &stepdoc.NotFoundError{Kind: "document", ID: id}
	}
	return nil
}

// Close releases the database connection.
func (a *SQLAdapter) Close() error {
	return a.db.Close()
}

// Timestamps are stored as fixed-width RFC 3339 text so that both drivers sort
// them lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}
