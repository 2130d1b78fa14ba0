package store

import (
	"context"
	"database/sql"
	"fmt"
)

// SchemaAdmin exposes the low-level table operations used to wipe object data.
type SchemaAdmin interface {
	TableNames(ctx context.Context) ([]string, error)
	Truncate(ctx context.Context, table string) error
	Exec(ctx context.Context, stmt string, args ...any) error
}

// SQLiteSchemaAdmin implements SchemaAdmin using SQLite.
type SQLiteSchemaAdmin struct {
	db *sql.DB
}

// NewSQLiteSchemaAdmin creates a new SQLiteSchemaAdmin.
func NewSQLiteSchemaAdmin(db *sql.DB) *SQLiteSchemaAdmin {
	return &SQLiteSchemaAdmin{db: db}
}

// TableNames lists user tables ordered by name.
func (s *SQLiteSchemaAdmin) TableNames(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan table name: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// Truncate removes every row of a table and resets its autoincrement counter.
// SQLite has no TRUNCATE statement.
func (s *SQLiteSchemaAdmin) Truncate(ctx context.Context, table string) error {
	if !ValidIdentifier(table) {
		return fmt.Errorf("table %q: %w", table, ErrInvalidIdentifier)
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM `+quoteIdent(table)); err != nil {
		return fmt.Errorf("truncate %s: %w", table, err)
	}

	ok, err := tableExists(ctx, s.db, "sqlite_sequence")
	if err != nil {
		return err
	}
	if ok {
		if _, err := s.db.ExecContext(ctx, `DELETE FROM sqlite_sequence WHERE name = ?`, table); err != nil {
			return fmt.Errorf("reset sequence of %s: %w", table, err)
		}
	}
	return nil
}

// Exec runs a raw statement.
func (s *SQLiteSchemaAdmin) Exec(ctx context.Context, stmt string, args ...any) error {
	if _, err := s.db.ExecContext(ctx, stmt, args...); err != nil {
		return fmt.Errorf("exec %q: %w", stmt, err)
	}
	return nil
}
