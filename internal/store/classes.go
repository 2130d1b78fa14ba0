package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/johnwards/treeseed/internal/domain"
)

// ClassStore is the runtime type registry: it lists the classes objects can be
// created from and describes the fields each class exposes.
type ClassStore interface {
	List(ctx context.Context) ([]domain.Class, error)
	Get(ctx context.Context, name string) (*domain.Class, error)
	Register(ctx context.Context, c *domain.Class) (*domain.Class, error)
	Available(ctx context.Context, name string) (bool, error)
}

// SQLiteClassStore implements ClassStore using SQLite.
type SQLiteClassStore struct {
	db *sql.DB
}

// NewSQLiteClassStore creates a new SQLiteClassStore.
func NewSQLiteClassStore(db *sql.DB) *SQLiteClassStore {
	return &SQLiteClassStore{db: db}
}

// List returns every registered class ordered by name.
func (s *SQLiteClassStore) List(ctx context.Context) ([]domain.Class, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, created_at, updated_at FROM classes ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list classes: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var classes []domain.Class
	for rows.Next() {
		var c domain.Class
		if err := rows.Scan(&c.ID, &c.Name, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan class: %w", err)
		}
		classes = append(classes, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}

	for i := range classes {
		fields, err := s.loadFields(ctx, s.db, classes[i].ID)
		if err != nil {
			return nil, err
		}
		classes[i].Fields = fields
	}
	if classes == nil {
		classes = []domain.Class{}
	}
	return classes, nil
}

// Get returns the class with the given name.
func (s *SQLiteClassStore) Get(ctx context.Context, name string) (*domain.Class, error) {
	var c domain.Class
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, created_at, updated_at FROM classes WHERE name = ?`, name,
	).Scan(&c.ID, &c.Name, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("class %q: %w", name, ErrNotFound)
		}
		return nil, fmt.Errorf("get class: %w", err)
	}

	c.Fields, err = s.loadFields(ctx, s.db, c.ID)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// Available reports whether a class is registered and its storage tables exist.
func (s *SQLiteClassStore) Available(ctx context.Context, name string) (bool, error) {
	c, err := s.Get(ctx, name)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	for _, table := range []string{storeTable(c.ID), relationsTable(c.ID)} {
		ok, err := tableExists(ctx, s.db, table)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

// Register creates or updates a class definition and its storage tables.
// Registering the same definition twice is a no-op apart from updated_at;
// fields missing from an existing class are added, existing ones are never
// dropped.
func (s *SQLiteClassStore) Register(ctx context.Context, c *domain.Class) (*domain.Class, error) {
	if err := ValidateClass(c); err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin register: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	ts := now()

	var existingID string
	err = tx.QueryRowContext(ctx, `SELECT id FROM classes WHERE name = ?`, c.Name).Scan(&existingID)
	switch {
	case err == nil:
		if c.ID != "" && c.ID != existingID {
			return nil, fmt.Errorf("class %q already registered with id %q: %w", c.Name, existingID, ErrInvalidClass)
		}
		if _, err := tx.ExecContext(ctx, `UPDATE classes SET updated_at = ? WHERE id = ?`, ts, existingID); err != nil {
			return nil, fmt.Errorf("touch class: %w", err)
		}
	case errors.Is(err, sql.ErrNoRows):
		id := c.ID
		if id == "" {
			if id, err = nextClassID(ctx, tx); err != nil {
				return nil, err
			}
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO classes (id, name, created_at, updated_at) VALUES (?, ?, ?, ?)`,
			id, c.Name, ts, ts,
		); err != nil {
			if isUniqueViolation(err) {
				return nil, fmt.Errorf("class id %q already in use: %w", id, ErrInvalidClass)
			}
			return nil, fmt.Errorf("insert class: %w", err)
		}
		existingID = id
	default:
		return nil, fmt.Errorf("lookup class: %w", err)
	}

	if err := upsertFields(ctx, tx, existingID, c.Fields); err != nil {
		return nil, err
	}

	fields, err := s.loadFields(ctx, tx, existingID)
	if err != nil {
		return nil, err
	}
	if err := ensureStorage(ctx, tx, existingID, fields); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit register: %w", err)
	}

	return s.Get(ctx, c.Name)
}

// ValidateClass checks names, kinds and types of a class definition.
func ValidateClass(c *domain.Class) error {
	if c == nil {
		return fmt.Errorf("nil class: %w", ErrInvalidClass)
	}
	if !ValidIdentifier(c.Name) {
		return fmt.Errorf("class name %q: %w", c.Name, ErrInvalidIdentifier)
	}
	if c.ID != "" && !ValidIdentifier("c"+c.ID) {
		return fmt.Errorf("class id %q: %w", c.ID, ErrInvalidIdentifier)
	}

	seen := make(map[string]bool, len(c.Fields))
	for _, f := range c.Fields {
		if !ValidIdentifier(f.Name) || strings.EqualFold(f.Name, "oo_id") {
			return fmt.Errorf("field %s.%s: %w", c.Name, f.Name, ErrInvalidIdentifier)
		}
		if seen[f.Name] {
			return fmt.Errorf("field %s.%s declared twice: %w", c.Name, f.Name, ErrInvalidClass)
		}
		seen[f.Name] = true

		switch f.Kind {
		case domain.KindScalar:
			if sqlType(f.DataType) == "" {
				return fmt.Errorf("field %s.%s: unknown type %q: %w", c.Name, f.Name, f.DataType, ErrInvalidClass)
			}
		case domain.KindRelation:
			if len(f.Targets) == 0 {
				return fmt.Errorf("relation %s.%s has no targets: %w", c.Name, f.Name, ErrInvalidClass)
			}
			if f.Cardinality != domain.CardinalityOne && f.Cardinality != domain.CardinalityMany {
				return fmt.Errorf("relation %s.%s: unknown cardinality %q: %w", c.Name, f.Name, f.Cardinality, ErrInvalidClass)
			}
		default:
			return fmt.Errorf("field %s.%s: unknown kind %q: %w", c.Name, f.Name, f.Kind, ErrInvalidClass)
		}
	}
	return nil
}

// sqlType maps a scalar data type to its column type. Dates are stored as
// unix seconds.
func sqlType(dataType string) string {
	switch dataType {
	case domain.DataString:
		return "TEXT"
	case domain.DataInt, domain.DataBool, domain.DataDate:
		return "INTEGER"
	case domain.DataFloat:
		return "REAL"
	}
	return ""
}

// nextClassID returns the next free numeric class id.
func nextClassID(ctx context.Context, q queryer) (string, error) {
	var maxNum int
	err := q.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(CAST(id AS INTEGER)), 0) FROM classes WHERE id GLOB '[0-9]*'`,
	).Scan(&maxNum)
	if err != nil {
		return "", fmt.Errorf("next class id: %w", err)
	}
	return strconv.Itoa(maxNum + 1), nil
}

func upsertFields(ctx context.Context, q queryer, classID string, fields []domain.Field) error {
	for i, f := range fields {
		targets := append([]string(nil), f.Targets...)
		sort.Strings(targets)
		_, err := q.ExecContext(ctx,
			`INSERT INTO class_fields (class_id, name, kind, data_type, targets, cardinality, position)
			 VALUES (?, ?, ?, NULLIF(?, ''), NULLIF(?, ''), NULLIF(?, ''), ?)
			 ON CONFLICT(class_id, name) DO UPDATE SET
			   kind = excluded.kind, data_type = excluded.data_type, targets = excluded.targets,
			   cardinality = excluded.cardinality, position = excluded.position`,
			classID, f.Name, f.Kind, f.DataType, strings.Join(targets, ","), f.Cardinality, i,
		)
		if err != nil {
			return fmt.Errorf("upsert field %s: %w", f.Name, err)
		}
	}
	return nil
}

func (s *SQLiteClassStore) loadFields(ctx context.Context, q queryer, classID string) ([]domain.Field, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT name, kind, COALESCE(data_type, ''), COALESCE(targets, ''), COALESCE(cardinality, '')
		 FROM class_fields WHERE class_id = ? ORDER BY position, name`, classID)
	if err != nil {
		return nil, fmt.Errorf("load fields: %w", err)
	}
	defer func() { _ = rows.Close() }()

	fields := []domain.Field{}
	for rows.Next() {
		var f domain.Field
		var targets string
		if err := rows.Scan(&f.Name, &f.Kind, &f.DataType, &targets, &f.Cardinality); err != nil {
			return nil, fmt.Errorf("scan field: %w", err)
		}
		if targets != "" {
			f.Targets = strings.Split(targets, ",")
		}
		fields = append(fields, f)
	}
	return fields, rows.Err()
}

// ensureStorage creates the per-class store and relation tables and adds any
// scalar columns the store table is missing.
func ensureStorage(ctx context.Context, q queryer, classID string, fields []domain.Field) error {
	st := storeTable(classID)
	rt := relationsTable(classID)

	stmts := []string{
		`CREATE TABLE IF NOT EXISTS ` + quoteIdent(st) + ` (
			oo_id INTEGER PRIMARY KEY,
			FOREIGN KEY (oo_id) REFERENCES objects(id)
		)`,
		`CREATE TABLE IF NOT EXISTS ` + quoteIdent(rt) + ` (
			src_id INTEGER NOT NULL,
			dest_id INTEGER NOT NULL,
			type TEXT NOT NULL DEFAULT 'object',
			fieldname TEXT NOT NULL,
			position INTEGER NOT NULL DEFAULT 0,
			PRIMARY KEY (src_id, fieldname, position),
			FOREIGN KEY (src_id) REFERENCES objects(id),
			FOREIGN KEY (dest_id) REFERENCES objects(id)
		)`,
		`CREATE INDEX IF NOT EXISTS ` + quoteIdent("idx_"+rt+"_dest") + ` ON ` + quoteIdent(rt) + `(dest_id)`,
	}
	for _, stmt := range stmts {
		if _, err := q.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("create storage for class %s: %w", classID, err)
		}
	}

	cols, err := tableColumns(ctx, q, st)
	if err != nil {
		return err
	}
	for _, f := range fields {
		if f.IsRelation() || cols[f.Name] {
			continue
		}
		stmt := fmt.Sprintf(`ALTER TABLE %s ADD COLUMN %s %s`, quoteIdent(st), quoteIdent(f.Name), sqlType(f.DataType))
		if _, err := q.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("add column %s.%s: %w", st, f.Name, err)
		}
	}
	return nil
}
