package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/johnwards/treeseed/internal/domain"
)

// ObjectStore defines persistence for the object tree: folders and class
// instances with their scalar values and relations.
type ObjectStore interface {
	New(ctx context.Context, className string) (*domain.Object, error)
	Save(ctx context.Context, obj *domain.Object) error
	Get(ctx context.Context, id int64) (*domain.Object, error)
	FindChild(ctx context.Context, parentID int64, key string) (*domain.Object, error)
	FindFolder(ctx context.Context, parentID int64, key string) (*domain.Object, error)
	CreateFolder(ctx context.Context, parentID int64, key string) (*domain.Object, error)
	Children(ctx context.Context, parentID int64) ([]*domain.Object, error)
	CountByClass(ctx context.Context, className string) (int, error)
}

// SQLiteObjectStore implements ObjectStore backed by SQLite.
type SQLiteObjectStore struct {
	db      *sql.DB
	classes *SQLiteClassStore
	clock   func() time.Time
}

// NewSQLiteObjectStore creates a new SQLiteObjectStore.
func NewSQLiteObjectStore(db *sql.DB, classes *SQLiteClassStore) *SQLiteObjectStore {
	return &SQLiteObjectStore{db: db, classes: classes, clock: time.Now}
}

// WithClock replaces the clock used for creation and modification dates.
func (s *SQLiteObjectStore) WithClock(clock func() time.Time) *SQLiteObjectStore {
	s.clock = clock
	return s
}

const objectCols = `id, parent_id, type, key, path, "index", published, creation_date, modification_date,
	COALESCE(class_id, ''), COALESCE(class_name, ''), version_count`

func scanObject(row interface{ Scan(...any) error }) (*domain.Object, error) {
	var o domain.Object
	err := row.Scan(&o.ID, &o.ParentID, &o.Type, &o.Key, &o.Path, &o.Index, &o.Published,
		&o.CreationDate, &o.ModificationDate, &o.ClassID, &o.ClassName, &o.VersionCount)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// New returns an unsaved instance of the named class. It fails with
// ErrNotFound for unknown classes and ErrClassUnavailable for classes whose
// storage is missing.
func (s *SQLiteObjectStore) New(ctx context.Context, className string) (*domain.Object, error) {
	c, err := s.classes.Get(ctx, className)
	if err != nil {
		return nil, err
	}
	ok, err := s.classes.Available(ctx, className)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("class %q: %w", className, ErrClassUnavailable)
	}
	return domain.NewInstance(c), nil
}

// Save inserts obj when it has no id yet, otherwise updates it. For class
// instances the scalar values and relations in obj replace what is stored.
func (s *SQLiteObjectStore) Save(ctx context.Context, obj *domain.Object) error {
	if obj.Key == "" || strings.Contains(obj.Key, "/") {
		return fmt.Errorf("invalid key %q: %w", obj.Key, ErrInvalidIdentifier)
	}

	// Class lookups run before the transaction: the pool holds one connection.
	var class *domain.Class
	if obj.Type == domain.TypeObject {
		var err error
		if class, err = s.classes.Get(ctx, obj.ClassName); err != nil {
			return err
		}
		if err := checkAssignments(class, obj); err != nil {
			return err
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	parent, err := scanObject(tx.QueryRowContext(ctx,
		`SELECT `+objectCols+` FROM objects WHERE id = ?`, obj.ParentID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("parent %d: %w", obj.ParentID, ErrNotFound)
		}
		return fmt.Errorf("load parent: %w", err)
	}

	ts := s.clock().Unix()
	path := parent.ChildPath()

	if obj.ID == 0 {
		res, err := tx.ExecContext(ctx,
			`INSERT INTO objects (parent_id, type, key, path, "index", published, creation_date, modification_date,
			  user_owner, user_modification, class_id, class_name, version_count)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, 0, 0, NULLIF(?, ''), NULLIF(?, ''), 1)`,
			obj.ParentID, obj.Type, obj.Key, path, obj.Index, obj.Published, ts, ts, obj.ClassID, obj.ClassName,
		)
		if err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("%s%s: %w", path, obj.Key, ErrDuplicateKey)
			}
			return fmt.Errorf("insert object: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("last insert id: %w", err)
		}
		obj.ID = id
		obj.CreationDate = ts
		obj.VersionCount = 1
	} else {
		res, err := tx.ExecContext(ctx,
			`UPDATE objects SET parent_id = ?, key = ?, path = ?, "index" = ?, published = ?,
			  modification_date = ?, version_count = version_count + 1
			 WHERE id = ?`,
			obj.ParentID, obj.Key, path, obj.Index, obj.Published, ts, obj.ID,
		)
		if err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("%s%s: %w", path, obj.Key, ErrDuplicateKey)
			}
			return fmt.Errorf("update object %d: %w", obj.ID, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("rows affected: %w", err)
		}
		if n == 0 {
			return fmt.Errorf("object %d: %w", obj.ID, ErrNotFound)
		}
		obj.VersionCount++
	}
	obj.Path = path
	obj.ModificationDate = ts

	if class != nil {
		if err := writeValues(ctx, tx, class, obj); err != nil {
			return err
		}
		if err := writeRelations(ctx, tx, class, obj); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit save: %w", err)
	}
	return nil
}

// Get loads an object with its values and relations.
func (s *SQLiteObjectStore) Get(ctx context.Context, id int64) (*domain.Object, error) {
	obj, err := scanObject(s.db.QueryRowContext(ctx,
		`SELECT `+objectCols+` FROM objects WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("object %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("get object %d: %w", id, err)
	}
	if err := s.loadData(ctx, obj); err != nil {
		return nil, err
	}
	return obj, nil
}

// FindChild returns the child of parentID with the given key.
func (s *SQLiteObjectStore) FindChild(ctx context.Context, parentID int64, key string) (*domain.Object, error) {
	var id int64
	err := s.db.QueryRowContext(ctx,
		`SELECT id FROM objects WHERE parent_id = ? AND key = ?`, parentID, key,
	).Scan(&id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("child %q of %d: %w", key, parentID, ErrNotFound)
		}
		return nil, fmt.Errorf("find child: %w", err)
	}
	return s.Get(ctx, id)
}

// FindFolder returns the folder child of parentID with the given key.
func (s *SQLiteObjectStore) FindFolder(ctx context.Context, parentID int64, key string) (*domain.Object, error) {
	obj, err := scanObject(s.db.QueryRowContext(ctx,
		`SELECT `+objectCols+` FROM objects WHERE type = 'folder' AND parent_id = ? AND key = ? LIMIT 1`,
		parentID, key))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("folder %q under %d: %w", key, parentID, ErrNotFound)
		}
		return nil, fmt.Errorf("find folder: %w", err)
	}
	return obj, nil
}

// CreateFolder creates a published folder under parentID.
func (s *SQLiteObjectStore) CreateFolder(ctx context.Context, parentID int64, key string) (*domain.Object, error) {
	folder := &domain.Object{
		ParentID:  parentID,
		Type:      domain.TypeFolder,
		Key:       key,
		Published: true,
	}
	if err := s.Save(ctx, folder); err != nil {
		return nil, err
	}
	return folder, nil
}

// Children lists the direct children of parentID ordered by key. Values and
// relations are not loaded.
func (s *SQLiteObjectStore) Children(ctx context.Context, parentID int64) ([]*domain.Object, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+objectCols+` FROM objects WHERE parent_id = ? ORDER BY type = 'object', key`,
		parentID)
	if err != nil {
		return nil, fmt.Errorf("list children: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []*domain.Object
	for rows.Next() {
		obj, err := scanObject(rows)
		if err != nil {
			return nil, fmt.Errorf("scan object: %w", err)
		}
		out = append(out, obj)
	}
	return out, rows.Err()
}

// CountByClass returns the number of stored instances of a class.
func (s *SQLiteObjectStore) CountByClass(ctx context.Context, className string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM objects WHERE type = 'object' AND class_name = ?`, className,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count %s: %w", className, err)
	}
	return n, nil
}

// checkAssignments rejects values and relations the class does not declare.
func checkAssignments(class *domain.Class, obj *domain.Object) error {
	for name := range obj.Values {
		if !class.HasField(name) {
			return fmt.Errorf("class %s has no field %q: %w", class.Name, name, ErrInvalidClass)
		}
	}
	for name := range obj.Relations {
		if !class.HasRelation(name) {
			return fmt.Errorf("class %s has no relation %q: %w", class.Name, name, ErrInvalidClass)
		}
	}
	return nil
}

func writeValues(ctx context.Context, q queryer, class *domain.Class, obj *domain.Object) error {
	names := make([]string, 0, len(obj.Values))
	for name := range obj.Values {
		names = append(names, name)
	}
	sort.Strings(names)

	cols := []string{"oo_id"}
	holders := []string{"?"}
	updates := make([]string, 0, len(names))
	args := []any{obj.ID}
	for _, name := range names {
		f, _ := class.Field(name)
		v, err := encodeValue(f, obj.Values[name])
		if err != nil {
			return fmt.Errorf("%s.%s: %w", class.Name, name, err)
		}
		cols = append(cols, quoteIdent(name))
		holders = append(holders, "?")
		updates = append(updates, quoteIdent(name)+" = excluded."+quoteIdent(name))
		args = append(args, v)
	}

	stmt := `INSERT INTO ` + quoteIdent(storeTable(class.ID)) +
		` (` + strings.Join(cols, ", ") + `) VALUES (` + strings.Join(holders, ", ") + `)`
	if len(updates) > 0 {
		stmt += ` ON CONFLICT(oo_id) DO UPDATE SET ` + strings.Join(updates, ", ")
	} else {
		stmt += ` ON CONFLICT(oo_id) DO NOTHING`
	}
	if _, err := q.ExecContext(ctx, stmt, args...); err != nil {
		return fmt.Errorf("write values of %d: %w", obj.ID, err)
	}
	return nil
}

func writeRelations(ctx context.Context, q queryer, class *domain.Class, obj *domain.Object) error {
	rt := quoteIdent(relationsTable(class.ID))
	if _, err := q.ExecContext(ctx, `DELETE FROM `+rt+` WHERE src_id = ?`, obj.ID); err != nil {
		return fmt.Errorf("clear relations of %d: %w", obj.ID, err)
	}
	if _, err := q.ExecContext(ctx,
		`DELETE FROM dependencies WHERE sourcetype = 'object' AND sourceid = ?`, obj.ID,
	); err != nil {
		return fmt.Errorf("clear dependencies of %d: %w", obj.ID, err)
	}

	fields := make([]string, 0, len(obj.Relations))
	for name := range obj.Relations {
		fields = append(fields, name)
	}
	sort.Strings(fields)

	for _, name := range fields {
		for pos, dest := range obj.Relations[name] {
			if _, err := q.ExecContext(ctx,
				`INSERT INTO `+rt+` (src_id, dest_id, type, fieldname, position) VALUES (?, ?, 'object', ?, ?)`,
				obj.ID, dest, name, pos+1,
			); err != nil {
				return fmt.Errorf("write relation %s.%s -> %d: %w", class.Name, name, dest, err)
			}
			if _, err := q.ExecContext(ctx,
				`INSERT OR IGNORE INTO dependencies (sourcetype, sourceid, targettype, targetid) VALUES ('object', ?, 'object', ?)`,
				obj.ID, dest,
			); err != nil {
				return fmt.Errorf("write dependency %d -> %d: %w", obj.ID, dest, err)
			}
		}
	}
	return nil
}

// loadData fills Values and Relations of a class instance.
func (s *SQLiteObjectStore) loadData(ctx context.Context, obj *domain.Object) error {
	if obj.Type != domain.TypeObject || obj.ClassName == "" {
		return nil
	}
	class, err := s.classes.Get(ctx, obj.ClassName)
	if err != nil {
		return err
	}

	obj.Values = map[string]any{}
	obj.Relations = map[string][]int64{}

	rows, err := s.db.QueryContext(ctx,
		`SELECT * FROM `+quoteIdent(storeTable(class.ID))+` WHERE oo_id = ?`, obj.ID)
	if err != nil {
		return fmt.Errorf("load values of %d: %w", obj.ID, err)
	}
	cols, err := rows.Columns()
	if err != nil {
		_ = rows.Close()
		return fmt.Errorf("value columns: %w", err)
	}
	if rows.Next() {
		raw := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range raw {
			ptrs[i] = &raw[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			_ = rows.Close()
			return fmt.Errorf("scan values: %w", err)
		}
		for i, col := range cols {
			f, ok := class.Field(col)
			if !ok || raw[i] == nil {
				continue
			}
			obj.Values[col] = decodeValue(f, raw[i])
		}
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return fmt.Errorf("rows iteration: %w", err)
	}
	_ = rows.Close()

	relRows, err := s.db.QueryContext(ctx,
		`SELECT fieldname, dest_id FROM `+quoteIdent(relationsTable(class.ID))+` WHERE src_id = ? ORDER BY fieldname, position`,
		obj.ID)
	if err != nil {
		return fmt.Errorf("load relations of %d: %w", obj.ID, err)
	}
	defer func() { _ = relRows.Close() }()
	for relRows.Next() {
		var field string
		var dest int64
		if err := relRows.Scan(&field, &dest); err != nil {
			return fmt.Errorf("scan relation: %w", err)
		}
		obj.Relations[field] = append(obj.Relations[field], dest)
	}
	return relRows.Err()
}
