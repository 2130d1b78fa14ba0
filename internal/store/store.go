package store

import "database/sql"

// Store holds all sub-stores used by the application.
type Store struct {
	DB      *sql.DB
	Classes *SQLiteClassStore
	Objects *SQLiteObjectStore
	Schema  *SQLiteSchemaAdmin
}

// New creates a Store with all sub-stores initialized.
func New(db *sql.DB) *Store {
	classes := NewSQLiteClassStore(db)
	return &Store{
		DB:      db,
		Classes: classes,
		Objects: NewSQLiteObjectStore(db, classes),
		Schema:  NewSQLiteSchemaAdmin(db),
	}
}
