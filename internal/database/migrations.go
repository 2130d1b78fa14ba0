package database

// migrations is an ordered list of SQL migration groups. Each entry is a slice
// of SQL statements that are executed together in a single transaction. The
// version number is the 1-based index into this slice.
//
// Per-class tables (object_store_<id>, object_relations_<id>) are not listed
// here; they are created when a class is registered.
var migrations = [][]string{
	// Migration 1: object tree, class registry, bookkeeping tables
	{
		`CREATE TABLE objects (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			parent_id INTEGER NOT NULL DEFAULT 0,
			type TEXT NOT NULL DEFAULT 'object',
			key TEXT NOT NULL DEFAULT '',
			path TEXT NOT NULL DEFAULT '',
			"index" INTEGER NOT NULL DEFAULT 0,
			published BOOLEAN NOT NULL DEFAULT TRUE,
			creation_date INTEGER NOT NULL DEFAULT 0,
			modification_date INTEGER NOT NULL DEFAULT 0,
			user_owner INTEGER NOT NULL DEFAULT 0,
			user_modification INTEGER NOT NULL DEFAULT 0,
			class_id TEXT,
			class_name TEXT,
			children_sort_by TEXT,
			children_sort_order TEXT,
			version_count INTEGER NOT NULL DEFAULT 0,
			UNIQUE(parent_id, key)
		)`,
		`CREATE INDEX idx_objects_parent ON objects(parent_id, type)`,
		`CREATE INDEX idx_objects_class ON objects(class_name)`,

		`CREATE TABLE classes (
			id TEXT PRIMARY KEY,
			name TEXT UNIQUE NOT NULL,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		)`,

		`CREATE TABLE class_fields (
			class_id TEXT NOT NULL,
			name TEXT NOT NULL,
			kind TEXT NOT NULL,
			data_type TEXT,
			targets TEXT,
			cardinality TEXT,
			position INTEGER NOT NULL DEFAULT 0,
			PRIMARY KEY (class_id, name),
			FOREIGN KEY (class_id) REFERENCES classes(id)
		)`,

		`CREATE TABLE dependencies (
			sourcetype TEXT NOT NULL,
			sourceid INTEGER NOT NULL,
			targettype TEXT NOT NULL,
			targetid INTEGER NOT NULL,
			PRIMARY KEY (sourcetype, sourceid, targettype, targetid)
		)`,
		`CREATE INDEX idx_dependencies_target ON dependencies(targettype, targetid)`,

		`CREATE TABLE tree_locks (
			id INTEGER NOT NULL,
			type TEXT NOT NULL,
			locked TEXT,
			PRIMARY KEY (id, type)
		)`,

		rootFolderInsert,
	},
}

// rootFolderInsert creates the tree root. Timestamps are filled in with the
// time of the migration.
const rootFolderInsert = `INSERT OR IGNORE INTO objects
	(id, parent_id, type, key, path, "index", published, creation_date, modification_date,
	 user_owner, user_modification, class_id, class_name, children_sort_by, children_sort_order, version_count)
	VALUES (1, 0, 'folder', '', '/', 999999, TRUE, CAST(strftime('%s','now') AS INTEGER),
	 CAST(strftime('%s','now') AS INTEGER), 1, 1, NULL, NULL, NULL, NULL, 0)`
