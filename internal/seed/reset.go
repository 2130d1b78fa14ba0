package seed

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// ResetPrefixes are the prefixes of the per-class tables that hold object
// data. Every table starting with one of them is truncated by Reset.
var ResetPrefixes = []string{
	"object_store_",
	"object_query_",
	"object_localized_",
	"object_relations_",
	"object_collection_",
	"object_metadata_",
}

// SchemaAdmin runs the raw table operations a reset needs.
type SchemaAdmin interface {
	TableNames(ctx context.Context) ([]string, error)
	Truncate(ctx context.Context, table string) error
	Exec(ctx context.Context, stmt string, args ...any) error
}

// ResetSummary lists what a reset touched.
type ResetSummary struct {
	Truncated []string `json:"truncated"`
	RootID    int64    `json:"rootId"`
}

const insertRoot = `INSERT INTO objects
	(id, parent_id, type, key, path, "index", published, creation_date, modification_date,
	 user_owner, user_modification, class_id, class_name, children_sort_by, children_sort_order, version_count)
	VALUES (1, 0, 'folder', '', '/', 999999, TRUE, ?, ?, 1, 1, NULL, NULL, NULL, NULL, 0)`

// Reset wipes every object and its data, leaving only the root folder. Class
// definitions and their tables are kept. Statements run one after the other
// without a transaction; the first failure stops the sequence and is returned.
// Foreign key checks are switched back on in every case.
func Reset(ctx context.Context, admin SchemaAdmin, now time.Time, log zerolog.Logger) (summary *ResetSummary, err error) {
	summary = &ResetSummary{Truncated: []string{}}

	if err := admin.Exec(ctx, `PRAGMA foreign_keys = OFF`); err != nil {
		return summary, fmt.Errorf("disable foreign keys: %w", err)
	}
	defer func() {
		if ferr := admin.Exec(context.WithoutCancel(ctx), `PRAGMA foreign_keys = ON`); ferr != nil && err == nil {
			err = fmt.Errorf("enable foreign keys: %w", ferr)
		}
	}()

	if err := admin.Truncate(ctx, "objects"); err != nil {
		return summary, err
	}
	summary.Truncated = append(summary.Truncated, "objects")

	tables, err := admin.TableNames(ctx)
	if err != nil {
		return summary, err
	}
	for _, table := range tables {
		if !hasResetPrefix(table) {
			continue
		}
		if err := admin.Truncate(ctx, table); err != nil {
			return summary, err
		}
		summary.Truncated = append(summary.Truncated, table)
	}

	if err := admin.Exec(ctx,
		`DELETE FROM dependencies WHERE sourcetype = 'object' OR targettype = 'object'`,
	); err != nil {
		return summary, err
	}
	if err := admin.Exec(ctx, `DELETE FROM tree_locks WHERE type = 'object'`); err != nil {
		return summary, err
	}

	ts := now.Unix()
	if err := admin.Exec(ctx, insertRoot, ts, ts); err != nil {
		return summary, err
	}
	summary.RootID = 1

	log.Info().Int("tables", len(summary.Truncated)).Msg("object data reset")
	return summary, nil
}

func hasResetPrefix(table string) bool {
	for _, p := range ResetPrefixes {
		if strings.HasPrefix(table, p) {
			return true
		}
	}
	return false
}
