package store

import (
	"fmt"
	"time"
)

type SQLiteDialect struct{}

func (d *SQLiteDialect) Name() string       { return "sqlite" }
func (d *SQLiteDialect) DriverName() string { return "sqlite" }

func (d *SQLiteDialect) NewParamBuilder() ParamBuilder {
	return &sqliteParamBuilder{}
}

// SQLite's LIKE is only case-insensitive for ASCII, and only when neither
// side is wrapped in a function, so lower both sides explicitly.
func (d *SQLiteDialect) ILike(column, placeholder string) string {
	return fmt.Sprintf(`LOWER(%s) LIKE LOWER(%s) ESCAPE '\'`, column, placeholder)
}

// SQLite stores timestamps as TEXT; bind a fixed UTC layout so string
// comparison in the database matches chronological order.
func (d *SQLiteDialect) TimeParam(t time.Time) any {
	return t.UTC().Format("2006-01-02 15:04:05")
}

func (d *SQLiteDialect) TablesSQL() []string {
	return []string{
		`CREATE TABLE IF NOT EXISTS questions (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			title      TEXT NOT NULL,
			text       TEXT NOT NULL,
			created_at TEXT NOT NULL DEFAULT (CURRENT_TIMESTAMP),
			updated_at TEXT NOT NULL DEFAULT (CURRENT_TIMESTAMP)
		)`,
		`CREATE TABLE IF NOT EXISTS completed_forms (
			id            INTEGER PRIMARY KEY AUTOINCREMENT,
			template_name TEXT NOT NULL,
			timestamp     TEXT NOT NULL,
			form_data     TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_completed_forms_template ON completed_forms(template_name)`,
	}
}
