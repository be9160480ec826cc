package store

import (
	"fmt"
	"time"
)

type PostgresDialect struct{}

func (d *PostgresDialect) Name() string       { return "postgres" }
func (d *PostgresDialect) DriverName() string { return "pgx" }

func (d *PostgresDialect) NewParamBuilder() ParamBuilder {
	return &pgParamBuilder{}
}

func (d *PostgresDialect) ILike(column, placeholder string) string {
	return fmt.Sprintf(`%s ILIKE %s ESCAPE '\'`, column, placeholder)
}

func (d *PostgresDialect) TimeParam(t time.Time) any {
	return t.UTC()
}

func (d *PostgresDialect) TablesSQL() []string {
	return []string{
		`CREATE TABLE IF NOT EXISTS questions (
			id         BIGSERIAL PRIMARY KEY,
			title      TEXT NOT NULL,
			text       TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS completed_forms (
			id            BIGSERIAL PRIMARY KEY,
			template_name TEXT NOT NULL,
			timestamp     TIMESTAMPTZ NOT NULL,
			form_data     TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_completed_forms_template ON completed_forms(template_name)`,
	}
}
