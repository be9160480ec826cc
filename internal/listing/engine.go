package listing

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"formdesk/internal/entity"
	"formdesk/internal/store"
)

// Result is one page of serialized rows. Total counts every row matching
// the filter, independent of pagination.
type Result struct {
	Page     int              `json:"page"`
	PageSize int              `json:"page_size"`
	Total    int64            `json:"total"`
	Items    []map[string]any `json:"items"`
}

// Engine executes normalized list queries against entity gateways. It is
// read-only and holds no per-entity logic.
type Engine struct {
	store *store.Store
}

func New(s *store.Store) *Engine {
	return &Engine{store: s}
}

// List runs the query: filter, count, sort, paginate, serialize. The count
// is taken before pagination so Total is stable across pages.
func (e *Engine) List(ctx context.Context, ent *entity.Entity, q *Query) (*Result, error) {
	d := e.store.Dialect

	countPB := d.NewParamBuilder()
	countSQL := fmt.Sprintf("SELECT COUNT(*) AS n FROM %s%s",
		ent.Table, whereSQL(d, ent, q.Search, q.UpdatedSince, countPB))
	countRow, err := store.QueryRow(ctx, e.store.DB, countSQL, countPB.Params()...)
	if err != nil {
		return nil, fmt.Errorf("count %s: %w", ent.Name, err)
	}
	total := toInt64(countRow["n"])

	pb := d.NewParamBuilder()
	where := whereSQL(d, ent, q.Search, q.UpdatedSince, pb)
	limit := pb.Add(q.PageSize)
	offset := pb.Add((q.Page - 1) * q.PageSize)
	selectSQL := fmt.Sprintf("SELECT %s FROM %s%s ORDER BY %s LIMIT %s OFFSET %s",
		strings.Join(ent.ColumnNames(), ", "), ent.Table, where,
		orderBy(ent, q.Sort, q.Order), limit, offset)

	rows, err := store.QueryRows(ctx, e.store.DB, selectSQL, pb.Params()...)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", ent.Name, err)
	}

	items := make([]map[string]any, 0, len(rows))
	for _, row := range rows {
		items = append(items, ent.SerializeRow(row))
	}

	return &Result{
		Page:     q.Page,
		PageSize: q.PageSize,
		Total:    total,
		Items:    items,
	}, nil
}

// Get fetches a single row by primary key.
func (e *Engine) Get(ctx context.Context, ent *entity.Entity, id int64) (map[string]any, error) {
	pb := e.store.Dialect.NewParamBuilder()
	sqlStr := fmt.Sprintf("SELECT %s FROM %s WHERE %s = %s",
		strings.Join(ent.ColumnNames(), ", "), ent.Table, ent.PrimaryKey, pb.Add(id))
	row, err := store.QueryRow(ctx, e.store.DB, sqlStr, pb.Params()...)
	if err != nil {
		return nil, err
	}
	return ent.SerializeRow(row), nil
}

// ExportCSV writes every row matching the search filter, ordered by primary
// key ascending. Pagination and sort parameters do not apply. Zero matching
// rows produce no output at all, not even a header.
func (e *Engine) ExportCSV(ctx context.Context, ent *entity.Entity, search string, w io.Writer) error {
	d := e.store.Dialect
	pb := d.NewParamBuilder()
	sqlStr := fmt.Sprintf("SELECT %s FROM %s%s ORDER BY %s ASC",
		strings.Join(ent.ColumnNames(), ", "), ent.Table,
		whereSQL(d, ent, search, nil, pb), ent.PrimaryKey)

	rows, err := store.QueryRows(ctx, e.store.DB, sqlStr, pb.Params()...)
	if err != nil {
		return fmt.Errorf("export %s: %w", ent.Name, err)
	}
	if len(rows) == 0 {
		return nil
	}

	columns := ent.ColumnNames()
	cw := csv.NewWriter(w)
	if err := cw.Write(columns); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	record := make([]string, len(columns))
	for _, row := range rows {
		serialized := ent.SerializeRow(row)
		for i, col := range columns {
			record[i] = csvCell(serialized[col])
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// whereSQL appends the search and updated_since filters to pb and returns
// the WHERE fragment (with leading space), or "" when unfiltered. Search is
// a case-insensitive literal substring match OR-ed across the entity's
// searchable columns.
func whereSQL(d store.Dialect, ent *entity.Entity, search string, updatedSince *time.Time, pb store.ParamBuilder) string {
	var clauses []string

	if search != "" {
		cols := ent.SearchableColumns()
		pattern := "%" + escapeLike(search) + "%"
		parts := make([]string, 0, len(cols))
		for _, col := range cols {
			parts = append(parts, d.ILike(col, pb.Add(pattern)))
		}
		if len(parts) > 0 {
			clauses = append(clauses, "("+strings.Join(parts, " OR ")+")")
		}
	}

	if updatedSince != nil {
		clauses = append(clauses, fmt.Sprintf("updated_at >= %s", pb.Add(d.TimeParam(*updatedSince))))
	}

	if len(clauses) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(clauses, " AND ")
}

// orderBy breaks ties with the primary key so pagination is deterministic
// across pages.
func orderBy(ent *entity.Entity, sort, order string) string {
	dir := "ASC"
	if order == "desc" {
		dir = "DESC"
	}
	clause := fmt.Sprintf("%s %s", sort, dir)
	if sort != ent.PrimaryKey {
		clause += fmt.Sprintf(", %s ASC", ent.PrimaryKey)
	}
	return clause
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike neutralizes LIKE metacharacters so user input matches as a
// literal substring.
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

func csvCell(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case int64:
		return fmt.Sprintf("%d", val)
	case float64:
		b, _ := json.Marshal(val)
		return string(b)
	case bool:
		if val {
			return "true"
		}
		return "false"
	default:
		// Structured values (parsed JSON columns) are re-serialized compactly.
		b, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprint(val)
		}
		return string(b)
	}
}

func toInt64(v any) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case int:
		return int64(n)
	case float64:
		return int64(n)
	default:
		return 0
	}
}
