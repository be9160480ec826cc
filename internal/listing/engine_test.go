package listing

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"formdesk/internal/config"
	"formdesk/internal/entity"
	"formdesk/internal/store"
)

func testStore(t *testing.T) *store.Store {
	t.Helper()
	ctx := context.Background()
	s, err := store.New(ctx, config.DatabaseConfig{
		Driver: "sqlite",
		Path:   t.TempDir(),
		Name:   "test",
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(s.Close)
	if err := s.Bootstrap(ctx); err != nil {
		t.Fatalf("bootstrap: %v", err)
	}
	return s
}

func seedQuestions(t *testing.T, s *store.Store, n int) {
	t.Helper()
	ctx := context.Background()
	for i := 1; i <= n; i++ {
		title := fmt.Sprintf("Item %02d", i)
		text := fmt.Sprintf("Body of question %d", i)
		if i%5 == 0 {
			text += " NEEDLE"
		}
		ts := fmt.Sprintf("2025-01-%02d 10:00:00", (i%27)+1)
		_, err := store.Exec(ctx, s.DB,
			"INSERT INTO questions (title, text, created_at, updated_at) VALUES (?1, ?2, ?3, ?4)",
			title, text, ts, ts)
		if err != nil {
			t.Fatalf("seed question %d: %v", i, err)
		}
	}
}

func mustList(t *testing.T, e *Engine, ent *entity.Entity, q *Query) *Result {
	t.Helper()
	res, err := e.List(context.Background(), ent, q)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	return res
}

func baseQuery() *Query {
	return &Query{Sort: "id", Order: "asc", Page: 1, PageSize: DefaultPageSize}
}

func TestProperty_PaginationLength(t *testing.T) {
	const total = 23
	s := testStore(t)
	seedQuestions(t, s, total)
	e := New(s)
	ent := entity.Questions()

	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("len(items) == min(page_size, max(0, total-(page-1)*page_size)) and total is page-invariant", prop.ForAll(
		func(page, pageSize int) bool {
			q := baseQuery()
			q.Page, q.PageSize = page, pageSize
			res, err := e.List(context.Background(), ent, q)
			if err != nil {
				return false
			}
			if res.Total != total {
				return false
			}
			want := total - (page-1)*pageSize
			if want < 0 {
				want = 0
			}
			if want > pageSize {
				want = pageSize
			}
			return len(res.Items) == want
		},
		gen.IntRange(1, 8),
		gen.IntRange(1, 30),
	))

	properties.TestingRun(t)
}

func TestList_SortReversal(t *testing.T) {
	s := testStore(t)
	seedQuestions(t, s, 9)
	e := New(s)
	ent := entity.Questions()

	asc := mustList(t, e, ent, &Query{Sort: "title", Order: "asc", Page: 1, PageSize: 100})
	desc := mustList(t, e, ent, &Query{Sort: "title", Order: "desc", Page: 1, PageSize: 100})

	if len(asc.Items) != len(desc.Items) {
		t.Fatalf("asc/desc row counts differ: %d vs %d", len(asc.Items), len(desc.Items))
	}
	n := len(asc.Items)
	for i := 0; i < n; i++ {
		a := asc.Items[i]["title"]
		d := desc.Items[n-1-i]["title"]
		if a != d {
			t.Fatalf("position %d: asc %v != reversed desc %v", i, a, d)
		}
	}
}

func TestList_SearchMatchesAnySearchableColumn(t *testing.T) {
	s := testStore(t)
	seedQuestions(t, s, 20)
	e := New(s)
	ent := entity.Questions()

	// "NEEDLE" appears only in text, every 5th row.
	q := baseQuery()
	q.Search = "needle"
	res := mustList(t, e, ent, q)
	if res.Total != 4 {
		t.Fatalf("expected 4 matches for case-insensitive text search, got %d", res.Total)
	}

	q = baseQuery()
	q.Search = "ITEM 01"
	res = mustList(t, e, ent, q)
	if res.Total != 1 {
		t.Fatalf("expected 1 match for title search, got %d", res.Total)
	}
}

func TestList_SearchIsLiteralSubstring(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	for _, title := range []string{"Sale 100% off", "Sale 100x off", "under_score", "underXscore"} {
		_, err := store.Exec(ctx, s.DB,
			"INSERT INTO questions (title, text, created_at, updated_at) VALUES (?1, ?2, ?3, ?4)",
			title, "body", "2025-01-01 10:00:00", "2025-01-01 10:00:00")
		if err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
	e := New(s)
	ent := entity.Questions()

	q := baseQuery()
	q.Search = "100%"
	res := mustList(t, e, ent, q)
	if res.Total != 1 {
		t.Fatalf("%% must not act as a wildcard: got %d matches", res.Total)
	}

	q = baseQuery()
	q.Search = "under_"
	res = mustList(t, e, ent, q)
	if res.Total != 1 {
		t.Fatalf("_ must not act as a wildcard: got %d matches", res.Total)
	}
}

func TestList_UpdatedSinceFilters(t *testing.T) {
	s := testStore(t)
	seedQuestions(t, s, 10) // updated_at spread over 2025-01-02..2025-01-11
	e := New(s)
	ent := entity.Questions()

	since, err := ParseTimestamp("2025-01-08T00:00:00Z")
	if err != nil {
		t.Fatalf("parse timestamp: %v", err)
	}
	q := baseQuery()
	q.UpdatedSince = &since
	res := mustList(t, e, ent, q)
	if res.Total != 4 {
		t.Fatalf("expected 4 rows updated since 2025-01-08, got %d", res.Total)
	}
}

func TestList_SerializesTimestampsAsISO8601(t *testing.T) {
	s := testStore(t)
	seedQuestions(t, s, 1)
	e := New(s)

	res := mustList(t, e, entity.Questions(), baseQuery())
	got, ok := res.Items[0]["created_at"].(string)
	if !ok {
		t.Fatalf("created_at not serialized to string: %T", res.Items[0]["created_at"])
	}
	if got != "2025-01-02T10:00:00Z" {
		t.Fatalf("unexpected timestamp serialization: %s", got)
	}
}

func TestGet_NotFound(t *testing.T) {
	s := testStore(t)
	e := New(s)
	_, err := e.Get(context.Background(), entity.Questions(), 42)
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestExportCSV_RowCountMatchesFilter(t *testing.T) {
	s := testStore(t)
	seedQuestions(t, s, 20)
	e := New(s)
	ent := entity.Questions()

	var buf bytes.Buffer
	if err := e.ExportCSV(context.Background(), ent, "needle", &buf); err != nil {
		t.Fatalf("export: %v", err)
	}
	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("parse exported csv: %v", err)
	}
	// Header plus the 4 matching rows.
	if len(records) != 5 {
		t.Fatalf("expected 5 csv records, got %d", len(records))
	}
	wantHeader := ent.ColumnNames()
	for i, col := range wantHeader {
		if records[0][i] != col {
			t.Fatalf("header mismatch at %d: got %q want %q", i, records[0][i], col)
		}
	}
}

func TestExportCSV_EmptyResultProducesNoOutput(t *testing.T) {
	s := testStore(t)
	e := New(s)

	var buf bytes.Buffer
	if err := e.ExportCSV(context.Background(), entity.Questions(), "", &buf); err != nil {
		t.Fatalf("export: %v", err)
	}
	if buf.Len() != 0 {
		t.Fatalf("expected empty output for zero rows, got %q", buf.String())
	}
}

func TestExportCSV_ExpandsJSONColumns(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	_, err := store.Exec(ctx, s.DB,
		"INSERT INTO completed_forms (template_name, timestamp, form_data) VALUES (?1, ?2, ?3)",
		"survey", "2025-02-01 09:00:00", `{"Name":"Ann"}`)
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	e := New(s)

	var buf bytes.Buffer
	if err := e.ExportCSV(ctx, entity.CompletedForms(), "", &buf); err != nil {
		t.Fatalf("export: %v", err)
	}
	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("parse exported csv: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected header + 1 row, got %d records", len(records))
	}
	// form_data is the last column; it must be the parsed value re-serialized,
	// not the raw stored text with incidental formatting.
	if records[1][3] != `{"Name":"Ann"}` {
		t.Fatalf("unexpected form_data cell: %q", records[1][3])
	}
	if records[1][2] != "2025-02-01T09:00:00Z" {
		t.Fatalf("unexpected timestamp cell: %q", records[1][2])
	}
}
