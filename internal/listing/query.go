package listing

import (
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"formdesk/internal/entity"
)

const (
	DefaultPageSize = 100
	MaxPageSize     = 1000
)

// Query is a normalized list request. Page and PageSize are always within
// range after ParseQuery; Sort is always a declared column of the entity.
type Query struct {
	Search       string
	UpdatedSince *time.Time
	Sort         string
	Order        string // "asc" or "desc"
	Page         int
	PageSize     int
}

// ParseQuery parses Fiber query parameters into a Query for the given
// entity. Sort columns outside the entity's declared set are rejected;
// pagination values are clamped rather than rejected.
func ParseQuery(c *fiber.Ctx, ent *entity.Entity) (*Query, error) {
	q := &Query{
		Search:   c.Query("search"),
		Sort:     ent.PrimaryKey,
		Order:    "asc",
		Page:     1,
		PageSize: DefaultPageSize,
	}

	// updated_since only applies to entities that track update times.
	if raw := c.Query("updated_since"); raw != "" && ent.HasColumn("updated_at") {
		ts, err := ParseTimestamp(raw)
		if err != nil {
			return nil, InvalidTimestampError("updated_since")
		}
		q.UpdatedSince = &ts
	}

	if sort := c.Query("sort"); sort != "" {
		if !ent.HasColumn(sort) {
			return nil, InvalidSortColumnError(sort)
		}
		q.Sort = sort
	}

	if strings.EqualFold(c.Query("order"), "desc") {
		q.Order = "desc"
	}

	if p := c.Query("page"); p != "" {
		if v, err := strconv.Atoi(p); err == nil && v > 1 {
			q.Page = v
		}
	}
	if ps := c.Query("page_size"); ps != "" {
		if v, err := strconv.Atoi(ps); err == nil {
			q.PageSize = clamp(v, 1, MaxPageSize)
		}
	}

	return q, nil
}

// ParseTimestamp accepts the ISO-8601 layouts the API tolerates: full
// RFC3339 (with or without fractional seconds), a bare date-time without
// offset (treated as UTC), and a bare date.
func ParseTimestamp(s string) (time.Time, error) {
	layouts := []string{
		time.RFC3339Nano,
		"2006-01-02T15:04:05.999999999",
		"2006-01-02T15:04:05",
		"2006-01-02",
	}
	var lastErr error
	for _, layout := range layouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t.UTC(), nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
