package api

import (
	"net/http"
	"strconv"
	"strings"

	"gorm.io/gorm"
)

const (
	DefaultPageLimit = 25
	MaxPageLimit     = 100
)

// Page is parsed limit/offset pagination.
type Page struct {
	Limit  int
	Offset int
}

// ParsePage reads `limit` and `offset` query parameters, clamping to sane
// bounds. Bad values fall back to defaults rather than erroring.
func ParsePage(r *http.Request) Page {
	p := Page{Limit: DefaultPageLimit}

	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			p.Limit = n
		}
	}
	if p.Limit > MaxPageLimit {
		p.Limit = MaxPageLimit
	}

	if v := r.URL.Query().Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			p.Offset = n
		}
	}
	return p
}

func (p Page) Apply(tx *gorm.DB) *gorm.DB {
	return tx.Limit(p.Limit).Offset(p.Offset)
}

// ListResponse is the envelope for paginated collections.
type ListResponse struct {
	Count   int64 `json:"count"`
	Results any   `json:"results"`
}

// ParseOrdering turns an `ordering` query parameter like "-created_at,title"
// into ORDER BY clauses, keeping only whitelisted fields. The allowed map
// translates API field names to column expressions.
func ParseOrdering(r *http.Request, allowed map[string]string) []string {
	raw := r.URL.Query().Get("ordering")
	if raw == "" {
		return nil
	}

	var clauses []string
	for _, field := range strings.Split(raw, ",") {
		field = strings.TrimSpace(field)
		desc := strings.HasPrefix(field, "-")
		field = strings.TrimPrefix(field, "-")

		col, ok := allowed[field]
		if !ok {
			continue
		}
		if desc {
			col += " DESC"
		}
		clauses = append(clauses, col)
	}
	return clauses
}

// ApplyOrdering adds the parsed ORDER BY clauses to the query.
func ApplyOrdering(tx *gorm.DB, r *http.Request, allowed map[string]string) *gorm.DB {
	for _, clause := range ParseOrdering(r, allowed) {
		tx = tx.Order(clause)
	}
	return tx
}

// ApplySearch adds a case-insensitive substring match across the given
// column expressions when a `search` query parameter is present.
func ApplySearch(tx *gorm.DB, r *http.Request, columns ...string) *gorm.DB {
	term := strings.TrimSpace(r.URL.Query().Get("search"))
	if term == "" || len(columns) == 0 {
		return tx
	}

	pattern := "%" + term + "%"
	cond := ""
	args := make([]any, 0, len(columns))
	for i, col := range columns {
		if i > 0 {
			cond += " OR "
		}
		cond += col + " ILIKE ?"
		args = append(args, pattern)
	}
	return tx.Where(cond, args...)
}
