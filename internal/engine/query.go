package engine

import (
	"fmt"
	"sort"
	"strings"

	"fastadmin/internal/admin"
)

// ListQuery is the parsed input for a list page: free-text search, exact
// column filters, explicit ordering and pagination.
type ListQuery struct {
	Search  string
	Filters map[string]any
	OrderBy string
	Desc    bool
	Page    int
	PerPage int
}

type QueryResult struct {
	SQL    string
	Params []any
}

type paramBuilder struct {
	params []any
	n      int
}

func (p *paramBuilder) Add(v any) string {
	p.n++
	p.params = append(p.params, v)
	return fmt.Sprintf("$%d", p.n)
}

// BuildListSQL builds the parameterized SELECT for a list page. Search terms
// match any configured search column case-insensitively; filters are exact
// matches combined with AND.
func BuildListSQL(cfg *admin.Config, q *ListQuery) QueryResult {
	pb := &paramBuilder{}

	columns := strings.Join(cfg.DisplayColumns(), ", ")
	sql := fmt.Sprintf("SELECT %s FROM %s", columns, cfg.Table.Name)

	if where := buildWhere(cfg, q, pb); where != "" {
		sql += " WHERE " + where
	}

	sql += " ORDER BY " + orderClause(cfg, q)

	limit := pb.Add(q.PerPage)
	offset := pb.Add((q.Page - 1) * q.PerPage)
	sql += fmt.Sprintf(" LIMIT %s OFFSET %s", limit, offset)

	return QueryResult{SQL: sql, Params: pb.params}
}

// BuildCountSQL builds a COUNT query sharing the list query's WHERE clause.
func BuildCountSQL(cfg *admin.Config, q *ListQuery) QueryResult {
	pb := &paramBuilder{}
	sql := fmt.Sprintf("SELECT COUNT(*) AS count FROM %s", cfg.Table.Name)
	if where := buildWhere(cfg, q, pb); where != "" {
		sql += " WHERE " + where
	}
	return QueryResult{SQL: sql, Params: pb.params}
}

func buildWhere(cfg *admin.Config, q *ListQuery, pb *paramBuilder) string {
	var where []string

	if q.Search != "" && len(cfg.SearchFields) > 0 {
		term := pb.Add("%" + q.Search + "%")
		var ors []string
		for _, col := range cfg.SearchFields {
			ors = append(ors, fmt.Sprintf("%s::text ILIKE %s", col, term))
		}
		where = append(where, "("+strings.Join(ors, " OR ")+")")
	}

	if len(q.Filters) > 0 {
		keys := make([]string, 0, len(q.Filters))
		for k := range q.Filters {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			where = append(where, fmt.Sprintf("%s = %s", k, pb.Add(q.Filters[k])))
		}
	}

	return strings.Join(where, " AND ")
}

func orderClause(cfg *admin.Config, q *ListQuery) string {
	col := q.OrderBy
	if col == "" {
		order := cfg.OrderColumns()
		if len(order) > 0 {
			col = order[0]
		} else {
			col = cfg.DisplayColumns()[0]
		}
	}
	dir := "ASC"
	if q.Desc {
		dir = "DESC"
	}
	return col + " " + dir
}

// BuildInsertSQL builds an INSERT for the supplied payload keys, sorted for
// deterministic statements, returning the full row.
func BuildInsertSQL(cfg *admin.Config, payload map[string]any) QueryResult {
	pb := &paramBuilder{}

	keys := make([]string, 0, len(payload))
	for k := range payload {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	placeholders := make([]string, 0, len(keys))
	for _, k := range keys {
		placeholders = append(placeholders, pb.Add(payload[k]))
	}

	sql := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) RETURNING *",
		cfg.Table.Name,
		strings.Join(keys, ", "),
		strings.Join(placeholders, ", "),
	)
	return QueryResult{SQL: sql, Params: pb.params}
}

// BuildUpdateSQL builds an UPDATE that touches only the supplied keys.
func BuildUpdateSQL(cfg *admin.Config, id any, payload map[string]any) QueryResult {
	pb := &paramBuilder{}

	keys := make([]string, 0, len(payload))
	for k := range payload {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	sets := make([]string, 0, len(keys))
	for _, k := range keys {
		sets = append(sets, fmt.Sprintf("%s = %s", k, pb.Add(payload[k])))
	}

	pkName := cfg.Table.PrimaryKeyColumn().Name
	sql := fmt.Sprintf("UPDATE %s SET %s WHERE %s = %s RETURNING *",
		cfg.Table.Name,
		strings.Join(sets, ", "),
		pkName,
		pb.Add(id),
	)
	return QueryResult{SQL: sql, Params: pb.params}
}

func BuildSelectOneSQL(cfg *admin.Config, id any) QueryResult {
	pb := &paramBuilder{}
	pkName := cfg.Table.PrimaryKeyColumn().Name

	var cols []string
	for _, c := range cfg.Table.Columns {
		if strings.Contains(strings.ToLower(c.Name), "password") {
			continue
		}
		cols = append(cols, c.Name)
	}

	sql := fmt.Sprintf("SELECT %s FROM %s WHERE %s = %s",
		strings.Join(cols, ", "), cfg.Table.Name, pkName, pb.Add(id))
	return QueryResult{SQL: sql, Params: pb.params}
}

func BuildDeleteSQL(cfg *admin.Config, id any) QueryResult {
	pb := &paramBuilder{}
	pkName := cfg.Table.PrimaryKeyColumn().Name
	sql := fmt.Sprintf("DELETE FROM %s WHERE %s = %s", cfg.Table.Name, pkName, pb.Add(id))
	return QueryResult{SQL: sql, Params: pb.params}
}

// BuildBulkDeleteSQL deletes every listed id in one statement and returns the
// ids actually removed, so callers can report partial success.
func BuildBulkDeleteSQL(cfg *admin.Config, ids []any) QueryResult {
	pb := &paramBuilder{}
	pkName := cfg.Table.PrimaryKeyColumn().Name
	sql := fmt.Sprintf("DELETE FROM %s WHERE %s = ANY(%s) RETURNING %s",
		cfg.Table.Name, pkName, pb.Add(ids), pkName)
	return QueryResult{SQL: sql, Params: pb.params}
}
