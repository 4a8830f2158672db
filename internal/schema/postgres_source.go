package schema

import (
	"context"
	"fmt"

	"fastadmin/internal/store"
)

const columnsQuery = `
SELECT column_name, data_type, is_nullable, column_default, character_maximum_length
FROM information_schema.columns
WHERE table_schema = 'public' AND table_name = $1
ORDER BY ordinal_position`

const primaryKeyQuery = `
SELECT kcu.column_name
FROM information_schema.table_constraints tc
JOIN information_schema.key_column_usage kcu
  ON kcu.constraint_name = tc.constraint_name AND kcu.table_schema = tc.table_schema
WHERE tc.table_schema = 'public' AND tc.table_name = $1 AND tc.constraint_type = 'PRIMARY KEY'`

const foreignKeyQuery = `
SELECT kcu.column_name, ccu.table_name AS ref_table, ccu.column_name AS ref_column
FROM information_schema.table_constraints tc
JOIN information_schema.key_column_usage kcu
  ON kcu.constraint_name = tc.constraint_name AND kcu.table_schema = tc.table_schema
JOIN information_schema.constraint_column_usage ccu
  ON ccu.constraint_name = tc.constraint_name AND ccu.table_schema = tc.table_schema
WHERE tc.table_schema = 'public' AND tc.table_name = $1 AND tc.constraint_type = 'FOREIGN KEY'`

// PostgresSource describes tables by introspecting information_schema.
type PostgresSource struct {
	store *store.Store
}

func NewPostgresSource(s *store.Store) *PostgresSource {
	return &PostgresSource{store: s}
}

// Describe loads the column, primary-key and foreign-key metadata for a
// table and resolves each column through the rule table. Deterministic for
// a given database schema.
func (p *PostgresSource) Describe(ctx context.Context, table string) (*Table, error) {
	cols, err := store.QueryRows(ctx, p.store.Pool, columnsQuery, table)
	if err != nil {
		return nil, fmt.Errorf("describe %s: %w", table, err)
	}
	if len(cols) == 0 {
		return nil, fmt.Errorf("describe %s: %w", table, store.ErrNotFound)
	}

	pkRows, err := store.QueryRows(ctx, p.store.Pool, primaryKeyQuery, table)
	if err != nil {
		return nil, fmt.Errorf("describe %s primary key: %w", table, err)
	}
	pks := make(map[string]bool, len(pkRows))
	for _, row := range pkRows {
		pks[asString(row["column_name"])] = true
	}

	fkRows, err := store.QueryRows(ctx, p.store.Pool, foreignKeyQuery, table)
	if err != nil {
		return nil, fmt.Errorf("describe %s foreign keys: %w", table, err)
	}
	refs := make(map[string]*ForeignKey, len(fkRows))
	for _, row := range fkRows {
		refs[asString(row["column_name"])] = &ForeignKey{
			Table:  asString(row["ref_table"]),
			Column: asString(row["ref_column"]),
		}
	}

	t := &Table{Name: table, Columns: make([]Column, 0, len(cols))}
	for _, row := range cols {
		name := asString(row["column_name"])
		t.Columns = append(t.Columns, Resolve(rawColumn{
			Name:       name,
			DataType:   asString(row["data_type"]),
			Nullable:   asString(row["is_nullable"]) == "YES",
			HasDefault: row["column_default"] != nil,
			PrimaryKey: pks[name],
			MaxLength:  asInt(row["character_maximum_length"]),
			Ref:        refs[name],
		}))
	}
	return t, nil
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}

func asInt(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case int32:
		return int(n)
	case int64:
		return int(n)
	case float64:
		return int(n)
	}
	return 0
}
