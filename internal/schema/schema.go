package schema

import "context"

// SemanticType is the value type of a column, independent of how the
// underlying store spells its storage type.
type SemanticType string

const (
	TypeString   SemanticType = "string"
	TypeText     SemanticType = "text"
	TypeEmail    SemanticType = "email"
	TypePassword SemanticType = "password"
	TypeInteger  SemanticType = "integer"
	TypeFloat    SemanticType = "float"
	TypeBoolean  SemanticType = "boolean"
	TypeDatetime SemanticType = "datetime"
	TypeDate     SemanticType = "date"
)

// Widget is the input-control category for a field.
type Widget string

const (
	WidgetText     Widget = "text"
	WidgetEmail    Widget = "email"
	WidgetPassword Widget = "password"
	WidgetNumber   Widget = "number"
	WidgetTextarea Widget = "textarea"
	WidgetCheckbox Widget = "checkbox"
	WidgetSelect   Widget = "select"
	WidgetDatetime Widget = "datetime"
	WidgetHidden   Widget = "hidden"
)

// ForeignKey names the table and column a column references.
type ForeignKey struct {
	Table  string `json:"table"`
	Column string `json:"column"`
}

// Column describes a single table column. Type and Widget are resolved once
// at registration time, not per request.
type Column struct {
	Name       string       `json:"name"`
	Type       SemanticType `json:"type"`
	Widget     Widget       `json:"widget"`
	Nullable   bool         `json:"nullable,omitempty"`
	HasDefault bool         `json:"has_default,omitempty"`
	PrimaryKey bool         `json:"primary_key,omitempty"`
	MaxLength  int          `json:"max_length,omitempty"`
	Ref        *ForeignKey  `json:"ref,omitempty"`
}

// Table is a read-only view of a table's columns and constraints.
// Immutable once loaded into the registry.
type Table struct {
	Name    string   `json:"name"`
	Columns []Column `json:"columns"`
}

// Column returns a pointer to the column with the given name, or nil.
func (t *Table) Column(name string) *Column {
	for i := range t.Columns {
		if t.Columns[i].Name == name {
			return &t.Columns[i]
		}
	}
	return nil
}

// HasColumn returns true if the table has a column with the given name.
func (t *Table) HasColumn(name string) bool {
	return t.Column(name) != nil
}

// ColumnNames returns all column names in declaration order.
func (t *Table) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

// PrimaryKeyColumn returns the primary key column. Falls back to the first
// column so that callers always have a stable ordering handle.
func (t *Table) PrimaryKeyColumn() *Column {
	for i := range t.Columns {
		if t.Columns[i].PrimaryKey {
			return &t.Columns[i]
		}
	}
	if len(t.Columns) > 0 {
		return &t.Columns[0]
	}
	return nil
}

// Source describes a table. Implementations must be deterministic for a
// given schema state.
type Source interface {
	Describe(ctx context.Context, table string) (*Table, error)
}
