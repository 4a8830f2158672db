package validation

import (
	"fmt"

	"github.com/xeipuuv/gojsonschema"

	"fastadmin/internal/schema"
)

// FieldError is a single classified validation failure.
type FieldError struct {
	Field   string `json:"field,omitempty"`
	Rule    string `json:"rule,omitempty"`
	Message string `json:"message"`
}

// autoManaged lists field names the system owns. They are excluded from
// create payloads because the store generates them, and from update payloads
// because they must never be user-mutable after creation.
var autoManaged = map[string]bool{
	"created_at":  true,
	"updated_at":  true,
	"date_joined": true,
	"last_login":  true,
	"assigned_at": true,
}

// Model is a compiled validation schema for one table and mode.
type Model struct {
	table    *schema.Table
	compiled *gojsonschema.Schema
	fields   map[string]bool
}

// Fields returns the names of fields the model accepts.
func (m *Model) Fields() []string {
	names := make([]string, 0, len(m.fields))
	for _, c := range m.table.Columns {
		if m.fields[c.Name] {
			names = append(names, c.Name)
		}
	}
	return names
}

// Accepts reports whether the model accepts the named field.
func (m *Model) Accepts(name string) bool {
	return m.fields[name]
}

// BuildCreate builds the create-mode model. A field is required iff it is
// not nullable, has no default, and is not the primary key. Auto-managed
// fields and the excludes list are dropped entirely.
func BuildCreate(t *schema.Table, exclude []string) (*Model, error) {
	skip := excludeSet(exclude)
	properties := map[string]any{}
	var required []string
	fields := map[string]bool{}

	for _, col := range t.Columns {
		if col.PrimaryKey || autoManaged[col.Name] || skip[col.Name] {
			continue
		}
		properties[col.Name] = columnSchema(col)
		fields[col.Name] = true
		if !col.Nullable && !col.HasDefault {
			required = append(required, col.Name)
		}
	}

	return compile(t, properties, required, fields)
}

// BuildUpdate builds the update-mode model: every field optional, so a
// partial payload only touches the keys explicitly present.
func BuildUpdate(t *schema.Table) (*Model, error) {
	properties := map[string]any{}
	fields := map[string]bool{}

	for _, col := range t.Columns {
		if col.PrimaryKey || autoManaged[col.Name] {
			continue
		}
		properties[col.Name] = columnSchema(col)
		fields[col.Name] = true
	}

	return compile(t, properties, nil, fields)
}

func compile(t *schema.Table, properties map[string]any, required []string, fields map[string]bool) (*Model, error) {
	doc := map[string]any{
		"type":                 "object",
		"properties":           properties,
		"additionalProperties": false,
	}
	if len(required) > 0 {
		doc["required"] = required
	}

	compiled, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(doc))
	if err != nil {
		return nil, fmt.Errorf("compile schema for %s: %w", t.Name, err)
	}
	return &Model{table: t, compiled: compiled, fields: fields}, nil
}

// columnSchema maps a column to its JSON schema fragment. Only constraints
// present in the source schema are emitted.
func columnSchema(col schema.Column) map[string]any {
	frag := map[string]any{}

	var jsonType string
	switch col.Type {
	case schema.TypeInteger:
		jsonType = "integer"
	case schema.TypeFloat:
		jsonType = "number"
	case schema.TypeBoolean:
		jsonType = "boolean"
	default:
		jsonType = "string"
	}

	if col.Nullable {
		frag["type"] = []string{jsonType, "null"}
	} else {
		frag["type"] = jsonType
	}

	if col.Type == schema.TypeEmail {
		frag["format"] = "email"
	}
	if col.MaxLength > 0 && jsonType == "string" {
		frag["maxLength"] = col.MaxLength
	}

	return frag
}

// Validate checks a payload against the model and returns per-field errors.
// An empty result means the payload is valid.
func (m *Model) Validate(payload map[string]any) []FieldError {
	result, err := m.compiled.Validate(gojsonschema.NewGoLoader(payload))
	if err != nil {
		return []FieldError{{Rule: "schema", Message: err.Error()}}
	}
	if result.Valid() {
		return nil
	}

	errs := make([]FieldError, 0, len(result.Errors()))
	for _, re := range result.Errors() {
		errs = append(errs, fieldErrorFrom(re))
	}
	return errs
}

func fieldErrorFrom(re gojsonschema.ResultError) FieldError {
	field := re.Field()
	if field == "(root)" {
		if p, ok := re.Details()["property"].(string); ok {
			field = p
		}
	}
	return FieldError{
		Field:   field,
		Rule:    re.Type(),
		Message: re.Description(),
	}
}
