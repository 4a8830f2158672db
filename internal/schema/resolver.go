package schema

import "strings"

// rawColumn is a column as reported by a Source before type resolution.
type rawColumn struct {
	Name       string
	DataType   string // storage type, e.g. "integer", "character varying"
	Nullable   bool
	HasDefault bool
	PrimaryKey bool
	MaxLength  int
	Ref        *ForeignKey
}

// resolveRule maps a column to its semantic type and widget when the
// predicate matches. Rules are evaluated in order; the first match wins,
// except that a foreign-key target forces the select widget afterwards.
type resolveRule struct {
	match func(rawColumn) bool
	typ   SemanticType
	widget Widget
}

var longTextNames = map[string]bool{
	"description": true,
	"content":     true,
	"notes":       true,
}

var resolveRules = []resolveRule{
	{
		match: func(c rawColumn) bool { return strings.Contains(strings.ToLower(c.Name), "email") },
		typ:   TypeEmail, widget: WidgetEmail,
	},
	{
		match: func(c rawColumn) bool { return strings.Contains(strings.ToLower(c.Name), "password") },
		typ:   TypePassword, widget: WidgetPassword,
	},
	{
		match: func(c rawColumn) bool { return longTextNames[strings.ToLower(c.Name)] },
		typ:   TypeText, widget: WidgetTextarea,
	},
	{
		match: storageTypeIn("integer", "bigint", "smallint", "int", "int4", "int8", "serial", "bigserial"),
		typ:   TypeInteger, widget: WidgetNumber,
	},
	{
		match: storageTypeIn("boolean", "bool"),
		typ:   TypeBoolean, widget: WidgetCheckbox,
	},
	{
		match: storageTypeIn("timestamp with time zone", "timestamp without time zone", "timestamptz", "timestamp", "datetime"),
		typ:   TypeDatetime, widget: WidgetDatetime,
	},
	{
		match: storageTypeIn("date"),
		typ:   TypeDate, widget: WidgetDatetime,
	},
	{
		match: storageTypeIn("numeric", "decimal", "real", "double precision", "float", "float4", "float8"),
		typ:   TypeFloat, widget: WidgetNumber,
	},
	{
		match: storageTypeIn("text"),
		typ:   TypeText, widget: WidgetTextarea,
	},
}

func storageTypeIn(types ...string) func(rawColumn) bool {
	set := make(map[string]bool, len(types))
	for _, t := range types {
		set[t] = true
	}
	return func(c rawColumn) bool {
		return set[strings.ToLower(c.DataType)]
	}
}

// Resolve maps a raw column to a fully typed Column. Total: every input
// yields exactly one (type, widget) pair. Name-based rules take precedence
// over storage-type rules; a foreign-key reference overrides the widget to
// select last.
func Resolve(raw rawColumn) Column {
	col := Column{
		Name:       raw.Name,
		Type:       TypeString,
		Widget:     WidgetText,
		Nullable:   raw.Nullable,
		HasDefault: raw.HasDefault,
		PrimaryKey: raw.PrimaryKey,
		MaxLength:  raw.MaxLength,
		Ref:        raw.Ref,
	}
	for _, rule := range resolveRules {
		if rule.match(raw) {
			col.Type = rule.typ
			col.Widget = rule.widget
			break
		}
	}
	if raw.Ref != nil {
		col.Widget = WidgetSelect
	}
	return col
}
