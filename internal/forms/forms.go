package forms

import (
	"context"
	"strings"

	"github.com/sirupsen/logrus"

	"fastadmin/internal/admin"
	"fastadmin/internal/schema"
)

// Mode selects which form variant to build.
type Mode string

const (
	ModeCreate Mode = "create"
	ModeUpdate Mode = "update"
)

// Choice is a single option for a select field.
type Choice struct {
	Value any    `json:"value"`
	Label string `json:"label"`
}

// Field is a renderable field spec.
type Field struct {
	Name        string        `json:"name"`
	Widget      schema.Widget `json:"widget"`
	Label       string        `json:"label"`
	Required    bool          `json:"required"`
	Placeholder string        `json:"placeholder,omitempty"`
	Help        string        `json:"help,omitempty"`
	MaxLength   int           `json:"max_length,omitempty"`
	Min         *float64      `json:"min,omitempty"`
	Max         *float64      `json:"max,omitempty"`
	Readonly    bool          `json:"readonly,omitempty"`
	Choices     []Choice      `json:"choices,omitempty"`
	Default     any           `json:"default,omitempty"`
}

// Spec is the ordered field list for one table and mode.
type Spec struct {
	Table  string  `json:"table"`
	Mode   Mode    `json:"mode"`
	Fields []Field `json:"fields"`
}

// Fields created by the system at insert time. Never shown on create forms.
var createExcluded = map[string]bool{
	"created_at":  true,
	"updated_at":  true,
	"date_joined": true,
	"last_login":  true,
	"assigned_at": true,
}

// Strictly immutable after creation. Stay excluded on update forms; other
// auto-managed fields reappear there as readonly.
var updateExcluded = map[string]bool{
	"created_at":  true,
	"date_joined": true,
	"assigned_at": true,
}

var readonlyNames = map[string]bool{
	"created_at":  true,
	"updated_at":  true,
	"date_joined": true,
	"last_login":  true,
}

// preferredDisplay is tried in order when choosing the human-readable column
// for foreign-key options.
var preferredDisplay = []string{"name", "title", "label", "username", "email", "description"}

// Builder constructs form specs. Form shape is pure; option values come from
// the ChoiceLoader collaborator, so shape construction stays cacheable.
type Builder struct {
	Registry *admin.Registry
	Choices  ChoiceLoader
}

func NewBuilder(reg *admin.Registry, choices ChoiceLoader) *Builder {
	return &Builder{Registry: reg, Choices: choices}
}

// Build returns the form spec for a table. Choice loading failures degrade
// to an empty option list; they never fail the build.
func (b *Builder) Build(ctx context.Context, cfg *admin.Config, mode Mode) *Spec {
	spec := &Spec{Table: cfg.Table.Name, Mode: mode}

	for _, col := range cfg.Table.Columns {
		if col.PrimaryKey {
			continue
		}
		if mode == ModeCreate && createExcluded[col.Name] {
			continue
		}
		if mode == ModeUpdate && updateExcluded[col.Name] {
			continue
		}
		if !cfg.FormIncludes(col.Name) {
			continue
		}

		field := b.buildField(ctx, cfg, col, mode)
		spec.Fields = append(spec.Fields, field)
	}

	return spec
}

func (b *Builder) buildField(ctx context.Context, cfg *admin.Config, col schema.Column, mode Mode) Field {
	field := Field{
		Name:      col.Name,
		Widget:    col.Widget,
		Label:     labelFor(col.Name),
		Required:  mode == ModeCreate && !col.Nullable && !col.HasDefault,
		MaxLength: col.MaxLength,
		Readonly:  cfg.IsReadonly(col.Name) || readonlyNames[col.Name],
	}

	// Password hashes must never surface in edit forms.
	if col.Type == schema.TypePassword {
		field.Widget = schema.WidgetHidden
	}

	switch field.Widget {
	case schema.WidgetText, schema.WidgetEmail:
		field.Placeholder = "Enter " + strings.ReplaceAll(strings.ToLower(col.Name), "_", " ")
	case schema.WidgetTextarea:
		field.Placeholder = "Enter " + strings.ReplaceAll(strings.ToLower(col.Name), "_", " ") + "..."
	}

	if col.Ref != nil {
		field.Choices = b.loadChoices(ctx, col)
	}

	return field
}

func (b *Builder) loadChoices(ctx context.Context, col schema.Column) []Choice {
	choices := []Choice{}
	if col.Nullable {
		choices = append(choices, Choice{Value: "", Label: "---------"})
	}

	if b.Choices == nil {
		return choices
	}

	display := col.Ref.Column
	if target := b.Registry.Get(col.Ref.Table); target != nil {
		display = displayColumn(target.Table)
	}

	loaded, err := b.Choices.Load(ctx, col.Ref.Table, col.Ref.Column, display)
	if err != nil {
		logrus.WithError(err).WithField("table", col.Ref.Table).
			Warn("loading foreign-key choices failed, rendering empty option list")
		return choices
	}
	return append(choices, loaded...)
}

// displayColumn picks the human-readable column for a referenced table:
// first match in the preferred-name list, else the primary key.
func displayColumn(t *schema.Table) string {
	for _, name := range preferredDisplay {
		if t.HasColumn(name) {
			return name
		}
	}
	if pk := t.PrimaryKeyColumn(); pk != nil {
		return pk.Name
	}
	return t.Columns[0].Name
}

func labelFor(name string) string {
	words := strings.Split(strings.ReplaceAll(name, "_", " "), " ")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
