package admin

import (
	"fmt"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"fastadmin/internal/schema"
)

const defaultPerPage = 25

// Rule is an optional record-level validation rule evaluated on create and
// update. The expression runs against {record, old, action}; when it
// evaluates to true the write is rejected with Message.
type Rule struct {
	Name       string `json:"name"`
	Expression string `json:"expression"`
	Message    string `json:"message"`

	// Compiled once by Registry.Register. A bad expression lands in
	// CompileErr so writes against the table fail loudly instead of the
	// rule silently passing.
	Compiled   *vm.Program `json:"-"`
	CompileErr error       `json:"-"`
}

func compileRule(expression string) (*vm.Program, error) {
	prog, err := expr.Compile(expression, expr.AsBool())
	if err != nil {
		return nil, fmt.Errorf("compile rule expression: %w", err)
	}
	return prog, nil
}

// Config is the per-table admin configuration. Zero-value slices fall back
// to defaults derived from the table descriptor.
type Config struct {
	Table *schema.Table

	ListDisplay  []string
	ListFilter   []string
	SearchFields []string
	Ordering     []string
	PerPage      int

	Fields   []string // explicit form field whitelist
	Exclude  []string // form field blacklist
	Readonly []string
	Rules    []Rule
}

// Option mutates a Config during registration.
type Option func(*Config)

func WithListDisplay(fields ...string) Option {
	return func(c *Config) { c.ListDisplay = fields }
}

func WithListFilter(fields ...string) Option {
	return func(c *Config) { c.ListFilter = fields }
}

func WithSearchFields(fields ...string) Option {
	return func(c *Config) { c.SearchFields = fields }
}

func WithOrdering(fields ...string) Option {
	return func(c *Config) { c.Ordering = fields }
}

func WithPerPage(n int) Option {
	return func(c *Config) { c.PerPage = n }
}

func WithFields(fields ...string) Option {
	return func(c *Config) { c.Fields = fields }
}

func WithExclude(fields ...string) Option {
	return func(c *Config) { c.Exclude = fields }
}

func WithReadonly(fields ...string) Option {
	return func(c *Config) { c.Readonly = fields }
}

func WithRules(rules ...Rule) Option {
	return func(c *Config) { c.Rules = append(c.Rules, rules...) }
}

// DisplayColumns returns the configured list columns, defaulting to every
// column whose name does not contain "password".
func (c *Config) DisplayColumns() []string {
	if len(c.ListDisplay) > 0 {
		return c.ListDisplay
	}
	var names []string
	for _, col := range c.Table.Columns {
		if strings.Contains(strings.ToLower(col.Name), "password") {
			continue
		}
		names = append(names, col.Name)
	}
	return names
}

// OrderColumns returns the configured default ordering, falling back to the
// primary key column.
func (c *Config) OrderColumns() []string {
	if len(c.Ordering) > 0 {
		return c.Ordering
	}
	if pk := c.Table.PrimaryKeyColumn(); pk != nil {
		return []string{pk.Name}
	}
	return nil
}

// PageSize returns the configured page size, defaulting to 25.
func (c *Config) PageSize() int {
	if c.PerPage > 0 {
		return c.PerPage
	}
	return defaultPerPage
}

// IsReadonly reports whether the named field is configured read-only.
func (c *Config) IsReadonly(name string) bool {
	for _, f := range c.Readonly {
		if f == name {
			return true
		}
	}
	return false
}

// FormIncludes reports whether the named field participates in forms, given
// the explicit include/exclude lists.
func (c *Config) FormIncludes(name string) bool {
	for _, f := range c.Exclude {
		if f == name {
			return false
		}
	}
	if len(c.Fields) == 0 {
		return true
	}
	for _, f := range c.Fields {
		if f == name {
			return true
		}
	}
	return false
}
