package admin

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fastadmin/internal/schema"
)

func TestRegistryRegisterAndGet(t *testing.T) {
	reg := NewRegistry()
	table := &schema.Table{Name: "widgets", Columns: []schema.Column{
		{Name: "id", PrimaryKey: true},
		{Name: "name"},
	}}

	cfg := reg.Register(table, WithPerPage(50))
	require.NotNil(t, cfg)
	assert.Same(t, cfg, reg.Get("widgets"))
	assert.Nil(t, reg.Get("missing"))

	reg.Unregister("widgets")
	assert.Nil(t, reg.Get("widgets"))
}

func TestRegistryTablesSorted(t *testing.T) {
	reg := NewRegistry()
	for _, name := range []string{"zebra", "alpha", "mango"} {
		reg.Register(&schema.Table{Name: name, Columns: []schema.Column{{Name: "id", PrimaryKey: true}}})
	}
	assert.Equal(t, []string{"alpha", "mango", "zebra"}, reg.Tables())
}

func TestRegisterReplacesConfig(t *testing.T) {
	reg := NewRegistry()
	table := &schema.Table{Name: "widgets", Columns: []schema.Column{{Name: "id", PrimaryKey: true}}}

	first := reg.Register(table)
	second := reg.Register(table, WithPerPage(10))
	assert.NotSame(t, first, second)
	assert.Same(t, second, reg.Get("widgets"))
}

func TestConfigDefaults(t *testing.T) {
	table := &schema.Table{Name: "accounts", Columns: []schema.Column{
		{Name: "id", PrimaryKey: true},
		{Name: "login"},
		{Name: "password_hash"},
		{Name: "api_password"},
	}}
	cfg := &Config{Table: table}

	// Password-ish columns never appear in the default list display.
	assert.Equal(t, []string{"id", "login"}, cfg.DisplayColumns())
	assert.Equal(t, []string{"id"}, cfg.OrderColumns())
	assert.Equal(t, defaultPerPage, cfg.PageSize())
	assert.False(t, cfg.IsReadonly("login"))
	assert.True(t, cfg.FormIncludes("login"))
}

func TestConfigOverrides(t *testing.T) {
	table := &schema.Table{Name: "accounts", Columns: []schema.Column{
		{Name: "id", PrimaryKey: true},
		{Name: "login"},
		{Name: "note"},
	}}
	cfg := &Config{Table: table}
	WithListDisplay("login")(cfg)
	WithOrdering("login")(cfg)
	WithPerPage(10)(cfg)
	WithFields("login")(cfg)
	WithReadonly("note")(cfg)

	assert.Equal(t, []string{"login"}, cfg.DisplayColumns())
	assert.Equal(t, []string{"login"}, cfg.OrderColumns())
	assert.Equal(t, 10, cfg.PageSize())
	assert.True(t, cfg.IsReadonly("note"))
	assert.True(t, cfg.FormIncludes("login"))
	assert.False(t, cfg.FormIncludes("note"), "whitelist excludes unlisted fields")
}

func TestConfigExcludeBeatsFields(t *testing.T) {
	cfg := &Config{Table: &schema.Table{Name: "x"}}
	WithFields("a", "b")(cfg)
	WithExclude("b")(cfg)

	assert.True(t, cfg.FormIncludes("a"))
	assert.False(t, cfg.FormIncludes("b"))
}

func TestRegisterBuiltins(t *testing.T) {
	reg := NewRegistry()
	RegisterBuiltins(reg)

	assert.Len(t, reg.Tables(), 7)

	users := reg.Get("users")
	require.NotNil(t, users)
	assert.Contains(t, users.Exclude, "password_hash")
	assert.Contains(t, users.SearchFields, "username")
	assert.Contains(t, users.ListFilter, "is_staff")
	assert.True(t, users.IsReadonly("last_login"))
}
