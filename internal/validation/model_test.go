package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fastadmin/internal/schema"
)

func tableByName(t *testing.T, name string) *schema.Table {
	t.Helper()
	for _, tbl := range schema.BuiltinTables() {
		if tbl.Name == name {
			return tbl
		}
	}
	t.Fatalf("%s table not found", name)
	return nil
}

func groupsTable(t *testing.T) *schema.Table {
	return tableByName(t, "groups")
}

func usersTable(t *testing.T) *schema.Table {
	return tableByName(t, "users")
}

func TestBuildCreateRequiredFields(t *testing.T) {
	model, err := BuildCreate(groupsTable(t), nil)
	require.NoError(t, err)

	// name is NOT NULL without default; description is nullable; created_at
	// is auto-managed and must not be accepted at all.
	assert.True(t, model.Accepts("name"))
	assert.True(t, model.Accepts("description"))
	assert.False(t, model.Accepts("created_at"))
	assert.False(t, model.Accepts("id"))

	errs := model.Validate(map[string]any{"description": "ops team"})
	require.Len(t, errs, 1)
	assert.Equal(t, "name", errs[0].Field)
	assert.Equal(t, "required", errs[0].Rule)

	errs = model.Validate(map[string]any{"name": "ops"})
	assert.Empty(t, errs)
}

func TestBuildCreateRejectsUnknownFields(t *testing.T) {
	model, err := BuildCreate(groupsTable(t), nil)
	require.NoError(t, err)

	errs := model.Validate(map[string]any{"name": "ops", "bogus": 1})
	require.NotEmpty(t, errs)
}

func TestBuildCreateHonorsExcludes(t *testing.T) {
	model, err := BuildCreate(usersTable(t), []string{"password_hash"})
	require.NoError(t, err)

	assert.False(t, model.Accepts("password_hash"))
	errs := model.Validate(map[string]any{
		"username":      "alice",
		"email":         "alice@example.com",
		"password_hash": "x",
	})
	require.NotEmpty(t, errs, "excluded field must be rejected")
}

func TestBuildCreateColumnsWithDefaultsAreOptional(t *testing.T) {
	model, err := BuildCreate(usersTable(t), []string{"password_hash"})
	require.NoError(t, err)

	// is_active has a database default, so omitting it is fine.
	errs := model.Validate(map[string]any{
		"username": "alice",
		"email":    "alice@example.com",
	})
	assert.Empty(t, errs)
}

func TestBuildUpdateAllFieldsOptional(t *testing.T) {
	model, err := BuildUpdate(usersTable(t))
	require.NoError(t, err)

	assert.Empty(t, model.Validate(map[string]any{}))
	assert.Empty(t, model.Validate(map[string]any{"first_name": "Alice"}))
	assert.False(t, model.Accepts("id"))
	assert.False(t, model.Accepts("date_joined"))
	assert.False(t, model.Accepts("last_login"))
}

func TestValidateTypeAndFormat(t *testing.T) {
	model, err := BuildUpdate(usersTable(t))
	require.NoError(t, err)

	errs := model.Validate(map[string]any{"is_active": "yes"})
	require.Len(t, errs, 1)
	assert.Equal(t, "is_active", errs[0].Field)

	errs = model.Validate(map[string]any{"email": "not-an-email"})
	require.Len(t, errs, 1)
	assert.Equal(t, "email", errs[0].Field)
}

func TestValidateMaxLength(t *testing.T) {
	model, err := BuildUpdate(usersTable(t))
	require.NoError(t, err)

	long := make([]byte, 31)
	for i := range long {
		long[i] = 'a'
	}
	errs := model.Validate(map[string]any{"first_name": string(long)})
	require.Len(t, errs, 1)
	assert.Equal(t, "first_name", errs[0].Field)
}

func TestValidateNullableAcceptsNull(t *testing.T) {
	model, err := BuildUpdate(usersTable(t))
	require.NoError(t, err)

	assert.Empty(t, model.Validate(map[string]any{"first_name": nil}))
}
