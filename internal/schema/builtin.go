package schema

// Built-in auth table descriptors. They mirror the bootstrap DDL exactly so
// the auth tables can be administered without a live introspection pass.

func col(name, dataType string, opts ...func(*rawColumn)) Column {
	raw := rawColumn{Name: name, DataType: dataType}
	for _, opt := range opts {
		opt(&raw)
	}
	return Resolve(raw)
}

func pk() func(*rawColumn) {
	return func(c *rawColumn) { c.PrimaryKey = true; c.HasDefault = true }
}

func nullable() func(*rawColumn) {
	return func(c *rawColumn) { c.Nullable = true }
}

func withDefault() func(*rawColumn) {
	return func(c *rawColumn) { c.HasDefault = true }
}

func maxLen(n int) func(*rawColumn) {
	return func(c *rawColumn) { c.MaxLength = n }
}

func ref(table, column string) func(*rawColumn) {
	return func(c *rawColumn) { c.Ref = &ForeignKey{Table: table, Column: column} }
}

// BuiltinTables returns descriptors for the auth tables created by
// store.Bootstrap, in registration order.
func BuiltinTables() []*Table {
	return []*Table{
		{
			Name: "users",
			Columns: []Column{
				col("id", "bigint", pk()),
				col("username", "character varying", maxLen(150)),
				col("email", "character varying", maxLen(254)),
				col("password_hash", "character varying", maxLen(128)),
				col("first_name", "character varying", nullable(), maxLen(30)),
				col("last_name", "character varying", nullable(), maxLen(150)),
				col("is_active", "boolean", withDefault()),
				col("is_staff", "boolean", withDefault()),
				col("is_superuser", "boolean", withDefault()),
				col("date_joined", "timestamp with time zone", withDefault()),
				col("last_login", "timestamp with time zone", nullable()),
			},
		},
		{
			Name: "groups",
			Columns: []Column{
				col("id", "bigint", pk()),
				col("name", "character varying", maxLen(150)),
				col("description", "text", nullable()),
				col("created_at", "timestamp with time zone", withDefault()),
			},
		},
		{
			Name: "permissions",
			Columns: []Column{
				col("id", "bigint", pk()),
				col("name", "character varying", maxLen(100)),
				col("codename", "character varying", maxLen(100)),
				col("content_type", "character varying", maxLen(100)),
				col("description", "text", nullable()),
				col("created_at", "timestamp with time zone", withDefault()),
			},
		},
		{
			Name: "user_group",
			Columns: []Column{
				col("id", "bigint", pk()),
				col("user_id", "bigint", ref("users", "id")),
				col("group_id", "bigint", ref("groups", "id")),
				col("assigned_at", "timestamp with time zone", withDefault()),
			},
		},
		{
			Name: "group_permission",
			Columns: []Column{
				col("id", "bigint", pk()),
				col("group_id", "bigint", ref("groups", "id")),
				col("permission_id", "bigint", ref("permissions", "id")),
				col("assigned_at", "timestamp with time zone", withDefault()),
			},
		},
		{
			Name: "user_permission",
			Columns: []Column{
				col("id", "bigint", pk()),
				col("user_id", "bigint", ref("users", "id")),
				col("permission_id", "bigint", ref("permissions", "id")),
				col("assigned_at", "timestamp with time zone", withDefault()),
			},
		},
		{
			Name: "sessions",
			Columns: []Column{
				col("id", "bigint", pk()),
				col("token", "character varying", maxLen(64)),
				col("user_id", "bigint", ref("users", "id")),
				col("created_at", "timestamp with time zone", withDefault()),
				col("expires_at", "timestamp with time zone"),
				col("last_activity", "timestamp with time zone", withDefault()),
				col("ip_address", "character varying", nullable(), maxLen(45)),
			},
		},
	}
}
