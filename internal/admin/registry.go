package admin

import (
	"sort"
	"sync"

	"fastadmin/internal/schema"
)

// Registry is the process-wide table-to-configuration map. It is constructed
// once at startup and passed explicitly to every component that needs it;
// there is no package-level instance.
type Registry struct {
	mu      sync.RWMutex
	configs map[string]*Config
}

func NewRegistry() *Registry {
	return &Registry{configs: make(map[string]*Config)}
}

// Register adds a table with optional configuration overrides. Registering
// the same table again replaces its configuration. Rule expressions compile
// here, once, so request handlers only ever read the compiled program.
func (r *Registry) Register(table *schema.Table, opts ...Option) *Config {
	cfg := &Config{Table: table}
	for _, opt := range opts {
		opt(cfg)
	}
	for i := range cfg.Rules {
		cfg.Rules[i].Compiled, cfg.Rules[i].CompileErr = compileRule(cfg.Rules[i].Expression)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.configs[table.Name] = cfg
	return cfg
}

// Unregister removes a table from the registry.
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.configs, name)
}

// Get returns the configuration for a table, or nil.
func (r *Registry) Get(name string) *Config {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.configs[name]
}

// Tables returns the registered table names, sorted.
func (r *Registry) Tables() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.configs))
	for name := range r.configs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// RegisterBuiltins registers the built-in auth tables with the same
// overrides the stock admin site ships with.
func RegisterBuiltins(r *Registry) {
	for _, t := range schema.BuiltinTables() {
		switch t.Name {
		case "users":
			r.Register(t,
				WithListDisplay("id", "username", "email", "first_name", "last_name", "is_active", "is_staff"),
				WithListFilter("is_active", "is_staff", "is_superuser", "date_joined"),
				WithSearchFields("username", "email", "first_name", "last_name"),
				WithExclude("password_hash"),
				WithReadonly("date_joined", "last_login"),
			)
		case "groups":
			r.Register(t,
				WithListDisplay("id", "name", "description", "created_at"),
				WithSearchFields("name", "description"),
			)
		case "permissions":
			r.Register(t,
				WithListDisplay("id", "name", "codename", "content_type", "created_at"),
				WithListFilter("content_type", "created_at"),
				WithSearchFields("name", "codename", "content_type"),
			)
		default:
			r.Register(t)
		}
	}
}
