package engine

import (
	"sync"
	"testing"

	"fastadmin/internal/admin"
	"fastadmin/internal/schema"
)

func ruleConfig(rules ...admin.Rule) *admin.Config {
	reg := admin.NewRegistry()
	table := &schema.Table{Name: "groups", Columns: []schema.Column{
		{Name: "id", Type: schema.TypeInteger, PrimaryKey: true},
		{Name: "name", Type: schema.TypeString},
	}}
	return reg.Register(table, admin.WithRules(rules...))
}

func TestEvaluateRulesViolation(t *testing.T) {
	cfg := ruleConfig(admin.Rule{
		Name:       "no_reserved_names",
		Expression: `record.name == "admin"`,
		Message:    "Name is reserved",
	})

	errs := EvaluateRules(cfg, map[string]any{"name": "admin"}, nil, true)
	if len(errs) != 1 {
		t.Fatalf("expected one violation, got %v", errs)
	}
	if errs[0].Rule != "no_reserved_names" || errs[0].Message != "Name is reserved" {
		t.Fatalf("unexpected detail: %+v", errs[0])
	}

	errs = EvaluateRules(cfg, map[string]any{"name": "ops"}, nil, true)
	if len(errs) != 0 {
		t.Fatalf("expected pass, got %v", errs)
	}
}

func TestEvaluateRulesActionAndOldRecord(t *testing.T) {
	cfg := ruleConfig(admin.Rule{
		Name:       "no_rename",
		Expression: `action == "update" && old.name != record.name`,
		Message:    "Groups cannot be renamed",
	})

	old := map[string]any{"name": "ops"}
	errs := EvaluateRules(cfg, map[string]any{"name": "platform"}, old, false)
	if len(errs) != 1 {
		t.Fatalf("expected rename violation, got %v", errs)
	}

	// Same expression never fires on create.
	errs = EvaluateRules(cfg, map[string]any{"name": "platform"}, map[string]any{"name": ""}, true)
	if len(errs) != 0 {
		t.Fatalf("expected pass on create, got %v", errs)
	}
}

func TestRulesCompileAtRegistration(t *testing.T) {
	cfg := ruleConfig(admin.Rule{
		Name:       "always_pass",
		Expression: `false`,
	})

	if cfg.Rules[0].Compiled == nil {
		t.Fatal("expected rule to compile during registration")
	}
	first := cfg.Rules[0].Compiled

	EvaluateRules(cfg, map[string]any{}, nil, true)
	if cfg.Rules[0].Compiled != first {
		t.Fatal("evaluation must not recompile the rule")
	}
}

func TestEvaluateRulesConcurrent(t *testing.T) {
	cfg := ruleConfig(admin.Rule{
		Name:       "no_reserved_names",
		Expression: `record.name == "admin"`,
		Message:    "Name is reserved",
	})

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				if errs := EvaluateRules(cfg, map[string]any{"name": "ops"}, nil, true); len(errs) != 0 {
					t.Errorf("unexpected violation: %v", errs)
				}
			}
		}()
	}
	wg.Wait()
}

func TestEvaluateRulesCompileError(t *testing.T) {
	cfg := ruleConfig(admin.Rule{
		Name:       "broken",
		Expression: `record.name ===`,
	})

	errs := EvaluateRules(cfg, map[string]any{"name": "x"}, nil, true)
	if len(errs) != 1 || errs[0].Rule != "broken" {
		t.Fatalf("expected compile error detail, got %v", errs)
	}
}
