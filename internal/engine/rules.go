package engine

import (
	"fmt"

	"github.com/expr-lang/expr"

	"fastadmin/internal/admin"
)

// EvaluateRules runs every configured rule for a table against the candidate
// record. Rules are reject-expressions: when one evaluates to true the write
// fails with the rule's message.
func EvaluateRules(cfg *admin.Config, record, old map[string]any, isCreate bool) []ErrorDetail {
	if len(cfg.Rules) == 0 {
		return nil
	}

	action := "update"
	if isCreate {
		action = "create"
	}

	env := map[string]any{
		"record": record,
		"old":    old,
		"action": action,
	}

	var errs []ErrorDetail
	for i := range cfg.Rules {
		if detail := evaluateRule(&cfg.Rules[i], env); detail != nil {
			errs = append(errs, *detail)
		}
	}
	return errs
}

// evaluateRule runs one pre-compiled rule. Rules compile during
// registration (admin.Registry.Register), so concurrent requests only read
// the rule here and never mutate it.
func evaluateRule(rule *admin.Rule, env map[string]any) *ErrorDetail {
	if rule.CompileErr != nil {
		return &ErrorDetail{Rule: rule.Name, Message: fmt.Sprintf("compile error: %v", rule.CompileErr)}
	}

	result, err := expr.Run(rule.Compiled, env)
	if err != nil {
		return &ErrorDetail{Rule: rule.Name, Message: fmt.Sprintf("rule evaluation error: %v", err)}
	}

	violated, ok := result.(bool)
	if !ok || !violated {
		return nil
	}

	msg := rule.Message
	if msg == "" {
		msg = fmt.Sprintf("rule %s violated", rule.Name)
	}
	return &ErrorDetail{Rule: rule.Name, Message: msg}
}
