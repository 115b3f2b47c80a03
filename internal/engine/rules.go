package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/expr-lang/expr"

	"transit-backend/internal/instrument"
	"transit-backend/internal/metadata"
)

// ruleErrorMessage replaces expression errors in client responses.
const ruleErrorMessage = "Neispravni podaci."

// EvaluateRules runs the table's write rules against the normalized record.
// Field rules run first, then expression rules; all violations are reported.
func EvaluateRules(ctx context.Context, t *metadata.TableDescriptor, record map[string]any) []ErrorDetail {
	if len(t.Rules) == 0 {
		return nil
	}
	_, span := instrument.GetInstrumenter(ctx).StartSpan(ctx, "engine", "rules.evaluate")
	defer span.End()
	span.SetTable(t.Name, "")

	var errs []ErrorDetail
	for _, r := range t.Rules {
		if r.Type != metadata.RuleField {
			continue
		}
		if detail := EvaluateFieldRule(r, record); detail != nil {
			errs = append(errs, *detail)
		}
	}

	env := map[string]any{"record": record}
	for _, r := range t.Rules {
		if r.Type != metadata.RuleExpression {
			continue
		}
		if detail := EvaluateExpressionRule(ctx, r, env); detail != nil {
			errs = append(errs, *detail)
		}
	}

	if len(errs) > 0 {
		span.SetStatus("error")
	} else {
		span.SetStatus("ok")
	}
	return errs
}

// EvaluateFieldRule checks one column. Absent, null and empty-string values
// pass; any other value that cannot be read as a number fails min and max.
func EvaluateFieldRule(rule *metadata.Rule, record map[string]any) *ErrorDetail {
	val, exists := record[rule.Field]
	if !exists || val == nil {
		return nil
	}
	if s, ok := val.(string); ok && strings.TrimSpace(s) == "" {
		return nil
	}

	msg := rule.Message
	if msg == "" {
		msg = fmt.Sprintf("field %s failed %s validation", rule.Field, rule.Operator)
	}
	fail := &ErrorDetail{Field: rule.Field, Rule: rule.Operator, Message: msg}

	switch rule.Operator {
	case "min", "max":
		num, ok := toFloat64(val)
		if !ok {
			return fail
		}
		threshold, ok := toFloat64(rule.Value)
		if !ok {
			return nil
		}
		if rule.Operator == "min" && num < threshold {
			return fail
		}
		if rule.Operator == "max" && num > threshold {
			return fail
		}

	case "in":
		allowed, _ := rule.Value.([]any)
		s := fmt.Sprint(val)
		for _, a := range allowed {
			if fmt.Sprint(a) == s {
				return nil
			}
		}
		return fail
	}

	return nil
}

// EvaluateExpressionRule runs a compiled expression rule. The expression
// describes the violation: true fails, false passes. Compile and runtime
// errors are logged and reported to the client only as a generic message.
func EvaluateExpressionRule(ctx context.Context, rule *metadata.Rule, env map[string]any) *ErrorDetail {
	if err := rule.Compile(); err != nil {
		slog.ErrorContext(ctx, "rule compile failed", "expression", rule.Expression, "error", err)
		return &ErrorDetail{Rule: "expression", Message: ruleErrorMessage}
	}

	result, err := expr.Run(rule.Program(), env)
	if err != nil {
		slog.WarnContext(ctx, "rule evaluation failed", "expression", rule.Expression, "error", err)
		return &ErrorDetail{Rule: "expression", Message: ruleErrorMessage}
	}

	violated, ok := result.(bool)
	if !ok || !violated {
		return nil
	}
	msg := rule.Message
	if msg == "" {
		msg = "Expression rule violated"
	}
	return &ErrorDetail{Rule: "expression", Message: msg}
}

// toFloat64 reads JSON numbers, driver integers and numeric strings.
func toFloat64(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	}
	return 0, false
}
