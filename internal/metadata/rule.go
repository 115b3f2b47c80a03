package metadata

import (
	"fmt"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// Rule types.
const (
	RuleField      = "field"
	RuleExpression = "expression"
)

// Rule is a write-time check attached to a table.
//
// Field rules compare a single column against Operator/Value and skip absent
// or null values. Expression rules are expr-lang programs evaluated against
// {"record": payload}; a true result means the rule is violated.
type Rule struct {
	Type       string `json:"type"`
	Field      string `json:"field,omitempty"`
	Operator   string `json:"operator,omitempty"` // min, max, in
	Value      any    `json:"value,omitempty"`
	Expression string `json:"expression,omitempty"`
	Message    string `json:"message"`

	program *vm.Program
}

// Compile prepares expression rules. It is a no-op for field rules and for
// expressions that are already compiled.
func (r *Rule) Compile() error {
	switch r.Type {
	case RuleField:
		switch r.Operator {
		case "min", "max", "in":
			return nil
		}
		return fmt.Errorf("rule on %s: unknown operator %q", r.Field, r.Operator)
	case RuleExpression:
		if r.program != nil {
			return nil
		}
		prog, err := expr.Compile(r.Expression, expr.AsBool())
		if err != nil {
			return fmt.Errorf("compile expression %q: %w", r.Expression, err)
		}
		r.program = prog
		return nil
	default:
		return fmt.Errorf("unknown rule type %q", r.Type)
	}
}

// Program returns the compiled expression, or nil for field rules.
func (r *Rule) Program() *vm.Program {
	return r.program
}

// OneOf builds a field rule restricting column to the given values.
func OneOf(column string, values []string, message string) *Rule {
	allowed := make([]any, len(values))
	for i, v := range values {
		allowed[i] = v
	}
	return &Rule{Type: RuleField, Field: column, Operator: "in", Value: allowed, Message: message}
}

// Min builds a field rule requiring column >= min.
func Min(column string, min float64, message string) *Rule {
	return &Rule{Type: RuleField, Field: column, Operator: "min", Value: min, Message: message}
}

// Max builds a field rule requiring column <= max.
func Max(column string, max float64, message string) *Rule {
	return &Rule{Type: RuleField, Field: column, Operator: "max", Value: max, Message: message}
}

// Violation builds an expression rule; expression must evaluate to true when
// the record is invalid.
func Violation(expression, message string) *Rule {
	return &Rule{Type: RuleExpression, Expression: expression, Message: message}
}
