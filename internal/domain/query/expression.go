package query

import (
	"fmt"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/okian/cyclingdb/internal/domain/rider"
)

// expressionEnv exposes a rider to expressions. Missing numbers are nil.
func expressionEnv(r rider.Rider) map[string]any {
	env := map[string]any{
		"name":           r.Name,
		"team":           r.Team,
		"nationality":    r.Nationality,
		"specialization": string(r.Specialization),
		"age":            nil,
	}
	for _, code := range rider.StatCodes {
		env[string(code)] = nil
	}
	if r.Age.Valid {
		env["age"] = r.Age.Value
	}
	for code, v := range r.Ratings {
		env[string(code)] = v
	}
	env["overall"] = env[string(rider.Eval)]
	return env
}

func compileExpression(src string) (*vm.Program, error) {
	program, err := expr.Compile(src, expr.AllowUndefinedVariables(), expr.AsBool())
	if err != nil {
		return nil, fmt.Errorf("%w: expression: %w", ErrInvalidCriteria, err)
	}
	return program, nil
}

// evalExpression reports whether r satisfies program. Evaluation errors,
// such as comparing a missing rating to a number, count as no match.
func evalExpression(program *vm.Program, r rider.Rider) bool {
	out, err := expr.Run(program, expressionEnv(r))
	if err != nil {
		return false
	}
	ok, _ := out.(bool)
	return ok
}
