package rulefile

import (
	"fmt"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/pkg/errors"

	"github.com/harriteja/reqguard/pkg/validation/core"
)

// compileAssert turns an expression over `value` into a CustomFunc that
// returns message whenever the expression is false or cannot be evaluated
func compileAssert(key, source, message string) (core.CustomFunc, error) {
	program, err := expr.Compile(source, expr.AsBool())
	if err != nil {
		return nil, errors.Wrapf(err, "failed to compile assert for %s", key)
	}
	if message == "" {
		message = fmt.Sprintf("%s is invalid", key)
	}
	return assertFunc(program, message), nil
}

func assertFunc(program *vm.Program, message string) core.CustomFunc {
	return func(value any) string {
		out, err := expr.Run(program, map[string]any{"value": value})
		if err != nil {
			return message
		}
		if ok, _ := out.(bool); !ok {
			return message
		}
		return ""
	}
}
