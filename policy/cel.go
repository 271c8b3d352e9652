package policy

import (
	"fmt"

	"github.com/google/cel-go/cel"
)

// celEnv binds the resource document to object.
var celEnv, celEnvErr = cel.NewEnv(cel.Variable("object", cel.DynType))

// EvalCEL evaluates expr with object bound to doc. The expression must
// produce a bool.
func EvalCEL(expr string, doc map[string]any) (bool, error) {
	if celEnvErr != nil {
		return false, celEnvErr
	}
	ast, iss := celEnv.Compile(expr)
	if err := iss.Err(); err != nil {
		return false, fmt.Errorf("compile %q: %w", expr, err)
	}
	prg, err := celEnv.Program(ast)
	if err != nil {
		return false, fmt.Errorf("program %q: %w", expr, err)
	}
	out, _, err := prg.Eval(map[string]any{"object": doc})
	if err != nil {
		return false, fmt.Errorf("eval %q: %w", expr, err)
	}
	b, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("eval %q: got %s, want bool", expr, out.Type().TypeName())
	}
	return b, nil
}
