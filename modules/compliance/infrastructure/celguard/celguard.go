package celguard

import (
	"errors"
	"strings"
	"sync"

	"github.com/google/cel-go/cel"
)

// Guards compiles and evaluates boolean CEL expressions over the `app`
// fact map. Compiled programs are cached by expression text.
type Guards struct {
	env      *cel.Env
	programs sync.Map
}

var errExprRequired = errors.New("celguard: expression required")
var errNotBool = errors.New("celguard: expression must evaluate to bool")

func New() (*Guards, error) {
	env, err := cel.NewEnv(cel.Variable("app", cel.MapType(cel.StringType, cel.StringType)))
	if err != nil {
		return nil, err
	}
	return &Guards{env: env}, nil
}

// Compile checks expr and caches its program.
func (g *Guards) Compile(expr string) error {
	_, err := g.program(expr)
	return err
}

func (g *Guards) Eval(expr string, facts map[string]string) (bool, error) {
	program, err := g.program(expr)
	if err != nil {
		return false, err
	}
	if facts == nil {
		facts = map[string]string{}
	}
	out, _, err := program.Eval(map[string]any{"app": facts})
	if err != nil {
		return false, err
	}
	v, ok := out.Value().(bool)
	if !ok {
		return false, errNotBool
	}
	return v, nil
}

func (g *Guards) program(expr string) (cel.Program, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return nil, errExprRequired
	}
	if cached, ok := g.programs.Load(expr); ok {
		return cached.(cel.Program), nil
	}
	ast, issues := g.env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, issues.Err()
	}
	if ast.OutputType() != cel.BoolType {
		return nil, errNotBool
	}
	program, err := g.env.Program(ast)
	if err != nil {
		return nil, err
	}
	g.programs.Store(expr, program)
	return program, nil
}
