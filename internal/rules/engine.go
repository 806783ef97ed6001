// Package rules evaluates CEL guard expressions against records. The CLI
// applies a guard after the query engine for predicates the operator
// grammar cannot express, e.g. `record.price * record.qty > 100.0`.
package rules

import (
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"
)

// RulesEngine handles compilation and evaluation of CEL guards
type RulesEngine struct {
	env      *cel.Env
	prgCache sync.Map // map[string]cel.Program
}

// NewRulesEngine creates a RulesEngine exposing a single `record` variable.
func NewRulesEngine() (*RulesEngine, error) {
	env, err := cel.NewEnv(
		cel.Variable("record", cel.DynType),
		cel.CrossTypeNumericComparisons(true),
	)
	if err != nil {
		return nil, err
	}

	return &RulesEngine{
		env: env,
	}, nil
}

// Compile checks an expression and caches its program.
func (re *RulesEngine) Compile(expression string) (cel.Program, error) {
	if val, ok := re.prgCache.Load(expression); ok {
		return val.(cel.Program), nil
	}

	ast, issues := re.env.Compile(expression)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("compile error: %s", issues.Err())
	}
	prg, err := re.env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("program construction error: %s", err)
	}
	re.prgCache.Store(expression, prg)
	return prg, nil
}

// Evaluate evaluates a guard against one record
func (re *RulesEngine) Evaluate(expression string, record any) (bool, error) {
	switch expression {
	case "":
		return false, nil
	case "true":
		return true, nil
	case "false":
		return false, nil
	}

	prg, err := re.Compile(expression)
	if err != nil {
		return false, err
	}

	out, _, err := prg.Eval(map[string]any{"record": record})
	if err != nil {
		return false, fmt.Errorf("eval error: %s", err)
	}

	result, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("rule must return boolean")
	}

	return result, nil
}
