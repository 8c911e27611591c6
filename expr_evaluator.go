package versiontrack

import (
	exprlang "github.com/expr-lang/expr"
	exprvm "github.com/expr-lang/expr/vm"
)

// exprEvaluator runs launch rules with github.com/expr-lang/expr. Programs
// are compiled without a typed environment, so any binding shape is accepted
// and unknown names evaluate to nil.
type exprEvaluator struct {
	engineConfig
}

// NewExprEvaluator constructs the default rule engine.
func NewExprEvaluator(opts ...EngineOption) Evaluator {
	return &exprEvaluator{engineConfig: applyEngineOptions(opts)}
}

func (e *exprEvaluator) Engine() string {
	return "expr"
}

func (e *exprEvaluator) Evaluate(ctx RuleContext, expression string) (any, error) {
	rule, err := e.Compile(expression)
	if err != nil {
		return nil, err
	}
	return rule.Evaluate(ctx)
}

func (e *exprEvaluator) Compile(expression string) (CompiledRule, error) {
	if expression == "" {
		return nil, ruleError(ErrEmptyRule, "expr", expression)
	}
	program, err := e.program(expression)
	if err != nil {
		return nil, ruleError(err, "expr", expression)
	}
	return &exprRule{evaluator: e, program: program, expression: expression}, nil
}

func (e *exprEvaluator) program(expression string) (*exprvm.Program, error) {
	if cached, ok := e.cached(expression); ok {
		if program, ok := cached.(*exprvm.Program); ok {
			return program, nil
		}
	}
	options := []exprlang.Option{
		exprlang.Env(map[string]any{}),
		exprlang.AllowUndefinedVariables(),
	}
	for _, name := range e.functions.Names() {
		fn := name
		options = append(options, exprlang.Function(fn, func(arguments ...any) (any, error) {
			return e.functions.Call(fn, arguments...)
		}))
	}
	program, err := exprlang.Compile(expression, options...)
	if err != nil {
		return nil, err
	}
	e.remember(expression, program)
	return program, nil
}

func (e *exprEvaluator) environment(ctx RuleContext) map[string]any {
	env := ctx.baseBindings()
	for key, value := range ctx.Snapshot {
		env[key] = value
	}
	if e.functions != nil {
		env["call"] = func(name string, arguments ...any) (any, error) {
			return e.functions.Call(name, arguments...)
		}
	}
	return env
}

type exprRule struct {
	evaluator  *exprEvaluator
	program    *exprvm.Program
	expression string
}

func (r *exprRule) Evaluate(ctx RuleContext) (any, error) {
	result, err := exprlang.Run(r.program, r.evaluator.environment(ctx.withDefaults()))
	if err != nil {
		return nil, ruleError(err, "expr", r.expression)
	}
	return result, nil
}
