//go:build js_eval

package versiontrack

import (
	"fmt"

	"github.com/dop251/goja"
)

// jsEvaluator runs launch rules in goja. Every evaluation gets a fresh
// runtime; registry functions are installed as globals and through call.
type jsEvaluator struct {
	engineConfig
}

// NewJSEvaluator constructs an Evaluator backed by goja.
func NewJSEvaluator(opts ...EngineOption) Evaluator {
	return &jsEvaluator{engineConfig: applyEngineOptions(opts)}
}

// JSEvaluatorAvailable reports whether the binary was built with js_eval.
func JSEvaluatorAvailable() bool {
	return true
}

func (e *jsEvaluator) Engine() string {
	return "js"
}

func (e *jsEvaluator) Evaluate(ctx RuleContext, expression string) (any, error) {
	rule, err := e.Compile(expression)
	if err != nil {
		return nil, err
	}
	return rule.Evaluate(ctx)
}

func (e *jsEvaluator) Compile(expression string) (CompiledRule, error) {
	if expression == "" {
		return nil, ruleError(ErrEmptyRule, "js", expression)
	}
	program, err := e.program(expression)
	if err != nil {
		return nil, ruleError(err, "js", expression)
	}
	return &jsRule{evaluator: e, program: program, expression: expression}, nil
}

func (e *jsEvaluator) program(expression string) (*goja.Program, error) {
	if cached, ok := e.cached(expression); ok {
		if program, ok := cached.(*goja.Program); ok {
			return program, nil
		}
	}
	program, err := goja.Compile("", fmt.Sprintf("(function(){ return (%s); })()", expression), false)
	if err != nil {
		return nil, err
	}
	e.remember(expression, program)
	return program, nil
}

func (e *jsEvaluator) runtime(ctx RuleContext) (*goja.Runtime, error) {
	vm := goja.New()
	for key, value := range ctx.baseBindings() {
		if err := vm.Set(key, value); err != nil {
			return nil, err
		}
	}
	for key, value := range ctx.Snapshot {
		if err := vm.Set(key, value); err != nil {
			return nil, err
		}
	}
	if e.functions == nil {
		return vm, nil
	}
	if err := vm.Set("call", func(name string, arguments ...any) (any, error) {
		return e.functions.Call(name, arguments...)
	}); err != nil {
		return nil, err
	}
	for _, name := range e.functions.Names() {
		fn := name
		if err := vm.Set(fn, func(arguments ...any) (any, error) {
			return e.functions.Call(fn, arguments...)
		}); err != nil {
			return nil, err
		}
	}
	return vm, nil
}

type jsRule struct {
	evaluator  *jsEvaluator
	program    *goja.Program
	expression string
}

func (r *jsRule) Evaluate(ctx RuleContext) (any, error) {
	vm, err := r.evaluator.runtime(ctx.withDefaults())
	if err != nil {
		return nil, ruleError(err, "js", r.expression)
	}
	value, err := vm.RunProgram(r.program)
	if err != nil {
		return nil, ruleError(err, "js", r.expression)
	}
	return value.Export(), nil
}
