package versiontrack

import (
	"sort"
	"strings"

	celgo "github.com/google/cel-go/cel"
	functions "github.com/google/cel-go/common/functions"
	"github.com/google/cel-go/common/types"
	"github.com/google/cel-go/common/types/ref"
)

// celEvaluator runs launch rules with cel-go. Snapshot keys are declared as
// dynamic variables, so the checked program depends on the binding shape and
// is built on first evaluation. Registry functions are reached through
// call(name, ...).
type celEvaluator struct {
	engineConfig
}

// NewCELEvaluator constructs an Evaluator backed by cel-go.
func NewCELEvaluator(opts ...EngineOption) Evaluator {
	return &celEvaluator{engineConfig: applyEngineOptions(opts)}
}

func (e *celEvaluator) Engine() string {
	return "cel"
}

func (e *celEvaluator) Evaluate(ctx RuleContext, expression string) (any, error) {
	rule, err := e.Compile(expression)
	if err != nil {
		return nil, err
	}
	return rule.Evaluate(ctx)
}

// Compile parses expression so syntax errors surface immediately. Type
// checking waits for the first binding.
func (e *celEvaluator) Compile(expression string) (CompiledRule, error) {
	if expression == "" {
		return nil, ruleError(ErrEmptyRule, "cel", expression)
	}
	env, err := e.environment(nil)
	if err != nil {
		return nil, ruleError(err, "cel", expression)
	}
	if _, issues := env.Parse(expression); issues != nil && issues.Err() != nil {
		return nil, ruleError(issues.Err(), "cel", expression)
	}
	return &celRule{evaluator: e, expression: expression}, nil
}

func (e *celEvaluator) program(expression string, snapshot map[string]any) (celgo.Program, error) {
	key := cacheKeyForSnapshot(expression, snapshot)
	if cached, ok := e.cached(key); ok {
		if program, ok := cached.(celgo.Program); ok {
			return program, nil
		}
	}
	env, err := e.environment(snapshot)
	if err != nil {
		return nil, err
	}
	ast, issues := env.Compile(expression)
	if issues != nil && issues.Err() != nil {
		return nil, issues.Err()
	}
	program, err := env.Program(ast)
	if err != nil {
		return nil, err
	}
	e.remember(key, program)
	return program, nil
}

// cacheKeyForSnapshot includes the snapshot keys since they shape the
// declared variables.
func cacheKeyForSnapshot(expression string, snapshot map[string]any) string {
	keys := make([]string, 0, len(snapshot))
	for key := range snapshot {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return "cel:" + strings.Join(keys, ",") + ":" + expression
}

func (e *celEvaluator) environment(snapshot map[string]any) (*celgo.Env, error) {
	opts := []celgo.EnvOption{
		celgo.Variable("now", celgo.TimestampType),
		celgo.Variable("args", celgo.DynType),
		celgo.Variable("metadata", celgo.DynType),
	}
	if e.functions != nil {
		opts = append(opts, celgo.Function("call",
			celgo.Overload("call_string_dyn", []*celgo.Type{celgo.StringType, celgo.DynType}, celgo.DynType,
				celgo.FunctionBinding(e.callBinding())),
			celgo.Overload("call_string_dyn_dyn", []*celgo.Type{celgo.StringType, celgo.DynType, celgo.DynType}, celgo.DynType,
				celgo.FunctionBinding(e.callBinding())),
		))
	}
	for key := range snapshot {
		switch key {
		case "now", "args", "metadata":
			continue
		}
		opts = append(opts, celgo.Variable(key, celgo.DynType))
	}
	return celgo.NewEnv(opts...)
}

func (e *celEvaluator) activation(ctx RuleContext) map[string]any {
	activation := ctx.baseBindings()
	for key, value := range ctx.Snapshot {
		if _, reserved := activation[key]; reserved {
			continue
		}
		activation[key] = value
	}
	return activation
}

func (e *celEvaluator) callBinding() functions.FunctionOp {
	return func(values ...ref.Val) ref.Val {
		name, ok := values[0].Value().(string)
		if !ok {
			return types.NewErr("call: function name must be a string")
		}
		args := make([]any, 0, len(values)-1)
		for _, val := range values[1:] {
			args = append(args, celNative(val))
		}
		result, err := e.functions.Call(name, args...)
		if err != nil {
			return types.NewErr("%s", err.Error())
		}
		if result == nil {
			return types.NullValue
		}
		return types.DefaultTypeAdapter.NativeToValue(result)
	}
}

type celRule struct {
	evaluator  *celEvaluator
	expression string
}

func (r *celRule) Evaluate(ctx RuleContext) (any, error) {
	ctx = ctx.withDefaults()
	program, err := r.evaluator.program(r.expression, ctx.Snapshot)
	if err != nil {
		return nil, ruleError(err, "cel", r.expression)
	}
	out, _, err := program.Eval(r.evaluator.activation(ctx))
	if err != nil {
		return nil, ruleError(err, "cel", r.expression)
	}
	return out.Value(), nil
}

// celNative unwraps CEL maps of dynamic values into plain Go maps so
// registry functions can read version bindings.
func celNative(val ref.Val) any {
	native := val.Value()
	if m, ok := native.(map[ref.Val]ref.Val); ok {
		out := make(map[string]any, len(m))
		for k, v := range m {
			if key, ok := k.Value().(string); ok {
				out[key] = celNative(v)
			}
		}
		return out
	}
	return native
}
