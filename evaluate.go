package versiontrack

import (
	"fmt"
	"time"
)

// Evaluate runs a launch rule against the tracker binding using the
// configured engine (expr unless WithEvaluator says otherwise).
func (t *Tracker) Evaluate(expr string) (Response[any], error) {
	return t.EvaluateWith(RuleContext{}, expr)
}

// EvaluateWith runs expr with ctx, using the tracker binding when
// ctx.Snapshot is nil.
func (t *Tracker) EvaluateWith(ctx RuleContext, expr string) (Response[any], error) {
	if t.evaluator == nil {
		return Response[any]{}, ErrNoEvaluator
	}
	return t.run(ctx, expr, func(ctx RuleContext) (any, error) {
		return t.evaluator.Evaluate(ctx, expr)
	})
}

// Match evaluates expr and requires a boolean result.
func (t *Tracker) Match(expr string) (bool, error) {
	resp, err := t.Evaluate(expr)
	return matchResult(expr, resp, err)
}

// Rule is a launch rule compiled once by a tracker's engine. Every
// evaluation runs against that tracker's binding.
type Rule struct {
	tracker  *Tracker
	expr     string
	compiled CompiledRule
}

// Compile prepares expr for repeated evaluation. Syntax errors are reported
// here as *RuleError.
func (t *Tracker) Compile(expr string) (*Rule, error) {
	if t.evaluator == nil {
		return nil, ErrNoEvaluator
	}
	compiled, err := t.evaluator.Compile(expr)
	if err != nil {
		err = t.annotate(err, expr, t.scope)
		t.logRule(LogLevelWarn, "rule.compile", "rule compile failed", expr, t.scope, 0, err)
		return nil, err
	}
	return &Rule{tracker: t, expr: expr, compiled: compiled}, nil
}

func (r *Rule) Expr() string {
	return r.expr
}

func (r *Rule) Evaluate() (Response[any], error) {
	return r.EvaluateWith(RuleContext{})
}

// EvaluateWith runs the rule with ctx; a nil ctx.Snapshot means the tracker
// binding.
func (r *Rule) EvaluateWith(ctx RuleContext) (Response[any], error) {
	return r.tracker.run(ctx, r.expr, r.compiled.Evaluate)
}

// Match evaluates the rule and requires a boolean result.
func (r *Rule) Match() (bool, error) {
	resp, err := r.Evaluate()
	return matchResult(r.expr, resp, err)
}

func matchResult(expr string, resp Response[any], err error) (bool, error) {
	if err != nil {
		return false, err
	}
	matched, ok := resp.Value.(bool)
	if !ok {
		return false, fmt.Errorf("versiontrack: rule %q returned %T, want bool", expr, resp.Value)
	}
	return matched, nil
}

func (t *Tracker) run(ctx RuleContext, expr string, eval func(RuleContext) (any, error)) (Response[any], error) {
	if ctx.Snapshot == nil {
		ctx.Snapshot = t.Binding()
	}
	if ctx.Scope == "" {
		ctx.Scope = t.scope
	}
	ctx = ctx.withDefaults()

	start := time.Now()
	var (
		value any
		err   error
	)
	if expr == "" {
		err = ErrEmptyRule
	} else {
		value, err = eval(ctx)
	}
	err = t.annotate(err, expr, ctx.Scope)
	if err != nil {
		t.logRule(LogLevelWarn, "evaluate", "rule failed", expr, ctx.Scope, time.Since(start), err)
		return Response[any]{}, err
	}
	t.logRule(LogLevelDebug, "evaluate", "rule evaluated", expr, ctx.Scope, time.Since(start), nil)
	return Response[any]{Value: value}, nil
}

func (t *Tracker) annotate(err error, expr, scope string) error {
	return annotateRule(err, RuleError{
		Engine: engineName(t.evaluator),
		Expr:   expr,
		Scope:  scope,
		Change: t.change.Kind.String(),
	})
}

func (t *Tracker) logRule(level LogLevel, op, message, expr, scope string, duration time.Duration, err error) {
	t.cfg.logger.Log(LogEvent{
		Level:    level,
		Op:       op,
		Message:  message,
		Scope:    scope,
		Engine:   engineName(t.evaluator),
		Expr:     expr,
		Duration: duration,
		Err:      err,
	})
}

// Binding exposes the snapshot to launch rules:
//
//	scope, change, firstLaunch, current, previous, history
//
// Versions are maps with version, build, installDate and components keys.
// previous is nil when PreviousVersion is absent.
func (t *Tracker) Binding() map[string]any {
	history := make([]any, 0, len(t.history))
	for _, v := range t.history {
		history = append(history, versionBinding(v))
	}
	binding := map[string]any{
		"scope":       t.scope,
		"change":      t.change.Kind.String(),
		"firstLaunch": t.IsFirstLaunch(),
		"current":     versionBinding(t.current),
		"previous":    nil,
		"history":     history,
	}
	if previous, ok := t.PreviousVersion(); ok {
		binding["previous"] = versionBinding(previous)
	}
	return binding
}

func versionBinding(v Version) map[string]any {
	parts := v.Components()
	components := make([]any, 0, len(parts))
	for _, part := range parts {
		components = append(components, part)
	}
	return map[string]any{
		"version":     v.VersionString(),
		"build":       v.BuildString(),
		"installDate": v.InstallDate(),
		"components":  components,
	}
}

func (cfg trackerConfig) resolveEvaluator() Evaluator {
	if cfg.evaluator != nil {
		return cfg.evaluator
	}
	registry := BuiltinFunctions()
	registry.merge(cfg.functions)
	return NewExprEvaluator(EngineFunctions(registry), EngineProgramCache(cfg.programCache))
}
