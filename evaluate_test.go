package versiontrack

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

type mapCache struct {
	entries map[string]any
	hits    int
}

func (c *mapCache) Get(key string) (any, bool) {
	value, ok := c.entries[key]
	if ok {
		c.hits++
	}
	return value, ok
}

func (c *mapCache) Set(key string, value any) {
	c.entries[key] = value
}

func upgradedTracker(t *testing.T, opts ...Option) *Tracker {
	t.Helper()
	freshSession(t)
	store := newTestStore(t, newMemoryKV())
	launch(t, store, NewVersion("1.0", "2"))
	return launch(t, store, NewVersion("1.1", "3"), opts...)
}

func TestTrackerBinding(t *testing.T) {
	tracker := upgradedTracker(t)
	binding := tracker.Binding()

	if binding["scope"] != ScopeApp || binding["change"] != "upgraded" || binding["firstLaunch"] != false {
		t.Fatalf("unexpected binding %v", binding)
	}
	current, ok := binding["current"].(map[string]any)
	if !ok || current["version"] != "1.1" || current["build"] != "3" {
		t.Fatalf("unexpected current binding %v", binding["current"])
	}
	if _, ok := current["installDate"].(time.Time); !ok {
		t.Fatalf("expected installDate to be a time, got %T", current["installDate"])
	}
	previous, ok := binding["previous"].(map[string]any)
	if !ok || previous["version"] != "1.0" {
		t.Fatalf("unexpected previous binding %v", binding["previous"])
	}
	if history, ok := binding["history"].([]any); !ok || len(history) != 2 {
		t.Fatalf("unexpected history binding %v", binding["history"])
	}
}

func TestMatchWithDefaultEngine(t *testing.T) {
	tracker := upgradedTracker(t)

	cases := map[string]bool{
		`change == "upgraded"`:                                   true,
		`versionAtLeast(current.version, "1.1")`:                 true,
		`compareVersions(previous.version, current.version) < 0`: true,
		`firstLaunch`:                                            false,
		`len(history) == 2 && previous.build == "2"`:             true,
		`scope == "appVersion" && current.components[1] == 1`:    true,
		`change == "upgraded" && versionAtLeast(current, "2.0")`: false,
	}
	for expr, want := range cases {
		got, err := tracker.Match(expr)
		if err != nil {
			t.Fatalf("match %q: %v", expr, err)
		}
		if got != want {
			t.Fatalf("match %q = %v, want %v", expr, got, want)
		}
	}
}

func TestMatchFirstLaunch(t *testing.T) {
	freshSession(t)
	store := newTestStore(t, newMemoryKV())
	tracker := launch(t, store, NewVersion("1.0", ""))

	matched, err := tracker.Match(`firstLaunch && previous == nil && change == "installed"`)
	if err != nil {
		t.Fatalf("match: %v", err)
	}
	if !matched {
		t.Fatalf("expected first launch rule to match")
	}
}

func TestMatchRequiresBool(t *testing.T) {
	tracker := upgradedTracker(t)
	if _, err := tracker.Match(`current.version`); err == nil || !strings.Contains(err.Error(), "want bool") {
		t.Fatalf("expected non-bool error, got %v", err)
	}
}

func TestEvaluateErrorsCarryMetadata(t *testing.T) {
	logger := &recordingLogger{}
	tracker := upgradedTracker(t, WithLogger(logger))

	_, err := tracker.Evaluate(`current.version +`)
	var ruleErr *RuleError
	if !errors.As(err, &ruleErr) {
		t.Fatalf("expected RuleError, got %v", err)
	}
	if ruleErr.Engine != "expr" || ruleErr.Scope != ScopeApp || ruleErr.Expr != `current.version +` || ruleErr.Change != "upgraded" {
		t.Fatalf("unexpected error metadata %+v", ruleErr)
	}
	if warnings := logger.ops(LogLevelWarn); len(warnings) != 1 || warnings[0] != "evaluate" {
		t.Fatalf("expected evaluate warning, got %v", warnings)
	}

	if _, err := tracker.Evaluate(""); !errors.Is(err, ErrEmptyRule) {
		t.Fatalf("expected ErrEmptyRule, got %v", err)
	}
}

func TestEvaluateWithCustomFunction(t *testing.T) {
	tracker := upgradedTracker(t, WithCustomFunction("isBeta", func(args ...any) (any, error) {
		build, _ := args[0].(string)
		return build == "3", nil
	}))

	matched, err := tracker.Match(`isBeta(current.build) && versionAtLeast(current.version, "1.0")`)
	if err != nil {
		t.Fatalf("match: %v", err)
	}
	if !matched {
		t.Fatalf("expected custom function to match")
	}
}

func TestEvaluateWithArgsAndCache(t *testing.T) {
	cache := &mapCache{entries: map[string]any{}}
	tracker := upgradedTracker(t, WithProgramCache(cache))

	for i := 0; i < 2; i++ {
		resp, err := tracker.EvaluateWith(RuleContext{Args: map[string]any{"minimum": "1.1"}}, `versionAtLeast(current.version, args.minimum)`)
		if err != nil {
			t.Fatalf("evaluate: %v", err)
		}
		if resp.Value != true {
			t.Fatalf("expected true, got %v", resp.Value)
		}
	}
	if cache.hits != 1 {
		t.Fatalf("expected second evaluation to hit the cache, hits=%d", cache.hits)
	}
}

func TestEvaluateWithCELEngine(t *testing.T) {
	tracker := upgradedTracker(t, WithEvaluator(NewCELEvaluator(EngineFunctions(BuiltinFunctions()))))

	cases := map[string]bool{
		`change == "upgraded"`:                              true,
		`current.version == "1.1" && previous.build == "2"`: true,
		`call("versionAtLeast", current.version, "1.1")`:    true,
		`call("versionAtLeast", current, "1.2")`:            false,
		`size(history) == 2 && !firstLaunch`:                true,
	}
	for expr, want := range cases {
		got, err := tracker.Match(expr)
		if err != nil {
			t.Fatalf("cel match %q: %v", expr, err)
		}
		if got != want {
			t.Fatalf("cel match %q = %v, want %v", expr, got, want)
		}
	}

	_, err := tracker.Evaluate(`unknownVariable == 1`)
	var ruleErr *RuleError
	if !errors.As(err, &ruleErr) || ruleErr.Engine != "cel" {
		t.Fatalf("expected cel RuleError, got %v", err)
	}
}

func TestEvaluateWithoutEvaluator(t *testing.T) {
	tracker := &Tracker{scope: ScopeApp, cfg: applyOptions(nil)}
	if _, err := tracker.Evaluate("true"); !errors.Is(err, ErrNoEvaluator) {
		t.Fatalf("expected ErrNoEvaluator, got %v", err)
	}
}

func TestEvaluateLogsMessage(t *testing.T) {
	logger := &recordingLogger{}
	tracker := upgradedTracker(t, WithLogger(logger))

	if _, err := tracker.Evaluate(`firstLaunch`); err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	logger.mu.Lock()
	defer logger.mu.Unlock()
	last := logger.events[len(logger.events)-1]
	if last.Op != "evaluate" || last.Message != "rule evaluated" || last.Engine != "expr" {
		t.Fatalf("unexpected log event %+v", last)
	}
}

func TestCompiledRules(t *testing.T) {
	engines := []struct {
		name string
		opts []Option
		expr string
	}{
		{"expr", nil, `change == "upgraded" && versionAtLeast(current.version, "1.1")`},
		{"cel", []Option{WithEvaluator(NewCELEvaluator(EngineFunctions(BuiltinFunctions())))}, `change == "upgraded" && call("versionAtLeast", current.version, "1.1")`},
	}

	for _, engine := range engines {
		t.Run(engine.name, func(t *testing.T) {
			tracker := upgradedTracker(t, engine.opts...)

			rule, err := tracker.Compile(engine.expr)
			if err != nil {
				t.Fatalf("compile: %v", err)
			}
			if rule.Expr() != engine.expr {
				t.Fatalf("unexpected expr %q", rule.Expr())
			}
			for i := 0; i < 2; i++ {
				matched, err := rule.Match()
				if err != nil {
					t.Fatalf("match: %v", err)
				}
				if !matched {
					t.Fatalf("expected compiled rule to match the upgrade")
				}
			}

			resp, err := rule.EvaluateWith(RuleContext{Snapshot: map[string]any{"change": "installed", "current": map[string]any{"version": "1.1"}}})
			if err != nil {
				t.Fatalf("evaluate with snapshot: %v", err)
			}
			if resp.Value != false {
				t.Fatalf("expected custom snapshot to fail the rule, got %v", resp.Value)
			}

			_, err = tracker.Compile(`change ==`)
			var ruleErr *RuleError
			if !errors.As(err, &ruleErr) || ruleErr.Engine != engine.name || ruleErr.Scope != ScopeApp {
				t.Fatalf("expected compile RuleError for %s, got %v", engine.name, err)
			}
			if _, err := tracker.Compile(""); !errors.Is(err, ErrEmptyRule) {
				t.Fatalf("expected ErrEmptyRule, got %v", err)
			}
		})
	}
}

func TestCustomFunctionSurvivesRegistryOption(t *testing.T) {
	registry := NewFunctionRegistry()
	_ = registry.Register("channel", func(args ...any) (any, error) { return "stable", nil })

	tracker := upgradedTracker(t,
		WithCustomFunction("isBeta", func(args ...any) (any, error) { return true, nil }),
		WithFunctionRegistry(registry),
	)
	matched, err := tracker.Match(`isBeta() && channel() == "stable"`)
	if err != nil {
		t.Fatalf("match: %v", err)
	}
	if !matched {
		t.Fatalf("expected both functions to be available")
	}
}

func TestInvalidCustomFunctionFailsTracker(t *testing.T) {
	freshSession(t)
	ctx := context.Background()
	store := newTestStore(t, newMemoryKV())
	isBeta := func(args ...any) (any, error) { return true, nil }

	cases := map[string][]Option{
		"nil function":   {WithCustomFunction("isBeta", nil)},
		"duplicate name": {WithCustomFunction("isBeta", isBeta), WithCustomFunction("ISBETA", isBeta)},
	}
	for name, opts := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := NewTracker(ctx, ScopeApp, StaticVersion("1.0", ""), store, opts...)
			if err == nil || !strings.Contains(err.Error(), "invalid options") {
				t.Fatalf("expected invalid options error, got %v", err)
			}
		})
	}
	if result, err := MergeOnce(ctx, store, ScopeApp, NewVersion("1.0", "")); err != nil || result == nil {
		t.Fatalf("expected rejected trackers to leave the scope unmerged, got %v, %v", result, err)
	}
}
