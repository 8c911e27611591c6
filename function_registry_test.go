package versiontrack

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestFunctionRegistryLookupIgnoresCase(t *testing.T) {
	registry := NewFunctionRegistry()
	if err := registry.Register("isBeta", func(args ...any) (any, error) { return true, nil }); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := registry.Register("ISBETA", func(args ...any) (any, error) { return false, nil }); err == nil {
		t.Fatalf("expected duplicate registration to fail")
	}
	got, err := registry.Call("isbeta")
	if err != nil || got != true {
		t.Fatalf("call = %v, %v", got, err)
	}
	if diff := cmp.Diff([]string{"isBeta"}, registry.Names()); diff != "" {
		t.Fatalf("names mismatch (-want +got):\n%s", diff)
	}
}

func TestFunctionRegistryRejectsInvalid(t *testing.T) {
	registry := NewFunctionRegistry()
	if err := registry.Register("", func(args ...any) (any, error) { return nil, nil }); err == nil {
		t.Fatalf("expected empty name error")
	}
	if err := registry.Register("f", nil); err == nil {
		t.Fatalf("expected nil function error")
	}
	if _, err := registry.Call("missing"); err == nil || !strings.Contains(err.Error(), "not registered") {
		t.Fatalf("expected missing function error, got %v", err)
	}
	var nilRegistry *FunctionRegistry
	if _, err := nilRegistry.Call("x"); err == nil {
		t.Fatalf("expected nil registry error")
	}
}

func TestBuiltinFunctions(t *testing.T) {
	builtins := BuiltinFunctions()
	if diff := cmp.Diff([]string{"compareVersions", "versionAtLeast"}, builtins.Names()); diff != "" {
		t.Fatalf("names mismatch (-want +got):\n%s", diff)
	}

	cases := []struct {
		name string
		args []any
		want any
	}{
		{"compareVersions", []any{"1.2", "1.10"}, -1},
		{"compareVersions", []any{NewVersion("2.0", "1"), "2"}, 0},
		{"versionAtLeast", []any{map[string]any{"version": "1.4"}, "1.3.9"}, true},
		{"versionAtLeast", []any{"1.0", "1.0.1"}, false},
	}
	for _, tc := range cases {
		got, err := builtins.Call(tc.name, tc.args...)
		if err != nil {
			t.Fatalf("%s%v: %v", tc.name, tc.args, err)
		}
		if got != tc.want {
			t.Fatalf("%s%v = %v, want %v", tc.name, tc.args, got, tc.want)
		}
	}

	if _, err := builtins.Call("compareVersions", "1.0"); err == nil {
		t.Fatalf("expected arity error")
	}
	if _, err := builtins.Call("versionAtLeast", 12, "1.0"); err == nil {
		t.Fatalf("expected argument type error")
	}
	if _, err := builtins.Call("versionAtLeast", map[string]any{}, "1.0"); err == nil {
		t.Fatalf("expected missing version field error")
	}
}

func TestFunctionRegistryMergeKeepsExisting(t *testing.T) {
	base := BuiltinFunctions()
	extra := NewFunctionRegistry()
	_ = extra.Register("compareVersions", func(args ...any) (any, error) { return "shadowed", nil })
	_ = extra.Register("channel", func(args ...any) (any, error) { return "stable", nil })

	base.merge(extra)
	got, err := base.Call("compareVersions", "1", "2")
	if err != nil || got != -1 {
		t.Fatalf("expected builtin to win, got %v, %v", got, err)
	}
	if got, _ := base.Call("channel"); got != "stable" {
		t.Fatalf("expected merged function, got %v", got)
	}

	clone := base.Clone()
	_ = clone.Register("another", func(args ...any) (any, error) { return nil, nil })
	if len(base.Names()) != 3 || len(clone.Names()) != 4 {
		t.Fatalf("expected clone to be independent, base=%v clone=%v", base.Names(), clone.Names())
	}
}
