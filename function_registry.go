package versiontrack

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Function is a callable exposed to launch rules.
type Function func(args ...any) (any, error)

// FunctionRegistry stores rule functions keyed by case-insensitive name.
// Lookups ignore case; Names reports the spelling used at registration.
type FunctionRegistry struct {
	mu        sync.RWMutex
	functions map[string]registeredFunction
}

type registeredFunction struct {
	name string
	fn   Function
}

func NewFunctionRegistry() *FunctionRegistry {
	return &FunctionRegistry{functions: make(map[string]registeredFunction)}
}

// BuiltinFunctions returns a registry holding compareVersions and
// versionAtLeast. Pass it to a custom evaluator to keep them available.
func BuiltinFunctions() *FunctionRegistry {
	registry := NewFunctionRegistry()
	_ = registry.Register("compareVersions", compareVersionsFunction)
	_ = registry.Register("versionAtLeast", versionAtLeastFunction)
	return registry
}

// Register stores fn under name, refusing duplicates.
func (r *FunctionRegistry) Register(name string, fn Function) error {
	if fn == nil {
		return fmt.Errorf("versiontrack: function %q is nil", name)
	}
	if name == "" {
		return fmt.Errorf("versiontrack: function name must not be empty")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.functions == nil {
		r.functions = make(map[string]registeredFunction)
	}
	key := strings.ToLower(name)
	if _, exists := r.functions[key]; exists {
		return fmt.Errorf("versiontrack: function %q already registered", name)
	}
	r.functions[key] = registeredFunction{name: name, fn: fn}
	return nil
}

// Clone returns a shallow copy of the registry.
func (r *FunctionRegistry) Clone() *FunctionRegistry {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	clone := &FunctionRegistry{functions: make(map[string]registeredFunction, len(r.functions))}
	for key, entry := range r.functions {
		clone.functions[key] = entry
	}
	return clone
}

// merge copies functions from other that r does not already define.
func (r *FunctionRegistry) merge(other *FunctionRegistry) {
	if other == nil {
		return
	}
	other.mu.RLock()
	defer other.mu.RUnlock()
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.functions == nil {
		r.functions = make(map[string]registeredFunction, len(other.functions))
	}
	for key, entry := range other.functions {
		if _, exists := r.functions[key]; !exists {
			r.functions[key] = entry
		}
	}
}

func (r *FunctionRegistry) Call(name string, args ...any) (any, error) {
	if r == nil {
		return nil, fmt.Errorf("versiontrack: function registry is nil")
	}
	r.mu.RLock()
	entry, ok := r.functions[strings.ToLower(name)]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("versiontrack: function %q not registered", name)
	}
	return entry.fn(args...)
}

// Names returns registered function names sorted alphabetically.
func (r *FunctionRegistry) Names() []string {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.functions))
	for _, entry := range r.functions {
		names = append(names, entry.name)
	}
	sort.Strings(names)
	return names
}

// WithFunctionRegistry adds the functions of registry to the default
// evaluator. Builtins and functions added by earlier options win on name
// clashes.
func WithFunctionRegistry(registry *FunctionRegistry) Option {
	return func(cfg *trackerConfig) {
		if registry == nil {
			return
		}
		if cfg.functions == nil {
			cfg.functions = registry.Clone()
			return
		}
		cfg.functions.merge(registry)
	}
}

// WithCustomFunction registers fn under name for the default evaluator. An
// invalid or duplicate registration makes NewTracker fail.
func WithCustomFunction(name string, fn Function) Option {
	return func(cfg *trackerConfig) {
		if cfg.functions == nil {
			cfg.functions = NewFunctionRegistry()
		}
		if err := cfg.functions.Register(name, fn); err != nil {
			cfg.optionErrs = append(cfg.optionErrs, err)
		}
	}
}

func compareVersionsFunction(args ...any) (any, error) {
	a, b, err := versionPair("compareVersions", args)
	if err != nil {
		return nil, err
	}
	return CompareVersionStrings(a, b), nil
}

func versionAtLeastFunction(args ...any) (any, error) {
	v, minimum, err := versionPair("versionAtLeast", args)
	if err != nil {
		return nil, err
	}
	return CompareVersionStrings(v, minimum) >= 0, nil
}

func versionPair(name string, args []any) (string, string, error) {
	if len(args) != 2 {
		return "", "", fmt.Errorf("versiontrack: %s expects 2 arguments, got %d", name, len(args))
	}
	a, err := versionArgument(args[0])
	if err != nil {
		return "", "", fmt.Errorf("versiontrack: %s: %w", name, err)
	}
	b, err := versionArgument(args[1])
	if err != nil {
		return "", "", fmt.Errorf("versiontrack: %s: %w", name, err)
	}
	return a, b, nil
}

// versionArgument accepts a version string, a Version or a version binding
// map as produced by Tracker.Binding.
func versionArgument(arg any) (string, error) {
	switch v := arg.(type) {
	case string:
		return v, nil
	case Version:
		return v.VersionString(), nil
	case map[string]any:
		if s, ok := v["version"].(string); ok {
			return s, nil
		}
		return "", fmt.Errorf("version map has no version field")
	case nil:
		return "", fmt.Errorf("version argument is nil")
	default:
		return "", fmt.Errorf("unsupported version argument %T", arg)
	}
}
