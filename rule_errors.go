package versiontrack

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNoEvaluator is returned when a tracker has no rule engine.
	ErrNoEvaluator = errors.New("versiontrack: no rule engine configured")
	// ErrEmptyRule is returned for blank rule expressions.
	ErrEmptyRule = errors.New("versiontrack: rule expression is empty")
)

// RuleError reports a launch rule that failed to compile or run. Scope and
// Change describe the tracker snapshot the rule was evaluated against and are
// empty when an engine is used directly.
type RuleError struct {
	Engine string
	Expr   string
	Scope  string
	Change string
	Err    error
}

func (e *RuleError) Error() string {
	if e == nil {
		return "<nil>"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "versiontrack: rule %q (%s", e.Expr, e.Engine)
	if e.Scope != "" {
		fmt.Fprintf(&b, ", scope %s", e.Scope)
	}
	if e.Change != "" {
		fmt.Fprintf(&b, ", %s launch", e.Change)
	}
	fmt.Fprintf(&b, "): %v", e.Err)
	return b.String()
}

func (e *RuleError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// ruleError wraps err in a *RuleError for engine and expr. An existing
// *RuleError is reused and only its blank fields are filled.
func ruleError(err error, engine, expr string) error {
	return annotateRule(err, RuleError{Engine: engine, Expr: expr})
}

func annotateRule(err error, info RuleError) error {
	if err == nil {
		return nil
	}
	var ruleErr *RuleError
	if !errors.As(err, &ruleErr) {
		info.Err = err
		return &info
	}
	if ruleErr.Engine == "" {
		ruleErr.Engine = info.Engine
	}
	if ruleErr.Expr == "" {
		ruleErr.Expr = info.Expr
	}
	if ruleErr.Scope == "" {
		ruleErr.Scope = info.Scope
	}
	if ruleErr.Change == "" {
		ruleErr.Change = info.Change
	}
	return ruleErr
}
