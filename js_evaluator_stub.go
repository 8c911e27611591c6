//go:build !js_eval

package versiontrack

// NewJSEvaluator returns nil without the js_eval build tag. A tracker given a
// nil evaluator falls back to expr.
func NewJSEvaluator(...EngineOption) Evaluator {
	return nil
}

// JSEvaluatorAvailable reports whether the binary was built with js_eval.
func JSEvaluatorAvailable() bool {
	return false
}
