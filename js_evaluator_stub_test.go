//go:build !js_eval

package versiontrack

import "testing"

func TestJSEvaluatorUnavailableFallsBackToExpr(t *testing.T) {
	if JSEvaluatorAvailable() || NewJSEvaluator() != nil {
		t.Fatalf("expected js evaluator to be unavailable without the js_eval tag")
	}
	tracker := upgradedTracker(t, WithEvaluator(NewJSEvaluator()))
	if matched, err := tracker.Match(`change == "upgraded"`); err != nil || !matched {
		t.Fatalf("expected default engine to evaluate, got %v, %v", matched, err)
	}
}
