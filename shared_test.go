package versiontrack

import (
	"context"
	"testing"
)

func TestSetupBuildsSharedTrackers(t *testing.T) {
	freshSession(t)
	ctx := context.Background()
	store := newTestStore(t, newMemoryKV())

	if _, ok := Shared(); ok {
		t.Fatalf("expected no shared trackers before setup")
	}
	trackers, err := Setup(ctx, store, StaticVersion("2.3", "17"), StaticVersion("14.1", ""))
	if err != nil {
		t.Fatalf("setup: %v", err)
	}
	if trackers.App.Scope() != ScopeApp || trackers.OS.Scope() != ScopeOS {
		t.Fatalf("unexpected scopes %q and %q", trackers.App.Scope(), trackers.OS.Scope())
	}
	if !trackers.App.IsFirstLaunch() || !trackers.OS.IsFirstLaunch() {
		t.Fatalf("expected first launch for both scopes")
	}

	got, ok := Shared()
	if !ok || got != trackers {
		t.Fatalf("expected Shared to return the setup trackers")
	}

	expectConfigPanic(t, func() {
		_, _ = Setup(ctx, store, StaticVersion("2.3", "17"), StaticVersion("14.1", ""))
	})
}

func TestSetupFailureLeavesSharedUnset(t *testing.T) {
	freshSession(t)
	kv := newMemoryKV()
	kv.setFailing(true)
	store := newTestStore(t, kv)

	if _, err := Setup(context.Background(), store, StaticVersion("1.0", ""), StaticVersion("1.0", "")); err == nil {
		t.Fatalf("expected setup to fail")
	}
	if _, ok := Shared(); ok {
		t.Fatalf("expected shared trackers to stay unset")
	}
}
