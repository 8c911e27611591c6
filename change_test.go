package versiontrack

import "testing"

func TestClassify(t *testing.T) {
	v := func(version, build string) *Version {
		out := NewVersion(version, build)
		return &out
	}

	cases := []struct {
		name         string
		previous     *Version
		current      Version
		kind         ChangeKind
		withPrevious bool
	}{
		{"first launch", nil, NewVersion("1.0", "1"), ChangeInstalled, false},
		{"same version and build", v("1.0", "1"), NewVersion("1.0", "1"), ChangeNotChanged, false},
		{"padded version", v("1.0.0", "1"), NewVersion("1.0", "1"), ChangeNotChanged, false},
		{"new build", v("1.0", "1"), NewVersion("1.0", "2"), ChangeUpdated, true},
		{"upgrade", v("1.0", "2"), NewVersion("1.1", "3"), ChangeUpgraded, true},
		{"downgrade", v("1.1", "3"), NewVersion("1.0", "2"), ChangeDowngraded, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			state := Classify(tc.previous, tc.current)
			if state.Kind != tc.kind {
				t.Fatalf("expected %s, got %s", tc.kind, state.Kind)
			}
			previous, ok := state.Previous()
			if ok != tc.withPrevious {
				t.Fatalf("expected previous presence %v, got %v", tc.withPrevious, ok)
			}
			if ok && !previous.Equal(*tc.previous) {
				t.Fatalf("expected previous %s, got %s", tc.previous, previous)
			}
		})
	}
}

func TestChangeKindRoundTrip(t *testing.T) {
	for _, kind := range []ChangeKind{ChangeInstalled, ChangeNotChanged, ChangeUpdated, ChangeUpgraded, ChangeDowngraded} {
		parsed, ok := ParseChangeKind(kind.String())
		if !ok || parsed != kind {
			t.Fatalf("round trip of %s failed", kind)
		}
	}
	if _, ok := ParseChangeKind("reinstalled"); ok {
		t.Fatalf("expected unknown kind to fail")
	}
	if got := ChangeKind(42).String(); got != "unknown(42)" {
		t.Fatalf("unexpected string %q", got)
	}
}

func TestChangeStateString(t *testing.T) {
	prev := NewVersion("1.0", "2")
	state := Classify(&prev, NewVersion("1.1", "3"))
	if got := state.String(); got != "upgraded(1.0 (2))" {
		t.Fatalf("unexpected string %q", got)
	}
	if got := Classify(nil, prev).String(); got != "installed" {
		t.Fatalf("unexpected string %q", got)
	}
}
