package versiontrack

import (
	"context"
	"sync"
)

// SharedTrackers bundles the app and OS trackers created by Setup.
type SharedTrackers struct {
	App *Tracker
	OS  *Tracker
}

var shared struct {
	mu       sync.Mutex
	trackers *SharedTrackers
}

// Setup builds the process-wide app and OS trackers against store. Calling it
// twice in one process panics with *ConfigError.
func Setup(ctx context.Context, store *VersionStore, app, os VersionSupplier, opts ...Option) (*SharedTrackers, error) {
	shared.mu.Lock()
	defer shared.mu.Unlock()
	if shared.trackers != nil {
		configPanic("setup", "", "shared trackers already initialized")
	}

	appTracker, err := NewTracker(ctx, ScopeApp, app, store, opts...)
	if err != nil {
		return nil, err
	}
	osTracker, err := NewTracker(ctx, ScopeOS, os, store, opts...)
	if err != nil {
		return nil, err
	}
	shared.trackers = &SharedTrackers{App: appTracker, OS: osTracker}
	return shared.trackers, nil
}

// Shared returns the trackers built by Setup.
func Shared() (*SharedTrackers, bool) {
	shared.mu.Lock()
	defer shared.mu.Unlock()
	return shared.trackers, shared.trackers != nil
}

func resetShared() {
	shared.mu.Lock()
	shared.trackers = nil
	shared.mu.Unlock()
}
