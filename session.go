package versiontrack

import (
	"context"
	"sync"
	"testing"
	"time"
)

// MergeResult is what a successful MergeOnce observed and wrote.
type MergeResult struct {
	History  []Version
	Previous *Version
	Current  Version
}

type mergeState int

const (
	stateNeverMerged mergeState = iota
	stateMerging
	stateMerged
)

type scopeSession struct {
	mu    sync.Mutex
	state mergeState
}

// sessionRegistry holds the process-wide merge flags. They are never
// persisted and reset when the process restarts.
type sessionRegistry struct {
	mu     sync.Mutex
	scopes map[string]*scopeSession
}

var session = &sessionRegistry{scopes: map[string]*scopeSession{}}

func (r *sessionRegistry) scope(name string) *scopeSession {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.scopes[name]
	if !ok {
		s = &scopeSession{}
		r.scopes[name] = s
	}
	return s
}

func (r *sessionRegistry) reset() {
	r.mu.Lock()
	r.scopes = map[string]*scopeSession{}
	r.mu.Unlock()
}

// MergeOnce reconciles version with the stored history for scope, at most
// once per scope per process. Later calls return nil, nil without touching
// the store. A store failure leaves the scope unmerged so the call can be
// retried.
//
// Using an unregistered scope panics with *ConfigError.
func MergeOnce(ctx context.Context, store *VersionStore, scope string, version Version, opts ...Option) (*MergeResult, error) {
	return mergeOnce(ctx, store, scope, version, applyOptions(opts))
}

func mergeOnce(ctx context.Context, store *VersionStore, scope string, version Version, cfg trackerConfig) (*MergeResult, error) {
	mustSupportScope("merge", scope)
	if store == nil {
		return nil, ErrStoreRequired
	}

	s := session.scope(scope)
	start := time.Now()
	result, err := s.mergeLocked(ctx, store, scope, version, cfg)
	if err != nil {
		cfg.logger.Log(LogEvent{
			Level:    LogLevelError,
			Op:       "merge",
			Message:  "version merge failed",
			Scope:    scope,
			Duration: time.Since(start),
			Err:      err,
		})
		return nil, err
	}
	if result == nil {
		return nil, nil
	}

	change := Classify(result.Previous, result.Current)
	cfg.logger.Log(LogEvent{
		Level:    LogLevelInfo,
		Op:       "merge",
		Message:  "version merged",
		Scope:    scope,
		Duration: time.Since(start),
		Fields: map[string]any{
			"version": result.Current.VersionString(),
			"build":   result.Current.BuildString(),
			"change":  change.Kind.String(),
			"history": len(result.History),
		},
	})
	emitMerge(ctx, cfg, scope, result, change)
	return result, nil
}

func (s *scopeSession) mergeLocked(ctx context.Context, store *VersionStore, scope string, version Version, cfg trackerConfig) (*MergeResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == stateMerged {
		return nil, nil
	}
	s.state = stateMerging

	result, err := merge(ctx, store, scope, version, cfg)
	if err != nil {
		s.state = stateNeverMerged
		return nil, err
	}
	s.state = stateMerged
	return result, nil
}

func merge(ctx context.Context, store *VersionStore, scope string, version Version, cfg trackerConfig) (*MergeResult, error) {
	history, err := store.LoadHistory(ctx, scope)
	if err != nil {
		return nil, err
	}

	current, known := findKnown(history, version)
	if !known {
		current = version.withInstallDate(cfg.clock())
		history = append(history, current)
		if err := store.SaveHistory(ctx, scope, history); err != nil {
			return nil, err
		}
	}

	if err := store.RecordNewLaunch(ctx, scope, current); err != nil {
		return nil, err
	}

	result := &MergeResult{History: history, Current: current}
	previous, ok, err := store.PreviousLaunched(ctx, scope)
	if err != nil {
		return nil, err
	}
	if ok {
		result.Previous = &previous
	}
	return result, nil
}

// findKnown returns the stored entry equal to version, keeping its original
// install date.
func findKnown(history []Version, version Version) (Version, bool) {
	for _, known := range history {
		if known.Equal(version) {
			return known, true
		}
	}
	return version, false
}

// ResetSessionForTesting forgets every merge performed by this process and
// the shared trackers. It panics outside of go test.
func ResetSessionForTesting() {
	if !testing.Testing() {
		configPanic("reset session", "", "only available under go test")
	}
	session.reset()
	resetShared()
}
