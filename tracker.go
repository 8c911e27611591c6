package versiontrack

import (
	"context"
	"fmt"
)

// VersionSupplier returns the version observed for the running process.
type VersionSupplier func() Version

// Tracker is an immutable snapshot of one scope's launch state. It is built
// once: either from the merge this instance performed or, when the scope was
// already merged earlier in the process, from explicit store reads.
type Tracker struct {
	scope       string
	current     Version
	rawPrevious *Version
	history     []Version
	change      ChangeState
	merged      bool
	cfg         trackerConfig
	evaluator   Evaluator
}

// NewTracker merges the supplied version into store for scope and captures
// the resulting snapshot. Store failures are returned. Configuration errors
// (unsupported scope, a store this process never initialized for scope)
// panic with *ConfigError.
func NewTracker(ctx context.Context, scope string, supplier VersionSupplier, store *VersionStore, opts ...Option) (*Tracker, error) {
	mustSupportScope("new tracker", scope)
	if store == nil {
		return nil, ErrStoreRequired
	}
	if supplier == nil {
		return nil, ErrSupplierRequired
	}

	cfg := applyOptions(opts)
	if err := cfg.err(); err != nil {
		return nil, err
	}
	supplied := supplier()
	result, err := mergeOnce(ctx, store, scope, supplied, cfg)
	if err != nil {
		return nil, err
	}

	t := &Tracker{scope: scope, cfg: cfg, evaluator: cfg.resolveEvaluator()}
	if result != nil {
		t.merged = true
		t.current = result.Current
		t.rawPrevious = result.Previous
		t.history = cloneVersions(result.History)
	} else if err := t.loadFromStore(ctx, store, supplied); err != nil {
		return nil, err
	}
	t.change = Classify(t.rawPrevious, t.current)
	return t, nil
}

func (t *Tracker) loadFromStore(ctx context.Context, store *VersionStore, supplied Version) error {
	initialized, err := store.HasLastLaunched(ctx, t.scope)
	if err != nil {
		return err
	}
	if !initialized {
		configPanic("new tracker", t.scope, "store was never initialized for this scope by the current process")
	}

	current, ok, err := store.LastLaunched(ctx, t.scope)
	if err != nil {
		return err
	}
	if !ok {
		t.cfg.logger.Log(LogEvent{
			Level:   LogLevelWarn,
			Op:      "tracker.load",
			Message: "last launched record unreadable, using supplied version",
			Scope:   t.scope,
			Key:     store.Key(t.scope, FieldLastLaunched),
		})
		current = supplied
	}
	t.current = current

	previous, ok, err := store.PreviousLaunched(ctx, t.scope)
	if err != nil {
		return err
	}
	if ok {
		t.rawPrevious = &previous
	}

	history, err := store.LoadHistory(ctx, t.scope)
	if err != nil {
		return fmt.Errorf("versiontrack: tracker %q: %w", t.scope, err)
	}
	t.history = history
	return nil
}

func (t *Tracker) Scope() string {
	return t.scope
}

// CurrentVersion is the version recorded for this launch.
func (t *Tracker) CurrentVersion() Version {
	return t.current
}

// PreviousVersion is the version of the prior launch. It is absent on first
// launch and also when the prior launch ran the very same version.
func (t *Tracker) PreviousVersion() (Version, bool) {
	if t.rawPrevious == nil || t.rawPrevious.Equal(t.current) {
		return Version{}, false
	}
	return *t.rawPrevious, true
}

// RawPreviousVersion is the stored previous marker, even when it equals the
// current version. Absent only when no earlier launch was recorded.
func (t *Tracker) RawPreviousVersion() (Version, bool) {
	if t.rawPrevious == nil {
		return Version{}, false
	}
	return *t.rawPrevious, true
}

func (t *Tracker) ChangeState() ChangeState {
	return t.change
}

// IsFirstLaunch reports whether no earlier launch was ever recorded.
func (t *Tracker) IsFirstLaunch() bool {
	return t.change.Kind == ChangeInstalled
}

// Merged reports whether this tracker performed the session merge itself.
func (t *Tracker) Merged() bool {
	return t.merged
}

// VersionHistory returns every recorded version in install order. The slice
// is a copy.
func (t *Tracker) VersionHistory() []Version {
	return cloneVersions(t.history)
}

func cloneVersions(in []Version) []Version {
	out := make([]Version, len(in))
	copy(out, in)
	return out
}
