package versiontrack

import (
	"errors"
	"fmt"
	"time"

	"github.com/goliatone/go-versiontrack/pkg/activity"
)

// Option configures merges and trackers.
type Option func(*trackerConfig)

type trackerConfig struct {
	logger        Logger
	clock         func() time.Time
	activityHooks activity.Hooks
	channel       string
	evaluator     Evaluator
	programCache  ProgramCache
	functions     *FunctionRegistry
	optionErrs    []error
}

func applyOptions(opts []Option) trackerConfig {
	cfg := trackerConfig{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	cfg.logger = loggerOrNoop(cfg.logger)
	if cfg.clock == nil {
		cfg.clock = time.Now
	}
	return cfg
}

// err reports options that could not be applied.
func (cfg trackerConfig) err() error {
	if len(cfg.optionErrs) == 0 {
		return nil
	}
	return fmt.Errorf("versiontrack: invalid options: %w", errors.Join(cfg.optionErrs...))
}

// WithLogger routes merge, activity and evaluation events to logger.
func WithLogger(logger Logger) Option {
	return func(cfg *trackerConfig) {
		cfg.logger = logger
	}
}

// WithClock replaces time.Now when stamping install dates.
func WithClock(clock func() time.Time) Option {
	return func(cfg *trackerConfig) {
		cfg.clock = clock
	}
}

// WithActivityHooks notifies hooks after every merge. Nil entries are
// dropped and the slice is copied.
func WithActivityHooks(hooks activity.Hooks) Option {
	normalized := cloneActivityHooks(hooks)
	return func(cfg *trackerConfig) {
		cfg.activityHooks = normalized
	}
}

// WithActivityChannel overrides the channel stamped on emitted events.
func WithActivityChannel(channel string) Option {
	return func(cfg *trackerConfig) {
		cfg.channel = channel
	}
}

// WithEvaluator selects the rule engine used by Tracker.Evaluate.
func WithEvaluator(e Evaluator) Option {
	return func(cfg *trackerConfig) {
		cfg.evaluator = e
	}
}

// WithProgramCache lets the default evaluator reuse compiled rules.
func WithProgramCache(cache ProgramCache) Option {
	return func(cfg *trackerConfig) {
		cfg.programCache = cache
	}
}

func cloneActivityHooks(hooks activity.Hooks) activity.Hooks {
	if len(hooks) == 0 {
		return nil
	}
	normalized := make([]activity.ActivityHook, 0, len(hooks))
	for _, hook := range hooks {
		if hook == nil {
			continue
		}
		normalized = append(normalized, hook)
	}
	if len(normalized) == 0 {
		return nil
	}
	return activity.Hooks(normalized)
}
