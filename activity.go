package versiontrack

import (
	"context"

	"github.com/goliatone/go-versiontrack/pkg/activity"
	"github.com/google/uuid"
)

// emitMerge notifies the configured activity hooks about a merge. Hook
// failures are logged and never fail the merge.
func emitMerge(ctx context.Context, cfg trackerConfig, scope string, result *MergeResult, change ChangeState) {
	if len(cfg.activityHooks) == 0 {
		return
	}
	emitter := activity.NewEmitter(cfg.activityHooks, activity.Config{Enabled: true, Channel: cfg.channel})

	input := activity.VersionEventInput{
		LaunchID:    uuid.NewString(),
		Scope:       scope,
		Change:      change.Kind.String(),
		Version:     result.Current.VersionString(),
		Build:       result.Current.BuildString(),
		InstallDate: result.Current.InstallDate(),
		HistorySize: len(result.History),
		OccurredAt:  cfg.clock(),
	}
	if previous, ok := change.Previous(); ok {
		input.PreviousVersion = previous.VersionString()
		input.PreviousBuild = previous.BuildString()
	}

	if err := emitter.Emit(ctx, activity.BuildVersionEvent(input)); err != nil {
		cfg.logger.Log(LogEvent{
			Level:   LogLevelWarn,
			Op:      "activity.emit",
			Message: "activity hook failed",
			Scope:   scope,
			Err:     err,
		})
	}
}
