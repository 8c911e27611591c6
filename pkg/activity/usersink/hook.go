// Package usersink forwards launch events to a go-users activity sink so
// version changes show up in a user's activity feed.
package usersink

import (
	"context"
	"strings"

	"github.com/goliatone/go-versiontrack/pkg/activity"
	usertypes "github.com/goliatone/go-users/pkg/types"
	"github.com/google/uuid"
)

// Hook adapts activity events to a go-users ActivitySink.
type Hook struct {
	Sink usertypes.ActivitySink
	// Changes limits forwarding to the listed change kinds ("upgraded",
	// "downgraded", ...). Empty forwards everything.
	Changes []string
}

// Notify maps the event into an ActivityRecord and logs it to the sink.
func (h Hook) Notify(ctx context.Context, event activity.Event) error {
	if h.Sink == nil {
		return nil
	}

	normalized := activity.NormalizeEvent(event)
	if normalized.Verb == "" || normalized.ObjectType == "" || normalized.ObjectID == "" {
		return nil
	}
	if !h.accepts(normalized) {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}

	record := usertypes.ActivityRecord{
		ActorID:    parseUUID(normalized.ActorID),
		UserID:     parseUUID(normalized.UserID),
		TenantID:   parseUUID(normalized.TenantID),
		Verb:       normalized.Verb,
		ObjectType: normalized.ObjectType,
		ObjectID:   normalized.ObjectID,
		Channel:    normalized.Channel,
		Data:       normalized.Metadata,
		OccurredAt: normalized.OccurredAt,
	}
	return h.Sink.Log(ctx, record)
}

func (h Hook) accepts(event activity.Event) bool {
	if len(h.Changes) == 0 {
		return true
	}
	change, _ := event.Metadata["change"].(string)
	if change == "" {
		change = strings.TrimPrefix(event.Verb, activity.ObjectTypeVersion+".")
	}
	for _, allowed := range h.Changes {
		if strings.EqualFold(strings.TrimSpace(allowed), change) {
			return true
		}
	}
	return false
}

func parseUUID(input string) uuid.UUID {
	id, err := uuid.Parse(strings.TrimSpace(input))
	if err != nil {
		return uuid.Nil
	}
	return id
}
