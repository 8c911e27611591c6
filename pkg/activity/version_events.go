package activity

import (
	"strings"
	"time"
)

// ObjectTypeVersion is the object type of every launch event.
const ObjectTypeVersion = "version"

// VersionEventInput describes a merged launch.
type VersionEventInput struct {
	ActorID         string
	UserID          string
	TenantID        string
	Channel         string
	LaunchID        string
	Scope           string
	Change          string
	Version         string
	Build           string
	PreviousVersion string
	PreviousBuild   string
	InstallDate     time.Time
	HistorySize     int
	Metadata        map[string]any
	OccurredAt      time.Time
}

// VersionVerb returns the event verb for a change kind, e.g. "version.upgraded".
func VersionVerb(change string) string {
	change = strings.TrimSpace(change)
	if change == "" {
		return ""
	}
	return ObjectTypeVersion + "." + change
}

// BuildVersionEvent constructs the event emitted after a merge. The object id
// is "<scope>:<version>".
func BuildVersionEvent(input VersionEventInput) Event {
	metadata := cloneMap(input.Metadata)
	set := func(key string, value any) {
		if metadata == nil {
			metadata = map[string]any{}
		}
		metadata[key] = value
	}

	scope := strings.TrimSpace(input.Scope)
	set("scope", scope)
	set("change", strings.TrimSpace(input.Change))
	set("version", input.Version)
	if input.Build != "" {
		set("build", input.Build)
	}
	if input.PreviousVersion != "" {
		set("previous_version", input.PreviousVersion)
		set("previous_build", input.PreviousBuild)
	}
	if !input.InstallDate.IsZero() {
		set("install_date", input.InstallDate)
	}
	if input.HistorySize > 0 {
		set("history_size", input.HistorySize)
	}
	if input.LaunchID != "" {
		set("launch_id", input.LaunchID)
	}

	objectID := scope
	if input.Version != "" {
		objectID = scope + ":" + input.Version
	}

	return Event{
		Verb:       VersionVerb(input.Change),
		ActorID:    strings.TrimSpace(input.ActorID),
		UserID:     strings.TrimSpace(input.UserID),
		TenantID:   strings.TrimSpace(input.TenantID),
		ObjectType: ObjectTypeVersion,
		ObjectID:   objectID,
		Channel:    strings.TrimSpace(input.Channel),
		Metadata:   metadata,
		OccurredAt: input.OccurredAt,
	}
}
