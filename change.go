package versiontrack

import "fmt"

// ChangeKind identifies the transition between the previous and the current
// launch.
type ChangeKind int

const (
	// ChangeInstalled means no prior version was recorded.
	ChangeInstalled ChangeKind = iota
	// ChangeNotChanged means version and build match the prior launch.
	ChangeNotChanged
	// ChangeUpdated means the numeric version matches but the build differs.
	ChangeUpdated
	// ChangeUpgraded means the numeric version increased.
	ChangeUpgraded
	// ChangeDowngraded means the numeric version decreased.
	ChangeDowngraded
)

func (k ChangeKind) String() string {
	switch k {
	case ChangeInstalled:
		return "installed"
	case ChangeNotChanged:
		return "not_changed"
	case ChangeUpdated:
		return "updated"
	case ChangeUpgraded:
		return "upgraded"
	case ChangeDowngraded:
		return "downgraded"
	default:
		return fmt.Sprintf("unknown(%d)", int(k))
	}
}

// ParseChangeKind converts the String form back into a ChangeKind.
func ParseChangeKind(value string) (ChangeKind, bool) {
	switch value {
	case "installed":
		return ChangeInstalled, true
	case "not_changed":
		return ChangeNotChanged, true
	case "updated":
		return ChangeUpdated, true
	case "upgraded":
		return ChangeUpgraded, true
	case "downgraded":
		return ChangeDowngraded, true
	default:
		return 0, false
	}
}

// ChangeState is the classified transition. Updated, Upgraded and Downgraded
// carry the previous version; Installed and NotChanged carry nothing.
type ChangeState struct {
	Kind     ChangeKind
	previous *Version
}

// Previous returns the version the change was computed from, when the kind
// carries one.
func (s ChangeState) Previous() (Version, bool) {
	if s.previous == nil {
		return Version{}, false
	}
	return *s.previous, true
}

func (s ChangeState) String() string {
	if s.previous == nil {
		return s.Kind.String()
	}
	return fmt.Sprintf("%s(%s)", s.Kind, s.previous)
}

// Classify computes the change state from previous to current. It is pure and
// total: a nil previous always yields ChangeInstalled.
func Classify(previous *Version, current Version) ChangeState {
	if previous == nil {
		return ChangeState{Kind: ChangeInstalled}
	}
	prev := *previous
	switch c := prev.Compare(current); {
	case c < 0:
		return ChangeState{Kind: ChangeUpgraded, previous: &prev}
	case c > 0:
		return ChangeState{Kind: ChangeDowngraded, previous: &prev}
	case !prev.Equal(current):
		return ChangeState{Kind: ChangeUpdated, previous: &prev}
	default:
		return ChangeState{Kind: ChangeNotChanged}
	}
}
