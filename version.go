package versiontrack

import (
	"cmp"
	"strconv"
	"strings"
	"time"
)

// Version is an immutable value describing one observed release: a dotted
// numeric version string, an opaque build string and the date it was first
// recorded. Ordering only looks at the numeric components; equality also
// requires the build strings to match. The install date never participates.
type Version struct {
	version     string
	build       string
	installDate time.Time
}

// VersionOption configures a Version on construction.
type VersionOption func(*Version)

// WithInstallDate sets the install date instead of defaulting to now.
func WithInstallDate(date time.Time) VersionOption {
	return func(v *Version) {
		v.installDate = date
	}
}

// NewVersion builds a Version. The install date defaults to the creation time.
func NewVersion(version, build string, opts ...VersionOption) Version {
	v := Version{
		version:     version,
		build:       build,
		installDate: time.Now(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&v)
		}
	}
	return v
}

func (v Version) VersionString() string {
	return v.version
}

func (v Version) BuildString() string {
	return v.build
}

func (v Version) InstallDate() time.Time {
	return v.installDate
}

// Components returns the parsed numeric components of the version string.
func (v Version) Components() []int {
	return ParseComponents(v.version)
}

// IsZero reports whether v was never constructed.
func (v Version) IsZero() bool {
	return v.version == "" && v.build == "" && v.installDate.IsZero()
}

func (v Version) String() string {
	if v.build == "" {
		return v.version
	}
	return v.version + " (" + v.build + ")"
}

// Compare orders v against other by numeric components only.
// Returns -1 if v < other, 0 if equal, 1 if v > other.
func (v Version) Compare(other Version) int {
	return CompareVersionStrings(v.version, other.version)
}

func (v Version) Less(other Version) bool {
	return v.Compare(other) < 0
}

func (v Version) Greater(other Version) bool {
	return v.Compare(other) > 0
}

// Equal reports whether both the numeric components and the build strings
// match. Two versions differing only by build are neither less, greater nor
// equal.
func (v Version) Equal(other Version) bool {
	return v.Compare(other) == 0 && v.build == other.build
}

func (v Version) withInstallDate(date time.Time) Version {
	v.installDate = date
	return v
}

// ParseComponents splits a dotted version string into non-negative integers.
// Empty, non-numeric, negative or overflowing segments degrade to 0, so the
// function never fails.
func ParseComponents(version string) []int {
	segments := strings.Split(version, ".")
	components := make([]int, len(segments))
	for i, segment := range segments {
		n, err := strconv.Atoi(strings.TrimSpace(segment))
		if err != nil || n < 0 {
			continue
		}
		components[i] = n
	}
	return components
}

// CompareVersionStrings compares two dotted version strings component-wise,
// padding the shorter one with zeros. "1.2" and "1.2.0" compare equal.
func CompareVersionStrings(a, b string) int {
	left := ParseComponents(a)
	right := ParseComponents(b)
	n := max(len(left), len(right))
	for i := 0; i < n; i++ {
		if c := cmp.Compare(componentAt(left, i), componentAt(right, i)); c != 0 {
			return c
		}
	}
	return 0
}

func componentAt(components []int, i int) int {
	if i < len(components) {
		return components[i]
	}
	return 0
}
