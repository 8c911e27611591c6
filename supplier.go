package versiontrack

import (
	"runtime/debug"
	"strings"
)

// StaticVersion always supplies the given version and build.
func StaticVersion(version, build string) VersionSupplier {
	return func() Version {
		return NewVersion(version, build)
	}
}

// BuildInfoVersion supplies the main module version embedded by the Go
// toolchain, with the VCS revision as build string. Binaries built without
// module information report "0".
func BuildInfoVersion() VersionSupplier {
	return func() Version {
		info, ok := debug.ReadBuildInfo()
		if !ok {
			return NewVersion("0", "")
		}
		return versionFromBuildInfo(info)
	}
}

func versionFromBuildInfo(info *debug.BuildInfo) Version {
	version := strings.TrimPrefix(info.Main.Version, "v")
	if version == "" || version == "(devel)" {
		version = "0"
	}
	// pseudo-versions and pre-release suffixes are not ordered
	if idx := strings.IndexAny(version, "-+"); idx >= 0 {
		version = version[:idx]
	}

	var build string
	for _, setting := range info.Settings {
		if setting.Key == "vcs.revision" {
			build = setting.Value
			break
		}
	}
	return NewVersion(version, build)
}
