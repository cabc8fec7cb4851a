package version

import (
	"runtime/debug"
	"strings"
)

// These variables are intended to be populated at build time via -ldflags:
//
//	-X github.com/tis24dev/showsave/internal/version.Version=v0.3.0
//	-X github.com/tis24dev/showsave/internal/version.Commit=abcdef123
//	-X github.com/tis24dev/showsave/internal/version.Date=2025-01-01T12:34:56Z
var (
	// Version holds the semantic version of the binary.
	Version = "0.0.0-dev"

	// Commit holds the VCS commit hash used to build the binary (optional).
	Commit = ""

	// Date holds the build timestamp (optional).
	Date = ""
)

var readBuildInfo = debug.ReadBuildInfo

// String returns the effective version: the ldflags value, then the main
// module version from the build info, then a development placeholder. A
// leading "v" is stripped.
func String() string {
	v := strings.TrimSpace(Version)

	if v == "" {
		if info, ok := readBuildInfo(); ok && info != nil {
			if mv := strings.TrimSpace(info.Main.Version); mv != "" && mv != "(devel)" {
				v = mv
			}
		}
	}

	if v == "" {
		v = "0.0.0-dev"
	}

	return strings.TrimPrefix(v, "v")
}
