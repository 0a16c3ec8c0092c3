package version

import "runtime/debug"

// Unknown is reported when no version information is available.
const Unknown = "Unknown"

// Version is set at build time:
//
//	go build -ldflags "-X github.com/loykin/vrchime/internal/version.Version=v1.2.3"
var Version string

var readBuildInfo = debug.ReadBuildInfo

// Get returns the linked version, then the module version recorded in the
// binary, then Unknown.
func Get() string {
	if Version != "" {
		return Version
	}
	if bi, ok := readBuildInfo(); ok && bi != nil {
		if v := bi.Main.Version; v != "" && v != "(devel)" {
			return v
		}
	}
	return Unknown
}
