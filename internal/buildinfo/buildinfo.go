package buildinfo

import "runtime/debug"

// version is stamped by release builds via -ldflags.
var version = "dev"

// Version returns the release version, falling back to module build info and
// finally the VCS revision embedded by the Go toolchain.
func Version() string {
	if version != "dev" {
		return version
	}
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return version
	}
	if v := info.Main.Version; v != "" && v != "(devel)" {
		return v
	}
	for _, setting := range info.Settings {
		if setting.Key == "vcs.revision" && len(setting.Value) >= 12 {
			return setting.Value[:12]
		}
	}
	return version
}
