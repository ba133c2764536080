package version

import (
	"fmt"
	"io"
	"runtime/debug"
)

// ModuleVersion returns the module version, or the git revision for
// development builds.
func ModuleVersion() string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return "unknown"
	}
	return versionFromBuildInfo(info)
}

func versionFromBuildInfo(info *debug.BuildInfo) string {
	// When built, e.g., using go install .../fx-go/cmd/fx-key@vX.Y.Z.
	version := info.Main.Version
	if version != "(devel)" && version != "" {
		return version
	}

	// The vcs.* fields are populated when running "go build" in a
	// git checkout, *without* listing specific source files on the
	// commandline.
	m := make(map[string]string)
	for _, setting := range info.Settings {
		m[setting.Key] = setting.Value
	}
	revision, ok := m["vcs.revision"]
	if !ok {
		return "(devel)"
	}
	version = fmt.Sprintf("git %s", revision)
	if t, ok := m["vcs.time"]; ok {
		version += " " + t
	}
	// Any untracked file not listed in .gitignore counts as a local
	// modification.
	if m["vcs.modified"] != "false" {
		version += " (with local changes)"
	}
	return version
}

func DisplayVersion(w io.Writer, tool string) {
	fmt.Fprintf(w, "%s (fx-go module) %s\n", tool, ModuleVersion())
}
