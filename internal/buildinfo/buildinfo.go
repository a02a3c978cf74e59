package buildinfo

import (
	"runtime/debug"
	"strings"
)

// VersionWithTags describes the running binary: module version, VCS revision
// and build tags when the toolchain recorded them.
func VersionWithTags() string {
	info, ok := debug.ReadBuildInfo()
	if !ok || info == nil {
		return "dev"
	}
	return describe(info)
}

func describe(info *debug.BuildInfo) string {
	version := info.Main.Version
	if version == "" || version == "(devel)" {
		version = "dev"
	}
	var revision, tags string
	var dirty bool
	for _, setting := range info.Settings {
		switch setting.Key {
		case "vcs.revision":
			revision = setting.Value
		case "vcs.modified":
			dirty = setting.Value == "true"
		case "-tags":
			tags = setting.Value
		}
	}
	var extra []string
	if revision != "" {
		if len(revision) > 12 {
			revision = revision[:12]
		}
		if dirty {
			revision += "-dirty"
		}
		extra = append(extra, "rev: "+revision)
	}
	if tags != "" {
		extra = append(extra, "tags: "+tags)
	}
	if len(extra) == 0 {
		return version
	}
	return version + " (" + strings.Join(extra, ", ") + ")"
}
