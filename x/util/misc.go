package util

import (
	"runtime/debug"
)

// GetGitHash returns the vcs revision the binary was built from
func GetGitHash() string {
	if info, available := debug.ReadBuildInfo(); available {
		for _, setting := range info.Settings {
			if setting.Key == "vcs.revision" {
				return setting.Value
			}
		}
	}
	return "unknown"
}

func GetGitShortHash() string {
	hash := GetGitHash()
	if len(hash) > 7 {
		return hash[:7]
	}
	return hash
}

// GetVersion returns the module version of the main package
func GetVersion() string {
	if info, available := debug.ReadBuildInfo(); available && info.Main.Version != "" {
		return info.Main.Version
	}
	return "unknown"
}

func GetFullVersion() string {
	return GetVersion() + "-" + GetGitShortHash()
}
