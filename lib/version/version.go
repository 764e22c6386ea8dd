// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"sync"
)

// Set via -ldflags at build time.
var (
	Version   = "0.1.0-dev"
	GitCommit = ""
)

// Build describes the running binary.
type Build struct {
	Version  string
	Commit   string
	Modified bool
	Time     string
}

var current = sync.OnceValue(func() Build {
	build := Build{Version: Version, Commit: GitCommit}
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return build
	}
	for _, setting := range info.Settings {
		switch setting.Key {
		case "vcs.revision":
			if build.Commit == "" {
				build.Commit = setting.Value[:min(len(setting.Value), 12)]
			}
		case "vcs.modified":
			build.Modified = setting.Value == "true"
		case "vcs.time":
			build.Time = setting.Value
		}
	}
	return build
})

// Current returns the build of the running binary.
func Current() Build {
	return current()
}

// String formats the build as "0.1.0-dev (abc123def456-dirty, <time>)".
func (b Build) String() string {
	commit := b.Commit
	if commit == "" {
		commit = "unknown"
	}
	if b.Modified {
		commit += "-dirty"
	}
	if b.Time == "" {
		return fmt.Sprintf("%s (%s)", b.Version, commit)
	}
	return fmt.Sprintf("%s (%s, %s)", b.Version, commit, b.Time)
}

// Info returns the one-line version of the running binary.
func Info() string {
	return Current().String()
}

// Full adds the Go version and platform to Info.
func Full() string {
	return fmt.Sprintf("%s\n  Go: %s\n  Platform: %s/%s",
		Info(), runtime.Version(), runtime.GOOS, runtime.GOARCH)
}
