// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

// These variables are set via -ldflags at build time, for example:
//
//	go build -ldflags "-X github.com/bureau-foundation/shardstore/lib/version.GitCommit=$(git rev-parse --short HEAD)"
var (
	// GitCommit is the short git SHA of the build.
	GitCommit = "unknown"

	// GitDirty indicates whether there were uncommitted changes.
	GitDirty = "false"

	// BuildTime is the UTC timestamp of the build.
	BuildTime = "unknown"

	// Version is the semantic version. This is set manually for releases.
	Version = "0.1.0-dev"
)

// Build is the resolved build stamp.
type Build struct {
	Version string `json:"version"`
	Commit  string `json:"commit"`
	Dirty   bool   `json:"dirty"`
	Time    string `json:"time"`
	Go      string `json:"go"`
	OS      string `json:"os"`
	Arch    string `json:"arch"`
}

// Current resolves the build stamp from the ldflags variables, filling
// commit and time from the embedded VCS settings when they were not
// injected.
func Current() Build {
	build := Build{
		Version: Version,
		Commit:  GitCommit,
		Dirty:   GitDirty == "true",
		Time:    BuildTime,
		Go:      runtime.Version(),
		OS:      runtime.GOOS,
		Arch:    runtime.GOARCH,
	}
	if GitCommit != "unknown" {
		return build
	}
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return build
	}
	return fromSettings(build, info.Settings)
}

func fromSettings(build Build, settings []debug.BuildSetting) Build {
	for _, setting := range settings {
		switch setting.Key {
		case "vcs.revision":
			build.Commit = shortCommit(setting.Value)
		case "vcs.modified":
			build.Dirty = setting.Value == "true"
		case "vcs.time":
			if build.Time == "unknown" {
				build.Time = setting.Value
			}
		}
	}
	return build
}

func shortCommit(revision string) string {
	if len(revision) > 7 {
		return revision[:7]
	}
	return revision
}

// String formats the build as "0.1.0-dev (abc1234-dirty, 2026-...)".
func (b Build) String() string {
	dirty := ""
	if b.Dirty {
		dirty = "-dirty"
	}
	return fmt.Sprintf("%s (%s%s, %s)", b.Version, b.Commit, dirty, b.Time)
}

// Info returns a formatted version string suitable for --version output.
func Info() string {
	return Current().String()
}

// Full returns detailed version information including Go version.
func Full() string {
	build := Current()
	return fmt.Sprintf("%s\n  Go: %s\n  Platform: %s/%s",
		build, build.Go, build.OS, build.Arch)
}
