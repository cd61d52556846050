// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package version

import (
	"runtime"
	"runtime/debug"
	"strings"
	"testing"
)

func TestBuildString(t *testing.T) {
	tests := []struct {
		name  string
		build Build
		want  string
	}{
		{
			name:  "clean",
			build: Build{Version: "1.2.0", Commit: "abc1234", Time: "2026-01-02T03:04:05Z"},
			want:  "1.2.0 (abc1234, 2026-01-02T03:04:05Z)",
		},
		{
			name:  "dirty",
			build: Build{Version: "1.2.0", Commit: "abc1234", Dirty: true, Time: "unknown"},
			want:  "1.2.0 (abc1234-dirty, unknown)",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.build.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFromSettings(t *testing.T) {
	base := Build{Version: "0.1.0-dev", Commit: "unknown", Time: "unknown"}
	settings := []debug.BuildSetting{
		{Key: "vcs", Value: "git"},
		{Key: "vcs.revision", Value: "0123456789abcdef0123456789abcdef01234567"},
		{Key: "vcs.modified", Value: "true"},
		{Key: "vcs.time", Value: "2026-03-04T05:06:07Z"},
	}

	build := fromSettings(base, settings)
	if build.Commit != "0123456" {
		t.Errorf("Commit = %q, want 0123456", build.Commit)
	}
	if !build.Dirty {
		t.Error("Dirty = false, want true")
	}
	if build.Time != "2026-03-04T05:06:07Z" {
		t.Errorf("Time = %q", build.Time)
	}

	// An injected build time wins over the VCS time.
	base.Time = "injected"
	if got := fromSettings(base, settings).Time; got != "injected" {
		t.Errorf("Time = %q, want injected", got)
	}
}

func TestShortCommit(t *testing.T) {
	if got := shortCommit("abc"); got != "abc" {
		t.Errorf("shortCommit(abc) = %q", got)
	}
	if got := shortCommit("abcdef0123"); got != "abcdef0" {
		t.Errorf("shortCommit(abcdef0123) = %q", got)
	}
}

func TestFull(t *testing.T) {
	full := Full()
	if !strings.HasPrefix(full, Version) {
		t.Errorf("Full() = %q, want prefix %q", full, Version)
	}
	if !strings.Contains(full, runtime.Version()) {
		t.Errorf("Full() = %q, missing Go version", full)
	}
	if !strings.Contains(full, runtime.GOOS+"/"+runtime.GOARCH) {
		t.Errorf("Full() = %q, missing platform", full)
	}
}
