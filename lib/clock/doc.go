// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock provides an injectable time source.
//
// Code that stamps or measures time takes a Clock instead of calling
// time.Now directly. Production code passes Real(); tests pass Fake()
// and move time explicitly with Advance or Set, so timestamps written
// into index artifacts and durations reported in logs are
// deterministic.
package clock
