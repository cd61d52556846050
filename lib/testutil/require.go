// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package testutil

import (
	"fmt"
	"testing"
	"time"
)

// RequireReceive reads one value from ch within timeout, or fails the
// test. A closed channel is a failure.
//
//	example := testutil.RequireReceive(t, results, 5*time.Second, "waiting for Next")
func RequireReceive[T any](t testing.TB, ch <-chan T, timeout time.Duration, msgAndArgs ...any) T {
	t.Helper()
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case value, ok := <-ch:
		if !ok {
			t.Fatalf("channel closed without sending a value: %s", describe(msgAndArgs))
		}
		return value
	case <-timer.C:
		t.Fatalf("timed out after %v: %s", timeout, describe(msgAndArgs))
	}
	panic("unreachable")
}

// RequireClosed waits until ch is closed or delivers a value, or fails
// the test after timeout.
//
//	testutil.RequireClosed(t, done, 5*time.Second, "iterator closed")
func RequireClosed(t testing.TB, ch <-chan struct{}, timeout time.Duration, msgAndArgs ...any) {
	t.Helper()
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-ch:
	case <-timer.C:
		t.Fatalf("timed out after %v waiting for channel close: %s", timeout, describe(msgAndArgs))
	}
}

// describe renders optional message arguments: a format string and
// its args, or a single value.
func describe(msgAndArgs []any) string {
	switch {
	case len(msgAndArgs) == 0:
		return "(no message)"
	case len(msgAndArgs) > 1:
		if format, ok := msgAndArgs[0].(string); ok {
			return fmt.Sprintf(format, msgAndArgs[1:]...)
		}
	}
	return fmt.Sprint(msgAndArgs...)
}
