// File: executor/pin_other.go
//go:build !linux

// Package executor
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package executor

// pinThread is a no-op where thread affinity syscalls are unavailable.
func pinThread(cpu int) {}
