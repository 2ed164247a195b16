// File: executor/pin_linux.go
//go:build linux

// Package executor
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package executor

import (
	"golang.org/x/sys/unix"

	"github.com/momentics/hioload-pipeline/internal/logutil"
)

// pinThread binds the calling OS thread to cpu. The caller must have
// locked the goroutine to its thread already.
func pinThread(cpu int) {
	var set unix.CPUSet
	set.Zero()
	set.Set(cpu)
	if err := unix.SchedSetaffinity(0, &set); err != nil {
		logutil.Logger().Warn().
			Err(err).
			Int("cpu", cpu).
			Msg("CPU affinity not applied")
	}
}
