// File: internal/logutil/logutil.go
// Package logutil holds the library-wide structured logger.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// The pipeline core logs only conditions the caller cannot observe
// through a return value: removal-callback failures, unhandled events
// and errors reaching the tail sentinel, and executor lifecycle. All of
// it goes through one zerolog.Logger, replaceable at startup.

package logutil

import (
	"os"
	"sync/atomic"

	"github.com/rs/zerolog"
)

var logger atomic.Pointer[zerolog.Logger]

func init() {
	l := zerolog.New(os.Stderr).With().Timestamp().Logger()
	logger.Store(&l)
}

// Logger returns the current library logger.
func Logger() *zerolog.Logger {
	return logger.Load()
}

// SetLogger replaces the library logger. Intended for startup
// configuration and tests.
func SetLogger(l zerolog.Logger) {
	logger.Store(&l)
}
