// SPDX-License-Identifier: GPL-3.0-or-later

// Package display is the settings engine that reshapes the host's
// monitor configuration for the duration of a streaming session and
// reliably reverts it afterward.
package display

import (
	"github.com/linuxdeepin/go-lib/log"
)

var logger = log.NewLogger("daemon/display")

// SetLogLevel adjusts the verbosity of the package-wide logger.
func SetLogLevel(level log.Priority) {
	logger.SetLogLevel(level)
}

// Logger returns the package-wide logger, for callers outside the
// package (the cmd/displayd entry point) that need to report startup
// failures through the same channel.
func Logger() *log.Logger {
	return logger
}
