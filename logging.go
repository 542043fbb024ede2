// Copyright (C) The Lightning Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package genofilter

import (
	"os"
	"runtime/debug"

	"github.com/mattn/go-isatty"
	"github.com/sirupsen/logrus"
)

func init() {
	if os.Getenv("GOGC") == "" {
		debug.SetGCPercent(30)
	}
}

// ConfigureLogging sets up the package's standard logrus logger the way
// the teacher's Main does: a timestamp-free text formatter when stderr
// isn't a terminal (container/CI logs), the terminal-friendly default
// otherwise. Callers that embed this engine in their own CLI should call
// this once at startup.
func ConfigureLogging() {
	if !isatty.IsTerminal(os.Stderr.Fd()) {
		logrus.StandardLogger().Formatter = &logrus.TextFormatter{DisableTimestamp: true}
	}
}

// Log is the package's logrus standard logger, exposed so a caller can
// redirect or level-filter it in one place. The engine's components do not
// write log entries themselves.
var Log = logrus.StandardLogger()
