package main

import (
	"flag"
	"log"
	"os"

	"github.com/mikesmullin/tcow/internal/tcowenv"
)

// logger is the package-level diagnostic logger SPEC_FULL's ambient
// stack calls for: a single log.Logger writing to stderr, gated by the
// level -log-level/TCOW_LOG resolves to (spec §6).
var logger = log.New(os.Stderr, "tcow: ", 0)

var logLevel = "info"

var logLevelFlag = flag.String("log-level", "", "override TCOW_LOG (debug, info, warn, error)")

func initLogging() {
	logLevel = tcowenv.ResolveLogLevel(*logLevelFlag)
}

var logLevelRank = map[string]int{"debug": 0, "info": 1, "warn": 2, "error": 3}

func logEnabled(level string) bool {
	return logLevelRank[logLevel] <= logLevelRank[level]
}

func logDebugf(format string, args ...interface{}) {
	if logEnabled("debug") {
		logger.Printf(format, args...)
	}
}

func logWarnf(format string, args ...interface{}) {
	if logEnabled("warn") {
		logger.Printf(format, args...)
	}
}
