package astiepg

import "github.com/asticode/go-astikit"

// Logging is centralized behind a single package-level logger, same shape
// as the astits package it sits on top of: diagnostics (event-time changes
// affecting a scheduled timer) log at info level, system errors (TDT clock
// set failures) log at error level, through whatever logger the caller
// wires in.
var logger = astikit.AdaptStdLogger(nil)

// SetLogger sets the logger used by the package.
func SetLogger(l astikit.StdLogger) { logger = astikit.AdaptStdLogger(l) }
