package workers

import "estate_admin/logging"

// LogFunc receives worker activity in addition to the process log. The TUI
// installs one to feed its activity pane.
type LogFunc func(level logging.Level, source, message string)

// NoOpLogger does nothing (default)
var NoOpLogger LogFunc = func(level logging.Level, source, message string) {}
