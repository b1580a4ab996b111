package logging

import (
	"fmt"
	"log"
	"strings"
	"sync/atomic"
)

type Level int32

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

var current atomic.Int32

func init() {
	current.Store(int32(LevelInfo))
}

// ParseLevel maps LOG_LEVEL values; anything unknown is treated as info.
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

func SetLevel(l Level) {
	current.Store(int32(l))
}

func Enabled(l Level) bool {
	return l >= Level(current.Load())
}

func Debugf(format string, args ...interface{}) {
	output(LevelDebug, "Debug: ", format, args...)
}

func Infof(format string, args ...interface{}) {
	output(LevelInfo, "", format, args...)
}

func Warnf(format string, args ...interface{}) {
	output(LevelWarn, "Warning: ", format, args...)
}

func Errorf(format string, args ...interface{}) {
	output(LevelError, "Error: ", format, args...)
}

func output(l Level, prefix, format string, args ...interface{}) {
	if !Enabled(l) {
		return
	}
	// depth 3: output -> Warnf -> caller
	log.Default().Output(3, prefix+fmt.Sprintf(format, args...))
}
