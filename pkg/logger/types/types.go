package types

import (
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is a sugared zap logger tagged with the component it serves.
// Name is "main" for the root logger and "notifier" for the process itself.
// Setup hands out one per service or controller, e.g. "dispatcher" or "kafka".
type Logger struct {
	*zap.SugaredLogger
	LogsPath string // directory of the daily notifier-*.log files
	Name     string
}

// Log is the copy of an entry passed to the log hook, used by the Telegram forwarder.
type Log struct {
	Timestamp  time.Time
	Caller     string
	LoggerName string // dotted, e.g. "main.dispatcher"
	Level      zapcore.Level
	Message    string
}

// LogHook receives every entry written through the root logger or its children.
type LogHook func(log Log)
