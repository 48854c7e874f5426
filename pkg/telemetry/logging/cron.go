package logging

import (
	"log/slog"

	"github.com/robfig/cron/v3"
)

// cronLogger routes scheduler messages through slog. Routine scheduler
// chatter is logged at debug level.
type cronLogger struct {
	logger *slog.Logger
}

// NewCronLogger adapts logger to cron.Logger.
func NewCronLogger(logger *slog.Logger) cron.Logger {
	return cronLogger{logger: logger.With("component", "cron")}
}

// Info implements cron.Logger.
func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug(msg, keysAndValues...)
}

// Error implements cron.Logger.
func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error(msg, append(keysAndValues, "error", err)...)
}
