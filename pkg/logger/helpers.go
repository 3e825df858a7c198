package logger

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// LogRateLimit logs a governor or backoff pause
func LogRateLimit(log Logger, reason string, wait time.Duration) {
	log.WithFields(map[string]interface{}{
		"reason": reason,
		"wait":   wait,
		"action": "rate_limited",
	}).Warn("Rate limit reached, backing off")
}

// LogRequest logs a completed HTTP exchange at a level matching its status
func LogRequest(log Logger, method, url string, statusCode int, duration time.Duration) {
	fields := map[string]interface{}{
		"method":      method,
		"url":         url,
		"status_code": statusCode,
		"duration":    duration,
	}

	switch {
	case statusCode >= 500:
		log.ErrorWithFields("HTTP request server error", fields)
	case statusCode >= 400:
		log.WarnWithFields("HTTP request client error", fields)
	default:
		log.DebugWithFields("HTTP request completed", fields)
	}
}

// LogItemOutcome logs the result of processing a single bookmark
func LogItemOutcome(log Logger, itemID int64, title, outcome string, tags []string, err error) {
	entry := log.WithFields(map[string]interface{}{
		"item_id": itemID,
		"title":   title,
		"outcome": outcome,
	})

	if err != nil {
		entry.WithError(err).Error("Item failed")
		return
	}
	if len(tags) > 0 {
		entry = entry.WithField("tags", tags)
	}
	entry.Debug("Item processed")
}

// LogRunSummary logs the final counters of a tagging run
func LogRunSummary(log Logger, total, skipped, success, failed int, duration time.Duration) {
	log.InfoWithFields("Run finished", map[string]interface{}{
		"total":    total,
		"skipped":  skipped,
		"success":  success,
		"errors":   failed,
		"duration": duration,
	})
}

// LogComponentStart logs when a component starts
func LogComponentStart(log Logger, component string, config map[string]interface{}) {
	entry := log.WithField("component", component)
	if len(config) > 0 {
		entry = entry.WithFields(config)
	}
	entry.Info("Component started")
}

// LogComponentStop logs when a component stops
func LogComponentStop(log Logger, component string, reason string) {
	log.WithFields(map[string]interface{}{
		"component": component,
		"reason":    reason,
	}).Info("Component stopped")
}

// NewNopLogger creates a no-operation logger for testing
func NewNopLogger() Logger {
	return &nopLogger{}
}

// nopLogger is a logger that does nothing
type nopLogger struct{}

func (n *nopLogger) Debug(msg string)                                          {}
func (n *nopLogger) Info(msg string)                                           {}
func (n *nopLogger) Warn(msg string)                                           {}
func (n *nopLogger) Error(msg string)                                          {}
func (n *nopLogger) Fatal(msg string)                                          {}
func (n *nopLogger) WithField(key string, value interface{}) Logger            { return n }
func (n *nopLogger) WithFields(fields map[string]interface{}) Logger           { return n }
func (n *nopLogger) WithError(err error) Logger                                { return n }
func (n *nopLogger) WithContext(ctx context.Context) Logger                    { return n }
func (n *nopLogger) DebugWithFields(msg string, fields map[string]interface{}) {}
func (n *nopLogger) InfoWithFields(msg string, fields map[string]interface{})  {}
func (n *nopLogger) WarnWithFields(msg string, fields map[string]interface{})  {}
func (n *nopLogger) ErrorWithFields(msg string, fields map[string]interface{}) {}
func (n *nopLogger) FatalWithFields(msg string, fields map[string]interface{}) {}
func (n *nopLogger) GetZerolog() *zerolog.Logger {
	nop := zerolog.Nop()
	return &nop
}
