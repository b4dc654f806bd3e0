package logger

import (
	"context"

	"github.com/rs/zerolog"
)

// LogAsset logs the outcome of a single asset download
func LogAsset(l Logger, kind, uri, filename string, skipped bool, err error) {
	entry := OrDefault(l).WithFields(map[string]interface{}{
		"kind": kind,
		"uri":  uri,
		"file": filename,
	})

	switch {
	case err != nil:
		entry.WithError(err).Warn("Asset download failed")
	case skipped:
		entry.Debug("Asset already present, skipping")
	default:
		entry.Debug("Asset downloaded")
	}
}

// LogRequest logs HTTP request information
func LogRequest(l Logger, method, url string, statusCode int, durationMs float64) {
	fields := map[string]interface{}{
		"method":      method,
		"url":         url,
		"status_code": statusCode,
		"duration_ms": durationMs,
	}

	switch {
	case statusCode >= 500:
		OrDefault(l).WarnWithFields("HTTP request server error", fields)
	case statusCode >= 400:
		OrDefault(l).WarnWithFields("HTTP request client error", fields)
	default:
		OrDefault(l).DebugWithFields("HTTP request completed", fields)
	}
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
func (n *nopLogger) GetZerolog() *zerolog.Logger                               { return nil }
