package app

import "time"

// OperationID returns the log-correlation ID for one CLI invocation. Every
// log line written during the invocation carries it, so interleaved daemon
// and CLI runs can be separated in the shared log file.
func OperationID(t time.Time) string {
	return t.UTC().Format("20060102T150405Z")
}
