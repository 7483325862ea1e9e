// Package scheduler provides named single-shot timers with cancellation,
// used for per-alert escalation deadlines and terminal-alert retention.
package scheduler
