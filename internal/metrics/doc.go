// Package metrics registers Prometheus instrumentation for the coordinator:
// alert lifecycle counters, event delivery/drop counters and a connected
// devices gauge. Helpers are safe to call before Init; they become no-ops.
package metrics
