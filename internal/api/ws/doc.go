// Package ws implements the real-time device channel: a websocket endpoint
// speaking the {"type", "data"} envelope protocol used by bands, sirens and
// dashboards. Each connection runs a read pump and a buffered write pump;
// outbound delivery never blocks and drops events per-device when saturated.
package ws
