// Package admin provides the operator-facing HTTP API: manual alert and
// scenario creation, live alert inspection, and connected device counts.
// It also mounts the websocket endpoint, health check, and Prometheus
// metrics on the same router so the server exposes a single listener.
package admin
