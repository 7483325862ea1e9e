// Package config defines coordinator settings and provides helpers to load,
// validate and save them in YAML format.
//
// The Config type holds the listen address, the escalation window and the
// websocket tuning knobs used by the slope-guard server.
package config
