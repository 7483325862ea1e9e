// Package registry tracks currently connected field devices, their roles and
// zone subscriptions. It answers the recipient queries used for alert and
// siren delivery and broadcasts device-count updates on every change.
package registry
