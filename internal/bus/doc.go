// Package bus implements the event/log fan-out channel of the coordinator.
//
// It defines the outbound event vocabulary of the device protocol and a Bus
// that delivers events to dashboard observers and to a process-wide broadcast
// audience. Delivery is best-effort and at-most-once per observer.
package bus
