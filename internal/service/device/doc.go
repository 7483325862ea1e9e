// Package device implements the simulated field device: it connects to the
// coordinator over websocket, registers a role and zone set, and logs every
// event it receives. Bands can acknowledge alerts automatically, which makes
// the simulator useful for exercising the escalation flow end to end.
package device
