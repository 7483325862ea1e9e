// Package engine implements the alert lifecycle manager: the authoritative
// in-memory table of in-flight alerts and the transitions between pending,
// resolved and escalated.
//
// The engine owns the table exclusively. Alert creation delivers to
// zone-matching bands and arms the escalation timer; the first
// acknowledgement disarms it and stands sirens down; an expired timer
// triggers the sirens. The cancel/fire race is resolved by re-checking the
// alert state inside the timer callback, so exactly one terminal transition
// happens regardless of timing.
package engine
