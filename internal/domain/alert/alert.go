package alert

import (
	"fmt"
	"math"
	"time"
)

// State is the lifecycle state of an alert.
type State string

const (
	// StatePending means the alert is delivered and waiting for an acknowledgement.
	StatePending State = "pending"
	// StateResolved means a worker acknowledged the alert before the window elapsed.
	StateResolved State = "resolved"
	// StateEscalated means the window elapsed with no acknowledgement and the
	// sirens were triggered.
	StateEscalated State = "escalated"
)

// Terminal reports whether no further transitions are possible from the state.
func (s State) Terminal() bool {
	return s == StateResolved || s == StateEscalated
}

const (
	// SeverityMin is the lowest severity level.
	SeverityMin = 1
	// SeverityMax is the highest severity level.
	SeverityMax = 3
	// DefaultSeverity is used when a caller does not specify one.
	DefaultSeverity = SeverityMax
)

// Alert is a snapshot of one hazard notification instance.
type Alert struct {
	// ID uniquely identifies the alert within the process.
	ID string
	// Zone is the hazard zone the alert concerns.
	Zone string
	// Severity is the hazard level in [SeverityMin, SeverityMax].
	Severity int
	// CreatedAt is when the alert was created.
	CreatedAt time.Time
	// State is the lifecycle state at snapshot time.
	State State
	// AckedBy lists the distinct workers that have acknowledged the alert.
	AckedBy []string
}

// Clone returns a deep copy of the alert to avoid leaking internal references.
func (a *Alert) Clone() *Alert {
	if a == nil {
		return nil
	}

	cloned := *a
	cloned.AckedBy = append([]string(nil), a.AckedBy...)

	return &cloned
}

// NewID generates an alert identifier from the creation time and zone.
// The "S<unix-millis>-<zone>" shape is unique within a single process; it is
// not safe across multiple coordinator instances.
func NewID(zone string, createdAt time.Time) string {
	return fmt.Sprintf("S%d-%s", createdAt.UnixMilli(), zone)
}

// NormalizeSeverity maps an unspecified severity (zero) to the default and
// clamps everything else into [SeverityMin, SeverityMax].
func NormalizeSeverity(severity int) int {
	if severity == 0 {
		return DefaultSeverity
	}

	if severity < SeverityMin {
		return SeverityMin
	}

	if severity > SeverityMax {
		return SeverityMax
	}

	return severity
}

// SeverityFromMagnitude derives an alert severity from a scenario magnitude:
// ceil(magnitude) clamped into [SeverityMin, SeverityMax].
func SeverityFromMagnitude(magnitude float64) int {
	severity := int(math.Ceil(magnitude))
	if severity < SeverityMin {
		return SeverityMin
	}

	if severity > SeverityMax {
		return SeverityMax
	}

	return severity
}
