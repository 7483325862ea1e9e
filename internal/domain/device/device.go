package device

// Role classifies a connected field device.
type Role string

const (
	// RoleBand is a worker-worn wearable that receives alerts and acknowledges them.
	RoleBand Role = "band"
	// RoleSiren is a fixed device that sounds on escalation.
	RoleSiren Role = "siren"
	// RoleDashboard is an observer that receives every lifecycle and log event.
	RoleDashboard Role = "dashboard"
)

// ParseRole maps a raw role string to a known Role.
// Unknown roles are reported via ok=false; callers keep such devices inert
// rather than rejecting the connection.
func ParseRole(raw string) (Role, bool) {
	switch Role(raw) {
	case RoleBand, RoleSiren, RoleDashboard:
		return Role(raw), true
	default:
		return Role(raw), false
	}
}

// Device describes one live device connection.
type Device struct {
	// ConnectionID is the opaque identifier assigned at connect time.
	ConnectionID string
	// Role is the device role, immutable after registration.
	Role Role
	// Zones is the set of zone identifiers the device is subscribed to.
	// Dashboards ignore zone filtering entirely.
	Zones map[string]struct{}
	// WorkerID is an optional human-readable identifier for bands.
	WorkerID string
}

// InZone reports whether the device is subscribed to the given zone.
func (d *Device) InZone(zone string) bool {
	_, ok := d.Zones[zone]

	return ok
}

// Clone returns a deep copy of the device to avoid leaking internal references.
func (d *Device) Clone() *Device {
	if d == nil {
		return nil
	}

	cloned := *d
	cloned.Zones = make(map[string]struct{}, len(d.Zones))

	for zone := range d.Zones {
		cloned.Zones[zone] = struct{}{}
	}

	return &cloned
}

// NewZoneSet builds a zone set from a slice, dropping empty entries.
func NewZoneSet(zones []string) map[string]struct{} {
	set := make(map[string]struct{}, len(zones))

	for _, zone := range zones {
		if zone == "" {
			continue
		}

		set[zone] = struct{}{}
	}

	return set
}
