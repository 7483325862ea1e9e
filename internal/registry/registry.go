package registry

import (
	"context"
	"sync"

	"github.com/oshokin/slope-guard/internal/bus"
	"github.com/oshokin/slope-guard/internal/domain/device"
	"github.com/oshokin/slope-guard/internal/logger"
	"github.com/oshokin/slope-guard/internal/metrics"
)

// Recipient pairs a registered device with the sender used to reach it.
type Recipient struct {
	// Device is a snapshot of the registered device.
	Device *device.Device
	// Sender pushes events towards the device connection.
	Sender bus.Sender
}

// entry is the registry's mutable record for one connection.
type entry struct {
	device *device.Device
	sender bus.Sender
	// known is false for devices that registered with an unknown role.
	// Such devices keep their connection but belong to no role bucket.
	known bool
}

// Registry tracks every currently connected device. It is the exclusive
// owner of device entries; all mutations go through Register/Unregister.
type Registry struct {
	// mu protects the devices map.
	mu sync.RWMutex
	// devices maps connection ids to live entries.
	devices map[string]*entry
	// events receives a device-count broadcast after every change.
	events *bus.Bus
}

// New creates an empty registry publishing count changes to the provided bus.
func New(events *bus.Bus) *Registry {
	return &Registry{
		devices: make(map[string]*entry),
		events:  events,
	}
}

// Register inserts or overwrites the device entry for the connection and
// broadcasts the updated role counts. A device with an unknown role is kept
// but stays inert: it is never matched by role or zone queries.
func (r *Registry) Register(
	ctx context.Context,
	connectionID string,
	role string,
	zones []string,
	workerID string,
	sender bus.Sender,
) *device.Device {
	parsedRole, known := device.ParseRole(role)

	registered := &device.Device{
		ConnectionID: connectionID,
		Role:         parsedRole,
		Zones:        device.NewZoneSet(zones),
		WorkerID:     workerID,
	}

	r.mu.Lock()
	r.devices[connectionID] = &entry{
		device: registered,
		sender: sender,
		known:  known,
	}
	r.mu.Unlock()

	if known {
		logger.InfoKV(ctx, "Device registered",
			"connection_id", connectionID, "role", role, "zones", zones, "worker_id", workerID)
	} else {
		logger.WarnKV(ctx, "Device registered with unknown role, kept inert",
			"connection_id", connectionID, "role", role)
	}

	r.publishCounts(ctx)

	return registered.Clone()
}

// Unregister removes the device entry for the connection.
// Unregistering an unknown id is a no-op and publishes nothing.
func (r *Registry) Unregister(ctx context.Context, connectionID string) {
	r.mu.Lock()

	_, existed := r.devices[connectionID]
	if existed {
		delete(r.devices, connectionID)
	}

	r.mu.Unlock()

	if !existed {
		return
	}

	logger.InfoKV(ctx, "Device unregistered", "connection_id", connectionID)
	r.publishCounts(ctx)
}

// DevicesByRole returns recipients for every registered device of the role.
func (r *Registry) DevicesByRole(role device.Role) []Recipient {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var recipients []Recipient

	for _, e := range r.devices {
		if e.known && e.device.Role == role {
			recipients = append(recipients, Recipient{Device: e.device.Clone(), Sender: e.sender})
		}
	}

	return recipients
}

// DevicesInZone returns recipients of the role subscribed to the zone.
func (r *Registry) DevicesInZone(role device.Role, zone string) []Recipient {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var recipients []Recipient

	for _, e := range r.devices {
		if e.known && e.device.Role == role && e.device.InZone(zone) {
			recipients = append(recipients, Recipient{Device: e.device.Clone(), Sender: e.sender})
		}
	}

	return recipients
}

// CountsByRole returns the current number of registered devices per role.
func (r *Registry) CountsByRole() bus.DeviceCountsPayload {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.countsLocked()
}

// countsLocked tallies role buckets. Callers must hold at least a read lock.
func (r *Registry) countsLocked() bus.DeviceCountsPayload {
	var counts bus.DeviceCountsPayload

	for _, e := range r.devices {
		if !e.known {
			continue
		}

		switch e.device.Role {
		case device.RoleBand:
			counts.Bands++
		case device.RoleSiren:
			counts.Sirens++
		case device.RoleDashboard:
			counts.Dashboards++
		}
	}

	return counts
}

// publishCounts broadcasts the current role counts and refreshes the gauges.
func (r *Registry) publishCounts(ctx context.Context) {
	counts := r.CountsByRole()

	metrics.SetConnectedDevices(string(device.RoleBand), counts.Bands)
	metrics.SetConnectedDevices(string(device.RoleSiren), counts.Sirens)
	metrics.SetConnectedDevices(string(device.RoleDashboard), counts.Dashboards)

	if r.events != nil {
		r.events.PublishDeviceUpdate(ctx, counts)
	}
}
