package registry

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/slope-guard/internal/bus"
	"github.com/oshokin/slope-guard/internal/domain/device"
)

// fakeSender is a minimal in-memory bus.Sender implementation for tests.
type fakeSender struct {
	// mu protects events.
	mu sync.Mutex
	// events stores everything sent to this device.
	events []bus.Event
}

// Send records the event and always succeeds.
func (f *fakeSender) Send(event bus.Event) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.events = append(f.events, event)

	return true
}

// countEvents returns how many events of the type were recorded.
func (f *fakeSender) countEvents(eventType string) int {
	f.mu.Lock()
	defer f.mu.Unlock()

	count := 0

	for _, event := range f.events {
		if event.Type == eventType {
			count++
		}
	}

	return count
}

// TestRegisterAndCounts verifies role bucketing across register/unregister sequences.
func TestRegisterAndCounts(t *testing.T) {
	t.Parallel()

	r := New(bus.New())
	ctx := context.Background()

	r.Register(ctx, "c1", "band", []string{"Unit-3"}, "W1", new(fakeSender))
	r.Register(ctx, "c2", "band", []string{"Unit-7"}, "W2", new(fakeSender))
	r.Register(ctx, "c3", "siren", []string{"Unit-3"}, "", new(fakeSender))
	r.Register(ctx, "c4", "dashboard", nil, "", new(fakeSender))

	counts := r.CountsByRole()
	require.Equal(t, bus.DeviceCountsPayload{Bands: 2, Sirens: 1, Dashboards: 1}, counts)

	// Disconnect always decrements.
	r.Unregister(ctx, "c2")
	require.Equal(t, bus.DeviceCountsPayload{Bands: 1, Sirens: 1, Dashboards: 1}, r.CountsByRole())

	// Unregistering an unknown id is a no-op.
	r.Unregister(ctx, "missing")
	require.Equal(t, bus.DeviceCountsPayload{Bands: 1, Sirens: 1, Dashboards: 1}, r.CountsByRole())
}

// TestRegisterOverwrites ensures re-registration replaces the previous entry.
func TestRegisterOverwrites(t *testing.T) {
	t.Parallel()

	r := New(bus.New())
	ctx := context.Background()

	r.Register(ctx, "c1", "band", []string{"Unit-3"}, "W1", new(fakeSender))
	r.Register(ctx, "c1", "band", []string{"Unit-7"}, "W1", new(fakeSender))

	require.Equal(t, bus.DeviceCountsPayload{Bands: 1}, r.CountsByRole())
	require.Empty(t, r.DevicesInZone(device.RoleBand, "Unit-3"))
	require.Len(t, r.DevicesInZone(device.RoleBand, "Unit-7"), 1)
}

// TestUnknownRoleIsInert checks devices with unknown roles occupy a slot but
// never match any query.
func TestUnknownRoleIsInert(t *testing.T) {
	t.Parallel()

	r := New(bus.New())
	ctx := context.Background()

	r.Register(ctx, "c1", "drone", []string{"Unit-3"}, "", new(fakeSender))

	require.Equal(t, bus.DeviceCountsPayload{}, r.CountsByRole())
	require.Empty(t, r.DevicesByRole(device.RoleBand))
	require.Empty(t, r.DevicesInZone(device.RoleSiren, "Unit-3"))

	// Still removable.
	r.Unregister(ctx, "c1")
}

// TestZoneQueries verifies zone matching for delivery recipient lookups.
func TestZoneQueries(t *testing.T) {
	t.Parallel()

	r := New(bus.New())
	ctx := context.Background()

	r.Register(ctx, "c1", "band", []string{"Unit-3", "Unit-5"}, "W1", new(fakeSender))
	r.Register(ctx, "c2", "band", []string{"Unit-7"}, "W2", new(fakeSender))
	r.Register(ctx, "c3", "siren", []string{"Unit-3"}, "", new(fakeSender))

	bands := r.DevicesInZone(device.RoleBand, "Unit-3")
	require.Len(t, bands, 1)
	require.Equal(t, "W1", bands[0].Device.WorkerID)

	require.Len(t, r.DevicesInZone(device.RoleBand, "Unit-7"), 1)
	require.Empty(t, r.DevicesInZone(device.RoleBand, "Unit-9"))
	require.Len(t, r.DevicesByRole(device.RoleBand), 2)
}

// TestCountBroadcasts ensures every registry change publishes a device update.
func TestCountBroadcasts(t *testing.T) {
	t.Parallel()

	events := bus.New()
	observer := new(fakeSender)
	events.Subscribe("observer", observer)

	r := New(events)
	ctx := context.Background()

	r.Register(ctx, "c1", "band", []string{"Unit-3"}, "W1", new(fakeSender))
	r.Register(ctx, "c2", "siren", []string{"Unit-3"}, "", new(fakeSender))
	r.Unregister(ctx, "c1")

	require.Equal(t, 3, observer.countEvents(bus.EventDeviceUpdate))
}
