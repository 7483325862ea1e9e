package bus

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

// fakeSender is a minimal in-memory Sender implementation for tests.
type fakeSender struct {
	// mu protects events.
	mu sync.Mutex
	// events stores everything delivered to this observer.
	events []Event
	// saturated makes Send report a full buffer.
	saturated bool
}

// Send records the event unless the sender simulates a saturated buffer.
func (f *fakeSender) Send(event Event) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.saturated {
		return false
	}

	f.events = append(f.events, event)

	return true
}

// recorded returns a copy of everything delivered so far.
func (f *fakeSender) recorded() []Event {
	f.mu.Lock()
	defer f.mu.Unlock()

	return append([]Event(nil), f.events...)
}

// TestLogGoesToDashboardsOnly verifies audience separation for audit entries.
func TestLogGoesToDashboardsOnly(t *testing.T) {
	t.Parallel()

	b := New()
	ctx := context.Background()

	client := new(fakeSender)
	dashboard := new(fakeSender)

	b.Subscribe("client", client)
	b.Subscribe("dash", dashboard)
	b.SubscribeDashboard("dash", dashboard)

	b.PublishLog(ctx, LogPayload{Type: LogCreated, AlertID: "S1-Unit-3"})

	require.Empty(t, client.recorded())

	delivered := dashboard.recorded()
	require.Len(t, delivered, 1)
	require.Equal(t, EventLog, delivered[0].Type)
}

// TestDeviceUpdateBroadcastsToAll verifies count changes reach every client.
func TestDeviceUpdateBroadcastsToAll(t *testing.T) {
	t.Parallel()

	b := New()
	ctx := context.Background()

	first := new(fakeSender)
	second := new(fakeSender)

	b.Subscribe("a", first)
	b.Subscribe("b", second)

	b.PublishDeviceUpdate(ctx, DeviceCountsPayload{Bands: 2, Sirens: 1})

	require.Len(t, first.recorded(), 1)
	require.Len(t, second.recorded(), 1)
}

// TestSlowObserverDoesNotAffectOthers ensures per-observer drop semantics.
func TestSlowObserverDoesNotAffectOthers(t *testing.T) {
	t.Parallel()

	b := New()
	ctx := context.Background()

	slow := &fakeSender{saturated: true}
	healthy := new(fakeSender)

	b.Subscribe("slow", slow)
	b.Subscribe("ok", healthy)

	b.PublishDeviceUpdate(ctx, DeviceCountsPayload{Bands: 1})

	require.Empty(t, slow.recorded())
	require.Len(t, healthy.recorded(), 1)
}

// TestUnsubscribeStopsDelivery verifies no replay and clean removal.
func TestUnsubscribeStopsDelivery(t *testing.T) {
	t.Parallel()

	b := New()
	ctx := context.Background()

	observer := new(fakeSender)
	b.Subscribe("o", observer)
	b.SubscribeDashboard("o", observer)

	b.Unsubscribe("o")

	b.PublishDeviceUpdate(ctx, DeviceCountsPayload{})
	b.PublishLog(ctx, LogPayload{Type: LogAck})

	require.Empty(t, observer.recorded())

	all, dashboards := b.Observers()
	require.Zero(t, all)
	require.Zero(t, dashboards)
}
