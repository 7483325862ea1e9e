package bus

import (
	"context"
	"sync"

	"github.com/oshokin/slope-guard/internal/logger"
	"github.com/oshokin/slope-guard/internal/metrics"
)

// Sender pushes one event towards a device connection.
// Implementations must not block; Send reports false when the event was
// dropped (for example because the connection buffer is full).
type Sender interface {
	Send(event Event) bool
}

// Bus fans events out to connected observers. There is no buffering and no
// replay: an observer that subscribes after an event was published never
// sees it. A slow observer loses individual events without affecting others.
type Bus struct {
	// mu protects both subscriber maps.
	mu sync.RWMutex
	// all receives broadcast events such as device-count updates.
	all map[string]Sender
	// dashboards additionally receive lifecycle log entries.
	dashboards map[string]Sender
}

// New creates an empty bus.
func New() *Bus {
	return &Bus{
		all:        make(map[string]Sender),
		dashboards: make(map[string]Sender),
	}
}

// Subscribe adds the sender to the process-wide broadcast audience.
func (b *Bus) Subscribe(id string, sender Sender) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.all[id] = sender
}

// SubscribeDashboard additionally marks the sender as a dashboard observer.
func (b *Bus) SubscribeDashboard(id string, sender Sender) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.dashboards[id] = sender
}

// UnsubscribeDashboard removes the sender from the dashboard audience only.
func (b *Bus) UnsubscribeDashboard(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	delete(b.dashboards, id)
}

// Unsubscribe removes the sender from every audience. Unknown ids are no-ops.
func (b *Bus) Unsubscribe(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	delete(b.all, id)
	delete(b.dashboards, id)
}

// PublishLog delivers an audit entry to every dashboard observer.
func (b *Bus) PublishLog(ctx context.Context, payload LogPayload) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	event := Event{Type: EventLog, Data: payload}

	for id, sender := range b.dashboards {
		if !sender.Send(event) {
			metrics.EventDropped(EventLog)
			logger.WarnKV(ctx, "Dropped log event for slow dashboard", "connection_id", id)
		}
	}
}

// PublishDeviceUpdate broadcasts role counts to every connected client.
func (b *Bus) PublishDeviceUpdate(ctx context.Context, counts DeviceCountsPayload) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	event := Event{Type: EventDeviceUpdate, Data: counts}

	for id, sender := range b.all {
		if !sender.Send(event) {
			metrics.EventDropped(EventDeviceUpdate)
			logger.WarnKV(ctx, "Dropped device update for slow client", "connection_id", id)
		}
	}
}

// Observers returns the sizes of the broadcast and dashboard audiences.
func (b *Bus) Observers() (all, dashboards int) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return len(b.all), len(b.dashboards)
}
