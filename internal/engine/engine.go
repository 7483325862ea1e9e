package engine

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/oshokin/slope-guard/internal/bus"
	"github.com/oshokin/slope-guard/internal/domain/alert"
	"github.com/oshokin/slope-guard/internal/domain/device"
	"github.com/oshokin/slope-guard/internal/logger"
	"github.com/oshokin/slope-guard/internal/metrics"
	"github.com/oshokin/slope-guard/internal/registry"
	"github.com/oshokin/slope-guard/internal/scheduler"
)

var (
	// ErrZoneRequired is returned when an alert is created without a zone.
	ErrZoneRequired = errors.New("zone must be provided")
	// ErrEpicenterRequired is returned when a scenario lacks an epicenter zone.
	ErrEpicenterRequired = errors.New("epicenter zone must be provided")
	// ErrMagnitudeRequired is returned when a scenario lacks a magnitude.
	ErrMagnitudeRequired = errors.New("magnitude must be provided")
)

// record is the engine's mutable entry for one alert. Terminal records stay
// in the table for the retention window so that late acknowledgements are
// still attributed and logged, then a retirement timer drops them.
type record struct {
	id        string
	zone      string
	severity  int
	createdAt time.Time
	state     alert.State
	ackedBy   map[string]struct{}
	// ackOrder preserves first-seen order of acknowledging workers.
	ackOrder []string
}

// Engine is the alert lifecycle manager. It exclusively owns the in-flight
// alert table; every operation runs as one atomic step under the engine lock
// so no observer can see a half-applied transition.
type Engine struct {
	// mu serialises all alert-table mutations.
	mu sync.Mutex
	// alerts maps alert ids to live records, including retained terminal ones.
	alerts map[string]*record
	// devices answers recipient queries for delivery.
	devices *registry.Registry
	// events fans lifecycle log entries out to dashboards.
	events *bus.Bus
	// escalations holds the one live timer per pending alert.
	escalations *scheduler.Scheduler
	// retirements drops terminal records after the retention window.
	retirements *scheduler.Scheduler
	// escalationTimeout is the acknowledgement window before sirens fire.
	escalationTimeout time.Duration
	// ackRetention is how long terminal records are kept for late-ack audit.
	ackRetention time.Duration
	// now is the clock source, replaceable in tests.
	now func() time.Time
	// ctx carries the logger for timer-driven transitions.
	ctx context.Context
}

// Option configures engine behaviour.
type Option func(*Engine)

// WithEscalationTimeout overrides the default acknowledgement window.
func WithEscalationTimeout(timeout time.Duration) Option {
	return func(e *Engine) {
		if timeout > 0 {
			e.escalationTimeout = timeout
		}
	}
}

// WithAckRetention overrides how long terminal alerts are retained.
func WithAckRetention(retention time.Duration) Option {
	return func(e *Engine) {
		if retention > 0 {
			e.ackRetention = retention
		}
	}
}

// WithClock replaces the time source, used by tests.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// New creates an engine delivering through the provided registry and bus.
func New(ctx context.Context, devices *registry.Registry, events *bus.Bus, opts ...Option) *Engine {
	e := &Engine{
		alerts:            make(map[string]*record),
		devices:           devices,
		events:            events,
		escalations:       scheduler.New(),
		retirements:       scheduler.New(),
		escalationTimeout: 15 * time.Second,
		ackRetention:      time.Minute,
		now:               time.Now,
		ctx:               logger.WithName(ctx, "engine"),
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// CreateAlert creates a pending alert for the zone, delivers it to every
// zone-matching band and arms the escalation timer. A zero severity defaults
// to the maximum; out-of-range values are clamped.
func (e *Engine) CreateAlert(ctx context.Context, zone string, severity int) (*alert.Alert, error) {
	if zone == "" {
		return nil, ErrZoneRequired
	}

	severity = alert.NormalizeSeverity(severity)

	e.mu.Lock()

	createdAt := e.now()

	id := alert.NewID(zone, createdAt)
	// Two alerts for the same zone within one millisecond would collide,
	// so disambiguate with a sequence suffix.
	for seq := 1; ; seq++ {
		if _, exists := e.alerts[id]; !exists {
			break
		}

		id = fmt.Sprintf("%s#%d", alert.NewID(zone, createdAt), seq)
	}

	rec := &record{
		id:        id,
		zone:      zone,
		severity:  severity,
		createdAt: createdAt,
		state:     alert.StatePending,
		ackedBy:   make(map[string]struct{}),
	}
	e.alerts[id] = rec

	snapshot := e.snapshotLocked(rec)

	e.mu.Unlock()

	logger.InfoKV(ctx, "Alert created", "alert_id", id, "zone", zone, "severity", severity)
	metrics.AlertCreated(strconv.Itoa(severity))

	e.deliverAlert(ctx, snapshot)

	e.escalations.Arm(id, e.escalationTimeout, func() {
		e.escalate(id)
	})

	e.events.PublishLog(ctx, bus.LogPayload{
		Type:     bus.LogCreated,
		AlertID:  id,
		Zone:     zone,
		Severity: severity,
	})

	return snapshot, nil
}

// CreateScenario expands an operator scenario into alerts. The severity is
// derived from the magnitude; in the current scope only the epicenter zone
// itself is alerted.
func (e *Engine) CreateScenario(ctx context.Context, epicenterZone string, magnitude float64) ([]*alert.Alert, error) {
	if epicenterZone == "" {
		return nil, ErrEpicenterRequired
	}

	if magnitude <= 0 {
		return nil, ErrMagnitudeRequired
	}

	severity := alert.SeverityFromMagnitude(magnitude)

	logger.InfoKV(ctx, "Scenario created",
		"epicenter_zone", epicenterZone, "magnitude", magnitude, "severity", severity)

	created, err := e.CreateAlert(ctx, epicenterZone, severity)
	if err != nil {
		return nil, fmt.Errorf("create epicenter alert: %w", err)
	}

	e.events.PublishLog(ctx, bus.LogPayload{
		Type:          bus.LogScenario,
		EpicenterZone: epicenterZone,
		Magnitude:     magnitude,
	})

	return []*alert.Alert{created}, nil
}

// Acknowledge records a worker's acknowledgement. The first acknowledgement
// of a pending alert disarms the escalation timer, resolves the alert and
// stands zone-matching sirens down; later acknowledgements only extend the
// audit record. Unknown alert ids are dropped silently.
func (e *Engine) Acknowledge(ctx context.Context, alertID, workerID string) {
	e.mu.Lock()

	rec, known := e.alerts[alertID]
	if !known {
		e.mu.Unlock()
		logger.DebugKV(ctx, "Acknowledgement for unknown alert dropped",
			"alert_id", alertID, "worker_id", workerID)

		return
	}

	metrics.AckReceived()

	if _, seen := rec.ackedBy[workerID]; !seen && workerID != "" {
		rec.ackedBy[workerID] = struct{}{}
		rec.ackOrder = append(rec.ackOrder, workerID)
	}

	resolvedNow := rec.state == alert.StatePending
	if resolvedNow {
		rec.state = alert.StateResolved
	}

	zone := rec.zone

	e.mu.Unlock()

	if resolvedNow {
		// Cancellation may lose the race with an already queued timer
		// callback; escalate re-checks the state, so either way exactly
		// one terminal transition happens.
		e.escalations.Cancel(alertID)

		logger.InfoKV(ctx, "Alert resolved", "alert_id", alertID, "worker_id", workerID)
		metrics.AlertResolved()

		e.deliverSirenCancel(ctx, alertID, zone)
		e.scheduleRetirement(alertID)
	} else {
		logger.DebugKV(ctx, "Duplicate acknowledgement recorded",
			"alert_id", alertID, "worker_id", workerID)
	}

	e.events.PublishLog(ctx, bus.LogPayload{
		Type:     bus.LogAck,
		AlertID:  alertID,
		WorkerID: workerID,
	})
}

// escalate is the escalation-timer callback. It re-checks that the alert is
// still pending, which resolves the cancel/fire race: whichever of
// acknowledgement and timer ran first wins and the loser becomes a no-op.
func (e *Engine) escalate(alertID string) {
	ctx := e.ctx

	e.mu.Lock()

	rec, known := e.alerts[alertID]
	if !known || rec.state != alert.StatePending {
		e.mu.Unlock()

		return
	}

	rec.state = alert.StateEscalated
	zone := rec.zone
	severity := rec.severity

	e.mu.Unlock()

	logger.WarnKV(ctx, "Alert escalated, no acknowledgement within window",
		"alert_id", alertID, "zone", zone)
	metrics.AlertEscalated()

	e.deliverSiren(ctx, alertID, zone, severity)
	e.scheduleRetirement(alertID)

	e.events.PublishLog(ctx, bus.LogPayload{
		Type:    bus.LogEscalated,
		AlertID: alertID,
		Zone:    zone,
	})
}

// ActiveAlerts returns snapshots of every pending alert.
func (e *Engine) ActiveAlerts(_ context.Context) []*alert.Alert {
	e.mu.Lock()
	defer e.mu.Unlock()

	var snapshots []*alert.Alert

	for _, rec := range e.alerts {
		if rec.state == alert.StatePending {
			snapshots = append(snapshots, e.snapshotLocked(rec))
		}
	}

	sort.Slice(snapshots, func(i, j int) bool {
		return snapshots[i].ID < snapshots[j].ID
	})

	return snapshots
}

// Alert returns a snapshot of a known alert, including retained terminal
// ones. ok is false once the record has been retired or never existed.
func (e *Engine) Alert(alertID string) (*alert.Alert, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	rec, known := e.alerts[alertID]
	if !known {
		return nil, false
	}

	return e.snapshotLocked(rec), true
}

// DeviceCounts reports currently connected devices per role.
func (e *Engine) DeviceCounts(_ context.Context) bus.DeviceCountsPayload {
	return e.devices.CountsByRole()
}

// Close disarms every timer. Alerts still pending will never escalate;
// the process is shutting down and the table is not persisted.
func (e *Engine) Close() {
	e.escalations.Stop()
	e.retirements.Stop()
}

// scheduleRetirement arms the drop timer for a terminal record.
func (e *Engine) scheduleRetirement(alertID string) {
	e.retirements.Arm(alertID, e.ackRetention, func() {
		e.mu.Lock()
		defer e.mu.Unlock()

		if rec, known := e.alerts[alertID]; known && rec.state.Terminal() {
			delete(e.alerts, alertID)
		}
	})
}

// deliverAlert pushes the alert to every band subscribed to its zone.
// Delivery is best-effort: a device with a saturated buffer loses the event
// without affecting the others.
func (e *Engine) deliverAlert(ctx context.Context, a *alert.Alert) {
	payload := bus.AlertPayload{
		AlertID:   a.ID,
		Zone:      a.Zone,
		Severity:  a.Severity,
		Timestamp: a.CreatedAt.UnixMilli(),
	}

	for _, recipient := range e.devices.DevicesInZone(device.RoleBand, a.Zone) {
		if recipient.Sender.Send(bus.Event{Type: bus.EventAlert, Data: payload}) {
			metrics.EventDelivered(bus.EventAlert)
			logger.DebugKV(ctx, "Alert sent to band",
				"alert_id", a.ID, "worker_id", recipient.Device.WorkerID)
		} else {
			metrics.EventDropped(bus.EventAlert)
			logger.WarnKV(ctx, "Alert dropped for saturated band",
				"alert_id", a.ID, "connection_id", recipient.Device.ConnectionID)
		}
	}
}

// deliverSiren activates every siren subscribed to the zone.
func (e *Engine) deliverSiren(ctx context.Context, alertID, zone string, severity int) {
	payload := bus.SirenPayload{
		AlertID:  alertID,
		Zone:     zone,
		Severity: severity,
	}

	for _, recipient := range e.devices.DevicesInZone(device.RoleSiren, zone) {
		if recipient.Sender.Send(bus.Event{Type: bus.EventSiren, Data: payload}) {
			metrics.EventDelivered(bus.EventSiren)
			logger.InfoKV(ctx, "Siren triggered", "alert_id", alertID, "zone", zone,
				"connection_id", recipient.Device.ConnectionID)
		} else {
			metrics.EventDropped(bus.EventSiren)
			logger.WarnKV(ctx, "Siren activation dropped for saturated connection",
				"alert_id", alertID, "connection_id", recipient.Device.ConnectionID)
		}
	}
}

// deliverSirenCancel stands every zone-matching siren down after the first ack.
func (e *Engine) deliverSirenCancel(ctx context.Context, alertID, zone string) {
	payload := bus.SirenCancelPayload{AlertID: alertID}

	for _, recipient := range e.devices.DevicesInZone(device.RoleSiren, zone) {
		if recipient.Sender.Send(bus.Event{Type: bus.EventSirenCancel, Data: payload}) {
			metrics.EventDelivered(bus.EventSirenCancel)
		} else {
			metrics.EventDropped(bus.EventSirenCancel)
		}
	}
}

// snapshotLocked builds an immutable snapshot. Callers must hold e.mu.
func (e *Engine) snapshotLocked(rec *record) *alert.Alert {
	return &alert.Alert{
		ID:        rec.id,
		Zone:      rec.zone,
		Severity:  rec.severity,
		CreatedAt: rec.createdAt,
		State:     rec.state,
		AckedBy:   append([]string(nil), rec.ackOrder...),
	}
}
