package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/oshokin/slope-guard/internal/bus"
	"github.com/oshokin/slope-guard/internal/domain/device"
	"github.com/oshokin/slope-guard/internal/engine"
	"github.com/oshokin/slope-guard/internal/logger"
	"github.com/oshokin/slope-guard/internal/registry"
)

// Handler upgrades device connections and bridges the wire protocol to the
// core components.
type Handler struct {
	// core drives alert lifecycle operations.
	core *engine.Engine
	// devices is the live connection registry.
	devices *registry.Registry
	// events is the fan-out bus connections subscribe to.
	events *bus.Bus
	// upgrader performs the HTTP to websocket upgrade.
	upgrader websocket.Upgrader
	// heartbeat is the ping period applied to every connection.
	heartbeat time.Duration
	// sendBuffer is the per-connection outbound buffer length.
	sendBuffer int
}

// NewHandler creates a websocket handler over the core components.
func NewHandler(
	core *engine.Engine,
	devices *registry.Registry,
	events *bus.Bus,
	heartbeat time.Duration,
	sendBuffer int,
) *Handler {
	return &Handler{
		core:    core,
		devices: devices,
		events:  events,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Field devices connect from local networks and apps;
			// origin restrictions belong to the fronting proxy.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		heartbeat:  heartbeat,
		sendBuffer: sendBuffer,
	}
}

// Handle upgrades the request and runs the connection pumps.
func (h *Handler) Handle(c *gin.Context) {
	sock, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.WarnKV(c.Request.Context(), "Websocket upgrade failed", "error", err)

		return
	}

	conn := newConn(uuid.NewString(), sock, h.sendBuffer, h.heartbeat)

	ctx := logger.WithKV(context.Background(), "connection_id", conn.ID())
	logger.Info(ctx, "Device connected")

	// Every client takes part in the broadcast audience straight away so
	// it sees device-count updates even before registering.
	h.events.Subscribe(conn.ID(), conn)

	go conn.writePump(ctx)

	go func() {
		conn.readPump(ctx, func(raw []byte) {
			h.handleMessage(ctx, conn, raw)
		})

		// Reaching here means the device disconnected.
		h.events.Unsubscribe(conn.ID())
		h.devices.Unregister(ctx, conn.ID())
		logger.Info(ctx, "Device disconnected")
	}()
}

// handleMessage dispatches one inbound frame. Malformed or unresolvable
// messages are logged and dropped; a live hazard channel never fails hard on
// bad input.
func (h *Handler) handleMessage(ctx context.Context, conn *Conn, raw []byte) {
	var envelope Envelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		logger.WarnKV(ctx, "Malformed message dropped", "error", err)

		return
	}

	switch envelope.Type {
	case TypeRegister:
		h.handleRegister(ctx, conn, envelope.Data)
	case TypeCreateAlert:
		h.handleCreateAlert(ctx, envelope.Data)
	case TypeCreateScenario:
		h.handleCreateScenario(ctx, envelope.Data)
	case TypeAck:
		h.handleAck(ctx, envelope.Data)
	default:
		logger.WarnKV(ctx, "Unknown message type dropped", "type", envelope.Type)
	}
}

// handleRegister inserts or overwrites the registry entry for the connection.
func (h *Handler) handleRegister(ctx context.Context, conn *Conn, data json.RawMessage) {
	var req RegisterRequest
	if err := json.Unmarshal(data, &req); err != nil {
		logger.WarnKV(ctx, "Malformed register payload dropped", "error", err)

		return
	}

	registered := h.devices.Register(ctx, conn.ID(), req.Role, req.Zones, req.WorkerID, conn)

	// Dashboards additionally receive lifecycle log entries.
	if registered.Role == device.RoleDashboard {
		h.events.SubscribeDashboard(conn.ID(), conn)
	} else {
		h.events.UnsubscribeDashboard(conn.ID())
	}
}

// handleCreateAlert raises an alert on behalf of the device.
func (h *Handler) handleCreateAlert(ctx context.Context, data json.RawMessage) {
	var req CreateAlertRequest
	if err := json.Unmarshal(data, &req); err != nil {
		logger.WarnKV(ctx, "Malformed createAlert payload dropped", "error", err)

		return
	}

	if _, err := h.core.CreateAlert(ctx, req.Zone, req.Severity); err != nil {
		// Field devices get lenient handling; validation errors are
		// only surfaced on the admin API.
		logger.WarnKV(ctx, "CreateAlert from device rejected", "error", err)
	}
}

// handleCreateScenario expands a scenario on behalf of the device.
func (h *Handler) handleCreateScenario(ctx context.Context, data json.RawMessage) {
	var req CreateScenarioRequest
	if err := json.Unmarshal(data, &req); err != nil {
		logger.WarnKV(ctx, "Malformed createScenario payload dropped", "error", err)

		return
	}

	if _, err := h.core.CreateScenario(ctx, req.EpicenterZone, req.Magnitude); err != nil {
		logger.WarnKV(ctx, "CreateScenario from device rejected", "error", err)
	}
}

// handleAck records a worker acknowledgement.
func (h *Handler) handleAck(ctx context.Context, data json.RawMessage) {
	var req AckRequest
	if err := json.Unmarshal(data, &req); err != nil {
		logger.WarnKV(ctx, "Malformed ack payload dropped", "error", err)

		return
	}

	h.core.Acknowledge(ctx, req.AlertID, req.WorkerID)
}
