package device

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/oshokin/slope-guard/internal/api/ws"
	"github.com/oshokin/slope-guard/internal/bus"
	"github.com/oshokin/slope-guard/internal/domain/device"
	"github.com/oshokin/slope-guard/internal/logger"
	"github.com/oshokin/slope-guard/internal/service/common"
)

// Options configures a simulated field device session.
type Options struct {
	// ServerAddress is the coordinator address, host:port or a full ws:// URL.
	ServerAddress string

	// Role selects the device kind: band, siren or dashboard.
	Role string

	// Zones lists the zones the device belongs to.
	Zones []string

	// WorkerID identifies the wearer, derived from user@host when empty.
	WorkerID string

	// AutoAck makes a band acknowledge every delivered alert after AckDelay.
	AutoAck bool

	// AckDelay is the pause before an automatic acknowledgement.
	AckDelay time.Duration
}

// defaultReconnectInterval defines retry delay when the coordinator is
// unreachable or the session drops.
const defaultReconnectInterval = 3 * time.Second

// ErrNoServerAddress indicates missing coordinator address.
var ErrNoServerAddress = errors.New("no server address configured")

// Run connects to the coordinator as a simulated device and logs every event
// it receives until the context is canceled. Disconnects trigger reconnects.
func Run(ctx context.Context, opts *Options) error {
	// Set context with logger name for tracking.
	ctx = logger.WithName(ctx, "slope-guard-device")

	if _, ok := device.ParseRole(opts.Role); !ok {
		return fmt.Errorf("unknown role %q", opts.Role)
	}

	endpoint, err := resolveEndpoint(opts.ServerAddress)
	if err != nil {
		return fmt.Errorf("resolve endpoint: %w", err)
	}

	// Derive worker identity unless overridden by command line option.
	workerID := opts.WorkerID
	if workerID == "" {
		workerID, err = common.DetectWorkerID()
		if err != nil {
			return fmt.Errorf("detect worker id: %w", err)
		}
	}

	logger.InfoKV(ctx, "Starting device session",
		"endpoint", endpoint,
		"role", opts.Role,
		"zones", opts.Zones,
		"worker_id", workerID)

	// Session loop: run one connection, then retry until cancellation.
	for {
		if err = runSession(ctx, endpoint, opts, workerID); err != nil {
			logger.WarnKV(ctx, "Session ended", "error", err)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(defaultReconnectInterval):
		}
	}
}

// runSession dials the coordinator, registers, and consumes events until the
// connection drops or the context is canceled.
func runSession(ctx context.Context, endpoint string, opts *Options, workerID string) error {
	sock, _, err := websocket.DefaultDialer.DialContext(ctx, endpoint, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", endpoint, err)
	}

	defer func() {
		_ = sock.Close()
	}()

	// Close the socket when the context ends so the read loop unblocks.
	stop := context.AfterFunc(ctx, func() {
		_ = sock.Close()
	})
	defer stop()

	if err = send(sock, ws.TypeRegister, ws.RegisterRequest{
		Role:     opts.Role,
		Zones:    opts.Zones,
		WorkerID: workerID,
	}); err != nil {
		return fmt.Errorf("register: %w", err)
	}

	logger.Info(ctx, "Registered with coordinator")

	for {
		var envelope ws.Envelope
		if err = sock.ReadJSON(&envelope); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}

			return fmt.Errorf("read: %w", err)
		}

		handleEvent(ctx, sock, opts, workerID, &envelope)
	}
}

// handleEvent logs a delivered event and, for bands with auto-ack enabled,
// answers alerts with an acknowledgement.
func handleEvent(ctx context.Context, sock *websocket.Conn, opts *Options, workerID string, envelope *ws.Envelope) {
	switch envelope.Type {
	case bus.EventAlert:
		var payload bus.AlertPayload
		if err := json.Unmarshal(envelope.Data, &payload); err != nil {
			logger.WarnKV(ctx, "Malformed alert payload", "error", err)

			return
		}

		logger.InfoKV(ctx, "Alert received",
			"alert_id", payload.AlertID,
			"zone", payload.Zone,
			"severity", payload.Severity)

		if opts.AutoAck {
			if opts.AckDelay > 0 {
				select {
				case <-ctx.Done():
					return
				case <-time.After(opts.AckDelay):
				}
			}

			if err := send(sock, ws.TypeAck, ws.AckRequest{
				AlertID:  payload.AlertID,
				WorkerID: workerID,
			}); err != nil {
				logger.ErrorKV(ctx, "Acknowledge failed", "error", err)

				return
			}

			logger.InfoKV(ctx, "Alert acknowledged", "alert_id", payload.AlertID)
		}
	case bus.EventSiren:
		logger.InfoKV(ctx, "Siren activated", "payload", string(envelope.Data))
	case bus.EventSirenCancel:
		logger.InfoKV(ctx, "Siren canceled", "payload", string(envelope.Data))
	case bus.EventDeviceUpdate:
		logger.InfoKV(ctx, "Device counts updated", "payload", string(envelope.Data))
	case bus.EventLog:
		logger.InfoKV(ctx, "Audit entry", "payload", string(envelope.Data))
	default:
		logger.WarnKV(ctx, "Unknown event type", "type", envelope.Type)
	}
}

// send frames and writes one message on the device channel.
func send(sock *websocket.Conn, messageType string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	if err = sock.WriteJSON(ws.Envelope{Type: messageType, Data: data}); err != nil {
		return fmt.Errorf("write message: %w", err)
	}

	return nil
}

// resolveEndpoint normalizes a server address to a websocket URL. A bare
// host:port becomes ws://host:port/ws.
func resolveEndpoint(address string) (string, error) {
	if address == "" {
		return "", ErrNoServerAddress
	}

	if strings.HasPrefix(address, "ws://") || strings.HasPrefix(address, "wss://") {
		if _, err := url.Parse(address); err != nil {
			return "", fmt.Errorf("invalid websocket URL %q: %w", address, err)
		}

		return address, nil
	}

	return "ws://" + address + "/ws", nil
}
