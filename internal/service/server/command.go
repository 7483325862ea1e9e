package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/oshokin/slope-guard/internal/api/admin"
	"github.com/oshokin/slope-guard/internal/api/ws"
	"github.com/oshokin/slope-guard/internal/bus"
	"github.com/oshokin/slope-guard/internal/config"
	"github.com/oshokin/slope-guard/internal/engine"
	"github.com/oshokin/slope-guard/internal/logger"
	"github.com/oshokin/slope-guard/internal/metrics"
	"github.com/oshokin/slope-guard/internal/registry"
)

// Options controls the slope-guard-server process and configuration.
type Options struct {
	// ConfigPath specifies the path to settings YAML file.
	ConfigPath string
	// ListenAddress provides an optional listen address override.
	ListenAddress string
}

// shutdownTimeout bounds how long in-flight requests may run after the
// process receives a stop signal.
const shutdownTimeout = 10 * time.Second

// Run starts the alert server and blocks until context is canceled or the
// server stops. Loads configuration first, then assembles the core and the
// HTTP listener around it.
func Run(ctx context.Context, opts *Options) error {
	// Set context with logger name for tracking.
	ctx = logger.WithName(ctx, "slope-guard-server")

	// Load configuration first to get server settings.
	settings, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}

	// CLI argument overrides the configured listen address.
	listenAddress := settings.ListenAddress
	if opts.ListenAddress != "" {
		listenAddress = opts.ListenAddress
	}

	metrics.Init()

	// Assemble the core: fan-out bus, device registry, lifecycle engine.
	events := bus.New()
	devices := registry.New(events)

	core := engine.New(ctx, devices, events,
		engine.WithEscalationTimeout(settings.EscalationTimeout),
		engine.WithAckRetention(settings.AckRetention))
	defer core.Close()

	socket := ws.NewHandler(core, devices, events,
		settings.HeartbeatInterval, settings.SendBufferSize)

	gin.SetMode(gin.ReleaseMode)
	router := admin.NewRouter(admin.NewHandler(core), socket, settings.AdminTokenSecret)

	// Setup TCP listener explicitly so bind failures surface before the
	// serve loop starts.
	lc := net.ListenConfig{}

	lis, err := lc.Listen(ctx, "tcp", listenAddress)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", listenAddress, err)
	}

	httpServer := &http.Server{
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	logger.InfoKV(ctx, "Alert server listening",
		"listen_address", listenAddress,
		"escalation_timeout", settings.EscalationTimeout,
		"ack_retention", settings.AckRetention)

	// Done channel is closed after Shutdown finishes to ensure we block
	// until the server fully stops before returning.
	done := make(chan struct{})

	go func() {
		<-ctx.Done()
		logger.Info(ctx, "Shutting down HTTP server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if shutdownErr := httpServer.Shutdown(shutdownCtx); shutdownErr != nil {
			logger.ErrorKV(ctx, "HTTP server shutdown failed", "error", shutdownErr)
		}

		close(done)
	}()

	if err = httpServer.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve HTTP: %w", err)
	}

	<-done
	logger.Info(ctx, "HTTP server stopped")

	return nil
}
