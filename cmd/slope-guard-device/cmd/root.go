package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/oshokin/slope-guard/internal/service/device"
	"github.com/oshokin/slope-guard/internal/version"
)

var (
	// role selects the simulated device kind.
	role string
	// zones lists the zones the device belongs to.
	zones []string
	// workerID identifies the wearer for acknowledgements.
	workerID string
	// autoAck makes a band acknowledge every delivered alert.
	autoAck bool
	// ackDelay is the pause before an automatic acknowledgement.
	ackDelay time.Duration

	// rootCmd represents the base command for running a simulated device.
	rootCmd = &cobra.Command{
		Use:   "slope-guard-device [server-address]",
		Short: "Run a simulated field device against the alert server.",
		Long: `Connects to the alert server as a band, siren or dashboard.

The device registers its role and zone set, then logs every event the server
delivers. Bands can acknowledge alerts automatically after a configurable
delay, which exercises the acknowledge and escalation flows end to end.
Server address can be provided as argument (host:port or a full ws:// URL).`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			// Use server address argument if provided.
			var serverAddress string
			if len(args) > 0 {
				serverAddress = args[0]
			}

			options := &device.Options{
				ServerAddress: serverAddress,
				Role:          role,
				Zones:         zones,
				WorkerID:      workerID,
				AutoAck:       autoAck,
				AckDelay:      ackDelay,
			}

			return device.Run(ctx, options)
		},
	}
)

// Execute runs the slope-guard-device CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	// Setup command flags with consistent naming and descriptions.
	rootCmd.Flags().StringVarP(&role, "role", "r", "band", "device role: band, siren or dashboard")
	rootCmd.Flags().StringSliceVarP(&zones, "zones", "z", nil, "zones the device belongs to")
	rootCmd.Flags().StringVarP(&workerID, "worker-id", "w", "", "worker identity, defaults to user@host")
	rootCmd.Flags().BoolVar(&autoAck, "auto-ack", false, "acknowledge every delivered alert")
	rootCmd.Flags().DurationVar(&ackDelay, "ack-delay", 0, "pause before an automatic acknowledgement")
}
