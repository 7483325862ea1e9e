package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds runtime parameters for the slope-guard coordinator.
type Config struct {
	// ListenAddress is the address the HTTP/websocket server binds to.
	ListenAddress string `yaml:"listen_address"`
	// EscalationTimeout is how long an alert may stay unacknowledged
	// before the sirens are triggered.
	EscalationTimeout time.Duration `yaml:"escalation_timeout"`
	// AckRetention is how long a terminal alert is kept so that late
	// acknowledgements are still recorded for audit logging.
	AckRetention time.Duration `yaml:"ack_retention"`
	// HeartbeatInterval is the websocket ping period for device connections.
	HeartbeatInterval time.Duration `yaml:"heartbeat_interval"`
	// SendBufferSize is the per-connection outbound event buffer. Events to
	// a device whose buffer is full are dropped for that device only.
	SendBufferSize int `yaml:"send_buffer_size"`
	// AdminTokenSecret enables bearer-token verification on the admin API
	// when non-empty. Authorization policy lives outside this service.
	AdminTokenSecret string `yaml:"admin_token_secret"`
}

const (
	// DefaultConfigFilename is the default filename for coordinator settings.
	DefaultConfigFilename = "slope-guard-settings.yaml"

	// DefaultListenAddress binds the server on all interfaces.
	DefaultListenAddress = ":8080"

	// DefaultEscalationTimeout is the acknowledgement window before sirens fire.
	DefaultEscalationTimeout = 15 * time.Second

	// DefaultAckRetention keeps terminal alerts around for late-ack auditing.
	DefaultAckRetention = time.Minute

	// DefaultHeartbeatInterval is the websocket keepalive period.
	DefaultHeartbeatInterval = 30 * time.Second

	// DefaultSendBufferSize is the per-connection outbound buffer length.
	DefaultSendBufferSize = 64

	// DefaultFilePermissions is the default file permission for config files.
	DefaultFilePermissions = 0o600
)

var (
	// errConfigIsNotSet is returned when a nil configuration is provided.
	errConfigIsNotSet = errors.New("configuration is not set")
	// errListenAddressRequired is returned when the listen address is missing.
	errListenAddressRequired = errors.New("listen address must be provided")
)

// Default returns a configuration filled with default values.
func Default() *Config {
	return &Config{
		ListenAddress:     DefaultListenAddress,
		EscalationTimeout: DefaultEscalationTimeout,
		AckRetention:      DefaultAckRetention,
		HeartbeatInterval: DefaultHeartbeatInterval,
		SendBufferSize:    DefaultSendBufferSize,
	}
}

// Load reads configuration from the provided path and validates essential fields.
// A missing path falls back to DefaultConfigFilename; a missing file yields
// the defaults so the server can run without any settings file.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultConfigFilename
	}

	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}

		return nil, fmt.Errorf("read settings: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(contents, cfg); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Save writes the configuration to the provided path.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if path == "" {
		path = DefaultConfigFilename
	}

	if err := Validate(cfg); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	// Restrict permissions, the file may carry the admin token secret.
	if err := os.WriteFile(filepath.Clean(path), data, DefaultFilePermissions); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}

	return nil
}

// Validate checks the provided settings for required fields and applies defaults
// to optional ones.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if cfg.ListenAddress == "" {
		return errListenAddressRequired
	}

	if _, err := net.ResolveTCPAddr("tcp", cfg.ListenAddress); err != nil {
		return fmt.Errorf("invalid listen address: %w", err)
	}

	if cfg.EscalationTimeout <= 0 {
		cfg.EscalationTimeout = DefaultEscalationTimeout
	}

	if cfg.AckRetention <= 0 {
		cfg.AckRetention = DefaultAckRetention
	}

	if cfg.HeartbeatInterval <= 0 {
		cfg.HeartbeatInterval = DefaultHeartbeatInterval
	}

	if cfg.SendBufferSize <= 0 {
		cfg.SendBufferSize = DefaultSendBufferSize
	}

	return nil
}
