package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// TestValidate checks required fields and defaulting of optional ones.
func TestValidate(t *testing.T) {
	t.Parallel()

	// Missing listen address.
	err := Validate(new(Config))
	require.Error(t, err)

	// Bad listen address.
	err = Validate(&Config{ListenAddress: "bad:address"})
	require.Error(t, err)

	// Defaults applied to zero-valued optional fields.
	cfg := &Config{ListenAddress: "127.0.0.1:0"}

	err = Validate(cfg)
	require.NoError(t, err)
	require.Equal(t, DefaultEscalationTimeout, cfg.EscalationTimeout)
	require.Equal(t, DefaultAckRetention, cfg.AckRetention)
	require.Equal(t, DefaultHeartbeatInterval, cfg.HeartbeatInterval)
	require.Equal(t, DefaultSendBufferSize, cfg.SendBufferSize)
}

// TestLoadMissingFileYieldsDefaults ensures a missing settings file is not an error.
func TestLoadMissingFileYieldsDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	require.NoError(t, err)
	require.Equal(t, Default(), cfg)
}

// TestSaveLoadRoundtrip ensures settings are persisted and loaded back correctly.
func TestSaveLoadRoundtrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "settings.yaml")

	cfg := &Config{
		ListenAddress:     "127.0.0.1:9090",
		EscalationTimeout: 5 * time.Second,
		AckRetention:      30 * time.Second,
		HeartbeatInterval: 10 * time.Second,
		SendBufferSize:    16,
	}

	require.NoError(t, Save(path, cfg))

	loaded, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, cfg, loaded)
}
