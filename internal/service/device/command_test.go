package device

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// TestResolveEndpoint verifies bare addresses are turned into websocket URLs
// and full URLs pass through untouched.
func TestResolveEndpoint(t *testing.T) {
	t.Parallel()

	endpoint, err := resolveEndpoint("localhost:8080")
	require.NoError(t, err)
	require.Equal(t, "ws://localhost:8080/ws", endpoint)

	endpoint, err = resolveEndpoint("ws://example.com:9000/ws")
	require.NoError(t, err)
	require.Equal(t, "ws://example.com:9000/ws", endpoint)

	endpoint, err = resolveEndpoint("wss://example.com/ws")
	require.NoError(t, err)
	require.Equal(t, "wss://example.com/ws", endpoint)

	_, err = resolveEndpoint("")
	require.ErrorIs(t, err, ErrNoServerAddress)
}
