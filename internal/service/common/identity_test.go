package common

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// TestDetectWorkerID verifies the identity has the user@host shape.
func TestDetectWorkerID(t *testing.T) {
	t.Parallel()

	workerID, err := DetectWorkerID()
	require.NoError(t, err)
	require.Contains(t, workerID, "@")
	require.NotEqual(t, "@", workerID)
}
