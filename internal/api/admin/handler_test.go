package admin_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/oshokin/slope-guard/internal/api/admin"
	"github.com/oshokin/slope-guard/internal/api/ws"
	"github.com/oshokin/slope-guard/internal/auth"
	"github.com/oshokin/slope-guard/internal/bus"
	"github.com/oshokin/slope-guard/internal/engine"
	"github.com/oshokin/slope-guard/internal/registry"
)

// newTestRouter assembles the API over a fresh core with a long escalation
// timeout so alerts stay pending for the duration of a test.
func newTestRouter(t *testing.T, tokenSecret string) (*gin.Engine, *engine.Engine) {
	t.Helper()

	gin.SetMode(gin.TestMode)

	events := bus.New()
	devices := registry.New(events)
	core := engine.New(context.Background(), devices, events,
		engine.WithEscalationTimeout(time.Minute))
	t.Cleanup(core.Close)

	socket := ws.NewHandler(core, devices, events, 30*time.Second, 8)

	return admin.NewRouter(admin.NewHandler(core), socket, tokenSecret), core
}

// doJSON performs a request with an optional JSON body and decodes the reply.
func doJSON(t *testing.T, router *gin.Engine, method, path string, body any) (int, map[string]any) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)

		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	request := httptest.NewRequest(method, path, reader)
	request.Header.Set("Content-Type", "application/json")

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, request)

	var reply map[string]any
	if recorder.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &reply))
	}

	return recorder.Code, reply
}

func TestCreateAlert(t *testing.T) {
	t.Parallel()

	router, _ := newTestRouter(t, "")

	status, reply := doJSON(t, router, http.MethodPost, "/api/v1/alerts",
		map[string]any{"zone": "Unit-3", "severity": 2})
	require.Equal(t, http.StatusCreated, status)
	require.Equal(t, true, reply["success"])

	created, ok := reply["alert"].(map[string]any)
	require.True(t, ok)
	require.Equal(t, "Unit-3", created["zone"])
	require.Equal(t, float64(2), created["severity"])
	require.Equal(t, "pending", created["state"])
	require.NotEmpty(t, created["alertId"])
}

func TestCreateAlertWithoutZoneFails(t *testing.T) {
	t.Parallel()

	router, _ := newTestRouter(t, "")

	status, reply := doJSON(t, router, http.MethodPost, "/api/v1/alerts",
		map[string]any{"severity": 1})
	require.Equal(t, http.StatusBadRequest, status)
	require.NotEmpty(t, reply["error"])
}

func TestCreateScenario(t *testing.T) {
	t.Parallel()

	router, _ := newTestRouter(t, "")

	status, reply := doJSON(t, router, http.MethodPost, "/api/v1/scenarios",
		map[string]any{"epicenterZone": "Pit-North", "magnitude": 2.4})
	require.Equal(t, http.StatusCreated, status)

	alerts, ok := reply["alerts"].([]any)
	require.True(t, ok)
	require.Len(t, alerts, 1)

	created, ok := alerts[0].(map[string]any)
	require.True(t, ok)
	require.Equal(t, "Pit-North", created["zone"])
	require.Equal(t, float64(3), created["severity"])
}

func TestCreateScenarioWithoutMagnitudeFails(t *testing.T) {
	t.Parallel()

	router, _ := newTestRouter(t, "")

	status, _ := doJSON(t, router, http.MethodPost, "/api/v1/scenarios",
		map[string]any{"epicenterZone": "Pit-North"})
	require.Equal(t, http.StatusBadRequest, status)
}

func TestActiveAlerts(t *testing.T) {
	t.Parallel()

	router, core := newTestRouter(t, "")

	first, err := core.CreateAlert(context.Background(), "Unit-1", 1)
	require.NoError(t, err)

	_, err = core.CreateAlert(context.Background(), "Unit-2", 2)
	require.NoError(t, err)

	core.Acknowledge(context.Background(), first.ID, "worker-7")

	status, reply := doJSON(t, router, http.MethodGet, "/api/v1/alerts/active", nil)
	require.Equal(t, http.StatusOK, status)

	alerts, ok := reply["alerts"].([]any)
	require.True(t, ok)
	require.Len(t, alerts, 1)

	remaining, ok := alerts[0].(map[string]any)
	require.True(t, ok)
	require.Equal(t, "Unit-2", remaining["zone"])
}

func TestDeviceCounts(t *testing.T) {
	t.Parallel()

	router, _ := newTestRouter(t, "")

	status, reply := doJSON(t, router, http.MethodGet, "/api/v1/devices", nil)
	require.Equal(t, http.StatusOK, status)

	counts, ok := reply["devices"].(map[string]any)
	require.True(t, ok)
	require.Equal(t, float64(0), counts["bands"])
	require.Equal(t, float64(0), counts["sirens"])
	require.Equal(t, float64(0), counts["dashboards"])
}

func TestHealthz(t *testing.T) {
	t.Parallel()

	router, _ := newTestRouter(t, "")

	status, reply := doJSON(t, router, http.MethodGet, "/healthz", nil)
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, "ok", reply["status"])
}

func TestMetricsEndpoint(t *testing.T) {
	t.Parallel()

	router, _ := newTestRouter(t, "")

	request := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, request)

	require.Equal(t, http.StatusOK, recorder.Code)
}

func TestTokenGuard(t *testing.T) {
	t.Parallel()

	const secret = "test-secret"

	router, _ := newTestRouter(t, secret)

	status, _ := doJSON(t, router, http.MethodGet, "/api/v1/devices", nil)
	require.Equal(t, http.StatusUnauthorized, status)

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, auth.Claims{
		Role: "operator",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString([]byte(secret))
	require.NoError(t, err)

	request := httptest.NewRequest(http.MethodGet, "/api/v1/devices", nil)
	request.Header.Set("Authorization", "Bearer "+token)

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, request)

	require.Equal(t, http.StatusOK, recorder.Code)
}
