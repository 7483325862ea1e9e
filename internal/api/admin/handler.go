package admin

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/oshokin/slope-guard/internal/domain/alert"
	"github.com/oshokin/slope-guard/internal/engine"
	"github.com/oshokin/slope-guard/internal/logger"
)

// Handler exposes the operator request/response surface over the core
// operations. Field devices never use this API; they speak the websocket
// protocol instead, which is why validation here is strict.
type Handler struct {
	// core drives alert lifecycle operations.
	core *engine.Engine
}

// NewHandler wires the engine into the admin API.
func NewHandler(core *engine.Engine) *Handler {
	return &Handler{core: core}
}

// createAlertRequest is the POST /alerts body.
type createAlertRequest struct {
	Zone     string `json:"zone"`
	Severity int    `json:"severity,omitempty"`
}

// createScenarioRequest is the POST /scenarios body.
type createScenarioRequest struct {
	EpicenterZone string  `json:"epicenterZone"`
	Magnitude     float64 `json:"magnitude"`
}

// alertResponse is the wire representation of an alert snapshot.
type alertResponse struct {
	AlertID   string   `json:"alertId"`
	Zone      string   `json:"zone"`
	Severity  int      `json:"severity"`
	Timestamp int64    `json:"timestamp"`
	State     string   `json:"state"`
	AckedBy   []string `json:"ackedBy"`
}

// toAlertResponse converts a domain snapshot for the wire.
func toAlertResponse(a *alert.Alert) alertResponse {
	ackedBy := a.AckedBy
	if ackedBy == nil {
		ackedBy = []string{}
	}

	return alertResponse{
		AlertID:   a.ID,
		Zone:      a.Zone,
		Severity:  a.Severity,
		Timestamp: a.CreatedAt.UnixMilli(),
		State:     string(a.State),
		AckedBy:   ackedBy,
	}
}

// CreateAlert handles POST /api/v1/alerts.
func (h *Handler) CreateAlert(c *gin.Context) {
	var req createAlertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})

		return
	}

	created, err := h.core.CreateAlert(c.Request.Context(), req.Zone, req.Severity)
	if err != nil {
		if errors.Is(err, engine.ErrZoneRequired) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

			return
		}

		logger.ErrorKV(c.Request.Context(), "Create alert failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create alert"})

		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "alert": toAlertResponse(created)})
}

// CreateScenario handles POST /api/v1/scenarios.
func (h *Handler) CreateScenario(c *gin.Context) {
	var req createScenarioRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})

		return
	}

	created, err := h.core.CreateScenario(c.Request.Context(), req.EpicenterZone, req.Magnitude)
	if err != nil {
		if errors.Is(err, engine.ErrEpicenterRequired) || errors.Is(err, engine.ErrMagnitudeRequired) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

			return
		}

		logger.ErrorKV(c.Request.Context(), "Create scenario failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create scenario"})

		return
	}

	alerts := make([]alertResponse, 0, len(created))
	for _, a := range created {
		alerts = append(alerts, toAlertResponse(a))
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "alerts": alerts})
}

// ActiveAlerts handles GET /api/v1/alerts/active.
func (h *Handler) ActiveAlerts(c *gin.Context) {
	active := h.core.ActiveAlerts(c.Request.Context())

	alerts := make([]alertResponse, 0, len(active))
	for _, a := range active {
		alerts = append(alerts, toAlertResponse(a))
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "alerts": alerts})
}

// DeviceCounts handles GET /api/v1/devices.
func (h *Handler) DeviceCounts(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"success": true, "devices": h.core.DeviceCounts(c.Request.Context())})
}
