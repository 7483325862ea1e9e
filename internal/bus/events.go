package bus

// Outbound event types on the device channel.
const (
	// EventAlert delivers a new alert to zone-matching bands.
	EventAlert = "alert"
	// EventSiren activates zone-matching sirens on escalation.
	EventSiren = "siren"
	// EventSirenCancel stands sirens down after the first acknowledgement.
	EventSirenCancel = "sirenCancel"
	// EventDeviceUpdate broadcasts role counts on any registry change.
	EventDeviceUpdate = "deviceUpdate"
	// EventLog carries lifecycle audit entries to dashboards.
	EventLog = "log"
)

// Log entry types carried by EventLog payloads.
const (
	LogCreated   = "created"
	LogScenario  = "scenario"
	LogAck       = "ack"
	LogEscalated = "escalated"
)

// Event is one unit of fan-out on the device channel.
type Event struct {
	// Type is one of the Event* constants.
	Type string
	// Data is the JSON-serialisable payload.
	Data any
}

// AlertPayload is sent to bands when an alert is created.
type AlertPayload struct {
	AlertID   string `json:"alertId"`
	Zone      string `json:"zone"`
	Severity  int    `json:"severity"`
	Timestamp int64  `json:"timestamp"`
}

// SirenPayload is sent to sirens when an alert escalates.
type SirenPayload struct {
	AlertID  string `json:"alertId"`
	Zone     string `json:"zone"`
	Severity int    `json:"severity"`
}

// SirenCancelPayload is sent to sirens when an alert is acknowledged.
type SirenCancelPayload struct {
	AlertID string `json:"alertId"`
}

// DeviceCountsPayload reports currently connected devices per role.
type DeviceCountsPayload struct {
	Bands      int `json:"bands"`
	Sirens     int `json:"sirens"`
	Dashboards int `json:"dashboards"`
}

// LogPayload is one audit entry pushed to dashboards. Fields beyond Type are
// populated depending on the entry kind.
type LogPayload struct {
	Type          string  `json:"type"`
	AlertID       string  `json:"alertId,omitempty"`
	Zone          string  `json:"zone,omitempty"`
	Severity      int     `json:"severity,omitempty"`
	WorkerID      string  `json:"workerId,omitempty"`
	EpicenterZone string  `json:"epicenterZone,omitempty"`
	Magnitude     float64 `json:"magnitude,omitempty"`
}
