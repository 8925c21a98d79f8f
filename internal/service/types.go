package service

import "time"

// LogFilter supports journal filtering by time range and type.
type LogFilter struct {
	From  time.Time // inclusive; zero means no lower bound
	To    time.Time // inclusive; zero means no upper bound
	Type  string    // "", "CONNECT", "DISCONNECT", "MUTATION", "INTENT", "REJECTED", "PERSIST", "RESTORE", "ALARM"
	Limit int       // most recent N; zero means all
}

// Outcome reports what HandleMessage did with one payload.
type Outcome struct {
	ID          string `json:"id"`
	Payload     string `json:"payload"`
	Canonical   bool   `json:"canonical"`
	Applied     bool   `json:"applied"`
	UnknownName string `json:"unknown_name,omitempty"`
	Receivers   int    `json:"receivers"`
}

// Status is a summary of the controller for dashboards and health checks.
type Status struct {
	Started         bool   `json:"started"`
	DevMode         bool   `json:"dev_mode"`
	SystemStatus    string `json:"system_status"`
	Clients         int    `json:"clients"`
	SnapshotLength  int    `json:"snapshot_length"`
	Actuators       int    `json:"actuators"`
	ActuatorsOnline int    `json:"actuators_online"`
	PumpsOnline     int    `json:"pumps_online"`
}
