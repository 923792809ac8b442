package models

import "time"

// Database connectivity values reported by /health.
const (
	DatabaseConnected    = "connected"
	DatabaseDisconnected = "disconnected"
)

// HealthStatus is the body of GET /health.
type HealthStatus struct {
	Status      string    `json:"status"`
	Database    string    `json:"database"`
	AIAvailable bool      `json:"aiAvailable"`
	Timestamp   time.Time `json:"timestamp"`
}

// ModelListing is one entry of GET /models.
type ModelListing struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Provider    string `json:"provider"`
}
