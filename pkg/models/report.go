package models

import (
	"time"
)

// Report is the persisted record of one application run.
type Report struct {
	ID            string    `json:"id"`
	ApplicationID string    `json:"application_id"`
	CorrelationID string    `json:"correlation_id"`
	ClientIP      string    `json:"client_ip,omitempty"`
	Command       string    `json:"command"`
	Succeeded     bool      `json:"succeeded"`
	Output        string    `json:"output,omitempty"`
	Error         string    `json:"error,omitempty"`
	StartedAt     time.Time `json:"started_at"`
	FinishedAt    time.Time `json:"finished_at"`
	ViewCount     int       `json:"view_count"`
	DownloadCount int       `json:"download_count"`
	CreatedAt     time.Time `json:"created_at"`
}
