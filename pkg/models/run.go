package models

import (
	"time"
)

// Outcome is the immutable result of one command execution. Exactly one
// Outcome is produced per run, whether the process exited on its own, hit
// the runtime ceiling, or was killed by an out-of-band cancellation.
type Outcome struct {
	Succeeded  bool      `json:"succeeded"`
	Output     string    `json:"output,omitempty"`
	Error      string    `json:"error,omitempty"`
	PID        int       `json:"pid,omitempty"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

// RunRequest represents a request to launch a registered application
type RunRequest struct {
	ApplicationID string   `json:"application_id"`
	Args          []string `json:"args,omitempty"`
	// CorrelationID links this run to a later cancellation request. When
	// empty the server generates one before the process is spawned.
	CorrelationID string `json:"correlation_id,omitempty"`
	ClientIP      string `json:"client_ip,omitempty"`
}

// RunResponse is returned to the caller once the run resolves
type RunResponse struct {
	ReportID      string  `json:"report_id"`
	CorrelationID string  `json:"correlation_id"`
	Outcome       Outcome `json:"outcome"`
}

// CancelResponse confirms a delivered cancellation request
type CancelResponse struct {
	CorrelationID string `json:"correlation_id"`
	Message       string `json:"message"`
}
