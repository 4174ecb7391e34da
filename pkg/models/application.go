package models

import (
	"time"
)

// Application is a registered binary the backend is allowed to launch.
type Application struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	BinaryPath  string    `json:"binary_path"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// ApplicationRequest represents a request to register a new application
type ApplicationRequest struct {
	Name        string `json:"name"`
	BinaryPath  string `json:"binary_path"`
	Description string `json:"description,omitempty"`
}
