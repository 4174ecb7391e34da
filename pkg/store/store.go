// Package store persists registered applications and run reports.
package store

import (
	"errors"
	"time"

	"github.com/apprun/apprun/pkg/models"
)

var (
	ErrApplicationNotFound = errors.New("application not found")
	ErrReportNotFound      = errors.New("report not found")
	ErrUnsupportedDatabase = errors.New("unsupported database type")
)

// Store defines the interface for data persistence.
// SQLite, PostgreSQL and the in-memory store implement this interface.
type Store interface {
	// Application operations
	CreateApplication(app *models.Application) error
	GetApplication(id string) (*models.Application, error)

	// Report operations
	CreateReport(report *models.Report) error
	GetReport(id string) (*models.Report, error)
	IncrementViewCount(id string) error
	IncrementDownloadCount(id string) error

	// Lifecycle
	Close() error
	HealthCheck() error
}

// Config holds database configuration
type Config struct {
	Type string // "sqlite", "postgres" or "memory"
	DSN  string // Connection string (postgres) or file path (sqlite)

	// PostgreSQL specific
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// New creates a store based on configuration
func New(config Config) (Store, error) {
	switch config.Type {
	case "postgres", "postgresql":
		return NewPostgresStore(config)
	case "sqlite", "":
		path := config.DSN
		if path == "" {
			path = "apprun.db"
		}
		return NewSQLiteStore(path)
	case "memory":
		return NewMemoryStore(), nil
	default:
		return nil, ErrUnsupportedDatabase
	}
}
