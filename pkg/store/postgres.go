package store

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"github.com/apprun/apprun/pkg/models"
)

// PostgresStore is a PostgreSQL-based implementation of the data store
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a new PostgreSQL store
func NewPostgresStore(config Config) (*PostgresStore, error) {
	db, err := sql.Open("postgres", config.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	maxOpen := config.MaxOpenConns
	if maxOpen <= 0 {
		maxOpen = 25
	}
	maxIdle := config.MaxIdleConns
	if maxIdle <= 0 {
		maxIdle = 5
	}
	lifetime := config.ConnMaxLifetime
	if lifetime <= 0 {
		lifetime = 5 * time.Minute
	}
	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(maxIdle)
	db.SetConnMaxLifetime(lifetime)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	s := &PostgresStore{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return s, nil
}

func (s *PostgresStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS applications (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		binary_path TEXT NOT NULL,
		description TEXT,
		created_at TIMESTAMPTZ NOT NULL
	);

	CREATE TABLE IF NOT EXISTS reports (
		id TEXT PRIMARY KEY,
		application_id TEXT NOT NULL,
		correlation_id TEXT NOT NULL,
		client_ip TEXT,
		command TEXT NOT NULL,
		succeeded BOOLEAN NOT NULL,
		output TEXT,
		error TEXT,
		started_at TIMESTAMPTZ NOT NULL,
		finished_at TIMESTAMPTZ NOT NULL,
		view_count INTEGER NOT NULL DEFAULT 0,
		download_count INTEGER NOT NULL DEFAULT 0,
		created_at TIMESTAMPTZ NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_reports_application ON reports(application_id);
	CREATE INDEX IF NOT EXISTS idx_reports_correlation ON reports(correlation_id);
	`

	_, err := s.db.Exec(schema)
	return err
}

// CreateApplication adds a new application
func (s *PostgresStore) CreateApplication(app *models.Application) error {
	_, err := s.db.Exec(
		`INSERT INTO applications (id, name, binary_path, description, created_at) VALUES ($1, $2, $3, $4, $5)`,
		app.ID, app.Name, app.BinaryPath, app.Description, app.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create application: %w", err)
	}
	return nil
}

// GetApplication retrieves an application by ID
func (s *PostgresStore) GetApplication(id string) (*models.Application, error) {
	var app models.Application
	err := s.db.QueryRow(
		`SELECT id, name, binary_path, description, created_at FROM applications WHERE id = $1`, id,
	).Scan(&app.ID, &app.Name, &app.BinaryPath, &app.Description, &app.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrApplicationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get application: %w", err)
	}
	return &app, nil
}

// CreateReport records one run outcome
func (s *PostgresStore) CreateReport(report *models.Report) error {
	_, err := s.db.Exec(
		`INSERT INTO reports (id, application_id, correlation_id, client_ip, command, succeeded, output, error, started_at, finished_at, view_count, download_count, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		report.ID, report.ApplicationID, report.CorrelationID, report.ClientIP, report.Command,
		report.Succeeded, report.Output, report.Error, report.StartedAt, report.FinishedAt,
		report.ViewCount, report.DownloadCount, report.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create report: %w", err)
	}
	return nil
}

// GetReport retrieves a report by ID
func (s *PostgresStore) GetReport(id string) (*models.Report, error) {
	var r models.Report
	err := s.db.QueryRow(
		`SELECT id, application_id, correlation_id, client_ip, command, succeeded, output, error, started_at, finished_at, view_count, download_count, created_at
		 FROM reports WHERE id = $1`, id,
	).Scan(&r.ID, &r.ApplicationID, &r.CorrelationID, &r.ClientIP, &r.Command, &r.Succeeded,
		&r.Output, &r.Error, &r.StartedAt, &r.FinishedAt, &r.ViewCount, &r.DownloadCount, &r.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrReportNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get report: %w", err)
	}
	return &r, nil
}

// IncrementViewCount bumps the view counter for a report
func (s *PostgresStore) IncrementViewCount(id string) error {
	return s.increment(id, "view_count")
}

// IncrementDownloadCount bumps the download counter for a report
func (s *PostgresStore) IncrementDownloadCount(id string) error {
	return s.increment(id, "download_count")
}

func (s *PostgresStore) increment(id, column string) error {
	res, err := s.db.Exec(
		fmt.Sprintf(`UPDATE reports SET %s = %s + 1 WHERE id = $1`, column, column), id,
	)
	if err != nil {
		return fmt.Errorf("failed to increment %s: %w", column, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrReportNotFound
	}
	return nil
}

// Close closes the database connection
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

// HealthCheck verifies the database is reachable
func (s *PostgresStore) HealthCheck() error {
	return s.db.Ping()
}
