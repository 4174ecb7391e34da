package store

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/apprun/apprun/pkg/models"
)

// SQLiteStore is a SQLite-based implementation of the data store
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite store at dbPath
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	// WAL plus a busy timeout so the report writer and the admin read
	// paths can share the file without SQLITE_BUSY errors.
	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_busy_timeout=10000&_synchronous=NORMAL", dbPath)

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Single writer to avoid lock contention.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(30 * time.Minute)

	s := &SQLiteStore{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return s, nil
}

func (s *SQLiteStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS applications (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		binary_path TEXT NOT NULL,
		description TEXT,
		created_at DATETIME NOT NULL
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
		started_at DATETIME NOT NULL,
		finished_at DATETIME NOT NULL,
		view_count INTEGER NOT NULL DEFAULT 0,
		download_count INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_reports_application ON reports(application_id);
	CREATE INDEX IF NOT EXISTS idx_reports_correlation ON reports(correlation_id);
	`

	_, err := s.db.Exec(schema)
	return err
}

// CreateApplication adds a new application
func (s *SQLiteStore) CreateApplication(app *models.Application) error {
	_, err := s.db.Exec(
		`INSERT INTO applications (id, name, binary_path, description, created_at) VALUES (?, ?, ?, ?, ?)`,
		app.ID, app.Name, app.BinaryPath, app.Description, app.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create application: %w", err)
	}
	return nil
}

// GetApplication retrieves an application by ID
func (s *SQLiteStore) GetApplication(id string) (*models.Application, error) {
	var app models.Application
	err := s.db.QueryRow(
		`SELECT id, name, binary_path, description, created_at FROM applications WHERE id = ?`, id,
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
func (s *SQLiteStore) CreateReport(report *models.Report) error {
	_, err := s.db.Exec(
		`INSERT INTO reports (id, application_id, correlation_id, client_ip, command, succeeded, output, error, started_at, finished_at, view_count, download_count, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
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
func (s *SQLiteStore) GetReport(id string) (*models.Report, error) {
	var r models.Report
	err := s.db.QueryRow(
		`SELECT id, application_id, correlation_id, client_ip, command, succeeded, output, error, started_at, finished_at, view_count, download_count, created_at
		 FROM reports WHERE id = ?`, id,
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
func (s *SQLiteStore) IncrementViewCount(id string) error {
	return s.increment(id, "view_count")
}

// IncrementDownloadCount bumps the download counter for a report
func (s *SQLiteStore) IncrementDownloadCount(id string) error {
	return s.increment(id, "download_count")
}

func (s *SQLiteStore) increment(id, column string) error {
	res, err := s.db.Exec(
		fmt.Sprintf(`UPDATE reports SET %s = %s + 1 WHERE id = ?`, column, column), id,
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
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// HealthCheck verifies the database is reachable
func (s *SQLiteStore) HealthCheck() error {
	return s.db.Ping()
}
