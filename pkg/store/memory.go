package store

import (
	"sync"

	"github.com/apprun/apprun/pkg/models"
)

// MemoryStore is an in-memory implementation of the data store, used in
// tests and single-node development.
type MemoryStore struct {
	mu           sync.RWMutex
	applications map[string]*models.Application
	reports      map[string]*models.Report
}

// NewMemoryStore creates a new in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		applications: make(map[string]*models.Application),
		reports:      make(map[string]*models.Report),
	}
}

// CreateApplication adds a new application
func (s *MemoryStore) CreateApplication(app *models.Application) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	clone := *app
	s.applications[app.ID] = &clone
	return nil
}

// GetApplication retrieves an application by ID
func (s *MemoryStore) GetApplication(id string) (*models.Application, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	app, ok := s.applications[id]
	if !ok {
		return nil, ErrApplicationNotFound
	}
	clone := *app
	return &clone, nil
}

// CreateReport records one run outcome
func (s *MemoryStore) CreateReport(report *models.Report) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	clone := *report
	s.reports[report.ID] = &clone
	return nil
}

// GetReport retrieves a report by ID
func (s *MemoryStore) GetReport(id string) (*models.Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	report, ok := s.reports[id]
	if !ok {
		return nil, ErrReportNotFound
	}
	clone := *report
	return &clone, nil
}

// IncrementViewCount bumps the view counter for a report
func (s *MemoryStore) IncrementViewCount(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	report, ok := s.reports[id]
	if !ok {
		return ErrReportNotFound
	}
	report.ViewCount++
	return nil
}

// IncrementDownloadCount bumps the download counter for a report
func (s *MemoryStore) IncrementDownloadCount(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	report, ok := s.reports[id]
	if !ok {
		return ErrReportNotFound
	}
	report.DownloadCount++
	return nil
}

// Close is a no-op for the in-memory store
func (s *MemoryStore) Close() error {
	return nil
}

// HealthCheck always succeeds for the in-memory store
func (s *MemoryStore) HealthCheck() error {
	return nil
}
