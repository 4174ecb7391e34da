package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/apprun/apprun/pkg/models"
)

// Both backends must behave identically for the operations the run
// coordinator relies on.
func testStores(t *testing.T) map[string]Store {
	t.Helper()

	sqlite, err := NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { sqlite.Close() })

	return map[string]Store{
		"memory": NewMemoryStore(),
		"sqlite": sqlite,
	}
}

func sampleReport(appID string) *models.Report {
	now := time.Now().UTC().Truncate(time.Second)
	return &models.Report{
		ID:            uuid.New().String(),
		ApplicationID: appID,
		CorrelationID: uuid.New().String(),
		ClientIP:      "10.0.0.7",
		Command:       "/usr/bin/backup --full",
		Succeeded:     true,
		Output:        "backup complete\n",
		StartedAt:     now.Add(-time.Minute),
		FinishedAt:    now,
		CreatedAt:     now,
	}
}

func TestApplicationRoundTrip(t *testing.T) {
	for name, s := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			app := &models.Application{
				ID:          uuid.New().String(),
				Name:        "backup",
				BinaryPath:  "/usr/bin/backup",
				Description: "nightly backup tool",
				CreatedAt:   time.Now().UTC().Truncate(time.Second),
			}
			require.NoError(t, s.CreateApplication(app))

			got, err := s.GetApplication(app.ID)
			require.NoError(t, err)
			assert.Equal(t, app.Name, got.Name)
			assert.Equal(t, app.BinaryPath, got.BinaryPath)
		})
	}
}

func TestGetApplicationNotFound(t *testing.T) {
	for name, s := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			_, err := s.GetApplication("missing")
			assert.ErrorIs(t, err, ErrApplicationNotFound)
		})
	}
}

func TestReportRoundTrip(t *testing.T) {
	for name, s := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			report := sampleReport("app-1")
			require.NoError(t, s.CreateReport(report))

			got, err := s.GetReport(report.ID)
			require.NoError(t, err)
			assert.Equal(t, report.CorrelationID, got.CorrelationID)
			assert.Equal(t, report.Output, got.Output)
			assert.True(t, got.Succeeded)
			assert.Equal(t, 0, got.ViewCount)
		})
	}
}

func TestGetReportNotFound(t *testing.T) {
	for name, s := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			_, err := s.GetReport("missing")
			assert.ErrorIs(t, err, ErrReportNotFound)
		})
	}
}

func TestCounters(t *testing.T) {
	for name, s := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			report := sampleReport("app-1")
			require.NoError(t, s.CreateReport(report))

			require.NoError(t, s.IncrementViewCount(report.ID))
			require.NoError(t, s.IncrementViewCount(report.ID))
			require.NoError(t, s.IncrementDownloadCount(report.ID))

			got, err := s.GetReport(report.ID)
			require.NoError(t, err)
			assert.Equal(t, 2, got.ViewCount)
			assert.Equal(t, 1, got.DownloadCount)

			assert.ErrorIs(t, s.IncrementViewCount("missing"), ErrReportNotFound)
			assert.ErrorIs(t, s.IncrementDownloadCount("missing"), ErrReportNotFound)
		})
	}
}

func TestHealthCheck(t *testing.T) {
	for name, s := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			assert.NoError(t, s.HealthCheck())
		})
	}
}

func TestFactoryRejectsUnknownType(t *testing.T) {
	_, err := New(Config{Type: "mongodb"})
	assert.ErrorIs(t, err, ErrUnsupportedDatabase)
}
