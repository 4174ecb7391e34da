package runner

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/apprun/apprun/pkg/executor"
	"github.com/apprun/apprun/pkg/logging"
	"github.com/apprun/apprun/pkg/models"
	"github.com/apprun/apprun/pkg/registry"
	"github.com/apprun/apprun/pkg/store"
)

func newTestCoordinator(t *testing.T) (*Coordinator, store.Store) {
	t.Helper()

	log := logging.New(logging.ERROR, false)
	log.SetOutput(io.Discard)

	s := store.NewMemoryStore()
	reg := registry.NewMemoryRegistry(time.Minute)
	exe := executor.New(reg, log, executor.Config{})
	return New(s, exe, log), s
}

func registerEcho(t *testing.T, s store.Store) *models.Application {
	t.Helper()

	app := &models.Application{
		ID:         uuid.New().String(),
		Name:       "echo",
		BinaryPath: "/bin/echo",
		CreatedAt:  time.Now(),
	}
	if err := s.CreateApplication(app); err != nil {
		t.Fatal(err)
	}
	return app
}

func TestRunUnknownApplication(t *testing.T) {
	c, _ := newTestCoordinator(t)

	_, err := c.Run(context.Background(), models.RunRequest{ApplicationID: "missing"})
	if !errors.Is(err, store.ErrApplicationNotFound) {
		t.Fatalf("expected ErrApplicationNotFound, got %v", err)
	}
}

func TestRunPersistsReport(t *testing.T) {
	c, s := newTestCoordinator(t)
	app := registerEcho(t, s)

	report, err := c.Run(context.Background(), models.RunRequest{
		ApplicationID: app.ID,
		Args:          []string{"hello"},
		CorrelationID: "run-1",
		ClientIP:      "10.0.0.7",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !report.Succeeded {
		t.Errorf("expected success, got error %q", report.Error)
	}
	if report.Output != "hello\n" {
		t.Errorf("expected captured stdout, got %q", report.Output)
	}
	if report.Command != "/bin/echo hello" {
		t.Errorf("unexpected command line %q", report.Command)
	}

	persisted, err := s.GetReport(report.ID)
	if err != nil {
		t.Fatalf("report was not persisted: %v", err)
	}
	if persisted.CorrelationID != "run-1" {
		t.Errorf("expected correlation id run-1, got %q", persisted.CorrelationID)
	}
}

func TestRunGeneratesCorrelationID(t *testing.T) {
	c, s := newTestCoordinator(t)
	app := registerEcho(t, s)

	report, err := c.Run(context.Background(), models.RunRequest{ApplicationID: app.ID})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.CorrelationID == "" {
		t.Error("expected a server-generated correlation id")
	}
	if _, err := uuid.Parse(report.CorrelationID); err != nil {
		t.Errorf("generated correlation id is not a uuid: %q", report.CorrelationID)
	}
}

func TestRunFailureIsReportedNotReturned(t *testing.T) {
	c, s := newTestCoordinator(t)
	app := &models.Application{
		ID:         uuid.New().String(),
		Name:       "broken",
		BinaryPath: "/nonexistent/binary",
		CreatedAt:  time.Now(),
	}
	if err := s.CreateApplication(app); err != nil {
		t.Fatal(err)
	}

	report, err := c.Run(context.Background(), models.RunRequest{ApplicationID: app.ID})
	if err != nil {
		t.Fatalf("spawn failure must surface in the report, not as an error: %v", err)
	}
	if report.Succeeded {
		t.Error("expected failed outcome")
	}
	if report.Error == "" {
		t.Error("expected a non-empty error description")
	}
}
