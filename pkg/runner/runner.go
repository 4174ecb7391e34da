// Package runner coordinates one run end to end: application lookup,
// command construction, execution, and report persistence.
package runner

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/apprun/apprun/pkg/executor"
	"github.com/apprun/apprun/pkg/logging"
	"github.com/apprun/apprun/pkg/models"
	"github.com/apprun/apprun/pkg/store"
)

// MetricsRecorder is an interface for recording run metrics
type MetricsRecorder interface {
	RunStarted()
	RunFinished(succeeded bool, seconds float64)
}

// Coordinator validates run requests, invokes the executor, and hands the
// outcome to report persistence.
type Coordinator struct {
	store   store.Store
	exec    *executor.Executor
	log     *logging.Logger
	metrics MetricsRecorder
}

// New creates a run coordinator
func New(s store.Store, exec *executor.Executor, log *logging.Logger) *Coordinator {
	return &Coordinator{
		store: s,
		exec:  exec,
		log:   log.WithComponent("runner"),
	}
}

// SetMetricsRecorder sets the metrics recorder for the coordinator
func (c *Coordinator) SetMetricsRecorder(m MetricsRecorder) {
	c.metrics = m
}

// Run launches the application named by req and blocks until the run
// resolves. The outcome is persisted as a report; a persistence failure is
// logged but never discards the outcome already computed.
func (c *Coordinator) Run(ctx context.Context, req models.RunRequest) (*models.Report, error) {
	app, err := c.store.GetApplication(req.ApplicationID)
	if err != nil {
		return nil, fmt.Errorf("application %s: %w", req.ApplicationID, err)
	}

	// The correlation id must exist before the process is spawned so a
	// cancellation racing the spawn has something to reference.
	correlationID := req.CorrelationID
	if correlationID == "" {
		correlationID = uuid.New().String()
	}

	if c.metrics != nil {
		c.metrics.RunStarted()
	}
	outcome := c.exec.Execute(ctx, executor.CommandSpec{
		Path:          app.BinaryPath,
		Args:          req.Args,
		CorrelationID: correlationID,
	})
	if c.metrics != nil {
		c.metrics.RunFinished(outcome.Succeeded, outcome.FinishedAt.Sub(outcome.StartedAt).Seconds())
	}

	report := &models.Report{
		ID:            uuid.New().String(),
		ApplicationID: app.ID,
		CorrelationID: correlationID,
		ClientIP:      req.ClientIP,
		Command:       commandLine(app.BinaryPath, req.Args),
		Succeeded:     outcome.Succeeded,
		Output:        outcome.Output,
		Error:         outcome.Error,
		StartedAt:     outcome.StartedAt,
		FinishedAt:    outcome.FinishedAt,
		CreatedAt:     time.Now(),
	}

	if err := c.store.CreateReport(report); err != nil {
		c.log.Error("failed to persist report %s for %s: %v", report.ID, correlationID, err)
	}

	return report, nil
}

func commandLine(path string, args []string) string {
	if len(args) == 0 {
		return path
	}
	return path + " " + strings.Join(args, " ")
}
