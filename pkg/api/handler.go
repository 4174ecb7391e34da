// Package api exposes the admin HTTP surface: launching runs, cancelling
// them by correlation id, and reading back reports.
package api

import (
	"encoding/json"
	"errors"
	"log"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/apprun/apprun/pkg/cancel"
	"github.com/apprun/apprun/pkg/models"
	"github.com/apprun/apprun/pkg/runner"
	"github.com/apprun/apprun/pkg/store"
)

// MetricsRecorder is an interface for recording cancellation metrics
type MetricsRecorder interface {
	CancellationRecorded(result string)
}

// Handler handles admin API requests
type Handler struct {
	store           store.Store
	runner          *runner.Coordinator
	canceller       *cancel.Service
	metricsRecorder MetricsRecorder
}

// NewHandler creates a new API handler
func NewHandler(s store.Store, r *runner.Coordinator, c *cancel.Service) *Handler {
	return &Handler{
		store:     s,
		runner:    r,
		canceller: c,
	}
}

// SetMetricsRecorder sets the metrics recorder for the handler
func (h *Handler) SetMetricsRecorder(recorder MetricsRecorder) {
	h.metricsRecorder = recorder
}

// RegisterRoutes registers all API routes
func (h *Handler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/runs", h.Run).Methods("POST")
	r.HandleFunc("/runs/{id}/cancel", h.Cancel).Methods("POST")

	r.HandleFunc("/applications", h.CreateApplication).Methods("POST")
	r.HandleFunc("/applications/{id}", h.GetApplication).Methods("GET")

	r.HandleFunc("/reports/{id}", h.GetReport).Methods("GET")
	r.HandleFunc("/reports/{id}/download", h.DownloadReport).Methods("GET")

	r.HandleFunc("/health", h.Health).Methods("GET")
}

// Run launches a registered application and blocks until the run resolves
func (h *Handler) Run(w http.ResponseWriter, r *http.Request) {
	var req models.RunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.ApplicationID == "" {
		http.Error(w, "application_id is required", http.StatusBadRequest)
		return
	}
	if req.ClientIP == "" {
		if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
			req.ClientIP = host
		}
	}

	report, err := h.runner.Run(r.Context(), req)
	if err != nil {
		if errors.Is(err, store.ErrApplicationNotFound) {
			http.Error(w, "Application not found", http.StatusNotFound)
			return
		}
		log.Printf("Error running application %s: %v", req.ApplicationID, err)
		http.Error(w, "Failed to run application", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, models.RunResponse{
		ReportID:      report.ID,
		CorrelationID: report.CorrelationID,
		Outcome: models.Outcome{
			Succeeded:  report.Succeeded,
			Output:     report.Output,
			Error:      report.Error,
			StartedAt:  report.StartedAt,
			FinishedAt: report.FinishedAt,
		},
	})
}

// Cancel terminates a running launch by correlation id
func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	msg, err := h.canceller.Cancel(r.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, cancel.ErrUnknownCorrelation):
			h.recordCancellation("unknown")
			http.Error(w, "Unknown or expired correlation id", http.StatusNotFound)
		case errors.Is(err, cancel.ErrProcessNotFound):
			h.recordCancellation("process_gone")
			http.Error(w, "Process no longer running", http.StatusConflict)
		default:
			h.recordCancellation("error")
			log.Printf("Error cancelling %s: %v", id, err)
			http.Error(w, "Failed to cancel run", http.StatusInternalServerError)
		}
		return
	}

	h.recordCancellation("cancelled")
	writeJSON(w, http.StatusOK, models.CancelResponse{
		CorrelationID: id,
		Message:       msg,
	})
}

// CreateApplication registers a new launchable application
func (h *Handler) CreateApplication(w http.ResponseWriter, r *http.Request) {
	var req models.ApplicationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Name == "" || req.BinaryPath == "" {
		http.Error(w, "name and binary_path are required", http.StatusBadRequest)
		return
	}

	app := &models.Application{
		ID:          uuid.New().String(),
		Name:        req.Name,
		BinaryPath:  req.BinaryPath,
		Description: req.Description,
		CreatedAt:   time.Now(),
	}
	if err := h.store.CreateApplication(app); err != nil {
		log.Printf("Error creating application: %v", err)
		http.Error(w, "Failed to create application", http.StatusInternalServerError)
		return
	}

	log.Printf("Application registered: %s [%s] -> %s", app.Name, app.ID, app.BinaryPath)
	writeJSON(w, http.StatusCreated, app)
}

// GetApplication returns a registered application
func (h *Handler) GetApplication(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	app, err := h.store.GetApplication(id)
	if err != nil {
		if errors.Is(err, store.ErrApplicationNotFound) {
			http.Error(w, "Application not found", http.StatusNotFound)
			return
		}
		http.Error(w, "Failed to get application", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, app)
}

// GetReport returns a run report and bumps its view counter
func (h *Handler) GetReport(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	report, err := h.store.GetReport(id)
	if err != nil {
		if errors.Is(err, store.ErrReportNotFound) {
			http.Error(w, "Report not found", http.StatusNotFound)
			return
		}
		http.Error(w, "Failed to get report", http.StatusInternalServerError)
		return
	}

	if err := h.store.IncrementViewCount(id); err != nil {
		log.Printf("Warning: failed to increment view count for %s: %v", id, err)
	} else {
		report.ViewCount++
	}

	writeJSON(w, http.StatusOK, report)
}

// DownloadReport returns the raw captured output and bumps the download counter
func (h *Handler) DownloadReport(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	report, err := h.store.GetReport(id)
	if err != nil {
		if errors.Is(err, store.ErrReportNotFound) {
			http.Error(w, "Report not found", http.StatusNotFound)
			return
		}
		http.Error(w, "Failed to get report", http.StatusInternalServerError)
		return
	}

	if err := h.store.IncrementDownloadCount(id); err != nil {
		log.Printf("Warning: failed to increment download count for %s: %v", id, err)
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	body := report.Output
	if !report.Succeeded {
		body = report.Error
	}
	w.Write([]byte(body))
}

// Health returns service health
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.store.HealthCheck(); err != nil {
		http.Error(w, "Store unavailable", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) recordCancellation(result string) {
	if h.metricsRecorder != nil {
		h.metricsRecorder.CancellationRecorded(result)
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
